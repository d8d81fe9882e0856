package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"product-pulse/internal/models"
)

func openTestStore(t *testing.T) *ProductStore {
	t.Helper()
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	store, err := Open(filepath.Join(t.TempDir(), "products.db"), log)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	return store
}

func TestSeedAndList(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	seeds := []models.Product{
		{ID: "b-product", Name: "Beta"},
		{ID: "a-product", Name: "Alpha"},
	}
	if err := store.Seed(ctx, seeds); err != nil {
		t.Fatalf("Seed() error: %v", err)
	}

	products, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(products) != 2 {
		t.Fatalf("got %d products, want 2", len(products))
	}
	if products[0].ID != "a-product" || products[1].ID != "b-product" {
		t.Errorf("products not ordered by ID: %v, %v", products[0].ID, products[1].ID)
	}
}

func TestSeedDoesNotClobberExisting(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if err := store.Seed(ctx, []models.Product{{ID: "p1", Name: "Original"}}); err != nil {
		t.Fatalf("Seed() error: %v", err)
	}

	// Simulate accumulated pipeline state.
	enriched := models.Product{
		ID:     "p1",
		Name:   "Original",
		Videos: []models.Video{{ID: "v1", Title: "a review"}},
	}
	if err := store.Save(ctx, enriched); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	// Re-seeding on restart must leave the enriched record alone.
	if err := store.Seed(ctx, []models.Product{{ID: "p1", Name: "Reseeded"}}); err != nil {
		t.Fatalf("second Seed() error: %v", err)
	}

	got, err := store.Get(ctx, "p1")
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if got.Name != "Original" {
		t.Errorf("name = %q, seed overwrote existing record", got.Name)
	}
	if len(got.Videos) != 1 {
		t.Errorf("videos lost on re-seed: %+v", got.Videos)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	now := time.Date(2026, 3, 1, 6, 0, 0, 0, time.UTC)
	score := 0.9
	product := models.Product{
		ID:          "p1",
		Name:        "Aurora X1",
		Brand:       "Aurora",
		Category:    "headphones",
		SearchQuery: "aurora x1 review",
		Stores:      []models.StoreTarget{{Store: "shopA", URL: "https://a.example/p"}},
		Videos: []models.Video{{
			ID:          "v1",
			Title:       "a review",
			ChannelName: "TechChannel",
			Sentiment:   &score,
			Transcript: &models.Transcript{
				Language: "en",
				Segments: []models.Segment{{Start: 0, Duration: 2, Text: "great product"}},
			},
		}},
		Prices: []models.PriceQuote{{Store: "shopA", Price: 999, Currency: "JPY", CheckedAt: now}},
		Summary: models.AnalysisSummary{
			Positives: []string{"light"},
			Negatives: []string{"pricey"},
			BestFor:   []string{"commuters"},
			Score:     0.9,
		},
		Schema: &models.GeneratedSchema{
			Product:     models.ProductSchema{Context: "https://schema.org/", Type: "Product", Name: "Aurora X1"},
			SEO:         models.SEOMetadata{Title: "Aurora X1 Review Roundup"},
			GeneratedAt: now,
		},
		LastAnalyzed: now,
		LastUpdated:  now,
	}

	if err := store.Save(ctx, product); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	got, err := store.Get(ctx, "p1")
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}

	if got.Name != "Aurora X1" || got.Brand != "Aurora" || got.SearchQuery != "aurora x1 review" {
		t.Errorf("scalar fields lost: %+v", got)
	}
	if len(got.Stores) != 1 || got.Stores[0].Store != "shopA" {
		t.Errorf("stores lost: %+v", got.Stores)
	}
	if len(got.Videos) != 1 {
		t.Fatalf("got %d videos, want 1", len(got.Videos))
	}
	v := got.Videos[0]
	if v.Sentiment == nil || *v.Sentiment != 0.9 {
		t.Errorf("sentiment lost: %v", v.Sentiment)
	}
	if v.Transcript == nil || v.Transcript.Text() != "great product" {
		t.Errorf("transcript lost: %+v", v.Transcript)
	}
	if len(got.Prices) != 1 || got.Prices[0].Price != 999 {
		t.Errorf("prices lost: %+v", got.Prices)
	}
	if got.Summary.Score != 0.9 || len(got.Summary.Positives) != 1 {
		t.Errorf("summary lost: %+v", got.Summary)
	}
	if got.Schema == nil || got.Schema.Product.Name != "Aurora X1" {
		t.Errorf("schema lost: %+v", got.Schema)
	}
	if !got.LastAnalyzed.Equal(now) {
		t.Errorf("lastAnalyzed = %v, want %v", got.LastAnalyzed, now)
	}
}

func TestSaveReplacesExisting(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	first := models.Product{
		ID:     "p1",
		Name:   "Aurora X1",
		Prices: []models.PriceQuote{{Store: "shopA", Price: 1200, Currency: "JPY"}},
	}
	if err := store.Save(ctx, first); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	second := first
	second.Prices = []models.PriceQuote{{Store: "shopB", Price: 999, Currency: "JPY"}}
	if err := store.Save(ctx, second); err != nil {
		t.Fatalf("second Save() error: %v", err)
	}

	got, err := store.Get(ctx, "p1")
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if len(got.Prices) != 1 || got.Prices[0].Store != "shopB" {
		t.Errorf("old quote survived the replace: %+v", got.Prices)
	}
}

func TestGetMissing(t *testing.T) {
	store := openTestStore(t)
	if _, err := store.Get(context.Background(), "absent"); err == nil {
		t.Fatal("expected error for missing product")
	}
}
