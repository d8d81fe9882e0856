package pipeline

import (
	"context"
	"errors"
	"testing"

	"product-pulse/internal/models"
)

func TestPriceRun(t *testing.T) {
	fetcher := &fakePrices{
		results: map[string]*models.PriceResult{
			"shopA": {Price: 1200, Currency: "JPY"},
			"shopB": nil, // page exposes no price
			"shopD": {Price: 0, Currency: "JPY"},
		},
		errs: map[string]error{
			"shopC": errors.New("503 from store"),
		},
	}
	stage := NewPriceStage(fetcher, testLogger())

	stores := []models.StoreTarget{
		{Store: "shopA", URL: "https://a.example/p"},
		{Store: "shopB", URL: "https://b.example/p"},
		{Store: "shopC", URL: "https://c.example/p"},
		{Store: "shopD", URL: "https://d.example/p"},
	}

	quotes, softs := stage.Run(context.Background(), stores)

	if len(quotes) != 1 {
		t.Fatalf("got %d quotes, want 1", len(quotes))
	}
	q := quotes[0]
	if q.Store != "shopA" || q.Price != 1200 || q.Currency != "JPY" || q.URL != "https://a.example/p" {
		t.Errorf("unexpected quote: %+v", q)
	}
	if q.CheckedAt.IsZero() {
		t.Error("quote CheckedAt not set")
	}

	// shopC failed outright, shopD returned a non-positive price. shopB
	// simply had no price on the page and raises nothing.
	if len(softs) != 2 {
		t.Fatalf("got %d soft errors, want 2: %v", len(softs), softs)
	}
	for _, s := range softs {
		if s.Kind != KindScrapeFailed {
			t.Errorf("soft error kind = %q, want %q", s.Kind, KindScrapeFailed)
		}
	}
}

func TestPriceRunNoStores(t *testing.T) {
	stage := NewPriceStage(&fakePrices{}, testLogger())

	quotes, softs := stage.Run(context.Background(), nil)
	if len(quotes) != 0 || len(softs) != 0 {
		t.Errorf("expected no quotes and no soft errors, got %d and %d", len(quotes), len(softs))
	}
}
