package pipeline

import (
	"fmt"
	"math"
	"strings"
	"time"

	"product-pulse/internal/models"
)

const maxReviewEntries = 5

// SynthesizeSchema derives the display-ready record from the current
// summary and price quotes. It is a pure function: same inputs, same output.
func SynthesizeSchema(product models.Product, summary models.AnalysisSummary, videos []models.Video, prices []models.PriceQuote, now time.Time) *models.GeneratedSchema {
	schema := models.ProductSchema{
		Context:     "https://schema.org/",
		Type:        "Product",
		Name:        product.Name,
		Description: seoDescription(product, summary),
	}
	if len(videos) > 0 {
		schema.Image = videos[0].ThumbnailURL
	}
	if product.Brand != "" {
		schema.Brand = &models.BrandSchema{Type: "Brand", Name: product.Brand}
	}

	schema.AggregateRating = &models.AggregateRating{
		Type:        "AggregateRating",
		RatingValue: RatingFromScore(summary.Score),
		BestRating:  5,
		WorstRating: 1,
		RatingCount: len(videos),
		ReviewCount: len(videos),
	}

	schema.Offers = synthesizeOffers(prices)
	schema.Review = synthesizeReviews(videos)

	return &models.GeneratedSchema{
		Product:     schema,
		SEO:         synthesizeSEO(product, summary),
		GeneratedAt: now,
	}
}

// RatingFromScore converts a [0,1] score to the 1-5 scale used everywhere a
// rating is displayed: score*5 rounded to one decimal, clamped to [1,5].
func RatingFromScore(score float64) float64 {
	rating := math.Round(score*5*10) / 10
	if rating < 1 {
		return 1
	}
	if rating > 5 {
		return 5
	}
	return rating
}

// synthesizeOffers builds the offer aggregate, or nil when there are no
// quotes. An absent offers field is deliberate: no placeholder zeros.
func synthesizeOffers(prices []models.PriceQuote) *models.AggregateOffer {
	if len(prices) == 0 {
		return nil
	}

	lowest := prices[0]
	highest := prices[0].Price
	for _, q := range prices[1:] {
		if q.Price < lowest.Price {
			lowest = q
		}
		if q.Price > highest {
			highest = q.Price
		}
	}

	offers := make([]models.OfferSchema, 0, len(prices))
	for _, q := range prices {
		offers = append(offers, models.OfferSchema{
			Type:          "Offer",
			Price:         q.Price,
			PriceCurrency: q.Currency,
			URL:           q.URL,
			SellerName:    q.Store,
		})
	}

	return &models.AggregateOffer{
		Type:          "AggregateOffer",
		LowPrice:      lowest.Price,
		HighPrice:     highest,
		PriceCurrency: lowest.Currency,
		OfferCount:    len(prices),
		Offers:        offers,
	}
}

// synthesizeReviews maps up to five videos with a non-default sentiment to
// review entries, rating each with the video's own score.
func synthesizeReviews(videos []models.Video) []models.ReviewSchema {
	var reviews []models.ReviewSchema
	for _, v := range videos {
		if v.Sentiment == nil || *v.Sentiment == NeutralScore {
			continue
		}
		review := models.ReviewSchema{
			Type:       "Review",
			AuthorName: v.ChannelName,
			URL:        v.URL,
			ReviewRating: &models.RatingSchema{
				Type:        "Rating",
				RatingValue: RatingFromScore(*v.Sentiment),
				BestRating:  5,
			},
		}
		if !v.PublishedAt.IsZero() {
			review.DatePublished = v.PublishedAt.Format("2006-01-02")
		}
		reviews = append(reviews, review)
		if len(reviews) == maxReviewEntries {
			break
		}
	}
	return reviews
}

// scoreLabel buckets the aggregate score into the label used by the SEO
// templates.
func scoreLabel(score float64) string {
	switch {
	case score >= 0.8:
		return "highly rated"
	case score >= 0.6:
		return "generally favorable"
	case score >= 0.4:
		return "mixed"
	default:
		return "critical"
	}
}

func synthesizeSEO(product models.Product, summary models.AnalysisSummary) models.SEOMetadata {
	label := scoreLabel(summary.Score)

	title := fmt.Sprintf("%s Review Roundup - %s by Video Reviewers", product.Name, capitalize(label))

	description := fmt.Sprintf("Reviewers rate %s as %s.", product.Name, label)
	if tops := topPhrases(summary.Positives, 3); tops != "" {
		description += fmt.Sprintf(" Praised for %s.", tops)
	}
	description += " Aggregated from video reviews and current store prices."

	keywords := strings.Join([]string{
		product.Name,
		fmt.Sprintf("%s review", product.Name),
		fmt.Sprintf("%s price", product.Name),
		product.Category,
	}, ",")

	return models.SEOMetadata{
		Title:       title,
		Description: description,
		Keywords:    keywords,
	}
}

func seoDescription(product models.Product, summary models.AnalysisSummary) string {
	return synthesizeSEO(product, summary).Description
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func topPhrases(phrases []string, n int) string {
	if len(phrases) == 0 {
		return ""
	}
	if len(phrases) > n {
		phrases = phrases[:n]
	}
	return strings.Join(phrases, ", ")
}
