package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"product-pulse/internal/models"
)

// PriceStage fetches current quotes for every configured store. The output
// replaces the product's quote set wholesale; stale quotes are discarded.
type PriceStage struct {
	fetch PriceFetcher
	log   *logrus.Logger
}

func NewPriceStage(fetch PriceFetcher, log *logrus.Logger) *PriceStage {
	return &PriceStage{fetch: fetch, log: log}
}

// Run fetches one quote per store. Failures are isolated per store; an empty
// result just means the product has no current price data.
func (s *PriceStage) Run(ctx context.Context, stores []models.StoreTarget) ([]models.PriceQuote, []SoftError) {
	quotes := make([]models.PriceQuote, 0, len(stores))
	var softs []SoftError

	for _, target := range stores {
		result, err := s.fetch.FetchPrice(ctx, target.URL, target.Store)
		if err != nil {
			softs = append(softs, SoftError{
				Stage:   "price",
				Kind:    KindScrapeFailed,
				Subject: target.Store,
				Err:     err,
			})
			continue
		}
		if result == nil {
			// Page exposed no price; omit the store this run.
			continue
		}
		if result.Price <= 0 {
			softs = append(softs, SoftError{
				Stage:   "price",
				Kind:    KindScrapeFailed,
				Subject: target.Store,
				Err:     fmt.Errorf("non-positive price %d", result.Price),
			})
			continue
		}

		quotes = append(quotes, models.PriceQuote{
			Store:     target.Store,
			Price:     result.Price,
			Currency:  result.Currency,
			URL:       target.URL,
			CheckedAt: time.Now().UTC(),
		})
	}

	s.log.WithFields(logrus.Fields{
		"stores": len(stores),
		"quotes": len(quotes),
	}).Debug("Price tracking complete")

	return quotes, softs
}
