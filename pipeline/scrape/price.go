package scrape

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"

	"product-pulse/internal/models"
	"product-pulse/shared/config"
)

var nonDigits = regexp.MustCompile(`[^\d]`)

// Client scrapes retail product pages for prices. Each known store has a
// configured CSS selector and currency; the store name arrives as the hint.
type Client struct {
	httpClient *http.Client
	userAgent  string
	stores     map[string]config.StoreProfile
	log        *logrus.Logger
}

func NewClient(cfg *config.ScrapeConfig, log *logrus.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		userAgent:  cfg.UserAgent,
		stores:     cfg.Stores,
		log:        log,
	}
}

// FetchPrice loads the page and extracts the first price under the store's
// selector. A page without a matching element yields (nil, nil): the store
// simply has no quote this run.
func (c *Client) FetchPrice(ctx context.Context, pageURL, storeHint string) (*models.PriceResult, error) {
	profile, ok := c.stores[storeHint]
	if !ok {
		return nil, fmt.Errorf("no scrape profile configured for store %s", storeHint)
	}

	doc, err := c.fetchDocument(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	raw := doc.Find(profile.PriceSelector).First().Text()
	digits := nonDigits.ReplaceAllString(raw, "")
	if digits == "" {
		c.log.WithFields(logrus.Fields{
			"store": storeHint,
			"url":   pageURL,
		}).Debug("No price found on page")
		return nil, nil
	}

	price, err := strconv.Atoi(digits)
	if err != nil {
		return nil, fmt.Errorf("failed to parse price %q: %w", raw, err)
	}
	if price <= 0 {
		return nil, nil
	}

	return &models.PriceResult{
		Price:    price,
		Currency: profile.Currency,
	}, nil
}

func (c *Client) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	var doc *goquery.Document

	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("failed to create page request: %w", err))
		}
		req.Header.Set("User-Agent", c.userAgent)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("failed to fetch page: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return fmt.Errorf("page returned status %d", resp.StatusCode)
		}
		if resp.StatusCode != http.StatusOK {
			return backoff.Permanent(fmt.Errorf("page returned status %d", resp.StatusCode))
		}

		doc, err = goquery.NewDocumentFromReader(resp.Body)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("failed to parse page: %w", err))
		}
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 3), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		return nil, err
	}
	return doc, nil
}
