package pipeline

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"product-pulse/internal/models"
)

// DiscoveryStage finds new review videos for a product and filters them
// against the already-known set.
type DiscoveryStage struct {
	search     VideoSearcher
	maxResults int64
	log        *logrus.Logger
}

func NewDiscoveryStage(search VideoSearcher, maxResults int64, log *logrus.Logger) *DiscoveryStage {
	return &DiscoveryStage{search: search, maxResults: maxResults, log: log}
}

// Run returns the videos to append. A search failure is a soft error and an
// empty delta: later stages still run against the product's existing videos.
func (s *DiscoveryStage) Run(ctx context.Context, product *models.Product) ([]models.Video, []SoftError) {
	query := SearchQuery(product)

	candidates, err := s.search.SearchVideos(ctx, query, s.maxResults)
	if err != nil {
		soft := SoftError{Stage: "discovery", Kind: KindSourceUnavailable, Err: err}
		s.log.WithFields(logrus.Fields{
			"product": product.ID,
			"query":   query,
		}).WithError(err).Warn("Video search unavailable")
		return nil, []SoftError{soft}
	}

	fresh := FilterKnown(product.Videos, candidates)

	videos := make([]models.Video, 0, len(fresh))
	for _, c := range fresh {
		videos = append(videos, models.Video{
			ID:           c.ID,
			Title:        c.Title,
			ChannelName:  c.ChannelName,
			URL:          c.URL,
			ThumbnailURL: c.ThumbnailURL,
			PublishedAt:  c.PublishedAt,
			ViewCount:    c.ViewCount,
		})
	}

	s.log.WithFields(logrus.Fields{
		"product": product.ID,
		"found":   len(candidates),
		"new":     len(videos),
	}).Debug("Discovery complete")

	return videos, nil
}

// SearchQuery builds the deterministic search string for a product. An
// explicit query on the record wins; otherwise name plus a fixed suffix.
func SearchQuery(product *models.Product) string {
	if product.SearchQuery != "" {
		return product.SearchQuery
	}
	return fmt.Sprintf("%s review", product.Name)
}
