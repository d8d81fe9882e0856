package pipeline

import (
	"context"
	"fmt"

	"product-pulse/internal/models"
)

// The pipeline consumes external services through these narrow interfaces.
// Concrete backends live in pipeline/youtube, pipeline/scrape and shared/ai;
// any substitute implementation works without touching stage logic.

// VideoSearcher finds candidate review videos for a search query.
type VideoSearcher interface {
	SearchVideos(ctx context.Context, query string, maxResults int64) ([]models.VideoCandidate, error)
}

// TranscriptFetcher resolves timed captions for a video. A (nil, nil) return
// means no transcript exists; that is absence, not an error.
type TranscriptFetcher interface {
	FetchTranscript(ctx context.Context, videoID, lang string) ([]models.Segment, error)
}

// PriceFetcher scrapes one retail page. A (nil, nil) return means the page
// exposed no price.
type PriceFetcher interface {
	FetchPrice(ctx context.Context, url, storeHint string) (*models.PriceResult, error)
}

// SentimentScorer rates one text span in [0, 1].
type SentimentScorer interface {
	ScoreSentiment(ctx context.Context, text string) (float64, error)
}

// AttributeExtractor pulls positive/negative phrases from one transcript.
type AttributeExtractor interface {
	ExtractAttributes(ctx context.Context, text string) (models.Attributes, error)
}

// AudienceExtractor derives "suited for" phrases from combined transcripts.
type AudienceExtractor interface {
	ExtractAudienceFit(ctx context.Context, text string) ([]string, error)
}

// Capabilities bundles every external dependency a product run needs.
type Capabilities struct {
	Search      VideoSearcher
	Transcripts TranscriptFetcher
	Prices      PriceFetcher
	Sentiment   SentimentScorer
	Attributes  AttributeExtractor
	Audience    AudienceExtractor
}

// Soft error kinds. A soft error degrades a stage's output but never aborts
// the product run; anything else escaping a stage is a hard failure.
const (
	KindSourceUnavailable     = "source_unavailable"
	KindTranscriptUnavailable = "transcript_unavailable"
	KindScrapeFailed          = "scrape_failed"
	KindAnalysisUnavailable   = "analysis_unavailable"
)

// SoftError records one anticipated, recoverable capability failure.
// Subject identifies the affected video ID or store name, when there is one.
type SoftError struct {
	Stage   string
	Kind    string
	Subject string
	Err     error
}

func (e SoftError) Error() string {
	if e.Subject != "" {
		return fmt.Sprintf("%s: %s (%s): %v", e.Stage, e.Kind, e.Subject, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Stage, e.Kind, e.Err)
}

func (e SoftError) Unwrap() error { return e.Err }
