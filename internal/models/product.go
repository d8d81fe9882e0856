package models

import (
	"strings"
	"time"
)

// Product is the persisted record the pipeline owns during a run. The
// presentation layer and CRUD API only ever read it.
type Product struct {
	ID           string           `json:"id"`
	Name         string           `json:"name"`
	Brand        string           `json:"brand"`
	Category     string           `json:"category"`
	SearchQuery  string           `json:"search_query,omitempty"`
	Stores       []StoreTarget    `json:"stores,omitempty"`
	Videos       []Video          `json:"videos"`
	Prices       []PriceQuote     `json:"prices"`
	Summary      AnalysisSummary  `json:"summary"`
	Schema       *GeneratedSchema `json:"schema,omitempty"`
	LastAnalyzed time.Time        `json:"last_analyzed"`
	LastUpdated  time.Time        `json:"last_updated"`
}

// StoreTarget names a retail page to track for the product.
type StoreTarget struct {
	Store string `json:"store"`
	URL   string `json:"url"`
}

// Video is a discovered review video. Created on discovery, sentiment set
// once by analysis, never deleted.
type Video struct {
	ID           string      `json:"id"`
	Title        string      `json:"title"`
	ChannelName  string      `json:"channel_name"`
	URL          string      `json:"url"`
	ThumbnailURL string      `json:"thumbnail_url,omitempty"`
	PublishedAt  time.Time   `json:"published_at"`
	ViewCount    int64       `json:"view_count,omitempty"`
	Sentiment    *float64    `json:"sentiment,omitempty"`
	Transcript   *Transcript `json:"transcript,omitempty"`
}

// VideoCandidate is a raw search result before dedup turns it into a Video.
type VideoCandidate struct {
	ID           string
	Title        string
	ChannelName  string
	URL          string
	ThumbnailURL string
	PublishedAt  time.Time
	ViewCount    int64
}

// Transcript holds timed caption segments for one video. Re-extraction
// replaces it wholesale.
type Transcript struct {
	Language  string    `json:"language"`
	Segments  []Segment `json:"segments"`
	FetchedAt time.Time `json:"fetched_at"`
}

type Segment struct {
	Start    float64 `json:"start"`
	Duration float64 `json:"duration"`
	Text     string  `json:"text"`
}

// Text joins all segment texts into a single analysis input.
func (t *Transcript) Text() string {
	if t == nil || len(t.Segments) == 0 {
		return ""
	}
	parts := make([]string, 0, len(t.Segments))
	for _, s := range t.Segments {
		if txt := strings.TrimSpace(s.Text); txt != "" {
			parts = append(parts, txt)
		}
	}
	return strings.Join(parts, " ")
}

// PriceQuote is one store's current price. The quote set is replaced on
// every successful price run; no history is kept here.
type PriceQuote struct {
	Store     string    `json:"store"`
	Price     int       `json:"price"`
	Currency  string    `json:"currency"`
	URL       string    `json:"url"`
	CheckedAt time.Time `json:"checked_at"`
}

// PriceResult is what a price capability returns for a single page.
type PriceResult struct {
	Price    int
	Currency string
}

// AnalysisSummary aggregates all transcript analysis for a product.
// Score is always within [0, 1]; 0.5 is the neutral default.
type AnalysisSummary struct {
	Positives []string `json:"positives"`
	Negatives []string `json:"negatives"`
	BestFor   []string `json:"best_for"`
	Score     float64  `json:"score"`
}

// NeutralSummary is the fallback when no transcript yields a usable signal.
func NeutralSummary() AnalysisSummary {
	return AnalysisSummary{Positives: []string{}, Negatives: []string{}, BestFor: []string{}, Score: 0.5}
}

// Attributes are the positive/negative phrases extracted from one transcript.
type Attributes struct {
	Positives []string
	Negatives []string
}

// RunOutcome classifies one product's fate within a batch run.
type RunOutcome string

const (
	OutcomePersisted RunOutcome = "persisted"
	OutcomeFailed    RunOutcome = "failed"
	OutcomeSkipped   RunOutcome = "skipped"
)

// ProductOutcome is the per-product line of the batch completion summary.
type ProductOutcome struct {
	ProductID  string     `json:"product_id"`
	Name       string     `json:"name"`
	Outcome    RunOutcome `json:"outcome"`
	NewVideos  int        `json:"new_videos"`
	SoftErrors int        `json:"soft_errors"`
	Error      string     `json:"error,omitempty"`
}

// BatchReport summarizes one scheduled invocation across all products.
type BatchReport struct {
	RunID      string           `json:"run_id"`
	StartedAt  time.Time        `json:"started_at"`
	FinishedAt time.Time        `json:"finished_at"`
	Outcomes   []ProductOutcome `json:"outcomes"`
}

func (r *BatchReport) Count(o RunOutcome) int {
	n := 0
	for _, out := range r.Outcomes {
		if out.Outcome == o {
			n++
		}
	}
	return n
}

func (r *BatchReport) SoftErrorTotal() int {
	n := 0
	for _, out := range r.Outcomes {
		n += out.SoftErrors
	}
	return n
}
