package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bpradana/weave"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"product-pulse/internal/models"
	"product-pulse/shared/config"
)

// RunState tracks where a product's run is in the stage sequence.
type RunState int

const (
	StatePending RunState = iota
	StateDiscovering
	StateExtracting
	StateAnalyzing
	StatePricing
	StateSynthesizing
	StatePersisted
	StateFailed
)

func (s RunState) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateDiscovering:
		return "discovering"
	case StateExtracting:
		return "extracting"
	case StateAnalyzing:
		return "analyzing"
	case StatePricing:
		return "pricing"
	case StateSynthesizing:
		return "synthesizing"
	case StatePersisted:
		return "persisted"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// ProductStore is the persistence the orchestrator writes through: one
// replace-style write per product per run.
type ProductStore interface {
	List(ctx context.Context) ([]models.Product, error)
	Save(ctx context.Context, p models.Product) error
}

// Orchestrator sequences the stages per product and merges their deltas
// into a single persisted record. Products are isolated failure domains:
// one product's hard failure never stops the batch.
type Orchestrator struct {
	store       ProductStore
	discovery   *DiscoveryStage
	transcripts *TranscriptStage
	prices      *PriceStage
	analysis    *AnalysisStage
	log         *logrus.Logger
}

func NewOrchestrator(store ProductStore, caps Capabilities, cfg *config.PipelineConfig, log *logrus.Logger) *Orchestrator {
	return &Orchestrator{
		store:       store,
		discovery:   NewDiscoveryStage(caps.Search, cfg.MaxSearchResults, log),
		transcripts: NewTranscriptStage(caps.Transcripts, cfg.Language, cfg.FanOut, log),
		prices:      NewPriceStage(caps.Prices, log),
		analysis:    NewAnalysisStage(caps.Sentiment, caps.Attributes, caps.Audience, cfg.SentimentSpanChars, cfg.CombinedTextChars, cfg.FanOut, log),
		log:         log,
	}
}

// RunBatch processes every product once and returns the completion summary.
func (o *Orchestrator) RunBatch(ctx context.Context) (*models.BatchReport, error) {
	report := &models.BatchReport{
		RunID:     uuid.NewString(),
		StartedAt: time.Now().UTC(),
	}

	products, err := o.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	o.log.WithFields(logrus.Fields{
		"run_id":   report.RunID,
		"products": len(products),
	}).Info("Starting batch run")

	for _, product := range products {
		report.Outcomes = append(report.Outcomes, o.runProduct(ctx, product))
	}

	report.FinishedAt = time.Now().UTC()
	return report, nil
}

// softCollector gathers soft errors across concurrently running stages.
type softCollector struct {
	mu    sync.Mutex
	softs []SoftError
}

func (c *softCollector) add(softs ...SoftError) {
	if len(softs) == 0 {
		return
	}
	c.mu.Lock()
	c.softs = append(c.softs, softs...)
	c.mu.Unlock()
}

func (c *softCollector) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.softs)
}

// runProduct executes the stage graph for one product. Discovery,
// transcripts and analysis form a chain; pricing has no data dependency on
// them and runs concurrently; synthesis joins both branches. Nothing is
// persisted unless every stage completes, so a hard failure can never leave
// a half-updated record behind.
func (o *Orchestrator) runProduct(ctx context.Context, product models.Product) (outcome models.ProductOutcome) {
	outcome = models.ProductOutcome{ProductID: product.ID, Name: product.Name}
	collector := &softCollector{}

	defer func() {
		if r := recover(); r != nil {
			outcome.Outcome = models.OutcomeFailed
			outcome.Error = fmt.Sprintf("panic: %v", r)
			outcome.SoftErrors = collector.count()
			o.logProductEvent(product, StateFailed, collector.count(), fmt.Errorf("panic: %v", r))
		}
	}()

	graph := weave.NewGraph()

	discoverTask, err := weave.AddTask(graph, "discover", func(tctx context.Context, deps weave.DependencyResolver) ([]models.Video, error) {
		o.logStage(product, StateDiscovering)
		videos, softs := o.discovery.Run(tctx, &product)
		collector.add(softs...)
		o.logStageOutcome(product, "discovery", len(softs))
		return videos, nil
	})
	if err != nil {
		return o.failOutcome(product, outcome, collector, err)
	}

	transcriptTask, err := weave.AddTask(graph, "transcripts", func(tctx context.Context, deps weave.DependencyResolver) (map[string]*models.Transcript, error) {
		newVideos, err := discoverTask.Value(deps)
		if err != nil {
			return nil, err
		}
		o.logStage(product, StateExtracting)
		transcripts, softs := o.transcripts.Run(tctx, allVideos(product, newVideos))
		collector.add(softs...)
		o.logStageOutcome(product, "transcript", len(softs))
		return transcripts, nil
	}, weave.DependsOn(discoverTask))
	if err != nil {
		return o.failOutcome(product, outcome, collector, err)
	}

	analysisTask, err := weave.AddTask(graph, "analysis", func(tctx context.Context, deps weave.DependencyResolver) (AnalysisResult, error) {
		newVideos, err := discoverTask.Value(deps)
		if err != nil {
			return AnalysisResult{}, err
		}
		transcripts, err := transcriptTask.Value(deps)
		if err != nil {
			return AnalysisResult{}, err
		}
		o.logStage(product, StateAnalyzing)
		result, softs := o.analysis.Run(tctx, allVideos(product, newVideos), transcripts)
		collector.add(softs...)
		o.logStageOutcome(product, "analysis", len(softs))
		return result, nil
	}, weave.DependsOn(discoverTask, transcriptTask))
	if err != nil {
		return o.failOutcome(product, outcome, collector, err)
	}

	priceTask, err := weave.AddTask(graph, "prices", func(tctx context.Context, deps weave.DependencyResolver) ([]models.PriceQuote, error) {
		o.logStage(product, StatePricing)
		quotes, softs := o.prices.Run(tctx, product.Stores)
		collector.add(softs...)
		o.logStageOutcome(product, "price", len(softs))
		return quotes, nil
	})
	if err != nil {
		return o.failOutcome(product, outcome, collector, err)
	}

	synthTask, err := weave.AddTask(graph, "synthesize", func(tctx context.Context, deps weave.DependencyResolver) (models.Product, error) {
		newVideos, err := discoverTask.Value(deps)
		if err != nil {
			return models.Product{}, err
		}
		transcripts, err := transcriptTask.Value(deps)
		if err != nil {
			return models.Product{}, err
		}
		result, err := analysisTask.Value(deps)
		if err != nil {
			return models.Product{}, err
		}
		quotes, err := priceTask.Value(deps)
		if err != nil {
			return models.Product{}, err
		}
		o.logStage(product, StateSynthesizing)
		merged := mergeDelta(product, newVideos, transcripts, result, quotes, time.Now().UTC())
		o.logStageOutcome(product, "synthesis", 0)
		return merged, nil
	}, weave.DependsOn(discoverTask, transcriptTask, analysisTask, priceTask))
	if err != nil {
		return o.failOutcome(product, outcome, collector, err)
	}

	results, _, err := graph.Run(ctx)
	if err != nil {
		return o.failOutcome(product, outcome, collector, err)
	}

	merged, err := synthTask.Value(results)
	if err != nil {
		return o.failOutcome(product, outcome, collector, err)
	}

	outcome.NewVideos = len(merged.Videos) - len(product.Videos)
	outcome.SoftErrors = collector.count()

	// A product with no videos and no stores to track has nothing to
	// re-derive; report it as a no-op instead of writing an empty record.
	if len(merged.Videos) == 0 && len(product.Stores) == 0 {
		outcome.Outcome = models.OutcomeSkipped
		o.log.WithFields(logrus.Fields{
			"product":     product.ID,
			"soft_errors": outcome.SoftErrors,
		}).Info("Product run skipped, no sources configured")
		return outcome
	}

	if err := o.store.Save(ctx, merged); err != nil {
		return o.failOutcome(product, outcome, collector, err)
	}

	outcome.Outcome = models.OutcomePersisted
	o.logProductEvent(product, StatePersisted, outcome.SoftErrors, nil)
	return outcome
}

func (o *Orchestrator) failOutcome(product models.Product, outcome models.ProductOutcome, collector *softCollector, err error) models.ProductOutcome {
	outcome.Outcome = models.OutcomeFailed
	outcome.Error = err.Error()
	outcome.SoftErrors = collector.count()
	o.logProductEvent(product, StateFailed, outcome.SoftErrors, err)
	return outcome
}

// allVideos is the product's working video list for this run: existing
// videos plus the discovery delta, in stable order.
func allVideos(product models.Product, newVideos []models.Video) []models.Video {
	videos := make([]models.Video, 0, len(product.Videos)+len(newVideos))
	videos = append(videos, product.Videos...)
	videos = append(videos, newVideos...)
	return videos
}

// mergeDelta folds all stage outputs into the record written back: videos
// appended, transcripts attached, sentiments applied, prices replaced, and
// summary plus schema re-derived from current inputs.
func mergeDelta(product models.Product, newVideos []models.Video, transcripts map[string]*models.Transcript, result AnalysisResult, quotes []models.PriceQuote, now time.Time) models.Product {
	merged := product
	merged.Videos = allVideos(product, newVideos)

	for i := range merged.Videos {
		if t, ok := transcripts[merged.Videos[i].ID]; ok {
			merged.Videos[i].Transcript = t
		}
		if score, ok := result.Sentiments[merged.Videos[i].ID]; ok {
			score := score
			merged.Videos[i].Sentiment = &score
		}
	}

	merged.Summary = result.Summary
	merged.Prices = quotes
	merged.Schema = SynthesizeSchema(product, result.Summary, merged.Videos, quotes, now)
	merged.LastAnalyzed = now
	merged.LastUpdated = now
	return merged
}

func (o *Orchestrator) logStage(product models.Product, state RunState) {
	o.log.WithFields(logrus.Fields{
		"product": product.ID,
		"state":   state.String(),
	}).Debug("Stage started")
}

func (o *Orchestrator) logStageOutcome(product models.Product, stage string, softErrors int) {
	outcome := "success"
	if softErrors > 0 {
		outcome = "soft_error"
	}
	o.log.WithFields(logrus.Fields{
		"product":     product.ID,
		"stage":       stage,
		"outcome":     outcome,
		"soft_errors": softErrors,
	}).Info("Stage completed")
}

func (o *Orchestrator) logProductEvent(product models.Product, state RunState, softErrors int, err error) {
	entry := o.log.WithFields(logrus.Fields{
		"product":     product.ID,
		"state":       state.String(),
		"soft_errors": softErrors,
	})
	if err != nil {
		entry.WithError(err).Error("Product run failed, discarding uncommitted delta")
		return
	}
	entry.Info("Product run finished")
}
