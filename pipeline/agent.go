package pipeline

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"product-pulse/internal/models"
	"product-pulse/pipeline/scrape"
	"product-pulse/pipeline/youtube"
	"product-pulse/shared/ai"
	"product-pulse/shared/config"
	"product-pulse/shared/email"
	"product-pulse/shared/storage"
)

// Agent wires the concrete capability backends to the orchestrator and
// implements the scheduler.Agent interface.
type Agent struct {
	config       *config.Config
	log          *logrus.Logger
	store        *storage.ProductStore
	orchestrator *Orchestrator
	emailSender  *email.Sender
}

func NewAgent(cfg *config.Config, log *logrus.Logger) *Agent {
	return &Agent{
		config: cfg,
		log:    log,
	}
}

func (a *Agent) Name() string {
	return "Product Pulse"
}

// Initialize builds clients and opens storage. Lifecycle is scoped to the
// process; nothing here is a package-level singleton.
func (a *Agent) Initialize() error {
	a.log.WithField("agent", a.Name()).Info("Initializing")

	if a.store == nil {
		store, err := storage.Open(a.config.Storage.Path, a.log)
		if err != nil {
			return fmt.Errorf("failed to open product store: %w", err)
		}
		if err := store.Seed(context.Background(), seedProducts(a.config)); err != nil {
			return fmt.Errorf("failed to seed products: %w", err)
		}
		a.store = store
	}

	if a.orchestrator == nil {
		youtubeClient, err := youtube.NewClient(&a.config.YouTube, a.log)
		if err != nil {
			return fmt.Errorf("failed to create YouTube client: %w", err)
		}

		analyzer, err := ai.NewAnalyzer(&a.config.AI, a.log)
		if err != nil {
			return fmt.Errorf("failed to create AI analyzer: %w", err)
		}

		scraper := scrape.NewClient(&a.config.Scrape, a.log)

		caps := Capabilities{
			Search:      youtubeClient,
			Transcripts: youtubeClient,
			Prices:      scraper,
			Sentiment:   analyzer,
			Attributes:  analyzer,
			Audience:    analyzer,
		}
		a.orchestrator = NewOrchestrator(a.store, caps, &a.config.Pipeline, a.log)
	}

	if a.emailSender == nil && a.config.Email.Enabled {
		a.emailSender = email.NewSender(&a.config.Email)
	}

	return nil
}

// RunOnce processes every product and returns the batch completion summary.
func (a *Agent) RunOnce(ctx context.Context) (*models.BatchReport, error) {
	report, err := a.orchestrator.RunBatch(ctx)
	if err != nil {
		return nil, err
	}

	if a.emailSender != nil {
		if err := a.emailSender.SendBatchReport(report); err != nil {
			// The run itself succeeded; a report delivery failure is not
			// worth failing the batch over.
			a.log.WithError(err).Warn("Failed to send batch report email")
		}
	}

	return report, nil
}

func seedProducts(cfg *config.Config) []models.Product {
	products := make([]models.Product, 0, len(cfg.Products))
	for _, seed := range cfg.Products {
		stores := make([]models.StoreTarget, 0, len(seed.Stores))
		for _, s := range seed.Stores {
			stores = append(stores, models.StoreTarget{Store: s.Store, URL: s.URL})
		}
		products = append(products, models.Product{
			ID:          seed.ID,
			Name:        seed.Name,
			Brand:       seed.Brand,
			Category:    seed.Category,
			SearchQuery: seed.Query,
			Stores:      stores,
		})
	}
	return products
}
