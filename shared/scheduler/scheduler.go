package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"product-pulse/internal/models"
	"product-pulse/shared/config"
	"product-pulse/shared/monitoring"
)

// Agent is a batch job the scheduler drives on a cron schedule.
type Agent interface {
	Name() string
	Initialize() error
	RunOnce(ctx context.Context) (*models.BatchReport, error)
}

// Scheduler runs the agent on the configured cron expression. The scheduler
// guarantees at most one in-flight run: overlapping triggers are skipped.
type Scheduler struct {
	config  *config.Config
	monitor *monitoring.Monitor
	agent   Agent
	cron    *cron.Cron
	log     *logrus.Logger
}

func New(cfg *config.Config, agent Agent, log *logrus.Logger) *Scheduler {
	return &Scheduler{
		config:  cfg,
		monitor: monitoring.NewMonitor(log),
		agent:   agent,
		log:     log,
		// Prevent overlapping runs for the same product set
		cron: cron.New(cron.WithSeconds(), cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger))),
	}
}

func (s *Scheduler) Start(ctx context.Context) error {
	if err := s.agent.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize agent: %w", err)
	}

	healthServer := monitoring.NewHealthServer(s.monitor, s.config.Monitoring.HealthPort, s.log)
	healthServer.Start()

	_, err := s.cron.AddFunc(s.config.Schedule, func() {
		if err := s.RunOnce(ctx); err != nil {
			s.log.WithError(err).WithField("agent", s.agent.Name()).Error("Scheduled run failed")
		}
	})
	if err != nil {
		return fmt.Errorf("failed to add cron job: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"agent":    s.agent.Name(),
		"schedule": s.config.Schedule,
	}).Info("Scheduler started")
	s.cron.Start()

	<-ctx.Done()
	s.log.WithField("agent", s.agent.Name()).Info("Scheduler stopped")
	s.cron.Stop()
	return ctx.Err()
}

func (s *Scheduler) RunOnce(ctx context.Context) error {
	startTime := time.Now()

	s.log.WithField("agent", s.agent.Name()).Info("Starting run")

	report, err := s.agent.RunOnce(ctx)
	duration := time.Since(startTime)
	if err != nil {
		s.monitor.RecordCriticalFailure(fmt.Errorf("%s failed: %w", s.agent.Name(), err), duration)
		return fmt.Errorf("%s run failed: %w", s.agent.Name(), err)
	}

	s.monitor.RecordBatch(report, duration)
	return nil
}
