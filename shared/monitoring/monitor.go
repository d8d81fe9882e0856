package monitoring

import (
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"product-pulse/internal/models"
)

// Monitor tracks the outcome of the most recent batch run for health checks.
type Monitor struct {
	mu          sync.RWMutex
	log         *logrus.Logger
	lastRunTime time.Time
	lastReport  *models.BatchReport
	lastErr     error
}

func NewMonitor(log *logrus.Logger) *Monitor {
	return &Monitor{log: log}
}

// RecordBatch notes a completed batch run.
func (m *Monitor) RecordBatch(report *models.BatchReport, duration time.Duration) {
	m.mu.Lock()
	m.lastRunTime = time.Now()
	m.lastReport = report
	m.lastErr = nil
	m.mu.Unlock()

	m.log.WithFields(logrus.Fields{
		"run_id":      report.RunID,
		"persisted":   report.Count(models.OutcomePersisted),
		"failed":      report.Count(models.OutcomeFailed),
		"skipped":     report.Count(models.OutcomeSkipped),
		"soft_errors": report.SoftErrorTotal(),
		"duration":    duration.String(),
	}).Info("Batch run completed")
}

// RecordCriticalFailure notes a run that failed before producing a report.
func (m *Monitor) RecordCriticalFailure(err error, duration time.Duration) {
	m.mu.Lock()
	m.lastRunTime = time.Now()
	m.lastReport = nil
	m.lastErr = err
	m.mu.Unlock()

	m.log.WithError(err).WithField("duration", duration.String()).Error("Batch run failed")
}

func (m *Monitor) IsHealthy() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.lastRunTime.IsZero() {
		return true // No runs yet, assume healthy
	}
	return m.lastErr == nil
}

func (m *Monitor) GetStatusSummary() string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.lastRunTime.IsZero() {
		return "No runs yet"
	}
	if m.lastErr != nil {
		return fmt.Sprintf("Last run failed at %s: %v", m.lastRunTime.Format("Jan 2 15:04"), m.lastErr)
	}
	return fmt.Sprintf("Last run %s: %d persisted, %d failed, %d skipped, %d soft errors",
		m.lastRunTime.Format("Jan 2 15:04"),
		m.lastReport.Count(models.OutcomePersisted),
		m.lastReport.Count(models.OutcomeFailed),
		m.lastReport.Count(models.OutcomeSkipped),
		m.lastReport.SoftErrorTotal())
}
