package worker

import (
	"context"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/spec-kit/techsupport-manager/internal/service"
)

// SLAWorker runs the overdue-ticket scan on a cron schedule.
type SLAWorker struct {
	monitor  *service.SLAMonitor
	schedule string
	logger   *zap.Logger
	cron     *cron.Cron
}

// NewSLAWorker constructs the worker. Schedule accepts standard cron specs
// and descriptors such as "@every 5m".
func NewSLAWorker(monitor *service.SLAMonitor, schedule string, logger *zap.Logger) *SLAWorker {
	return &SLAWorker{monitor: monitor, schedule: schedule, logger: logger}
}

// Start registers the scan job and starts the scheduler.
func (w *SLAWorker) Start(ctx context.Context) error {
	w.cron = cron.New()
	_, err := w.cron.AddFunc(w.schedule, func() {
		count, err := w.monitor.Scan(ctx)
		if err != nil {
			w.logger.Error("sla scan failed", zap.Error(err))
			return
		}
		if count > 0 {
			w.logger.Info("sla scan complete", zap.Int("new_violations", count))
		}
	})
	if err != nil {
		return err
	}

	w.cron.Start()
	w.logger.Info("sla worker started", zap.String("schedule", w.schedule))
	return nil
}

// Stop halts the scheduler and waits for a running scan to finish.
func (w *SLAWorker) Stop() {
	if w.cron == nil {
		return
	}
	<-w.cron.Stop().Done()
	w.logger.Info("sla worker stopped")
}
