package tracking

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/robfig/cron/v3"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// DefaultPollSchedule is the reference refresh interval for in-flight
// shipments.
const DefaultPollSchedule = "@every 2h"

// Poller fires Service.PollUpdates on a fixed cron schedule. Cycles never
// overlap: a tick that arrives while a cycle is still running is skipped.
type Poller struct {
	service  *Service
	schedule string
	logger   *otelzap.Logger

	cron    *cron.Cron
	running atomic.Bool
}

// NewPoller creates a poller for the given service. An empty schedule
// falls back to DefaultPollSchedule.
func NewPoller(service *Service, schedule string, logger *otelzap.Logger) *Poller {
	if schedule == "" {
		schedule = DefaultPollSchedule
	}
	return &Poller{
		service:  service,
		schedule: schedule,
		logger:   logger,
	}
}

// Start begins the polling schedule. The returned error is non-nil only
// for an invalid schedule expression.
func (p *Poller) Start(ctx context.Context) error {
	c := cron.New()
	_, err := c.AddFunc(p.schedule, func() {
		if !p.running.CompareAndSwap(false, true) {
			p.logger.Warn("Skipping poll cycle, previous cycle still running")
			return
		}
		defer p.running.Store(false)
		p.service.PollUpdates(ctx)
	})
	if err != nil {
		return fmt.Errorf("invalid poll schedule %q: %w", p.schedule, err)
	}

	p.cron = c
	c.Start()
	p.logger.Info("Tracking poller started", zap.String("schedule", p.schedule))
	return nil
}

// Stop halts the schedule and waits for an in-flight cycle to finish.
func (p *Poller) Stop() {
	if p.cron == nil {
		return
	}
	<-p.cron.Stop().Done()
	p.logger.Info("Tracking poller stopped")
}
