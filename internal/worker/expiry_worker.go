package worker

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/spec-kit/approval-service/internal/config"
	"github.com/spec-kit/approval-service/internal/events"
	"github.com/spec-kit/approval-service/internal/repository"
)

// ExpiryWorker sweeps stale pending tickets to expired on a cron schedule.
// Each expired ticket is published as an expired event so the suspended
// agent invocation receives an outcome instead of being parked forever.
type ExpiryWorker struct {
	store      repository.TicketStore
	dispatcher events.Dispatcher
	logger     *zap.Logger
	ttl        time.Duration
	schedule   string
	cron       *cron.Cron
}

// NewExpiryWorker builds the worker. A zero TTL disables the sweep.
func NewExpiryWorker(store repository.TicketStore, dispatcher events.Dispatcher, logger *zap.Logger, cfg config.ExpiryConfig) *ExpiryWorker {
	return &ExpiryWorker{
		store:      store,
		dispatcher: dispatcher,
		logger:     logger,
		ttl:        cfg.TicketTTL(),
		schedule:   cfg.SweepSchedule,
	}
}

// Start schedules the sweep. Returns immediately; the cron runner owns its
// own goroutine.
func (w *ExpiryWorker) Start() error {
	if w.ttl <= 0 {
		w.logger.Info("ticket expiry disabled")
		return nil
	}

	w.cron = cron.New()
	if _, err := w.cron.AddFunc(w.schedule, func() {
		if err := w.Sweep(context.Background()); err != nil {
			w.logger.Error("expiry sweep failed", zap.Error(err))
		}
	}); err != nil {
		return err
	}
	w.cron.Start()
	w.logger.Info("ticket expiry enabled",
		zap.Duration("ttl", w.ttl),
		zap.String("schedule", w.schedule))
	return nil
}

// Stop halts the scheduled sweep.
func (w *ExpiryWorker) Stop() {
	if w.cron != nil {
		w.cron.Stop()
	}
}

// Sweep expires pending tickets older than the TTL and publishes one expired
// event per transitioned ticket.
func (w *ExpiryWorker) Sweep(ctx context.Context) error {
	cutoff := time.Now().Add(-w.ttl)
	expired, err := w.store.Expire(ctx, cutoff)
	if err != nil {
		return err
	}
	for i := range expired {
		w.logger.Info("ticket expired", zap.String("ticket_id", expired[i].ID))
		if w.dispatcher != nil {
			_ = w.dispatcher.Publish(ctx, events.Event{
				ID:        uuid.NewString(),
				Type:      events.EventTicketExpired,
				Ticket:    expired[i],
				Timestamp: time.Now(),
			})
		}
	}
	return nil
}
