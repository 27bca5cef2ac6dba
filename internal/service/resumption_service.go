package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/approval-service/internal/events"
	"github.com/spec-kit/approval-service/internal/observability"
	"github.com/spec-kit/approval-service/internal/runtime"
)

// ResumptionService replays resolved tickets into the agent runtime. It
// subscribes to resolved and expired events, which are published only by the
// caller that performed the status transition, so each ticket produces at
// most one resumption attempt.
type ResumptionService struct {
	resumer runtime.Resumer
	logger  *zap.Logger
	metrics *observability.Metrics
}

// NewResumptionService creates the service.
func NewResumptionService(resumer runtime.Resumer, logger *zap.Logger, metrics *observability.Metrics) *ResumptionService {
	return &ResumptionService{resumer: resumer, logger: logger, metrics: metrics}
}

// RegisterHandlers subscribes to ticket lifecycle events.
func (r *ResumptionService) RegisterHandlers(dispatcher events.Dispatcher) {
	if dispatcher == nil {
		return
	}
	dispatcher.Subscribe(events.EventTicketResolved, r.handleTicketResolved)
	dispatcher.Subscribe(events.EventTicketExpired, r.handleTicketResolved)
}

// handleTicketResolved pushes the outcome to the runtime. A failure here is
// a delivery failure only: the decision is already durably recorded and the
// human has been shown a confirmation, so the error is logged and counted
// rather than propagated.
func (r *ResumptionService) handleTicketResolved(ctx context.Context, event events.Event) error {
	ticket := event.Ticket
	if err := r.resumer.Resume(ctx, &ticket); err != nil {
		r.metrics.RecordResumption("failure")
		r.logger.Error("resumption push failed; ticket state is unaffected",
			zap.String("ticket_id", ticket.ID),
			zap.String("status", string(ticket.Status)),
			zap.Error(err))
		return err
	}
	r.metrics.RecordResumption("success")
	r.logger.Info("agent resumed",
		zap.String("ticket_id", ticket.ID),
		zap.String("status", string(ticket.Status)))
	return nil
}
