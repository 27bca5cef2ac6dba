package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/approval-service/internal/auth"
	"github.com/spec-kit/approval-service/internal/config"
	"github.com/spec-kit/approval-service/internal/domain"
	"github.com/spec-kit/approval-service/internal/events"
	"github.com/spec-kit/approval-service/internal/notify"
	"github.com/spec-kit/approval-service/internal/observability"
	"github.com/spec-kit/approval-service/internal/repository"
)

// ErrInvalidCallbackToken flags a decision callback whose link signature
// failed verification.
var ErrInvalidCallbackToken = errors.New("invalid callback token")

// ApprovalService coordinates the approval workflow: it owns ticket
// creation, notification, and the single resolve entry point shared by both
// decision endpoints.
type ApprovalService struct {
	store      repository.TicketStore
	claims     repository.ClaimRepository
	mailer     notify.Mailer
	tokens     *auth.CallbackTokenManager
	dispatcher events.Dispatcher
	logger     *zap.Logger
	metrics    *observability.Metrics
	callback   config.CallbackConfig
	runtime    config.RuntimeConfig
}

// ApprovalDependencies bundles collaborators for the approval service.
type ApprovalDependencies struct {
	Store      repository.TicketStore
	Claims     repository.ClaimRepository
	Mailer     notify.Mailer
	Tokens     *auth.CallbackTokenManager
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
	Metrics    *observability.Metrics
	Callback   config.CallbackConfig
	Runtime    config.RuntimeConfig
}

// NewApprovalService constructs the service.
func NewApprovalService(deps ApprovalDependencies) *ApprovalService {
	return &ApprovalService{
		store:      deps.Store,
		claims:     deps.Claims,
		mailer:     deps.Mailer,
		tokens:     deps.Tokens,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
		metrics:    deps.Metrics,
		callback:   deps.Callback,
		runtime:    deps.Runtime,
	}
}

// RequestInput describes an approval request from the agent.
type RequestInput struct {
	SubjectID   string
	Recipient   string
	RequestType string
	Correlation domain.Correlation
}

// DeliveryResult reports the notification send outcome. A failed delivery is
// soft: the ticket stays pending and resolvable by direct endpoint call.
type DeliveryResult struct {
	Delivered bool   `json:"delivered"`
	Error     string `json:"error,omitempty"`
}

// PendingResult is the marker returned to the agent runtime so it can park
// the invocation until the matching resumption event arrives.
type PendingResult struct {
	Status     string         `json:"status"`
	TicketID   string         `json:"ticket_id"`
	SubjectID  string         `json:"claim_id"`
	Message    string         `json:"message"`
	ApproveURL string         `json:"approve_url"`
	RejectURL  string         `json:"reject_url"`
	Delivery   DeliveryResult `json:"delivery"`
}

// RequestApproval creates a ticket, sends the approval notification, and
// returns immediately with a pending marker. It never blocks on the human.
func (s *ApprovalService) RequestApproval(ctx context.Context, input RequestInput) (*PendingResult, error) {
	claim, err := s.claims.GetClaim(ctx, input.SubjectID)
	if err != nil {
		return nil, err
	}

	correlation := input.Correlation
	if correlation.AppName == "" {
		correlation.AppName = s.runtime.AppName
	}
	if correlation.UserID == "" {
		correlation.UserID = s.runtime.DefaultUserID
	}
	if correlation.SessionID == "" {
		correlation.SessionID = s.runtime.DefaultSessionID
	}

	requestType := input.RequestType
	if requestType == "" {
		requestType = "claim_verification"
	}

	ticket := &domain.Ticket{
		ID:          uuid.NewString(),
		SubjectID:   input.SubjectID,
		Recipient:   input.Recipient,
		RequestType: requestType,
		Status:      domain.TicketStatusPending,
		Correlation: correlation,
	}
	if err := s.store.Create(ctx, ticket); err != nil {
		return nil, err
	}

	approveURL, rejectURL, err := s.callbackURLs(ticket.ID)
	if err != nil {
		return nil, err
	}

	delivery := DeliveryResult{Delivered: true}
	msg, err := notify.BuildApprovalEmail(ticket, claim, approveURL, rejectURL)
	if err == nil {
		err = s.mailer.Send(ctx, msg)
	}
	if err != nil {
		delivery = DeliveryResult{Error: err.Error()}
		s.metrics.RecordDelivery("failure")
		s.logger.Error("approval notification failed; ticket remains pending",
			zap.String("ticket_id", ticket.ID),
			zap.String("recipient", ticket.Recipient),
			zap.Error(err))
	} else {
		s.metrics.RecordDelivery("success")
	}

	s.publishEvent(ctx, events.Event{Type: events.EventTicketCreated, Ticket: *ticket})

	return &PendingResult{
		Status:     "pending",
		TicketID:   ticket.ID,
		SubjectID:  ticket.SubjectID,
		Message:    fmt.Sprintf("Approval request sent to %s. Awaiting response.", ticket.Recipient),
		ApproveURL: approveURL,
		RejectURL:  rejectURL,
		Delivery:   delivery,
	}, nil
}

// Resolve is the single compare-and-swap entry point behind both decision
// endpoints. The first call to observe a pending ticket performs the
// transition and publishes the resolved event; later calls get the stored
// record back unchanged and trigger nothing downstream.
func (s *ApprovalService) Resolve(ctx context.Context, ticketID string, decision domain.TicketStatus, token string) (*domain.Ticket, bool, error) {
	if s.tokens.Enabled() {
		if err := s.tokens.VerifyToken(token, ticketID, decision); err != nil {
			return nil, false, fmt.Errorf("%w: %v", ErrInvalidCallbackToken, err)
		}
	}

	var note string
	switch decision {
	case domain.TicketStatusApproved:
		note = "Approved via email link"
	case domain.TicketStatusRejected:
		note = "Rejected via email link"
	}

	ticket, transitioned, err := s.store.Resolve(ctx, ticketID, decision, note)
	if err != nil {
		return nil, false, err
	}

	if transitioned {
		s.logger.Info("ticket resolved",
			zap.String("ticket_id", ticket.ID),
			zap.String("status", string(ticket.Status)))
		s.publishEvent(ctx, events.Event{Type: events.EventTicketResolved, Ticket: *ticket})
	}
	return ticket, transitioned, nil
}

// Status returns the current ticket record.
func (s *ApprovalService) Status(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	return s.store.Get(ctx, ticketID)
}

// ListPending returns all tickets awaiting a decision.
func (s *ApprovalService) ListPending(ctx context.Context) ([]domain.Ticket, error) {
	return s.store.ListPending(ctx)
}

func (s *ApprovalService) callbackURLs(ticketID string) (string, string, error) {
	approveURL := fmt.Sprintf("%s/api/approve/%s", s.callback.BaseURL, ticketID)
	rejectURL := fmt.Sprintf("%s/api/reject/%s", s.callback.BaseURL, ticketID)

	if !s.tokens.Enabled() {
		return approveURL, rejectURL, nil
	}

	approveToken, err := s.tokens.GenerateToken(ticketID, domain.TicketStatusApproved)
	if err != nil {
		return "", "", err
	}
	rejectToken, err := s.tokens.GenerateToken(ticketID, domain.TicketStatusRejected)
	if err != nil {
		return "", "", err
	}
	return approveURL + "?token=" + approveToken, rejectURL + "?token=" + rejectToken, nil
}

func (s *ApprovalService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}
