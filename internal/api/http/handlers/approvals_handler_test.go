package handlers_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/approval-service/internal/api/http"
	"github.com/spec-kit/approval-service/internal/api/http/handlers"
	"github.com/spec-kit/approval-service/internal/auth"
	"github.com/spec-kit/approval-service/internal/config"
	"github.com/spec-kit/approval-service/internal/domain"
	"github.com/spec-kit/approval-service/internal/events"
	"github.com/spec-kit/approval-service/internal/notify"
	"github.com/spec-kit/approval-service/internal/observability"
	"github.com/spec-kit/approval-service/internal/repository"
	"github.com/spec-kit/approval-service/internal/service"
)

type noopMailer struct{}

func (noopMailer) Send(ctx context.Context, msg notify.Message) error { return nil }

type countingResumer struct {
	mu      sync.Mutex
	resumed []domain.Ticket
}

func (r *countingResumer) Resume(ctx context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resumed = append(r.resumed, *ticket)
	return nil
}

func (r *countingResumer) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.resumed)
}

func newTestApp(t *testing.T) (*fiber.App, *service.ApprovalService, *countingResumer) {
	t.Helper()

	store, err := repository.NewFileStore(filepath.Join(t.TempDir(), "tickets.json"))
	require.NoError(t, err)

	logger := zap.NewNop()
	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()
	resumer := &countingResumer{}

	service.NewResumptionService(resumer, logger, metrics).RegisterHandlers(dispatcher)

	svc := service.NewApprovalService(service.ApprovalDependencies{
		Store:      store,
		Claims:     repository.NewSeededClaimRepository(),
		Mailer:     noopMailer{},
		Tokens:     auth.NewCallbackTokenManager("", 0),
		Dispatcher: dispatcher,
		Logger:     logger,
		Metrics:    metrics,
		Callback:   config.CallbackConfig{BaseURL: "http://localhost:8085"},
		Runtime: config.RuntimeConfig{
			AppName:          "insurance_notification",
			DefaultUserID:    "customer_001",
			DefaultSessionID: "default_session",
		},
	})

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, 5*time.Second)
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:    handlers.NewHealthHandler("approval-service", "test", nil, nil),
		Approvals: handlers.NewApprovalsHandler(svc),
	})
	return app, svc, resumer
}

func createTicket(t *testing.T, svc *service.ApprovalService) string {
	t.Helper()
	result, err := svc.RequestApproval(context.Background(), service.RequestInput{
		SubjectID: "CLM-001",
		Recipient: "a@b.com",
	})
	require.NoError(t, err)
	return result.TicketID
}

func TestRequestApprovalEndpoint(t *testing.T) {
	app, _, _ := newTestApp(t)

	body := strings.NewReader(`{"subject_id":"CLM-001","recipient":"a@b.com","user_id":"u1","session_id":"s1"}`)
	req, _ := http.NewRequest(http.MethodPost, "/api/approvals", body)
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)

	var result service.PendingResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.Equal(t, "pending", result.Status)
	assert.NotEmpty(t, result.TicketID)
	assert.Contains(t, result.ApproveURL, "/api/approve/"+result.TicketID)
	assert.Contains(t, result.RejectURL, "/api/reject/"+result.TicketID)
}

func TestRequestApprovalEndpointValidation(t *testing.T) {
	app, _, _ := newTestApp(t)

	req, _ := http.NewRequest(http.MethodPost, "/api/approvals", strings.NewReader(`{"subject_id":"CLM-001"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestApproveEndpoint(t *testing.T) {
	app, svc, resumer := newTestApp(t)
	ticketID := createTicket(t, svc)

	req, _ := http.NewRequest(http.MethodGet, "/api/approve/"+ticketID, nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")

	page, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(page), "Claim Approved Successfully")
	assert.Contains(t, string(page), ticketID)

	ticket, err := svc.Status(context.Background(), ticketID)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusApproved, ticket.Status)
	assert.Equal(t, 1, resumer.count())
	assert.Equal(t, "customer_001", resumer.resumed[0].Correlation.UserID)
}

func TestRejectEndpoint(t *testing.T) {
	app, svc, resumer := newTestApp(t)
	ticketID := createTicket(t, svc)

	req, _ := http.NewRequest(http.MethodGet, "/api/reject/"+ticketID, nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	page, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(page), "Claim Submission Rejected")

	ticket, err := svc.Status(context.Background(), ticketID)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusRejected, ticket.Status)
	assert.Equal(t, 1, resumer.count())
}

func TestDoubleClickIsIdempotent(t *testing.T) {
	app, svc, resumer := newTestApp(t)
	ticketID := createTicket(t, svc)

	for i := 0; i < 2; i++ {
		req, _ := http.NewRequest(http.MethodGet, "/api/approve/"+ticketID, nil)
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	}

	// A late reject click after approval still confirms, without flipping
	// the decision or firing another resumption.
	req, _ := http.NewRequest(http.MethodGet, "/api/reject/"+ticketID, nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	ticket, err := svc.Status(context.Background(), ticketID)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusApproved, ticket.Status)
	assert.Equal(t, 1, resumer.count())
}

func TestRejectUnknownTicket(t *testing.T) {
	app, svc, resumer := newTestApp(t)

	req, _ := http.NewRequest(http.MethodGet, "/api/reject/unknown-id", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	pending, err := svc.ListPending(context.Background())
	require.NoError(t, err)
	assert.Empty(t, pending)
	assert.Equal(t, 0, resumer.count())
}

func TestStatusEndpoint(t *testing.T) {
	app, svc, _ := newTestApp(t)
	ticketID := createTicket(t, svc)

	req, _ := http.NewRequest(http.MethodGet, "/api/status/"+ticketID, nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var payload map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	assert.Equal(t, ticketID, payload["ticket_id"])
	assert.Equal(t, "CLM-001", payload["claim_id"])
	assert.Equal(t, "pending", payload["status"])
}

func TestStatusUnknownTicket(t *testing.T) {
	app, _, _ := newTestApp(t)

	req, _ := http.NewRequest(http.MethodGet, "/api/status/unknown-id", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestPendingEndpoint(t *testing.T) {
	app, svc, _ := newTestApp(t)
	ticketID := createTicket(t, svc)

	req, _ := http.NewRequest(http.MethodGet, "/api/pending", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var payload struct {
		Count   int `json:"count"`
		Pending []struct {
			TicketID string `json:"ticket_id"`
			ClaimID  string `json:"claim_id"`
		} `json:"pending_approvals"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	require.Equal(t, 1, payload.Count)
	assert.Equal(t, ticketID, payload.Pending[0].TicketID)
	assert.Equal(t, "CLM-001", payload.Pending[0].ClaimID)
}
