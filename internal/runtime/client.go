package runtime

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/spec-kit/approval-service/internal/config"
	"github.com/spec-kit/approval-service/internal/domain"
)

// Resumer pushes a synthetic capability result into the agent runtime,
// re-entering the suspended invocation addressed by the ticket's
// correlation. Implementations must be safe for concurrent use.
type Resumer interface {
	Resume(ctx context.Context, ticket *domain.Ticket) error
}

// FunctionResponse is the synthetic result value replayed to the runtime on
// behalf of the originally suspended capability call.
type FunctionResponse struct {
	Status         string `json:"status"`
	ApprovalStatus string `json:"approval_status"`
	TicketID       string `json:"ticket_id"`
	SubjectID      string `json:"claim_id"`
	Message        string `json:"message"`
}

type functionResponsePart struct {
	Name     string           `json:"name"`
	ID       string           `json:"id,omitempty"`
	Response FunctionResponse `json:"response"`
}

type messagePart struct {
	FunctionResponse functionResponsePart `json:"function_response"`
}

type runMessage struct {
	Role  string        `json:"role"`
	Parts []messagePart `json:"parts"`
}

type runRequest struct {
	AppName    string     `json:"app_name"`
	UserID     string     `json:"user_id"`
	SessionID  string     `json:"session_id"`
	NewMessage runMessage `json:"new_message"`
}

// Client resumes suspended invocations over the runtime's /run endpoint.
type Client struct {
	cfg    config.RuntimeConfig
	http   *http.Client
	logger *zap.Logger
}

// NewClient constructs the HTTP resumption client.
func NewClient(cfg config.RuntimeConfig, logger *zap.Logger) *Client {
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout()},
		logger: logger,
	}
}

// Resume delivers the ticket's outcome to the owning run. The owning run may
// no longer exist or may reject the payload; both surface as errors for the
// caller to log and count. The ticket's stored state is never touched here.
func (c *Client) Resume(ctx context.Context, ticket *domain.Ticket) error {
	corr := ticket.Correlation
	if corr.UserID == "" || corr.SessionID == "" {
		return fmt.Errorf("ticket %s has no resumable correlation", ticket.ID)
	}

	appName := corr.AppName
	if appName == "" {
		appName = c.cfg.AppName
	}

	payload := runRequest{
		AppName:   appName,
		UserID:    corr.UserID,
		SessionID: corr.SessionID,
		NewMessage: runMessage{
			Role: "function",
			Parts: []messagePart{{
				FunctionResponse: functionResponsePart{
					Name:     c.cfg.CapabilityName,
					ID:       corr.InvocationID,
					Response: FunctionResponse{
						Status:         "success",
						ApprovalStatus: string(ticket.Status),
						TicketID:       ticket.ID,
						SubjectID:      ticket.SubjectID,
						Message:        fmt.Sprintf("Claim verification %s by user", ticket.Status),
					},
				},
			}},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL+"/run", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	c.logger.Info("pushing resumption to runtime",
		zap.String("ticket_id", ticket.ID),
		zap.String("user_id", corr.UserID),
		zap.String("session_id", corr.SessionID),
		zap.String("status", string(ticket.Status)))

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("push resumption: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("runtime rejected resumption: %d %s", resp.StatusCode, string(detail))
	}
	return nil
}
