package dto

import (
	"time"

	"github.com/spec-kit/approval-service/internal/domain"
)

// RequestApprovalRequest is the agent-facing approval request payload.
type RequestApprovalRequest struct {
	SubjectID   string `json:"subject_id"`
	Recipient   string `json:"recipient"`
	RequestType string `json:"request_type"`

	AppName      string `json:"app_name"`
	UserID       string `json:"user_id"`
	SessionID    string `json:"session_id"`
	InvocationID string `json:"invocation_id"`
}

// TicketResponse is the full ticket record returned by status lookups.
type TicketResponse struct {
	TicketID    string              `json:"ticket_id"`
	SubjectID   string              `json:"claim_id"`
	Recipient   string              `json:"recipient"`
	RequestType string              `json:"request_type"`
	Status      domain.TicketStatus `json:"status"`
	Note        string              `json:"note,omitempty"`
	CreatedAt   time.Time           `json:"created_at"`
	ResolvedAt  *time.Time          `json:"resolved_at,omitempty"`
}

// PendingSummary is one entry in the pending listing.
type PendingSummary struct {
	TicketID    string    `json:"ticket_id"`
	SubjectID   string    `json:"claim_id"`
	Recipient   string    `json:"user_email"`
	RequestType string    `json:"request_type"`
	CreatedAt   time.Time `json:"created_at"`
}

// PendingListResponse wraps the pending listing.
type PendingListResponse struct {
	Count   int              `json:"count"`
	Pending []PendingSummary `json:"pending_approvals"`
}
