package domain

import "time"

// TicketStatus enumerates lifecycle states for approval tickets.
type TicketStatus string

const (
	TicketStatusPending  TicketStatus = "pending"
	TicketStatusApproved TicketStatus = "approved"
	TicketStatusRejected TicketStatus = "rejected"
	TicketStatusExpired  TicketStatus = "expired"
)

// Resolved reports whether the status is terminal.
func (s TicketStatus) Resolved() bool {
	return s != TicketStatusPending && s != ""
}

// Correlation addresses the suspended agent invocation a ticket belongs to.
// The fields are opaque to this service: captured once at creation and
// replayed verbatim to the agent runtime on resumption.
type Correlation struct {
	AppName      string `json:"app_name"`
	UserID       string `json:"user_id"`
	SessionID    string `json:"session_id"`
	InvocationID string `json:"invocation_id,omitempty"`
}

// Ticket is the durable record of one pending-or-resolved human decision.
type Ticket struct {
	ID          string       `json:"ticket_id"`
	SubjectID   string       `json:"subject_id"`
	Recipient   string       `json:"recipient"`
	RequestType string       `json:"request_type"`
	Status      TicketStatus `json:"status"`
	Note        string       `json:"note,omitempty"`
	Correlation Correlation  `json:"correlation"`
	CreatedAt   time.Time    `json:"created_at"`
	ResolvedAt  *time.Time   `json:"resolved_at,omitempty"`
}
