package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/approval-service/internal/api/dto"
	"github.com/spec-kit/approval-service/internal/domain"
	"github.com/spec-kit/approval-service/internal/service"
	apperrors "github.com/spec-kit/approval-service/pkg/util"
)

// ApprovalsHandler exposes the callback gateway and the agent-facing
// approval capability.
type ApprovalsHandler struct {
	service *service.ApprovalService
}

// NewApprovalsHandler constructs handler.
func NewApprovalsHandler(approvalService *service.ApprovalService) *ApprovalsHandler {
	return &ApprovalsHandler{service: approvalService}
}

// RequestApproval POST /api/approvals. Creates a ticket, sends the approval
// email, and returns the pending marker the agent runtime parks on.
func (h *ApprovalsHandler) RequestApproval(c *fiber.Ctx) error {
	var req dto.RequestApprovalRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.SubjectID) == "" || strings.TrimSpace(req.Recipient) == "" {
		return apperrors.NewValidationError("subject_id and recipient required", nil)
	}

	result, err := h.service.RequestApproval(c.UserContext(), service.RequestInput{
		SubjectID:   req.SubjectID,
		Recipient:   req.Recipient,
		RequestType: req.RequestType,
		Correlation: domain.Correlation{
			AppName:      req.AppName,
			UserID:       req.UserID,
			SessionID:    req.SessionID,
			InvocationID: req.InvocationID,
		},
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusAccepted).JSON(result)
}

// Approve GET /api/approve/:ticket_id. Called when the user clicks the
// approve button in their email.
func (h *ApprovalsHandler) Approve(c *fiber.Ctx) error {
	return h.decide(c, domain.TicketStatusApproved)
}

// Reject GET /api/reject/:ticket_id. Called when the user clicks the reject
// button in their email.
func (h *ApprovalsHandler) Reject(c *fiber.Ctx) error {
	return h.decide(c, domain.TicketStatusRejected)
}

// decide resolves the ticket and renders the confirmation page. Both
// decision endpoints share this path so the approve/reject race is handled
// by one compare-and-swap, not two divergent code paths. Once the decision
// is recorded the page always renders; resumption failure is logged inside
// the service and never breaks the human-facing response.
func (h *ApprovalsHandler) decide(c *fiber.Ctx, decision domain.TicketStatus) error {
	ticketID := c.Params("ticket_id")

	ticket, _, err := h.service.Resolve(c.UserContext(), ticketID, decision, c.Query("token"))
	if err != nil {
		if errors.Is(err, service.ErrInvalidCallbackToken) {
			return apperrors.NewUnauthorized("invalid or expired callback token")
		}
		return err
	}

	page, err := renderConfirmationPage(ticket)
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return c.SendString(page)
}

// Status GET /api/status/:ticket_id.
func (h *ApprovalsHandler) Status(c *fiber.Ctx) error {
	ticket, err := h.service.Status(c.UserContext(), c.Params("ticket_id"))
	if err != nil {
		return err
	}
	return c.JSON(ticketResponse(ticket))
}

// Pending GET /api/pending.
func (h *ApprovalsHandler) Pending(c *fiber.Ctx) error {
	tickets, err := h.service.ListPending(c.UserContext())
	if err != nil {
		return err
	}
	items := make([]dto.PendingSummary, 0, len(tickets))
	for i := range tickets {
		items = append(items, dto.PendingSummary{
			TicketID:    tickets[i].ID,
			SubjectID:   tickets[i].SubjectID,
			Recipient:   tickets[i].Recipient,
			RequestType: tickets[i].RequestType,
			CreatedAt:   tickets[i].CreatedAt,
		})
	}
	return c.JSON(dto.PendingListResponse{Count: len(items), Pending: items})
}

func ticketResponse(ticket *domain.Ticket) dto.TicketResponse {
	return dto.TicketResponse{
		TicketID:    ticket.ID,
		SubjectID:   ticket.SubjectID,
		Recipient:   ticket.Recipient,
		RequestType: ticket.RequestType,
		Status:      ticket.Status,
		Note:        ticket.Note,
		CreatedAt:   ticket.CreatedAt,
		ResolvedAt:  ticket.ResolvedAt,
	}
}
