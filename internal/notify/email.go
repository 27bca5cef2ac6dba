package notify

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/spec-kit/approval-service/internal/domain"
)

// ApprovalEmailData feeds the approval request template.
type ApprovalEmailData struct {
	TicketID   string
	Claim      *domain.Claim
	ClaimType  string
	Status     string
	ApproveURL string
	RejectURL  string
}

var approvalEmailTmpl = template.Must(template.New("approval").Parse(`
<html>
  <body style="font-family: Arial, sans-serif; line-height: 1.6;">
    <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
      <div style="background-color: #0066cc; color: white; padding: 20px; border-radius: 5px 5px 0 0;">
        <h2 style="margin: 0;">Insurance Notification</h2>
      </div>
      <div style="border: 1px solid #ddd; padding: 20px; border-radius: 0 0 5px 5px;">
        <h3>Claim Verification Required</h3>
        <p>We received a request related to claim <strong>{{.Claim.ID}}</strong>.</p>
        <p><strong>Claim Details:</strong></p>
        <ul>
          <li>Claim ID: {{.Claim.ID}}</li>
          <li>Type: {{.ClaimType}}</li>
          <li>Amount: ${{printf "%.2f" .Claim.ClaimAmount}}</li>
          <li>Status: {{.Status}}</li>
          <li>Filed Date: {{.Claim.FiledDate}}</li>
        </ul>
        <p><strong>Please confirm:</strong> Did you submit this claim?</p>
        <div style="margin: 30px 0; text-align: center;">
          <a href="{{.ApproveURL}}"
             style="background-color: #28a745; color: white; padding: 12px 30px; text-decoration: none;
                    border-radius: 5px; margin: 10px; display: inline-block; font-weight: bold;">
            YES, I SUBMITTED THIS CLAIM
          </a>
          <a href="{{.RejectURL}}"
             style="background-color: #dc3545; color: white; padding: 12px 30px; text-decoration: none;
                    border-radius: 5px; margin: 10px; display: inline-block; font-weight: bold;">
            NO, I DID NOT SUBMIT THIS
          </a>
        </div>
        <p style="margin-top: 30px; color: #666; font-size: 12px;">
          <strong>Ticket ID:</strong> {{.TicketID}}<br>
          Click one of the buttons above to confirm. This is a one-time action and cannot be undone.
        </p>
      </div>
    </div>
  </body>
</html>
`))

// BuildApprovalEmail renders the approve/reject request message for a ticket.
func BuildApprovalEmail(ticket *domain.Ticket, claim *domain.Claim, approveURL, rejectURL string) (Message, error) {
	data := ApprovalEmailData{
		TicketID:   ticket.ID,
		Claim:      claim,
		ClaimType:  titleCase(claim.ClaimType),
		Status:     titleCase(claim.Status),
		ApproveURL: approveURL,
		RejectURL:  rejectURL,
	}

	var body bytes.Buffer
	if err := approvalEmailTmpl.Execute(&body, data); err != nil {
		return Message{}, err
	}

	return Message{
		To:      ticket.Recipient,
		Subject: fmt.Sprintf("Action Required: Verify Claim Submission - %s", claim.ID),
		Body:    body.String(),
		HTML:    true,
	}, nil
}

// titleCase turns snake_case record values into display form.
func titleCase(s string) string {
	parts := strings.Split(s, "_")
	for i, part := range parts {
		if part == "" {
			continue
		}
		parts[i] = strings.ToUpper(part[:1]) + part[1:]
	}
	return strings.Join(parts, " ")
}
