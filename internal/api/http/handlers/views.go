package handlers

import (
	"bytes"
	"html/template"
	"strings"

	"github.com/spec-kit/approval-service/internal/domain"
)

// Confirmation pages shown after a decision link is clicked. Content is
// cosmetic; the page must render whenever the decision is durably recorded,
// including repeat clicks on an already-resolved ticket.

type confirmationData struct {
	TicketID  string
	SubjectID string
	Status    string
	Approved  bool
}

var confirmationTmpl = template.Must(template.New("confirmation").Parse(`<!DOCTYPE html>
<html>
<head>
    <title>{{if .Approved}}Claim Approved{{else}}Claim Rejected{{end}}</title>
    <style>
        body {
            font-family: Arial, sans-serif;
            max-width: 600px;
            margin: 50px auto;
            padding: 20px;
            text-align: center;
        }
        .banner {
            border-radius: 5px;
            margin: 20px 0;
            padding: 20px;
            {{if .Approved}}
            background-color: #d4edda;
            border: 1px solid #c3e6cb;
            color: #155724;
            {{else}}
            background-color: #f8d7da;
            border: 1px solid #f5c6cb;
            color: #721c24;
            {{end}}
        }
        .mark {
            font-size: 48px;
            {{if .Approved}}color: #28a745;{{else}}color: #dc3545;{{end}}
        }
        .details {
            background-color: #f8f9fa;
            padding: 15px;
            border-radius: 5px;
            margin-top: 20px;
            text-align: left;
        }
    </style>
</head>
<body>
    <div class="mark">{{if .Approved}}&#10003;{{else}}&#10007;{{end}}</div>
    <div class="banner">
        {{if .Approved}}
        <h2>Claim Approved Successfully</h2>
        <p>Thank you for verifying your claim submission.</p>
        {{else}}
        <h2>Claim Submission Rejected</h2>
        <p>You have indicated that you did not submit this claim.</p>
        {{end}}
    </div>
    <div class="details">
        <p><strong>Ticket ID:</strong> {{.TicketID}}</p>
        <p><strong>Claim ID:</strong> {{.SubjectID}}</p>
        <p><strong>Status:</strong> {{.Status}}</p>
        {{if .Approved}}
        <p><strong>Next Steps:</strong> You will receive a confirmation email shortly with the claim processing details.</p>
        {{else}}
        <p><strong>Next Steps:</strong> Our security team will investigate this matter. You will receive a follow-up email within 24 hours.</p>
        {{end}}
    </div>
    <p style="color: #666; margin-top: 30px;">
        You may now close this window.
    </p>
</body>
</html>
`))

func renderConfirmationPage(ticket *domain.Ticket) (string, error) {
	status := string(ticket.Status)
	if len(status) > 0 {
		status = strings.ToUpper(status[:1]) + status[1:]
	}
	data := confirmationData{
		TicketID:  ticket.ID,
		SubjectID: ticket.SubjectID,
		Status:    status,
		Approved:  ticket.Status == domain.TicketStatusApproved,
	}
	var buf bytes.Buffer
	if err := confirmationTmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
