package notifications

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"
	"time"

	"github.com/eventhub-fest/backend/internal/models"
	"github.com/eventhub-fest/backend/pkg/mailer"
)

const approvalSubject = "Registration Approved - %s"

type approvalView struct {
	Fest        string
	Name        string
	Events      string
	TotalAmount int
	Token       string
	Year        int
}

var approvalText = texttemplate.Must(texttemplate.New("approval.txt").Parse(`Registration Approved - {{.Fest}}

Hello {{.Name}},

We are pleased to inform you that your registration for {{.Fest}} has been approved!

Registration Details:
- Name: {{.Name}}
- Events Registered: {{.Events}}
- Total Amount: Rs. {{.TotalAmount}}
- Registration Token: {{.Token}}

IMPORTANT: Please keep your registration token safe. You will need it for event participation and verification.

We look forward to seeing you at the event!

Best regards,
{{.Fest}} Team
`))

var approvalHTML = htmltemplate.Must(htmltemplate.New("approval.html").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Registration Approved</title></head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
  <div style="background: #667eea; padding: 30px; text-align: center; border-radius: 10px 10px 0 0;">
    <h1 style="color: white; margin: 0; font-size: 24px;">Registration Approved!</h1>
  </div>
  <div style="padding: 30px; background: #f9f9f9; border-radius: 0 0 10px 10px;">
    <h2 style="margin-top: 0;">Hello {{.Name}},</h2>
    <p>We are pleased to inform you that your registration for <strong>{{.Fest}}</strong> has been approved!</p>
    <table style="width: 100%; border-collapse: collapse;">
      <tr><td><strong>Name:</strong></td><td>{{.Name}}</td></tr>
      <tr><td><strong>Events Registered:</strong></td><td>{{.Events}}</td></tr>
      <tr><td><strong>Total Amount:</strong></td><td>&#8377;{{.TotalAmount}}</td></tr>
      <tr><td><strong>Registration Token:</strong></td><td><strong style="color: #764ba2; font-size: 18px;">{{.Token}}</strong></td></tr>
    </table>
    <p><strong>Important:</strong> Please keep your registration token safe. You will need it for event participation and verification.</p>
    <p style="color: #666; font-size: 14px; text-align: center;">This is an automated message. Please do not reply to this email.<br>&copy; {{.Year}} {{.Fest}}</p>
  </div>
</body>
</html>
`))

// ComposeApproval renders the approval email for n.
func ComposeApproval(fest string, n models.ApprovalNotice, now time.Time) (mailer.Message, error) {
	events := strings.Join(n.EventNames, ", ")
	if events == "" {
		events = "Multiple events"
	}
	view := approvalView{
		Fest:        fest,
		Name:        n.Name,
		Events:      events,
		TotalAmount: n.TotalAmount,
		Token:       n.RegistrationToken,
		Year:        now.Year(),
	}
	var text, html bytes.Buffer
	if err := approvalText.Execute(&text, view); err != nil {
		return mailer.Message{}, err
	}
	if err := approvalHTML.Execute(&html, view); err != nil {
		return mailer.Message{}, err
	}
	return mailer.Message{
		To:      n.Email,
		Subject: fmt.Sprintf(approvalSubject, fest),
		Text:    text.String(),
		HTML:    html.String(),
	}, nil
}
