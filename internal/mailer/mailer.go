// Package mailer renders and dispatches outbound email. Delivery is behind
// the Mailer interface; the default implementation only logs.
package mailer

import (
	"bytes"
	"context"
	"fmt"
	"html/template"

	"go.uber.org/zap"
)

// Message is a rendered email ready for delivery.
type Message struct {
	From    string
	To      string
	Subject string
	HTML    string
}

// Mailer delivers a Message.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// LogMailer writes messages to the structured log instead of sending them.
type LogMailer struct {
	log *zap.SugaredLogger
}

// NewLogMailer creates a LogMailer on log.
func NewLogMailer(log *zap.SugaredLogger) *LogMailer {
	return &LogMailer{log: log}
}

// Send logs msg at info level.
func (m *LogMailer) Send(_ context.Context, msg Message) error {
	m.log.Infow("email queued",
		"from", msg.From,
		"to", msg.To,
		"subject", msg.Subject,
		"bytes", len(msg.HTML),
	)
	return nil
}

// Decision is the data behind a budget request decision email.
type Decision struct {
	RecipientName   string
	ProjectCode     string
	ProjectTitle    string
	Category        string
	Status          string
	RequestedAmount string
	ApprovedAmount  string
	FiscalYear      string
	Comments        string
	Link            string
}

var decisionTemplate = template.Must(template.New("decision").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: sans-serif; color: #222;">
<p>Dear {{.RecipientName}},</p>
<p>Your budget request for <strong>{{.Category}}</strong> on project
<strong>{{.ProjectCode}}</strong> ({{.ProjectTitle}}) has been
<strong>{{.Status}}</strong>.</p>
<table cellpadding="4">
<tr><td>Requested</td><td>{{.RequestedAmount}}</td></tr>
{{- if .ApprovedAmount}}
<tr><td>Approved</td><td>{{.ApprovedAmount}}</td></tr>
<tr><td>Fiscal year</td><td>{{.FiscalYear}}</td></tr>
{{- end}}
</table>
{{- if .Comments}}
<p>Comments: {{.Comments}}</p>
{{- end}}
{{- if .Link}}
<p><a href="{{.Link}}">View the request</a></p>
{{- end}}
</body>
</html>
`))

// RenderDecision builds the subject and HTML body for a decision email.
func RenderDecision(d Decision) (subject, body string, err error) {
	var buf bytes.Buffer
	if err := decisionTemplate.Execute(&buf, d); err != nil {
		return "", "", fmt.Errorf("rendering decision email: %w", err)
	}
	subject = fmt.Sprintf("[%s] Budget request %s", d.ProjectCode, d.Status)
	return subject, buf.String(), nil
}
