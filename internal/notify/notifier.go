package notify

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"strings"

	"github.com/resend/resend-go/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/case-workflow/internal/config"
)

// Attachment is a document reference sent along with a message.
type Attachment struct {
	Name string
	URL  string
}

// Notifier delivers best-effort messages.
type Notifier interface {
	Notify(ctx context.Context, recipients []string, subject, body string, attachments []Attachment) error
}

// New returns the e-mail notifier, or the log notifier in test mode.
func New(cfg config.NotificationConfig, logger *zap.Logger) Notifier {
	if cfg.TestMode {
		logger.Info("notifications in test mode; messages are logged, not sent")
		return NewLogNotifier(logger)
	}
	return NewEmailNotifier(cfg, logger)
}

// EmailNotifier sends through the Resend API.
type EmailNotifier struct {
	client *resend.Client
	from   string
	logger *zap.Logger
}

func NewEmailNotifier(cfg config.NotificationConfig, logger *zap.Logger) *EmailNotifier {
	from := cfg.EmailFrom
	if cfg.EmailFromName != "" {
		from = fmt.Sprintf("%s <%s>", cfg.EmailFromName, cfg.EmailFrom)
	}
	var client *resend.Client
	if cfg.ResendAPIKey != "" {
		client = resend.NewClient(cfg.ResendAPIKey)
	}
	return &EmailNotifier{client: client, from: from, logger: logger}
}

func (n *EmailNotifier) Notify(ctx context.Context, recipients []string, subject, body string, attachments []Attachment) error {
	if n.client == nil {
		return errors.New("RESEND_API_KEY not configured")
	}
	if len(recipients) == 0 {
		return errors.New("no recipients")
	}

	html, err := renderHTML(body, attachments)
	if err != nil {
		return err
	}
	params := &resend.SendEmailRequest{
		From:    n.from,
		To:      recipients,
		Subject: subject,
		Html:    html,
		Text:    renderText(body, attachments),
	}
	for _, a := range attachments {
		// Resend fetches remote paths itself; local references only travel as links.
		if strings.HasPrefix(a.URL, "https://") || strings.HasPrefix(a.URL, "http://") {
			params.Attachments = append(params.Attachments, &resend.Attachment{Filename: a.Name, Path: a.URL})
		}
	}

	sent, err := n.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		return fmt.Errorf("send email via resend: %w", err)
	}
	n.logger.Info("email sent", zap.String("message_id", sent.Id), zap.Strings("to", recipients), zap.String("subject", subject))
	return nil
}

// LogNotifier writes messages to the log instead of delivering them.
type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(ctx context.Context, recipients []string, subject, body string, attachments []Attachment) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	links := make([]string, 0, len(attachments))
	for _, a := range attachments {
		links = append(links, a.URL)
	}
	n.logger.Info("notification (not sent)",
		zap.Strings("to", recipients),
		zap.String("subject", subject),
		zap.String("body", body),
		zap.Strings("attachments", links))
	return nil
}

var emailTemplate = template.Must(template.New("email").Parse(`<div style="font-family:sans-serif;color:#333;">
<p>{{.Body}}</p>
{{- if .Attachments}}
<ul>
{{- range .Attachments}}
<li><a href="{{.URL}}">{{.Name}}</a></li>
{{- end}}
</ul>
{{- end}}
</div>`))

func renderHTML(body string, attachments []Attachment) (string, error) {
	var buf bytes.Buffer
	err := emailTemplate.Execute(&buf, struct {
		Body        string
		Attachments []Attachment
	}{body, attachments})
	if err != nil {
		return "", fmt.Errorf("render email: %w", err)
	}
	return buf.String(), nil
}

func renderText(body string, attachments []Attachment) string {
	var b strings.Builder
	b.WriteString(body)
	for _, a := range attachments {
		fmt.Fprintf(&b, "\n%s: %s", a.Name, a.URL)
	}
	return b.String()
}
