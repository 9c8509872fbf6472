package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/case-workflow/internal/domain"
	"github.com/spec-kit/case-workflow/internal/events"
	"github.com/spec-kit/case-workflow/internal/notify"
)

// RecipientResolver maps a symbolic recipient to delivery addresses.
type RecipientResolver interface {
	Resolve(role domain.Role, office string) ([]string, error)
}

// NotificationService turns case events into outgoing messages.
type NotificationService struct {
	dispatcher events.Dispatcher
	resolver   RecipientResolver
	notifier   notify.Notifier
	logger     *zap.Logger
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, resolver RecipientResolver, notifier notify.Notifier, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		dispatcher: dispatcher,
		resolver:   resolver,
		notifier:   notifier,
		logger:     logger,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventCaseTransitioned, n.handleCaseTransitioned)
	n.dispatcher.Subscribe(events.EventNotificationRequested, n.handleNotificationRequested)
}

func (n *NotificationService) handleCaseTransitioned(_ context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.CaseTransitionedPayload)
	if !ok {
		return nil
	}
	n.logger.Info("CaseTransitioned",
		zap.String("case_id", event.CaseID),
		zap.String("action", payload.Action),
		zap.String("from", string(payload.OldStatus)),
		zap.String("to", string(payload.NewStatus)),
		zap.String("office", payload.Office))
	return nil
}

func (n *NotificationService) handleNotificationRequested(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.NotificationRequestedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T", event.Payload)
	}
	if n.resolver == nil || n.notifier == nil {
		return fmt.Errorf("notifications not configured")
	}
	recipients, err := n.resolver.Resolve(payload.RecipientRole, payload.RecipientOffice)
	if err != nil {
		return err
	}

	attachments := make([]notify.Attachment, 0, len(payload.Documents))
	for _, doc := range payload.Documents {
		attachments = append(attachments, notify.Attachment{
			Name: attachmentName(event.CaseID, doc),
			URL:  doc.URL,
		})
	}
	if err := n.notifier.Notify(ctx, recipients, payload.Subject, payload.Body, attachments); err != nil {
		return err
	}
	n.logger.Debug("notification delivered",
		zap.String("case_id", event.CaseID),
		zap.String("recipient_role", string(payload.RecipientRole)),
		zap.Int("recipients", len(recipients)))
	return nil
}

func attachmentName(caseID string, doc events.DocumentLink) string {
	ext := ".pdf"
	if doc.Target == domain.TargetOriginalAttachment {
		ext = ""
		if i := strings.LastIndex(doc.URL, "."); i > strings.LastIndex(doc.URL, "/") {
			ext = strings.SplitN(doc.URL[i:], "?", 2)[0]
		}
	}
	return fmt.Sprintf("%s-%s%s", caseID, strings.ToLower(string(doc.Target)), ext)
}
