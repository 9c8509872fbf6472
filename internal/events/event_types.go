package events

import (
	"time"

	"github.com/spec-kit/case-workflow/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventCaseTransitioned      EventType = "case_transitioned"
	EventNotificationRequested EventType = "notification_requested"
)

// Actor identifies who caused an event.
type Actor struct {
	Role   domain.Role `json:"role"`
	Office string      `json:"office,omitempty"`
}

// Event represents a domain event emitted after a case has been persisted.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	CaseID    string      `json:"case_id"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// CaseTransitionedPayload describes an accepted action.
type CaseTransitionedPayload struct {
	Action    string            `json:"action"`
	OldStatus domain.CaseStatus `json:"old_status"`
	NewStatus domain.CaseStatus `json:"new_status"`
	Office    string            `json:"office,omitempty"`
	Version   int64             `json:"version"`
}

// DocumentLink is a produced document travelling with a notification.
type DocumentLink struct {
	Target domain.DocumentTarget `json:"target"`
	URL    string                `json:"url"`
}

// NotificationRequestedPayload asks for one message to be delivered.
type NotificationRequestedPayload struct {
	RecipientRole   domain.Role    `json:"recipient_role"`
	RecipientOffice string         `json:"recipient_office,omitempty"`
	Subject         string         `json:"subject"`
	Body            string         `json:"body"`
	Documents       []DocumentLink `json:"documents,omitempty"`
}
