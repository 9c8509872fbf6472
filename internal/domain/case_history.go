package domain

import "time"

// HistoryKind tags what an entry records so later readers never parse free text.
type HistoryKind string

const (
	HistoryIntake                   HistoryKind = "INTAKE"
	HistoryAssignment               HistoryKind = "ASSIGNMENT"
	HistoryReclassificationRequest  HistoryKind = "RECLASSIFICATION_REQUESTED"
	HistoryEscalated                HistoryKind = "ESCALATED"
	HistoryReclassificationResolved HistoryKind = "RECLASSIFICATION_RESOLVED"
	HistoryClosureRequested         HistoryKind = "CLOSURE_REQUESTED"
	HistoryClosureAccepted          HistoryKind = "CLOSURE_ACCEPTED"
	HistoryClosureDenied            HistoryKind = "CLOSURE_DENIED"
	HistoryReportSubmitted          HistoryKind = "REPORT_SUBMITTED"
	HistoryActivity                 HistoryKind = "ACTIVITY"
)

// HistoryEntry is an immutable audit trail entry.
type HistoryEntry struct {
	ID            string      `json:"id"`
	Timestamp     time.Time   `json:"timestamp"`
	ActorLabel    string      `json:"actorLabel"`
	Kind          HistoryKind `json:"kind"`
	Description   string      `json:"description"`
	Detail        string      `json:"detail,omitempty"`
	AttachmentRef string      `json:"attachmentRef,omitempty"`
}
