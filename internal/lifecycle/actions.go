package lifecycle

import (
	"time"

	"github.com/spec-kit/case-workflow/internal/domain"
)

// ActionName is the wire tag of an action request.
type ActionName string

const (
	ActionIntake                  ActionName = "intake"
	ActionAssign                  ActionName = "assign"
	ActionRequestReclassification ActionName = "requestReclassification"
	ActionEscalateToArbitration   ActionName = "escalateToAdmin2"
	ActionResolveReclassification ActionName = "resolveReclassification"
	ActionRequestClosure          ActionName = "requestClosure"
	ActionAcceptClosure           ActionName = "acceptClosure"
	ActionDenyClosure             ActionName = "denyClosure"
	ActionSubmitReport            ActionName = "submitReport"
	ActionRecordActivity          ActionName = "recordActivity"
)

// Action is one of the closed set of requests the orchestrator decides on.
type Action interface {
	Name() ActionName
	action()
}

// Attachment is a file uploaded together with an intake.
type Attachment struct {
	FileName    string
	ContentType string
	Data        []byte
}

// Intake registers a new case.
type Intake struct {
	// CaseID is optional; an identifier is generated when empty.
	CaseID           string
	ReportedAt       time.Time
	Municipality     string
	Professional     string
	Reporter         domain.Reporter
	Victim           domain.Victim
	RightInvolved    string
	ViolenceType     string
	ShortDescription string
	ActionsTaken     string
	Observations     string
	Urgency          domain.Urgency
	Attachment       *Attachment
}

// Assign sets status, office and urgency of a case that has not entered a request protocol.
type Assign struct {
	Status  domain.CaseStatus
	Office  string
	Urgency domain.Urgency
}

// RequestReclassification asks the coordinating authority to move the case to another office.
type RequestReclassification struct {
	Reason string
}

// EscalateToArbitration forwards a reclassification request with the coordinator's analysis.
type EscalateToArbitration struct {
	Analysis string
}

// ReclassificationDecision is the binding outcome issued by the arbitration authority.
type ReclassificationDecision string

const (
	DecisionAccepted ReclassificationDecision = "ACCEPTED"
	DecisionRejected ReclassificationDecision = "REJECTED"
)

// ResolveReclassification records the arbitration authority's decision.
type ResolveReclassification struct {
	Decision      ReclassificationDecision
	Justification string
	NewOffice     string
}

// RequestClosure asks the coordinating authority to close the case.
type RequestClosure struct {
	Reason string
}

// AcceptClosure closes the case.
type AcceptClosure struct {
	Note string
}

// DenyClosure returns the case to the office with a justification.
type DenyClosure struct {
	Justification string
}

// SubmitReport attaches a supplementary report to the next free slot.
type SubmitReport struct {
	Title   string
	Content string
}

// RecordActivity logs follow-up work done by the assigned office.
type RecordActivity struct {
	Description   string
	AttachmentURL string
}

func (Intake) Name() ActionName                  { return ActionIntake }
func (Assign) Name() ActionName                  { return ActionAssign }
func (RequestReclassification) Name() ActionName { return ActionRequestReclassification }
func (EscalateToArbitration) Name() ActionName   { return ActionEscalateToArbitration }
func (ResolveReclassification) Name() ActionName { return ActionResolveReclassification }
func (RequestClosure) Name() ActionName          { return ActionRequestClosure }
func (AcceptClosure) Name() ActionName           { return ActionAcceptClosure }
func (DenyClosure) Name() ActionName             { return ActionDenyClosure }
func (SubmitReport) Name() ActionName            { return ActionSubmitReport }
func (RecordActivity) Name() ActionName          { return ActionRecordActivity }

func (Intake) action()                  {}
func (Assign) action()                  {}
func (RequestReclassification) action() {}
func (EscalateToArbitration) action()   {}
func (ResolveReclassification) action() {}
func (RequestClosure) action()          {}
func (AcceptClosure) action()           {}
func (DenyClosure) action()             {}
func (SubmitReport) action()            {}
func (RecordActivity) action()          {}
