package lifecycle

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/case-workflow/internal/domain"
	apperrors "github.com/spec-kit/case-workflow/pkg/util"
)

// Orchestrator decides whether an action is admissible and what it produces.
// It holds no case state; everything it needs arrives with the call.
type Orchestrator struct {
	Now       func() time.Time
	NewID     func() string
	NewCaseID func() string
	// KnownOffice validates office names when set.
	KnownOffice func(string) bool
}

// New builds an orchestrator with wall clock and random identifiers.
func New() *Orchestrator {
	return &Orchestrator{
		Now:       time.Now,
		NewID:     uuid.NewString,
		NewCaseID: generateCaseID,
	}
}

var allowedRoles = map[ActionName][]domain.Role{
	ActionIntake:                  {domain.RoleIntakeOffice, domain.RoleCoordinatingAuthority, domain.RoleArbitrationAuthority},
	ActionAssign:                  {domain.RoleCoordinatingAuthority},
	ActionRequestReclassification: {domain.RoleIntakeOffice},
	ActionEscalateToArbitration:   {domain.RoleCoordinatingAuthority},
	ActionResolveReclassification: {domain.RoleArbitrationAuthority},
	ActionRequestClosure:          {domain.RoleIntakeOffice},
	ActionAcceptClosure:           {domain.RoleCoordinatingAuthority},
	ActionDenyClosure:             {domain.RoleCoordinatingAuthority},
	ActionSubmitReport:            {domain.RoleIntakeOffice},
	ActionRecordActivity:          {domain.RoleIntakeOffice},
}

var allowedSources = map[ActionName][]domain.CaseStatus{
	ActionAssign:                  {domain.CaseStatusPending, domain.CaseStatusAssigned, domain.CaseStatusInProgress},
	ActionRequestReclassification: {domain.CaseStatusAssigned, domain.CaseStatusInProgress},
	ActionEscalateToArbitration:   {domain.CaseStatusReclassificationRequested},
	ActionResolveReclassification: {domain.CaseStatusPendingArbitration},
	ActionRequestClosure:          {domain.CaseStatusAssigned, domain.CaseStatusInProgress},
	ActionAcceptClosure:           {domain.CaseStatusClosureRequested},
	ActionDenyClosure:             {domain.CaseStatusClosureRequested},
	ActionSubmitReport:            {domain.CaseStatusAssigned, domain.CaseStatusInProgress},
	ActionRecordActivity:          {domain.CaseStatusAssigned, domain.CaseStatusInProgress},
}

// assignTargets are the statuses a coordinator may set directly; request states are excluded.
var assignTargets = []domain.CaseStatus{
	domain.CaseStatusPending,
	domain.CaseStatusAssigned,
	domain.CaseStatusInProgress,
}

// AllowedSources returns the statuses from which action is admissible.
func AllowedSources(name ActionName) []domain.CaseStatus {
	return append([]domain.CaseStatus(nil), allowedSources[name]...)
}

// Decide validates action against the current case and actor and returns the next state and
// side effects. current is nil only for an intake. current is never modified.
func (o *Orchestrator) Decide(current *domain.Case, actor domain.Principal, action Action) (*Decision, error) {
	if action == nil {
		return nil, apperrors.NewValidationError("action required", nil)
	}
	if err := requireRole(actor, action.Name()); err != nil {
		return nil, err
	}
	if _, isIntake := action.(Intake); !isIntake {
		if current == nil {
			return nil, apperrors.NewNotFound("case", nil)
		}
		if err := requireStatus(current, action.Name()); err != nil {
			return nil, err
		}
	}

	switch a := action.(type) {
	case Intake:
		return o.intake(current, actor, a)
	case Assign:
		return o.assign(current, actor, a)
	case RequestReclassification:
		return o.requestReclassification(current, actor, a)
	case EscalateToArbitration:
		return o.escalate(current, actor, a)
	case ResolveReclassification:
		return o.resolveReclassification(current, actor, a)
	case RequestClosure:
		return o.requestClosure(current, actor, a)
	case AcceptClosure:
		return o.acceptClosure(current, actor, a)
	case DenyClosure:
		return o.denyClosure(current, actor, a)
	case SubmitReport:
		return o.submitReport(current, actor, a)
	case RecordActivity:
		return o.recordActivity(current, actor, a)
	default:
		return nil, apperrors.NewValidationError("unsupported action", map[string]any{"action": string(action.Name())})
	}
}

func (o *Orchestrator) intake(current *domain.Case, actor domain.Principal, a Intake) (*Decision, error) {
	if current != nil {
		return nil, apperrors.NewConflict("case already exists", map[string]any{"case_id": current.ID})
	}
	missing := missingFields(
		field{"victim.name", a.Victim.Name},
		field{"victim.idNumber", a.Victim.IDNumber},
		field{"violenceType", a.ViolenceType},
		field{"shortDescription", a.ShortDescription},
	)
	if len(missing) > 0 {
		return nil, apperrors.NewValidationError("missing required intake fields", map[string]any{"fields": missing})
	}
	urgency := a.Urgency
	if urgency == "" {
		urgency = domain.UrgencyMedium
	}
	if !urgency.Valid() {
		return nil, apperrors.NewValidationError("invalid urgency", map[string]any{"urgency": string(a.Urgency)})
	}
	if a.Attachment != nil && (strings.TrimSpace(a.Attachment.FileName) == "" || len(a.Attachment.Data) == 0) {
		return nil, apperrors.NewValidationError("attachment requires file name and content", nil)
	}

	now := o.now()
	id := strings.TrimSpace(a.CaseID)
	if id == "" {
		id = o.newCaseID()
	}
	reportedAt := a.ReportedAt
	if reportedAt.IsZero() {
		reportedAt = now
	}
	next := &domain.Case{
		ID:               id,
		ReportedAt:       reportedAt,
		Municipality:     strings.TrimSpace(a.Municipality),
		Professional:     strings.TrimSpace(a.Professional),
		Reporter:         a.Reporter,
		Victim:           a.Victim,
		RightInvolved:    strings.TrimSpace(a.RightInvolved),
		ViolenceType:     strings.TrimSpace(a.ViolenceType),
		ShortDescription: strings.TrimSpace(a.ShortDescription),
		ActionsTaken:     strings.TrimSpace(a.ActionsTaken),
		Observations:     strings.TrimSpace(a.Observations),
		Urgency:          urgency,
		Status:           domain.CaseStatusPending,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	d := &Decision{Action: ActionIntake, Case: next}
	o.appendEntry(d, actor, domain.HistoryIntake, fmt.Sprintf("Case registered by %s", actor.Label()), "")

	if a.Attachment != nil {
		d.Attachment = &AttachmentUpload{
			Target:      domain.TargetOriginalAttachment,
			FileName:    a.Attachment.FileName,
			ContentType: a.Attachment.ContentType,
			Data:        a.Attachment.Data,
		}
	}
	d.Documents = []DocumentRequest{{Kind: domain.DocumentKindDossier, Target: domain.TargetDossier}}
	d.Notifications = []NotificationRequest{{
		Recipient: Recipient{Role: domain.RoleCoordinatingAuthority},
		Subject:   fmt.Sprintf("New case #%s", id),
		Body:      fmt.Sprintf("Case #%s has been registered for %s (%s).", id, next.Victim.Name, next.ViolenceType),
		Attach:    []domain.DocumentTarget{domain.TargetDossier},
	}}
	return d, nil
}

func (o *Orchestrator) assign(current *domain.Case, actor domain.Principal, a Assign) (*Decision, error) {
	office := strings.TrimSpace(a.Office)
	target := a.Status
	if target == "" {
		target = current.Status
	}
	if !containsStatus(assignTargets, target) {
		return nil, apperrors.NewValidationError("status cannot be set by assignment", map[string]any{"status": string(a.Status)})
	}
	if target == domain.CaseStatusPending && office != "" {
		target = domain.CaseStatusAssigned
	}
	if target != domain.CaseStatusPending && office == "" {
		return nil, apperrors.NewValidationError("office required unless the case stays pending", map[string]any{"status": string(target)})
	}
	if office != "" && !o.knownOffice(office) {
		return nil, apperrors.NewValidationError("unknown office", map[string]any{"office": office})
	}
	urgency := a.Urgency
	if urgency == "" {
		urgency = current.Urgency
	}
	if !urgency.Valid() {
		return nil, apperrors.NewValidationError("invalid urgency", map[string]any{"urgency": string(a.Urgency)})
	}

	d := o.begin(current, ActionAssign)
	d.Case.Status = target
	d.Case.AssignedOffice = office
	d.Case.Urgency = urgency
	description := fmt.Sprintf("Case updated: %s", target)
	if office != "" {
		description += " - " + office
	}
	o.appendEntry(d, actor, domain.HistoryAssignment, description, "")

	if target == domain.CaseStatusAssigned && office != "" {
		d.Notifications = []NotificationRequest{{
			Recipient: Recipient{Role: domain.RoleIntakeOffice, Office: office},
			Subject:   fmt.Sprintf("Case #%s assigned to %s", current.ID, office),
			Body:      fmt.Sprintf("Case #%s (%s, urgency %s) has been assigned to %s.", current.ID, current.ViolenceType, urgency, office),
		}}
	}
	return d, nil
}

func (o *Orchestrator) requestReclassification(current *domain.Case, actor domain.Principal, a RequestReclassification) (*Decision, error) {
	if err := requireOwnOffice(current, actor); err != nil {
		return nil, err
	}
	reason := strings.TrimSpace(a.Reason)
	if reason == "" {
		return nil, apperrors.NewValidationError("reason required", nil)
	}
	d := o.begin(current, ActionRequestReclassification)
	d.Case.Status = domain.CaseStatusReclassificationRequested
	o.appendEntry(d, actor, domain.HistoryReclassificationRequest, "Reclassification requested", reason)
	d.Notifications = []NotificationRequest{{
		Recipient: Recipient{Role: domain.RoleCoordinatingAuthority},
		Subject:   fmt.Sprintf("Reclassification request: case #%s", current.ID),
		Body:      fmt.Sprintf("%s requested the reclassification of case #%s. Reason: %s", actor.Label(), current.ID, reason),
	}}
	return d, nil
}

func (o *Orchestrator) escalate(current *domain.Case, actor domain.Principal, a EscalateToArbitration) (*Decision, error) {
	analysis := strings.TrimSpace(a.Analysis)
	if analysis == "" {
		return nil, apperrors.NewValidationError("analysis required", nil)
	}
	d := o.begin(current, ActionEscalateToArbitration)
	d.Case.Status = domain.CaseStatusPendingArbitration
	o.appendEntry(d, actor, domain.HistoryEscalated, "Technical analysis issued and escalated to the arbitration authority", analysis)

	extra := map[string]string{"analysis": analysis}
	if req, ok := current.LatestEntry(domain.HistoryReclassificationRequest); ok {
		extra["reason"] = req.Detail
		extra["requestedBy"] = req.ActorLabel
	}
	d.Documents = []DocumentRequest{{Kind: domain.DocumentKindAnalysis, Target: domain.TargetAnalysis, Extra: extra}}
	d.Notifications = []NotificationRequest{{
		Recipient: Recipient{Role: domain.RoleArbitrationAuthority},
		Subject:   fmt.Sprintf("Reclassification pending decision: case #%s", current.ID),
		Body:      fmt.Sprintf("The coordinating authority escalated the reclassification of case #%s (currently with %s). The analysis is attached.", current.ID, current.AssignedOffice),
		Attach:    []domain.DocumentTarget{domain.TargetAnalysis},
	}}
	return d, nil
}

func (o *Orchestrator) resolveReclassification(current *domain.Case, actor domain.Principal, a ResolveReclassification) (*Decision, error) {
	newOffice := strings.TrimSpace(a.NewOffice)
	switch a.Decision {
	case DecisionAccepted:
		if newOffice == "" {
			return nil, apperrors.NewValidationError("newOffice required when the reclassification is accepted", nil)
		}
		if !o.knownOffice(newOffice) {
			return nil, apperrors.NewValidationError("unknown office", map[string]any{"office": newOffice})
		}
	case DecisionRejected:
	default:
		return nil, apperrors.NewValidationError("decision must be ACCEPTED or REJECTED", map[string]any{"decision": string(a.Decision)})
	}

	d := o.begin(current, ActionResolveReclassification)
	justification := strings.TrimSpace(a.Justification)
	var description string
	if a.Decision == DecisionAccepted {
		d.Case.Status = domain.CaseStatusAssigned
		d.Case.AssignedOffice = newOffice
		description = fmt.Sprintf("Reclassification accepted: case reassigned from %s to %s", current.AssignedOffice, newOffice)
	} else {
		d.Case.Status = domain.CaseStatusInProgress
		description = fmt.Sprintf("Reclassification rejected: case stays with %s", current.AssignedOffice)
	}
	o.appendEntry(d, actor, domain.HistoryReclassificationResolved, description, justification)

	extra := map[string]string{
		"decision":       string(a.Decision),
		"justification":  justification,
		"previousOffice": current.AssignedOffice,
	}
	if a.Decision == DecisionAccepted {
		extra["newOffice"] = newOffice
	}
	d.Documents = []DocumentRequest{{Kind: domain.DocumentKindResolution, Target: domain.TargetResolution, Extra: extra}}
	d.Notifications = []NotificationRequest{{
		Recipient: Recipient{Role: domain.RoleIntakeOffice, Office: d.Case.AssignedOffice},
		Subject:   fmt.Sprintf("Reclassification %s: case #%s", strings.ToLower(string(a.Decision)), current.ID),
		Body:      description + ". The resolution is attached.",
		Attach:    []domain.DocumentTarget{domain.TargetResolution},
	}}
	return d, nil
}

func (o *Orchestrator) requestClosure(current *domain.Case, actor domain.Principal, a RequestClosure) (*Decision, error) {
	if err := requireOwnOffice(current, actor); err != nil {
		return nil, err
	}
	reason := strings.TrimSpace(a.Reason)
	if reason == "" {
		return nil, apperrors.NewValidationError("reason required", nil)
	}
	d := o.begin(current, ActionRequestClosure)
	d.Case.Status = domain.CaseStatusClosureRequested
	o.appendEntry(d, actor, domain.HistoryClosureRequested, "Closure requested", reason)
	d.Notifications = []NotificationRequest{{
		Recipient: Recipient{Role: domain.RoleCoordinatingAuthority},
		Subject:   fmt.Sprintf("Closure request: case #%s", current.ID),
		Body:      fmt.Sprintf("%s requested the closure of case #%s. Reason: %s", actor.Label(), current.ID, reason),
	}}
	return d, nil
}

func (o *Orchestrator) acceptClosure(current *domain.Case, actor domain.Principal, a AcceptClosure) (*Decision, error) {
	d := o.begin(current, ActionAcceptClosure)
	d.Case.Status = domain.CaseStatusClosed
	o.appendEntry(d, actor, domain.HistoryClosureAccepted, "Closure accepted", strings.TrimSpace(a.Note))
	d.Notifications = []NotificationRequest{{
		Recipient: Recipient{Role: domain.RoleIntakeOffice, Office: current.AssignedOffice},
		Subject:   fmt.Sprintf("Case #%s closed", current.ID),
		Body:      fmt.Sprintf("The coordinating authority accepted the closure of case #%s.", current.ID),
	}}
	return d, nil
}

func (o *Orchestrator) denyClosure(current *domain.Case, actor domain.Principal, a DenyClosure) (*Decision, error) {
	justification := strings.TrimSpace(a.Justification)
	if justification == "" {
		return nil, apperrors.NewValidationError("justification required", nil)
	}
	d := o.begin(current, ActionDenyClosure)
	d.Case.Status = domain.CaseStatusInProgress
	o.appendEntry(d, actor, domain.HistoryClosureDenied, "Closure denied", justification)

	extra := map[string]string{"justification": justification}
	if req, ok := current.LatestEntry(domain.HistoryClosureRequested); ok {
		extra["reason"] = req.Detail
		extra["requestedBy"] = req.ActorLabel
	}
	d.Documents = []DocumentRequest{{Kind: domain.DocumentKindDenial, Target: domain.TargetDenial, Extra: extra}}
	d.Notifications = []NotificationRequest{{
		Recipient: Recipient{Role: domain.RoleIntakeOffice, Office: current.AssignedOffice},
		Subject:   fmt.Sprintf("Closure denied: case #%s", current.ID),
		Body:      fmt.Sprintf("The coordinating authority denied the closure of case #%s. The justification is attached.", current.ID),
		Attach:    []domain.DocumentTarget{domain.TargetDenial},
	}}
	return d, nil
}

func (o *Orchestrator) submitReport(current *domain.Case, actor domain.Principal, a SubmitReport) (*Decision, error) {
	if err := requireOwnOffice(current, actor); err != nil {
		return nil, err
	}
	content := strings.TrimSpace(a.Content)
	if content == "" {
		return nil, apperrors.NewValidationError("report content required", nil)
	}
	slot := current.FreeReportSlot()
	if slot < 0 {
		return nil, apperrors.NewCapacityError("report slots exhausted", map[string]any{"max_reports": domain.MaxReportSlots})
	}
	number := strconv.Itoa(slot + 1)
	title := strings.TrimSpace(a.Title)
	if title == "" {
		title = "Report " + number
	}
	target := domain.ReportTarget(slot)

	d := o.begin(current, ActionSubmitReport)
	o.appendEntry(d, actor, domain.HistoryReportSubmitted, fmt.Sprintf("Report %s submitted: %s", number, title), "")
	d.Documents = []DocumentRequest{{
		Kind:   domain.DocumentKindReport,
		Target: target,
		Extra:  map[string]string{"title": title, "content": content, "slot": number, "office": actor.Label()},
	}}
	d.Notifications = []NotificationRequest{{
		Recipient: Recipient{Role: domain.RoleCoordinatingAuthority},
		Subject:   fmt.Sprintf("Report %s for case #%s", number, current.ID),
		Body:      fmt.Sprintf("%s submitted report %s (%s) for case #%s.", actor.Label(), number, title, current.ID),
		Attach:    []domain.DocumentTarget{target},
	}}
	return d, nil
}

func (o *Orchestrator) recordActivity(current *domain.Case, actor domain.Principal, a RecordActivity) (*Decision, error) {
	if err := requireOwnOffice(current, actor); err != nil {
		return nil, err
	}
	description := strings.TrimSpace(a.Description)
	if description == "" {
		return nil, apperrors.NewValidationError("description required", nil)
	}
	d := o.begin(current, ActionRecordActivity)
	d.Case.Status = domain.CaseStatusInProgress
	o.appendEntry(d, actor, domain.HistoryActivity, description, "")
	d.Case.History[d.entry].AttachmentRef = strings.TrimSpace(a.AttachmentURL)
	return d, nil
}

func (o *Orchestrator) begin(current *domain.Case, name ActionName) *Decision {
	next := current.Clone()
	next.UpdatedAt = o.now()
	return &Decision{Action: name, PreviousStatus: current.Status, Case: next}
}

func (o *Orchestrator) appendEntry(d *Decision, actor domain.Principal, kind domain.HistoryKind, description, detail string) {
	d.Case.History = append(d.Case.History, domain.HistoryEntry{
		ID:          o.newID(),
		Timestamp:   o.now(),
		ActorLabel:  actor.Label(),
		Kind:        kind,
		Description: description,
		Detail:      detail,
	})
	d.entry = len(d.Case.History) - 1
}

func (o *Orchestrator) now() time.Time {
	if o.Now != nil {
		return o.Now().UTC()
	}
	return time.Now().UTC()
}

func (o *Orchestrator) newID() string {
	if o.NewID != nil {
		return o.NewID()
	}
	return uuid.NewString()
}

func (o *Orchestrator) newCaseID() string {
	if o.NewCaseID != nil {
		return o.NewCaseID()
	}
	return generateCaseID()
}

func (o *Orchestrator) knownOffice(office string) bool {
	if o.KnownOffice == nil {
		return true
	}
	return o.KnownOffice(office)
}

func requireRole(actor domain.Principal, name ActionName) error {
	for _, role := range allowedRoles[name] {
		if actor.Role == role {
			return nil
		}
	}
	return apperrors.NewDomainError(apperrors.CodeForbidden,
		fmt.Sprintf("role %s may not perform %s", actor.Role, name), http.StatusForbidden,
		map[string]any{"role": string(actor.Role), "action": string(name)})
}

func requireStatus(current *domain.Case, name ActionName) error {
	if containsStatus(allowedSources[name], current.Status) {
		return nil
	}
	message := fmt.Sprintf("%s not allowed while case is %s", name, current.Status)
	if current.Status == domain.CaseStatusClosed {
		message = "case is closed"
	}
	return apperrors.NewConflict(message, map[string]any{
		"case_id": current.ID,
		"status":  string(current.Status),
		"action":  string(name),
	})
}

func requireOwnOffice(current *domain.Case, actor domain.Principal) error {
	if actor.Office == "" || actor.Office != current.AssignedOffice {
		return apperrors.NewForbidden("case is not assigned to this office")
	}
	return nil
}

func containsStatus(list []domain.CaseStatus, status domain.CaseStatus) bool {
	for _, candidate := range list {
		if candidate == status {
			return true
		}
	}
	return false
}

type field struct {
	name  string
	value string
}

func missingFields(fields ...field) []string {
	missing := []string{}
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	return missing
}

func generateCaseID() string {
	return "VIO-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}
