package lifecycle

import "github.com/spec-kit/case-workflow/internal/domain"

// DocumentRequest asks the generator for one artifact and names where its reference goes.
type DocumentRequest struct {
	Kind   domain.DocumentKind
	Target domain.DocumentTarget
	Extra  map[string]string
}

// AttachmentUpload stores a caller-supplied file before the case is persisted.
type AttachmentUpload struct {
	Target      domain.DocumentTarget
	FileName    string
	ContentType string
	Data        []byte
}

// Recipient is a symbolic notification target resolved by the office directory.
type Recipient struct {
	Role   domain.Role
	Office string
}

// NotificationRequest is a best-effort message emitted after the case is persisted.
type NotificationRequest struct {
	Recipient Recipient
	Subject   string
	Body      string
	// Attach lists document targets whose references travel with the message.
	Attach []domain.DocumentTarget
}

// Decision is the outcome of a valid action: the next case state plus the side effects to run.
type Decision struct {
	Action         ActionName
	PreviousStatus domain.CaseStatus
	Case           *domain.Case
	Attachment     *AttachmentUpload
	Documents      []DocumentRequest
	Notifications  []NotificationRequest

	entry int
}

// Entry returns the history entry appended by this decision.
func (d *Decision) Entry() domain.HistoryEntry {
	return d.Case.History[d.entry]
}

// BindDocument records a produced reference on the case. Generated documents are also linked
// from the history entry of this decision.
func (d *Decision) BindDocument(target domain.DocumentTarget, ref string) {
	d.Case.SetDocumentRef(target, ref)
	if target == domain.TargetOriginalAttachment {
		return
	}
	if d.Case.History[d.entry].AttachmentRef == "" {
		d.Case.History[d.entry].AttachmentRef = ref
	}
}

// PrimaryTarget is the target of the first generated document, if any.
func (d *Decision) PrimaryTarget() (domain.DocumentTarget, bool) {
	if len(d.Documents) == 0 {
		return "", false
	}
	return d.Documents[0].Target, true
}
