package dto

import (
	"encoding/base64"
	"strings"
	"time"

	"github.com/spec-kit/case-workflow/internal/domain"
	"github.com/spec-kit/case-workflow/internal/lifecycle"
	apperrors "github.com/spec-kit/case-workflow/pkg/util"
)

// ActionRequest is the tagged action payload. Only the fields of the named action are read.
type ActionRequest struct {
	Action string      `json:"action"`
	CaseID string      `json:"caseId"`
	Role   domain.Role `json:"role"`

	// intake
	ReportedAt       string             `json:"reportedAt"`
	Municipality     string             `json:"municipality"`
	Professional     string             `json:"professional"`
	Reporter         domain.Reporter    `json:"reporter"`
	Victim           domain.Victim      `json:"victim"`
	RightInvolved    string             `json:"rightInvolved"`
	ViolenceType     string             `json:"violenceType"`
	ShortDescription string             `json:"shortDescription"`
	ActionsTaken     string             `json:"actionsTaken"`
	Observations     string             `json:"observations"`
	Attachment       *AttachmentPayload `json:"attachment"`

	// assign
	Status  domain.CaseStatus `json:"status"`
	Office  string            `json:"office"`
	Urgency domain.Urgency    `json:"urgency"`

	Reason        string `json:"reason"`
	Analysis      string `json:"analysis"`
	Decision      string `json:"decision"`
	Justification string `json:"justification"`
	NewOffice     string `json:"newOffice"`
	Note          string `json:"note"`
	Title         string `json:"title"`
	Content       string `json:"content"`
	Description   string `json:"description"`
	AttachmentURL string `json:"attachmentUrl"`
}

// AttachmentPayload is an inline file. Data is base64, optionally as a data URL.
type AttachmentPayload struct {
	FileName    string `json:"fileName"`
	ContentType string `json:"contentType"`
	Data        string `json:"data"`
}

// ToAction converts the payload into the orchestrator's action type.
func (r ActionRequest) ToAction() (lifecycle.Action, error) {
	switch lifecycle.ActionName(r.Action) {
	case lifecycle.ActionIntake:
		return r.intake()
	case lifecycle.ActionAssign:
		return lifecycle.Assign{Status: r.Status, Office: r.Office, Urgency: r.Urgency}, nil
	case lifecycle.ActionRequestReclassification:
		return lifecycle.RequestReclassification{Reason: r.Reason}, nil
	case lifecycle.ActionEscalateToArbitration:
		return lifecycle.EscalateToArbitration{Analysis: r.Analysis}, nil
	case lifecycle.ActionResolveReclassification:
		return lifecycle.ResolveReclassification{
			Decision:      lifecycle.ReclassificationDecision(strings.ToUpper(strings.TrimSpace(r.Decision))),
			Justification: r.Justification,
			NewOffice:     r.NewOffice,
		}, nil
	case lifecycle.ActionRequestClosure:
		return lifecycle.RequestClosure{Reason: r.Reason}, nil
	case lifecycle.ActionAcceptClosure:
		return lifecycle.AcceptClosure{Note: r.Note}, nil
	case lifecycle.ActionDenyClosure:
		return lifecycle.DenyClosure{Justification: r.Justification}, nil
	case lifecycle.ActionSubmitReport:
		return lifecycle.SubmitReport{Title: r.Title, Content: r.Content}, nil
	case lifecycle.ActionRecordActivity:
		return lifecycle.RecordActivity{Description: r.Description, AttachmentURL: r.AttachmentURL}, nil
	case "":
		return nil, apperrors.NewValidationError("action required", nil)
	default:
		return nil, apperrors.NewValidationError("unknown action", map[string]any{"action": r.Action})
	}
}

func (r ActionRequest) intake() (lifecycle.Action, error) {
	intake := lifecycle.Intake{
		CaseID:           r.CaseID,
		Municipality:     r.Municipality,
		Professional:     r.Professional,
		Reporter:         r.Reporter,
		Victim:           r.Victim,
		RightInvolved:    r.RightInvolved,
		ViolenceType:     r.ViolenceType,
		ShortDescription: r.ShortDescription,
		ActionsTaken:     r.ActionsTaken,
		Observations:     r.Observations,
		Urgency:          r.Urgency,
	}
	if r.ReportedAt != "" {
		reportedAt, err := time.Parse(time.RFC3339, r.ReportedAt)
		if err != nil {
			return nil, apperrors.NewValidationError("reportedAt must be RFC3339", map[string]any{"reportedAt": r.ReportedAt})
		}
		intake.ReportedAt = reportedAt
	}
	if r.Attachment != nil {
		attachment, err := r.Attachment.decode()
		if err != nil {
			return nil, err
		}
		intake.Attachment = attachment
	}
	return intake, nil
}

func (a AttachmentPayload) decode() (*lifecycle.Attachment, error) {
	data := strings.TrimSpace(a.Data)
	contentType := strings.TrimSpace(a.ContentType)
	if strings.HasPrefix(data, "data:") {
		header, payload, ok := strings.Cut(data, ",")
		if !ok || !strings.HasSuffix(header, ";base64") {
			return nil, apperrors.NewValidationError("attachment data URL must be base64", nil)
		}
		if contentType == "" {
			contentType = strings.TrimSuffix(strings.TrimPrefix(header, "data:"), ";base64")
		}
		data = payload
	}
	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, apperrors.NewValidationError("attachment data is not valid base64", nil)
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return &lifecycle.Attachment{FileName: strings.TrimSpace(a.FileName), ContentType: contentType, Data: raw}, nil
}

// Warning is a soft failure reported with a successful action.
type Warning struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// ActionResponse is returned for a committed action. Failures are rendered by the error middleware.
type ActionResponse struct {
	Success     bool              `json:"success"`
	CaseID      string            `json:"caseId,omitempty"`
	Status      domain.CaseStatus `json:"status,omitempty"`
	Version     int64             `json:"version,omitempty"`
	DocumentRef string            `json:"documentRef,omitempty"`
	Documents   map[string]string `json:"documents,omitempty"`
	Warnings    []Warning         `json:"warnings"`
}
