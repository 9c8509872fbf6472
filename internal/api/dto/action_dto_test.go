package dto

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/case-workflow/internal/lifecycle"
	apperrors "github.com/spec-kit/case-workflow/pkg/util"
)

func TestToActionSelectsVariantByTag(t *testing.T) {
	cases := []struct {
		req  ActionRequest
		want lifecycle.Action
	}{
		{ActionRequest{Action: "assign", Status: "ASSIGNED", Office: "Comisaria", Urgency: "HIGH"}, lifecycle.Assign{Status: "ASSIGNED", Office: "Comisaria", Urgency: "HIGH"}},
		{ActionRequest{Action: "requestReclassification", Reason: "r"}, lifecycle.RequestReclassification{Reason: "r"}},
		{ActionRequest{Action: "escalateToAdmin2", Analysis: "a"}, lifecycle.EscalateToArbitration{Analysis: "a"}},
		{ActionRequest{Action: "resolveReclassification", Decision: " accepted ", NewOffice: "X"}, lifecycle.ResolveReclassification{Decision: lifecycle.DecisionAccepted, NewOffice: "X"}},
		{ActionRequest{Action: "requestClosure", Reason: "r"}, lifecycle.RequestClosure{Reason: "r"}},
		{ActionRequest{Action: "acceptClosure", Note: "ok"}, lifecycle.AcceptClosure{Note: "ok"}},
		{ActionRequest{Action: "denyClosure", Justification: "j"}, lifecycle.DenyClosure{Justification: "j"}},
		{ActionRequest{Action: "submitReport", Title: "t", Content: "c"}, lifecycle.SubmitReport{Title: "t", Content: "c"}},
		{ActionRequest{Action: "recordActivity", Description: "d"}, lifecycle.RecordActivity{Description: "d"}},
	}
	for _, tc := range cases {
		got, err := tc.req.ToAction()
		require.NoError(t, err, tc.req.Action)
		assert.Equal(t, tc.want, got)
	}

	_, err := ActionRequest{Action: "reopen"}.ToAction()
	assert.Equal(t, apperrors.CodeValidation, apperrors.CodeOf(err))
	_, err = ActionRequest{}.ToAction()
	assert.Equal(t, apperrors.CodeValidation, apperrors.CodeOf(err))
}

func TestIntakeDecodesAttachment(t *testing.T) {
	encoded := base64.StdEncoding.EncodeToString([]byte("hello"))

	action, err := ActionRequest{
		Action:     "intake",
		CaseID:     "VIO-1",
		ReportedAt: "2026-02-01T10:00:00Z",
		Attachment: &AttachmentPayload{FileName: "a.txt", Data: "data:text/plain;base64," + encoded},
	}.ToAction()
	require.NoError(t, err)
	intake := action.(lifecycle.Intake)
	assert.Equal(t, "VIO-1", intake.CaseID)
	assert.Equal(t, 2026, intake.ReportedAt.Year())
	require.NotNil(t, intake.Attachment)
	assert.Equal(t, "text/plain", intake.Attachment.ContentType)
	assert.Equal(t, []byte("hello"), intake.Attachment.Data)

	action, err = ActionRequest{Action: "intake", Attachment: &AttachmentPayload{FileName: "b.bin", Data: encoded}}.ToAction()
	require.NoError(t, err)
	assert.Equal(t, "application/octet-stream", action.(lifecycle.Intake).Attachment.ContentType)

	_, err = ActionRequest{Action: "intake", Attachment: &AttachmentPayload{FileName: "c", Data: "%%%"}}.ToAction()
	assert.Equal(t, apperrors.CodeValidation, apperrors.CodeOf(err))

	_, err = ActionRequest{Action: "intake", ReportedAt: "yesterday"}.ToAction()
	assert.Equal(t, apperrors.CodeValidation, apperrors.CodeOf(err))
}
