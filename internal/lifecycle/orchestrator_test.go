package lifecycle

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/case-workflow/internal/domain"
	apperrors "github.com/spec-kit/case-workflow/pkg/util"
)

var (
	coordinator = domain.Principal{Role: domain.RoleCoordinatingAuthority}
	arbitrator  = domain.Principal{Role: domain.RoleArbitrationAuthority}
	comisaria   = domain.Principal{Role: domain.RoleIntakeOffice, Office: "Comisaria de Familia"}
	inspeccion  = domain.Principal{Role: domain.RoleIntakeOffice, Office: "Inspeccion de Policia"}
)

func newTestOrchestrator() *Orchestrator {
	seq := 0
	return &Orchestrator{
		Now: func() time.Time { return time.Date(2026, 3, 8, 10, 0, 0, 0, time.UTC) },
		NewID: func() string {
			seq++
			return fmt.Sprintf("h-%d", seq)
		},
		NewCaseID: func() string { return "VIO-TEST0001" },
	}
}

func validIntake() Intake {
	return Intake{
		Victim:           domain.Victim{Name: "Maria Perez", IDNumber: "1020304050"},
		ViolenceType:     "Psicologica",
		ShortDescription: "Relato de los hechos",
		Professional:     "Trabajadora social",
	}
}

func caseIn(status domain.CaseStatus, office string) *domain.Case {
	return &domain.Case{
		ID:             "VIO-1",
		Status:         status,
		AssignedOffice: office,
		Urgency:        domain.UrgencyMedium,
		ViolenceType:   "Fisica",
		History: []domain.HistoryEntry{
			{ID: "h-0", Kind: domain.HistoryIntake, Description: "Case registered"},
		},
		Version: 3,
	}
}

func mustDecide(t *testing.T, o *Orchestrator, c *domain.Case, actor domain.Principal, action Action) *Decision {
	t.Helper()
	d, err := o.Decide(c, actor, action)
	require.NoError(t, err)
	require.NotNil(t, d)
	return d
}

func TestIntakeCreatesPendingCase(t *testing.T) {
	o := newTestOrchestrator()
	d := mustDecide(t, o, nil, comisaria, validIntake())

	assert.Equal(t, "VIO-TEST0001", d.Case.ID)
	assert.Equal(t, domain.CaseStatusPending, d.Case.Status)
	assert.Empty(t, d.Case.AssignedOffice)
	assert.Equal(t, domain.UrgencyMedium, d.Case.Urgency)
	require.Len(t, d.Case.History, 1)
	assert.Equal(t, domain.HistoryIntake, d.Case.History[0].Kind)
	require.Len(t, d.Documents, 1)
	assert.Equal(t, domain.DocumentKindDossier, d.Documents[0].Kind)
	require.Len(t, d.Notifications, 1)
	assert.Equal(t, domain.RoleCoordinatingAuthority, d.Notifications[0].Recipient.Role)
	assert.Equal(t, []domain.DocumentTarget{domain.TargetDossier}, d.Notifications[0].Attach)
	assert.Nil(t, d.Attachment)
}

func TestIntakeKeepsSuppliedIDAndAttachment(t *testing.T) {
	o := newTestOrchestrator()
	in := validIntake()
	in.CaseID = "VIO-CLIENT"
	in.Urgency = domain.UrgencyCritical
	in.Attachment = &Attachment{FileName: "denuncia.pdf", ContentType: "application/pdf", Data: []byte("%PDF")}

	d := mustDecide(t, o, nil, coordinator, in)
	assert.Equal(t, "VIO-CLIENT", d.Case.ID)
	assert.Equal(t, domain.UrgencyCritical, d.Case.Urgency)
	require.NotNil(t, d.Attachment)
	assert.Equal(t, domain.TargetOriginalAttachment, d.Attachment.Target)
}

func TestIntakeValidation(t *testing.T) {
	o := newTestOrchestrator()
	in := validIntake()
	in.Victim.Name = "  "
	in.ShortDescription = ""

	_, err := o.Decide(nil, comisaria, in)
	require.Error(t, err)
	de := apperrors.ToDomainError(err)
	assert.Equal(t, apperrors.CodeValidation, de.Code)
	assert.Equal(t, []string{"victim.name", "shortDescription"}, de.Details["fields"])

	in = validIntake()
	in.Urgency = "SOMEDAY"
	_, err = o.Decide(nil, comisaria, in)
	assert.Equal(t, apperrors.CodeValidation, apperrors.CodeOf(err))

	_, err = o.Decide(nil, domain.Principal{}, validIntake())
	assert.Equal(t, apperrors.CodeForbidden, apperrors.CodeOf(err))
}

func TestIntakeRejectsExistingCase(t *testing.T) {
	o := newTestOrchestrator()
	_, err := o.Decide(caseIn(domain.CaseStatusPending, ""), comisaria, validIntake())
	assert.Equal(t, apperrors.CodeConflict, apperrors.CodeOf(err))
}

func TestTransitionTable(t *testing.T) {
	cases := []struct {
		name       string
		from       domain.CaseStatus
		office     string
		actor      domain.Principal
		action     Action
		wantStatus domain.CaseStatus
		wantOffice string
		wantDocs   []domain.DocumentKind
		wantNotify []Recipient
	}{
		{
			name: "assign pending case", from: domain.CaseStatusPending, actor: coordinator,
			action:     Assign{Status: domain.CaseStatusAssigned, Office: "Comisaria de Familia"},
			wantStatus: domain.CaseStatusAssigned, wantOffice: "Comisaria de Familia",
			wantNotify: []Recipient{{Role: domain.RoleIntakeOffice, Office: "Comisaria de Familia"}},
		},
		{
			name: "update to in progress", from: domain.CaseStatusAssigned, office: "Comisaria de Familia", actor: coordinator,
			action:     Assign{Status: domain.CaseStatusInProgress, Office: "Comisaria de Familia", Urgency: domain.UrgencyHigh},
			wantStatus: domain.CaseStatusInProgress, wantOffice: "Comisaria de Familia",
		},
		{
			name: "request reclassification", from: domain.CaseStatusInProgress, office: comisaria.Office, actor: comisaria,
			action:     RequestReclassification{Reason: "Competencia de inspeccion"},
			wantStatus: domain.CaseStatusReclassificationRequested, wantOffice: comisaria.Office,
			wantNotify: []Recipient{{Role: domain.RoleCoordinatingAuthority}},
		},
		{
			name: "escalate", from: domain.CaseStatusReclassificationRequested, office: comisaria.Office, actor: coordinator,
			action:     EscalateToArbitration{Analysis: "Analisis tecnico"},
			wantStatus: domain.CaseStatusPendingArbitration, wantOffice: comisaria.Office,
			wantDocs:   []domain.DocumentKind{domain.DocumentKindAnalysis},
			wantNotify: []Recipient{{Role: domain.RoleArbitrationAuthority}},
		},
		{
			name: "resolve accepted", from: domain.CaseStatusPendingArbitration, office: comisaria.Office, actor: arbitrator,
			action:     ResolveReclassification{Decision: DecisionAccepted, NewOffice: inspeccion.Office},
			wantStatus: domain.CaseStatusAssigned, wantOffice: inspeccion.Office,
			wantDocs:   []domain.DocumentKind{domain.DocumentKindResolution},
			wantNotify: []Recipient{{Role: domain.RoleIntakeOffice, Office: inspeccion.Office}},
		},
		{
			name: "resolve rejected", from: domain.CaseStatusPendingArbitration, office: comisaria.Office, actor: arbitrator,
			action:     ResolveReclassification{Decision: DecisionRejected, Justification: "Competencia correcta"},
			wantStatus: domain.CaseStatusInProgress, wantOffice: comisaria.Office,
			wantDocs:   []domain.DocumentKind{domain.DocumentKindResolution},
			wantNotify: []Recipient{{Role: domain.RoleIntakeOffice, Office: comisaria.Office}},
		},
		{
			name: "request closure", from: domain.CaseStatusAssigned, office: comisaria.Office, actor: comisaria,
			action:     RequestClosure{Reason: "Atencion finalizada"},
			wantStatus: domain.CaseStatusClosureRequested, wantOffice: comisaria.Office,
			wantNotify: []Recipient{{Role: domain.RoleCoordinatingAuthority}},
		},
		{
			name: "accept closure", from: domain.CaseStatusClosureRequested, office: comisaria.Office, actor: coordinator,
			action:     AcceptClosure{},
			wantStatus: domain.CaseStatusClosed, wantOffice: comisaria.Office,
			wantNotify: []Recipient{{Role: domain.RoleIntakeOffice, Office: comisaria.Office}},
		},
		{
			name: "deny closure", from: domain.CaseStatusClosureRequested, office: comisaria.Office, actor: coordinator,
			action:     DenyClosure{Justification: "Falta seguimiento"},
			wantStatus: domain.CaseStatusInProgress, wantOffice: comisaria.Office,
			wantDocs:   []domain.DocumentKind{domain.DocumentKindDenial},
			wantNotify: []Recipient{{Role: domain.RoleIntakeOffice, Office: comisaria.Office}},
		},
		{
			name: "submit report keeps status", from: domain.CaseStatusInProgress, office: comisaria.Office, actor: comisaria,
			action:     SubmitReport{Content: "Seguimiento"},
			wantStatus: domain.CaseStatusInProgress, wantOffice: comisaria.Office,
			wantDocs:   []domain.DocumentKind{domain.DocumentKindReport},
			wantNotify: []Recipient{{Role: domain.RoleCoordinatingAuthority}},
		},
		{
			name: "activity moves assigned to in progress", from: domain.CaseStatusAssigned, office: comisaria.Office, actor: comisaria,
			action:     RecordActivity{Description: "Visita domiciliaria"},
			wantStatus: domain.CaseStatusInProgress, wantOffice: comisaria.Office,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			o := newTestOrchestrator()
			current := caseIn(tc.from, tc.office)
			before := *current

			d := mustDecide(t, o, current, tc.actor, tc.action)

			assert.Equal(t, tc.wantStatus, d.Case.Status)
			assert.Equal(t, tc.wantOffice, d.Case.AssignedOffice)
			assert.Equal(t, tc.from, d.PreviousStatus)
			assert.Len(t, d.Case.History, len(current.History)+1)
			assert.Equal(t, tc.actor.Label(), d.Entry().ActorLabel)

			kinds := []domain.DocumentKind{}
			for _, req := range d.Documents {
				kinds = append(kinds, req.Kind)
			}
			if tc.wantDocs == nil {
				tc.wantDocs = []domain.DocumentKind{}
			}
			assert.Equal(t, tc.wantDocs, kinds)

			recipients := []Recipient{}
			for _, n := range d.Notifications {
				recipients = append(recipients, n.Recipient)
			}
			if tc.wantNotify == nil {
				tc.wantNotify = []Recipient{}
			}
			assert.Equal(t, tc.wantNotify, recipients)

			assert.Equal(t, before.Status, current.Status, "input case must not change")
			assert.Len(t, current.History, len(before.History))
		})
	}
}

func TestAssignForcesAssignedWhenPendingWithOffice(t *testing.T) {
	o := newTestOrchestrator()
	d := mustDecide(t, o, caseIn(domain.CaseStatusPending, ""), coordinator,
		Assign{Status: domain.CaseStatusPending, Office: "Hospital Santa Isabel"})
	assert.Equal(t, domain.CaseStatusAssigned, d.Case.Status)
	assert.Equal(t, "Hospital Santa Isabel", d.Case.AssignedOffice)
	require.Len(t, d.Notifications, 1)
}

func TestAssignGuards(t *testing.T) {
	o := newTestOrchestrator()
	o.KnownOffice = func(name string) bool { return name == "Comisaria de Familia" }

	_, err := o.Decide(caseIn(domain.CaseStatusPending, ""), coordinator, Assign{Status: domain.CaseStatusAssigned})
	assert.Equal(t, apperrors.CodeValidation, apperrors.CodeOf(err), "office required")

	_, err = o.Decide(caseIn(domain.CaseStatusPending, ""), coordinator, Assign{Status: domain.CaseStatusClosureRequested, Office: "Comisaria de Familia"})
	assert.Equal(t, apperrors.CodeValidation, apperrors.CodeOf(err), "request-only state")

	_, err = o.Decide(caseIn(domain.CaseStatusPending, ""), coordinator, Assign{Office: "Desconocido"})
	assert.Equal(t, apperrors.CodeValidation, apperrors.CodeOf(err), "unknown office")

	_, err = o.Decide(caseIn(domain.CaseStatusPending, ""), comisaria, Assign{Office: "Comisaria de Familia"})
	assert.Equal(t, apperrors.CodeForbidden, apperrors.CodeOf(err))

	_, err = o.Decide(caseIn(domain.CaseStatusClosureRequested, "Comisaria de Familia"), coordinator, Assign{Office: "Comisaria de Familia"})
	assert.Equal(t, apperrors.CodeConflict, apperrors.CodeOf(err))
}

func TestAssignBackToPendingClearsOffice(t *testing.T) {
	o := newTestOrchestrator()
	d := mustDecide(t, o, caseIn(domain.CaseStatusAssigned, "Comisaria de Familia"), coordinator, Assign{Status: domain.CaseStatusPending})
	assert.Equal(t, domain.CaseStatusPending, d.Case.Status)
	assert.Empty(t, d.Case.AssignedOffice)
	assert.Empty(t, d.Notifications)
}

func TestGuardFailuresLeaveCaseUntouched(t *testing.T) {
	tests := []struct {
		name   string
		c      *domain.Case
		actor  domain.Principal
		action Action
		code   string
	}{
		{"wrong role", caseIn(domain.CaseStatusAssigned, comisaria.Office), coordinator, RequestClosure{Reason: "x"}, apperrors.CodeForbidden},
		{"other office", caseIn(domain.CaseStatusAssigned, comisaria.Office), inspeccion, RequestClosure{Reason: "x"}, apperrors.CodeForbidden},
		{"wrong state", caseIn(domain.CaseStatusPending, ""), coordinator, EscalateToArbitration{Analysis: "y"}, apperrors.CodeConflict},
		{"empty reason", caseIn(domain.CaseStatusAssigned, comisaria.Office), comisaria, RequestReclassification{Reason: " "}, apperrors.CodeValidation},
		{"empty analysis", caseIn(domain.CaseStatusReclassificationRequested, comisaria.Office), coordinator, EscalateToArbitration{}, apperrors.CodeValidation},
		{"accepted without office", caseIn(domain.CaseStatusPendingArbitration, comisaria.Office), arbitrator, ResolveReclassification{Decision: DecisionAccepted}, apperrors.CodeValidation},
		{"bad decision", caseIn(domain.CaseStatusPendingArbitration, comisaria.Office), arbitrator, ResolveReclassification{Decision: "MAYBE"}, apperrors.CodeValidation},
		{"deny without justification", caseIn(domain.CaseStatusClosureRequested, comisaria.Office), coordinator, DenyClosure{}, apperrors.CodeValidation},
		{"report on closed case", caseIn(domain.CaseStatusClosed, comisaria.Office), comisaria, SubmitReport{Content: "x"}, apperrors.CodeConflict},
		{"closed is terminal", caseIn(domain.CaseStatusClosed, comisaria.Office), coordinator, Assign{Office: comisaria.Office}, apperrors.CodeConflict},
		{"conflict is never consumed", caseIn(domain.CaseStatusConflict, comisaria.Office), coordinator, Assign{Office: comisaria.Office}, apperrors.CodeConflict},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			o := newTestOrchestrator()
			before := *tc.c
			historyLen := len(tc.c.History)

			d, err := o.Decide(tc.c, tc.actor, tc.action)
			assert.Nil(t, d)
			assert.Equal(t, tc.code, apperrors.CodeOf(err))
			assert.Equal(t, before.Status, tc.c.Status)
			assert.Equal(t, before.Documents, tc.c.Documents)
			assert.Equal(t, before.ReportSlots, tc.c.ReportSlots)
			assert.Len(t, tc.c.History, historyLen)

			_, again := o.Decide(tc.c, tc.actor, tc.action)
			assert.Equal(t, apperrors.CodeOf(err), apperrors.CodeOf(again))
			assert.Equal(t, err.Error(), again.Error())
		})
	}
}

func TestReportSlotsFillInOrderThenReject(t *testing.T) {
	o := newTestOrchestrator()
	c := caseIn(domain.CaseStatusInProgress, comisaria.Office)

	first := mustDecide(t, o, c, comisaria, SubmitReport{Title: "Primer informe", Content: "a"})
	require.Len(t, first.Documents, 1)
	assert.Equal(t, domain.TargetReport1, first.Documents[0].Target)
	first.BindDocument(domain.TargetReport1, "https://docs/r1.pdf")
	c = first.Case

	second := mustDecide(t, o, c, comisaria, SubmitReport{Content: "b"})
	assert.Equal(t, domain.TargetReport2, second.Documents[0].Target)
	assert.Equal(t, "Report 2", second.Documents[0].Extra["title"])
	second.BindDocument(domain.TargetReport2, "https://docs/r2.pdf")
	c = second.Case

	assert.Equal(t, [domain.MaxReportSlots]string{"https://docs/r1.pdf", "https://docs/r2.pdf"}, c.ReportSlots)

	_, err := o.Decide(c, comisaria, SubmitReport{Content: "c"})
	assert.Equal(t, apperrors.CodeCapacity, apperrors.CodeOf(err))
	assert.Equal(t, [domain.MaxReportSlots]string{"https://docs/r1.pdf", "https://docs/r2.pdf"}, c.ReportSlots)
}

func TestReclassificationRoundTrip(t *testing.T) {
	o := newTestOrchestrator()
	start := caseIn(domain.CaseStatusAssigned, "Comisaria de Familia")

	requested := mustDecide(t, o, start, comisaria, RequestReclassification{Reason: "X"}).Case
	assert.Equal(t, domain.CaseStatusReclassificationRequested, requested.Status)
	entry, ok := requested.LatestEntry(domain.HistoryReclassificationRequest)
	require.True(t, ok)
	assert.Equal(t, "X", entry.Detail)

	escalation := mustDecide(t, o, requested, coordinator, EscalateToArbitration{Analysis: "Y"})
	assert.Equal(t, "X", escalation.Documents[0].Extra["reason"])
	escalation.BindDocument(domain.TargetAnalysis, "https://docs/analysis.pdf")
	pending := escalation.Case
	assert.Equal(t, domain.CaseStatusPendingArbitration, pending.Status)
	assert.Equal(t, "https://docs/analysis.pdf", pending.Documents.Analysis)
	assert.Equal(t, "https://docs/analysis.pdf", pending.History[len(pending.History)-1].AttachmentRef)

	accepted := mustDecide(t, o, pending, arbitrator, ResolveReclassification{Decision: DecisionAccepted, NewOffice: "Z"}).Case
	assert.Equal(t, domain.CaseStatusAssigned, accepted.Status)
	assert.Equal(t, "Z", accepted.AssignedOffice)

	rejected := mustDecide(t, o, pending, arbitrator, ResolveReclassification{Decision: DecisionRejected}).Case
	assert.Equal(t, domain.CaseStatusInProgress, rejected.Status)
	assert.Equal(t, start.AssignedOffice, rejected.AssignedOffice)
}

func TestClosureRoundTrip(t *testing.T) {
	o := newTestOrchestrator()
	start := caseIn(domain.CaseStatusInProgress, comisaria.Office)

	requested := mustDecide(t, o, start, comisaria, RequestClosure{Reason: "A"}).Case
	assert.Equal(t, domain.CaseStatusClosureRequested, requested.Status)

	closed := mustDecide(t, o, requested, coordinator, AcceptClosure{}).Case
	assert.Equal(t, domain.CaseStatusClosed, closed.Status)
	for _, action := range []Action{
		RequestClosure{Reason: "again"},
		RequestReclassification{Reason: "again"},
		SubmitReport{Content: "late"},
		RecordActivity{Description: "late"},
	} {
		_, err := o.Decide(closed, comisaria, action)
		assert.Equal(t, apperrors.CodeConflict, apperrors.CodeOf(err), string(action.Name()))
	}

	denial := mustDecide(t, o, requested, coordinator, DenyClosure{Justification: "B"})
	assert.Equal(t, domain.CaseStatusInProgress, denial.Case.Status)
	assert.Equal(t, "A", denial.Documents[0].Extra["reason"])
	assert.Equal(t, "B", denial.Documents[0].Extra["justification"])
}

func TestHistoryIsAppendOnly(t *testing.T) {
	o := newTestOrchestrator()
	d := mustDecide(t, o, nil, comisaria, validIntake())
	c := d.Case
	sequence := []struct {
		actor  domain.Principal
		action Action
	}{
		{coordinator, Assign{Office: comisaria.Office}},
		{comisaria, RecordActivity{Description: "Primera atencion"}},
		{comisaria, SubmitReport{Content: "Informe"}},
		{coordinator, Assign{Status: domain.CaseStatusClosed, Office: comisaria.Office}},
		{comisaria, RequestReclassification{Reason: "Otra entidad"}},
		{coordinator, EscalateToArbitration{Analysis: "Procede"}},
		{arbitrator, ResolveReclassification{Decision: DecisionRejected}},
		{comisaria, RequestClosure{Reason: "Fin"}},
		{coordinator, AcceptClosure{}},
	}
	previous := c.History
	for _, step := range sequence {
		next, err := o.Decide(c, step.actor, step.action)
		if err != nil {
			continue
		}
		for i, entry := range previous {
			assert.Equal(t, entry, next.Case.History[i])
		}
		assert.GreaterOrEqual(t, len(next.Case.History), len(previous))
		c = next.Case
		previous = c.History
	}
	assert.Equal(t, domain.CaseStatusClosed, c.Status)
}
