package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/case-workflow/internal/domain"
	"github.com/spec-kit/case-workflow/internal/events"
	"github.com/spec-kit/case-workflow/internal/lifecycle"
	"github.com/spec-kit/case-workflow/internal/locking"
	"github.com/spec-kit/case-workflow/internal/observability"
	"github.com/spec-kit/case-workflow/internal/repository"
	apperrors "github.com/spec-kit/case-workflow/pkg/util"
)

// DocumentService produces and stores case documents.
type DocumentService interface {
	Generate(ctx context.Context, kind domain.DocumentKind, snapshot domain.Case, extra map[string]string) (string, error)
	StoreAttachment(ctx context.Context, caseID, fileName, contentType string, data []byte) (string, error)
	Discard(ctx context.Context, ref string) error
}

// Command is one action request against a case.
type Command struct {
	CaseID string
	Actor  domain.Principal
	Action lifecycle.Action
}

// Warning is a soft failure reported alongside a successful action.
type Warning struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// DispatchResult is returned for every committed action.
type DispatchResult struct {
	Case            *domain.Case
	DocumentRefs    map[domain.DocumentTarget]string
	PrimaryDocument string
	Warnings        []Warning
}

// DispatcherDependencies bundles collaborators for the dispatcher.
type DispatcherDependencies struct {
	Orchestrator    *lifecycle.Orchestrator
	CaseRepo        repository.CaseRepository
	Locker          locking.Locker
	Documents       DocumentService
	Events          events.Dispatcher
	Metrics         *observability.Metrics
	Logger          *zap.Logger
	DocumentTimeout time.Duration
	NotifyTimeout   time.Duration
}

// ActionDispatcher runs lock, load, decide, generate, persist and notify for each action.
type ActionDispatcher struct {
	orchestrator    *lifecycle.Orchestrator
	cases           repository.CaseRepository
	locker          locking.Locker
	documents       DocumentService
	events          events.Dispatcher
	metrics         *observability.Metrics
	logger          *zap.Logger
	documentTimeout time.Duration
	notifyTimeout   time.Duration
}

// NewActionDispatcher constructs the dispatcher.
func NewActionDispatcher(deps DispatcherDependencies) *ActionDispatcher {
	orchestrator := deps.Orchestrator
	if orchestrator == nil {
		orchestrator = lifecycle.New()
	}
	locker := deps.Locker
	if locker == nil {
		locker = locking.NewLocalLocker(5 * time.Second)
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ActionDispatcher{
		orchestrator:    orchestrator,
		cases:           deps.CaseRepo,
		locker:          locker,
		documents:       deps.Documents,
		events:          deps.Events,
		metrics:         deps.Metrics,
		logger:          logger,
		documentTimeout: deps.DocumentTimeout,
		notifyTimeout:   deps.NotifyTimeout,
	}
}

// Execute applies cmd. Either everything up to persistence commits, or nothing does.
// Notification failures after the commit come back as warnings.
func (d *ActionDispatcher) Execute(ctx context.Context, cmd Command) (*DispatchResult, error) {
	if cmd.Action == nil {
		return nil, apperrors.NewValidationError("action required", nil)
	}
	name := string(cmd.Action.Name())
	result, err := d.execute(ctx, cmd)
	if err != nil {
		code := apperrors.CodeOf(err)
		d.metrics.RecordAction(name, code)
		if code == apperrors.CodeInternal || code == apperrors.CodeDependency {
			d.logger.Error("action failed", zap.String("action", name), zap.String("case_id", cmd.CaseID), zap.Error(err))
		} else {
			d.logger.Debug("action rejected",
				zap.String("action", name),
				zap.String("case_id", cmd.CaseID),
				zap.String("role", string(cmd.Actor.Role)),
				zap.String("kind", code),
				zap.String("reason", err.Error()))
		}
		return nil, err
	}
	d.metrics.RecordAction(name, "ok")
	for _, w := range result.Warnings {
		d.metrics.RecordWarning(name, w.Kind)
	}
	return result, nil
}

func (d *ActionDispatcher) execute(ctx context.Context, cmd Command) (*DispatchResult, error) {
	action := cmd.Action
	caseID := cmd.CaseID
	intake, isIntake := action.(lifecycle.Intake)
	if isIntake {
		if intake.CaseID == "" {
			intake.CaseID = caseID
		}
		caseID = intake.CaseID
		action = intake
	} else if caseID == "" {
		return nil, apperrors.NewValidationError("caseId required", nil)
	}

	release := func() {}
	if caseID != "" {
		unlock, err := d.locker.Acquire(ctx, caseID)
		if err != nil {
			if errors.Is(err, locking.ErrLockTimeout) {
				return nil, apperrors.NewConflict("case is busy", map[string]any{"case_id": caseID})
			}
			return nil, apperrors.NewDependencyError("case lock unavailable", err)
		}
		release = unlock
	}
	released := false
	unlock := func() {
		if !released {
			released = true
			release()
		}
	}
	defer unlock()

	current, err := d.load(ctx, caseID, isIntake)
	if err != nil {
		return nil, err
	}

	decision, err := d.orchestrator.Decide(current, cmd.Actor, action)
	if err != nil {
		return nil, err
	}

	refs, err := d.produceDocuments(ctx, decision)
	if err != nil {
		return nil, err
	}

	if err := d.persist(ctx, current, decision.Case); err != nil {
		d.discard(ctx, refValues(refs))
		return nil, err
	}
	unlock()

	d.logger.Info("action applied",
		zap.String("action", string(decision.Action)),
		zap.String("case_id", decision.Case.ID),
		zap.String("role", string(cmd.Actor.Role)),
		zap.String("from", string(decision.PreviousStatus)),
		zap.String("to", string(decision.Case.Status)),
		zap.Int64("version", decision.Case.Version))

	result := &DispatchResult{
		Case:         decision.Case,
		DocumentRefs: refs,
		Warnings:     d.publish(ctx, cmd.Actor, decision),
	}
	if target, ok := decision.PrimaryTarget(); ok {
		result.PrimaryDocument = refs[target]
	}
	return result, nil
}

func (d *ActionDispatcher) load(ctx context.Context, caseID string, isIntake bool) (*domain.Case, error) {
	if caseID == "" {
		return nil, nil
	}
	current, err := d.cases.GetByID(ctx, caseID)
	switch {
	case err == nil:
		return current, nil
	case errors.Is(err, repository.ErrCaseNotFound):
		if isIntake {
			return nil, nil
		}
		return nil, apperrors.NewNotFound("case", map[string]any{"case_id": caseID})
	default:
		return nil, apperrors.NewInternalError(fmt.Errorf("load case %s: %w", caseID, err))
	}
}

// produceDocuments runs every external write the decision needs before it may be persisted.
// On failure, whatever was already stored is discarded.
func (d *ActionDispatcher) produceDocuments(ctx context.Context, decision *lifecycle.Decision) (map[domain.DocumentTarget]string, error) {
	refs := make(map[domain.DocumentTarget]string)
	if d.documents == nil {
		if decision.Attachment != nil || len(decision.Documents) > 0 {
			return nil, apperrors.NewDependencyError("document generator not configured", nil)
		}
		return refs, nil
	}

	if upload := decision.Attachment; upload != nil {
		ref, err := d.boundedCall(ctx, func(callCtx context.Context) (string, error) {
			return d.documents.StoreAttachment(callCtx, decision.Case.ID, upload.FileName, upload.ContentType, upload.Data)
		})
		if err != nil {
			return nil, apperrors.NewDependencyError("attachment upload failed", err)
		}
		decision.BindDocument(upload.Target, ref)
		refs[upload.Target] = ref
	}

	for _, req := range decision.Documents {
		ref, err := d.boundedCall(ctx, func(callCtx context.Context) (string, error) {
			return d.documents.Generate(callCtx, req.Kind, *decision.Case, req.Extra)
		})
		if err != nil {
			d.discard(ctx, refValues(refs))
			return nil, apperrors.NewDependencyError(fmt.Sprintf("%s document generation failed", req.Kind), err)
		}
		decision.BindDocument(req.Target, ref)
		refs[req.Target] = ref
	}
	return refs, nil
}

type callOutcome struct {
	ref string
	err error
}

// boundedCall gives fn the document timeout whether or not fn honours its context.
// A call that finishes after the deadline has its result discarded.
func (d *ActionDispatcher) boundedCall(ctx context.Context, fn func(context.Context) (string, error)) (string, error) {
	callCtx, cancel := d.withTimeout(ctx, d.documentTimeout)
	defer cancel()

	done := make(chan callOutcome, 1)
	go func() {
		ref, err := fn(callCtx)
		done <- callOutcome{ref: ref, err: err}
	}()
	select {
	case out := <-done:
		return out.ref, out.err
	case <-callCtx.Done():
		detached := context.WithoutCancel(ctx)
		go func() {
			if out := <-done; out.err == nil && out.ref != "" {
				d.discard(detached, []string{out.ref})
			}
		}()
		return "", fmt.Errorf("timed out: %w", callCtx.Err())
	}
}

// discard removes files stored for an action that was not committed. Failures are only logged.
func (d *ActionDispatcher) discard(ctx context.Context, refs []string) {
	if d.documents == nil {
		return
	}
	base := context.WithoutCancel(ctx)
	for _, ref := range refs {
		callCtx, cancel := d.withTimeout(base, d.documentTimeout)
		if err := d.documents.Discard(callCtx, ref); err != nil {
			d.logger.Warn("orphaned document not removed", zap.String("ref", ref), zap.Error(err))
		}
		cancel()
	}
}

func refValues(refs map[domain.DocumentTarget]string) []string {
	out := make([]string, 0, len(refs))
	for _, ref := range refs {
		out = append(out, ref)
	}
	return out
}

func (d *ActionDispatcher) persist(ctx context.Context, current, next *domain.Case) error {
	var err error
	if current == nil {
		err = d.cases.Create(ctx, next)
	} else {
		err = d.cases.Save(ctx, next, current.Version)
	}
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrCaseExists):
		return apperrors.NewConflict("case already exists", map[string]any{"case_id": next.ID})
	case errors.Is(err, repository.ErrVersionConflict):
		return apperrors.NewConflict("case was modified concurrently", map[string]any{"case_id": next.ID})
	case errors.Is(err, repository.ErrCaseNotFound):
		return apperrors.NewNotFound("case", map[string]any{"case_id": next.ID})
	default:
		return apperrors.NewInternalError(fmt.Errorf("persist case %s: %w", next.ID, err))
	}
}

// publish emits events for a committed decision. The request context may already be cancelled,
// so each call gets its own bounded context.
func (d *ActionDispatcher) publish(ctx context.Context, actor domain.Principal, decision *lifecycle.Decision) []Warning {
	warnings := []Warning{}
	if d.events == nil {
		return warnings
	}
	base := context.WithoutCancel(ctx)
	eventActor := events.Actor{Role: actor.Role, Office: actor.Office}
	c := decision.Case

	if err := d.publishEvent(base, events.Event{
		Type:   events.EventCaseTransitioned,
		CaseID: c.ID,
		Actor:  eventActor,
		Payload: events.CaseTransitionedPayload{
			Action:    string(decision.Action),
			OldStatus: decision.PreviousStatus,
			NewStatus: c.Status,
			Office:    c.AssignedOffice,
			Version:   c.Version,
		},
	}); err != nil {
		d.logger.Warn("case event handler failed", zap.String("case_id", c.ID), zap.Error(err))
	}

	for _, n := range decision.Notifications {
		payload := events.NotificationRequestedPayload{
			RecipientRole:   n.Recipient.Role,
			RecipientOffice: n.Recipient.Office,
			Subject:         n.Subject,
			Body:            n.Body,
		}
		for _, target := range n.Attach {
			if ref := c.DocumentRef(target); ref != "" {
				payload.Documents = append(payload.Documents, events.DocumentLink{Target: target, URL: ref})
			}
		}
		err := d.publishEvent(base, events.Event{
			Type:    events.EventNotificationRequested,
			CaseID:  c.ID,
			Actor:   eventActor,
			Payload: payload,
		})
		if err != nil {
			recipient := domain.Principal{Role: n.Recipient.Role, Office: n.Recipient.Office}.Label()
			d.logger.Warn("notification failed",
				zap.String("case_id", c.ID),
				zap.String("recipient", recipient),
				zap.Error(err))
			warnings = append(warnings, Warning{
				Kind:    apperrors.CodeNotifyWarning,
				Message: fmt.Sprintf("notification to %s failed: %v", recipient, err),
			})
		}
	}
	return warnings
}

func (d *ActionDispatcher) publishEvent(ctx context.Context, event events.Event) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	callCtx, cancel := d.withTimeout(ctx, d.notifyTimeout)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- d.events.Publish(callCtx, event) }()
	select {
	case err := <-done:
		return err
	case <-callCtx.Done():
		return fmt.Errorf("timed out: %w", callCtx.Err())
	}
}

func (d *ActionDispatcher) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}
