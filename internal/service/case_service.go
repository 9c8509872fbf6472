package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/case-workflow/internal/domain"
	"github.com/spec-kit/case-workflow/internal/reports"
	"github.com/spec-kit/case-workflow/internal/repository"
	apperrors "github.com/spec-kit/case-workflow/pkg/util"
)

const exportPageSize = 500

// CaseQuery narrows a listing request.
type CaseQuery struct {
	Statuses []domain.CaseStatus
	Office   string
	Urgency  domain.Urgency
	Limit    int
	Offset   int
}

// CaseService serves read access to cases. Intake offices only ever see their own cases.
type CaseService struct {
	cases  repository.CaseRepository
	notes  repository.NoteRepository
	logger *zap.Logger
}

// NewCaseService constructs the service.
func NewCaseService(cases repository.CaseRepository, notes repository.NoteRepository, logger *zap.Logger) *CaseService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CaseService{cases: cases, notes: notes, logger: logger}
}

// List returns case summaries visible to actor.
func (s *CaseService) List(ctx context.Context, actor domain.Principal, query CaseQuery) ([]domain.Case, error) {
	filter, err := scopedFilter(actor, query)
	if err != nil {
		return nil, err
	}
	cases, err := s.cases.List(ctx, filter)
	if err != nil {
		return nil, apperrors.NewInternalError(fmt.Errorf("list cases: %w", err))
	}
	return cases, nil
}

// Get returns the full record. A case outside an office's scope is reported as missing.
func (s *CaseService) Get(ctx context.Context, actor domain.Principal, id string) (*domain.Case, error) {
	if !actor.Role.Valid() {
		return nil, apperrors.NewForbidden("unknown role")
	}
	c, err := s.cases.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrCaseNotFound) {
			return nil, apperrors.NewNotFound("case", map[string]any{"case_id": id})
		}
		return nil, apperrors.NewInternalError(fmt.Errorf("get case %s: %w", id, err))
	}
	if actor.Role == domain.RoleIntakeOffice && c.AssignedOffice != actor.Office {
		return nil, apperrors.NewNotFound("case", map[string]any{"case_id": id})
	}
	return c, nil
}

// Export renders every case matching query, plus all management notes, as a workbook.
func (s *CaseService) Export(ctx context.Context, actor domain.Principal, query CaseQuery) (*bytes.Buffer, error) {
	if !actor.Role.IsAuthority() {
		return nil, apperrors.NewForbidden("export is reserved to the authorities")
	}
	filter, err := scopedFilter(actor, query)
	if err != nil {
		return nil, err
	}

	var all []domain.Case
	filter.Limit = exportPageSize
	for offset := 0; ; offset += exportPageSize {
		filter.Offset = offset
		page, err := s.cases.List(ctx, filter)
		if err != nil {
			return nil, apperrors.NewInternalError(fmt.Errorf("export cases: %w", err))
		}
		all = append(all, page...)
		if len(page) < exportPageSize {
			break
		}
	}

	var notes []domain.ManagementNote
	if s.notes != nil {
		notes, err = s.notes.List(ctx, "")
		if err != nil {
			return nil, apperrors.NewInternalError(fmt.Errorf("export notes: %w", err))
		}
	}

	buf, err := reports.Workbook(all, notes)
	if err != nil {
		return nil, apperrors.NewInternalError(fmt.Errorf("build workbook: %w", err))
	}
	s.logger.Info("cases exported", zap.Int("cases", len(all)), zap.Int("notes", len(notes)))
	return buf, nil
}

func scopedFilter(actor domain.Principal, query CaseQuery) (repository.CaseFilter, error) {
	for _, status := range query.Statuses {
		if !status.Valid() {
			return repository.CaseFilter{}, apperrors.NewValidationError("invalid status filter", map[string]any{"status": string(status)})
		}
	}
	if query.Urgency != "" && !query.Urgency.Valid() {
		return repository.CaseFilter{}, apperrors.NewValidationError("invalid urgency filter", map[string]any{"urgency": string(query.Urgency)})
	}
	if query.Limit < 0 || query.Offset < 0 {
		return repository.CaseFilter{}, apperrors.NewValidationError("limit and offset must not be negative", nil)
	}

	filter := repository.CaseFilter{
		Statuses: query.Statuses,
		Office:   query.Office,
		Urgency:  query.Urgency,
		Limit:    query.Limit,
		Offset:   query.Offset,
	}
	switch {
	case actor.Role == domain.RoleIntakeOffice:
		if actor.Office == "" {
			return repository.CaseFilter{}, apperrors.NewForbidden("intake office principal without office")
		}
		filter.Office = actor.Office
	case actor.Role.IsAuthority():
	default:
		return repository.CaseFilter{}, apperrors.NewForbidden("unknown role")
	}
	return filter, nil
}
