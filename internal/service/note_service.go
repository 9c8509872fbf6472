package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/case-workflow/internal/domain"
	"github.com/spec-kit/case-workflow/internal/repository"
	apperrors "github.com/spec-kit/case-workflow/pkg/util"
)

// NoteService manages the periodic notes written by intake offices.
type NoteService struct {
	notes  repository.NoteRepository
	logger *zap.Logger
	now    func() time.Time
}

// NewNoteService constructs the service.
func NewNoteService(notes repository.NoteRepository, logger *zap.Logger) *NoteService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NoteService{notes: notes, logger: logger, now: time.Now}
}

// Create stores a note under the caller's office.
func (s *NoteService) Create(ctx context.Context, actor domain.Principal, content string) (*domain.ManagementNote, error) {
	if actor.Role != domain.RoleIntakeOffice || actor.Office == "" {
		return nil, apperrors.NewForbidden("only intake offices write management notes")
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperrors.NewValidationError("content required", nil)
	}
	note := &domain.ManagementNote{
		ID:          uuid.NewString(),
		OfficeLabel: actor.Office,
		Content:     content,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.notes.Create(ctx, note); err != nil {
		return nil, apperrors.NewInternalError(fmt.Errorf("create note: %w", err))
	}
	s.logger.Info("management note created", zap.String("note_id", note.ID), zap.String("office", note.OfficeLabel))
	return note, nil
}

// List returns the caller's notes, or every note for the authorities.
func (s *NoteService) List(ctx context.Context, actor domain.Principal) ([]domain.ManagementNote, error) {
	office := ""
	switch {
	case actor.Role == domain.RoleIntakeOffice:
		if actor.Office == "" {
			return nil, apperrors.NewForbidden("intake office principal without office")
		}
		office = actor.Office
	case actor.Role.IsAuthority():
	default:
		return nil, apperrors.NewForbidden("unknown role")
	}
	notes, err := s.notes.List(ctx, office)
	if err != nil {
		return nil, apperrors.NewInternalError(fmt.Errorf("list notes: %w", err))
	}
	return notes, nil
}

// Delete removes a note owned by the caller's office.
func (s *NoteService) Delete(ctx context.Context, actor domain.Principal, id string) error {
	if actor.Role != domain.RoleIntakeOffice || actor.Office == "" {
		return apperrors.NewForbidden("only the owning office deletes a note")
	}
	note, err := s.notes.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNoteNotFound) {
			return apperrors.NewNotFound("note", map[string]any{"note_id": id})
		}
		return apperrors.NewInternalError(fmt.Errorf("get note %s: %w", id, err))
	}
	if note.OfficeLabel != actor.Office {
		return apperrors.NewForbidden("only the owning office deletes a note")
	}
	if err := s.notes.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNoteNotFound) {
			return apperrors.NewNotFound("note", map[string]any{"note_id": id})
		}
		return apperrors.NewInternalError(fmt.Errorf("delete note %s: %w", id, err))
	}
	s.logger.Info("management note deleted", zap.String("note_id", id), zap.String("office", actor.Office))
	return nil
}
