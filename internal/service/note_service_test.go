package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/case-workflow/internal/repository"
	apperrors "github.com/spec-kit/case-workflow/pkg/util"
)

func TestNoteLifecycle(t *testing.T) {
	ctx := context.Background()
	svc := NewNoteService(repository.NewMemoryNoteRepository(), nil)

	_, err := svc.Create(ctx, coordinator, "resumen")
	assert.Equal(t, apperrors.CodeForbidden, apperrors.CodeOf(err))
	_, err = svc.Create(ctx, intakeActor, "   ")
	assert.Equal(t, apperrors.CodeValidation, apperrors.CodeOf(err))

	mine, err := svc.Create(ctx, intakeActor, "Resumen de marzo")
	require.NoError(t, err)
	assert.Equal(t, officeA, mine.OfficeLabel)
	theirs, err := svc.Create(ctx, otherOffice, "Resumen de abril")
	require.NoError(t, err)

	listed, err := svc.List(ctx, intakeActor)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, mine.ID, listed[0].ID)

	listed, err = svc.List(ctx, arbitrator)
	require.NoError(t, err)
	assert.Len(t, listed, 2)

	err = svc.Delete(ctx, intakeActor, theirs.ID)
	assert.Equal(t, apperrors.CodeForbidden, apperrors.CodeOf(err))
	err = svc.Delete(ctx, coordinator, mine.ID)
	assert.Equal(t, apperrors.CodeForbidden, apperrors.CodeOf(err))

	require.NoError(t, svc.Delete(ctx, intakeActor, mine.ID))
	err = svc.Delete(ctx, intakeActor, mine.ID)
	assert.Equal(t, apperrors.CodeNotFound, apperrors.CodeOf(err))
}
