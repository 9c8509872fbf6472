package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/case-workflow/internal/domain"
)

func sampleCase(id string, status domain.CaseStatus, office string, reportedAt time.Time) *domain.Case {
	return &domain.Case{
		ID:             id,
		ReportedAt:     reportedAt,
		Status:         status,
		AssignedOffice: office,
		Urgency:        domain.UrgencyMedium,
		History:        []domain.HistoryEntry{{ID: id + "-1", Kind: domain.HistoryIntake}},
	}
}

func TestMemoryCaseRepositoryVersioning(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryCaseRepository()
	c := sampleCase("VIO-1", domain.CaseStatusPending, "", time.Now())

	require.NoError(t, repo.Create(ctx, c))
	assert.Equal(t, int64(1), c.Version)
	assert.ErrorIs(t, repo.Create(ctx, c), ErrCaseExists)

	loaded, err := repo.GetByID(ctx, "VIO-1")
	require.NoError(t, err)
	loaded.Status = domain.CaseStatusAssigned
	loaded.AssignedOffice = "Comisaria de Familia"
	require.NoError(t, repo.Save(ctx, loaded, 1))
	assert.Equal(t, int64(2), loaded.Version)

	stale := c.Clone()
	stale.Status = domain.CaseStatusInProgress
	assert.ErrorIs(t, repo.Save(ctx, stale, 1), ErrVersionConflict)

	current, err := repo.GetByID(ctx, "VIO-1")
	require.NoError(t, err)
	assert.Equal(t, domain.CaseStatusAssigned, current.Status)

	_, err = repo.GetByID(ctx, "VIO-404")
	assert.ErrorIs(t, err, ErrCaseNotFound)
	assert.ErrorIs(t, repo.Save(ctx, sampleCase("VIO-404", domain.CaseStatusPending, "", time.Now()), 1), ErrCaseNotFound)
}

func TestMemoryCaseRepositoryReturnsCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryCaseRepository()
	require.NoError(t, repo.Create(ctx, sampleCase("VIO-1", domain.CaseStatusPending, "", time.Now())))

	loaded, err := repo.GetByID(ctx, "VIO-1")
	require.NoError(t, err)
	loaded.History[0].Description = "mutated"
	loaded.History = append(loaded.History, domain.HistoryEntry{ID: "extra"})

	again, err := repo.GetByID(ctx, "VIO-1")
	require.NoError(t, err)
	assert.Len(t, again.History, 1)
	assert.Empty(t, again.History[0].Description)
}

func TestMemoryCaseRepositoryList(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryCaseRepository()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Create(ctx, sampleCase("VIO-1", domain.CaseStatusPending, "", base)))
	require.NoError(t, repo.Create(ctx, sampleCase("VIO-2", domain.CaseStatusAssigned, "Comisaria", base.Add(time.Hour))))
	require.NoError(t, repo.Create(ctx, sampleCase("VIO-3", domain.CaseStatusInProgress, "Comisaria", base.Add(2*time.Hour))))
	require.NoError(t, repo.Create(ctx, sampleCase("VIO-4", domain.CaseStatusAssigned, "Hospital", base.Add(3*time.Hour))))

	all, err := repo.List(ctx, CaseFilter{})
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, "VIO-4", all[0].ID)

	office, err := repo.List(ctx, CaseFilter{Office: "Comisaria"})
	require.NoError(t, err)
	assert.Len(t, office, 2)

	assigned, err := repo.List(ctx, CaseFilter{Statuses: []domain.CaseStatus{domain.CaseStatusAssigned}})
	require.NoError(t, err)
	assert.Len(t, assigned, 2)

	page, err := repo.List(ctx, CaseFilter{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "VIO-3", page[0].ID)

	empty, err := repo.List(ctx, CaseFilter{Offset: 10})
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestMemoryNoteRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryNoteRepository()
	now := time.Now()
	require.NoError(t, repo.Create(ctx, &domain.ManagementNote{ID: "n1", OfficeLabel: "Comisaria", Content: "a", CreatedAt: now}))
	require.NoError(t, repo.Create(ctx, &domain.ManagementNote{ID: "n2", OfficeLabel: "Hospital", Content: "b", CreatedAt: now.Add(time.Minute)}))

	all, err := repo.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "n2", all[0].ID)

	mine, err := repo.List(ctx, "Comisaria")
	require.NoError(t, err)
	require.Len(t, mine, 1)

	require.NoError(t, repo.Delete(ctx, "n1"))
	assert.ErrorIs(t, repo.Delete(ctx, "n1"), ErrNoteNotFound)
	_, err = repo.GetByID(ctx, "n1")
	assert.ErrorIs(t, err, ErrNoteNotFound)
}
