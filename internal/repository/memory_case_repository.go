package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/spec-kit/case-workflow/internal/domain"
)

// MemoryCaseRepository keeps cases in process memory. It backs tests and runs without POSTGRES_DSN.
type MemoryCaseRepository struct {
	mu    sync.RWMutex
	cases map[string]*domain.Case
}

// NewMemoryCaseRepository returns an empty store.
func NewMemoryCaseRepository() *MemoryCaseRepository {
	return &MemoryCaseRepository{cases: make(map[string]*domain.Case)}
}

func (r *MemoryCaseRepository) Create(_ context.Context, c *domain.Case) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.cases[c.ID]; ok {
		return ErrCaseExists
	}
	c.Version = 1
	r.cases[c.ID] = c.Clone()
	return nil
}

func (r *MemoryCaseRepository) GetByID(_ context.Context, id string) (*domain.Case, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.cases[id]
	if !ok {
		return nil, ErrCaseNotFound
	}
	return c.Clone(), nil
}

func (r *MemoryCaseRepository) Save(_ context.Context, c *domain.Case, expectedVersion int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.cases[c.ID]
	if !ok {
		return ErrCaseNotFound
	}
	if stored.Version != expectedVersion {
		return ErrVersionConflict
	}
	c.Version = expectedVersion + 1
	r.cases[c.ID] = c.Clone()
	return nil
}

func (r *MemoryCaseRepository) List(_ context.Context, filter CaseFilter) ([]domain.Case, error) {
	r.mu.RLock()
	matched := make([]domain.Case, 0, len(r.cases))
	for _, c := range r.cases {
		if !matchesFilter(c, filter) {
			continue
		}
		matched = append(matched, *c.Clone())
	}
	r.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].ReportedAt.Equal(matched[j].ReportedAt) {
			return matched[i].ID < matched[j].ID
		}
		return matched[i].ReportedAt.After(matched[j].ReportedAt)
	})

	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	if offset >= len(matched) {
		return []domain.Case{}, nil
	}
	matched = matched[offset:]
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	if limit < len(matched) {
		matched = matched[:limit]
	}
	return matched, nil
}

func matchesFilter(c *domain.Case, filter CaseFilter) bool {
	if filter.Office != "" && c.AssignedOffice != filter.Office {
		return false
	}
	if filter.Urgency != "" && c.Urgency != filter.Urgency {
		return false
	}
	if len(filter.Statuses) == 0 {
		return true
	}
	for _, s := range filter.Statuses {
		if c.Status == s {
			return true
		}
	}
	return false
}
