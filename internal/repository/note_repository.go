package repository

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/case-workflow/internal/domain"
)

var ErrNoteNotFound = errors.New("note not found")

// NoteRepository persists management notes.
type NoteRepository interface {
	Create(ctx context.Context, note *domain.ManagementNote) error
	GetByID(ctx context.Context, id string) (*domain.ManagementNote, error)
	// List returns notes newest first; an empty office returns every office's notes.
	List(ctx context.Context, office string) ([]domain.ManagementNote, error)
	Delete(ctx context.Context, id string) error
}

type noteRepository struct {
	pool *pgxpool.Pool
}

// NewNoteRepository constructs the postgres note store.
func NewNoteRepository(pool *pgxpool.Pool) NoteRepository {
	return &noteRepository{pool: pool}
}

func (r *noteRepository) Create(ctx context.Context, note *domain.ManagementNote) error {
	const query = `
        INSERT INTO management_notes (id, office_label, content, created_at)
        VALUES ($1,$2,$3,$4)`
	_, err := r.pool.Exec(ctx, query, note.ID, note.OfficeLabel, note.Content, note.CreatedAt)
	return err
}

func (r *noteRepository) GetByID(ctx context.Context, id string) (*domain.ManagementNote, error) {
	const query = `
        SELECT id, office_label, content, created_at
        FROM management_notes WHERE id=$1`
	var note domain.ManagementNote
	if err := r.pool.QueryRow(ctx, query, id).Scan(&note.ID, &note.OfficeLabel, &note.Content, &note.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNoteNotFound
		}
		return nil, err
	}
	return &note, nil
}

func (r *noteRepository) List(ctx context.Context, office string) ([]domain.ManagementNote, error) {
	const query = `
        SELECT id, office_label, content, created_at
        FROM management_notes WHERE ($1 = '' OR office_label = $1)
        ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, query, office)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.ManagementNote
	for rows.Next() {
		var note domain.ManagementNote
		if err := rows.Scan(&note.ID, &note.OfficeLabel, &note.Content, &note.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, note)
	}
	return result, rows.Err()
}

func (r *noteRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM management_notes WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNoteNotFound
	}
	return nil
}

// MemoryNoteRepository is the in-process note store.
type MemoryNoteRepository struct {
	mu    sync.RWMutex
	notes map[string]domain.ManagementNote
}

func NewMemoryNoteRepository() *MemoryNoteRepository {
	return &MemoryNoteRepository{notes: make(map[string]domain.ManagementNote)}
}

func (r *MemoryNoteRepository) Create(_ context.Context, note *domain.ManagementNote) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notes[note.ID] = *note
	return nil
}

func (r *MemoryNoteRepository) GetByID(_ context.Context, id string) (*domain.ManagementNote, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	note, ok := r.notes[id]
	if !ok {
		return nil, ErrNoteNotFound
	}
	return &note, nil
}

func (r *MemoryNoteRepository) List(_ context.Context, office string) ([]domain.ManagementNote, error) {
	r.mu.RLock()
	result := make([]domain.ManagementNote, 0, len(r.notes))
	for _, note := range r.notes {
		if office == "" || note.OfficeLabel == office {
			result = append(result, note)
		}
	}
	r.mu.RUnlock()
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	return result, nil
}

func (r *MemoryNoteRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.notes[id]; !ok {
		return ErrNoteNotFound
	}
	delete(r.notes, id)
	return nil
}
