package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/case-workflow/internal/domain"
)

var (
	ErrCaseNotFound    = errors.New("case not found")
	ErrCaseExists      = errors.New("case already exists")
	ErrVersionConflict = errors.New("case version changed")
)

// CaseFilter narrows case listings.
type CaseFilter struct {
	Statuses []domain.CaseStatus
	Office   string
	Urgency  domain.Urgency
	Limit    int
	Offset   int
}

// CaseRepository is the case store. Save replaces the whole record, history included, in one write.
type CaseRepository interface {
	Create(ctx context.Context, c *domain.Case) error
	GetByID(ctx context.Context, id string) (*domain.Case, error)
	// Save writes c only if the stored version still equals expectedVersion.
	Save(ctx context.Context, c *domain.Case, expectedVersion int64) error
	List(ctx context.Context, filter CaseFilter) ([]domain.Case, error)
}

type caseRepository struct {
	pool *pgxpool.Pool
}

// NewCaseRepository instantiates the postgres case store.
func NewCaseRepository(pool *pgxpool.Pool) CaseRepository {
	return &caseRepository{pool: pool}
}

const caseColumns = `id, reported_at, municipality, professional, reporter, victim, right_involved,
               violence_type, short_description, actions_taken, observations, urgency, status,
               assigned_office, report_1, report_2, documents, history, version, created_at, updated_at`

type caseJSON struct {
	reporter  []byte
	victim    []byte
	documents []byte
	history   []byte
}

func encodeCase(c *domain.Case) (caseJSON, error) {
	var out caseJSON
	var err error
	if out.reporter, err = json.Marshal(c.Reporter); err != nil {
		return out, fmt.Errorf("encode reporter: %w", err)
	}
	if out.victim, err = json.Marshal(c.Victim); err != nil {
		return out, fmt.Errorf("encode victim: %w", err)
	}
	if out.documents, err = json.Marshal(c.Documents); err != nil {
		return out, fmt.Errorf("encode documents: %w", err)
	}
	history := c.History
	if history == nil {
		history = []domain.HistoryEntry{}
	}
	if out.history, err = json.Marshal(history); err != nil {
		return out, fmt.Errorf("encode history: %w", err)
	}
	return out, nil
}

func (r *caseRepository) Create(ctx context.Context, c *domain.Case) error {
	encoded, err := encodeCase(c)
	if err != nil {
		return err
	}
	const query = `
        INSERT INTO cases (id, reported_at, municipality, professional, reporter, victim, right_involved,
            violence_type, short_description, actions_taken, observations, urgency, status,
            assigned_office, report_1, report_2, documents, history, version, created_at, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,1,$19,$20)
        ON CONFLICT (id) DO NOTHING`
	cmd, err := r.pool.Exec(ctx, query,
		c.ID,
		c.ReportedAt,
		c.Municipality,
		c.Professional,
		encoded.reporter,
		encoded.victim,
		c.RightInvolved,
		c.ViolenceType,
		c.ShortDescription,
		c.ActionsTaken,
		c.Observations,
		c.Urgency,
		c.Status,
		c.AssignedOffice,
		c.ReportSlots[0],
		c.ReportSlots[1],
		encoded.documents,
		encoded.history,
		c.CreatedAt,
		c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert case: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrCaseExists
	}
	c.Version = 1
	return nil
}

func (r *caseRepository) GetByID(ctx context.Context, id string) (*domain.Case, error) {
	query := `SELECT ` + caseColumns + ` FROM cases WHERE id=$1`
	c, err := scanCase(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrCaseNotFound
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (r *caseRepository) Save(ctx context.Context, c *domain.Case, expectedVersion int64) error {
	encoded, err := encodeCase(c)
	if err != nil {
		return err
	}
	const query = `
        UPDATE cases SET urgency=$1, status=$2, assigned_office=$3, report_1=$4, report_2=$5,
            documents=$6, history=$7, updated_at=$8, version=version+1
        WHERE id=$9 AND version=$10`
	cmd, err := r.pool.Exec(ctx, query,
		c.Urgency,
		c.Status,
		c.AssignedOffice,
		c.ReportSlots[0],
		c.ReportSlots[1],
		encoded.documents,
		encoded.history,
		c.UpdatedAt,
		c.ID,
		expectedVersion,
	)
	if err != nil {
		return fmt.Errorf("update case: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		var exists bool
		if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM cases WHERE id=$1)`, c.ID).Scan(&exists); err != nil {
			return fmt.Errorf("check case: %w", err)
		}
		if !exists {
			return ErrCaseNotFound
		}
		return ErrVersionConflict
	}
	c.Version = expectedVersion + 1
	return nil
}

func (r *caseRepository) List(ctx context.Context, filter CaseFilter) ([]domain.Case, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if len(filter.Statuses) > 0 {
		statuses := make([]string, 0, len(filter.Statuses))
		for _, s := range filter.Statuses {
			statuses = append(statuses, string(s))
		}
		args = append(args, statuses)
		clauses = append(clauses, fmt.Sprintf("status = ANY($%d)", len(args)))
	}
	if filter.Office != "" {
		args = append(args, filter.Office)
		clauses = append(clauses, fmt.Sprintf("assigned_office=$%d", len(args)))
	}
	if filter.Urgency != "" {
		args = append(args, filter.Urgency)
		clauses = append(clauses, fmt.Sprintf("urgency=$%d", len(args)))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`SELECT %s FROM cases WHERE %s ORDER BY reported_at DESC, id LIMIT %d OFFSET %d`,
		caseColumns, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Case
	for rows.Next() {
		c, err := scanCase(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *c)
	}
	return result, rows.Err()
}

func scanCase(row pgx.Row) (*domain.Case, error) {
	var (
		c       domain.Case
		encoded caseJSON
	)
	if err := row.Scan(
		&c.ID,
		&c.ReportedAt,
		&c.Municipality,
		&c.Professional,
		&encoded.reporter,
		&encoded.victim,
		&c.RightInvolved,
		&c.ViolenceType,
		&c.ShortDescription,
		&c.ActionsTaken,
		&c.Observations,
		&c.Urgency,
		&c.Status,
		&c.AssignedOffice,
		&c.ReportSlots[0],
		&c.ReportSlots[1],
		&encoded.documents,
		&encoded.history,
		&c.Version,
		&c.CreatedAt,
		&c.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(encoded.reporter, &c.Reporter); err != nil {
		return nil, fmt.Errorf("decode reporter: %w", err)
	}
	if err := json.Unmarshal(encoded.victim, &c.Victim); err != nil {
		return nil, fmt.Errorf("decode victim: %w", err)
	}
	if err := json.Unmarshal(encoded.documents, &c.Documents); err != nil {
		return nil, fmt.Errorf("decode documents: %w", err)
	}
	if err := json.Unmarshal(encoded.history, &c.History); err != nil {
		return nil, fmt.Errorf("decode history: %w", err)
	}
	return &c, nil
}
