package dispatch

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	id "certflow/pkg/domain"
	"certflow/pkg/platform/sentinel"
	txcontext "certflow/pkg/platform/tx"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) execer(ctx context.Context) interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
} {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *PostgresStore) ListActiveAuditors(ctx context.Context) ([]Auditor, error) {
	query := `
		SELECT id, name, provinces, active
		FROM auditors
		WHERE active = TRUE
		ORDER BY name
	`
	rows, err := s.execer(ctx).QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list auditors: %w", err)
	}
	defer rows.Close()

	var auditors []Auditor
	for rows.Next() {
		var (
			a        Auditor
			auditorU uuid.UUID
		)
		if err := rows.Scan(&auditorU, &a.Name, pq.Array(&a.Provinces), &a.Active); err != nil {
			return nil, fmt.Errorf("scan auditor: %w", err)
		}
		a.ID = id.AuditorID(auditorU)
		auditors = append(auditors, a)
	}
	return auditors, rows.Err()
}

func (s *PostgresStore) ActiveAssignmentCounts(ctx context.Context) (map[id.AuditorID]int, error) {
	query := `
		SELECT auditor_id, COUNT(*)
		FROM auditor_assignments
		WHERE active = TRUE
		GROUP BY auditor_id
	`
	rows, err := s.execer(ctx).QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("count assignments: %w", err)
	}
	defer rows.Close()

	counts := make(map[id.AuditorID]int)
	for rows.Next() {
		var (
			auditorU uuid.UUID
			n        int
		)
		if err := rows.Scan(&auditorU, &n); err != nil {
			return nil, fmt.Errorf("scan assignment count: %w", err)
		}
		counts[id.AuditorID(auditorU)] = n
	}
	return counts, rows.Err()
}

func (s *PostgresStore) InsertAssignment(ctx context.Context, assignment Assignment) error {
	query := `
		INSERT INTO auditor_assignments (application_id, auditor_id, province, active, assigned_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		uuid.UUID(assignment.ApplicationID),
		uuid.UUID(assignment.AuditorID),
		assignment.Province,
		assignment.Active,
		assignment.AssignedAt,
	)
	if err != nil {
		return fmt.Errorf("insert assignment: %w", err)
	}
	return nil
}

func (s *PostgresStore) CompleteAssignment(ctx context.Context, appID id.ApplicationID) error {
	query := `
		UPDATE auditor_assignments
		SET active = FALSE
		WHERE application_id = $1 AND active = TRUE
	`
	result, err := s.execer(ctx).ExecContext(ctx, query, uuid.UUID(appID))
	if err != nil {
		return fmt.Errorf("complete assignment: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("complete assignment: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}
