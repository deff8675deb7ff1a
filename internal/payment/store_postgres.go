package payment

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	id "certflow/pkg/domain"
	"certflow/pkg/platform/sentinel"
	txcontext "certflow/pkg/platform/tx"
)

// PostgresStore persists ledger rows. The primary key on order_id makes a
// duplicate insert deterministic: ON CONFLICT DO NOTHING affects zero rows,
// which is exactly the at-most-once signal the ledger contract requires, and
// it leaves a surrounding transaction healthy.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) execer(ctx context.Context) interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
} {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *PostgresStore) Insert(ctx context.Context, record Record) error {
	query := `
		INSERT INTO payment_records (order_id, application_id, phase, status, confirmed_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (order_id) DO NOTHING
	`
	result, err := s.execer(ctx).ExecContext(ctx, query,
		record.OrderID,
		uuid.UUID(record.ApplicationID),
		record.Phase,
		string(record.Status),
		record.ConfirmedAt,
	)
	if err != nil {
		return fmt.Errorf("insert payment record: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert payment record: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrAlreadyUsed
	}
	return nil
}

func (s *PostgresStore) FindByOrderID(ctx context.Context, orderID string) (*Record, error) {
	query := `
		SELECT order_id, application_id, phase, status, confirmed_at
		FROM payment_records
		WHERE order_id = $1
	`
	var (
		record  Record
		appUUID uuid.UUID
		status  string
	)
	err := s.execer(ctx).QueryRowContext(ctx, query, orderID).
		Scan(&record.OrderID, &appUUID, &record.Phase, &status, &record.ConfirmedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find payment record: %w", err)
	}
	record.ApplicationID = id.ApplicationID(appUUID)
	record.Status = RecordStatus(status)
	return &record, nil
}
