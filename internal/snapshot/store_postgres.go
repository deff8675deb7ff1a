package snapshot

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	id "certflow/pkg/domain"
	"certflow/pkg/platform/sentinel"
	txcontext "certflow/pkg/platform/tx"
)

// uniqueViolation is the PostgreSQL error code for unique-constraint failures.
const uniqueViolation = "23505"

// PostgresStore persists snapshots in the snapshots table. The unique index on
// (application_id, version) plus BEFORE UPDATE/DELETE triggers (see migrations)
// enforce immutability at the storage layer, not just here.
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

func (s *PostgresStore) Insert(ctx context.Context, snap Snapshot) error {
	query := `
		INSERT INTO snapshots (application_id, version, schema_version, data, checksum, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		uuid.UUID(snap.ApplicationID),
		snap.Version,
		snap.SchemaVersion,
		[]byte(snap.Data),
		snap.Checksum,
		snap.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return sentinel.ErrImmutable
		}
		return fmt.Errorf("insert snapshot: %w", err)
	}
	return nil
}

func (s *PostgresStore) MaxVersion(ctx context.Context, appID id.ApplicationID) (int, error) {
	var version int
	query := `SELECT COALESCE(MAX(version), 0) FROM snapshots WHERE application_id = $1`
	if err := s.execer(ctx).QueryRowContext(ctx, query, uuid.UUID(appID)).Scan(&version); err != nil {
		return 0, fmt.Errorf("max snapshot version: %w", err)
	}
	return version, nil
}

func (s *PostgresStore) Find(ctx context.Context, appID id.ApplicationID, version int) (*Snapshot, error) {
	query := `
		SELECT application_id, version, schema_version, data, checksum, created_at
		FROM snapshots
		WHERE application_id = $1 AND version = $2
	`
	var (
		snap    Snapshot
		appUUID uuid.UUID
		data    []byte
	)
	err := s.execer(ctx).QueryRowContext(ctx, query, uuid.UUID(appID), version).
		Scan(&appUUID, &snap.Version, &snap.SchemaVersion, &data, &snap.Checksum, &snap.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find snapshot: %w", err)
	}
	snap.ApplicationID = id.ApplicationID(appUUID)
	snap.Data = data
	return &snap, nil
}
