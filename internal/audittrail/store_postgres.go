package audittrail

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"certflow/internal/workflow/models"
	id "certflow/pkg/domain"
	"certflow/pkg/platform/sentinel"
	txcontext "certflow/pkg/platform/tx"
)

// PostgresStore persists the trail in the audit_trail table. The table carries
// BEFORE UPDATE/DELETE triggers (see migrations) so even a compromised caller
// holding raw SQL access cannot rewrite history through this role.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *PostgresStore) Append(ctx context.Context, entry Entry) error {
	metadata, err := json.Marshal(entry.Metadata)
	if err != nil {
		return fmt.Errorf("marshal audit metadata: %w", err)
	}
	query := `
		INSERT INTO audit_trail (id, application_id, actor_id, actor_role, action, from_status, to_status, occurred_at, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err = s.execer(ctx).ExecContext(ctx, query,
		entry.ID,
		uuid.UUID(entry.ApplicationID),
		entry.ActorID,
		string(entry.ActorRole),
		entry.Action,
		string(entry.FromStatus),
		string(entry.ToStatus),
		entry.Timestamp,
		metadata,
	)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByApplication(ctx context.Context, appID id.ApplicationID) ([]Entry, error) {
	query := `
		SELECT id, application_id, actor_id, actor_role, action, from_status, to_status, occurred_at, metadata
		FROM audit_trail
		WHERE application_id = $1
		ORDER BY occurred_at ASC
	`
	rows, err := s.execer(ctx).QueryContext(ctx, query, uuid.UUID(appID))
	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			entry    Entry
			appUUID  uuid.UUID
			role     string
			from, to string
			metadata []byte
		)
		if err := rows.Scan(&entry.ID, &appUUID, &entry.ActorID, &role, &entry.Action, &from, &to, &entry.Timestamp, &metadata); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		entry.ApplicationID = id.ApplicationID(appUUID)
		entry.ActorRole = models.Role(role)
		entry.FromStatus = models.Status(from)
		entry.ToStatus = models.Status(to)
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &entry.Metadata); err != nil {
				return nil, fmt.Errorf("unmarshal audit metadata: %w", err)
			}
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// Update always fails: the trail is append-only. The database trigger enforces
// the same rule for callers that bypass this store.
func (s *PostgresStore) Update(context.Context, uuid.UUID, Entry) error {
	return sentinel.ErrImmutable
}

// Delete always fails: the trail is append-only.
func (s *PostgresStore) Delete(context.Context, uuid.UUID) error {
	return sentinel.ErrImmutable
}
