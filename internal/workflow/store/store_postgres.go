package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"certflow/internal/workflow/models"
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
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
} {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

const applicationColumns = `
	id, number, farmer_id, plant_type, farm_province, status,
	snapshot_version, revision_count, revision,
	phase1_status, phase1_order_id, phase1_verified_at,
	phase2_status, phase2_order_id, phase2_verified_at,
	assigned_auditor_id, created_at, updated_at
`

func (s *PostgresStore) Create(ctx context.Context, app *models.Application) error {
	query := `
		INSERT INTO applications (` + applicationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 0, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`
	app.Revision = 0
	var auditorID any
	if app.AssignedAuditorID != nil {
		auditorID = uuid.UUID(*app.AssignedAuditorID)
	}
	_, err := s.execer(ctx).ExecContext(ctx, query,
		uuid.UUID(app.ID),
		app.Number,
		uuid.UUID(app.FarmerID),
		app.PlantType,
		app.FarmProvince,
		string(app.Status),
		app.SnapshotVersion,
		app.RevisionCount,
		string(app.Phase1.Status), nullIfEmpty(app.Phase1.OrderID), app.Phase1.VerifiedAt,
		string(app.Phase2.Status), nullIfEmpty(app.Phase2.OrderID), app.Phase2.VerifiedAt,
		auditorID,
		app.CreatedAt,
		app.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert application: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, appID id.ApplicationID) (*models.Application, error) {
	query := `SELECT ` + applicationColumns + ` FROM applications WHERE id = $1`
	app, err := scanApplication(s.execer(ctx).QueryRowContext(ctx, query, uuid.UUID(appID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find application: %w", err)
	}
	return app, nil
}

func (s *PostgresStore) ListByFarmer(ctx context.Context, farmerID id.FarmerID) ([]*models.Application, error) {
	query := `SELECT ` + applicationColumns + ` FROM applications WHERE farmer_id = $1 ORDER BY created_at DESC`
	return s.list(ctx, query, uuid.UUID(farmerID))
}

// Update is the optimistic write: the WHERE clause only matches when nobody
// else committed since this state was read. Zero rows affected means a stale
// read, reported as a conflict rather than a silent overwrite.
func (s *PostgresStore) Update(ctx context.Context, app *models.Application) error {
	query := `
		UPDATE applications SET
			status = $1,
			snapshot_version = $2,
			revision_count = $3,
			revision = revision + 1,
			phase1_status = $4, phase1_order_id = $5, phase1_verified_at = $6,
			phase2_status = $7, phase2_order_id = $8, phase2_verified_at = $9,
			assigned_auditor_id = $10,
			plant_type = $11,
			farm_province = $12,
			updated_at = $13
		WHERE id = $14 AND revision = $15
	`
	var auditorID any
	if app.AssignedAuditorID != nil {
		auditorID = uuid.UUID(*app.AssignedAuditorID)
	}
	result, err := s.execer(ctx).ExecContext(ctx, query,
		string(app.Status),
		app.SnapshotVersion,
		app.RevisionCount,
		string(app.Phase1.Status), nullIfEmpty(app.Phase1.OrderID), app.Phase1.VerifiedAt,
		string(app.Phase2.Status), nullIfEmpty(app.Phase2.OrderID), app.Phase2.VerifiedAt,
		auditorID,
		app.PlantType,
		app.FarmProvince,
		app.UpdatedAt,
		uuid.UUID(app.ID),
		app.Revision,
	)
	if err != nil {
		return fmt.Errorf("update application: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update application: %w", err)
	}
	if affected == 0 {
		if _, findErr := s.FindByID(ctx, app.ID); errors.Is(findErr, sentinel.ErrNotFound) {
			return sentinel.ErrNotFound
		}
		return sentinel.ErrConflict
	}
	app.Revision++
	return nil
}

func (s *PostgresStore) MaxNumberForYear(ctx context.Context, year int) (string, error) {
	query := `SELECT COALESCE(MAX(number), '') FROM applications WHERE number LIKE $1`
	var max string
	prefix := fmt.Sprintf("GACP-%04d-%%", year)
	if err := s.execer(ctx).QueryRowContext(ctx, query, prefix).Scan(&max); err != nil {
		return "", fmt.Errorf("max application number: %w", err)
	}
	return max, nil
}

func (s *PostgresStore) ListByStatusOlderThan(ctx context.Context, status models.Status, cutoff time.Time) ([]*models.Application, error) {
	query := `SELECT ` + applicationColumns + ` FROM applications WHERE status = $1 AND updated_at < $2`
	return s.list(ctx, query, string(status), cutoff)
}

func (s *PostgresStore) list(ctx context.Context, query string, args ...any) ([]*models.Application, error) {
	rows, err := s.execer(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	defer rows.Close()

	var apps []*models.Application
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, fmt.Errorf("scan application: %w", err)
		}
		apps = append(apps, app)
	}
	return apps, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanApplication(row rowScanner) (*models.Application, error) {
	var (
		app         models.Application
		appUUID     uuid.UUID
		farmerUUID  uuid.UUID
		status      string
		p1Status    string
		p1OrderID   sql.NullString
		p2Status    string
		p2OrderID   sql.NullString
		auditorUUID uuid.NullUUID
	)
	err := row.Scan(
		&appUUID, &app.Number, &farmerUUID, &app.PlantType, &app.FarmProvince, &status,
		&app.SnapshotVersion, &app.RevisionCount, &app.Revision,
		&p1Status, &p1OrderID, &app.Phase1.VerifiedAt,
		&p2Status, &p2OrderID, &app.Phase2.VerifiedAt,
		&auditorUUID, &app.CreatedAt, &app.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	app.ID = id.ApplicationID(appUUID)
	app.FarmerID = id.FarmerID(farmerUUID)
	app.Status = models.Status(status)
	app.Phase1.Status = models.PaymentStatus(p1Status)
	app.Phase1.OrderID = p1OrderID.String
	app.Phase2.Status = models.PaymentStatus(p2Status)
	app.Phase2.OrderID = p2OrderID.String
	if auditorUUID.Valid {
		aid := id.AuditorID(auditorUUID.UUID)
		app.AssignedAuditorID = &aid
	}
	return &app, nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
