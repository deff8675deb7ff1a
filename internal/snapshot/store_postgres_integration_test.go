//go:build integration

package snapshot

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"certflow/internal/workflow/models"
	workflowstore "certflow/internal/workflow/store"
	id "certflow/pkg/domain"
	"certflow/pkg/platform/sentinel"
	"certflow/pkg/testutil"
)

func TestPostgresSnapshotsAreImmutable(t *testing.T) {
	db := testutil.StartPostgres(t)
	ctx := context.Background()

	apps := workflowstore.NewPostgresStore(db)
	app := models.NewApplication(
		id.NewApplicationID(), "GACP-2026-000020", id.NewFarmerID(),
		"cannabis", "Chiang Mai", time.Now().UTC(),
	)
	require.NoError(t, apps.Create(ctx, app))

	s := NewPostgresStore(db)
	svc := NewService(s)

	snap, err := svc.Create(ctx, app.ID, json.RawMessage(`{"farm_area_rai":10}`))
	require.NoError(t, err)
	require.Equal(t, 1, snap.Version)

	// The database triggers reject rewrites even when the code layer is
	// bypassed entirely.
	_, err = db.ExecContext(ctx, "UPDATE snapshots SET data = '{}' WHERE application_id = $1", app.ID.String())
	assert.Error(t, err)
	_, err = db.ExecContext(ctx, "DELETE FROM snapshots WHERE application_id = $1", app.ID.String())
	assert.Error(t, err)

	ok, err := svc.Verify(ctx, app.ID, 1)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestPostgresSnapshotDuplicateVersionRejected(t *testing.T) {
	db := testutil.StartPostgres(t)
	ctx := context.Background()

	apps := workflowstore.NewPostgresStore(db)
	app := models.NewApplication(
		id.NewApplicationID(), "GACP-2026-000021", id.NewFarmerID(),
		"cannabis", "Phuket", time.Now().UTC(),
	)
	require.NoError(t, apps.Create(ctx, app))

	s := NewPostgresStore(db)
	snap := Snapshot{
		ApplicationID: app.ID,
		Version:       1,
		SchemaVersion: SchemaVersion,
		Data:          json.RawMessage(`{}`),
		Checksum:      "0",
		CreatedAt:     time.Now().UTC(),
	}
	require.NoError(t, s.Insert(ctx, snap))
	assert.ErrorIs(t, s.Insert(ctx, snap), sentinel.ErrImmutable)
}
