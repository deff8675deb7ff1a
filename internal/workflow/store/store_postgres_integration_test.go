//go:build integration

package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"certflow/internal/workflow/models"
	id "certflow/pkg/domain"
	"certflow/pkg/platform/sentinel"
	"certflow/pkg/testutil"
)

func TestPostgresStoreRoundTrip(t *testing.T) {
	db := testutil.StartPostgres(t)
	s := NewPostgresStore(db)
	ctx := context.Background()

	app := models.NewApplication(
		id.NewApplicationID(), "GACP-2026-000010", id.NewFarmerID(),
		"cannabis", "Chiang Mai", time.Now().UTC().Truncate(time.Microsecond),
	)
	require.NoError(t, s.Create(ctx, app))

	found, err := s.FindByID(ctx, app.ID)
	require.NoError(t, err)
	assert.Equal(t, app.Number, found.Number)
	assert.Equal(t, models.StatusDraft, found.Status)
	assert.EqualValues(t, 0, found.Revision)

	auditorID := id.NewAuditorID()
	verifiedAt := time.Now().UTC().Truncate(time.Microsecond)
	found.Status = models.StatusSubmitted
	found.Phase1 = models.PaymentPhase{Status: models.PaymentVerified, OrderID: "ORD-1", VerifiedAt: &verifiedAt}
	found.AssignedAuditorID = &auditorID
	require.NoError(t, s.Update(ctx, found))

	again, err := s.FindByID(ctx, app.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusSubmitted, again.Status)
	assert.EqualValues(t, 1, again.Revision)
	assert.Equal(t, "ORD-1", again.Phase1.OrderID)
	require.NotNil(t, again.AssignedAuditorID)
	assert.Equal(t, auditorID, *again.AssignedAuditorID)
}

func TestPostgresStoreStaleWriteConflicts(t *testing.T) {
	db := testutil.StartPostgres(t)
	s := NewPostgresStore(db)
	ctx := context.Background()

	app := models.NewApplication(
		id.NewApplicationID(), "GACP-2026-000011", id.NewFarmerID(),
		"turmeric", "Phuket", time.Now().UTC(),
	)
	require.NoError(t, s.Create(ctx, app))

	first, err := s.FindByID(ctx, app.ID)
	require.NoError(t, err)
	second, err := s.FindByID(ctx, app.ID)
	require.NoError(t, err)

	first.Status = models.StatusSubmitted
	require.NoError(t, s.Update(ctx, first))

	second.Status = models.StatusDeleted
	assert.ErrorIs(t, s.Update(ctx, second), sentinel.ErrConflict)

	current, err := s.FindByID(ctx, app.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusSubmitted, current.Status)
}

func TestPostgresMaxNumberForYear(t *testing.T) {
	db := testutil.StartPostgres(t)
	s := NewPostgresStore(db)
	ctx := context.Background()

	for _, number := range []string{"GACP-2026-000003", "GACP-2026-000017", "GACP-2025-000050"} {
		app := models.NewApplication(
			id.NewApplicationID(), number, id.NewFarmerID(),
			"cannabis", "Chiang Mai", time.Now().UTC(),
		)
		require.NoError(t, s.Create(ctx, app))
	}

	max, err := s.MaxNumberForYear(ctx, 2026)
	require.NoError(t, err)
	assert.Equal(t, "GACP-2026-000017", max)

	none, err := s.MaxNumberForYear(ctx, 2027)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestPostgresApplicationsCannotBeDeleted(t *testing.T) {
	db := testutil.StartPostgres(t)
	s := NewPostgresStore(db)
	ctx := context.Background()

	app := models.NewApplication(
		id.NewApplicationID(), "GACP-2026-000012", id.NewFarmerID(),
		"cannabis", "Phuket", time.Now().UTC(),
	)
	require.NoError(t, s.Create(ctx, app))

	_, err := db.ExecContext(ctx, "DELETE FROM applications WHERE id = $1", app.ID.String())
	assert.Error(t, err)
}
