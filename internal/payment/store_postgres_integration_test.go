//go:build integration

package payment

import (
	"context"
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

func TestPostgresLedgerDuplicateOrderID(t *testing.T) {
	db := testutil.StartPostgres(t)
	ctx := context.Background()

	apps := workflowstore.NewPostgresStore(db)
	app := models.NewApplication(
		id.NewApplicationID(), "GACP-2026-000030", id.NewFarmerID(),
		"cannabis", "Chiang Mai", time.Now().UTC(),
	)
	require.NoError(t, apps.Create(ctx, app))

	s := NewPostgresStore(db)
	record := Record{
		OrderID:       "ORD-INT-1",
		ApplicationID: app.ID,
		Phase:         1,
		Status:        StatusConfirmed,
		ConfirmedAt:   time.Now().UTC(),
	}
	require.NoError(t, s.Insert(ctx, record))
	assert.ErrorIs(t, s.Insert(ctx, record), sentinel.ErrAlreadyUsed)

	found, err := s.FindByOrderID(ctx, "ORD-INT-1")
	require.NoError(t, err)
	assert.Equal(t, app.ID, found.ApplicationID)
	assert.Equal(t, 1, found.Phase)
}
