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
)

func newDraft(t *testing.T) *models.Application {
	t.Helper()
	return models.NewApplication(
		id.NewApplicationID(), "GACP-2026-000001", id.NewFarmerID(),
		"cannabis", "Chiang Mai", time.Now(),
	)
}

func TestCreateAndFind(t *testing.T) {
	s := NewInMemoryStore()
	app := newDraft(t)

	require.NoError(t, s.Create(context.Background(), app))

	found, err := s.FindByID(context.Background(), app.ID)
	require.NoError(t, err)
	assert.Equal(t, app.ID, found.ID)
	assert.Equal(t, models.StatusDraft, found.Status)
	assert.EqualValues(t, 0, found.Revision)
}

func TestFindUnknown(t *testing.T) {
	s := NewInMemoryStore()
	_, err := s.FindByID(context.Background(), id.NewApplicationID())
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestUpdateBumpsRevision(t *testing.T) {
	s := NewInMemoryStore()
	app := newDraft(t)
	require.NoError(t, s.Create(context.Background(), app))

	app.Status = models.StatusSubmitted
	require.NoError(t, s.Update(context.Background(), app))
	assert.EqualValues(t, 1, app.Revision)

	found, err := s.FindByID(context.Background(), app.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusSubmitted, found.Status)
	assert.EqualValues(t, 1, found.Revision)
}

func TestStaleUpdateConflicts(t *testing.T) {
	s := NewInMemoryStore()
	app := newDraft(t)
	require.NoError(t, s.Create(context.Background(), app))

	first, err := s.FindByID(context.Background(), app.ID)
	require.NoError(t, err)
	second, err := s.FindByID(context.Background(), app.ID)
	require.NoError(t, err)

	first.Status = models.StatusSubmitted
	require.NoError(t, s.Update(context.Background(), first))

	second.Status = models.StatusDeleted
	err = s.Update(context.Background(), second)
	assert.ErrorIs(t, err, sentinel.ErrConflict)

	// The first writer's state survived.
	found, err := s.FindByID(context.Background(), app.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusSubmitted, found.Status)
}

func TestListByFarmerNewestFirst(t *testing.T) {
	s := NewInMemoryStore()
	farmerID := id.NewFarmerID()

	older := models.NewApplication(id.NewApplicationID(), "GACP-2026-000001", farmerID, "cannabis", "Phuket", time.Now().Add(-time.Hour))
	newer := models.NewApplication(id.NewApplicationID(), "GACP-2026-000002", farmerID, "turmeric", "Phuket", time.Now())
	other := newDraft(t)

	require.NoError(t, s.Create(context.Background(), older))
	require.NoError(t, s.Create(context.Background(), newer))
	require.NoError(t, s.Create(context.Background(), other))

	apps, err := s.ListByFarmer(context.Background(), farmerID)
	require.NoError(t, err)
	require.Len(t, apps, 2)
	assert.Equal(t, newer.ID, apps[0].ID)
	assert.Equal(t, older.ID, apps[1].ID)
}

func TestListByStatusOlderThan(t *testing.T) {
	s := NewInMemoryStore()
	cutoff := time.Now()

	stale := models.NewApplication(id.NewApplicationID(), "GACP-2026-000003", id.NewFarmerID(), "cannabis", "Phuket", cutoff.Add(-48*time.Hour))
	fresh := models.NewApplication(id.NewApplicationID(), "GACP-2026-000004", id.NewFarmerID(), "cannabis", "Phuket", cutoff.Add(time.Hour))

	require.NoError(t, s.Create(context.Background(), stale))
	require.NoError(t, s.Create(context.Background(), fresh))

	apps, err := s.ListByStatusOlderThan(context.Background(), models.StatusDraft, cutoff)
	require.NoError(t, err)
	require.Len(t, apps, 1)
	assert.Equal(t, stale.ID, apps[0].ID)
}

func TestMaxNumberForYear(t *testing.T) {
	s := NewInMemoryStore()

	low := models.NewApplication(id.NewApplicationID(), "GACP-2026-000007", id.NewFarmerID(), "cannabis", "Phuket", time.Now())
	high := models.NewApplication(id.NewApplicationID(), "GACP-2026-000041", id.NewFarmerID(), "turmeric", "Phuket", time.Now())
	lastYear := models.NewApplication(id.NewApplicationID(), "GACP-2025-000099", id.NewFarmerID(), "cannabis", "Nan", time.Now())

	require.NoError(t, s.Create(context.Background(), low))
	require.NoError(t, s.Create(context.Background(), high))
	require.NoError(t, s.Create(context.Background(), lastYear))

	max, err := s.MaxNumberForYear(context.Background(), 2026)
	require.NoError(t, err)
	assert.Equal(t, "GACP-2026-000041", max)

	none, err := s.MaxNumberForYear(context.Background(), 2027)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestStoreHandsOutCopies(t *testing.T) {
	s := NewInMemoryStore()
	app := newDraft(t)
	require.NoError(t, s.Create(context.Background(), app))

	found, err := s.FindByID(context.Background(), app.ID)
	require.NoError(t, err)
	found.Status = models.StatusRejected

	again, err := s.FindByID(context.Background(), app.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusDraft, again.Status)
}
