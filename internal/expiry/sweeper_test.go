package expiry

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"certflow/internal/audittrail"
	"certflow/internal/dispatch"
	"certflow/internal/payment"
	"certflow/internal/snapshot"
	"certflow/internal/workflow/models"
	"certflow/internal/workflow/service"
	"certflow/internal/workflow/statemachine"
	"certflow/internal/workflow/store"
	id "certflow/pkg/domain"
)

func newService(t *testing.T, apps store.Store) *service.Service {
	t.Helper()
	logger := slog.New(slog.DiscardHandler)
	return service.New(
		apps,
		statemachine.New(statemachine.Config{}),
		snapshot.NewService(snapshot.NewInMemoryStore()),
		payment.NewLedger(payment.NewInMemoryStore()),
		audittrail.NewRecorder(audittrail.NewInMemoryStore(), logger, nil),
		dispatch.NewDispatcher(dispatch.NewInMemoryStore()),
		nil,
		nil,
		logger,
		3,
	)
}

func seed(t *testing.T, apps store.Store, status models.Status, age time.Duration) id.ApplicationID {
	t.Helper()
	app := models.NewApplication(
		id.NewApplicationID(), "GACP-2026-000099", id.NewFarmerID(),
		"cannabis", "Phuket", time.Now().Add(-age),
	)
	require.NoError(t, apps.Create(context.Background(), app))
	if status != models.StatusDraft {
		app.Status = status
		app.UpdatedAt = time.Now().Add(-age)
		require.NoError(t, apps.Update(context.Background(), app))
	}
	return app.ID
}

func TestSweepExpiresOverdueDrafts(t *testing.T) {
	apps := store.NewInMemoryStore()
	svc := newService(t, apps)
	sweeper := NewSweeper(apps, svc, nil, slog.New(slog.DiscardHandler), nil, time.Hour, "test")

	stale := seed(t, apps, models.StatusDraft, 31*24*time.Hour)
	fresh := seed(t, apps, models.StatusDraft, 24*time.Hour)

	sweeper.SweepOnce(context.Background())

	staleApp, err := apps.FindByID(context.Background(), stale)
	require.NoError(t, err)
	assert.Equal(t, models.StatusExpired, staleApp.Status)

	freshApp, err := apps.FindByID(context.Background(), fresh)
	require.NoError(t, err)
	assert.Equal(t, models.StatusDraft, freshApp.Status)
}

func TestSweepUsesPerStateTimeouts(t *testing.T) {
	apps := store.NewInMemoryStore()
	svc := newService(t, apps)
	sweeper := NewSweeper(apps, svc, nil, slog.New(slog.DiscardHandler), nil, time.Hour, "test")

	// 4 days exceeds the 3-day submitted window but not the 30-day draft one.
	submitted := seed(t, apps, models.StatusSubmitted, 4*24*time.Hour)
	draft := seed(t, apps, models.StatusDraft, 4*24*time.Hour)

	sweeper.SweepOnce(context.Background())

	submittedApp, err := apps.FindByID(context.Background(), submitted)
	require.NoError(t, err)
	assert.Equal(t, models.StatusExpired, submittedApp.Status)

	draftApp, err := apps.FindByID(context.Background(), draft)
	require.NoError(t, err)
	assert.Equal(t, models.StatusDraft, draftApp.Status)
}

func TestTerminalStatesNeverSwept(t *testing.T) {
	apps := store.NewInMemoryStore()
	svc := newService(t, apps)
	sweeper := NewSweeper(apps, svc, nil, slog.New(slog.DiscardHandler), nil, time.Hour, "test")

	rejected := seed(t, apps, models.StatusRejected, 365*24*time.Hour)
	issued := seed(t, apps, models.StatusCertificateIssued, 365*24*time.Hour)

	sweeper.SweepOnce(context.Background())

	rejectedApp, err := apps.FindByID(context.Background(), rejected)
	require.NoError(t, err)
	assert.Equal(t, models.StatusRejected, rejectedApp.Status)

	issuedApp, err := apps.FindByID(context.Background(), issued)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCertificateIssued, issuedApp.Status)
}

func TestTimeoutTable(t *testing.T) {
	d, ok := Timeout(models.StatusSubmitted)
	require.True(t, ok)
	assert.Equal(t, 3*24*time.Hour, d)

	_, ok = Timeout(models.StatusCertificateIssued)
	assert.False(t, ok)
}
