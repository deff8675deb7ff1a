// Package store persists the Application aggregate. Writes are guarded by an
// optimistic compare-and-swap on the revision counter: a stale writer gets
// sentinel.ErrConflict and must re-read instead of clobbering a newer state.
package store

import (
	"context"
	"time"

	"certflow/internal/workflow/models"
	id "certflow/pkg/domain"
)

// Store is the aggregate repository contract shared by the in-memory and
// Postgres implementations.
type Store interface {
	// Create inserts a new draft with revision 0.
	Create(ctx context.Context, app *models.Application) error
	// FindByID returns the current state, or sentinel.ErrNotFound.
	FindByID(ctx context.Context, appID id.ApplicationID) (*models.Application, error)
	// ListByFarmer returns the farmer's applications, newest first.
	ListByFarmer(ctx context.Context, farmerID id.FarmerID) ([]*models.Application, error)
	// Update compares the stored revision against app.Revision; on match it
	// writes the new state with revision+1, otherwise sentinel.ErrConflict.
	Update(ctx context.Context, app *models.Application) error
	// ListByStatusOlderThan returns applications sitting in status since before
	// the cutoff; used by the expiry sweep.
	ListByStatusOlderThan(ctx context.Context, status models.Status, cutoff time.Time) ([]*models.Application, error)
	// MaxNumberForYear returns the highest application number issued in the
	// given calendar year, or "" when none exist. Seeds the number sequence
	// after a restart.
	MaxNumberForYear(ctx context.Context, year int) (string, error)
}
