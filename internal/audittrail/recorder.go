package audittrail

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"certflow/internal/platform/metrics"
	id "certflow/pkg/domain"
)

// Store persists entries. Implementations must be append-only: they expose no
// update or delete, and reject tampering below this layer as well.
type Store interface {
	Append(ctx context.Context, entry Entry) error
	ListByApplication(ctx context.Context, appID id.ApplicationID) ([]Entry, error)
}

// Recorder appends audit entries after a committed transition. An append
// failure is logged and counted for the alerting channel but never propagated:
// losing an audit entry is recoverable via reconciliation, while rolling back
// a correctly-applied payment or status change is not.
type Recorder struct {
	store   Store
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewRecorder(store Store, logger *slog.Logger, m *metrics.Metrics) *Recorder {
	return &Recorder{store: store, logger: logger, metrics: m}
}

// Record appends one entry, filling in ID and timestamp when unset.
func (r *Recorder) Record(ctx context.Context, entry Entry) {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}
	if err := r.store.Append(ctx, entry); err != nil {
		r.logger.ErrorContext(ctx, "audit trail append failed",
			"error", err,
			"application_id", entry.ApplicationID.String(),
			"action", entry.Action,
			"from_status", entry.FromStatus,
			"to_status", entry.ToStatus,
		)
		if r.metrics != nil {
			r.metrics.AuditAppendFailures.Inc()
		}
	}
}

// List returns the trail for one application, oldest first.
func (r *Recorder) List(ctx context.Context, appID id.ApplicationID) ([]Entry, error) {
	return r.store.ListByApplication(ctx, appID)
}
