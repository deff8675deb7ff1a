// Package expiry moves applications that sat too long in a timed state to
// expired. One sweep runs at a time across all instances; a Redis lease
// elects the sweeper, and without Redis the instance sweeps unconditionally
// (single-instance deployments).
package expiry

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"certflow/internal/platform/metrics"
	"certflow/internal/workflow/models"
	id "certflow/pkg/domain"
	dErrors "certflow/pkg/domain-errors"
	"certflow/pkg/requestcontext"
)

const (
	leaseKey = "certflow:expiry-sweep:lease"
	leaseTTL = 5 * time.Minute
)

// timeouts is how long an application may sit in each state before the sweep
// expires it. States absent from the table never time out.
var timeouts = map[models.Status]time.Duration{
	models.StatusDraft:                 30 * 24 * time.Hour,
	models.StatusSubmitted:             3 * 24 * time.Hour,
	models.StatusUnderReview:           14 * 24 * time.Hour,
	models.StatusRevisionRequired:      30 * 24 * time.Hour,
	models.StatusPaymentPending:        7 * 24 * time.Hour,
	models.StatusPaymentVerified:       14 * 24 * time.Hour,
	models.StatusInspectionScheduled:   30 * 24 * time.Hour,
	models.StatusInspectionCompleted:   7 * 24 * time.Hour,
	models.StatusPhase2PaymentPending:  7 * 24 * time.Hour,
	models.StatusPhase2PaymentVerified: 14 * 24 * time.Hour,
}

// Lister finds applications that have overstayed a state.
type Lister interface {
	ListByStatusOlderThan(ctx context.Context, status models.Status, cutoff time.Time) ([]*models.Application, error)
}

// Expirer applies the expiration through the orchestrator, so the usual
// transition validation, audit entry, and notification all happen.
type Expirer interface {
	Expire(ctx context.Context, appID id.ApplicationID, reason string) (*models.Application, error)
}

// Locker is the slice of the Redis API the lease needs. Nil means no
// coordination: every instance sweeps.
type Locker interface {
	SetNX(ctx context.Context, key string, value any, expiration time.Duration) *redis.BoolCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

type Sweeper struct {
	apps       Lister
	expirer    Expirer
	locker     Locker
	logger     *slog.Logger
	metrics    *metrics.Metrics
	interval   time.Duration
	instanceID string
}

func NewSweeper(apps Lister, expirer Expirer, locker Locker, logger *slog.Logger, m *metrics.Metrics, interval time.Duration, instanceID string) *Sweeper {
	return &Sweeper{
		apps:       apps,
		expirer:    expirer,
		locker:     locker,
		logger:     logger,
		metrics:    m,
		interval:   interval,
		instanceID: instanceID,
	}
}

// Run sweeps on the configured interval until the context is cancelled.
func (s *Sweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.SweepOnce(ctx)
		}
	}
}

// SweepOnce acquires the lease and expires everything overdue. Losing the
// lease race is not an error; another instance is sweeping.
func (s *Sweeper) SweepOnce(ctx context.Context) {
	if s.locker != nil {
		held, err := s.locker.SetNX(ctx, leaseKey, s.instanceID, leaseTTL).Result()
		if err != nil {
			s.logger.WarnContext(ctx, "expiry lease acquisition failed", "error", err)
			return
		}
		if !held {
			return
		}
		defer s.locker.Del(ctx, leaseKey)
	}

	if s.metrics != nil {
		s.metrics.ExpirySweepsTotal.Inc()
	}

	ctx = requestcontext.WithActorID(ctx, "expiry-sweep")
	ctx = requestcontext.WithActorRole(ctx, string(models.RoleSystem))
	now := requestcontext.Now(ctx)

	for status, timeout := range timeouts {
		apps, err := s.apps.ListByStatusOlderThan(ctx, status, now.Add(-timeout))
		if err != nil {
			s.logger.ErrorContext(ctx, "expiry sweep listing failed",
				"status", status,
				"error", err,
			)
			continue
		}
		for _, app := range apps {
			if _, err := s.expirer.Expire(ctx, app.ID, "timeout in "+string(status)); err != nil {
				// Conflicts and invalid transitions mean the application moved
				// on since listing; skip it.
				if dErrors.HasCode(err, dErrors.CodeConflict) || dErrors.HasCode(err, dErrors.CodeInvalidTransition) {
					continue
				}
				s.logger.ErrorContext(ctx, "failed to expire application",
					"application_id", app.ID.String(),
					"status", status,
					"error", err,
				)
			}
		}
	}
}

// Timeout reports the configured dwell limit for a status.
func Timeout(status models.Status) (time.Duration, bool) {
	d, ok := timeouts[status]
	return d, ok
}
