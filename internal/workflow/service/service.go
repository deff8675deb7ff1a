// Package service is the workflow orchestrator. Every mutation follows the
// same shape: authorize the actor, check the guard, validate the transition,
// commit the new state with an optimistic write, then record the audit entry
// and fan out the notification. Exactly one audit entry is produced per
// committed status change.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"certflow/internal/audittrail"
	"certflow/internal/dispatch"
	"certflow/internal/notify"
	"certflow/internal/payment"
	"certflow/internal/platform/metrics"
	"certflow/internal/snapshot"
	"certflow/internal/workflow/models"
	"certflow/internal/workflow/statemachine"
	"certflow/internal/workflow/store"
	id "certflow/pkg/domain"
	dErrors "certflow/pkg/domain-errors"
	"certflow/pkg/platform/sentinel"
	"certflow/pkg/requestcontext"
)

// Notifier receives lifecycle events after a committed transition. Enqueue
// must never block.
type Notifier interface {
	Enqueue(event notify.Event)
}

// TxRunner executes fn atomically. The Postgres implementation wraps fn in a
// database transaction; the default runs fn as-is for in-memory stores.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type passthroughTx struct{}

func (passthroughTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// Option configures optional service collaborators.
type Option func(*Service)

// WithTxRunner makes multi-write operations atomic.
func WithTxRunner(r TxRunner) Option {
	return func(s *Service) { s.tx = r }
}

// Service coordinates the application lifecycle.
type Service struct {
	apps         store.Store
	machine      *statemachine.Machine
	snapshots    *snapshot.Service
	ledger       *payment.Ledger
	audit        *audittrail.Recorder
	dispatcher   *dispatch.Dispatcher
	notifier     Notifier
	metrics      *metrics.Metrics
	logger       *slog.Logger
	tracer       trace.Tracer
	numbers      *numberGenerator
	tx           TxRunner
	maxRevisions int
}

func New(
	apps store.Store,
	machine *statemachine.Machine,
	snapshots *snapshot.Service,
	ledger *payment.Ledger,
	audit *audittrail.Recorder,
	dispatcher *dispatch.Dispatcher,
	notifier Notifier,
	m *metrics.Metrics,
	logger *slog.Logger,
	maxRevisions int,
	opts ...Option,
) *Service {
	svc := &Service{
		apps:         apps,
		machine:      machine,
		snapshots:    snapshots,
		ledger:       ledger,
		audit:        audit,
		dispatcher:   dispatcher,
		notifier:     notifier,
		metrics:      m,
		logger:       logger,
		tracer:       otel.Tracer("certflow/workflow"),
		numbers:      newNumberGenerator(apps),
		tx:           passthroughTx{},
		maxRevisions: maxRevisions,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// CreateDraft opens a new application for the authenticated farmer.
func (s *Service) CreateDraft(ctx context.Context, plantType, farmProvince string) (*models.Application, error) {
	ctx, span := s.tracer.Start(ctx, "workflow.CreateDraft")
	defer span.End()
	defer s.observe(audittrail.ActionCreateDraft)()

	farmerID, err := s.requireFarmer(ctx)
	if err != nil {
		return nil, err
	}
	if plantType == "" || farmProvince == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "plant type and farm province are required")
	}

	now := requestcontext.Now(ctx)
	number, err := s.numbers.Next(ctx, now)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to allocate application number")
	}
	app := models.NewApplication(id.NewApplicationID(), number, farmerID, plantType, farmProvince, now)
	if err := s.apps.Create(ctx, app); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create application")
	}

	s.record(ctx, app, audittrail.ActionCreateDraft, "", models.StatusDraft, nil)
	return app, nil
}

// Get returns one application. Farmers see only their own; staff roles see any.
func (s *Service) Get(ctx context.Context, appID id.ApplicationID) (*models.Application, error) {
	app, err := s.load(ctx, appID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeRead(ctx, app); err != nil {
		return nil, err
	}
	return app, nil
}

// ListMine returns the authenticated farmer's applications, newest first.
func (s *Service) ListMine(ctx context.Context) ([]*models.Application, error) {
	farmerID, err := s.requireFarmer(ctx)
	if err != nil {
		return nil, err
	}
	apps, err := s.apps.ListByFarmer(ctx, farmerID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list applications")
	}
	return apps, nil
}

// SubmitForReview snapshots the submitted documents and moves the application
// into the review queue. Allowed from draft and revision_required only, by the
// owning farmer.
func (s *Service) SubmitForReview(ctx context.Context, appID id.ApplicationID, documents json.RawMessage) (*models.Application, error) {
	ctx, span := s.tracer.Start(ctx, "workflow.SubmitForReview")
	defer span.End()
	defer s.observe(audittrail.ActionSubmitForReview)()

	farmerID, err := s.requireFarmer(ctx)
	if err != nil {
		return nil, err
	}
	app, err := s.load(ctx, appID)
	if err != nil {
		return nil, err
	}
	if !app.OwnedBy(farmerID) {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "application belongs to another farmer")
	}
	if app.Status != models.StatusDraft && app.Status != models.StatusRevisionRequired {
		return nil, dErrors.Newf(dErrors.CodeGuardViolation, "cannot submit from status %q", app.Status)
	}

	// Snapshot and transition commit or fail together.
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		snap, err := s.snapshots.Create(ctx, app.ID, documents)
		if err != nil {
			return err
		}
		app.SnapshotVersion = snap.Version
		return s.transition(ctx, app, models.StatusSubmitted, audittrail.ActionSubmitForReview, map[string]string{
			"snapshot_version": strconv.Itoa(snap.Version),
			"checksum":         snap.Checksum,
		})
	})
	if err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.SnapshotsCreatedTotal.Inc()
	}
	return app, nil
}

// DeleteDraft discards an unsubmitted draft. The row is kept with status
// deleted; nothing is ever hard-deleted.
func (s *Service) DeleteDraft(ctx context.Context, appID id.ApplicationID) (*models.Application, error) {
	ctx, span := s.tracer.Start(ctx, "workflow.DeleteDraft")
	defer span.End()

	farmerID, err := s.requireFarmer(ctx)
	if err != nil {
		return nil, err
	}
	app, err := s.load(ctx, appID)
	if err != nil {
		return nil, err
	}
	if !app.OwnedBy(farmerID) {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "application belongs to another farmer")
	}
	if err := s.transition(ctx, app, models.StatusDeleted, audittrail.ActionDeleteDraft, nil); err != nil {
		return nil, err
	}
	return app, nil
}

// AuditTrail returns the application's append-only action log, oldest first.
func (s *Service) AuditTrail(ctx context.Context, appID id.ApplicationID) ([]audittrail.Entry, error) {
	app, err := s.load(ctx, appID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeRead(ctx, app); err != nil {
		return nil, err
	}
	entries, err := s.audit.List(ctx, appID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load audit trail")
	}
	return entries, nil
}

// transition commits a status change with the compare-and-swap write, then
// emits the metrics, audit entry, and notification for it.
func (s *Service) transition(ctx context.Context, app *models.Application, to models.Status, action string, metadata map[string]string) error {
	valid, err := s.machine.IsValidTransition(app.Status, to)
	if err != nil {
		return err
	}
	if !valid {
		return dErrors.Newf(dErrors.CodeInvalidTransition, "cannot transition from %q to %q", app.Status, to)
	}

	from := app.Status
	app.Status = to
	app.UpdatedAt = requestcontext.Now(ctx)
	if err := s.apps.Update(ctx, app); err != nil {
		app.Status = from
		switch {
		case errors.Is(err, sentinel.ErrConflict):
			return dErrors.New(dErrors.CodeConflict, "application was modified concurrently, retry with fresh state")
		case errors.Is(err, sentinel.ErrNotFound):
			return dErrors.New(dErrors.CodeNotFound, "application not found")
		default:
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to persist transition")
		}
	}

	if s.metrics != nil {
		s.metrics.TransitionsTotal.WithLabelValues(action, string(to)).Inc()
	}
	s.record(ctx, app, action, from, to, metadata)
	return nil
}

// record emits the audit entry and notification for one committed change.
func (s *Service) record(ctx context.Context, app *models.Application, action string, from, to models.Status, metadata map[string]string) {
	actorID, actorRole := s.actor(ctx)
	metadata = withClientMetadata(ctx, metadata)
	s.audit.Record(ctx, audittrail.Entry{
		ApplicationID: app.ID,
		ActorID:       actorID,
		ActorRole:     actorRole,
		Action:        action,
		FromStatus:    from,
		ToStatus:      to,
		Timestamp:     requestcontext.Now(ctx),
		Metadata:      metadata,
	})
	if s.notifier != nil {
		s.notifier.Enqueue(notify.Event{
			ApplicationID:     app.ID,
			ApplicationNumber: app.Number,
			FarmerID:          app.FarmerID,
			Action:            action,
			FromStatus:        from,
			ToStatus:          to,
			OccurredAt:        requestcontext.Now(ctx),
		})
	}
}

func (s *Service) load(ctx context.Context, appID id.ApplicationID) (*models.Application, error) {
	app, err := s.apps.FindByID(ctx, appID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "application not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load application")
	}
	return app, nil
}

func (s *Service) actor(ctx context.Context) (string, models.Role) {
	return requestcontext.ActorID(ctx), models.Role(requestcontext.ActorRole(ctx))
}

func (s *Service) requireFarmer(ctx context.Context) (id.FarmerID, error) {
	actorID, role := s.actor(ctx)
	if role != models.RoleFarmer {
		return id.FarmerID{}, dErrors.Newf(dErrors.CodeUnauthorized, "role %q cannot perform this action", role)
	}
	farmerID, err := id.ParseFarmerID(actorID)
	if err != nil {
		return id.FarmerID{}, dErrors.Wrap(err, dErrors.CodeUnauthorized, "invalid actor identity")
	}
	return farmerID, nil
}

func (s *Service) requireRole(ctx context.Context, roles ...models.Role) (string, error) {
	actorID, role := s.actor(ctx)
	for _, r := range roles {
		if role == r {
			return actorID, nil
		}
	}
	return "", dErrors.Newf(dErrors.CodeUnauthorized, "role %q cannot perform this action", role)
}

func (s *Service) authorizeRead(ctx context.Context, app *models.Application) error {
	actorID, role := s.actor(ctx)
	if role == models.RoleFarmer {
		farmerID, err := id.ParseFarmerID(actorID)
		if err != nil || !app.OwnedBy(farmerID) {
			return dErrors.New(dErrors.CodeUnauthorized, "application belongs to another farmer")
		}
		return nil
	}
	switch role {
	case models.RoleReviewer, models.RoleScheduler, models.RoleAuditor, models.RoleOfficer, models.RoleSystem:
		return nil
	default:
		return dErrors.Newf(dErrors.CodeUnauthorized, "role %q cannot view applications", role)
	}
}

// withClientMetadata folds the request's client IP and device summary into
// the audit metadata when the middleware captured them.
func withClientMetadata(ctx context.Context, metadata map[string]string) map[string]string {
	ip := requestcontext.ClientIP(ctx)
	device := requestcontext.Device(ctx)
	if ip == "" && device == "" {
		return metadata
	}
	out := make(map[string]string, len(metadata)+2)
	for k, v := range metadata {
		out[k] = v
	}
	if ip != "" {
		out["client_ip"] = ip
	}
	if device != "" {
		out["device"] = device
	}
	return out
}

func (s *Service) observe(action string) func() {
	if s.metrics == nil {
		return func() {}
	}
	timer := prometheus.NewTimer(s.metrics.ActionDuration.WithLabelValues(action))
	return func() { timer.ObserveDuration() }
}

