package service

import (
	"context"

	"certflow/internal/audittrail"
	"certflow/internal/workflow/models"
	id "certflow/pkg/domain"
)

// Expire moves a timed-out application to expired. Called by the sweep with a
// system actor; a state that has no expired edge (already terminal, or raced
// into a later state) reports an invalid transition and the sweep moves on.
func (s *Service) Expire(ctx context.Context, appID id.ApplicationID, reason string) (*models.Application, error) {
	ctx, span := s.tracer.Start(ctx, "workflow.Expire")
	defer span.End()
	defer s.observe(audittrail.ActionExpire)()

	if _, err := s.requireRole(ctx, models.RoleSystem); err != nil {
		return nil, err
	}
	app, err := s.load(ctx, appID)
	if err != nil {
		return nil, err
	}
	if err := s.transition(ctx, app, models.StatusExpired, audittrail.ActionExpire, map[string]string{
		"reason": reason,
	}); err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.ExpiredApplications.Inc()
	}
	return app, nil
}
