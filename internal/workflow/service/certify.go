package service

import (
	"context"

	"certflow/internal/audittrail"
	"certflow/internal/workflow/models"
	id "certflow/pkg/domain"
	dErrors "certflow/pkg/domain-errors"
)

// Approve records the officer's final approval after both payments are
// verified. Issuance may follow as a separate step, or the officer may issue
// directly from phase2_payment_verified.
func (s *Service) Approve(ctx context.Context, appID id.ApplicationID) (*models.Application, error) {
	ctx, span := s.tracer.Start(ctx, "workflow.Approve")
	defer span.End()

	if _, err := s.requireRole(ctx, models.RoleOfficer); err != nil {
		return nil, err
	}
	app, err := s.load(ctx, appID)
	if err != nil {
		return nil, err
	}
	if err := s.transition(ctx, app, models.StatusApproved, audittrail.ActionApprove, nil); err != nil {
		return nil, err
	}
	return app, nil
}

// IssueCertificate issues the certificate, from approved or directly from
// phase2_payment_verified.
func (s *Service) IssueCertificate(ctx context.Context, appID id.ApplicationID) (*models.Application, error) {
	ctx, span := s.tracer.Start(ctx, "workflow.IssueCertificate")
	defer span.End()
	defer s.observe(audittrail.ActionIssueCertificate)()

	if _, err := s.requireRole(ctx, models.RoleOfficer); err != nil {
		return nil, err
	}
	app, err := s.load(ctx, appID)
	if err != nil {
		return nil, err
	}
	if app.Status != models.StatusApproved && app.Status != models.StatusPhase2PaymentVerified {
		return nil, dErrors.Newf(dErrors.CodeGuardViolation, "cannot issue certificate in status %q", app.Status)
	}
	if err := s.transition(ctx, app, models.StatusCertificateIssued, audittrail.ActionIssueCertificate, map[string]string{
		"application_number": app.Number,
	}); err != nil {
		return nil, err
	}
	return app, nil
}

// RevokeCertificate withdraws an issued certificate, with the reason kept in
// the audit trail.
func (s *Service) RevokeCertificate(ctx context.Context, appID id.ApplicationID, reason string) (*models.Application, error) {
	ctx, span := s.tracer.Start(ctx, "workflow.RevokeCertificate")
	defer span.End()

	if _, err := s.requireRole(ctx, models.RoleOfficer); err != nil {
		return nil, err
	}
	if reason == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "revocation reason is required")
	}
	app, err := s.load(ctx, appID)
	if err != nil {
		return nil, err
	}
	if err := s.transition(ctx, app, models.StatusRevoked, audittrail.ActionRevoke, map[string]string{
		"reason": reason,
	}); err != nil {
		return nil, err
	}
	return app, nil
}
