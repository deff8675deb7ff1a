package service

import (
	"context"
	"strconv"

	"certflow/internal/audittrail"
	"certflow/internal/workflow/models"
	id "certflow/pkg/domain"
	dErrors "certflow/pkg/domain-errors"
)

// AuditResult is the field auditor's verdict after visiting the farm.
type AuditResult string

const (
	AuditPass   AuditResult = "pass"
	AuditFail   AuditResult = "fail"
	AuditReject AuditResult = "reject"
)

// AssignAuditor dispatches a field auditor for the paid application and
// schedules the inspection.
func (s *Service) AssignAuditor(ctx context.Context, appID id.ApplicationID) (*models.Application, error) {
	ctx, span := s.tracer.Start(ctx, "workflow.AssignAuditor")
	defer span.End()
	defer s.observe(audittrail.ActionAssignAuditor)()

	if _, err := s.requireRole(ctx, models.RoleScheduler); err != nil {
		return nil, err
	}
	app, err := s.load(ctx, appID)
	if err != nil {
		return nil, err
	}
	if app.Status != models.StatusPaymentVerified {
		return nil, dErrors.Newf(dErrors.CodeGuardViolation, "cannot schedule inspection in status %q", app.Status)
	}

	assignment, err := s.dispatcher.Assign(ctx, app.ID, app.FarmProvince)
	if err != nil {
		return nil, err
	}
	app.AssignedAuditorID = &assignment.AuditorID

	if err := s.transition(ctx, app, models.StatusInspectionScheduled, audittrail.ActionAssignAuditor, map[string]string{
		"auditor_id": assignment.AuditorID.String(),
		"province":   assignment.Province,
	}); err != nil {
		return nil, err
	}
	return app, nil
}

// SubmitAuditResult records the inspection outcome. A pass completes the
// inspection and immediately opens the phase 2 payment, each as its own
// audited transition. A fail sends the application back for revision, subject
// to the same revision cap as document review. A reject is final.
func (s *Service) SubmitAuditResult(ctx context.Context, appID id.ApplicationID, result AuditResult, notes string) (*models.Application, error) {
	ctx, span := s.tracer.Start(ctx, "workflow.SubmitAuditResult")
	defer span.End()
	defer s.observe(audittrail.ActionSubmitAuditResult)()

	actorID, err := s.requireRole(ctx, models.RoleAuditor)
	if err != nil {
		return nil, err
	}
	app, err := s.load(ctx, appID)
	if err != nil {
		return nil, err
	}
	if app.Status != models.StatusInspectionScheduled {
		return nil, dErrors.Newf(dErrors.CodeGuardViolation, "no inspection pending in status %q", app.Status)
	}
	if app.AssignedAuditorID == nil || app.AssignedAuditorID.String() != actorID {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "inspection is assigned to another auditor")
	}

	metadata := map[string]string{"result": string(result)}
	if notes != "" {
		metadata["notes"] = notes
	}

	switch result {
	case AuditPass:
		if err := s.transition(ctx, app, models.StatusInspectionCompleted, audittrail.ActionSubmitAuditResult, metadata); err != nil {
			return nil, err
		}
		app.Phase2.Status = models.PaymentPending
		if err := s.transition(ctx, app, models.StatusPhase2PaymentPending, audittrail.ActionSubmitAuditResult, map[string]string{
			"result": "phase2_payment_opened",
		}); err != nil {
			return nil, err
		}
	case AuditFail:
		target := models.StatusRevisionRequired
		if app.RevisionCount >= s.maxRevisions {
			metadata["rejection_reason"] = "revision limit exceeded"
			target = models.StatusRejected
		} else {
			app.RevisionCount++
		}
		metadata["revision_count"] = strconv.Itoa(app.RevisionCount)
		if err := s.transition(ctx, app, target, audittrail.ActionSubmitAuditResult, metadata); err != nil {
			return nil, err
		}
	case AuditReject:
		if err := s.transition(ctx, app, models.StatusRejected, audittrail.ActionSubmitAuditResult, metadata); err != nil {
			return nil, err
		}
	default:
		return nil, dErrors.Newf(dErrors.CodeInvalidInput, "unknown audit result %q", result)
	}

	if err := s.dispatcher.Complete(ctx, app.ID); err != nil {
		// Capacity bookkeeping only; the committed result stands.
		s.logger.WarnContext(ctx, "failed to release auditor assignment",
			"application_id", app.ID.String(),
			"error", err,
		)
	}
	return app, nil
}
