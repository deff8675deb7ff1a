package service

import (
	"context"
	"strconv"

	"certflow/internal/audittrail"
	"certflow/internal/workflow/models"
	id "certflow/pkg/domain"
	dErrors "certflow/pkg/domain-errors"
)

// ReviewDecision is the reviewer's verdict on the submitted documents.
type ReviewDecision string

const (
	DecisionApprove ReviewDecision = "approve"
	DecisionRevise  ReviewDecision = "revise"
	DecisionReject  ReviewDecision = "reject"
)

// ReviewDocument records the reviewer's verdict. Picking up a freshly
// submitted application first moves it to under_review, as its own audited
// transition. A revise verdict counts against the revision cap; once the cap
// is exceeded the application is rejected instead of cycling forever.
func (s *Service) ReviewDocument(ctx context.Context, appID id.ApplicationID, decision ReviewDecision, notes string) (*models.Application, error) {
	ctx, span := s.tracer.Start(ctx, "workflow.ReviewDocument")
	defer span.End()
	defer s.observe(audittrail.ActionReviewDocument)()

	if _, err := s.requireRole(ctx, models.RoleReviewer); err != nil {
		return nil, err
	}
	app, err := s.load(ctx, appID)
	if err != nil {
		return nil, err
	}

	if app.Status == models.StatusSubmitted {
		if err := s.transition(ctx, app, models.StatusUnderReview, audittrail.ActionReviewDocument, map[string]string{
			"decision": "picked_up",
		}); err != nil {
			return nil, err
		}
	}
	if app.Status != models.StatusUnderReview {
		return nil, dErrors.Newf(dErrors.CodeGuardViolation, "cannot review application in status %q", app.Status)
	}

	metadata := map[string]string{"decision": string(decision)}
	if notes != "" {
		metadata["notes"] = notes
	}

	switch decision {
	case DecisionApprove:
		app.Phase1.Status = models.PaymentPending
		if err := s.transition(ctx, app, models.StatusPaymentPending, audittrail.ActionReviewDocument, metadata); err != nil {
			return nil, err
		}
	case DecisionRevise:
		// The count only grows when the application actually returns for
		// revision; a verdict past the cap rejects without inflating it.
		if app.RevisionCount >= s.maxRevisions {
			metadata["rejection_reason"] = "revision limit exceeded"
			metadata["revision_count"] = strconv.Itoa(app.RevisionCount)
			if err := s.transition(ctx, app, models.StatusRejected, audittrail.ActionReviewDocument, metadata); err != nil {
				return nil, err
			}
			return app, nil
		}
		app.RevisionCount++
		metadata["revision_count"] = strconv.Itoa(app.RevisionCount)
		if err := s.transition(ctx, app, models.StatusRevisionRequired, audittrail.ActionReviewDocument, metadata); err != nil {
			return nil, err
		}
	case DecisionReject:
		if err := s.transition(ctx, app, models.StatusRejected, audittrail.ActionReviewDocument, metadata); err != nil {
			return nil, err
		}
	default:
		return nil, dErrors.Newf(dErrors.CodeInvalidInput, "unknown review decision %q", decision)
	}
	return app, nil
}
