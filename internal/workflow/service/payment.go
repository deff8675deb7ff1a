package service

import (
	"context"
	"strconv"

	"certflow/internal/audittrail"
	"certflow/internal/workflow/models"
	id "certflow/pkg/domain"
	dErrors "certflow/pkg/domain-errors"
	"certflow/pkg/requestcontext"
)

// ConfirmPayment applies a gateway payment confirmation. The ledger insert is
// the at-most-once gate: when the order id was already applied the call
// reports applied=false with no error, and the webhook handler answers the
// gateway with success so it stops retrying. Phase 2 additionally requires
// phase 1 to be verified.
func (s *Service) ConfirmPayment(ctx context.Context, appID id.ApplicationID, orderID string, phase int) (*models.Application, bool, error) {
	ctx, span := s.tracer.Start(ctx, "workflow.ConfirmPayment")
	defer span.End()
	defer s.observe(audittrail.ActionConfirmPayment)()

	app, err := s.load(ctx, appID)
	if err != nil {
		return nil, false, err
	}

	var target models.Status
	switch phase {
	case 1:
		if app.Status != models.StatusPaymentPending {
			return nil, false, dErrors.Newf(dErrors.CodeGuardViolation, "phase 1 payment not expected in status %q", app.Status)
		}
		target = models.StatusPaymentVerified
	case 2:
		if app.Status != models.StatusPhase2PaymentPending {
			return nil, false, dErrors.Newf(dErrors.CodeGuardViolation, "phase 2 payment not expected in status %q", app.Status)
		}
		if app.Phase1.Status != models.PaymentVerified {
			return nil, false, dErrors.New(dErrors.CodeGuardViolation, "phase 2 payment requires a verified phase 1 payment")
		}
		target = models.StatusPhase2PaymentVerified
	default:
		return nil, false, dErrors.Newf(dErrors.CodeBadRequest, "unknown payment phase %d", phase)
	}

	// Ledger insert and transition commit or fail together, so a payment can
	// never be recorded without the status following it.
	var applied bool
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		applied, err = s.ledger.Confirm(ctx, orderID, app.ID, phase)
		if err != nil || !applied {
			return err
		}
		phaseRecord, err := app.Phase(phase)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid payment phase")
		}
		now := requestcontext.Now(ctx)
		phaseRecord.Status = models.PaymentVerified
		phaseRecord.OrderID = orderID
		phaseRecord.VerifiedAt = &now
		return s.transition(ctx, app, target, audittrail.ActionConfirmPayment, map[string]string{
			"order_id": orderID,
			"phase":    strconv.Itoa(phase),
		})
	})
	if err != nil {
		return nil, false, err
	}
	if !applied {
		if s.metrics != nil {
			s.metrics.DuplicatePaymentsTotal.Inc()
		}
		s.logger.InfoContext(ctx, "duplicate payment confirmation ignored",
			"application_id", app.ID.String(),
			"order_id", orderID,
			"phase", phase,
		)
		return app, false, nil
	}
	return app, true, nil
}
