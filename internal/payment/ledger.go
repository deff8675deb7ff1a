package payment

import (
	"context"
	"errors"

	id "certflow/pkg/domain"
	dErrors "certflow/pkg/domain-errors"
	"certflow/pkg/platform/sentinel"
	"certflow/pkg/requestcontext"
)

// Store persists ledger rows. Insert must fail with sentinel.ErrAlreadyUsed
// when the order id already exists; that failure is the at-most-once guarantee.
type Store interface {
	Insert(ctx context.Context, record Record) error
	FindByOrderID(ctx context.Context, orderID string) (*Record, error)
}

// Ledger applies payment confirmations at most once per order id.
type Ledger struct {
	store Store
}

func NewLedger(store Store) *Ledger {
	return &Ledger{store: store}
}

// Confirm records a payment confirmation. applied is false when the order id
// was already processed; the caller must then skip the state transition and
// still report success to the gateway so it stops retrying.
func (l *Ledger) Confirm(ctx context.Context, orderID string, appID id.ApplicationID, phase int) (applied bool, err error) {
	if orderID == "" {
		return false, dErrors.New(dErrors.CodeBadRequest, "order id is required")
	}
	if phase != 1 && phase != 2 {
		return false, dErrors.Newf(dErrors.CodeBadRequest, "unknown payment phase %d", phase)
	}

	record := Record{
		OrderID:       orderID,
		ApplicationID: appID,
		Phase:         phase,
		Status:        StatusConfirmed,
		ConfirmedAt:   requestcontext.Now(ctx),
	}
	if err := l.store.Insert(ctx, record); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			return false, nil
		}
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to record payment")
	}
	return true, nil
}

// Lookup returns the ledger row for an order id, if any.
func (l *Ledger) Lookup(ctx context.Context, orderID string) (*Record, error) {
	record, err := l.store.FindByOrderID(ctx, orderID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "no payment recorded for order id")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up payment")
	}
	return record, nil
}
