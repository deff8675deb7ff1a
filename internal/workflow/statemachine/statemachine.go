// Package statemachine is the pure, stateless lookup of legal status
// transitions. It holds no aggregate state and performs no I/O; the workflow
// service consults it before every mutation.
package statemachine

import (
	"certflow/internal/workflow/models"
	dErrors "certflow/pkg/domain-errors"
)

// Config toggles policy-dependent edges.
type Config struct {
	// AllowRestart adds rejected/expired/revoked -> draft edges. The upstream
	// business policy is undecided, so the edges are opt-in.
	AllowRestart bool
}

// Machine answers transition-validity questions over the closed state set.
type Machine struct {
	transitions map[models.Status][]models.Status
}

// New builds the transition table. Unknown states are rejected with an
// unknown_state error rather than allowed through: a status outside the closed
// set means a corrupted row, and silently permitting any transition from it
// would mask that.
func New(cfg Config) *Machine {
	t := map[models.Status][]models.Status{
		models.StatusDraft: {
			models.StatusSubmitted, // farmer completes and submits
			models.StatusDeleted,   // farmer discards an unsubmitted draft
			models.StatusExpired,   // draft timeout
		},
		models.StatusSubmitted: {
			models.StatusUnderReview, // reviewer picks it up
			models.StatusExpired,
		},
		models.StatusUnderReview: {
			models.StatusPaymentPending,   // documents approved
			models.StatusRevisionRequired, // changes requested
			models.StatusRejected,
			models.StatusExpired,
		},
		models.StatusRevisionRequired: {
			models.StatusSubmitted, // farmer resubmits
			models.StatusRejected,  // revision cap exceeded
			models.StatusExpired,
		},
		models.StatusPaymentPending: {
			models.StatusPaymentVerified, // phase 1 webhook confirmation
			models.StatusExpired,
		},
		models.StatusPaymentVerified: {
			models.StatusInspectionScheduled, // auditor assigned
			models.StatusExpired,
		},
		models.StatusInspectionScheduled: {
			models.StatusInspectionCompleted,
			models.StatusRevisionRequired, // inspection found fixable defects
			models.StatusRejected,
			models.StatusExpired,
		},
		models.StatusInspectionCompleted: {
			models.StatusPhase2PaymentPending, // immediate follow-on transition
			models.StatusRejected,
			models.StatusExpired,
		},
		models.StatusPhase2PaymentPending: {
			models.StatusPhase2PaymentVerified, // phase 2 webhook confirmation
			models.StatusExpired,
		},
		models.StatusPhase2PaymentVerified: {
			models.StatusApproved,
			models.StatusCertificateIssued, // officer may issue directly
			models.StatusRejected,
			models.StatusExpired,
		},
		models.StatusApproved: {
			models.StatusCertificateIssued,
		},
		models.StatusCertificateIssued: {
			models.StatusRevoked, // certificate revoked after issuance
		},
		// Terminal states.
		models.StatusRejected: {},
		models.StatusExpired:  {},
		models.StatusRevoked:  {},
		models.StatusDeleted:  {},
	}

	if cfg.AllowRestart {
		for _, s := range []models.Status{models.StatusRejected, models.StatusExpired, models.StatusRevoked} {
			t[s] = append(t[s], models.StatusDraft)
		}
	}

	return &Machine{transitions: t}
}

// IsValidTransition reports whether from -> to is a legal move. Same-state is
// always valid (treated as an update/no-op). An unrecognized from or to state
// yields an unknown_state error.
func (m *Machine) IsValidTransition(from, to models.Status) (bool, error) {
	successors, ok := m.transitions[from]
	if !ok {
		return false, dErrors.Newf(dErrors.CodeUnknownState, "unrecognized source state %q", from)
	}
	if _, ok := m.transitions[to]; !ok {
		return false, dErrors.Newf(dErrors.CodeUnknownState, "unrecognized target state %q", to)
	}
	if from == to {
		return true, nil
	}
	for _, s := range successors {
		if s == to {
			return true, nil
		}
	}
	return false, nil
}

// NextStates returns the declared successors of a state; empty for terminal or
// unrecognized states.
func (m *Machine) NextStates(from models.Status) []models.Status {
	successors, ok := m.transitions[from]
	if !ok {
		return nil
	}
	return append([]models.Status{}, successors...)
}

// IsTerminal reports whether a state has no successors.
func (m *Machine) IsTerminal(s models.Status) bool {
	successors, ok := m.transitions[s]
	return ok && len(successors) == 0
}
