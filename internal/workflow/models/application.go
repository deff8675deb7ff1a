// Package models defines the Application aggregate and its closed vocabulary
// of statuses, roles, and payment phases. All mutation goes through the
// workflow service; these types only hold state and local invariants.
package models

import (
	"fmt"
	"time"

	id "certflow/pkg/domain"
)

// Status is one of the closed set of workflow states.
type Status string

const (
	StatusDraft                 Status = "draft"
	StatusSubmitted             Status = "submitted"
	StatusUnderReview           Status = "under_review"
	StatusRevisionRequired      Status = "revision_required"
	StatusPaymentPending        Status = "payment_pending"
	StatusPaymentVerified       Status = "payment_verified"
	StatusInspectionScheduled   Status = "inspection_scheduled"
	StatusInspectionCompleted   Status = "inspection_completed"
	StatusPhase2PaymentPending  Status = "phase2_payment_pending"
	StatusPhase2PaymentVerified Status = "phase2_payment_verified"
	StatusApproved              Status = "approved"
	StatusCertificateIssued     Status = "certificate_issued"
	StatusRejected              Status = "rejected"
	StatusExpired               Status = "expired"
	StatusRevoked               Status = "revoked"
	StatusDeleted               Status = "deleted"
)

// Role identifies who is acting on an application.
type Role string

const (
	RoleFarmer    Role = "farmer"
	RoleReviewer  Role = "reviewer"
	RoleScheduler Role = "scheduler"
	RoleAuditor   Role = "auditor"
	RoleOfficer   Role = "officer"
	RoleSystem    Role = "system"
)

// PaymentStatus tracks one fee phase on the aggregate. The ledger, not this
// field, is the at-most-once mechanism; this is the aggregate's view of it.
type PaymentStatus string

const (
	PaymentUnpaid   PaymentStatus = "unpaid"
	PaymentPending  PaymentStatus = "pending"
	PaymentVerified PaymentStatus = "verified"
)

// PaymentPhase holds the aggregate-side record of one of the two fees.
type PaymentPhase struct {
	Status     PaymentStatus
	OrderID    string
	VerifiedAt *time.Time
}

// Application is the central aggregate: one certification request moving
// through the workflow. Never hard-deleted; terminal states are retained for
// legal record.
type Application struct {
	ID     id.ApplicationID
	Number string

	FarmerID     id.FarmerID
	PlantType    string
	FarmProvince string

	Status Status

	// SnapshotVersion starts at 0 and is incremented by exactly 1 on every
	// successful submission.
	SnapshotVersion int
	// RevisionCount is incremented each time status returns to revision_required.
	RevisionCount int
	// Revision is the optimistic-concurrency counter compared-and-swapped on
	// every write. Distinct from RevisionCount, which is a business counter.
	Revision int64

	Phase1 PaymentPhase
	Phase2 PaymentPhase

	// AssignedAuditorID is set only by the dispatcher.
	AssignedAuditorID *id.AuditorID

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewApplication creates a draft owned by the given farmer.
func NewApplication(appID id.ApplicationID, number string, farmerID id.FarmerID, plantType, farmProvince string, now time.Time) *Application {
	return &Application{
		ID:           appID,
		Number:       number,
		FarmerID:     farmerID,
		PlantType:    plantType,
		FarmProvince: farmProvince,
		Status:       StatusDraft,
		Phase1:       PaymentPhase{Status: PaymentUnpaid},
		Phase2:       PaymentPhase{Status: PaymentUnpaid},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// OwnedBy reports whether the given farmer owns this application.
func (a *Application) OwnedBy(farmerID id.FarmerID) bool {
	return a.FarmerID == farmerID
}

// Phase returns a pointer to the payment phase record for phase 1 or 2.
func (a *Application) Phase(phase int) (*PaymentPhase, error) {
	switch phase {
	case 1:
		return &a.Phase1, nil
	case 2:
		return &a.Phase2, nil
	default:
		return nil, fmt.Errorf("unknown payment phase %d", phase)
	}
}

// Clone returns a deep copy so in-memory stores never hand out aliased state.
func (a *Application) Clone() *Application {
	cp := *a
	if a.AssignedAuditorID != nil {
		auditorID := *a.AssignedAuditorID
		cp.AssignedAuditorID = &auditorID
	}
	if a.Phase1.VerifiedAt != nil {
		t := *a.Phase1.VerifiedAt
		cp.Phase1.VerifiedAt = &t
	}
	if a.Phase2.VerifiedAt != nil {
		t := *a.Phase2.VerifiedAt
		cp.Phase2.VerifiedAt = &t
	}
	return &cp
}

// AllStatuses lists the closed state set, in workflow order.
func AllStatuses() []Status {
	return []Status{
		StatusDraft, StatusSubmitted, StatusUnderReview, StatusRevisionRequired,
		StatusPaymentPending, StatusPaymentVerified, StatusInspectionScheduled,
		StatusInspectionCompleted, StatusPhase2PaymentPending, StatusPhase2PaymentVerified,
		StatusApproved, StatusCertificateIssued, StatusRejected, StatusExpired,
		StatusRevoked, StatusDeleted,
	}
}
