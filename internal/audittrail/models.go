// Package audittrail records every state-changing action as an append-only
// trail. This is the compliance log, distinct from the field audit (the
// physical farm inspection) handled by internal/dispatch.
package audittrail

import (
	"time"

	"github.com/google/uuid"

	"certflow/internal/workflow/models"
	id "certflow/pkg/domain"
)

// Entry is one append-only record of a state-changing action.
type Entry struct {
	ID            uuid.UUID
	ApplicationID id.ApplicationID
	ActorID       string
	ActorRole     models.Role
	Action        string
	FromStatus    models.Status
	ToStatus      models.Status
	Timestamp     time.Time
	Metadata      map[string]string
}

// Action names recorded in the trail.
const (
	ActionCreateDraft       = "application_created"
	ActionSubmitForReview   = "application_submitted"
	ActionReviewDocument    = "document_reviewed"
	ActionConfirmPayment    = "payment_confirmed"
	ActionAssignAuditor     = "auditor_assigned"
	ActionSubmitAuditResult = "audit_result_submitted"
	ActionApprove           = "application_approved"
	ActionIssueCertificate  = "certificate_issued"
	ActionRevoke            = "certificate_revoked"
	ActionDeleteDraft       = "application_deleted"
	ActionExpire            = "application_expired"
)
