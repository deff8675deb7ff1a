package handler

import (
	"time"

	"certflow/internal/audittrail"
	"certflow/internal/workflow/models"
)

type paymentPhaseResponse struct {
	Status     string     `json:"status"`
	OrderID    string     `json:"order_id,omitempty"`
	VerifiedAt *time.Time `json:"verified_at,omitempty"`
}

type applicationResponse struct {
	ID                string               `json:"id"`
	Number            string               `json:"number"`
	FarmerID          string               `json:"farmer_id"`
	PlantType         string               `json:"plant_type"`
	FarmProvince      string               `json:"farm_province"`
	Status            string               `json:"status"`
	SnapshotVersion   int                  `json:"snapshot_version"`
	RevisionCount     int                  `json:"revision_count"`
	Phase1            paymentPhaseResponse `json:"phase1_payment"`
	Phase2            paymentPhaseResponse `json:"phase2_payment"`
	AssignedAuditorID string               `json:"assigned_auditor_id,omitempty"`
	CreatedAt         time.Time            `json:"created_at"`
	UpdatedAt         time.Time            `json:"updated_at"`
}

func toApplicationResponse(app *models.Application) applicationResponse {
	resp := applicationResponse{
		ID:              app.ID.String(),
		Number:          app.Number,
		FarmerID:        app.FarmerID.String(),
		PlantType:       app.PlantType,
		FarmProvince:    app.FarmProvince,
		Status:          string(app.Status),
		SnapshotVersion: app.SnapshotVersion,
		RevisionCount:   app.RevisionCount,
		Phase1:          toPhaseResponse(app.Phase1),
		Phase2:          toPhaseResponse(app.Phase2),
		CreatedAt:       app.CreatedAt,
		UpdatedAt:       app.UpdatedAt,
	}
	if app.AssignedAuditorID != nil {
		resp.AssignedAuditorID = app.AssignedAuditorID.String()
	}
	return resp
}

func toPhaseResponse(p models.PaymentPhase) paymentPhaseResponse {
	return paymentPhaseResponse{
		Status:     string(p.Status),
		OrderID:    p.OrderID,
		VerifiedAt: p.VerifiedAt,
	}
}

type auditEntryResponse struct {
	ID         string            `json:"id"`
	ActorID    string            `json:"actor_id"`
	ActorRole  string            `json:"actor_role"`
	Action     string            `json:"action"`
	FromStatus string            `json:"from_status,omitempty"`
	ToStatus   string            `json:"to_status"`
	Timestamp  time.Time         `json:"timestamp"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

func toAuditTrailResponse(entries []audittrail.Entry) []auditEntryResponse {
	out := make([]auditEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, auditEntryResponse{
			ID:         e.ID.String(),
			ActorID:    e.ActorID,
			ActorRole:  string(e.ActorRole),
			Action:     e.Action,
			FromStatus: string(e.FromStatus),
			ToStatus:   string(e.ToStatus),
			Timestamp:  e.Timestamp,
			Metadata:   e.Metadata,
		})
	}
	return out
}

type webhookResponse struct {
	Received bool `json:"received"`
	Applied  bool `json:"applied"`
}
