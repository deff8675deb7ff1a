package handler

import "encoding/json"

type createDraftRequest struct {
	PlantType    string `json:"plant_type"`
	FarmProvince string `json:"farm_province"`
}

type submitRequest struct {
	// Documents is the application payload snapshotted at submission.
	Documents json.RawMessage `json:"documents"`
}

type reviewRequest struct {
	Decision string `json:"decision"`
	Notes    string `json:"notes,omitempty"`
}

type auditResultRequest struct {
	Result string `json:"result"`
	Notes  string `json:"notes,omitempty"`
}

type revokeRequest struct {
	Reason string `json:"reason"`
}

// paymentWebhookRequest is the gateway's confirmation callback body. The
// HMAC signature over the raw bytes is checked before this is decoded.
type paymentWebhookRequest struct {
	OrderID       string `json:"order_id"`
	ApplicationID string `json:"application_id"`
	Phase         int    `json:"phase"`
}
