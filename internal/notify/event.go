// Package notify fans application lifecycle events out to interested parties
// over a message broker. Delivery is best effort: a committed status change is
// never rolled back or blocked because the broker is slow or down.
package notify

import (
	"context"
	"encoding/json"
	"time"

	"certflow/internal/workflow/models"
	id "certflow/pkg/domain"
)

// Event describes one application status change.
type Event struct {
	ApplicationID     id.ApplicationID `json:"application_id"`
	ApplicationNumber string           `json:"application_number"`
	FarmerID          id.FarmerID      `json:"farmer_id"`
	Action            string           `json:"action"`
	FromStatus        models.Status    `json:"from_status"`
	ToStatus          models.Status    `json:"to_status"`
	OccurredAt        time.Time        `json:"occurred_at"`
}

// Encode renders the event as the JSON record value published to the broker.
func (e Event) Encode() ([]byte, error) {
	return json.Marshal(e)
}

// Publisher delivers an encoded event. Implementations must be safe for
// concurrent use by the queue workers.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close()
}
