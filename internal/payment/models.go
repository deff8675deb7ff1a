// Package payment enforces at-most-once application of payment confirmations.
// The uniqueness of the gateway-issued order id is the entire concurrency
// mechanism: a duplicate webhook delivery loses the insert race and becomes a
// no-op, regardless of how many process instances receive it.
package payment

import (
	"time"

	id "certflow/pkg/domain"
)

// RecordStatus tracks a ledger row's lifecycle.
type RecordStatus string

const (
	StatusReceived  RecordStatus = "received"
	StatusConfirmed RecordStatus = "confirmed"
)

// Record is one ledger row, keyed uniquely by the gateway order id.
type Record struct {
	OrderID       string
	ApplicationID id.ApplicationID
	Phase         int
	Status        RecordStatus
	ConfirmedAt   time.Time
}
