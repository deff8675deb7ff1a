// Package snapshot keeps strictly-increasing, checksummed, immutable copies of
// submitted application data for legal retention. One row per
// (application, version); rows are never updated or deleted.
package snapshot

import (
	"encoding/json"
	"time"

	id "certflow/pkg/domain"
)

// SchemaVersion tags the shape of the captured form data so old snapshots stay
// interpretable after the form evolves.
const SchemaVersion = 1

// Snapshot is one immutable copy of submitted form data.
type Snapshot struct {
	ApplicationID id.ApplicationID
	Version       int
	SchemaVersion int
	Data          json.RawMessage
	// Checksum is the hex SHA-256 of Data, for tamper detection.
	Checksum  string
	CreatedAt time.Time
}
