package snapshot

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"

	id "certflow/pkg/domain"
	dErrors "certflow/pkg/domain-errors"
	"certflow/pkg/platform/sentinel"
	"certflow/pkg/requestcontext"
)

// Store persists snapshots. Implementations expose no update or delete and
// must reject a duplicate (application, version) insert.
type Store interface {
	Insert(ctx context.Context, snap Snapshot) error
	MaxVersion(ctx context.Context, appID id.ApplicationID) (int, error)
	Find(ctx context.Context, appID id.ApplicationID, version int) (*Snapshot, error)
}

// Service creates versioned snapshots. Version numbering is derived from the
// store's current maximum so the sequence stays dense even if the aggregate's
// counter and the snapshot table ever disagree.
type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

// Create writes the next snapshot for an application and returns it.
func (s *Service) Create(ctx context.Context, appID id.ApplicationID, data json.RawMessage) (*Snapshot, error) {
	if len(data) == 0 {
		return nil, dErrors.New(dErrors.CodeBadRequest, "snapshot data must not be empty")
	}
	current, err := s.store.MaxVersion(ctx, appID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to determine snapshot version")
	}

	sum := sha256.Sum256(data)
	snap := Snapshot{
		ApplicationID: appID,
		Version:       current + 1,
		SchemaVersion: SchemaVersion,
		Data:          append(json.RawMessage{}, data...),
		Checksum:      hex.EncodeToString(sum[:]),
		CreatedAt:     requestcontext.Now(ctx),
	}
	if err := s.store.Insert(ctx, snap); err != nil {
		if errors.Is(err, sentinel.ErrImmutable) || errors.Is(err, sentinel.ErrAlreadyUsed) {
			return nil, dErrors.New(dErrors.CodeImmutableRecord, "snapshot version already exists")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to write snapshot")
	}
	return &snap, nil
}

// Verify recomputes the checksum of a stored snapshot and reports tampering.
func (s *Service) Verify(ctx context.Context, appID id.ApplicationID, version int) (bool, error) {
	snap, err := s.store.Find(ctx, appID, version)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return false, dErrors.New(dErrors.CodeNotFound, "snapshot not found")
		}
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load snapshot")
	}
	sum := sha256.Sum256(snap.Data)
	return hex.EncodeToString(sum[:]) == snap.Checksum, nil
}
