package snapshot

import (
	"context"
	"sync"

	id "certflow/pkg/domain"
	"certflow/pkg/platform/sentinel"
)

type versionKey struct {
	appID   id.ApplicationID
	version int
}

// InMemoryStore is the unit-test and dev-mode snapshot store. Write-once per
// (application, version) key; no update or delete surface exists.
type InMemoryStore struct {
	mu        sync.RWMutex
	snapshots map[versionKey]Snapshot
	maxByApp  map[id.ApplicationID]int
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		snapshots: make(map[versionKey]Snapshot),
		maxByApp:  make(map[id.ApplicationID]int),
	}
}

func (s *InMemoryStore) Insert(_ context.Context, snap Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := versionKey{appID: snap.ApplicationID, version: snap.Version}
	if _, exists := s.snapshots[key]; exists {
		return sentinel.ErrImmutable
	}
	s.snapshots[key] = snap
	if snap.Version > s.maxByApp[snap.ApplicationID] {
		s.maxByApp[snap.ApplicationID] = snap.Version
	}
	return nil
}

func (s *InMemoryStore) MaxVersion(_ context.Context, appID id.ApplicationID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.maxByApp[appID], nil
}

func (s *InMemoryStore) Find(_ context.Context, appID id.ApplicationID, version int) (*Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.snapshots[versionKey{appID: appID, version: version}]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := snap
	cp.Data = append(cp.Data[:0:0], snap.Data...)
	return &cp, nil
}
