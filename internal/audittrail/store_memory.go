package audittrail

import (
	"context"
	"sync"

	"github.com/google/uuid"

	id "certflow/pkg/domain"
	"certflow/pkg/platform/sentinel"
)

// InMemoryStore is the unit-test and dev-mode trail. Entries are write-once;
// the mutation methods exist only to fail, mirroring the storage-layer
// enforcement of the postgres store.
type InMemoryStore struct {
	mu      sync.RWMutex
	entries map[id.ApplicationID][]Entry
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{entries: make(map[id.ApplicationID][]Entry)}
}

func (s *InMemoryStore) Append(_ context.Context, entry Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[entry.ApplicationID] = append(s.entries[entry.ApplicationID], entry)
	return nil
}

func (s *InMemoryStore) ListByApplication(_ context.Context, appID id.ApplicationID) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Entry{}, s.entries[appID]...), nil
}

// Update always fails: the trail is append-only.
func (s *InMemoryStore) Update(context.Context, uuid.UUID, Entry) error {
	return sentinel.ErrImmutable
}

// Delete always fails: the trail is append-only.
func (s *InMemoryStore) Delete(context.Context, uuid.UUID) error {
	return sentinel.ErrImmutable
}
