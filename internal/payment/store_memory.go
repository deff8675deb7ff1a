package payment

import (
	"context"
	"sync"

	"certflow/pkg/platform/sentinel"
)

// InMemoryStore is the unit-test and dev-mode ledger. The map key plays the
// role of the database unique index.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[string]Record
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{records: make(map[string]Record)}
}

func (s *InMemoryStore) Insert(_ context.Context, record Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.records[record.OrderID]; exists {
		return sentinel.ErrAlreadyUsed
	}
	s.records[record.OrderID] = record
	return nil
}

func (s *InMemoryStore) FindByOrderID(_ context.Context, orderID string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.records[orderID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &record, nil
}

// Len reports how many ledger rows exist; used by tests asserting at-most-once.
func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
