package dispatch

import (
	"context"
	"sync"

	id "certflow/pkg/domain"
	"certflow/pkg/platform/sentinel"
)

type InMemoryStore struct {
	mu          sync.RWMutex
	auditors    map[id.AuditorID]Auditor
	assignments []Assignment
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{auditors: make(map[id.AuditorID]Auditor)}
}

// AddAuditor registers an auditor; used by tests and dev-mode seeding.
func (s *InMemoryStore) AddAuditor(auditor Auditor) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.auditors[auditor.ID] = auditor
}

func (s *InMemoryStore) ListActiveAuditors(_ context.Context) ([]Auditor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Auditor, 0, len(s.auditors))
	for _, a := range s.auditors {
		if a.Active {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *InMemoryStore) ActiveAssignmentCounts(_ context.Context) (map[id.AuditorID]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	counts := make(map[id.AuditorID]int)
	for _, a := range s.assignments {
		if a.Active {
			counts[a.AuditorID]++
		}
	}
	return counts, nil
}

func (s *InMemoryStore) InsertAssignment(_ context.Context, assignment Assignment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.assignments = append(s.assignments, assignment)
	return nil
}

func (s *InMemoryStore) CompleteAssignment(_ context.Context, appID id.ApplicationID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.assignments {
		if s.assignments[i].ApplicationID == appID && s.assignments[i].Active {
			s.assignments[i].Active = false
			return nil
		}
	}
	return sentinel.ErrNotFound
}
