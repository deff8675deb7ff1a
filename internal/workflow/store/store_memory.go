package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"certflow/internal/workflow/models"
	id "certflow/pkg/domain"
	"certflow/pkg/platform/sentinel"
)

type InMemoryStore struct {
	mu   sync.RWMutex
	apps map[id.ApplicationID]*models.Application
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{apps: make(map[id.ApplicationID]*models.Application)}
}

func (s *InMemoryStore) Create(_ context.Context, app *models.Application) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.apps[app.ID]; exists {
		return sentinel.ErrConflict
	}
	app.Revision = 0
	s.apps[app.ID] = app.Clone()
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, appID id.ApplicationID) (*models.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	app, ok := s.apps[appID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return app.Clone(), nil
}

func (s *InMemoryStore) ListByFarmer(_ context.Context, farmerID id.FarmerID) ([]*models.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Application
	for _, app := range s.apps {
		if app.FarmerID == farmerID {
			out = append(out, app.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *InMemoryStore) Update(_ context.Context, app *models.Application) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.apps[app.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if current.Revision != app.Revision {
		return sentinel.ErrConflict
	}
	app.Revision++
	s.apps[app.ID] = app.Clone()
	return nil
}

func (s *InMemoryStore) MaxNumberForYear(_ context.Context, year int) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	prefix := fmt.Sprintf("GACP-%04d-", year)
	var max string
	for _, app := range s.apps {
		// Zero-padded sequences compare correctly as strings.
		if strings.HasPrefix(app.Number, prefix) && app.Number > max {
			max = app.Number
		}
	}
	return max, nil
}

func (s *InMemoryStore) ListByStatusOlderThan(_ context.Context, status models.Status, cutoff time.Time) ([]*models.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Application
	for _, app := range s.apps {
		if app.Status == status && app.UpdatedAt.Before(cutoff) {
			out = append(out, app.Clone())
		}
	}
	return out, nil
}
