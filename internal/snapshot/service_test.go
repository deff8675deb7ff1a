package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	id "certflow/pkg/domain"
	dErrors "certflow/pkg/domain-errors"
	"certflow/pkg/platform/sentinel"
)

type ServiceSuite struct {
	suite.Suite
	store   *InMemoryStore
	service *Service
	appID   id.ApplicationID
}

func (s *ServiceSuite) SetupTest() {
	s.store = NewInMemoryStore()
	s.service = NewService(s.store)
	s.appID = id.ApplicationID(uuid.New())
}

func (s *ServiceSuite) TestVersionsAreStrictlyIncreasing() {
	const n = 5
	for i := 1; i <= n; i++ {
		data := json.RawMessage(fmt.Sprintf(`{"plot_size":%d}`, i))
		snap, err := s.service.Create(context.Background(), s.appID, data)
		require.NoError(s.T(), err)
		assert.Equal(s.T(), i, snap.Version)
		assert.Len(s.T(), snap.Checksum, 64)
	}

	maxVersion, err := s.store.MaxVersion(context.Background(), s.appID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), n, maxVersion)

	// A snapshot exists for every version up to the maximum, each verifiable.
	for v := 1; v <= n; v++ {
		ok, err := s.service.Verify(context.Background(), s.appID, v)
		require.NoError(s.T(), err)
		assert.True(s.T(), ok, "version %d checksum", v)
	}
}

func (s *ServiceSuite) TestChecksumDetectsTampering() {
	_, err := s.service.Create(context.Background(), s.appID, json.RawMessage(`{"herb":"turmeric"}`))
	require.NoError(s.T(), err)

	// Reach under the service and corrupt the stored bytes.
	stored, err := s.store.Find(context.Background(), s.appID, 1)
	require.NoError(s.T(), err)
	tampered := *stored
	tampered.Data = json.RawMessage(`{"herb":"cannabis"}`)
	s.store.mu.Lock()
	s.store.snapshots[versionKey{appID: s.appID, version: 1}] = tampered
	s.store.mu.Unlock()

	ok, err := s.service.Verify(context.Background(), s.appID, 1)
	require.NoError(s.T(), err)
	assert.False(s.T(), ok)
}

func (s *ServiceSuite) TestDuplicateVersionRejected() {
	snap, err := s.service.Create(context.Background(), s.appID, json.RawMessage(`{}`))
	require.NoError(s.T(), err)

	err = s.store.Insert(context.Background(), *snap)
	assert.ErrorIs(s.T(), err, sentinel.ErrImmutable)
}

func (s *ServiceSuite) TestEmptyDataRejected() {
	_, err := s.service.Create(context.Background(), s.appID, nil)
	require.Error(s.T(), err)
	assert.True(s.T(), dErrors.HasCode(err, dErrors.CodeBadRequest))
}

func (s *ServiceSuite) TestVersionsAreIndependentPerApplication() {
	other := id.ApplicationID(uuid.New())
	_, err := s.service.Create(context.Background(), s.appID, json.RawMessage(`{"a":1}`))
	require.NoError(s.T(), err)

	snap, err := s.service.Create(context.Background(), other, json.RawMessage(`{"b":2}`))
	require.NoError(s.T(), err)
	assert.Equal(s.T(), 1, snap.Version)
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}
