package audittrail

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"certflow/internal/workflow/models"
	id "certflow/pkg/domain"
	"certflow/pkg/platform/sentinel"
)

type RecorderSuite struct {
	suite.Suite
	store    *InMemoryStore
	recorder *Recorder
}

func (s *RecorderSuite) SetupTest() {
	s.store = NewInMemoryStore()
	s.recorder = NewRecorder(s.store, slog.New(slog.DiscardHandler), nil)
}

func (s *RecorderSuite) TestRecordFillsIdentityAndTimestamp() {
	appID := id.ApplicationID(uuid.New())
	s.recorder.Record(context.Background(), Entry{
		ApplicationID: appID,
		ActorID:       uuid.NewString(),
		ActorRole:     models.RoleFarmer,
		Action:        ActionSubmitForReview,
		FromStatus:    models.StatusDraft,
		ToStatus:      models.StatusSubmitted,
	})

	entries, err := s.recorder.List(context.Background(), appID)
	require.NoError(s.T(), err)
	require.Len(s.T(), entries, 1)
	assert.NotEqual(s.T(), uuid.Nil, entries[0].ID)
	assert.False(s.T(), entries[0].Timestamp.IsZero())
	assert.Equal(s.T(), models.StatusDraft, entries[0].FromStatus)
	assert.Equal(s.T(), models.StatusSubmitted, entries[0].ToStatus)
}

func (s *RecorderSuite) TestMutationAttemptsFail() {
	err := s.store.Update(context.Background(), uuid.New(), Entry{})
	assert.ErrorIs(s.T(), err, sentinel.ErrImmutable)

	err = s.store.Delete(context.Background(), uuid.New())
	assert.ErrorIs(s.T(), err, sentinel.ErrImmutable)
}

func TestRecorderSuite(t *testing.T) {
	suite.Run(t, new(RecorderSuite))
}

type failingStore struct{}

func (failingStore) Append(context.Context, Entry) error { return errors.New("sink down") }
func (failingStore) ListByApplication(context.Context, id.ApplicationID) ([]Entry, error) {
	return nil, nil
}

func TestRecordSwallowsAppendFailure(t *testing.T) {
	// Losing an audit entry must never abort the caller's transition; the
	// failure goes to logs and the alert counter instead.
	r := NewRecorder(failingStore{}, slog.New(slog.DiscardHandler), nil)
	assert.NotPanics(t, func() {
		r.Record(context.Background(), Entry{Action: ActionConfirmPayment})
	})
}
