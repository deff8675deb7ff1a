package dispatch

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	id "certflow/pkg/domain"
	dErrors "certflow/pkg/domain-errors"
)

type DispatcherSuite struct {
	suite.Suite
	store      *InMemoryStore
	dispatcher *Dispatcher
	ctx        context.Context
}

func (s *DispatcherSuite) SetupTest() {
	s.store = NewInMemoryStore()
	s.dispatcher = NewDispatcher(s.store)
	s.ctx = context.Background()
}

func (s *DispatcherSuite) addAuditor(name string, provinces ...string) id.AuditorID {
	auditorID := id.NewAuditorID()
	s.store.AddAuditor(Auditor{ID: auditorID, Name: name, Provinces: provinces, Active: true})
	return auditorID
}

func (s *DispatcherSuite) TestPrefersProvinceMatch() {
	chiangMai := s.addAuditor("Anong", "Chiang Mai")
	s.addAuditor("Boon", "Phuket")

	assignment, err := s.dispatcher.Assign(s.ctx, id.NewApplicationID(), "Chiang Mai")
	s.Require().NoError(err)
	s.Equal(chiangMai, assignment.AuditorID)
	s.Equal("Chiang Mai", assignment.Province)
	s.True(assignment.Active)
}

func (s *DispatcherSuite) TestLeastLoadedAmongMatches() {
	busy := s.addAuditor("Anong", "Chiang Mai")
	idle := s.addAuditor("Boon", "Chiang Mai")

	for range 3 {
		s.Require().NoError(s.store.InsertAssignment(s.ctx, Assignment{
			ApplicationID: id.NewApplicationID(), AuditorID: busy, Active: true,
		}))
	}

	assignment, err := s.dispatcher.Assign(s.ctx, id.NewApplicationID(), "Chiang Mai")
	s.Require().NoError(err)
	s.Equal(idle, assignment.AuditorID)
}

func (s *DispatcherSuite) TestFallsBackToLeastLoadedOverall() {
	s.addAuditor("Anong", "Chiang Mai")
	lightest := s.addAuditor("Boon", "Phuket")

	// Nobody covers Khon Kaen; Anong already carries one inspection.
	first, err := s.dispatcher.Assign(s.ctx, id.NewApplicationID(), "Chiang Mai")
	s.Require().NoError(err)
	s.NotEqual(lightest, first.AuditorID)

	assignment, err := s.dispatcher.Assign(s.ctx, id.NewApplicationID(), "Khon Kaen")
	s.Require().NoError(err)
	s.Equal(lightest, assignment.AuditorID)
}

func (s *DispatcherSuite) TestEmptyPoolFails() {
	_, err := s.dispatcher.Assign(s.ctx, id.NewApplicationID(), "Chiang Mai")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeNoAuditorAvailable))
}

func (s *DispatcherSuite) TestInactiveAuditorsIgnored() {
	auditorID := id.NewAuditorID()
	s.store.AddAuditor(Auditor{ID: auditorID, Name: "Anong", Provinces: []string{"Chiang Mai"}, Active: false})

	_, err := s.dispatcher.Assign(s.ctx, id.NewApplicationID(), "Chiang Mai")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeNoAuditorAvailable))
}

func (s *DispatcherSuite) TestCompleteReleasesCapacity() {
	auditorID := s.addAuditor("Anong", "Chiang Mai")
	appID := id.NewApplicationID()

	_, err := s.dispatcher.Assign(s.ctx, appID, "Chiang Mai")
	s.Require().NoError(err)

	counts, err := s.store.ActiveAssignmentCounts(s.ctx)
	s.Require().NoError(err)
	s.Equal(1, counts[auditorID])

	s.Require().NoError(s.dispatcher.Complete(s.ctx, appID))

	counts, err = s.store.ActiveAssignmentCounts(s.ctx)
	s.Require().NoError(err)
	s.Zero(counts[auditorID])
}

func (s *DispatcherSuite) TestCompleteWithoutAssignment() {
	err := s.dispatcher.Complete(s.ctx, id.NewApplicationID())
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func TestDispatcherSuite(t *testing.T) {
	suite.Run(t, new(DispatcherSuite))
}
