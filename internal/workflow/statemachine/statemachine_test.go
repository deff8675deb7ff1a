package statemachine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"certflow/internal/workflow/models"
	dErrors "certflow/pkg/domain-errors"
)

func TestTransitionClosure(t *testing.T) {
	// Every (from, to) pair not in the declared successor set must be invalid,
	// except from == to.
	m := New(Config{})
	for _, from := range models.AllStatuses() {
		declared := map[models.Status]bool{}
		for _, s := range m.NextStates(from) {
			declared[s] = true
		}
		for _, to := range models.AllStatuses() {
			valid, err := m.IsValidTransition(from, to)
			require.NoError(t, err)
			if from == to {
				assert.True(t, valid, "same-state %s must be a no-op", from)
				continue
			}
			assert.Equal(t, declared[to], valid, "transition %s -> %s", from, to)
		}
	}
}

func TestUnknownStateRejected(t *testing.T) {
	m := New(Config{})

	_, err := m.IsValidTransition(models.Status("garbled"), models.StatusSubmitted)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnknownState))

	_, err = m.IsValidTransition(models.StatusDraft, models.Status("garbled"))
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnknownState))

	assert.Empty(t, m.NextStates(models.Status("garbled")))
}

func TestTerminalStates(t *testing.T) {
	m := New(Config{})
	for _, s := range []models.Status{models.StatusRejected, models.StatusExpired, models.StatusRevoked, models.StatusDeleted} {
		assert.True(t, m.IsTerminal(s), "%s must be terminal", s)
		assert.Empty(t, m.NextStates(s))
	}
	assert.False(t, m.IsTerminal(models.StatusDraft))
	// certificate_issued allows revocation, so it is not strictly terminal.
	assert.False(t, m.IsTerminal(models.StatusCertificateIssued))
}

func TestRestartPolicyGated(t *testing.T) {
	strict := New(Config{})
	valid, err := strict.IsValidTransition(models.StatusRejected, models.StatusDraft)
	require.NoError(t, err)
	assert.False(t, valid, "restart must be off by default")

	relaxed := New(Config{AllowRestart: true})
	for _, from := range []models.Status{models.StatusRejected, models.StatusExpired, models.StatusRevoked} {
		valid, err := relaxed.IsValidTransition(from, models.StatusDraft)
		require.NoError(t, err)
		assert.True(t, valid, "restart edge %s -> draft", from)
	}
}

func TestHappyPathEdges(t *testing.T) {
	m := New(Config{})
	path := []models.Status{
		models.StatusDraft, models.StatusSubmitted, models.StatusUnderReview,
		models.StatusPaymentPending, models.StatusPaymentVerified,
		models.StatusInspectionScheduled, models.StatusInspectionCompleted,
		models.StatusPhase2PaymentPending, models.StatusPhase2PaymentVerified,
		models.StatusApproved, models.StatusCertificateIssued,
	}
	for i := 0; i < len(path)-1; i++ {
		valid, err := m.IsValidTransition(path[i], path[i+1])
		require.NoError(t, err)
		assert.True(t, valid, "%s -> %s", path[i], path[i+1])
	}
}
