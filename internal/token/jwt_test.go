package token

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "certflow/pkg/domain-errors"
)

func TestIssueAndValidate(t *testing.T) {
	svc := NewService("signing-key", "certflow")

	raw, err := svc.Issue("f3b1e0a2-0000-4000-8000-000000000001", "farmer", time.Hour)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(raw)
	require.NoError(t, err)
	assert.Equal(t, "f3b1e0a2-0000-4000-8000-000000000001", claims.ActorID)
	assert.Equal(t, "farmer", claims.Role)
	assert.Equal(t, "certflow", claims.Issuer)
}

func TestExpiredTokenRejected(t *testing.T) {
	svc := NewService("signing-key", "certflow")

	raw, err := svc.Issue("f3b1e0a2-0000-4000-8000-000000000001", "farmer", -time.Minute)
	require.NoError(t, err)

	_, err = svc.ValidateToken(raw)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func TestWrongKeyRejected(t *testing.T) {
	issuer := NewService("signing-key", "certflow")
	validator := NewService("other-key", "certflow")

	raw, err := issuer.Issue("f3b1e0a2-0000-4000-8000-000000000001", "reviewer", time.Hour)
	require.NoError(t, err)

	_, err = validator.ValidateToken(raw)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func TestMissingClaimsRejected(t *testing.T) {
	svc := NewService("signing-key", "certflow")

	raw, err := svc.Issue("", "", time.Hour)
	require.NoError(t, err)

	_, err = svc.ValidateToken(raw)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}
