// Package token issues and validates the HS256 bearer tokens carried by
// farmers, staff, and auditors. Token issuance for end users happens in the
// identity service; this package only needs to agree on the claim shape.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	dErrors "certflow/pkg/domain-errors"
)

// Claims carries the actor identity the workflow engine authorizes against.
type Claims struct {
	ActorID string `json:"actor_id"`
	Role    string `json:"role"`
	jwt.RegisteredClaims
}

// Service handles JWT creation and validation.
type Service struct {
	signingKey []byte
	issuer     string
}

func NewService(signingKey, issuer string) *Service {
	return &Service{signingKey: []byte(signingKey), issuer: issuer}
}

// Issue signs a token for the given actor. Used by tests and the dev issuer
// endpoint; production tokens come from the identity service with the same key.
func (s *Service) Issue(actorID, role string, expiresIn time.Duration) (string, error) {
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		ActorID: actorID,
		Role:    role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiresIn)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    s.issuer,
			ID:        uuid.NewString(),
		},
	})
	return t.SignedString(s.signingKey)
}

// ValidateToken parses and verifies a bearer token, returning its claims.
func (s *Service) ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.signingKey, nil
	})
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnauthorized, "invalid or expired token")
	}
	if !parsed.Valid || claims.ActorID == "" || claims.Role == "" {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "token is missing actor claims")
	}
	return claims, nil
}
