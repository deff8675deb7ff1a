package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"

	dErrors "certflow/pkg/domain-errors"
)

// SignatureVerifier authenticates gateway webhook payloads. Verification runs
// strictly before the ledger is touched; a bad signature never reaches it.
type SignatureVerifier interface {
	Verify(payload []byte, signature string) error
}

// HMACVerifier checks the hex-encoded HMAC-SHA256 the gateway sends in the
// X-Gateway-Signature header, computed over the raw request body with the
// shared webhook secret.
type HMACVerifier struct {
	secret []byte
}

func NewHMACVerifier(secret string) *HMACVerifier {
	return &HMACVerifier{secret: []byte(secret)}
}

func (v *HMACVerifier) Verify(payload []byte, signature string) error {
	if signature == "" {
		return dErrors.New(dErrors.CodeUnauthorized, "missing webhook signature")
	}
	provided, err := hex.DecodeString(signature)
	if err != nil {
		return dErrors.New(dErrors.CodeUnauthorized, "malformed webhook signature")
	}
	mac := hmac.New(sha256.New, v.secret)
	mac.Write(payload)
	if !hmac.Equal(provided, mac.Sum(nil)) {
		return dErrors.New(dErrors.CodeUnauthorized, "webhook signature mismatch")
	}
	return nil
}
