package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
)

// Header carries the caller-supplied HMAC signature.
const Header = "X-Signature"

var (
	ErrMissingSignature = errors.New("missing signature")
	ErrInvalidSignature = errors.New("invalid signature")
)

// Verifier authenticates inbound requests by recomputing an HMAC-SHA256
// digest over the exact raw bytes received and comparing it to the
// supplied hex signature in constant time. It must never operate on a
// re-serialized body: re-serialization can change byte-for-byte content
// and invalidate a legitimate signature.
type Verifier struct {
	secret []byte
}

// NewVerifier creates a Verifier. An empty secret is a configuration
// error, not a per-request failure.
func NewVerifier(secret string) (*Verifier, error) {
	if secret == "" {
		return nil, fmt.Errorf("signature secret cannot be empty")
	}
	return &Verifier{secret: []byte(secret)}, nil
}

// Verify checks signature against the HMAC-SHA256 hex digest of body.
func (v *Verifier) Verify(body []byte, signature string) error {
	if signature == "" {
		return ErrMissingSignature
	}

	mac := hmac.New(sha256.New, v.secret)
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))

	if len(signature) != len(expected) {
		return ErrInvalidSignature
	}
	if !hmac.Equal([]byte(signature), []byte(expected)) {
		return ErrInvalidSignature
	}

	return nil
}

// Sign returns the hex HMAC-SHA256 digest of payload. Kept alongside
// Verify so tests and clients produce signatures the same way they are
// checked.
func (v *Verifier) Sign(payload []byte) string {
	mac := hmac.New(sha256.New, v.secret)
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}
