package signature

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifyAcceptsValidSignature(t *testing.T) {
	verifier, err := NewVerifier("test-secret")
	require.NoError(t, err)

	body := []byte(`{"eventId":"evt_2026_0001","shipmentId":"shp_xyz123"}`)
	sig := verifier.Sign(body)

	assert.NoError(t, verifier.Verify(body, sig))
}

func TestVerifyRejectsTamperedBody(t *testing.T) {
	verifier, err := NewVerifier("test-secret")
	require.NoError(t, err)

	body := []byte(`{"eventId":"evt_2026_0001"}`)
	sig := verifier.Sign(body)

	tampered := []byte(`{"eventId":"evt_2026_0002"}`)
	assert.ErrorIs(t, verifier.Verify(tampered, sig), ErrInvalidSignature)
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	signer, err := NewVerifier("secret-a")
	require.NoError(t, err)
	verifier, err := NewVerifier("secret-b")
	require.NoError(t, err)

	body := []byte(`{"eventId":"evt_2026_0001"}`)
	assert.ErrorIs(t, verifier.Verify(body, signer.Sign(body)), ErrInvalidSignature)
}

func TestVerifyRejectsMissingSignature(t *testing.T) {
	verifier, err := NewVerifier("test-secret")
	require.NoError(t, err)

	assert.ErrorIs(t, verifier.Verify([]byte(`{}`), ""), ErrMissingSignature)
}

func TestVerifyRejectsTruncatedSignature(t *testing.T) {
	verifier, err := NewVerifier("test-secret")
	require.NoError(t, err)

	body := []byte(`{"eventId":"evt_2026_0001"}`)
	sig := verifier.Sign(body)

	assert.ErrorIs(t, verifier.Verify(body, sig[:len(sig)-2]), ErrInvalidSignature)
}

func TestNewVerifierRequiresSecret(t *testing.T) {
	_, err := NewVerifier("")
	assert.Error(t, err)
}
