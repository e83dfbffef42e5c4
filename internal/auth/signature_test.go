package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/NordCoder/Credgate/internal/domain/auth"
)

func TestSigner_AcceptsMatchingSignature(t *testing.T) {
	t.Parallel()
	s, err := NewSigner("s")
	require.NoError(t, err)

	payload := []byte(`{"event":"x"}`)
	mac := hmac.New(sha256.New, []byte("s"))
	mac.Write(payload)
	header := "sha256=" + hex.EncodeToString(mac.Sum(nil))

	assert.Equal(t, header, s.Sign(payload))
	assert.NoError(t, s.Verify(payload, header))
	assert.ErrorIs(t, s.Verify(payload, "sha256=deadbeef"), domainauth.ErrSignatureMismatch)
}

func TestSigner_Deterministic(t *testing.T) {
	t.Parallel()
	s, err := NewSigner("secret")
	require.NoError(t, err)

	payload := []byte(`{"event":"transaction.created","data":{"id":"txn_1"}}`)
	assert.Equal(t, s.Sign(payload), s.Sign(payload))

	sig := s.Sign(payload)
	for i := range payload {
		mutated := append([]byte(nil), payload...)
		mutated[i] ^= 0x01
		require.ErrorIs(t, s.Verify(mutated, sig), domainauth.ErrSignatureMismatch, "byte %d", i)
	}
}

func TestSigner_Failures(t *testing.T) {
	t.Parallel()

	_, err := NewSigner("")
	assert.Equal(t, domainauth.KindConfiguration, domainauth.KindOf(err))

	var unset *Signer
	assert.Equal(t, domainauth.KindConfiguration, domainauth.KindOf(unset.Verify([]byte("x"), "sha256=00")))

	s, err := NewSigner("s")
	require.NoError(t, err)
	assert.ErrorIs(t, s.Verify([]byte("x"), ""), domainauth.ErrSignatureRequired)
	assert.ErrorIs(t, s.Verify([]byte("x"), "md5=abc"), domainauth.ErrSignatureMismatch)
}

func TestHasher(t *testing.T) {
	t.Parallel()
	h := NewHasher(4)

	hash, err := h.Hash("Abcd123!")
	require.NoError(t, err)
	assert.NotEqual(t, "Abcd123!", hash)
	assert.True(t, h.Compare(hash, "Abcd123!"))
	assert.False(t, h.Compare(hash, "Abcd123?"))
}

func TestHashToken(t *testing.T) {
	t.Parallel()
	assert.Equal(t, HashToken("a"), HashToken("a"))
	assert.NotEqual(t, HashToken("a"), HashToken("b"))
	assert.NotContains(t, HashToken("raw-token"), "raw-token")
}
