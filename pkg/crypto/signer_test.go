package crypto

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestFingerprint_IsStable(t *testing.T) {
	a := Fingerprint([]byte("[]\n"))
	b := Fingerprint([]byte("[]\n"))

	assert.Equal(t, a, b)
	assert.Len(t, a, 64)
	assert.NotEqual(t, a, Fingerprint([]byte("[ ]\n")))
}

func TestSigner_SignAndVerify(t *testing.T) {
	s := NewSigner("secret", zerolog.Nop())
	data := []byte(`[{"customerId":"c1"}]`)

	sig := s.Sign(data)

	assert.NoError(t, s.Verify(data, sig))
	assert.ErrorIs(t, s.Verify([]byte("tampered"), sig), ErrInvalidSignature)
}

func TestSigner_DifferentKeysDisagree(t *testing.T) {
	data := []byte("snapshot")

	a := NewSigner("one", zerolog.Nop()).Sign(data)
	b := NewSigner("two", zerolog.Nop()).Sign(data)

	assert.NotEqual(t, a, b)
}

func TestSigner_Enabled(t *testing.T) {
	var nilSigner *Signer

	assert.False(t, nilSigner.Enabled())
	assert.False(t, NewSigner("", zerolog.Nop()).Enabled())
	assert.True(t, NewSigner("k", zerolog.Nop()).Enabled())
}
