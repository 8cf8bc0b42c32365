package crypto

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"

	"github.com/rs/zerolog"
)

var ErrInvalidSignature = errors.New("invalid signature")

// Fingerprint returns the hex SHA-256 digest of data. It identifies an index
// snapshot by content.
func Fingerprint(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

type Signer struct {
	secretKey []byte
	logger    zerolog.Logger
}

func NewSigner(secretKey string, logger zerolog.Logger) *Signer {
	return &Signer{
		secretKey: []byte(secretKey),
		logger:    logger,
	}
}

func (s *Signer) Enabled() bool {
	return s != nil && len(s.secretKey) > 0
}

func (s *Signer) Sign(data []byte) string {
	mac := hmac.New(sha256.New, s.secretKey)
	mac.Write(data)
	return hex.EncodeToString(mac.Sum(nil))
}

func (s *Signer) Verify(data []byte, signature string) error {
	expected := s.Sign(data)

	if !hmac.Equal([]byte(expected), []byte(signature)) {
		s.logger.Warn().
			Str("expected", expected).
			Str("received", signature).
			Msg("Snapshot signature verification failed")
		return ErrInvalidSignature
	}

	return nil
}
