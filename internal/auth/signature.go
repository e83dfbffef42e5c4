package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"

	domainauth "github.com/NordCoder/Credgate/internal/domain/auth"
)

const SignaturePrefix = "sha256="

// Signer computes and checks webhook signatures of the form sha256=<hex>.
type Signer struct {
	secret []byte
}

func NewSigner(secret string) (*Signer, error) {
	if secret == "" {
		return nil, domainauth.Configuration("webhook secret is not configured")
	}
	return &Signer{secret: []byte(secret)}, nil
}

func (s *Signer) Sign(payload []byte) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write(payload)
	return SignaturePrefix + hex.EncodeToString(mac.Sum(nil))
}

func (s *Signer) Verify(payload []byte, header string) error {
	if s == nil || len(s.secret) == 0 {
		return domainauth.Configuration("webhook secret is not configured")
	}
	if header == "" {
		return domainauth.ErrSignatureRequired
	}
	if !hmac.Equal([]byte(s.Sign(payload)), []byte(header)) {
		return domainauth.ErrSignatureMismatch
	}
	return nil
}

// HashToken is the storage key for a refresh token. Stores never see the
// token itself.
func HashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}
