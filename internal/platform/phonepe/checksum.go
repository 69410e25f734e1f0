package phonepe

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"strings"
)

// checksumSeparator joins the digest and the salt index in X-VERIFY headers.
const checksumSeparator = "###"

var ErrSignerNotConfigured = errors.New("phonepe: salt key and salt index are required")

// Signer produces and verifies X-VERIFY checksums. It is immutable once built.
type Signer struct {
	saltKey   string
	saltIndex string
}

func NewSigner(saltKey, saltIndex string) (*Signer, error) {
	if strings.TrimSpace(saltKey) == "" || strings.TrimSpace(saltIndex) == "" {
		return nil, ErrSignerNotConfigured
	}
	return &Signer{saltKey: saltKey, saltIndex: saltIndex}, nil
}

func (s *Signer) digest(parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(p))
	}
	h.Write([]byte(s.saltKey))
	return hex.EncodeToString(h.Sum(nil)) + checksumSeparator + s.saltIndex
}

// SignForCreate base64-encodes payload and signs it together with the endpoint path.
func (s *Signer) SignForCreate(payload []byte, endpoint string) (base64Payload, checksum string) {
	base64Payload = base64.StdEncoding.EncodeToString(payload)
	return base64Payload, s.digest(base64Payload, endpoint)
}

// SignForStatusQuery signs a request that carries no body.
func (s *Signer) SignForStatusQuery(endpoint string) string {
	return s.digest(endpoint)
}

// Verify checks a callback checksum over the base64 body as received.
func (s *Signer) Verify(base64Payload, presented string) bool {
	if base64Payload == "" || presented == "" {
		return false
	}
	expected := s.digest(base64Payload)
	return subtle.ConstantTimeCompare([]byte(expected), []byte(presented)) == 1
}
