package phonepe

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"
)

func sha(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

func TestNewSigner_RequiresSecret(t *testing.T) {
	_, err := NewSigner("", "1")
	require.ErrorIs(t, err, ErrSignerNotConfigured)
	_, err = NewSigner("key", " ")
	require.ErrorIs(t, err, ErrSignerNotConfigured)
}

func TestSigner_SignForCreate(t *testing.T) {
	s, err := NewSigner("salt-key", "1")
	require.NoError(t, err)

	payload := []byte(`{"merchantId":"M1","amount":50000}`)
	b64, checksum := s.SignForCreate(payload, "/pg/v1/pay")

	require.Equal(t, base64.StdEncoding.EncodeToString(payload), b64)
	require.Equal(t, sha(b64+"/pg/v1/pay"+"salt-key")+"###1", checksum)
}

func TestSigner_SignForStatusQuery(t *testing.T) {
	s, _ := NewSigner("salt-key", "2")
	endpoint := "/pg/v1/status/M1/SUB-abc123"
	require.Equal(t, sha(endpoint+"salt-key")+"###2", s.SignForStatusQuery(endpoint))
}

func TestSigner_Verify(t *testing.T) {
	s, _ := NewSigner("salt-key", "1")
	body := base64.StdEncoding.EncodeToString([]byte(`{"code":"PAYMENT_SUCCESS"}`))
	sig := sha(body+"salt-key") + "###1"

	require.True(t, s.Verify(body, sig))
	require.False(t, s.Verify(body, sha(body+"salt-key")+"###2"), "salt index is part of the signature")
	require.False(t, s.Verify(body, ""))
	require.False(t, s.Verify("", sig))
}

func TestSigner_Verify_RejectsSingleByteTamper(t *testing.T) {
	s, _ := NewSigner("salt-key", "1")
	body := base64.StdEncoding.EncodeToString([]byte(`{"code":"PAYMENT_SUCCESS","data":{"merchantTransactionId":"SUB-1"}}`))
	sig := sha(body+"salt-key") + "###1"

	tampered := []byte(body)
	if tampered[5] == 'A' {
		tampered[5] = 'B'
	} else {
		tampered[5] = 'A'
	}
	require.False(t, s.Verify(string(tampered), sig))
}
