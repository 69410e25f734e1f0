package phonepe

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	signer, err := NewSigner("salt-key", "1")
	require.NoError(t, err)
	c, err := NewClient(ClientOptions{
		BaseURL:    srv.URL,
		MerchantID: "MERCHANT",
		Timeout:    2 * time.Second,
		Signer:     signer,
	})
	require.NoError(t, err)
	return c
}

func TestCreatePayment_SignsAndReturnsRedirect(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/pg/v1/pay", r.URL.Path)
		require.Equal(t, "MERCHANT", r.Header.Get("X-MERCHANT-ID"))

		var body struct {
			Request string `json:"request"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		signer, _ := NewSigner("salt-key", "1")
		_, want := signer.SignForCreate(mustDecode(t, body.Request), "/pg/v1/pay")
		require.Equal(t, want, r.Header.Get("X-VERIFY"))

		var req PayRequest
		require.NoError(t, json.Unmarshal(mustDecode(t, body.Request), &req))
		require.Equal(t, "MERCHANT", req.MerchantID)
		require.Equal(t, int64(49900), req.Amount)
		require.Equal(t, InstrumentPayPage, req.PaymentInstrument.Type)

		_, _ = w.Write([]byte(`{"success":true,"code":"PAYMENT_INITIATED","data":{"merchantTransactionId":"SUB-1","instrumentResponse":{"type":"PAY_PAGE","redirectInfo":{"url":"https://pay.example/abc","method":"GET"}}}}`))
	})

	resp, err := c.CreatePayment(context.Background(), &PayRequest{
		MerchantTransactionID: "SUB-1",
		MerchantUserID:        "u1",
		Amount:                49900,
	})
	require.NoError(t, err)
	require.Equal(t, "https://pay.example/abc", resp.RedirectURL())
	require.NotEmpty(t, resp.Raw)
}

func TestCreatePayment_Rejected(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"success":false,"code":"BAD_REQUEST","message":"invalid amount"}`))
	})

	resp, err := c.CreatePayment(context.Background(), &PayRequest{MerchantTransactionID: "SUB-2", Amount: 1})
	require.ErrorIs(t, err, ErrGatewayRejected)
	require.NotNil(t, resp)
	require.Equal(t, "BAD_REQUEST", resp.Code)
}

func TestCreatePayment_ServerErrorIsUnavailable(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := c.CreatePayment(context.Background(), &PayRequest{MerchantTransactionID: "SUB-3", Amount: 1})
	require.ErrorIs(t, err, ErrGatewayUnavailable)
	require.False(t, errors.Is(err, ErrGatewayRejected))
}

func TestCreatePayment_TimeoutIsUnavailable(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := c.CreatePayment(ctx, &PayRequest{MerchantTransactionID: "SUB-4", Amount: 1})
	require.ErrorIs(t, err, ErrGatewayUnavailable)
}

func TestQueryStatus_PendingIsNotAnError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/pg/v1/status/MERCHANT/SUB-5", r.URL.Path)
		signer, _ := NewSigner("salt-key", "1")
		require.Equal(t, signer.SignForStatusQuery("/pg/v1/status/MERCHANT/SUB-5"), r.Header.Get("X-VERIFY"))
		_, _ = w.Write([]byte(`{"success":false,"code":"PAYMENT_PENDING","data":{"merchantTransactionId":"SUB-5","state":"PENDING"}}`))
	})

	resp, err := c.QueryStatus(context.Background(), "SUB-5")
	require.NoError(t, err)
	require.Equal(t, CodePaymentPending, resp.Code)
	require.Equal(t, "SUB-5", resp.MerchantTransactionID())
}

func TestQueryStatus_GarbageIsUnavailable(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>maintenance</html>`))
	})

	_, err := c.QueryStatus(context.Background(), "SUB-6")
	require.ErrorIs(t, err, ErrGatewayUnavailable)
}

func TestDecodeCallback(t *testing.T) {
	raw := `{"success":true,"code":"PAYMENT_SUCCESS","data":{"merchantTransactionId":"SUB-7","amount":49900}}`
	resp, err := DecodeCallback(base64.StdEncoding.EncodeToString([]byte(raw)))
	require.NoError(t, err)
	require.Equal(t, "SUB-7", resp.MerchantTransactionID())
	require.JSONEq(t, raw, string(resp.Raw))

	_, err = DecodeCallback("!!not-base64!!")
	require.Error(t, err)
}

func mustDecode(t *testing.T, s string) []byte {
	t.Helper()
	b, err := base64.StdEncoding.DecodeString(s)
	require.NoError(t, err)
	return b
}
