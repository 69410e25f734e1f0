package phonepe

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// Response codes the gateway uses on both the status API and callbacks.
const (
	CodePaymentSuccess = "PAYMENT_SUCCESS"
	CodePaymentPending = "PAYMENT_PENDING"

	StateCompleted      = "COMPLETED"
	StatePending        = "PENDING"
	ResponseCodeSuccess = "SUCCESS"

	InstrumentPayPage = "PAY_PAGE"
)

type PaymentInstrument struct {
	Type string `json:"type"`
}

// PayRequest is the JSON document that is base64-encoded into the pay call.
type PayRequest struct {
	MerchantID            string            `json:"merchantId"`
	MerchantTransactionID string            `json:"merchantTransactionId"`
	MerchantUserID        string            `json:"merchantUserId"`
	Amount                int64             `json:"amount"`
	RedirectURL           string            `json:"redirectUrl"`
	CallbackURL           string            `json:"callbackUrl"`
	PaymentInstrument     PaymentInstrument `json:"paymentInstrument"`
}

type RedirectInfo struct {
	URL    string `json:"url"`
	Method string `json:"method"`
}

type InstrumentResponse struct {
	Type         string        `json:"type"`
	RedirectInfo *RedirectInfo `json:"redirectInfo,omitempty"`
}

type ResponseData struct {
	MerchantID            string              `json:"merchantId"`
	MerchantTransactionID string              `json:"merchantTransactionId"`
	TransactionID         string              `json:"transactionId"`
	Amount                int64               `json:"amount"`
	State                 string              `json:"state"`
	ResponseCode          string              `json:"responseCode"`
	InstrumentResponse    *InstrumentResponse `json:"instrumentResponse,omitempty"`
}

// Response is the envelope shared by pay, status and callback payloads.
// Raw keeps the bytes exactly as received for auditing.
type Response struct {
	Success bool          `json:"success"`
	Code    string        `json:"code"`
	Message string        `json:"message"`
	Data    *ResponseData `json:"data,omitempty"`

	Raw json.RawMessage `json:"-"`
}

func (r *Response) RedirectURL() string {
	if r == nil || r.Data == nil || r.Data.InstrumentResponse == nil || r.Data.InstrumentResponse.RedirectInfo == nil {
		return ""
	}
	return r.Data.InstrumentResponse.RedirectInfo.URL
}

func (r *Response) MerchantTransactionID() string {
	if r == nil || r.Data == nil {
		return ""
	}
	return r.Data.MerchantTransactionID
}

func decodeResponse(body []byte) (*Response, error) {
	var r Response
	if err := json.Unmarshal(body, &r); err != nil {
		return nil, err
	}
	r.Raw = append(json.RawMessage(nil), body...)
	return &r, nil
}

// DecodeCallback decodes the base64 "response" field of a server-to-server callback.
// It does not verify the checksum; see Signer.Verify.
func DecodeCallback(base64Body string) (*Response, error) {
	raw, err := base64.StdEncoding.DecodeString(base64Body)
	if err != nil {
		return nil, fmt.Errorf("decode callback base64: %w", err)
	}
	r, err := decodeResponse(raw)
	if err != nil {
		return nil, fmt.Errorf("decode callback json: %w", err)
	}
	return r, nil
}
