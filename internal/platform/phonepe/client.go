package phonepe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/fatflowers/examportal/pkg/metrics"
)

var (
	// ErrGatewayRejected means the gateway answered and refused the request.
	ErrGatewayRejected = errors.New("phonepe: request rejected by gateway")
	// ErrGatewayUnavailable means the outcome is unknown: transport failure, timeout or 5xx.
	ErrGatewayUnavailable = errors.New("phonepe: gateway unavailable")
)

const (
	headerVerify     = "X-VERIFY"
	headerMerchantID = "X-MERCHANT-ID"
)

type ClientOptions struct {
	BaseURL              string
	MerchantID           string
	PayEndpoint          string
	StatusEndpointPrefix string
	Timeout              time.Duration
	Signer               *Signer
}

// Client talks to the PG v1 API. It never touches local state.
type Client struct {
	http         *resty.Client
	signer       *Signer
	merchantID   string
	payEndpoint  string
	statusPrefix string
}

func NewClient(opts ClientOptions) (*Client, error) {
	if opts.Signer == nil {
		return nil, ErrSignerNotConfigured
	}
	if opts.BaseURL == "" || opts.MerchantID == "" {
		return nil, errors.New("phonepe: base url and merchant id are required")
	}
	if opts.PayEndpoint == "" {
		opts.PayEndpoint = "/pg/v1/pay"
	}
	if opts.StatusEndpointPrefix == "" {
		opts.StatusEndpointPrefix = "/pg/v1/status"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}

	hc := resty.New().
		SetBaseURL(strings.TrimRight(opts.BaseURL, "/")).
		SetTimeout(opts.Timeout).
		SetHeader("Accept", "application/json")

	return &Client{
		http:         hc,
		signer:       opts.Signer,
		merchantID:   opts.MerchantID,
		payEndpoint:  opts.PayEndpoint,
		statusPrefix: strings.TrimRight(opts.StatusEndpointPrefix, "/"),
	}, nil
}

// CreatePayment opens a PAY_PAGE order. On ErrGatewayRejected the decoded
// response is returned alongside the error so callers can keep it for audit.
func (c *Client) CreatePayment(ctx context.Context, req *PayRequest) (resp *Response, err error) {
	start := time.Now()
	defer func() { observe("create", start, err) }()

	req.MerchantID = c.merchantID
	if req.PaymentInstrument.Type == "" {
		req.PaymentInstrument.Type = InstrumentPayPage
	}
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal pay request: %w", err)
	}
	base64Payload, checksum := c.signer.SignForCreate(payload, c.payEndpoint)

	r, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader(headerVerify, checksum).
		SetHeader(headerMerchantID, c.merchantID).
		SetBody(map[string]string{"request": base64Payload}).
		Post(c.payEndpoint)
	if err != nil {
		return nil, fmt.Errorf("%w: pay: %v", ErrGatewayUnavailable, err)
	}
	if transient(r.StatusCode()) {
		return nil, fmt.Errorf("%w: pay: http %d", ErrGatewayUnavailable, r.StatusCode())
	}

	resp, err = decodeResponse(r.Body())
	if err != nil {
		if r.IsError() {
			return nil, fmt.Errorf("%w: pay: http %d", ErrGatewayRejected, r.StatusCode())
		}
		return nil, fmt.Errorf("%w: pay: undecodable response: %v", ErrGatewayUnavailable, err)
	}
	if !resp.Success {
		return resp, fmt.Errorf("%w: code=%s message=%s", ErrGatewayRejected, resp.Code, resp.Message)
	}
	return resp, nil
}

// QueryStatus asks the gateway for the current state of an order. A
// well-formed answer is returned even when it reports failure or pending.
func (c *Client) QueryStatus(ctx context.Context, merchantTransactionID string) (resp *Response, err error) {
	start := time.Now()
	defer func() { observe("status", start, err) }()

	endpoint := fmt.Sprintf("%s/%s/%s", c.statusPrefix, c.merchantID, merchantTransactionID)
	r, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader(headerVerify, c.signer.SignForStatusQuery(endpoint)).
		SetHeader(headerMerchantID, c.merchantID).
		Get(endpoint)
	if err != nil {
		return nil, fmt.Errorf("%w: status: %v", ErrGatewayUnavailable, err)
	}
	if transient(r.StatusCode()) {
		return nil, fmt.Errorf("%w: status: http %d", ErrGatewayUnavailable, r.StatusCode())
	}
	resp, err = decodeResponse(r.Body())
	if err != nil {
		return nil, fmt.Errorf("%w: status: undecodable response: %v", ErrGatewayUnavailable, err)
	}
	return resp, nil
}

func transient(code int) bool {
	return code >= http.StatusInternalServerError || code == http.StatusTooManyRequests || code == http.StatusRequestTimeout
}

func observe(op string, start time.Time, err error) {
	outcome := "ok"
	switch {
	case errors.Is(err, ErrGatewayRejected):
		outcome = "rejected"
	case err != nil:
		outcome = "unavailable"
	}
	metrics.GatewayRequestDuration.WithLabelValues(op, outcome).Observe(metrics.MillisecondsSince(start))
}
