package payment

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/fatflowers/examportal/internal/models"
	"github.com/fatflowers/examportal/internal/platform/phonepe"
)

var (
	ErrInvalidPrice     = errors.New("subject price must be positive")
	ErrAlreadyPurchased = errors.New("subject already purchased")
	ErrInvalidCallback  = errors.New("invalid callback payload")
	ErrInvalidSignature = errors.New("invalid callback signature")
)

// Manager drives payments from initiation to unlocked access.
type Manager interface {
	Initiate(ctx context.Context, userID, subjectID string) (*InitiateResult, error)
	// Verify polls the gateway for a transaction owned by userID.
	Verify(ctx context.Context, userID, transactionID string) (*VerifyResult, error)
	HandleCallback(ctx context.Context, base64Body, signature string) (*models.Transaction, error)
}

type InitiateResult struct {
	RedirectURL   string `json:"redirectUrl"`
	TransactionID string `json:"transactionId"`
	SubjectID     string `json:"subjectId"`
	Amount        int64  `json:"amount"`
}

type VerifyResult struct {
	Status      models.TransactionStatus `json:"status"`
	NeedsReview bool                     `json:"needsReview,omitempty"`
	Transaction *models.Transaction      `json:"transaction"`
	Gateway     json.RawMessage          `json:"gateway,omitempty"`
}

// Gateway is the subset of the PhonePe client used here.
type Gateway interface {
	CreatePayment(ctx context.Context, req *phonepe.PayRequest) (*phonepe.Response, error)
	QueryStatus(ctx context.Context, merchantTransactionID string) (*phonepe.Response, error)
}

// CallbackVerifier checks the X-VERIFY header of a callback.
type CallbackVerifier interface {
	Verify(base64Payload, presented string) bool
}

type SubjectReader interface {
	GetSubject(ctx context.Context, id string) (*models.Subject, error)
}
