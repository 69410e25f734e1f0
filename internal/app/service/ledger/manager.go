package ledger

import (
	"context"
	"errors"

	"github.com/fatflowers/examportal/internal/models"
	"github.com/fatflowers/examportal/pkg/types"
)

var (
	ErrTransactionNotFound     = errors.New("transaction not found")
	ErrInvalidAmount           = errors.New("transaction amount must be positive")
	ErrInvalidTransition       = errors.New("invalid transaction status transition")
	ErrTransitionNotAllowed    = errors.New("source may not set this status")
	ErrLateSuccessAfterFailure = errors.New("gateway reported success for a failed transaction")
	ErrMerchantIDExhausted     = errors.New("could not allocate a unique merchant transaction id")
	ErrInvalidScanRequest      = errors.New("invalid scan request")
)

// Ledger owns payment transaction records. UpdateStatus is the only way a
// status changes.
type Ledger interface {
	Create(ctx context.Context, userID, subjectID string, amount int64) (*models.Transaction, error)
	// CreateGranted records a zero-amount SUCCESS approved by an admin.
	CreateGranted(ctx context.Context, userID, subjectID, approver string) (*models.Transaction, error)

	FindByMerchantID(ctx context.Context, merchantTransactionID string) (*models.Transaction, error)
	FindByID(ctx context.Context, id string) (*models.Transaction, error)
	// Find looks up by merchant transaction id first, then by system id.
	Find(ctx context.Context, idOrMerchantID string) (*models.Transaction, error)

	// UpdateStatus applies next observed from source. The returned transaction
	// is the current row, also when an error is returned.
	UpdateStatus(ctx context.Context, txn *models.Transaction, next models.TransactionStatus, raw []byte, source models.TransitionSource) (*models.Transaction, error)
	// RecordResponse overwrites the stored gateway response without touching status.
	RecordResponse(ctx context.Context, txn *models.Transaction, raw []byte) error

	ScanTransactions(ctx context.Context, req *ScanTransactionsRequest) (*ScanTransactionsResponse, error)
	ListUserTransactions(ctx context.Context, userID string, from, size int) ([]*models.Transaction, error)
}

type ScanTransactionsRequest struct {
	Filters   []*types.CommonFilter `json:"filters"`
	From      int                   `json:"from"`
	Size      int                   `json:"size"`
	SortBy    string                `json:"sort_by"`
	SortOrder string                `json:"sort_order"`
}

type ScanTransactionsResponse struct {
	Items []*models.Transaction `json:"items"`
	Total int64                 `json:"total"`
}

// scannableColumns lists what admins may filter and sort by.
var scannableColumns = map[string]bool{
	"id":                      true,
	"merchant_transaction_id": true,
	"user_id":                 true,
	"subject_id":              true,
	"amount":                  true,
	"status":                  true,
	"needs_review":            true,
	"created_at":              true,
	"updated_at":              true,
}
