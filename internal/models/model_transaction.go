package models

import (
	"time"

	"gorm.io/datatypes"
)

type TransactionExtra struct {
	// ApprovedBy names the admin who granted access without payment.
	ApprovedBy string `json:"approved_by,omitempty"`
	// LateSuccessAt records when a success arrived after the transaction had failed.
	LateSuccessAt *time.Time `json:"late_success_at,omitempty"`
}

// Transaction is one payment attempt for a subject. Rows are never deleted.
type Transaction struct {
	ID                    string            `gorm:"column:id;primary_key;type:uuid" json:"id"`
	MerchantTransactionID string            `gorm:"column:merchant_transaction_id;type:varchar(64);not null;uniqueIndex:unique_merchant_transaction_id" json:"merchant_transaction_id"`
	UserID                string            `gorm:"column:user_id;type:varchar(64);not null;index:idx_txn_user_id" json:"user_id"`
	SubjectID             string            `gorm:"column:subject_id;type:varchar(64);not null" json:"subject_id"`
	Amount                int64             `gorm:"column:amount;type:bigint;not null" json:"amount"`
	Status                TransactionStatus `gorm:"column:status;type:varchar(32);not null" json:"status"`
	// GatewayResponse is the last payload observed from the gateway, overwritten on each observation.
	GatewayResponse datatypes.JSON `gorm:"column:gateway_response;type:jsonb" json:"gateway_response"`
	// NeedsReview marks anomalies such as a success reported after failure.
	NeedsReview bool                                  `gorm:"column:needs_review;not null;default:false" json:"needs_review"`
	Extra       datatypes.JSONType[*TransactionExtra] `gorm:"column:extra;type:jsonb;default:'{}'" json:"extra"`
	CreatedAt   time.Time                             `json:"created_at"`
	UpdatedAt   time.Time                             `json:"updated_at"`
}

func (Transaction) TableName() string {
	return "payment_transaction"
}

func (t *Transaction) ApprovedBy() string {
	if t == nil || t.Extra.Data() == nil {
		return ""
	}
	return t.Extra.Data().ApprovedBy
}
