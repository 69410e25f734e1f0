package models

import (
	"time"

	"gorm.io/datatypes"
)

// TransactionLog records every status change of a Transaction.
// Use case: auditing and reconstructing payment timelines.
type TransactionLog struct {
	ID                    string            `gorm:"column:id;primary_key;type:uuid"`
	TransactionID         string            `gorm:"column:transaction_id;type:uuid;not null;index"`
	MerchantTransactionID string            `gorm:"column:merchant_transaction_id;type:varchar(64);not null"`
	UserID                string            `gorm:"column:user_id;type:varchar(64);not null"`
	Source                TransitionSource  `gorm:"column:source;type:varchar(32);not null"`
	FromStatus            TransactionStatus `gorm:"column:from_status;type:varchar(32);not null"`
	ToStatus              TransactionStatus `gorm:"column:to_status;type:varchar(32);not null"`
	// Anomaly is set when the observation was refused for review instead of applied.
	Anomaly   string            `gorm:"column:anomaly;type:varchar(64)"`
	Extra     datatypes.JSONMap `gorm:"column:extra;type:jsonb;default:'{}'"`
	CreatedAt time.Time         `json:"created_at"`
}

func (TransactionLog) TableName() string {
	return "transaction_log"
}
