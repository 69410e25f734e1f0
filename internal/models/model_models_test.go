package models

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func TestTableNames(t *testing.T) {
	require.Equal(t, "payment_transaction", Transaction{}.TableName())
	require.Equal(t, "user_subject", UserSubject{}.TableName())
	require.Equal(t, "purchase", Purchase{}.TableName())
	require.Equal(t, "payment_notification_log", PaymentNotificationLog{}.TableName())
}

func TestTransaction_ApprovedBy(t *testing.T) {
	var nilTxn *Transaction
	require.Empty(t, nilTxn.ApprovedBy())

	txn := &Transaction{Extra: datatypes.NewJSONType(&TransactionExtra{ApprovedBy: "admin-alice"})}
	require.Equal(t, "admin-alice", txn.ApprovedBy())
}
