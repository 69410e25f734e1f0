package models

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTransactionStatus_Transitions(t *testing.T) {
	tests := []struct {
		from, to TransactionStatus
		want     bool
	}{
		{TransactionStatusInitiated, TransactionStatusPending, true},
		{TransactionStatusInitiated, TransactionStatusSuccess, true},
		{TransactionStatusInitiated, TransactionStatusFailed, true},
		{TransactionStatusInitiated, TransactionStatusInitiated, false},
		{TransactionStatusPending, TransactionStatusPending, true},
		{TransactionStatusPending, TransactionStatusSuccess, true},
		{TransactionStatusPending, TransactionStatusFailed, true},
		{TransactionStatusSuccess, TransactionStatusPending, false},
		{TransactionStatusSuccess, TransactionStatusFailed, false},
		{TransactionStatusSuccess, TransactionStatusSuccess, false},
		{TransactionStatusFailed, TransactionStatusSuccess, false},
		{TransactionStatusFailed, TransactionStatusPending, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			require.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestTransactionStatus_Terminal(t *testing.T) {
	require.True(t, TransactionStatusSuccess.IsTerminal())
	require.True(t, TransactionStatusFailed.IsTerminal())
	require.False(t, TransactionStatusPending.IsTerminal())
	require.False(t, TransactionStatusInitiated.IsTerminal())
	require.False(t, TransactionStatus("REFUNDED").Valid())
}

func TestTransitionSource_MaySet(t *testing.T) {
	require.True(t, TransitionSourceCreate.MaySet(TransactionStatusFailed))
	require.False(t, TransitionSourceCreate.MaySet(TransactionStatusSuccess))
	require.False(t, TransitionSourceCreate.MaySet(TransactionStatusPending))
	require.True(t, TransitionSourceCallback.MaySet(TransactionStatusSuccess))
	require.True(t, TransitionSourceStatusQuery.MaySet(TransactionStatusPending))
	require.False(t, TransitionSource("cron").MaySet(TransactionStatusFailed))
}
