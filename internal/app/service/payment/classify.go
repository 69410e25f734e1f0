package payment

import (
	"github.com/fatflowers/examportal/internal/models"
	"github.com/fatflowers/examportal/internal/platform/phonepe"
)

// ClassifyStatus maps a gateway payload to a transaction status. The status
// API reports through "code", callbacks through data.state/responseCode;
// anything unrecognised counts as a failure.
func ClassifyStatus(resp *phonepe.Response) models.TransactionStatus {
	if resp == nil {
		return models.TransactionStatusFailed
	}
	var state, responseCode string
	if resp.Data != nil {
		state, responseCode = resp.Data.State, resp.Data.ResponseCode
	}
	switch {
	case resp.Code == phonepe.CodePaymentSuccess,
		state == phonepe.StateCompleted && responseCode == phonepe.ResponseCodeSuccess:
		return models.TransactionStatusSuccess
	case resp.Code == phonepe.CodePaymentPending, state == phonepe.StatePending:
		return models.TransactionStatusPending
	default:
		return models.TransactionStatusFailed
	}
}
