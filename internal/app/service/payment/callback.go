package payment

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"

	"github.com/fatflowers/examportal/internal/app/service/ledger"
	"github.com/fatflowers/examportal/internal/models"
	"github.com/fatflowers/examportal/internal/platform/phonepe"
	"github.com/fatflowers/examportal/pkg/logctx"
	"github.com/fatflowers/examportal/pkg/metrics"
)

// HandleCallback verifies and applies a server-to-server gateway callback.
// Repeated deliveries of the same callback are harmless.
func (s *Service) HandleCallback(ctx context.Context, base64Body, signature string) (txn *models.Transaction, resErr error) {
	lg := logctx.FromCtx(ctx, s.log)
	if base64Body == "" || signature == "" {
		metrics.CallbackRejected.WithLabelValues("missing_fields").Inc()
		return nil, ErrInvalidCallback
	}

	if !s.verifier.Verify(base64Body, signature) {
		metrics.CallbackRejected.WithLabelValues("signature").Inc()
		lg.Warnw("payment_callback_signature_rejected", "signature", signature)
		s.notifSvc.Save(ctx, &models.PaymentNotificationLog{
			Signature:        signature,
			NotificationTime: time.Now(),
			Data:             rawJSONString(base64Body),
			Status:           models.PaymentNotificationLogStatusRejected,
		})
		return nil, ErrInvalidSignature
	}

	resp, err := phonepe.DecodeCallback(base64Body)
	if err != nil {
		metrics.CallbackRejected.WithLabelValues("malformed").Inc()
		lg.Warnw("undecodable payment callback", "err", err)
		return nil, ErrInvalidCallback
	}
	merchantTxnID := resp.MerchantTransactionID()
	if merchantTxnID == "" {
		metrics.CallbackRejected.WithLabelValues("malformed").Inc()
		return nil, ErrInvalidCallback
	}
	lg = logctx.ForTxn(ctx, s.log, merchantTxnID)

	s.notifSvc.Save(ctx, &models.PaymentNotificationLog{
		MerchantTransactionID: merchantTxnID,
		Signature:             signature,
		NotificationTime:      time.Now(),
		Data:                  datatypes.JSON(resp.Raw),
		Status:                models.PaymentNotificationLogStatusReceived,
	})
	defer func() {
		result := map[string]any{"transaction": txn}
		status := models.PaymentNotificationLogStatusHandled
		if resErr != nil {
			result["error"] = resErr.Error()
			status = models.PaymentNotificationLogStatusHandleFailed
		}
		resBytes, _ := json.Marshal(result)
		resJSON := datatypes.JSON(resBytes)
		s.notifSvc.Save(ctx, &models.PaymentNotificationLog{
			MerchantTransactionID: merchantTxnID,
			Signature:             signature,
			NotificationTime:      time.Now(),
			Data:                  datatypes.JSON(resp.Raw),
			Result:                &resJSON,
			Status:                status,
		})
	}()

	txn, err = s.ledger.FindByMerchantID(ctx, merchantTxnID)
	if err != nil {
		if errors.Is(err, ledger.ErrTransactionNotFound) {
			metrics.CallbackRejected.WithLabelValues("unknown_transaction").Inc()
			lg.Warnw("callback for unknown transaction")
		}
		return nil, err
	}
	// Every verified observation is kept, including ones the state machine refuses.
	if err := s.ledger.RecordResponse(ctx, txn, resp.Raw); err != nil {
		return txn, err
	}
	s.checkAmount(ctx, txn, resp)

	if txn.Status == models.TransactionStatusSuccess {
		_, err := s.reconciler.GrantIfNeeded(ctx, txn)
		return txn, err
	}

	next := ClassifyStatus(resp)
	lg.Infow("payment callback received", "code", resp.Code, "classified", next)
	txn, err = s.apply(ctx, txn, next, resp.Raw, models.TransitionSourceCallback)
	if errors.Is(err, ledger.ErrLateSuccessAfterFailure) {
		// Recorded for review; the gateway must not keep redelivering.
		return txn, nil
	}
	return txn, err
}

// checkAmount flags a callback whose amount differs from the ledger. Status
// is still taken from the signed payload.
func (s *Service) checkAmount(ctx context.Context, txn *models.Transaction, resp *phonepe.Response) {
	if resp.Data == nil || resp.Data.Amount == 0 || txn.Amount == 0 {
		return
	}
	paid := phonepe.FromMinorUnits(resp.Data.Amount, s.cfg.Gateway.AmountMultiplier)
	if paid.Equal(decimal.NewFromInt(txn.Amount)) {
		return
	}
	metrics.PaymentAnomalies.WithLabelValues("amount_mismatch").Inc()
	logctx.ForTxn(ctx, s.log, txn.MerchantTransactionID).Warnw("payment_callback_amount_mismatch",
		"expected", txn.Amount, "reported", paid.String())
}

// rawJSONString stores an unverified body as a JSON string rather than
// trusting it to be valid JSON.
func rawJSONString(s string) datatypes.JSON {
	b, _ := json.Marshal(s)
	return datatypes.JSON(b)
}
