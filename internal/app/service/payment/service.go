package payment

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/fatflowers/examportal/internal/app/service/catalog"
	"github.com/fatflowers/examportal/internal/app/service/ledger"
	notificationlog "github.com/fatflowers/examportal/internal/app/service/notification_log"
	"github.com/fatflowers/examportal/internal/app/service/reconciler"
	"github.com/fatflowers/examportal/internal/models"
	"github.com/fatflowers/examportal/internal/platform/phonepe"
	"github.com/fatflowers/examportal/pkg/config"
	"github.com/fatflowers/examportal/pkg/logctx"
)

type Service struct {
	cfg        *config.Config
	log        *zap.SugaredLogger
	ledger     ledger.Ledger
	reconciler reconciler.Reconciler
	subjects   SubjectReader
	gateway    Gateway
	verifier   CallbackVerifier
	notifSvc   *notificationlog.Service
}

func NewService(
	cfg *config.Config,
	log *zap.SugaredLogger,
	l ledger.Ledger,
	r reconciler.Reconciler,
	c *catalog.Service,
	client *phonepe.Client,
	signer *phonepe.Signer,
	notif *notificationlog.Service,
) Manager {
	return &Service{
		cfg:        cfg,
		log:        log,
		ledger:     l,
		reconciler: r,
		subjects:   c,
		gateway:    client,
		verifier:   signer,
		notifSvc:   notif,
	}
}

func (s *Service) Initiate(ctx context.Context, userID, subjectID string) (*InitiateResult, error) {
	subject, err := s.subjects.GetSubject(ctx, subjectID)
	if err != nil {
		return nil, err
	}
	if subject.Price <= 0 {
		return nil, ErrInvalidPrice
	}
	owned, err := s.reconciler.HasAccess(ctx, userID, subjectID)
	if err != nil {
		return nil, err
	}
	if owned {
		return nil, ErrAlreadyPurchased
	}
	minor, err := phonepe.ToMinorUnits(subject.Price, s.cfg.Gateway.AmountMultiplier)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPrice, err)
	}

	txn, err := s.ledger.Create(ctx, userID, subjectID, subject.Price)
	if err != nil {
		return nil, err
	}
	lg := logctx.ForTxn(ctx, s.log, txn.MerchantTransactionID)

	redirectURL, err := s.redirectURL(txn.MerchantTransactionID)
	if err != nil {
		return nil, err
	}
	resp, err := s.gateway.CreatePayment(ctx, &phonepe.PayRequest{
		MerchantTransactionID: txn.MerchantTransactionID,
		MerchantUserID:        userID,
		Amount:                minor,
		RedirectURL:           redirectURL,
		CallbackURL:           s.cfg.Gateway.CallbackURL,
	})
	switch {
	case errors.Is(err, phonepe.ErrGatewayRejected):
		var raw []byte
		if resp != nil {
			raw = resp.Raw
		}
		if _, uerr := s.ledger.UpdateStatus(ctx, txn, models.TransactionStatusFailed, raw, models.TransitionSourceCreate); uerr != nil {
			lg.Errorw("failed to mark rejected transaction as failed", "err", uerr)
		}
		lg.Warnw("payment initiation rejected", "err", err)
		return nil, err
	case err != nil:
		// Outcome unknown: the order may exist at the gateway, so the
		// transaction stays INITIATED for a later verify or callback.
		lg.Warnw("payment gateway unavailable during initiation", "err", err)
		return nil, err
	}

	if err := s.ledger.RecordResponse(ctx, txn, resp.Raw); err != nil {
		lg.Errorw("failed to record initiation response", "err", err)
	}
	redirect := resp.RedirectURL()
	if redirect == "" {
		lg.Errorw("gateway accepted payment without a redirect url", "code", resp.Code)
		return nil, fmt.Errorf("%w: missing redirect url", phonepe.ErrGatewayRejected)
	}

	lg.Infow("payment initiated", "subject_id", subjectID, "amount", subject.Price)
	return &InitiateResult{
		RedirectURL:   redirect,
		TransactionID: txn.MerchantTransactionID,
		SubjectID:     subjectID,
		Amount:        subject.Price,
	}, nil
}

func (s *Service) redirectURL(merchantTransactionID string) (string, error) {
	u, err := url.Parse(s.cfg.Gateway.RedirectURL)
	if err != nil {
		return "", fmt.Errorf("invalid redirect url: %w", err)
	}
	q := u.Query()
	q.Set("transactionId", merchantTransactionID)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (s *Service) Verify(ctx context.Context, userID, transactionID string) (*VerifyResult, error) {
	txn, err := s.ledger.Find(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if txn.UserID != userID {
		return nil, ledger.ErrTransactionNotFound
	}
	lg := logctx.ForTxn(ctx, s.log, txn.MerchantTransactionID)

	if txn.Status == models.TransactionStatusSuccess {
		// Grant is idempotent; this heals a crash between the status
		// write and reconciliation.
		if _, err := s.reconciler.GrantIfNeeded(ctx, txn); err != nil {
			return nil, err
		}
		return newVerifyResult(txn), nil
	}

	resp, err := s.gateway.QueryStatus(ctx, txn.MerchantTransactionID)
	if err != nil {
		lg.Warnw("payment status query failed", "err", err)
		return newVerifyResult(txn), err
	}
	if err := s.ledger.RecordResponse(ctx, txn, resp.Raw); err != nil {
		return nil, err
	}

	updated, err := s.apply(ctx, txn, ClassifyStatus(resp), resp.Raw, models.TransitionSourceStatusQuery)
	if err != nil && !errors.Is(err, ledger.ErrLateSuccessAfterFailure) {
		return nil, err
	}
	return newVerifyResult(updated), nil
}

func newVerifyResult(txn *models.Transaction) *VerifyResult {
	return &VerifyResult{
		Status:      txn.Status,
		NeedsReview: txn.NeedsReview,
		Transaction: txn,
		Gateway:     []byte(txn.GatewayResponse),
	}
}

// apply runs one gateway observation through the state machine and unlocks
// the subject once the transaction is SUCCESS.
func (s *Service) apply(ctx context.Context, txn *models.Transaction, next models.TransactionStatus, raw []byte, source models.TransitionSource) (*models.Transaction, error) {
	lg := logctx.ForTxn(ctx, s.log, txn.MerchantTransactionID)

	updated, err := s.ledger.UpdateStatus(ctx, txn, next, raw, source)
	switch {
	case errors.Is(err, ledger.ErrInvalidTransition):
		// Stale observation against a terminal state.
		lg.Infow("ignoring stale payment observation", "current", updated.Status, "observed", next, "source", source)
	case errors.Is(err, ledger.ErrLateSuccessAfterFailure):
		return updated, err
	case err != nil:
		return nil, err
	}

	if updated.Status == models.TransactionStatusSuccess {
		if _, err := s.reconciler.GrantIfNeeded(ctx, updated); err != nil {
			return nil, err
		}
	}
	return updated, nil
}

var Module = fx.Options(
	fx.Provide(NewService),
)
