package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/fatflowers/examportal/internal/models"
	"github.com/fatflowers/examportal/pkg/config"
	"github.com/fatflowers/examportal/pkg/logctx"
	"github.com/fatflowers/examportal/pkg/metrics"
	"github.com/fatflowers/examportal/pkg/tool"
	"github.com/fatflowers/examportal/pkg/types"
)

const (
	maxCreateAttempts = 5
	maxCASAttempts    = 3
	maxScanSize       = 100

	anomalyLateSuccessFlagged = "late_success_flagged"
	anomalyLateSuccessApplied = "late_success_applied"
)

type Service struct {
	cfg *config.Config
	log *zap.SugaredLogger
	db  *gorm.DB
	now func() time.Time

	// pending audit writes
	audit sync.WaitGroup
}

func NewService(cfg *config.Config, log *zap.SugaredLogger, db *gorm.DB) Ledger {
	return newService(cfg, log, db)
}

func newService(cfg *config.Config, log *zap.SugaredLogger, db *gorm.DB) *Service {
	return &Service{cfg: cfg, log: log, db: db, now: time.Now}
}

func (s *Service) Create(ctx context.Context, userID, subjectID string, amount int64) (*models.Transaction, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	txn := &models.Transaction{
		UserID:    userID,
		SubjectID: subjectID,
		Amount:    amount,
		Status:    models.TransactionStatusInitiated,
		Extra:     datatypes.NewJSONType(&models.TransactionExtra{}),
	}
	if err := s.insert(ctx, txn); err != nil {
		return nil, err
	}
	logctx.ForTxn(ctx, s.log, txn.MerchantTransactionID).Infow("transaction created",
		"subject_id", subjectID, "amount", amount)
	return txn, nil
}

func (s *Service) CreateGranted(ctx context.Context, userID, subjectID, approver string) (*models.Transaction, error) {
	if !models.TransitionSourceAdmin.MaySet(models.TransactionStatusSuccess) {
		return nil, ErrTransitionNotAllowed
	}
	txn := &models.Transaction{
		UserID:    userID,
		SubjectID: subjectID,
		Status:    models.TransactionStatusSuccess,
		Extra:     datatypes.NewJSONType(&models.TransactionExtra{ApprovedBy: approver}),
	}
	if err := s.insert(ctx, txn); err != nil {
		return nil, err
	}
	metrics.TransactionTransitions.WithLabelValues(string(models.TransactionStatusInitiated), string(txn.Status), string(models.TransitionSourceAdmin)).Inc()
	s.saveLog(ctx, txn, models.TransactionStatusInitiated, models.TransitionSourceAdmin, "", datatypes.JSONMap{"approved_by": approver})
	logctx.ForTxn(ctx, s.log, txn.MerchantTransactionID).Infow("access granted by admin",
		"subject_id", subjectID, "approved_by", approver)
	return txn, nil
}

// insert allocates a merchant transaction id, regenerating on unique-index conflicts.
func (s *Service) insert(ctx context.Context, txn *models.Transaction) error {
	for attempt := 1; attempt <= maxCreateAttempts; attempt++ {
		txn.ID = tool.GenerateUUIDV7()
		txn.MerchantTransactionID = tool.GenerateMerchantTxnID(s.cfg.Payment.TxnIDPrefix, s.now())
		err := s.db.WithContext(ctx).Create(txn).Error
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("failed to create transaction: %w", err)
		}
		logctx.ForTxn(ctx, s.log, txn.MerchantTransactionID).Warnw("merchant transaction id collision", "attempt", attempt)
	}
	return ErrMerchantIDExhausted
}

func (s *Service) FindByMerchantID(ctx context.Context, merchantTransactionID string) (*models.Transaction, error) {
	return s.first(ctx, "merchant_transaction_id = ?", merchantTransactionID)
}

func (s *Service) FindByID(ctx context.Context, id string) (*models.Transaction, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrTransactionNotFound
	}
	return s.first(ctx, "id = ?", id)
}

func (s *Service) Find(ctx context.Context, idOrMerchantID string) (*models.Transaction, error) {
	txn, err := s.FindByMerchantID(ctx, idOrMerchantID)
	if errors.Is(err, ErrTransactionNotFound) {
		return s.FindByID(ctx, idOrMerchantID)
	}
	return txn, err
}

func (s *Service) first(ctx context.Context, query string, arg any) (*models.Transaction, error) {
	var txn models.Transaction
	err := s.db.WithContext(ctx).Where(query, arg).First(&txn).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrTransactionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load transaction: %w", err)
	}
	return &txn, nil
}

func (s *Service) UpdateStatus(ctx context.Context, txn *models.Transaction, next models.TransactionStatus, raw []byte, source models.TransitionSource) (*models.Transaction, error) {
	if txn == nil {
		return nil, ErrTransactionNotFound
	}
	if !next.Valid() || !source.MaySet(next) {
		return txn, fmt.Errorf("%w: %s -> %s", ErrTransitionNotAllowed, source, next)
	}
	lg := logctx.ForTxn(ctx, s.log, txn.MerchantTransactionID)

	current := txn
	for attempt := 0; attempt < maxCASAttempts; attempt++ {
		from := current.Status
		if from == next && next.IsTerminal() {
			return current, nil
		}
		if !from.CanTransitionTo(next) {
			if from == models.TransactionStatusFailed && next == models.TransactionStatusSuccess {
				return s.lateSuccess(ctx, current, raw, source)
			}
			return current, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, next)
		}

		updates := map[string]any{"status": next, "updated_at": s.now()}
		if len(raw) > 0 {
			updates["gateway_response"] = datatypes.JSON(raw)
		}
		res := s.db.WithContext(ctx).Model(&models.Transaction{}).
			Where("id = ? AND status = ?", current.ID, from).
			Updates(updates)
		if res.Error != nil {
			return current, fmt.Errorf("failed to update transaction status: %w", res.Error)
		}

		reloaded, err := s.FindByID(ctx, current.ID)
		if err != nil {
			return current, err
		}
		if res.RowsAffected == 1 {
			metrics.TransactionTransitions.WithLabelValues(string(from), string(next), string(source)).Inc()
			if from != next {
				s.saveLog(ctx, reloaded, from, source, "", nil)
				lg.Infow("transaction status changed", "from", from, "to", next, "source", source)
			}
			return reloaded, nil
		}
		// Lost the race; re-evaluate against the fresh row.
		current = reloaded
	}
	return current, fmt.Errorf("%w: concurrent updates on %s", ErrInvalidTransition, current.MerchantTransactionID)
}

// lateSuccess handles a success observed after the transaction already failed.
func (s *Service) lateSuccess(ctx context.Context, current *models.Transaction, raw []byte, source models.TransitionSource) (*models.Transaction, error) {
	lg := logctx.ForTxn(ctx, s.log, current.MerchantTransactionID)
	now := s.now()

	extra := models.TransactionExtra{}
	if d := current.Extra.Data(); d != nil {
		extra = *d
	}
	extra.LateSuccessAt = &now

	updates := map[string]any{
		"extra":      datatypes.NewJSONType(&extra),
		"updated_at": now,
	}
	if len(raw) > 0 {
		updates["gateway_response"] = datatypes.JSON(raw)
	}

	anomaly := anomalyLateSuccessFlagged
	if s.cfg.Payment.LateSuccessPolicy == config.LateSuccessPolicyApply {
		anomaly = anomalyLateSuccessApplied
		updates["status"] = models.TransactionStatusSuccess
	} else {
		updates["needs_review"] = true
	}

	res := s.db.WithContext(ctx).Model(&models.Transaction{}).
		Where("id = ? AND status = ?", current.ID, models.TransactionStatusFailed).
		Updates(updates)
	if res.Error != nil {
		return current, fmt.Errorf("failed to record late success: %w", res.Error)
	}
	updated, err := s.FindByID(ctx, current.ID)
	if err != nil {
		return current, err
	}

	metrics.PaymentAnomalies.WithLabelValues(anomaly).Inc()
	s.saveLog(ctx, updated, models.TransactionStatusFailed, source, anomaly, nil)
	lg.Warnw("payment_late_success_after_failure", "policy", s.cfg.Payment.LateSuccessPolicy, "source", source)

	if anomaly == anomalyLateSuccessApplied {
		if res.RowsAffected == 1 {
			metrics.TransactionTransitions.WithLabelValues(string(models.TransactionStatusFailed), string(models.TransactionStatusSuccess), string(source)).Inc()
		}
		return updated, nil
	}
	return updated, ErrLateSuccessAfterFailure
}

func (s *Service) RecordResponse(ctx context.Context, txn *models.Transaction, raw []byte) error {
	if txn == nil {
		return ErrTransactionNotFound
	}
	if len(raw) == 0 {
		return nil
	}
	err := s.db.WithContext(ctx).Model(&models.Transaction{}).
		Where("id = ?", txn.ID).
		Updates(map[string]any{"gateway_response": datatypes.JSON(raw), "updated_at": s.now()}).Error
	if err != nil {
		return fmt.Errorf("failed to record gateway response: %w", err)
	}
	txn.GatewayResponse = datatypes.JSON(raw)
	return nil
}

// saveLog writes the status-change audit row in the background.
func (s *Service) saveLog(ctx context.Context, after *models.Transaction, from models.TransactionStatus, source models.TransitionSource, anomaly string, extra datatypes.JSONMap) {
	if extra == nil {
		extra = datatypes.JSONMap{}
	}
	entry := &models.TransactionLog{
		ID:                    tool.GenerateUUIDV7(),
		TransactionID:         after.ID,
		MerchantTransactionID: after.MerchantTransactionID,
		UserID:                after.UserID,
		Source:                source,
		FromStatus:            from,
		ToStatus:              after.Status,
		Anomaly:               anomaly,
		Extra:                 extra,
	}
	s.audit.Add(1)
	go func() {
		defer s.audit.Done()
		if err := s.db.WithContext(context.WithoutCancel(ctx)).Create(entry).Error; err != nil {
			logctx.FromCtx(ctx, s.log).Errorf("failed to save transaction log: %v", err)
		}
	}()
}

// ScanTransactions implements paginated admin listing with filters.
func (s *Service) ScanTransactions(ctx context.Context, req *ScanTransactionsRequest) (*ScanTransactionsResponse, error) {
	if req == nil {
		return nil, fmt.Errorf("%w: nil request", ErrInvalidScanRequest)
	}
	for _, f := range req.Filters {
		if f == nil {
			return nil, fmt.Errorf("%w: nil filter", ErrInvalidScanRequest)
		}
		if err := f.Validate(scannableColumns); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidScanRequest, err)
		}
	}
	if req.SortBy != "" && !scannableColumns[req.SortBy] {
		return nil, fmt.Errorf("%w: cannot sort by %q", ErrInvalidScanRequest, req.SortBy)
	}
	if req.Size <= 0 {
		req.Size = 10
	}
	if req.Size > maxScanSize {
		req.Size = maxScanSize
	}
	if req.From < 0 {
		req.From = 0
	}

	tx := s.db.WithContext(ctx).Model(&models.Transaction{})
	if len(req.Filters) > 0 {
		tx = tx.Where(clause.Where{Exprs: []clause.Expression{types.FiltersAnd(req.Filters)}})
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count transactions: %w", err)
	}

	sortBy := req.SortBy
	if sortBy == "" {
		sortBy = "created_at"
	}
	var rows []*models.Transaction
	err := tx.Order(clause.OrderBy{Columns: []clause.OrderByColumn{{Column: clause.Column{Name: sortBy}, Desc: req.SortOrder != "asc"}}}).
		Limit(req.Size).
		Offset(req.From).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}

	return &ScanTransactionsResponse{Items: rows, Total: total}, nil
}

func (s *Service) ListUserTransactions(ctx context.Context, userID string, from, size int) ([]*models.Transaction, error) {
	if size <= 0 || size > maxScanSize {
		size = 20
	}
	if from < 0 {
		from = 0
	}
	var rows []*models.Transaction
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at desc").
		Limit(size).
		Offset(from).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list user transactions: %w", err)
	}
	return rows, nil
}
