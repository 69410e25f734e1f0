package reconciler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/fatflowers/examportal/internal/app/service/catalog"
	"github.com/fatflowers/examportal/internal/app/service/ledger"
	"github.com/fatflowers/examportal/internal/models"
	"github.com/fatflowers/examportal/pkg/logctx"
	"github.com/fatflowers/examportal/pkg/metrics"
	"github.com/fatflowers/examportal/pkg/tool"
)

var (
	ErrTransactionNotSuccessful = errors.New("transaction is not successful")
	ErrAlreadyOwned             = errors.New("user already has access to subject")
)

// Reconciler turns successful transactions into subject access.
type Reconciler interface {
	// GrantIfNeeded records the purchase and unlocks the subject. It reports
	// whether this call created the purchase entry.
	GrantIfNeeded(ctx context.Context, txn *models.Transaction) (bool, error)
	GrantManually(ctx context.Context, userID, subjectID, approver string) (*models.Transaction, error)
	// RevokeAccess removes the subject from the purchased set; purchase history is kept.
	RevokeAccess(ctx context.Context, userID, subjectID string) (bool, error)
	HasAccess(ctx context.Context, userID, subjectID string) (bool, error)
	PurchasedSubjects(ctx context.Context, userID string) ([]string, error)
	ListPurchases(ctx context.Context, userID string) ([]*models.Purchase, error)
}

type Service struct {
	db      *gorm.DB
	log     *zap.SugaredLogger
	ledger  ledger.Ledger
	catalog *catalog.Service
}

func NewService(db *gorm.DB, log *zap.SugaredLogger, l ledger.Ledger, c *catalog.Service) Reconciler {
	return &Service{db: db, log: log, ledger: l, catalog: c}
}

func (s *Service) GrantIfNeeded(ctx context.Context, txn *models.Transaction) (bool, error) {
	if txn == nil || txn.Status != models.TransactionStatusSuccess {
		return false, ErrTransactionNotSuccessful
	}
	lg := logctx.ForTxn(ctx, s.log, txn.MerchantTransactionID)

	inserted := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		purchase := &models.Purchase{
			ID:            tool.GenerateUUIDV7(),
			UserID:        txn.UserID,
			SubjectID:     txn.SubjectID,
			TransactionID: txn.ID,
			Amount:        txn.Amount,
			PurchasedAt:   time.Now(),
		}
		res := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "subject_id"}, {Name: "transaction_id"}},
			DoNothing: true,
		}).Create(purchase)
		if res.Error != nil {
			return fmt.Errorf("failed to record purchase: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return nil
		}
		inserted = true

		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "subject_id"}},
			DoNothing: true,
		}).Create(&models.UserSubject{
			ID:        tool.GenerateUUIDV7(),
			UserID:    txn.UserID,
			SubjectID: txn.SubjectID,
		}).Error
		if err != nil {
			return fmt.Errorf("failed to unlock subject: %w", err)
		}
		return nil
	})
	if err != nil {
		return false, err
	}

	if inserted {
		metrics.AccessGrants.WithLabelValues("granted").Inc()
		lg.Infow("subject unlocked", "user_id", txn.UserID, "subject_id", txn.SubjectID)
	} else {
		metrics.AccessGrants.WithLabelValues("duplicate").Inc()
		lg.Debugw("purchase already recorded", "subject_id", txn.SubjectID)
	}
	return inserted, nil
}

func (s *Service) GrantManually(ctx context.Context, userID, subjectID, approver string) (*models.Transaction, error) {
	if _, err := s.catalog.GetUser(ctx, userID); err != nil {
		return nil, err
	}
	if _, err := s.catalog.GetSubject(ctx, subjectID); err != nil {
		return nil, err
	}
	owned, err := s.HasAccess(ctx, userID, subjectID)
	if err != nil {
		return nil, err
	}
	if owned {
		return nil, ErrAlreadyOwned
	}

	txn, err := s.ledger.CreateGranted(ctx, userID, subjectID, approver)
	if err != nil {
		return nil, fmt.Errorf("failed to record manual grant: %w", err)
	}
	if _, err := s.GrantIfNeeded(ctx, txn); err != nil {
		return nil, err
	}
	metrics.AccessGrants.WithLabelValues("manual").Inc()
	return txn, nil
}

func (s *Service) RevokeAccess(ctx context.Context, userID, subjectID string) (bool, error) {
	res := s.db.WithContext(ctx).
		Where("user_id = ? AND subject_id = ?", userID, subjectID).
		Delete(&models.UserSubject{})
	if res.Error != nil {
		return false, fmt.Errorf("failed to revoke access: %w", res.Error)
	}
	if res.RowsAffected > 0 {
		metrics.AccessGrants.WithLabelValues("revoked").Inc()
		logctx.FromCtx(ctx, s.log).Infow("subject access revoked", "user_id", userID, "subject_id", subjectID)
	}
	return res.RowsAffected > 0, nil
}

func (s *Service) HasAccess(ctx context.Context, userID, subjectID string) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.UserSubject{}).
		Where("user_id = ? AND subject_id = ?", userID, subjectID).
		Count(&n).Error
	if err != nil {
		return false, fmt.Errorf("failed to check access: %w", err)
	}
	return n > 0, nil
}

func (s *Service) PurchasedSubjects(ctx context.Context, userID string) ([]string, error) {
	var ids []string
	err := s.db.WithContext(ctx).Model(&models.UserSubject{}).
		Where("user_id = ?", userID).
		Order("created_at asc").
		Pluck("subject_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list purchased subjects: %w", err)
	}
	return ids, nil
}

func (s *Service) ListPurchases(ctx context.Context, userID string) ([]*models.Purchase, error) {
	var rows []*models.Purchase
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("purchased_at desc").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list purchases: %w", err)
	}
	return rows, nil
}

var Module = fx.Options(
	fx.Provide(NewService),
)
