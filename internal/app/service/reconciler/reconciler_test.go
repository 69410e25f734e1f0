package reconciler

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/fatflowers/examportal/internal/app/service/catalog"
	"github.com/fatflowers/examportal/internal/app/service/ledger"
	"github.com/fatflowers/examportal/internal/models"
	"github.com/fatflowers/examportal/internal/platform/db/dbtest"
	"github.com/fatflowers/examportal/pkg/config"
)

type fixture struct {
	db     *gorm.DB
	ledger ledger.Ledger
	svc    Reconciler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gdb := dbtest.New(t)
	dbtest.SeedUser(t, gdb, "u1")
	dbtest.SeedSubject(t, gdb, "math", 499)
	cfg := &config.Config{Payment: config.PaymentConfig{TxnIDPrefix: "SUB", LateSuccessPolicy: config.LateSuccessPolicyFlag}}
	l := ledger.NewService(cfg, zap.NewNop().Sugar(), gdb)
	return &fixture{db: gdb, ledger: l, svc: NewService(gdb, zap.NewNop().Sugar(), l, catalog.NewService(gdb))}
}

func (f *fixture) successfulTxn(t *testing.T) *models.Transaction {
	t.Helper()
	ctx := context.Background()
	txn, err := f.ledger.Create(ctx, "u1", "math", 499)
	require.NoError(t, err)
	txn, err = f.ledger.UpdateStatus(ctx, txn, models.TransactionStatusSuccess, nil, models.TransitionSourceCallback)
	require.NoError(t, err)
	return txn
}

func count(t *testing.T, gdb *gorm.DB, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, gdb.Model(model).Count(&n).Error)
	return n
}

func TestGrantIfNeeded_RequiresSuccess(t *testing.T) {
	f := newFixture(t)
	txn, err := f.ledger.Create(context.Background(), "u1", "math", 499)
	require.NoError(t, err)

	_, err = f.svc.GrantIfNeeded(context.Background(), txn)
	require.ErrorIs(t, err, ErrTransactionNotSuccessful)
	require.Zero(t, count(t, f.db, &models.Purchase{}))
}

func TestGrantIfNeeded_Idempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	txn := f.successfulTxn(t)

	inserted, err := f.svc.GrantIfNeeded(ctx, txn)
	require.NoError(t, err)
	require.True(t, inserted)

	inserted, err = f.svc.GrantIfNeeded(ctx, txn)
	require.NoError(t, err)
	require.False(t, inserted)

	require.EqualValues(t, 1, count(t, f.db, &models.Purchase{}))
	subjects, err := f.svc.PurchasedSubjects(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, []string{"math"}, subjects)
}

func TestGrantIfNeeded_ConcurrentTriggersProduceOneEntry(t *testing.T) {
	f := newFixture(t)
	txn := f.successfulTxn(t)

	var wg sync.WaitGroup
	results := make(chan bool, 3)
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			inserted, err := f.svc.GrantIfNeeded(context.Background(), txn)
			require.NoError(t, err)
			results <- inserted
		}()
	}
	wg.Wait()
	close(results)

	wins := 0
	for r := range results {
		if r {
			wins++
		}
	}
	require.Equal(t, 1, wins)
	require.EqualValues(t, 1, count(t, f.db, &models.Purchase{}))
	require.EqualValues(t, 1, count(t, f.db, &models.UserSubject{}))
}

func TestSecondPaymentForOwnedSubjectKeepsSingleAccessEntry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.GrantIfNeeded(ctx, f.successfulTxn(t))
	require.NoError(t, err)
	_, err = f.svc.GrantIfNeeded(ctx, f.successfulTxn(t))
	require.NoError(t, err)

	require.EqualValues(t, 2, count(t, f.db, &models.Purchase{}))
	require.EqualValues(t, 1, count(t, f.db, &models.UserSubject{}))
}

func TestGrantManually(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.GrantManually(ctx, "ghost", "math", "root")
	require.ErrorIs(t, err, catalog.ErrUserNotFound)
	_, err = f.svc.GrantManually(ctx, "u1", "history", "root")
	require.ErrorIs(t, err, catalog.ErrSubjectNotFound)

	txn, err := f.svc.GrantManually(ctx, "u1", "math", "root")
	require.NoError(t, err)
	require.Equal(t, "root", txn.ApprovedBy())
	require.Zero(t, txn.Amount)

	ok, err := f.svc.HasAccess(ctx, "u1", "math")
	require.NoError(t, err)
	require.True(t, ok)

	_, err = f.svc.GrantManually(ctx, "u1", "math", "root")
	require.ErrorIs(t, err, ErrAlreadyOwned)

	purchases, err := f.svc.ListPurchases(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, purchases, 1)
	require.Equal(t, txn.ID, purchases[0].TransactionID)
}

func TestRevokeAccess_KeepsPurchaseHistory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.GrantIfNeeded(ctx, f.successfulTxn(t))
	require.NoError(t, err)

	removed, err := f.svc.RevokeAccess(ctx, "u1", "math")
	require.NoError(t, err)
	require.True(t, removed)

	removed, err = f.svc.RevokeAccess(ctx, "u1", "math")
	require.NoError(t, err)
	require.False(t, removed)

	ok, err := f.svc.HasAccess(ctx, "u1", "math")
	require.NoError(t, err)
	require.False(t, ok)
	require.EqualValues(t, 1, count(t, f.db, &models.Purchase{}))
}
