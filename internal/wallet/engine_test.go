package wallet

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/AnirudhAnand3/liquid-gold/internal/models"
	"github.com/AnirudhAnand3/liquid-gold/internal/reference"
	"github.com/AnirudhAnand3/liquid-gold/internal/store"
)

// testEngine uses a per-test in-memory database to avoid cross-test
// interference.
func testEngine(t *testing.T) *Engine {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	return engineWithDSN(t, dsn)
}

// fileTestEngine backs the engine with an on-disk database; needed for tests
// that hit the database from more than one goroutine.
func fileTestEngine(t *testing.T) *Engine {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "wallet.db") + "?_busy_timeout=5000"
	return engineWithDSN(t, dsn)
}

func engineWithDSN(t *testing.T, dsn string) *Engine {
	t.Helper()
	db, err := store.InitDB(dsn)
	require.NoError(t, err)
	return New(db, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func seedUser(t *testing.T, e *Engine, email string, balance int64) *models.User {
	t.Helper()
	u := &models.User{
		Username:      email[:len(email)-len("@test.dev")],
		Email:         email,
		AccountNumber: reference.NewAccountNumber(),
		Balance:       decimal.NewFromInt(balance),
		Tier:          "bronze",
	}
	require.NoError(t, e.db.Create(u).Error)
	return u
}

func amt(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func reload(t *testing.T, e *Engine, id uint) *models.User {
	t.Helper()
	u, err := e.user(context.Background(), e.db, id)
	require.NoError(t, err)
	return u
}

func TestDeposit(t *testing.T) {
	e := testEngine(t)
	u := seedUser(t, e, "alice@test.dev", 100)

	res, err := e.Deposit(context.Background(), u.ID, amt("250.50"), "UPI")
	require.NoError(t, err)
	require.True(t, res.Balance.Equal(amt("350.50")), "got %s", res.Balance)
	require.NotEmpty(t, res.Reference)

	got := reload(t, e, u.ID)
	require.True(t, got.TotalReceived.Equal(amt("250.50")))
	require.Equal(t, 5, got.XP)

	var entry models.Transaction
	require.NoError(t, e.db.Where("reference = ?", res.Reference).First(&entry).Error)
	require.Equal(t, models.TxnDeposit, entry.Type)
	require.Nil(t, entry.SenderID)
	require.Equal(t, u.ID, *entry.ReceiverID)
	require.True(t, entry.Fee.IsZero())
}

func TestDepositRejectsBadAmounts(t *testing.T) {
	e := testEngine(t)
	u := seedUser(t, e, "alice@test.dev", 100)

	_, err := e.Deposit(context.Background(), u.ID, decimal.Zero, "UPI")
	require.ErrorIs(t, err, ErrInvalidAmount)

	_, err = e.Deposit(context.Background(), u.ID, amt("-5"), "UPI")
	require.ErrorIs(t, err, ErrInvalidAmount)

	_, err = e.Deposit(context.Background(), u.ID, amt("1.999"), "UPI")
	require.ErrorIs(t, err, ErrInvalidAmount)

	_, err = e.Deposit(context.Background(), u.ID, amt("100001"), "UPI")
	require.ErrorIs(t, err, ErrLimitExceeded)

	require.True(t, reload(t, e, u.ID).Balance.Equal(amt("100")))
}

func TestWithdraw(t *testing.T) {
	e := testEngine(t)
	u := seedUser(t, e, "alice@test.dev", 500)

	res, err := e.Withdraw(context.Background(), u.ID, amt("120.25"))
	require.NoError(t, err)
	require.True(t, res.Balance.Equal(amt("379.75")))

	got := reload(t, e, u.ID)
	require.True(t, got.TotalSent.Equal(amt("120.25")))

	_, err = e.Withdraw(context.Background(), u.ID, amt("1000"))
	require.ErrorIs(t, err, ErrInsufficientFunds)
	require.True(t, reload(t, e, u.ID).Balance.Equal(amt("379.75")))
}

func TestTransferConservation(t *testing.T) {
	e := testEngine(t)
	a := seedUser(t, e, "alice@test.dev", 2000)
	b := seedUser(t, e, "bob@test.dev", 500)

	res, err := e.Transfer(context.Background(), a.ID, "bob@test.dev", amt("1200"), "rent", "other")
	require.NoError(t, err)
	require.True(t, res.Fee.Equal(amt("1.20")), "fee %s", res.Fee)
	require.True(t, res.Balance.Equal(amt("798.80")), "sender balance %s", res.Balance)
	require.Equal(t, "bob", res.ReceiverName)

	gotA, gotB := reload(t, e, a.ID), reload(t, e, b.ID)
	require.True(t, gotB.Balance.Equal(amt("1700")))
	require.True(t, gotA.TotalSent.Equal(amt("1200")))
	require.True(t, gotB.TotalReceived.Equal(amt("1200")))
	require.Equal(t, 1, gotA.TotalTxnCount)
	require.Equal(t, 1, gotB.TotalTxnCount)
	require.Equal(t, 15, gotA.XP)

	// the fee leaves circulation
	total := gotA.Balance.Add(gotB.Balance)
	require.True(t, total.Equal(amt("2498.80")), "total %s", total)

	var entry models.Transaction
	require.NoError(t, e.db.Where("reference = ?", res.Reference).First(&entry).Error)
	require.Equal(t, models.TxnTransfer, entry.Type)
	require.True(t, entry.Amount.Equal(amt("1200")))
	require.True(t, entry.Fee.Equal(amt("1.20")))
	require.Equal(t, a.ID, *entry.SenderID)
	require.Equal(t, b.ID, *entry.ReceiverID)

	// contact saved exactly once, even after a second transfer
	_, err = e.Transfer(context.Background(), a.ID, "bob@test.dev", amt("10"), "", "")
	require.NoError(t, err)
	var contacts int64
	require.NoError(t, e.db.Model(&models.Contact{}).
		Where("user_id = ? AND contact_id = ?", a.ID, b.ID).Count(&contacts).Error)
	require.Equal(t, int64(1), contacts)
}

func TestTransferLimitExceeded(t *testing.T) {
	e := testEngine(t)
	a := seedUser(t, e, "alice@test.dev", 1000)
	seedUser(t, e, "bob@test.dev", 0)

	_, err := e.Transfer(context.Background(), a.ID, "bob@test.dev", amt("1500"), "", "")
	// 1500 is within the 50000 ceiling but beyond the balance
	require.ErrorIs(t, err, ErrInsufficientFunds)

	_, err = e.Transfer(context.Background(), a.ID, "bob@test.dev", amt("50001"), "", "")
	require.ErrorIs(t, err, ErrLimitExceeded)
	require.True(t, reload(t, e, a.ID).Balance.Equal(amt("1000")))
}

func TestTransferInsufficientWithFee(t *testing.T) {
	e := testEngine(t)
	a := seedUser(t, e, "alice@test.dev", 1000)
	b := seedUser(t, e, "bob@test.dev", 500)

	// 1200 + 1.20 fee > 1000
	_, err := e.Transfer(context.Background(), a.ID, "bob@test.dev", amt("1200"), "", "")
	require.ErrorIs(t, err, ErrInsufficientFunds)

	require.True(t, reload(t, e, a.ID).Balance.Equal(amt("1000")))
	require.True(t, reload(t, e, b.ID).Balance.Equal(amt("500")))
	var count int64
	require.NoError(t, e.db.Model(&models.Transaction{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestTransferFeeFreeUnderLimit(t *testing.T) {
	e := testEngine(t)
	a := seedUser(t, e, "alice@test.dev", 2000)
	seedUser(t, e, "bob@test.dev", 0)

	res, err := e.Transfer(context.Background(), a.ID, "bob@test.dev", amt("1000"), "", "")
	require.NoError(t, err)
	require.True(t, res.Fee.IsZero())
	require.True(t, res.Balance.Equal(amt("1000")))
}

func TestTransferSelfAndUnknownRecipient(t *testing.T) {
	e := testEngine(t)
	a := seedUser(t, e, "alice@test.dev", 1000)

	_, err := e.Transfer(context.Background(), a.ID, "alice@test.dev", amt("10"), "", "")
	require.ErrorIs(t, err, ErrSelfReference)

	_, err = e.Transfer(context.Background(), a.ID, "ghost@test.dev", amt("10"), "", "")
	require.ErrorIs(t, err, ErrRecipientNotFound)
}

func TestTransferByAccountNumber(t *testing.T) {
	e := testEngine(t)
	a := seedUser(t, e, "alice@test.dev", 1000)
	b := seedUser(t, e, "bob@test.dev", 0)

	_, err := e.Transfer(context.Background(), a.ID, b.AccountNumber, amt("50"), "", "")
	require.NoError(t, err)
	require.True(t, reload(t, e, b.ID).Balance.Equal(amt("50")))
}

// Mirror-image transfers must not deadlock and must leave both balances down
// by exactly their fees.
func TestConcurrentMirrorTransfers(t *testing.T) {
	e := fileTestEngine(t)
	a := seedUser(t, e, "alice@test.dev", 5000)
	b := seedUser(t, e, "bob@test.dev", 5000)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, errs[0] = e.Transfer(context.Background(), a.ID, "bob@test.dev", amt("2000"), "", "")
	}()
	go func() {
		defer wg.Done()
		_, errs[1] = e.Transfer(context.Background(), b.ID, "alice@test.dev", amt("2000"), "", "")
	}()
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])

	// each side paid the 2.00 fee on its own outgoing transfer
	require.True(t, reload(t, e, a.ID).Balance.Equal(amt("4998")), "a=%s", reload(t, e, a.ID).Balance)
	require.True(t, reload(t, e, b.ID).Balance.Equal(amt("4998")), "b=%s", reload(t, e, b.ID).Balance)
}

func TestRecomputeTotalsRepairsCounters(t *testing.T) {
	e := testEngine(t)
	a := seedUser(t, e, "alice@test.dev", 5000)
	b := seedUser(t, e, "bob@test.dev", 100)

	_, err := e.Transfer(context.Background(), a.ID, "bob@test.dev", amt("1500"), "", "")
	require.NoError(t, err)
	_, err = e.Deposit(context.Background(), a.ID, amt("200"), "UPI")
	require.NoError(t, err)
	_, err = e.Withdraw(context.Background(), b.ID, amt("50"))
	require.NoError(t, err)

	// corrupt the cached projections
	require.NoError(t, e.db.Model(&models.User{}).Where("id = ?", a.ID).
		Updates(map[string]interface{}{"total_sent": "999", "total_txn_count": 42}).Error)

	require.NoError(t, e.RecomputeTotals(context.Background(), a.ID))
	require.NoError(t, e.RecomputeTotals(context.Background(), b.ID))

	gotA, gotB := reload(t, e, a.ID), reload(t, e, b.ID)
	require.True(t, gotA.TotalSent.Equal(amt("1500")))
	require.True(t, gotA.TotalReceived.Equal(amt("200")))
	require.Equal(t, 1, gotA.TotalTxnCount)
	require.True(t, gotB.TotalSent.Equal(amt("50")))
	require.True(t, gotB.TotalReceived.Equal(amt("1500")))
	require.Equal(t, 1, gotB.TotalTxnCount)
}

func TestLedgerOrdering(t *testing.T) {
	e := testEngine(t)
	u := seedUser(t, e, "alice@test.dev", 1000)

	for i := 0; i < 5; i++ {
		_, err := e.Deposit(context.Background(), u.ID, amt("10"), "UPI")
		require.NoError(t, err)
	}
	txns, err := e.Transactions(context.Background(), u.ID, 1, 20)
	require.NoError(t, err)
	require.Len(t, txns, 5)
	for i := 1; i < len(txns); i++ {
		require.GreaterOrEqual(t, txns[i-1].ID, txns[i].ID, "most recent first")
	}
}
