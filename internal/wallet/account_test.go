package wallet

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/AnirudhAnand3/liquid-gold/internal/gamify"
	"github.com/AnirudhAnand3/liquid-gold/internal/models"
)

func TestGetOrCreateUserSeedsAccount(t *testing.T) {
	e := testEngine(t)

	u, err := e.GetOrCreateUser(context.Background(), "alice@test.dev", "alice", "google")
	require.NoError(t, err)
	require.True(t, u.Balance.Equal(WelcomeBalance))
	require.Equal(t, gamify.XPSignup, u.XP)
	require.Equal(t, "bronze", u.Tier)
	require.NotEmpty(t, u.AccountNumber)
	require.NotNil(t, u.LastLogin)

	var budgets int64
	require.NoError(t, e.db.Model(&models.BudgetCategory{}).
		Where("user_id = ?", u.ID).Count(&budgets).Error)
	require.Equal(t, int64(6), budgets)
	require.Equal(t, 1, countNotifications(t, e, u.ID, "🎉 Welcome to Liquid Gold!"))

	// same identity resolves to the same account
	again, err := e.GetOrCreateUser(context.Background(), "alice@test.dev", "alice", "google")
	require.NoError(t, err)
	require.Equal(t, u.ID, again.ID)
}

func TestRecordLoginStreak(t *testing.T) {
	e := testEngine(t)
	u := seedUser(t, e, "alice@test.dev", 100)

	day := func(s string) time.Time {
		d, err := time.Parse("2006-01-02", s)
		require.NoError(t, err)
		return d
	}

	require.NoError(t, e.RecordLogin(context.Background(), u.ID, day("2026-03-01")))
	require.Equal(t, 1, reload(t, e, u.ID).Streak)

	// same day again: no change
	require.NoError(t, e.RecordLogin(context.Background(), u.ID, day("2026-03-01")))
	got := reload(t, e, u.ID)
	require.Equal(t, 1, got.Streak)
	xpBefore := got.XP

	require.NoError(t, e.RecordLogin(context.Background(), u.ID, day("2026-03-02")))
	got = reload(t, e, u.ID)
	require.Equal(t, 2, got.Streak)
	require.Equal(t, xpBefore+gamify.XPDailyLogin, got.XP)

	// a gap resets
	require.NoError(t, e.RecordLogin(context.Background(), u.ID, day("2026-03-10")))
	require.Equal(t, 1, reload(t, e, u.ID).Streak)

	// out-of-order activity is rejected, state untouched
	err := e.RecordLogin(context.Background(), u.ID, day("2026-03-05"))
	require.ErrorIs(t, err, gamify.ErrStaleDate)
	require.Equal(t, 1, reload(t, e, u.ID).Streak)
}

func TestRecordLoginStreakMilestone(t *testing.T) {
	e := testEngine(t)
	u := seedUser(t, e, "alice@test.dev", 100)

	start, _ := time.Parse("2006-01-02", "2026-03-01")
	for i := 0; i < 7; i++ {
		require.NoError(t, e.RecordLogin(context.Background(), u.ID, start.AddDate(0, 0, i)))
	}
	got := reload(t, e, u.ID)
	require.Equal(t, 7, got.Streak)
	require.Equal(t, 1, countNotifications(t, e, u.ID, "🔥 7-Day Streak!"))
	// six continuations at 10 xp plus the 50 bonus
	require.Equal(t, 6*gamify.XPDailyLogin+gamify.XPStreakBonus, got.XP)
}

func TestDeleteAccountCascades(t *testing.T) {
	e := testEngine(t)
	a := seedUser(t, e, "alice@test.dev", 5000)
	b := seedUser(t, e, "bob@test.dev", 5000)

	// build up records on both sides
	_, err := e.Transfer(context.Background(), a.ID, "bob@test.dev", amt("100"), "", "")
	require.NoError(t, err)
	_, err = e.Transfer(context.Background(), b.ID, "alice@test.dev", amt("50"), "", "")
	require.NoError(t, err)
	g, err := e.CreateSavingsGoal(context.Background(), a.ID, "Trip", amt("1000"), "", "")
	require.NoError(t, err)
	_, err = e.SavingsDeposit(context.Background(), a.ID, g.ID, amt("200"))
	require.NoError(t, err)
	_, err = e.CreateScheduledPayment(context.Background(), b.ID, "alice@test.dev",
		amt("10"), models.FreqMonthly, "2026-09-01", "")
	require.NoError(t, err)
	bill, err := e.CreateSplitBill(context.Background(), b.ID, "Dinner", amt("300"), "",
		[]SplitMemberInput{{Identifier: "alice@test.dev", Amount: amt("150")}})
	require.NoError(t, err)

	require.NoError(t, e.DeleteAccount(context.Background(), a.ID))

	_, err = e.User(context.Background(), a.ID)
	require.ErrorIs(t, err, ErrNotFound)

	// no ledger rows, goals, contacts, scheduled payments or memberships
	// reference the deleted account from live records
	var n int64
	require.NoError(t, e.db.Model(&models.Transaction{}).
		Where("sender_id = ? OR receiver_id = ?", a.ID, a.ID).Count(&n).Error)
	require.Zero(t, n)
	require.NoError(t, e.db.Model(&models.SavingsGoal{}).Where("user_id = ?", a.ID).Count(&n).Error)
	require.Zero(t, n)
	require.NoError(t, e.db.Model(&models.Contact{}).
		Where("user_id = ? OR contact_id = ?", a.ID, a.ID).Count(&n).Error)
	require.Zero(t, n)
	require.NoError(t, e.db.Model(&models.ScheduledPayment{}).
		Where("sender_id = ? OR receiver_id = ?", a.ID, a.ID).Count(&n).Error)
	require.Zero(t, n)
	require.NoError(t, e.db.Model(&models.SplitBillMember{}).
		Where("user_id = ?", a.ID).Count(&n).Error)
	require.Zero(t, n)

	// the bill bob created survives with his own member row
	var members []models.SplitBillMember
	require.NoError(t, e.db.Where("bill_id = ?", bill.ID).Find(&members).Error)
	require.Len(t, members, 1)
	require.Equal(t, b.ID, members[0].UserID)

	// bob's account is untouched
	_, err = e.User(context.Background(), b.ID)
	require.NoError(t, err)
}

func TestUpdateProfile(t *testing.T) {
	e := testEngine(t)
	u := seedUser(t, e, "alice@test.dev", 100)

	require.NoError(t, e.UpdateProfile(context.Background(), u.ID, "Alice W", "saving up", "99999"))
	got := reload(t, e, u.ID)
	require.Equal(t, "Alice W", got.Username)
	require.Equal(t, "saving up", got.Bio)
	require.Equal(t, "99999", got.Phone)
}
