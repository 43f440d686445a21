package wallet

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/AnirudhAnand3/liquid-gold/internal/models"
)

func TestSavingsDepositAndWithdraw(t *testing.T) {
	e := testEngine(t)
	u := seedUser(t, e, "alice@test.dev", 500)
	g, err := e.CreateSavingsGoal(context.Background(), u.ID, "Goa trip", amt("1000"), "", "")
	require.NoError(t, err)

	res, err := e.SavingsDeposit(context.Background(), u.ID, g.ID, amt("200"))
	require.NoError(t, err)
	require.True(t, res.Balance.Equal(amt("300")))
	require.True(t, res.Goal.Current.Equal(amt("200")))

	got := reload(t, e, u.ID)
	require.True(t, got.SavingsBalance.Equal(amt("200")))

	res, err = e.SavingsWithdraw(context.Background(), u.ID, g.ID, amt("150"))
	require.NoError(t, err)
	require.True(t, res.Balance.Equal(amt("450")))
	require.True(t, res.Goal.Current.Equal(amt("50")))
	require.True(t, reload(t, e, u.ID).SavingsBalance.Equal(amt("50")))

	_, err = e.SavingsWithdraw(context.Background(), u.ID, g.ID, amt("100"))
	require.ErrorIs(t, err, ErrInsufficientSavings)

	_, err = e.SavingsDeposit(context.Background(), u.ID, g.ID, amt("10000"))
	require.ErrorIs(t, err, ErrInsufficientFunds)
}

func TestSavingsGoalMilestoneFiresOnce(t *testing.T) {
	e := testEngine(t)
	u := seedUser(t, e, "alice@test.dev", 2000)
	g, err := e.CreateSavingsGoal(context.Background(), u.ID, "Laptop", amt("1000"), "", "")
	require.NoError(t, err)

	_, err = e.SavingsDeposit(context.Background(), u.ID, g.ID, amt("900"))
	require.NoError(t, err)
	milestones := countNotifications(t, e, u.ID, "🏆 Goal Achieved!")
	require.Zero(t, milestones)

	res, err := e.SavingsDeposit(context.Background(), u.ID, g.ID, amt("100"))
	require.NoError(t, err)
	require.True(t, res.Goal.Current.Equal(amt("1000")))
	require.Equal(t, 1, countNotifications(t, e, u.ID, "🏆 Goal Achieved!"))
	xpAfterMilestone := reload(t, e, u.ID).XP

	// past the target: no second milestone, no second bonus
	res, err = e.SavingsDeposit(context.Background(), u.ID, g.ID, amt("50"))
	require.NoError(t, err)
	require.True(t, res.Goal.Current.Equal(amt("1050")))
	require.Equal(t, 1, countNotifications(t, e, u.ID, "🏆 Goal Achieved!"))
	require.Equal(t, xpAfterMilestone+10, reload(t, e, u.ID).XP)
}

func TestDeleteSavingsGoalReturnsFunds(t *testing.T) {
	e := testEngine(t)
	u := seedUser(t, e, "alice@test.dev", 500)
	g, err := e.CreateSavingsGoal(context.Background(), u.ID, "Bike", amt("5000"), "", "")
	require.NoError(t, err)

	_, err = e.SavingsDeposit(context.Background(), u.ID, g.ID, amt("300"))
	require.NoError(t, err)

	require.NoError(t, e.DeleteSavingsGoal(context.Background(), u.ID, g.ID))

	got := reload(t, e, u.ID)
	require.True(t, got.Balance.Equal(amt("500")))
	require.True(t, got.SavingsBalance.IsZero())

	goals, err := e.Goals(context.Background(), u.ID)
	require.NoError(t, err)
	require.Empty(t, goals)
}

func TestSavingsMovesStayReconcilable(t *testing.T) {
	e := testEngine(t)
	u := seedUser(t, e, "alice@test.dev", 1000)
	g, err := e.CreateSavingsGoal(context.Background(), u.ID, "Fund", amt("500"), "", "")
	require.NoError(t, err)

	_, err = e.SavingsDeposit(context.Background(), u.ID, g.ID, amt("400"))
	require.NoError(t, err)
	_, err = e.SavingsWithdraw(context.Background(), u.ID, g.ID, amt("150"))
	require.NoError(t, err)

	require.NoError(t, e.RecomputeTotals(context.Background(), u.ID))
	got := reload(t, e, u.ID)
	require.True(t, got.TotalSent.Equal(amt("400")))
	require.True(t, got.TotalReceived.Equal(amt("150")))
}

func countNotifications(t *testing.T, e *Engine, userID uint, title string) int {
	t.Helper()
	var n int64
	require.NoError(t, e.db.Model(&models.Notification{}).
		Where("user_id = ? AND title = ?", userID, title).Count(&n).Error)
	return int(n)
}
