package wallet

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/AnirudhAnand3/liquid-gold/internal/gamify"
	"github.com/AnirudhAnand3/liquid-gold/internal/models"
	"github.com/AnirudhAnand3/liquid-gold/internal/reference"
)

// SavingsResult bundles the refreshed balance with the affected goal.
type SavingsResult struct {
	Balance decimal.Decimal    `json:"balance"`
	Goal    models.SavingsGoal `json:"goal"`
}

func (e *Engine) goal(ctx context.Context, tx *gorm.DB, userID, goalID uint) (*models.SavingsGoal, error) {
	var g models.SavingsGoal
	err := tx.WithContext(ctx).Where("id = ? AND user_id = ?", goalID, userID).First(&g).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &g, nil
}

// CreateSavingsGoal registers a goal with a positive target. No money moves.
func (e *Engine) CreateSavingsGoal(ctx context.Context, userID uint, name string, target decimal.Decimal, emoji, deadline string) (*models.SavingsGoal, error) {
	if name == "" || !validAmount(target) {
		return nil, ErrInvalidAmount
	}
	if emoji == "" {
		emoji = "🎯"
	}
	g := models.SavingsGoal{
		UserID: userID, Name: name, Target: target, Emoji: emoji, Deadline: deadline,
	}
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		u, err := e.user(ctx, tx, userID)
		if err != nil {
			return err
		}
		if err := tx.Create(&g).Error; err != nil {
			return err
		}
		awardXP(u, gamify.XPGoalCreated)
		if err := tx.Save(u).Error; err != nil {
			return err
		}
		return notify(tx, u.ID, fmt.Sprintf("%s Goal Created!", emoji),
			fmt.Sprintf("%q — Target ₹%s. You got this!", name, target.StringFixed(0)), "info")
	})
	if err != nil {
		return nil, err
	}
	return &g, nil
}

// SavingsDeposit moves funds from the spendable balance into a goal. The
// balance drops and savings_balance plus goal.current rise by the same
// amount, with a ledger entry justifying the delta. Crossing the target for
// the first time awards bonus XP and a milestone notification; later
// deposits past the target do not re-trigger it.
func (e *Engine) SavingsDeposit(ctx context.Context, userID, goalID uint, amount decimal.Decimal) (*SavingsResult, error) {
	if !validAmount(amount) {
		return nil, ErrInvalidAmount
	}

	unlock := e.lockAccounts(userID)
	defer unlock()

	var out SavingsResult
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		u, err := e.user(ctx, tx, userID)
		if err != nil {
			return err
		}
		g, err := e.goal(ctx, tx, userID, goalID)
		if err != nil {
			return err
		}
		if u.Balance.LessThan(amount) {
			return ErrInsufficientFunds
		}

		reachedBefore := g.Current.GreaterThanOrEqual(g.Target)
		u.Balance = round2(u.Balance.Sub(amount))
		u.SavingsBalance = round2(u.SavingsBalance.Add(amount))
		u.TotalSent = round2(u.TotalSent.Add(amount))
		g.Current = round2(g.Current.Add(amount))
		awardXP(u, gamify.XPSavingsDeposit)

		entry := models.Transaction{
			SenderID:    &u.ID,
			Amount:      amount,
			Description: "Savings: " + g.Name,
			Type:        models.TxnSavings,
			Reference:   reference.NewRef(),
		}
		if err := tx.Create(&entry).Error; err != nil {
			return err
		}

		if !reachedBefore && g.Current.GreaterThanOrEqual(g.Target) {
			awardXP(u, gamify.XPGoalReached)
			if err := notify(tx, u.ID, "🏆 Goal Achieved!",
				fmt.Sprintf("You've hit your %q target of ₹%s!", g.Name, g.Target.StringFixed(0)), "success"); err != nil {
				return err
			}
		}
		if err := tx.Save(u).Error; err != nil {
			return err
		}
		if err := tx.Save(g).Error; err != nil {
			return err
		}
		out = SavingsResult{Balance: u.Balance, Goal: *g}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// SavingsWithdraw moves funds from a goal back to the spendable balance.
func (e *Engine) SavingsWithdraw(ctx context.Context, userID, goalID uint, amount decimal.Decimal) (*SavingsResult, error) {
	if !validAmount(amount) {
		return nil, ErrInvalidAmount
	}

	unlock := e.lockAccounts(userID)
	defer unlock()

	var out SavingsResult
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		u, err := e.user(ctx, tx, userID)
		if err != nil {
			return err
		}
		g, err := e.goal(ctx, tx, userID, goalID)
		if err != nil {
			return err
		}
		if g.Current.LessThan(amount) {
			return ErrInsufficientSavings
		}

		u.Balance = round2(u.Balance.Add(amount))
		u.SavingsBalance = round2(u.SavingsBalance.Sub(amount))
		u.TotalReceived = round2(u.TotalReceived.Add(amount))
		g.Current = round2(g.Current.Sub(amount))

		entry := models.Transaction{
			ReceiverID:  &u.ID,
			Amount:      amount,
			Description: "Savings withdrawal: " + g.Name,
			Type:        models.TxnSavings,
			Reference:   reference.NewRef(),
		}
		if err := tx.Create(&entry).Error; err != nil {
			return err
		}
		if err := tx.Save(u).Error; err != nil {
			return err
		}
		if err := tx.Save(g).Error; err != nil {
			return err
		}
		out = SavingsResult{Balance: u.Balance, Goal: *g}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteSavingsGoal returns any remaining funds to the spendable balance and
// removes the goal.
func (e *Engine) DeleteSavingsGoal(ctx context.Context, userID, goalID uint) error {
	unlock := e.lockAccounts(userID)
	defer unlock()

	return e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		u, err := e.user(ctx, tx, userID)
		if err != nil {
			return err
		}
		g, err := e.goal(ctx, tx, userID, goalID)
		if err != nil {
			return err
		}
		if g.Current.IsPositive() {
			u.Balance = round2(u.Balance.Add(g.Current))
			u.SavingsBalance = round2(u.SavingsBalance.Sub(g.Current))
			u.TotalReceived = round2(u.TotalReceived.Add(g.Current))
			entry := models.Transaction{
				ReceiverID:  &u.ID,
				Amount:      g.Current,
				Description: "Savings goal closed: " + g.Name,
				Type:        models.TxnSavings,
				Reference:   reference.NewRef(),
			}
			if err := tx.Create(&entry).Error; err != nil {
				return err
			}
			if err := tx.Save(u).Error; err != nil {
				return err
			}
		}
		return tx.Delete(g).Error
	})
}

// Goals lists the account's goals, newest first.
func (e *Engine) Goals(ctx context.Context, userID uint) ([]models.SavingsGoal, error) {
	var goals []models.SavingsGoal
	err := e.db.WithContext(ctx).Where("user_id = ?", userID).
		Order("created_at desc").Find(&goals).Error
	return goals, err
}
