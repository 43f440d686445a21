package wallet

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/AnirudhAnand3/liquid-gold/internal/gamify"
	"github.com/AnirudhAnand3/liquid-gold/internal/models"
	"github.com/AnirudhAnand3/liquid-gold/internal/reference"
)

var defaultBudgets = []models.BudgetCategory{
	{Name: "Food & Dining", Emoji: "🍔", Color: "#e74c3c", MonthlyLimit: decimal.NewFromInt(500)},
	{Name: "Transport", Emoji: "🚗", Color: "#3498db", MonthlyLimit: decimal.NewFromInt(300)},
	{Name: "Shopping", Emoji: "🛍️", Color: "#9b59b6", MonthlyLimit: decimal.NewFromInt(800)},
	{Name: "Entertainment", Emoji: "🎬", Color: "#f39c12", MonthlyLimit: decimal.NewFromInt(400)},
	{Name: "Health", Emoji: "💊", Color: "#2ecc71", MonthlyLimit: decimal.NewFromInt(300)},
	{Name: "Other", Emoji: "💰", Color: "#D4AF37", MonthlyLimit: decimal.NewFromInt(500)},
}

// GetOrCreateUser resolves an already-authenticated identity to an account,
// creating it with the welcome balance on first sight. Existing accounts get
// the streak transition for today.
func (e *Engine) GetOrCreateUser(ctx context.Context, email, username, via string) (*models.User, error) {
	today := e.now().UTC()

	var u models.User
	err := e.db.WithContext(ctx).Where("email = ?", email).First(&u).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return e.createUser(ctx, email, username, via, today)
	case err != nil:
		return nil, err
	}

	if err := e.RecordLogin(ctx, u.ID, today); err != nil {
		return nil, err
	}
	return e.user(ctx, e.db, u.ID)
}

func (e *Engine) createUser(ctx context.Context, email, username, via string, today time.Time) (*models.User, error) {
	u := models.User{
		Username:      username,
		Email:         email,
		AccountNumber: reference.NewAccountNumber(),
		Balance:       WelcomeBalance,
		Tier:          gamify.TierFor(0),
		LastLogin:     &today,
	}
	awardXP(&u, gamify.XPSignup)

	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&u).Error; err != nil {
			return err
		}
		for _, b := range defaultBudgets {
			b.UserID = u.ID
			if err := tx.Create(&b).Error; err != nil {
				return err
			}
		}
		if err := notify(tx, u.ID, "🎉 Welcome to Liquid Gold!",
			fmt.Sprintf("Hello %s! Your account starts with ₹1,000 bonus. Explore all features!", username),
			"success"); err != nil {
			return err
		}
		return logActivity(tx, u.ID, "Account Created", "via "+via)
	})
	if err != nil {
		return nil, err
	}
	e.log.Info("account created", "user", u.ID, "account", u.AccountNumber)
	return &u, nil
}

// RecordLogin runs the streak state machine for an activity on `today` and
// persists the outcome atomically with any milestone notification. Repeating
// the same day is a no-op; an out-of-order date is rejected.
func (e *Engine) RecordLogin(ctx context.Context, userID uint, today time.Time) error {
	unlock := e.lockAccounts(userID)
	defer unlock()

	return e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		u, err := e.user(ctx, tx, userID)
		if err != nil {
			return err
		}
		res, err := gamify.AdvanceStreak(u.Streak, u.LastLogin, today)
		if err != nil {
			return err
		}
		if res.SameDay {
			return nil
		}
		u.Streak = res.Streak
		awardXP(u, res.BonusXP)
		day := today.UTC()
		u.LastLogin = &day
		if err := tx.Save(u).Error; err != nil {
			return err
		}
		if res.Milestone {
			if err := notify(tx, u.ID, fmt.Sprintf("🔥 %d-Day Streak!", u.Streak),
				fmt.Sprintf("You've logged in %d days in a row! Bonus XP!", u.Streak), "success"); err != nil {
				return err
			}
		}
		return logActivity(tx, u.ID, "Login", "")
	})
}

// UpdateProfile edits the mutable non-money fields.
func (e *Engine) UpdateProfile(ctx context.Context, userID uint, username, bio, phone string) error {
	return e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		u, err := e.user(ctx, tx, userID)
		if err != nil {
			return err
		}
		u.Username = username
		u.Bio = bio
		u.Phone = phone
		if err := tx.Save(u).Error; err != nil {
			return err
		}
		return logActivity(tx, u.ID, "Profile Updated", "")
	})
}

// DeleteAccount removes the account and every record it owns or appears in:
// ledger rows on either side, goals, budgets, notifications, contact rows in
// both directions, scheduled payments either side, split memberships and
// audit rows. Bills the account created stay behind without the creator.
// The whole cascade commits as one transaction.
func (e *Engine) DeleteAccount(ctx context.Context, userID uint) error {
	unlock := e.lockAccounts(userID)
	defer unlock()

	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := e.user(ctx, tx, userID); err != nil {
			return err
		}
		steps := []*gorm.DB{
			tx.Where("sender_id = ? OR receiver_id = ?", userID, userID).Delete(&models.Transaction{}),
			tx.Where("user_id = ?", userID).Delete(&models.SavingsGoal{}),
			tx.Where("user_id = ?", userID).Delete(&models.BudgetCategory{}),
			tx.Where("user_id = ?", userID).Delete(&models.Notification{}),
			tx.Where("user_id = ? OR contact_id = ?", userID, userID).Delete(&models.Contact{}),
			tx.Where("sender_id = ? OR receiver_id = ?", userID, userID).Delete(&models.ScheduledPayment{}),
			tx.Where("user_id = ?", userID).Delete(&models.SplitBillMember{}),
			tx.Where("user_id = ?", userID).Delete(&models.ActivityLog{}),
		}
		for _, s := range steps {
			if s.Error != nil {
				return s.Error
			}
		}
		return tx.Delete(&models.User{}, userID).Error
	})
	if err != nil {
		return err
	}
	e.log.Info("account deleted", "user", userID)
	return nil
}

// RecomputeTotals re-derives the cached counters from the ledger. Used for
// repair after an interrupted operation; the ledger is the source of truth.
func (e *Engine) RecomputeTotals(ctx context.Context, userID uint) error {
	unlock := e.lockAccounts(userID)
	defer unlock()

	return e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		u, err := e.user(ctx, tx, userID)
		if err != nil {
			return err
		}
		var sent, received []models.Transaction
		if err := tx.Where("sender_id = ?", userID).Find(&sent).Error; err != nil {
			return err
		}
		if err := tx.Where("receiver_id = ?", userID).Find(&received).Error; err != nil {
			return err
		}
		totalSent, totalReceived := decimal.Zero, decimal.Zero
		count := 0
		for _, t := range sent {
			totalSent = totalSent.Add(t.Amount)
			if t.Type == models.TxnTransfer || t.Type == models.TxnSplit {
				count++
			}
		}
		for _, t := range received {
			totalReceived = totalReceived.Add(t.Amount)
			if t.Type == models.TxnTransfer || t.Type == models.TxnSplit {
				count++
			}
		}
		u.TotalSent = round2(totalSent)
		u.TotalReceived = round2(totalReceived)
		u.TotalTxnCount = count
		return tx.Save(u).Error
	})
}
