package wallet

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/AnirudhAnand3/liquid-gold/internal/models"
)

// BalanceSnapshot is the read-side view of one account's money and
// gamification state. It reflects either the pre- or post-state of any
// in-flight operation, never a partial one.
type BalanceSnapshot struct {
	Balance        decimal.Decimal `json:"balance"`
	SavingsBalance decimal.Decimal `json:"savings_balance"`
	XP             int             `json:"xp"`
	Tier           string          `json:"tier"`
	Streak         int             `json:"streak"`
}

func (e *Engine) Balance(ctx context.Context, userID uint) (*BalanceSnapshot, error) {
	u, err := e.user(ctx, e.db, userID)
	if err != nil {
		return nil, err
	}
	return &BalanceSnapshot{
		Balance:        u.Balance,
		SavingsBalance: u.SavingsBalance,
		XP:             u.XP,
		Tier:           u.Tier,
		Streak:         u.Streak,
	}, nil
}

func (e *Engine) User(ctx context.Context, userID uint) (*models.User, error) {
	return e.user(ctx, e.db, userID)
}

// Transactions returns one page of the account's ledger entries, most recent
// first with insertion order breaking timestamp ties.
func (e *Engine) Transactions(ctx context.Context, userID uint, page, perPage int) ([]models.Transaction, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 200 {
		perPage = 20
	}
	var txns []models.Transaction
	err := e.db.WithContext(ctx).
		Where("sender_id = ? OR receiver_id = ?", userID, userID).
		Order("created_at desc, id desc").
		Offset((page - 1) * perPage).Limit(perPage).
		Find(&txns).Error
	return txns, err
}

// DaySpend is one day of outgoing/incoming sums.
type DaySpend struct {
	Date     string          `json:"date"`
	Spent    decimal.Decimal `json:"spent"`
	Received decimal.Decimal `json:"received"`
}

// CategorySpend is one month-to-date transfer category total.
type CategorySpend struct {
	Category string          `json:"category"`
	Total    decimal.Decimal `json:"total"`
}

// Analytics sums the last `days` of spending and receipts per day, plus
// month-to-date transfer totals per category.
func (e *Engine) Analytics(ctx context.Context, userID uint, days int) ([]DaySpend, []CategorySpend, error) {
	if days < 1 {
		days = 30
	}
	now := e.now().UTC()
	since := now.AddDate(0, 0, -(days - 1))
	start := time.Date(since.Year(), since.Month(), since.Day(), 0, 0, 0, 0, time.UTC)

	var txns []models.Transaction
	err := e.db.WithContext(ctx).
		Where("(sender_id = ? OR receiver_id = ?) AND created_at >= ?", userID, userID, start).
		Find(&txns).Error
	if err != nil {
		return nil, nil, err
	}

	spent := make(map[string]decimal.Decimal)
	received := make(map[string]decimal.Decimal)
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	byCategory := make(map[string]decimal.Decimal)
	for _, t := range txns {
		day := t.CreatedAt.UTC().Format(dateLayout)
		if t.SenderID != nil && *t.SenderID == userID &&
			(t.Type == models.TxnTransfer || t.Type == models.TxnWithdrawal) {
			spent[day] = spent[day].Add(t.Amount)
			if t.Type == models.TxnTransfer && !t.CreatedAt.Before(monthStart) {
				byCategory[t.Category] = byCategory[t.Category].Add(t.Amount)
			}
		}
		if t.ReceiverID != nil && *t.ReceiverID == userID &&
			(t.Type == models.TxnTransfer || t.Type == models.TxnDeposit) {
			received[day] = received[day].Add(t.Amount)
		}
	}

	daily := make([]DaySpend, 0, days)
	for i := days - 1; i >= 0; i-- {
		day := now.AddDate(0, 0, -i).Format(dateLayout)
		daily = append(daily, DaySpend{
			Date:     day,
			Spent:    round2(spent[day]),
			Received: round2(received[day]),
		})
	}
	categories := make([]CategorySpend, 0, len(byCategory))
	for c, total := range byCategory {
		categories = append(categories, CategorySpend{Category: c, Total: round2(total)})
	}
	return daily, categories, nil
}

// Notifications returns the newest notifications for an account.
func (e *Engine) Notifications(ctx context.Context, userID uint, limit int) ([]models.Notification, error) {
	if limit < 1 {
		limit = 30
	}
	var out []models.Notification
	err := e.db.WithContext(ctx).Where("user_id = ?", userID).
		Order("created_at desc, id desc").Limit(limit).Find(&out).Error
	return out, err
}

// MarkNotificationsRead flips every unread notification for the account.
func (e *Engine) MarkNotificationsRead(ctx context.Context, userID uint) error {
	return e.db.WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Update("is_read", true).Error
}

// AddContact registers a directed contact relation; duplicates are rejected.
func (e *Engine) AddContact(ctx context.Context, userID uint, identifier, nickname string) (*models.User, error) {
	target, err := e.Resolve(ctx, identifier)
	if err != nil {
		return nil, err
	}
	if target.ID == userID {
		return nil, ErrSelfReference
	}
	var existing models.Contact
	err = e.db.WithContext(ctx).
		Where("user_id = ? AND contact_id = ?", userID, target.ID).
		First(&existing).Error
	if err == nil {
		return nil, ErrDuplicateContact
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	c := models.Contact{UserID: userID, ContactID: target.ID, Nickname: nickname}
	if err := e.db.WithContext(ctx).Create(&c).Error; err != nil {
		return nil, err
	}
	return target, nil
}

func (e *Engine) DeleteContact(ctx context.Context, userID, contactID uint) error {
	res := e.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", contactID, userID).
		Delete(&models.Contact{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (e *Engine) Contacts(ctx context.Context, userID uint) ([]models.Contact, error) {
	var out []models.Contact
	err := e.db.WithContext(ctx).Where("user_id = ?", userID).Find(&out).Error
	return out, err
}

// UpdateBudgetLimit changes one budget category's monthly ceiling.
func (e *Engine) UpdateBudgetLimit(ctx context.Context, userID, categoryID uint, limit decimal.Decimal) error {
	if limit.IsNegative() {
		return ErrInvalidAmount
	}
	res := e.db.WithContext(ctx).Model(&models.BudgetCategory{}).
		Where("id = ? AND user_id = ?", categoryID, userID).
		Update("monthly_limit", limit)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (e *Engine) Budgets(ctx context.Context, userID uint) ([]models.BudgetCategory, error) {
	var out []models.BudgetCategory
	err := e.db.WithContext(ctx).Where("user_id = ?", userID).Find(&out).Error
	return out, err
}
