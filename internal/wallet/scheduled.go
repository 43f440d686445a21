package wallet

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/AnirudhAnand3/liquid-gold/internal/gamify"
	"github.com/AnirudhAnand3/liquid-gold/internal/models"
)

const dateLayout = "2006-01-02"

// CreateScheduledPayment records a recurring transfer intent. No money moves
// until the payment comes due.
func (e *Engine) CreateScheduledPayment(ctx context.Context, senderID uint, identifier string, amount decimal.Decimal, frequency, nextDate, description string) (*models.ScheduledPayment, error) {
	if !validAmount(amount) {
		return nil, ErrInvalidAmount
	}
	if _, err := time.Parse(dateLayout, nextDate); err != nil {
		return nil, ErrInvalidAmount
	}
	switch frequency {
	case models.FreqDaily, models.FreqWeekly, models.FreqMonthly:
	default:
		frequency = models.FreqMonthly
	}
	receiver, err := e.Resolve(ctx, identifier)
	if err != nil {
		return nil, err
	}
	if receiver.ID == senderID {
		return nil, ErrSelfReference
	}

	sp := models.ScheduledPayment{
		SenderID:    senderID,
		ReceiverID:  receiver.ID,
		Amount:      amount,
		Description: description,
		Frequency:   frequency,
		NextDate:    nextDate,
		Active:      true,
	}
	err = e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		u, err := e.user(ctx, tx, senderID)
		if err != nil {
			return err
		}
		if err := tx.Create(&sp).Error; err != nil {
			return err
		}
		awardXP(u, gamify.XPScheduled)
		return tx.Save(u).Error
	})
	if err != nil {
		return nil, err
	}
	return &sp, nil
}

// DeactivateScheduledPayment flips the active flag; the record stays for
// audit.
func (e *Engine) DeactivateScheduledPayment(ctx context.Context, senderID, paymentID uint) error {
	res := e.db.WithContext(ctx).Model(&models.ScheduledPayment{}).
		Where("id = ? AND sender_id = ?", paymentID, senderID).
		Update("active", false)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ScheduledFor lists the account's active payments ordered by due date.
func (e *Engine) ScheduledFor(ctx context.Context, senderID uint) ([]models.ScheduledPayment, error) {
	var out []models.ScheduledPayment
	err := e.db.WithContext(ctx).
		Where("sender_id = ? AND active = ?", senderID, true).
		Order("next_date").Find(&out).Error
	return out, err
}

// RunDuePayments executes every active payment due on or before today by
// reusing the Transfer primitive, fee and limit rules included, then
// advances next_date by the payment's frequency. A failed run is logged and
// skipped; the due date does not advance, so it is retried on the next
// sweep. Returns the number of successful runs.
func (e *Engine) RunDuePayments(ctx context.Context, today time.Time) (int, error) {
	cutoff := today.UTC().Format(dateLayout)
	var due []models.ScheduledPayment
	err := e.db.WithContext(ctx).
		Where("active = ? AND next_date <= ?", true, cutoff).
		Order("next_date").Find(&due).Error
	if err != nil {
		return 0, err
	}

	ran := 0
	for _, sp := range due {
		receiver, err := e.user(ctx, e.db, sp.ReceiverID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				e.log.Warn("scheduled payment receiver gone, deactivating",
					"payment", sp.ID, "receiver", sp.ReceiverID)
				_ = e.DeactivateScheduledPayment(ctx, sp.SenderID, sp.ID)
				continue
			}
			return ran, err
		}

		desc := sp.Description
		if desc == "" {
			desc = "Scheduled payment"
		}
		if _, err := e.Transfer(ctx, sp.SenderID, receiver.Email, sp.Amount, desc, "scheduled"); err != nil {
			e.log.Warn("scheduled payment failed",
				"payment", sp.ID, "sender", sp.SenderID, "err", err)
			continue
		}
		ran++

		next, err := advanceDate(sp.NextDate, sp.Frequency)
		if err != nil {
			e.log.Warn("scheduled payment has a bad date, deactivating",
				"payment", sp.ID, "next_date", sp.NextDate)
			_ = e.DeactivateScheduledPayment(ctx, sp.SenderID, sp.ID)
			continue
		}
		if err := e.db.WithContext(ctx).Model(&models.ScheduledPayment{}).
			Where("id = ?", sp.ID).Update("next_date", next).Error; err != nil {
			return ran, err
		}
	}
	return ran, nil
}

func advanceDate(date, frequency string) (string, error) {
	t, err := time.Parse(dateLayout, date)
	if err != nil {
		return "", err
	}
	switch frequency {
	case models.FreqDaily:
		t = t.AddDate(0, 0, 1)
	case models.FreqWeekly:
		t = t.AddDate(0, 0, 7)
	default:
		t = t.AddDate(0, 1, 0)
	}
	return t.Format(dateLayout), nil
}
