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

// SplitMemberInput names one intended participant by email or account number.
type SplitMemberInput struct {
	Identifier string          `json:"identifier"`
	Amount     decimal.Decimal `json:"amount"`
}

// CreateSplitBill records a shared expense. The creator gets a paid,
// zero-owed member row; each resolvable participant gets an unpaid row for
// their share and a notification. Identifiers that match no account are
// skipped without error and receive no debt; member amounts are taken as
// given and are not forced to sum to the bill total.
func (e *Engine) CreateSplitBill(ctx context.Context, creatorID uint, title string, total decimal.Decimal, description string, members []SplitMemberInput) (*models.SplitBill, error) {
	if title == "" || !validAmount(total) {
		return nil, ErrInvalidAmount
	}
	if len(members) == 0 {
		return nil, ErrEmptyMembers
	}

	var bill models.SplitBill
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		creator, err := e.user(ctx, tx, creatorID)
		if err != nil {
			return err
		}
		bill = models.SplitBill{
			CreatorID: creatorID, Title: title, TotalAmount: total, Description: description,
		}
		if err := tx.Create(&bill).Error; err != nil {
			return err
		}
		if err := tx.Create(&models.SplitBillMember{
			BillID: bill.ID, UserID: creatorID, AmountOwed: decimal.Zero, Paid: true,
		}).Error; err != nil {
			return err
		}

		for _, m := range members {
			var u models.User
			err := tx.Where("email = ? OR account_number = ?", m.Identifier, m.Identifier).
				First(&u).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			if u.ID == creatorID || !m.Amount.IsPositive() {
				continue
			}
			if err := tx.Create(&models.SplitBillMember{
				BillID: bill.ID, UserID: u.ID, AmountOwed: round2(m.Amount),
			}).Error; err != nil {
				return err
			}
			if err := notify(tx, u.ID, "🧾 Split Bill",
				fmt.Sprintf("%s added you to %q. You owe ₹%s", creator.Username, title, m.Amount.StringFixed(2)),
				"warning"); err != nil {
				return err
			}
		}

		awardXP(creator, gamify.XPSplitCreated)
		return tx.Save(creator).Error
	})
	if err != nil {
		return nil, err
	}
	return &bill, nil
}

// SettleSplitShare pays the caller's own unpaid share of a bill to its
// creator: a fee-free two-party movement plus the one-way unpaid→paid flip.
// A second attempt finds nothing unpaid and moves no money.
func (e *Engine) SettleSplitShare(ctx context.Context, payerID, billID uint) (*MoveResult, error) {
	var bill models.SplitBill
	if err := e.db.WithContext(ctx).First(&bill, billID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	unlock := e.lockAccounts(payerID, bill.CreatorID)
	defer unlock()

	ref := reference.NewRef()
	var balance decimal.Decimal
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var membership models.SplitBillMember
		err := tx.Where("bill_id = ? AND user_id = ? AND paid = ?", billID, payerID, false).
			First(&membership).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNothingToPay
		}
		if err != nil {
			return err
		}

		payer, err := e.user(ctx, tx, payerID)
		if err != nil {
			return err
		}
		creator, err := e.user(ctx, tx, bill.CreatorID)
		if err != nil {
			return err
		}
		if err := e.applyTransfer(tx, payer, creator, transferSpec{
			Amount:      membership.AmountOwed,
			Fee:         decimal.Zero,
			Description: "Split: " + bill.Title,
			Category:    "split",
			Type:        models.TxnSplit,
			Reference:   ref,
		}); err != nil {
			return err
		}

		now := e.now().UTC()
		membership.Paid = true
		membership.PaidAt = &now
		if err := tx.Save(&membership).Error; err != nil {
			return err
		}
		if err := notify(tx, creator.ID, "💸 Split Payment",
			fmt.Sprintf("%s paid ₹%s for %q", payer.Username, membership.AmountOwed.StringFixed(2), bill.Title),
			"success"); err != nil {
			return err
		}
		balance = payer.Balance
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.log.Info("split settled", "payer", payerID, "bill", billID, "ref", ref)
	return &MoveResult{Balance: balance, Reference: ref, Fee: decimal.Zero}, nil
}

// BillsFor lists the bills the account participates in, newest first.
func (e *Engine) BillsFor(ctx context.Context, userID uint, limit int) ([]models.SplitBill, error) {
	var billIDs []uint
	err := e.db.WithContext(ctx).Model(&models.SplitBillMember{}).
		Where("user_id = ?", userID).Pluck("bill_id", &billIDs).Error
	if err != nil {
		return nil, err
	}
	if len(billIDs) == 0 {
		return nil, nil
	}
	var bills []models.SplitBill
	q := e.db.WithContext(ctx).Preload("Members").
		Where("id IN ?", billIDs).Order("created_at desc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	return bills, q.Find(&bills).Error
}
