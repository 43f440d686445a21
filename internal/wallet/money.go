package wallet

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/AnirudhAnand3/liquid-gold/internal/gamify"
	"github.com/AnirudhAnand3/liquid-gold/internal/models"
	"github.com/AnirudhAnand3/liquid-gold/internal/reference"
)

// MoveResult reports the caller-visible outcome of a money movement.
type MoveResult struct {
	Balance      decimal.Decimal `json:"balance"`
	Reference    string          `json:"reference"`
	Fee          decimal.Decimal `json:"fee"`
	ReceiverName string          `json:"receiver_name,omitempty"`
}

// Deposit credits the spendable balance. Fee-free, capped at MaxDeposit.
func (e *Engine) Deposit(ctx context.Context, userID uint, amount decimal.Decimal, method string) (*MoveResult, error) {
	if !validAmount(amount) {
		return nil, ErrInvalidAmount
	}
	if amount.GreaterThan(MaxDeposit) {
		return nil, ErrLimitExceeded
	}

	unlock := e.lockAccounts(userID)
	defer unlock()

	ref := reference.NewRef()
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		u, err := e.user(ctx, tx, userID)
		if err != nil {
			return err
		}
		u.Balance = round2(u.Balance.Add(amount))
		u.TotalReceived = round2(u.TotalReceived.Add(amount))
		awardXP(u, gamify.XPDeposit)
		if err := tx.Save(u).Error; err != nil {
			return err
		}
		entry := models.Transaction{
			ReceiverID:  &u.ID,
			Amount:      amount,
			Description: fmt.Sprintf("Deposit via %s", method),
			Type:        models.TxnDeposit,
			Reference:   ref,
		}
		if err := tx.Create(&entry).Error; err != nil {
			return err
		}
		if err := notify(tx, u.ID, "💰 Deposit Successful",
			fmt.Sprintf("₹%s added to your wallet. Ref: %s", amount.StringFixed(2), ref), "success"); err != nil {
			return err
		}
		return logActivity(tx, u.ID, "Deposit", fmt.Sprintf("₹%s via %s", amount.StringFixed(2), method))
	})
	if err != nil {
		return nil, err
	}

	e.log.Info("deposit", "user", userID, "amount", amount.StringFixed(2), "ref", ref)
	return e.result(ctx, userID, ref, decimal.Zero, "")
}

// Withdraw debits the spendable balance. Fee-free; fails fast if the balance
// cannot cover the amount.
func (e *Engine) Withdraw(ctx context.Context, userID uint, amount decimal.Decimal) (*MoveResult, error) {
	if !validAmount(amount) {
		return nil, ErrInvalidAmount
	}

	unlock := e.lockAccounts(userID)
	defer unlock()

	ref := reference.NewRef()
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		u, err := e.user(ctx, tx, userID)
		if err != nil {
			return err
		}
		if u.Balance.LessThan(amount) {
			return ErrInsufficientFunds
		}
		u.Balance = round2(u.Balance.Sub(amount))
		u.TotalSent = round2(u.TotalSent.Add(amount))
		if err := tx.Save(u).Error; err != nil {
			return err
		}
		entry := models.Transaction{
			SenderID:    &u.ID,
			Amount:      amount,
			Description: "Withdrawal to bank",
			Type:        models.TxnWithdrawal,
			Reference:   ref,
		}
		if err := tx.Create(&entry).Error; err != nil {
			return err
		}
		if err := notify(tx, u.ID, "🏦 Withdrawal Initiated",
			fmt.Sprintf("₹%s will reach your bank in 2-3 days. Ref: %s", amount.StringFixed(2), ref), "info"); err != nil {
			return err
		}
		return logActivity(tx, u.ID, "Withdrawal", "₹"+amount.StringFixed(2))
	})
	if err != nil {
		return nil, err
	}

	e.log.Info("withdraw", "user", userID, "amount", amount.StringFixed(2), "ref", ref)
	return e.result(ctx, userID, ref, decimal.Zero, "")
}

// FeeFor returns the platform fee for a transfer amount: 0.1% above the
// fee-free limit, rounded to currency precision, else zero. The fee is
// charged to the sender and not credited to anyone.
func FeeFor(amount decimal.Decimal) decimal.Decimal {
	if amount.GreaterThan(FeeFreeLimit) {
		return amount.Mul(FeeRate).Round(2)
	}
	return decimal.Zero
}

// Transfer moves amount from sender to the account matching identifier
// (email or account number). Both accounts are locked in id order before any
// mutation; the ledger entry, both balances, counters, the contact upsert
// and the xp award commit as one transaction.
func (e *Engine) Transfer(ctx context.Context, senderID uint, identifier string, amount decimal.Decimal, description, category string) (*MoveResult, error) {
	if !validAmount(amount) {
		return nil, ErrInvalidAmount
	}
	if amount.GreaterThan(MaxTransfer) {
		return nil, ErrLimitExceeded
	}
	recv, err := e.Resolve(ctx, identifier)
	if err != nil {
		return nil, err
	}
	if recv.ID == senderID {
		return nil, ErrSelfReference
	}

	unlock := e.lockAccounts(senderID, recv.ID)
	defer unlock()

	fee := FeeFor(amount)
	ref := reference.NewRef()
	var receiverName string
	err = e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sender, err := e.user(ctx, tx, senderID)
		if err != nil {
			return err
		}
		receiver, err := e.user(ctx, tx, recv.ID)
		if err != nil {
			return err
		}
		receiverName = receiver.Username

		if description == "" {
			description = "Transfer to " + receiver.Username
		}
		if category == "" {
			category = "other"
		}
		return e.applyTransfer(tx, sender, receiver, transferSpec{
			Amount:      amount,
			Fee:         fee,
			Description: description,
			Category:    category,
			Type:        models.TxnTransfer,
			Reference:   ref,
			XP:          gamify.XPTransfer,
			SaveContact: true,
		})
	})
	if err != nil {
		return nil, err
	}

	e.log.Info("transfer", "sender", senderID, "receiver", recv.ID,
		"amount", amount.StringFixed(2), "fee", fee.StringFixed(2), "ref", ref)
	return e.result(ctx, senderID, ref, fee, receiverName)
}

// transferSpec carries the per-kind knobs of a two-party movement so the
// split-settlement path can reuse the same primitive fee-free.
type transferSpec struct {
	Amount      decimal.Decimal
	Fee         decimal.Decimal
	Description string
	Category    string
	Type        string
	Reference   string
	XP          int
	SaveContact bool
}

// applyTransfer performs the balance, counter, ledger and notification writes
// for a two-party movement. Callers hold both account locks and run inside a
// transaction.
func (e *Engine) applyTransfer(tx *gorm.DB, sender, receiver *models.User, spec transferSpec) error {
	deduct := spec.Amount.Add(spec.Fee)
	if sender.Balance.LessThan(deduct) {
		return ErrInsufficientFunds
	}

	sender.Balance = round2(sender.Balance.Sub(deduct))
	sender.TotalSent = round2(sender.TotalSent.Add(spec.Amount))
	sender.TotalTxnCount++
	receiver.Balance = round2(receiver.Balance.Add(spec.Amount))
	receiver.TotalReceived = round2(receiver.TotalReceived.Add(spec.Amount))
	receiver.TotalTxnCount++
	if spec.XP > 0 {
		awardXP(sender, spec.XP)
	}
	if err := tx.Save(sender).Error; err != nil {
		return err
	}
	if err := tx.Save(receiver).Error; err != nil {
		return err
	}

	entry := models.Transaction{
		SenderID:       &sender.ID,
		ReceiverID:     &receiver.ID,
		Amount:         spec.Amount,
		Fee:            spec.Fee,
		Description:    spec.Description,
		Type:           spec.Type,
		Category:       spec.Category,
		Reference:      spec.Reference,
		IdempotencyKey: uuid.New().String(),
	}
	if err := tx.Create(&entry).Error; err != nil {
		return err
	}

	amt := spec.Amount.StringFixed(2)
	if err := notify(tx, receiver.ID, "💸 Money Received!",
		fmt.Sprintf("You received ₹%s from %s. Ref: %s", amt, sender.Username, spec.Reference), "success"); err != nil {
		return err
	}
	if err := notify(tx, sender.ID, "✅ Transfer Successful",
		fmt.Sprintf("₹%s sent to %s. Ref: %s", amt, receiver.Username, spec.Reference), "success"); err != nil {
		return err
	}
	if err := logActivity(tx, sender.ID, "Transfer Sent",
		fmt.Sprintf("₹%s to %s", amt, receiver.Username)); err != nil {
		return err
	}

	if spec.SaveContact {
		var existing models.Contact
		err := tx.Where("user_id = ? AND contact_id = ?", sender.ID, receiver.ID).
			First(&existing).Error
		if err == gorm.ErrRecordNotFound {
			if err := tx.Create(&models.Contact{UserID: sender.ID, ContactID: receiver.ID}).Error; err != nil {
				return err
			}
		} else if err != nil {
			return err
		}
	}
	return nil
}

// result re-reads the committed balance so the caller never sees a value
// computed outside the transaction.
func (e *Engine) result(ctx context.Context, userID uint, ref string, fee decimal.Decimal, receiverName string) (*MoveResult, error) {
	u, err := e.user(ctx, e.db, userID)
	if err != nil {
		return nil, err
	}
	return &MoveResult{
		Balance:      u.Balance,
		Reference:    ref,
		Fee:          fee,
		ReceiverName: receiverName,
	}, nil
}
