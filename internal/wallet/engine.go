// Package wallet is the money-movement engine: every operation that moves
// funds, writes the ledger or touches gamification counters lives here.
// Operations validate first, then take per-account locks, then apply all
// writes inside one gorm transaction, so callers observe either the full
// effect or none of it.
package wallet

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/AnirudhAnand3/liquid-gold/internal/gamify"
	"github.com/AnirudhAnand3/liquid-gold/internal/models"
)

// Operation limits and the fee rule.
var (
	MaxDeposit   = decimal.NewFromInt(100000)
	MaxTransfer  = decimal.NewFromInt(50000)
	FeeFreeLimit = decimal.NewFromInt(1000)
	FeeRate      = decimal.NewFromFloat(0.001)

	// WelcomeBalance seeds every new account.
	WelcomeBalance = decimal.NewFromInt(1000)
)

// Engine orchestrates the account store, ledger and gamification state.
type Engine struct {
	db  *gorm.DB
	log *slog.Logger
	now func() time.Time

	mu    sync.Mutex
	locks map[uint]*sync.Mutex
}

func New(db *gorm.DB, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	return &Engine{
		db:    db,
		log:   log,
		now:   time.Now,
		locks: make(map[uint]*sync.Mutex),
	}
}

// WithClock overrides the time source (tests only).
func (e *Engine) WithClock(now func() time.Time) { e.now = now }

// accountLock returns the mutex guarding one account, creating it on first use.
// Lock entries live for the process lifetime; the table is bounded by the
// number of accounts ever touched.
func (e *Engine) accountLock(id uint) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()
	m, ok := e.locks[id]
	if !ok {
		m = &sync.Mutex{}
		e.locks[id] = m
	}
	return m
}

// lockAccounts acquires the locks for the given account ids in ascending id
// order, so two mirror-image transfers can never deadlock. The returned
// function releases them in reverse order.
func (e *Engine) lockAccounts(ids ...uint) func() {
	sorted := append([]uint(nil), ids...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	held := make([]*sync.Mutex, 0, len(sorted))
	var prev uint
	for i, id := range sorted {
		if i > 0 && id == prev {
			continue
		}
		m := e.accountLock(id)
		m.Lock()
		held = append(held, m)
		prev = id
	}
	return func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i].Unlock()
		}
	}
}

// awardXP bumps a user's XP and recomputes the tier. XP never decreases.
func awardXP(u *models.User, points int) {
	u.XP += points
	u.Tier = gamify.TierFor(u.XP)
}

// notify queues an in-app notification row inside the current transaction.
func notify(tx *gorm.DB, userID uint, title, message, ntype string) error {
	return tx.Create(&models.Notification{
		UserID: userID, Title: title, Message: message, Type: ntype,
	}).Error
}

// logActivity appends an audit row inside the current transaction.
func logActivity(tx *gorm.DB, userID uint, action, details string) error {
	return tx.Create(&models.ActivityLog{
		UserID: userID, Action: action, Details: details,
	}).Error
}

// round2 normalizes an amount to currency precision.
func round2(d decimal.Decimal) decimal.Decimal { return d.Round(2) }

// validAmount rejects non-positive amounts and sub-paisa precision.
func validAmount(d decimal.Decimal) bool {
	return d.IsPositive() && d.Equal(d.Round(2))
}

func (e *Engine) user(ctx context.Context, tx *gorm.DB, id uint) (*models.User, error) {
	var u models.User
	if err := tx.WithContext(ctx).First(&u, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// Resolve finds an account by exact email or account-number match.
func (e *Engine) Resolve(ctx context.Context, identifier string) (*models.User, error) {
	var u models.User
	err := e.db.WithContext(ctx).
		Where("email = ? OR account_number = ?", identifier, identifier).
		First(&u).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrRecipientNotFound
		}
		return nil, err
	}
	return &u, nil
}
