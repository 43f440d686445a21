package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// User is the balance-holding account. Tier is always recomputed from XP,
// never edited on its own.
type User struct {
	ID             uint            `json:"id" gorm:"primaryKey;autoIncrement"`
	Username       string          `json:"username" gorm:"size:64;not null"`
	Email          string          `json:"email" gorm:"size:320;uniqueIndex;not null"`
	AccountNumber  string          `json:"account_number" gorm:"size:20;uniqueIndex"`
	Balance        decimal.Decimal `json:"balance" gorm:"not null"`
	SavingsBalance decimal.Decimal `json:"savings_balance" gorm:"not null"`
	Bio            string          `json:"bio" gorm:"size:200"`
	Phone          string          `json:"phone" gorm:"size:20"`
	Tier           string          `json:"tier" gorm:"size:20"`
	XP             int             `json:"xp"`
	Streak         int             `json:"streak"`
	LastLogin      *time.Time      `json:"last_login"`
	TotalSent      decimal.Decimal `json:"total_sent"`
	TotalReceived  decimal.Decimal `json:"total_received"`
	TotalTxnCount  int             `json:"total_txn_count"`
	CreatedAt      time.Time       `json:"created_at"`
}

// Transaction is an immutable ledger entry. At least one of SenderID and
// ReceiverID is set; both are set for transfers and split settlements.
type Transaction struct {
	ID             uint            `json:"id" gorm:"primaryKey;autoIncrement"`
	SenderID       *uint           `json:"sender_id" gorm:"index"`
	ReceiverID     *uint           `json:"receiver_id" gorm:"index"`
	Amount         decimal.Decimal `json:"amount" gorm:"not null"`
	Fee            decimal.Decimal `json:"fee"`
	Description    string          `json:"description" gorm:"size:200"`
	Type           string          `json:"type" gorm:"size:20;index"`
	Category       string          `json:"category" gorm:"size:50"`
	Reference      string          `json:"reference" gorm:"size:30;uniqueIndex"`
	IdempotencyKey string          `json:"-" gorm:"size:40;index"`
	CreatedAt      time.Time       `json:"created_at"`
}

// Transaction type tags.
const (
	TxnDeposit    = "deposit"
	TxnWithdrawal = "withdrawal"
	TxnTransfer   = "transfer"
	TxnSavings    = "savings"
	TxnSplit      = "split"
)

type Notification struct {
	ID        uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	UserID    uint      `json:"-" gorm:"index;not null"`
	Title     string    `json:"title" gorm:"size:100;not null"`
	Message   string    `json:"message" gorm:"size:300;not null"`
	Type      string    `json:"type" gorm:"size:20"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

type SavingsGoal struct {
	ID        uint            `json:"id" gorm:"primaryKey;autoIncrement"`
	UserID    uint            `json:"-" gorm:"index;not null"`
	Name      string          `json:"name" gorm:"size:100;not null"`
	Target    decimal.Decimal `json:"target" gorm:"not null"`
	Current   decimal.Decimal `json:"current"`
	Emoji     string          `json:"emoji" gorm:"size:8"`
	Deadline  string          `json:"deadline" gorm:"size:20"`
	CreatedAt time.Time       `json:"created_at"`
}

type BudgetCategory struct {
	ID           uint            `json:"id" gorm:"primaryKey;autoIncrement"`
	UserID       uint            `json:"-" gorm:"index;not null"`
	Name         string          `json:"name" gorm:"size:50;not null"`
	MonthlyLimit decimal.Decimal `json:"monthly_limit"`
	Color        string          `json:"color" gorm:"size:10"`
	Emoji        string          `json:"emoji" gorm:"size:8"`
	CreatedAt    time.Time       `json:"created_at"`
}

// Contact is a directed relation; (UserID, ContactID) is unique.
type Contact struct {
	ID        uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	UserID    uint      `json:"-" gorm:"uniqueIndex:idx_contact_pair;not null"`
	ContactID uint      `json:"contact_id" gorm:"uniqueIndex:idx_contact_pair;not null"`
	Nickname  string    `json:"nickname" gorm:"size:50"`
	AddedAt   time.Time `json:"added_at" gorm:"autoCreateTime"`
}

// ScheduledPayment frequency tags.
const (
	FreqDaily   = "daily"
	FreqWeekly  = "weekly"
	FreqMonthly = "monthly"
)

type ScheduledPayment struct {
	ID          uint            `json:"id" gorm:"primaryKey;autoIncrement"`
	SenderID    uint            `json:"-" gorm:"index;not null"`
	ReceiverID  uint            `json:"receiver_id" gorm:"index;not null"`
	Amount      decimal.Decimal `json:"amount" gorm:"not null"`
	Description string          `json:"description" gorm:"size:200"`
	Frequency   string          `json:"frequency" gorm:"size:20"`
	NextDate    string          `json:"next_date" gorm:"size:20;not null"`
	Active      bool            `json:"active"`
	CreatedAt   time.Time       `json:"created_at"`
}

type SplitBill struct {
	ID          uint              `json:"id" gorm:"primaryKey;autoIncrement"`
	CreatorID   uint              `json:"creator_id" gorm:"index;not null"`
	Title       string            `json:"title" gorm:"size:100;not null"`
	TotalAmount decimal.Decimal   `json:"total_amount" gorm:"not null"`
	Description string            `json:"description" gorm:"size:200"`
	Members     []SplitBillMember `json:"members" gorm:"foreignKey:BillID"`
	CreatedAt   time.Time         `json:"created_at"`
}

type SplitBillMember struct {
	ID         uint            `json:"id" gorm:"primaryKey;autoIncrement"`
	BillID     uint            `json:"bill_id" gorm:"index;not null"`
	UserID     uint            `json:"user_id" gorm:"index;not null"`
	AmountOwed decimal.Decimal `json:"amount_owed" gorm:"not null"`
	Paid       bool            `json:"paid"`
	PaidAt     *time.Time      `json:"paid_at"`
}

type ActivityLog struct {
	ID        uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	UserID    uint      `json:"-" gorm:"index;not null"`
	Action    string    `json:"action" gorm:"size:100;not null"`
	Details   string    `json:"details" gorm:"size:200"`
	IP        string    `json:"ip" gorm:"size:50"`
	CreatedAt time.Time `json:"created_at"`
}
