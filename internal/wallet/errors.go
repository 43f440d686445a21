package wallet

import "errors"

// Domain errors surfaced by the engine. The HTTP layer maps these to status
// codes; the engine never retries them.
var (
	// ErrInvalidAmount covers non-positive or precision-invalid amounts.
	ErrInvalidAmount = errors.New("amount must be positive")

	// ErrLimitExceeded means a fixed per-operation ceiling was crossed.
	ErrLimitExceeded = errors.New("amount exceeds the per-transaction limit")

	// ErrInsufficientFunds means the spendable balance cannot cover the
	// amount plus any fee.
	ErrInsufficientFunds = errors.New("insufficient balance")

	// ErrInsufficientSavings means a goal holds less than the requested
	// withdrawal.
	ErrInsufficientSavings = errors.New("insufficient savings")

	// ErrRecipientNotFound means no account matched the email or account
	// number given.
	ErrRecipientNotFound = errors.New("no user found with that email or account number")

	// ErrNotFound means a goal, bill, payment, contact or user id did not
	// resolve to a record owned by the caller.
	ErrNotFound = errors.New("not found")

	// ErrSelfReference means the operation targeted the calling account.
	ErrSelfReference = errors.New("cannot target your own account")

	// ErrDuplicateContact means the (owner, contact) pair already exists.
	ErrDuplicateContact = errors.New("already in contacts")

	// ErrNothingToPay means the caller has no unpaid share on the bill.
	ErrNothingToPay = errors.New("nothing to pay or already paid")

	// ErrEmptyMembers means a split bill was created with no participants.
	ErrEmptyMembers = errors.New("at least one member is required")
)
