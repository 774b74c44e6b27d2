package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountType is the kind of an account.
type AccountType string

const (
	AccountChecking AccountType = "CHECKING"
	AccountSavings  AccountType = "SAVINGS"
	AccountCredit   AccountType = "CREDIT"
)

// Valid reports whether t is one of the known account types.
func (t AccountType) Valid() bool {
	switch t {
	case AccountChecking, AccountSavings, AccountCredit:
		return true
	}
	return false
}

// Account represents a bank or credit account belonging to exactly one user.
//
// At most one account per user has IsDefault set. A user's first account is
// always the default one.
type Account struct {
	// ID is the unique identifier for the account (UUID format).
	ID string

	// UserID is the owning user.
	UserID string

	// Name is the user-provided label (e.g., "Checking", "Travel card").
	Name string

	Type AccountType

	// Balance is the current balance. Credit accounts may be negative.
	Balance decimal.Decimal

	IsDefault bool

	// TransactionCount is populated by list queries only.
	TransactionCount int64

	CreatedAt time.Time
	UpdatedAt time.Time
}
