package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType tells whether a transaction adds to or takes from an account.
type TransactionType string

const (
	TransactionExpense TransactionType = "EXPENSE"
	TransactionIncome  TransactionType = "INCOME"
)

// Valid reports whether t is one of the known transaction types.
func (t TransactionType) Valid() bool {
	return t == TransactionExpense || t == TransactionIncome
}

// Transaction is a single income or expense on an account.
type Transaction struct {
	// ID is the unique identifier for the transaction (UUID format).
	ID string

	UserID    string
	AccountID string

	Type TransactionType

	// Amount is always positive; Type carries the direction.
	Amount decimal.Decimal

	Description string

	// Category is a free-form label such as "groceries" or "salary".
	Category string

	// Date is when the transaction happened, as entered by the user.
	Date time.Time

	CreatedAt time.Time
}

// Signed returns the amount as it applies to the account balance.
func (t *Transaction) Signed() decimal.Decimal {
	if t.Type == TransactionExpense {
		return t.Amount.Neg()
	}
	return t.Amount
}
