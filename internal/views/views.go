// Package views converts domain models into the shapes returned to clients.
//
// Monetary fields are decimal.Decimal inside the service and plain numbers on
// the wire. This is the only place that conversion happens.
package views

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmynk/finova/internal/models"
)

// Account is the transport form of models.Account.
type Account struct {
	ID               string    `json:"id"`
	UserID           string    `json:"userId"`
	Name             string    `json:"name"`
	Type             string    `json:"type"`
	Balance          float64   `json:"balance"`
	IsDefault        bool      `json:"isDefault"`
	TransactionCount int64     `json:"transactionCount"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// Transaction is the transport form of models.Transaction.
type Transaction struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	AccountID   string    `json:"accountId"`
	Type        string    `json:"type"`
	Amount      float64   `json:"amount"`
	Description string    `json:"description,omitempty"`
	Category    string    `json:"category"`
	Date        time.Time `json:"date"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Budget is the transport form of models.Budget.
type Budget struct {
	Amount    float64   `json:"amount"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Number converts a decimal to a float64. The result is the nearest float to
// the decimal value, so "100.50" becomes 100.5.
func Number(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}

// FromAccount returns nil for a nil account.
func FromAccount(a *models.Account) *Account {
	if a == nil {
		return nil
	}
	return &Account{
		ID:               a.ID,
		UserID:           a.UserID,
		Name:             a.Name,
		Type:             string(a.Type),
		Balance:          Number(a.Balance),
		IsDefault:        a.IsDefault,
		TransactionCount: a.TransactionCount,
		CreatedAt:        a.CreatedAt,
		UpdatedAt:        a.UpdatedAt,
	}
}

// FromTransaction returns nil for a nil transaction.
func FromTransaction(t *models.Transaction) *Transaction {
	if t == nil {
		return nil
	}
	return &Transaction{
		ID:          t.ID,
		UserID:      t.UserID,
		AccountID:   t.AccountID,
		Type:        string(t.Type),
		Amount:      Number(t.Amount),
		Description: t.Description,
		Category:    t.Category,
		Date:        t.Date,
		CreatedAt:   t.CreatedAt,
	}
}

// FromBudget returns nil for a nil budget.
func FromBudget(b *models.Budget) *Budget {
	if b == nil {
		return nil
	}
	return &Budget{Amount: Number(b.Amount), UpdatedAt: b.UpdatedAt}
}

// Accounts maps FromAccount over a slice. The result is never nil so it
// encodes as an empty JSON array.
func Accounts(in []*models.Account) []*Account {
	out := make([]*Account, 0, len(in))
	for _, a := range in {
		out = append(out, FromAccount(a))
	}
	return out
}

// Transactions maps FromTransaction over a slice.
func Transactions(in []*models.Transaction) []*Transaction {
	out := make([]*Transaction, 0, len(in))
	for _, t := range in {
		out = append(out, FromTransaction(t))
	}
	return out
}
