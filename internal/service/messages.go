package service

import (
	"time"

	"github.com/mmynk/finova/internal/views"
)

// Result is the envelope returned by mutating calls.
type Result[T any] struct {
	Success bool `json:"success"`
	Data    T    `json:"data"`
}

type CreateAccountRequest struct {
	Name      string `json:"name"`
	Type      string `json:"type"`
	Balance   Amount `json:"balance"`
	IsDefault bool   `json:"isDefault,omitempty"`
}

type CreateAccountResponse = Result[*views.Account]

type GetUserAccountsRequest struct{}

type GetUserAccountsResponse struct {
	Accounts []*views.Account `json:"accounts"`
}

type GetDashboardDataRequest struct{}

type GetDashboardDataResponse struct {
	Transactions []*views.Transaction `json:"transactions"`
}

type CreateTransactionRequest struct {
	AccountID   string    `json:"accountId"`
	Type        string    `json:"type"`
	Amount      Amount    `json:"amount"`
	Description string    `json:"description,omitempty"`
	Category    string    `json:"category"`
	Date        time.Time `json:"date"`
}

type CreateTransactionResponse = Result[*views.Transaction]

type SyncUserRequest struct{}

// UserView is the caller's own user record.
type UserView struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

type SyncUserResponse = Result[*UserView]

type SetBudgetRequest struct {
	Amount Amount `json:"amount"`
}

type SetBudgetResponse = Result[*views.Budget]

type GetBudgetRequest struct{}

type GetBudgetResponse struct {
	// Budget is nil if the user has not set one.
	Budget *views.Budget `json:"budget"`
	// Expenses is the total spent in the current month.
	Expenses float64 `json:"expenses"`
	// PercentageUsed is Expenses as a percentage of Budget.Amount.
	PercentageUsed float64 `json:"percentageUsed"`
}
