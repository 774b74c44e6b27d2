// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmynk/finova/internal/models"
)

// ErrNotFound is returned when a row does not exist or belongs to another user.
var ErrNotFound = errors.New("not found")

// Store defines the interface for finance data storage.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL)
// without changing the service layer.
//
// Every method that takes a userID only sees rows owned by that user.
type Store interface {
	// GetUserByIdentity looks a user up by the identity provider's subject.
	// Returns ErrNotFound if no user row exists for it.
	GetUserByIdentity(ctx context.Context, identityID string) (*models.User, error)

	// UpsertUser creates the user for user.IdentityID, or refreshes its name
	// and email if it exists. ID and CreatedAt are populated from the store.
	UpsertUser(ctx context.Context, user *models.User) error

	// ListUsers returns every user, oldest first.
	ListUsers(ctx context.Context) ([]*models.User, error)

	// ListAccounts returns the user's accounts with TransactionCount
	// populated, newest first.
	ListAccounts(ctx context.Context, userID string) ([]*models.Account, error)

	// GetAccount retrieves one of the user's accounts.
	GetAccount(ctx context.Context, userID, accountID string) (*models.Account, error)

	// ListTransactions returns the user's transactions, most recent date first.
	ListTransactions(ctx context.Context, userID string) ([]*models.Transaction, error)

	// ListTransactionsBetween returns transactions dated in [from, to),
	// most recent first.
	ListTransactionsBetween(ctx context.Context, userID string, from, to time.Time) ([]*models.Transaction, error)

	// GetBudget returns ErrNotFound if the user has no budget.
	GetBudget(ctx context.Context, userID string) (*models.Budget, error)

	// UpsertBudget sets the user's budget amount. LastAlertSent is kept.
	UpsertBudget(ctx context.Context, budget *models.Budget) error

	// MarkBudgetAlertSent records when the last budget alert went out.
	MarkBudgetAlertSent(ctx context.Context, userID string, at time.Time) error

	// WithTx runs fn inside one store transaction. The transaction commits
	// if fn returns nil and rolls back otherwise.
	WithTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error

	// IsTransient reports whether err is a connection-class failure that
	// is worth retrying.
	IsTransient(err error) bool

	// Ping checks that the store is reachable.
	Ping(ctx context.Context) error

	// Close releases any resources held by the store.
	Close() error
}

// Tx is the set of operations available inside Store.WithTx.
type Tx interface {
	// LockUser serializes concurrent transactions for the same user.
	// It must be called before reading rows the transaction will mutate.
	LockUser(ctx context.Context, userID string) error

	// ListAccounts returns the user's accounts, newest first.
	// TransactionCount is not populated.
	ListAccounts(ctx context.Context, userID string) ([]*models.Account, error)

	// ClearDefaultAccounts unsets IsDefault on all of the user's accounts in a
	// single statement and returns how many rows changed.
	ClearDefaultAccounts(ctx context.Context, userID string) (int64, error)

	// InsertAccount persists a new account. ID, CreatedAt and UpdatedAt are
	// populated if unset.
	InsertAccount(ctx context.Context, account *models.Account) error

	// GetAccount retrieves one of the user's accounts.
	GetAccount(ctx context.Context, userID, accountID string) (*models.Account, error)

	// UpdateAccountBalance overwrites the balance of one of the user's accounts.
	UpdateAccountBalance(ctx context.Context, userID, accountID string, balance decimal.Decimal) error

	// InsertTransaction persists a new transaction. ID and CreatedAt are
	// populated if unset.
	InsertTransaction(ctx context.Context, txn *models.Transaction) error
}
