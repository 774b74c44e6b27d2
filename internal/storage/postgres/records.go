package postgres

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmynk/finova/internal/models"
)

// Row types mapped by gorm. They mirror the SQLite schema.

type userRecord struct {
	ID         string `gorm:"primaryKey"`
	IdentityID string `gorm:"uniqueIndex;not null"`
	Name       string `gorm:"not null"`
	Email      string `gorm:"not null"`
	CreatedAt  time.Time
}

func (userRecord) TableName() string { return "users" }

type accountRecord struct {
	ID        string          `gorm:"primaryKey"`
	UserID    string          `gorm:"index;not null"`
	Name      string          `gorm:"not null"`
	Type      string          `gorm:"not null"`
	Balance   decimal.Decimal `gorm:"type:numeric(18,2);not null"`
	IsDefault bool            `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (accountRecord) TableName() string { return "accounts" }

// accountWithCount is the row shape of the account list query.
type accountWithCount struct {
	accountRecord
	TransactionCount int64
}

type transactionRecord struct {
	ID          string          `gorm:"primaryKey"`
	UserID      string          `gorm:"index:idx_transactions_user_date,priority:1;not null"`
	AccountID   string          `gorm:"index;not null"`
	Type        string          `gorm:"not null"`
	Amount      decimal.Decimal `gorm:"type:numeric(18,2);not null"`
	Description string          `gorm:"not null"`
	Category    string          `gorm:"not null"`
	Date        time.Time       `gorm:"index:idx_transactions_user_date,priority:2;not null"`
	CreatedAt   time.Time
}

func (transactionRecord) TableName() string { return "transactions" }

type budgetRecord struct {
	UserID        string          `gorm:"primaryKey"`
	Amount        decimal.Decimal `gorm:"type:numeric(18,2);not null"`
	LastAlertSent *time.Time
	UpdatedAt     time.Time
}

func (budgetRecord) TableName() string { return "budgets" }

func toUser(r *userRecord) *models.User {
	return &models.User{
		ID:         r.ID,
		IdentityID: r.IdentityID,
		Name:       r.Name,
		Email:      r.Email,
		CreatedAt:  r.CreatedAt.UTC(),
	}
}

func fromAccount(a *models.Account) *accountRecord {
	return &accountRecord{
		ID:        a.ID,
		UserID:    a.UserID,
		Name:      a.Name,
		Type:      string(a.Type),
		Balance:   a.Balance,
		IsDefault: a.IsDefault,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

func toAccount(r *accountRecord) *models.Account {
	return &models.Account{
		ID:        r.ID,
		UserID:    r.UserID,
		Name:      r.Name,
		Type:      models.AccountType(r.Type),
		Balance:   r.Balance,
		IsDefault: r.IsDefault,
		CreatedAt: r.CreatedAt.UTC(),
		UpdatedAt: r.UpdatedAt.UTC(),
	}
}

func fromTransaction(t *models.Transaction) *transactionRecord {
	return &transactionRecord{
		ID:          t.ID,
		UserID:      t.UserID,
		AccountID:   t.AccountID,
		Type:        string(t.Type),
		Amount:      t.Amount,
		Description: t.Description,
		Category:    t.Category,
		Date:        t.Date,
		CreatedAt:   t.CreatedAt,
	}
}

func toTransaction(r *transactionRecord) *models.Transaction {
	return &models.Transaction{
		ID:          r.ID,
		UserID:      r.UserID,
		AccountID:   r.AccountID,
		Type:        models.TransactionType(r.Type),
		Amount:      r.Amount,
		Description: r.Description,
		Category:    r.Category,
		Date:        r.Date.UTC(),
		CreatedAt:   r.CreatedAt.UTC(),
	}
}

func toBudget(r *budgetRecord) *models.Budget {
	b := &models.Budget{
		UserID:    r.UserID,
		Amount:    r.Amount,
		UpdatedAt: r.UpdatedAt.UTC(),
	}
	if r.LastAlertSent != nil {
		b.LastAlertSent = r.LastAlertSent.UTC()
	}
	return b
}
