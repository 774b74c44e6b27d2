package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mmynk/finova/internal/models"
	"github.com/mmynk/finova/internal/storage"
)

const accountColumns = `id, user_id, name, type, balance, is_default, created_at, updated_at`

// ListAccounts retrieves the user's accounts with their transaction counts.
func (s *SQLiteStore) ListAccounts(ctx context.Context, userID string) ([]*models.Account, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT a.id, a.user_id, a.name, a.type, a.balance, a.is_default, a.created_at, a.updated_at,
		       (SELECT COUNT(*) FROM transactions t WHERE t.account_id = a.id) AS transaction_count
		FROM accounts a
		WHERE a.user_id = ?
		ORDER BY a.created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []*models.Account
	for rows.Next() {
		account, err := scanAccount(rows, true)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, account)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate accounts: %w", err)
	}
	return accounts, nil
}

// GetAccount retrieves one of the user's accounts.
func (s *SQLiteStore) GetAccount(ctx context.Context, userID, accountID string) (*models.Account, error) {
	return getAccount(ctx, s.db, userID, accountID)
}

func (t *sqliteTx) GetAccount(ctx context.Context, userID, accountID string) (*models.Account, error) {
	return getAccount(ctx, t.tx, userID, accountID)
}

func getAccount(ctx context.Context, q queryer, userID, accountID string) (*models.Account, error) {
	row := q.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = ? AND user_id = ?`,
		accountID, userID,
	)
	account, err := scanAccount(row, false)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("account %s: %w", accountID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return account, nil
}

// ListAccounts lists the user's accounts inside the transaction.
func (t *sqliteTx) ListAccounts(ctx context.Context, userID string) ([]*models.Account, error) {
	rows, err := t.tx.QueryContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE user_id = ? ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []*models.Account
	for rows.Next() {
		account, err := scanAccount(rows, false)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, account)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate accounts: %w", err)
	}
	return accounts, nil
}

// ClearDefaultAccounts unsets the default flag on all of the user's accounts.
func (t *sqliteTx) ClearDefaultAccounts(ctx context.Context, userID string) (int64, error) {
	res, err := t.tx.ExecContext(ctx,
		"UPDATE accounts SET is_default = 0, updated_at = ? WHERE user_id = ? AND is_default = 1",
		toNanos(time.Now()), userID,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to clear default accounts: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count cleared accounts: %w", err)
	}
	return n, nil
}

// InsertAccount persists a new account.
func (t *sqliteTx) InsertAccount(ctx context.Context, account *models.Account) error {
	if account.ID == "" {
		account.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if account.CreatedAt.IsZero() {
		account.CreatedAt = now
	}
	if account.UpdatedAt.IsZero() {
		account.UpdatedAt = account.CreatedAt
	}

	_, err := t.tx.ExecContext(ctx,
		`INSERT INTO accounts (`+accountColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		account.ID, account.UserID, account.Name, string(account.Type), account.Balance,
		account.IsDefault, toNanos(account.CreatedAt), toNanos(account.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert account: %w", err)
	}
	return nil
}

// UpdateAccountBalance overwrites the balance of one of the user's accounts.
func (t *sqliteTx) UpdateAccountBalance(ctx context.Context, userID, accountID string, balance decimal.Decimal) error {
	res, err := t.tx.ExecContext(ctx,
		"UPDATE accounts SET balance = ?, updated_at = ? WHERE id = ? AND user_id = ?",
		balance, toNanos(time.Now()), accountID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to update account balance: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check updated account: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("account %s: %w", accountID, storage.ErrNotFound)
	}
	return nil
}

func scanAccount(row scanner, withCount bool) (*models.Account, error) {
	account := &models.Account{}
	var accountType string
	var createdAt, updatedAt int64
	dest := []any{
		&account.ID, &account.UserID, &account.Name, &accountType, &account.Balance,
		&account.IsDefault, &createdAt, &updatedAt,
	}
	if withCount {
		dest = append(dest, &account.TransactionCount)
	}
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	account.Type = models.AccountType(accountType)
	account.CreatedAt = fromNanos(createdAt)
	account.UpdatedAt = fromNanos(updatedAt)
	return account, nil
}
