package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/finova/internal/models"
)

const transactionColumns = `id, user_id, account_id, type, amount, description, category, date, created_at`

// ListTransactions retrieves all of the user's transactions, newest date first.
func (s *SQLiteStore) ListTransactions(ctx context.Context, userID string) ([]*models.Transaction, error) {
	return s.queryTransactions(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE user_id = ? ORDER BY date DESC, created_at DESC`,
		userID,
	)
}

// ListTransactionsBetween retrieves the user's transactions dated in [from, to).
func (s *SQLiteStore) ListTransactionsBetween(ctx context.Context, userID string, from, to time.Time) ([]*models.Transaction, error) {
	return s.queryTransactions(ctx,
		`SELECT `+transactionColumns+` FROM transactions
		 WHERE user_id = ? AND date >= ? AND date < ?
		 ORDER BY date DESC, created_at DESC`,
		userID, toNanos(from), toNanos(to),
	)
}

func (s *SQLiteStore) queryTransactions(ctx context.Context, query string, args ...any) ([]*models.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	var txns []*models.Transaction
	for rows.Next() {
		txn := &models.Transaction{}
		var txnType string
		var date, createdAt int64
		if err := rows.Scan(&txn.ID, &txn.UserID, &txn.AccountID, &txnType, &txn.Amount,
			&txn.Description, &txn.Category, &date, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txn.Type = models.TransactionType(txnType)
		txn.Date = fromNanos(date)
		txn.CreatedAt = fromNanos(createdAt)
		txns = append(txns, txn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transactions: %w", err)
	}
	return txns, nil
}

// InsertTransaction persists a new transaction.
func (t *sqliteTx) InsertTransaction(ctx context.Context, txn *models.Transaction) error {
	if txn.ID == "" {
		txn.ID = uuid.New().String()
	}
	if txn.CreatedAt.IsZero() {
		txn.CreatedAt = time.Now().UTC()
	}
	if txn.Date.IsZero() {
		txn.Date = txn.CreatedAt
	}

	_, err := t.tx.ExecContext(ctx,
		`INSERT INTO transactions (`+transactionColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		txn.ID, txn.UserID, txn.AccountID, string(txn.Type), txn.Amount,
		txn.Description, txn.Category, toNanos(txn.Date), toNanos(txn.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}
	return nil
}
