package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mmynk/finova/internal/models"
	"github.com/mmynk/finova/internal/storage"
)

// GetBudget retrieves the user's budget.
func (s *SQLiteStore) GetBudget(ctx context.Context, userID string) (*models.Budget, error) {
	budget := &models.Budget{UserID: userID}
	var lastAlert, updatedAt int64
	err := s.db.QueryRowContext(ctx,
		"SELECT amount, last_alert_sent, updated_at FROM budgets WHERE user_id = ?",
		userID,
	).Scan(&budget.Amount, &lastAlert, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("budget for user %s: %w", userID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get budget: %w", err)
	}
	budget.LastAlertSent = fromNanos(lastAlert)
	budget.UpdatedAt = fromNanos(updatedAt)
	return budget, nil
}

// UpsertBudget creates or replaces the user's budget amount.
func (s *SQLiteStore) UpsertBudget(ctx context.Context, budget *models.Budget) error {
	if budget.UpdatedAt.IsZero() {
		budget.UpdatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO budgets (user_id, amount, updated_at) VALUES (?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET amount = excluded.amount, updated_at = excluded.updated_at
	`, budget.UserID, budget.Amount, toNanos(budget.UpdatedAt))
	if err != nil {
		return fmt.Errorf("failed to upsert budget: %w", err)
	}
	return nil
}

// MarkBudgetAlertSent records when the last budget alert was sent.
func (s *SQLiteStore) MarkBudgetAlertSent(ctx context.Context, userID string, at time.Time) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE budgets SET last_alert_sent = ? WHERE user_id = ?",
		toNanos(at), userID,
	)
	if err != nil {
		return fmt.Errorf("failed to mark budget alert: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check budget update: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("budget for user %s: %w", userID, storage.ErrNotFound)
	}
	return nil
}
