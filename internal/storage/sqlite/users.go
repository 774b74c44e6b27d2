package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/finova/internal/models"
	"github.com/mmynk/finova/internal/storage"
)

const userColumns = `id, identity_id, name, email, created_at`

// UpsertUser inserts the user for its identity or refreshes name and email.
func (s *SQLiteStore) UpsertUser(ctx context.Context, user *models.User) error {
	if user.IdentityID == "" {
		return fmt.Errorf("failed to upsert user: identity ID is required")
	}
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, identity_id, name, email, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (identity_id) DO UPDATE SET name = excluded.name, email = excluded.email
	`, user.ID, user.IdentityID, user.Name, user.Email, toNanos(user.CreatedAt))
	if err != nil {
		return fmt.Errorf("failed to upsert user: %w", err)
	}

	// On conflict the existing ID and CreatedAt win.
	stored, err := s.GetUserByIdentity(ctx, user.IdentityID)
	if err != nil {
		return err
	}
	*user = *stored
	return nil
}

// GetUserByIdentity retrieves a user by the identity provider's subject.
func (s *SQLiteStore) GetUserByIdentity(ctx context.Context, identityID string) (*models.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE identity_id = ?`,
		identityID,
	)
	user, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user for identity %s: %w", identityID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by identity: %w", err)
	}
	return user, nil
}

// ListUsers retrieves all users, oldest first.
func (s *SQLiteStore) ListUsers(ctx context.Context) ([]*models.User, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}
	return users, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(row scanner) (*models.User, error) {
	user := &models.User{}
	var createdAt int64
	if err := row.Scan(&user.ID, &user.IdentityID, &user.Name, &user.Email, &createdAt); err != nil {
		return nil, err
	}
	user.CreatedAt = fromNanos(createdAt)
	return user, nil
}
