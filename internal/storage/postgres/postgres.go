// Package postgres provides a PostgreSQL implementation of storage.Store on top of gorm.
package postgres

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/mmynk/finova/internal/models"
	"github.com/mmynk/finova/internal/retry"
	"github.com/mmynk/finova/internal/storage"
)

var _ storage.Store = (*Store)(nil)

// oneDefaultIndex backs the one-default-account rule in the database.
const oneDefaultIndex = `CREATE UNIQUE INDEX IF NOT EXISTS idx_accounts_one_default ON accounts (user_id) WHERE is_default`

var transientCode = retry.Codes(retry.PostgresTransient...)

// Options tune the connection.
type Options struct {
	// SimpleProtocol disables server-side prepared statements. Needed behind
	// transaction-mode poolers such as PgBouncer.
	SimpleProtocol bool

	MaxOpenConns int
}

// Store implements storage.Store using PostgreSQL.
type Store struct {
	db *gorm.DB
}

// Open connects to dsn and migrates the schema.
func Open(dsn string, opts Options) (*Store, error) {
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  dsn,
		PreferSimpleProtocol: opts.SimpleProtocol,
	}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get connection pool: %w", err)
	}
	if opts.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(opts.MaxOpenConns)
	}

	if err := migrate(db); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &Store{db: db}, nil
}

func migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&userRecord{}, &accountRecord{}, &transactionRecord{}, &budgetRecord{}); err != nil {
		return err
	}
	return db.Exec(oneDefaultIndex).Error
}

// Close closes the connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// IsTransient reports whether err came from a lost or recycled connection.
func (s *Store) IsTransient(err error) bool {
	return isTransient(err)
}

func isTransient(err error) bool {
	if err == nil {
		return false
	}
	if transientCode(err) || errors.Is(err, driver.ErrBadConn) {
		return true
	}
	return pgconn.SafeToRetry(err)
}

// WithTx runs fn inside a database transaction.
func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context, tx storage.Tx) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, &gormTx{db: tx})
	})
}

func notFound(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", what, storage.ErrNotFound)
	}
	return fmt.Errorf("failed to get %s: %w", what, err)
}

// GetUserByIdentity retrieves a user by the identity provider's subject.
func (s *Store) GetUserByIdentity(ctx context.Context, identityID string) (*models.User, error) {
	var rec userRecord
	if err := s.db.WithContext(ctx).Where("identity_id = ?", identityID).Take(&rec).Error; err != nil {
		return nil, notFound(err, "user for identity "+identityID)
	}
	return toUser(&rec), nil
}

// UpsertUser inserts the user for its identity or refreshes name and email.
func (s *Store) UpsertUser(ctx context.Context, user *models.User) error {
	if user.IdentityID == "" {
		return fmt.Errorf("failed to upsert user: identity ID is required")
	}
	rec := userRecord{
		ID:         user.ID,
		IdentityID: user.IdentityID,
		Name:       user.Name,
		Email:      user.Email,
		CreatedAt:  user.CreatedAt,
	}
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "identity_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "email"}),
	}).Create(&rec).Error
	if err != nil {
		return fmt.Errorf("failed to upsert user: %w", err)
	}

	stored, err := s.GetUserByIdentity(ctx, user.IdentityID)
	if err != nil {
		return err
	}
	*user = *stored
	return nil
}

// ListUsers retrieves all users, oldest first.
func (s *Store) ListUsers(ctx context.Context) ([]*models.User, error) {
	var recs []userRecord
	if err := s.db.WithContext(ctx).Order("created_at").Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	users := make([]*models.User, len(recs))
	for i := range recs {
		users[i] = toUser(&recs[i])
	}
	return users, nil
}

// ListAccounts retrieves the user's accounts with their transaction counts.
func (s *Store) ListAccounts(ctx context.Context, userID string) ([]*models.Account, error) {
	var rows []accountWithCount
	err := s.db.WithContext(ctx).
		Table("accounts AS a").
		Select("a.*, (SELECT COUNT(*) FROM transactions t WHERE t.account_id = a.id) AS transaction_count").
		Where("a.user_id = ?", userID).
		Order("a.created_at DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	accounts := make([]*models.Account, len(rows))
	for i := range rows {
		accounts[i] = toAccount(&rows[i].accountRecord)
		accounts[i].TransactionCount = rows[i].TransactionCount
	}
	return accounts, nil
}

// GetAccount retrieves one of the user's accounts.
func (s *Store) GetAccount(ctx context.Context, userID, accountID string) (*models.Account, error) {
	return getAccount(s.db.WithContext(ctx), userID, accountID)
}

func getAccount(db *gorm.DB, userID, accountID string) (*models.Account, error) {
	var rec accountRecord
	if err := db.Where("id = ? AND user_id = ?", accountID, userID).Take(&rec).Error; err != nil {
		return nil, notFound(err, "account "+accountID)
	}
	return toAccount(&rec), nil
}

// ListTransactions retrieves the user's transactions, newest date first.
func (s *Store) ListTransactions(ctx context.Context, userID string) ([]*models.Transaction, error) {
	return s.findTransactions(s.db.WithContext(ctx).Where("user_id = ?", userID))
}

// ListTransactionsBetween retrieves the user's transactions dated in [from, to).
func (s *Store) ListTransactionsBetween(ctx context.Context, userID string, from, to time.Time) ([]*models.Transaction, error) {
	return s.findTransactions(s.db.WithContext(ctx).
		Where("user_id = ? AND date >= ? AND date < ?", userID, from, to))
}

func (s *Store) findTransactions(q *gorm.DB) ([]*models.Transaction, error) {
	var recs []transactionRecord
	if err := q.Order("date DESC").Order("created_at DESC").Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	txns := make([]*models.Transaction, len(recs))
	for i := range recs {
		txns[i] = toTransaction(&recs[i])
	}
	return txns, nil
}

// GetBudget retrieves the user's budget.
func (s *Store) GetBudget(ctx context.Context, userID string) (*models.Budget, error) {
	var rec budgetRecord
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Take(&rec).Error; err != nil {
		return nil, notFound(err, "budget for user "+userID)
	}
	return toBudget(&rec), nil
}

// UpsertBudget creates or replaces the user's budget amount.
func (s *Store) UpsertBudget(ctx context.Context, budget *models.Budget) error {
	if budget.UpdatedAt.IsZero() {
		budget.UpdatedAt = time.Now().UTC()
	}
	rec := budgetRecord{UserID: budget.UserID, Amount: budget.Amount, UpdatedAt: budget.UpdatedAt}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"amount", "updated_at"}),
	}).Create(&rec).Error
	if err != nil {
		return fmt.Errorf("failed to upsert budget: %w", err)
	}
	return nil
}

// MarkBudgetAlertSent records when the last budget alert was sent.
func (s *Store) MarkBudgetAlertSent(ctx context.Context, userID string, at time.Time) error {
	res := s.db.WithContext(ctx).Model(&budgetRecord{}).
		Where("user_id = ?", userID).
		Update("last_alert_sent", at)
	if res.Error != nil {
		return fmt.Errorf("failed to mark budget alert: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("budget for user %s: %w", userID, storage.ErrNotFound)
	}
	return nil
}

// gormTx implements storage.Tx on a transaction-bound *gorm.DB.
type gormTx struct {
	db *gorm.DB
}

// LockUser takes a row lock on the user, so concurrent transactions for
// the same user run one after another.
func (t *gormTx) LockUser(ctx context.Context, userID string) error {
	var rec userRecord
	err := t.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id").
		Where("id = ?", userID).
		Take(&rec).Error
	if err != nil {
		return notFound(err, "user "+userID)
	}
	return nil
}

func (t *gormTx) ListAccounts(ctx context.Context, userID string) ([]*models.Account, error) {
	var recs []accountRecord
	if err := t.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC").Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	accounts := make([]*models.Account, len(recs))
	for i := range recs {
		accounts[i] = toAccount(&recs[i])
	}
	return accounts, nil
}

func (t *gormTx) ClearDefaultAccounts(ctx context.Context, userID string) (int64, error) {
	res := t.db.WithContext(ctx).Model(&accountRecord{}).
		Where("user_id = ? AND is_default", userID).
		Updates(map[string]any{"is_default": false, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to clear default accounts: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func (t *gormTx) InsertAccount(ctx context.Context, account *models.Account) error {
	if account.ID == "" {
		account.ID = uuid.New().String()
	}
	if account.CreatedAt.IsZero() {
		account.CreatedAt = time.Now().UTC()
	}
	if account.UpdatedAt.IsZero() {
		account.UpdatedAt = account.CreatedAt
	}
	if err := t.db.WithContext(ctx).Create(fromAccount(account)).Error; err != nil {
		return fmt.Errorf("failed to insert account: %w", err)
	}
	return nil
}

func (t *gormTx) GetAccount(ctx context.Context, userID, accountID string) (*models.Account, error) {
	return getAccount(t.db.WithContext(ctx), userID, accountID)
}

func (t *gormTx) UpdateAccountBalance(ctx context.Context, userID, accountID string, balance decimal.Decimal) error {
	res := t.db.WithContext(ctx).Model(&accountRecord{}).
		Where("id = ? AND user_id = ?", accountID, userID).
		Updates(map[string]any{"balance": balance, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return fmt.Errorf("failed to update account balance: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("account %s: %w", accountID, storage.ErrNotFound)
	}
	return nil
}

func (t *gormTx) InsertTransaction(ctx context.Context, txn *models.Transaction) error {
	if txn.ID == "" {
		txn.ID = uuid.New().String()
	}
	if txn.CreatedAt.IsZero() {
		txn.CreatedAt = time.Now().UTC()
	}
	if txn.Date.IsZero() {
		txn.Date = txn.CreatedAt
	}
	if err := t.db.WithContext(ctx).Create(fromTransaction(txn)).Error; err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}
	return nil
}
