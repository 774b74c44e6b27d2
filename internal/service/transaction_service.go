package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"connectrpc.com/connect"

	"github.com/mmynk/finova/internal/models"
	"github.com/mmynk/finova/internal/storage"
	"github.com/mmynk/finova/internal/views"
)

// AccountPath returns the cached view of a single account.
func AccountPath(accountID string) string {
	return "/account/" + accountID
}

// TransactionService records income and expenses against the caller's accounts.
type TransactionService struct {
	base
	now func() time.Time
}

// NewTransactionService creates a new TransactionService.
func NewTransactionService(deps Deps) *TransactionService {
	return &TransactionService{base: base{deps}, now: time.Now}
}

// CreateTransaction records a transaction and adjusts the account balance
// in the same store transaction.
func (s *TransactionService) CreateTransaction(ctx context.Context, req *connect.Request[CreateTransactionRequest]) (*connect.Response[CreateTransactionResponse], error) {
	id, err := s.identity(ctx)
	if err != nil {
		return nil, connectError(err)
	}

	slog.Info("CreateTransaction request received",
		"identity", id.Subject,
		"account_id", req.Msg.AccountID,
		"type", req.Msg.Type,
	)

	if err := s.protect(ctx, req, id, 1); err != nil {
		return nil, connectError(err)
	}

	txn, err := s.newTransaction(req.Msg)
	if err != nil {
		slog.Warn("CreateTransaction rejected", "identity", id.Subject, "error", err)
		return nil, connectError(err)
	}

	created, err := withStore(ctx, &s.base, "create transaction", func(ctx context.Context) (*models.Transaction, error) {
		user, err := s.user(ctx, id)
		if err != nil {
			return nil, err
		}

		t := *txn
		t.UserID = user.ID
		err = s.Store.WithTx(ctx, func(ctx context.Context, tx storage.Tx) error {
			return insertTransaction(ctx, tx, &t)
		})
		if err != nil {
			return nil, err
		}
		return &t, nil
	})
	if err != nil {
		slog.Error("CreateTransaction failed", "identity", id.Subject, "error", err)
		return nil, connectError(err)
	}

	s.invalidate(ctx, DashboardPath, AccountPath(created.AccountID))

	slog.Info("Transaction created",
		"user_id", created.UserID,
		"transaction_id", created.ID,
		"account_id", created.AccountID,
	)

	return connect.NewResponse(&CreateTransactionResponse{
		Success: true,
		Data:    views.FromTransaction(created),
	}), nil
}

func insertTransaction(ctx context.Context, tx storage.Tx, t *models.Transaction) error {
	if err := tx.LockUser(ctx, t.UserID); err != nil {
		return err
	}

	account, err := tx.GetAccount(ctx, t.UserID, t.AccountID)
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("account %w", ErrNotFound)
	}
	if err != nil {
		return err
	}

	balance := account.Balance.Add(t.Signed())
	if !fitsMoney(balance) {
		return fmt.Errorf("%w: account balance would be out of range", ErrInvalidInput)
	}
	if err := tx.InsertTransaction(ctx, t); err != nil {
		return err
	}
	return tx.UpdateAccountBalance(ctx, t.UserID, t.AccountID, balance)
}

func (s *TransactionService) newTransaction(msg *CreateTransactionRequest) (*models.Transaction, error) {
	if strings.TrimSpace(msg.AccountID) == "" {
		return nil, fmt.Errorf("%w: accountId is required", ErrInvalidInput)
	}

	typ := models.TransactionType(strings.ToUpper(strings.TrimSpace(msg.Type)))
	if !typ.Valid() {
		return nil, fmt.Errorf("%w: unknown transaction type %q", ErrInvalidInput, msg.Type)
	}

	amount, err := msg.Amount.Decimal("amount")
	if err != nil {
		return nil, err
	}
	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: amount must be positive", ErrInvalidInput)
	}

	category := strings.TrimSpace(msg.Category)
	if category == "" {
		return nil, fmt.Errorf("%w: category is required", ErrInvalidInput)
	}

	date := msg.Date
	if date.IsZero() {
		date = s.now()
	}

	return &models.Transaction{
		AccountID:   strings.TrimSpace(msg.AccountID),
		Type:        typ,
		Amount:      amount,
		Description: strings.TrimSpace(msg.Description),
		Category:    strings.ToLower(category),
		Date:        date.UTC(),
	}, nil
}
