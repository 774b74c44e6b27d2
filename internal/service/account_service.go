package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/finova/internal/models"
	"github.com/mmynk/finova/internal/storage"
	"github.com/mmynk/finova/internal/views"
)

// DashboardPath is the cached view refreshed after account or transaction changes.
const DashboardPath = "/dashboard"

// AccountService manages the caller's accounts and serves dashboard reads.
type AccountService struct {
	base
}

// NewAccountService creates a new AccountService.
func NewAccountService(deps Deps) *AccountService {
	return &AccountService{base{deps}}
}

// CreateAccount creates an account for the caller. The caller's first
// account, or any account requested as default, becomes the only default.
func (s *AccountService) CreateAccount(ctx context.Context, req *connect.Request[CreateAccountRequest]) (*connect.Response[CreateAccountResponse], error) {
	id, err := s.identity(ctx)
	if err != nil {
		return nil, connectError(err)
	}

	slog.Info("CreateAccount request received",
		"identity", id.Subject,
		"name", req.Msg.Name,
		"type", req.Msg.Type,
		"is_default", req.Msg.IsDefault,
	)

	if err := s.protect(ctx, req, id, 1); err != nil {
		return nil, connectError(err)
	}

	account, err := newAccount(req.Msg)
	if err != nil {
		slog.Warn("CreateAccount rejected", "identity", id.Subject, "error", err)
		return nil, connectError(err)
	}

	created, err := withStore(ctx, &s.base, "create account", func(ctx context.Context) (*models.Account, error) {
		user, err := s.user(ctx, id)
		if err != nil {
			return nil, err
		}

		// Each attempt starts from the validated request.
		a := *account
		a.UserID = user.ID
		err = s.Store.WithTx(ctx, func(ctx context.Context, tx storage.Tx) error {
			return insertAccount(ctx, tx, &a, req.Msg.IsDefault)
		})
		if err != nil {
			return nil, err
		}
		return &a, nil
	})
	if err != nil {
		slog.Error("CreateAccount failed", "identity", id.Subject, "error", err)
		return nil, connectError(err)
	}

	s.invalidate(ctx, DashboardPath)

	slog.Info("Account created",
		"user_id", created.UserID,
		"account_id", created.ID,
		"is_default", created.IsDefault,
	)

	return connect.NewResponse(&CreateAccountResponse{
		Success: true,
		Data:    views.FromAccount(created),
	}), nil
}

// insertAccount runs the default-account bookkeeping and the insert inside tx.
func insertAccount(ctx context.Context, tx storage.Tx, a *models.Account, requestedDefault bool) error {
	if err := tx.LockUser(ctx, a.UserID); err != nil {
		return err
	}

	existing, err := tx.ListAccounts(ctx, a.UserID)
	if err != nil {
		return err
	}

	a.IsDefault = len(existing) == 0 || requestedDefault
	if a.IsDefault {
		if _, err := tx.ClearDefaultAccounts(ctx, a.UserID); err != nil {
			return err
		}
	}

	return tx.InsertAccount(ctx, a)
}

// newAccount validates the request and builds the account it describes.
func newAccount(msg *CreateAccountRequest) (*models.Account, error) {
	name := strings.TrimSpace(msg.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}

	typ := models.AccountType(strings.ToUpper(strings.TrimSpace(msg.Type)))
	if !typ.Valid() {
		return nil, fmt.Errorf("%w: unknown account type %q", ErrInvalidInput, msg.Type)
	}

	balance, err := msg.Balance.Decimal("balance")
	if err != nil {
		return nil, err
	}

	return &models.Account{
		Name:    name,
		Type:    typ,
		Balance: balance,
	}, nil
}

// GetUserAccounts lists the caller's accounts, newest first, with their
// transaction counts.
func (s *AccountService) GetUserAccounts(ctx context.Context, req *connect.Request[GetUserAccountsRequest]) (*connect.Response[GetUserAccountsResponse], error) {
	id, err := s.identity(ctx)
	if err != nil {
		return nil, connectError(err)
	}

	slog.Info("GetUserAccounts request received", "identity", id.Subject)

	accounts, err := withStore(ctx, &s.base, "list accounts", func(ctx context.Context) ([]*models.Account, error) {
		user, err := s.user(ctx, id)
		if err != nil {
			return nil, err
		}
		return s.Store.ListAccounts(ctx, user.ID)
	})
	if err != nil {
		slog.Error("GetUserAccounts failed", "identity", id.Subject, "error", err)
		return nil, connectError(err)
	}

	slog.Info("GetUserAccounts successful", "identity", id.Subject, "count", len(accounts))

	return connect.NewResponse(&GetUserAccountsResponse{
		Accounts: views.Accounts(accounts),
	}), nil
}

// GetDashboardData lists the caller's transactions, most recent first.
func (s *AccountService) GetDashboardData(ctx context.Context, req *connect.Request[GetDashboardDataRequest]) (*connect.Response[GetDashboardDataResponse], error) {
	id, err := s.identity(ctx)
	if err != nil {
		return nil, connectError(err)
	}

	slog.Info("GetDashboardData request received", "identity", id.Subject)

	txns, err := withStore(ctx, &s.base, "list transactions", func(ctx context.Context) ([]*models.Transaction, error) {
		user, err := s.user(ctx, id)
		if err != nil {
			return nil, err
		}
		return s.Store.ListTransactions(ctx, user.ID)
	})
	if err != nil {
		slog.Error("GetDashboardData failed", "identity", id.Subject, "error", err)
		return nil, connectError(err)
	}

	slog.Info("GetDashboardData successful", "identity", id.Subject, "count", len(txns))

	return connect.NewResponse(&GetDashboardDataResponse{
		Transactions: views.Transactions(txns),
	}), nil
}
