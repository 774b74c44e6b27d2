package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"connectrpc.com/connect"
	"github.com/shopspring/decimal"

	"github.com/mmynk/finova/internal/calculator"
	"github.com/mmynk/finova/internal/models"
	"github.com/mmynk/finova/internal/storage"
	"github.com/mmynk/finova/internal/views"
)

// BudgetService manages the caller's monthly budget.
type BudgetService struct {
	base
	now func() time.Time
}

// NewBudgetService creates a new BudgetService.
func NewBudgetService(deps Deps) *BudgetService {
	return &BudgetService{base: base{deps}, now: time.Now}
}

// SetBudget sets the caller's monthly budget.
func (s *BudgetService) SetBudget(ctx context.Context, req *connect.Request[SetBudgetRequest]) (*connect.Response[SetBudgetResponse], error) {
	id, err := s.identity(ctx)
	if err != nil {
		return nil, connectError(err)
	}

	slog.Info("SetBudget request received", "identity", id.Subject)

	if err := s.protect(ctx, req, id, 1); err != nil {
		return nil, connectError(err)
	}

	amount, err := req.Msg.Amount.Decimal("amount")
	if err == nil && !amount.IsPositive() {
		err = fmt.Errorf("%w: budget must be positive", ErrInvalidInput)
	}
	if err != nil {
		return nil, connectError(err)
	}

	budget, err := withStore(ctx, &s.base, "set budget", func(ctx context.Context) (*models.Budget, error) {
		user, err := s.user(ctx, id)
		if err != nil {
			return nil, err
		}
		b := &models.Budget{UserID: user.ID, Amount: amount}
		if err := s.Store.UpsertBudget(ctx, b); err != nil {
			return nil, err
		}
		return b, nil
	})
	if err != nil {
		slog.Error("SetBudget failed", "identity", id.Subject, "error", err)
		return nil, connectError(err)
	}

	s.invalidate(ctx, DashboardPath)

	slog.Info("Budget set", "user_id", budget.UserID, "amount", budget.Amount.String())

	return connect.NewResponse(&SetBudgetResponse{
		Success: true,
		Data:    views.FromBudget(budget),
	}), nil
}

// GetBudget returns the caller's budget with the current month's spending.
func (s *BudgetService) GetBudget(ctx context.Context, req *connect.Request[GetBudgetRequest]) (*connect.Response[GetBudgetResponse], error) {
	id, err := s.identity(ctx)
	if err != nil {
		return nil, connectError(err)
	}

	slog.Info("GetBudget request received", "identity", id.Subject)

	type result struct {
		budget *models.Budget
		usage  calculator.BudgetUsage
	}

	res, err := withStore(ctx, &s.base, "get budget", func(ctx context.Context) (result, error) {
		user, err := s.user(ctx, id)
		if err != nil {
			return result{}, err
		}

		budget, err := s.Store.GetBudget(ctx, user.ID)
		if errors.Is(err, storage.ErrNotFound) {
			budget = nil
		} else if err != nil {
			return result{}, err
		}

		from, to := calculator.MonthBounds(s.now().UTC())
		txns, err := s.Store.ListTransactionsBetween(ctx, user.ID, from, to)
		if err != nil {
			return result{}, err
		}

		amount := decimal.Zero
		if budget != nil {
			amount = budget.Amount
		}
		stats := calculator.CalculateMonthlyStats(txns)
		return result{budget: budget, usage: calculator.CalculateBudgetUsage(amount, stats.TotalExpenses)}, nil
	})
	if err != nil {
		slog.Error("GetBudget failed", "identity", id.Subject, "error", err)
		return nil, connectError(err)
	}

	return connect.NewResponse(&GetBudgetResponse{
		Budget:         views.FromBudget(res.budget),
		Expenses:       views.Number(res.usage.Expenses),
		PercentageUsed: views.Number(res.usage.PercentageUsed.Round(1)),
	}), nil
}
