// Package report builds the periodic emails: last month's financial report
// for every user, and a budget alert for users about to exceed their budget.
package report

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmynk/finova/internal/calculator"
	"github.com/mmynk/finova/internal/email"
	"github.com/mmynk/finova/internal/metrics"
	"github.com/mmynk/finova/internal/models"
	"github.com/mmynk/finova/internal/outbox"
	"github.com/mmynk/finova/internal/retry"
	"github.com/mmynk/finova/internal/storage"
)

// DefaultAlertThreshold is the budget percentage that triggers an alert.
var DefaultAlertThreshold = decimal.NewFromInt(80)

// Outbox accepts rendered emails.
type Outbox interface {
	Enqueue(ctx context.Context, e *outbox.Email) (bool, error)
}

// Config configures a Runner.
type Config struct {
	Store   storage.Store
	Outbox  Outbox
	Metrics *metrics.Metrics

	// AlertThreshold defaults to DefaultAlertThreshold.
	AlertThreshold decimal.Decimal

	// Retry is applied to every store read. IsTransient defaults to
	// Store.IsTransient.
	Retry retry.Policy

	// Now defaults to time.Now.
	Now func() time.Time
}

// Summary counts what a run did.
type Summary struct {
	Users   int
	Queued  int
	Skipped int
	Failed  int
}

// Runner produces report emails.
type Runner struct {
	cfg Config
}

// NewRunner creates a Runner.
func NewRunner(cfg Config) *Runner {
	if cfg.AlertThreshold.IsZero() {
		cfg.AlertThreshold = DefaultAlertThreshold
	}
	if cfg.Retry.IsTransient == nil {
		cfg.Retry.IsTransient = cfg.Store.IsTransient
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Runner{cfg: cfg}
}

// MonthlyReports queues last month's report for every user.
func (r *Runner) MonthlyReports(ctx context.Context) (Summary, error) {
	from, to := calculator.PreviousMonth(r.cfg.Now().UTC())
	return r.forEachUser(ctx, "monthly report", func(ctx context.Context, user *models.User) (bool, error) {
		return r.monthlyReport(ctx, user, from, to)
	})
}

// BudgetAlerts queues an alert for every user whose spending this month has
// crossed the threshold, at most once per month.
func (r *Runner) BudgetAlerts(ctx context.Context) (Summary, error) {
	now := r.cfg.Now().UTC()
	return r.forEachUser(ctx, "budget alert", func(ctx context.Context, user *models.User) (bool, error) {
		return r.budgetAlert(ctx, user, now)
	})
}

func (r *Runner) forEachUser(ctx context.Context, job string, fn func(ctx context.Context, user *models.User) (bool, error)) (Summary, error) {
	var summary Summary

	users, err := retry.Do(ctx, r.cfg.Retry, func(ctx context.Context) ([]*models.User, error) {
		return r.cfg.Store.ListUsers(ctx)
	})
	if err != nil {
		return summary, fmt.Errorf("failed to list users: %w", err)
	}

	var errs []error
	for _, user := range users {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		summary.Users++

		queued, err := fn(ctx, user)
		switch {
		case err != nil:
			summary.Failed++
			slog.Error("Report job failed for user", "job", job, "user_id", user.ID, "error", err)
			errs = append(errs, fmt.Errorf("%s for user %s: %w", job, user.ID, err))
		case queued:
			summary.Queued++
		default:
			summary.Skipped++
		}
	}

	slog.Info("Report job finished",
		"job", job,
		"users", summary.Users,
		"queued", summary.Queued,
		"skipped", summary.Skipped,
		"failed", summary.Failed,
	)
	return summary, errors.Join(errs...)
}

func (r *Runner) monthlyReport(ctx context.Context, user *models.User, from, to time.Time) (bool, error) {
	txns, err := retry.Do(ctx, r.cfg.Retry, func(ctx context.Context) ([]*models.Transaction, error) {
		return r.cfg.Store.ListTransactionsBetween(ctx, user.ID, from, to)
	})
	if err != nil {
		return false, err
	}

	stats := calculator.CalculateMonthlyStats(txns)
	data := email.Data{
		Month: from.Format("January 2006"),
		Stats: &email.Stats{
			TotalIncome:   email.Ptr(stats.TotalIncome),
			TotalExpenses: email.Ptr(stats.TotalExpenses),
		},
		Insights: calculator.Insights(stats),
	}
	for _, c := range stats.ByCategory {
		data.Stats.ByCategory = append(data.Stats.ByCategory, email.CategoryAmount{Category: c.Category, Amount: c.Amount})
	}

	return r.enqueue(ctx, user, email.MonthlyReport, from.Format("2006-01"), data)
}

func (r *Runner) budgetAlert(ctx context.Context, user *models.User, now time.Time) (bool, error) {
	from, to := calculator.MonthBounds(now)

	budget, err := retry.Do(ctx, r.cfg.Retry, func(ctx context.Context) (*models.Budget, error) {
		return r.cfg.Store.GetBudget(ctx, user.ID)
	})
	if errors.Is(err, storage.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if !budget.LastAlertSent.IsZero() && !budget.LastAlertSent.UTC().Before(from) {
		slog.Debug("Budget alert already sent this month", "user_id", user.ID)
		return false, nil
	}

	txns, err := retry.Do(ctx, r.cfg.Retry, func(ctx context.Context) ([]*models.Transaction, error) {
		return r.cfg.Store.ListTransactionsBetween(ctx, user.ID, from, to)
	})
	if err != nil {
		return false, err
	}

	usage := calculator.CalculateBudgetUsage(budget.Amount, calculator.CalculateMonthlyStats(txns).TotalExpenses)
	if !usage.Exceeds(r.cfg.AlertThreshold) {
		return false, nil
	}

	queued, err := r.enqueue(ctx, user, email.BudgetAlert, from.Format("2006-01"), email.Data{
		PercentageUsed: email.Ptr(usage.PercentageUsed),
		BudgetAmount:   email.Ptr(usage.Budget),
		TotalExpenses:  email.Ptr(usage.Expenses),
	})
	if err != nil {
		return false, err
	}

	if err := r.cfg.Store.MarkBudgetAlertSent(ctx, user.ID, now); err != nil {
		return queued, fmt.Errorf("failed to record budget alert: %w", err)
	}
	return queued, nil
}

// enqueue renders the email and hands it to the outbox. Error documents are
// queued too, with the rendering error recorded alongside.
func (r *Runner) enqueue(ctx context.Context, user *models.User, typ email.Type, period string, data email.Data) (bool, error) {
	doc := email.Render(email.Message{UserName: user.Name, Type: typ, Data: data})

	outcome := "queued"
	e := &outbox.Email{
		UserID:  user.ID,
		To:      user.Email,
		Type:    string(typ),
		Period:  period,
		Subject: doc.Subject,
		HTML:    doc.HTML,
	}
	if doc.Err != nil {
		outcome = "error_document"
		e.Error = doc.Err.Error()
		slog.Warn("Rendered error document", "type", typ, "user_id", user.ID, "error", doc.Err)
	}

	queued, err := r.cfg.Outbox.Enqueue(ctx, e)
	if err != nil {
		r.cfg.Metrics.Email(string(typ), "failed")
		return false, err
	}
	if !queued {
		outcome = "duplicate"
	}
	r.cfg.Metrics.Email(string(typ), outcome)
	return queued, nil
}
