// Package calculator derives monthly statistics and budget usage from
// transactions.
package calculator

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmynk/finova/internal/models"
)

var hundred = decimal.NewFromInt(100)

// CategoryTotal is the amount spent in one category.
type CategoryTotal struct {
	Category string
	Amount   decimal.Decimal
}

// MonthlyStats summarizes one month of transactions.
type MonthlyStats struct {
	TotalIncome      decimal.Decimal
	TotalExpenses    decimal.Decimal
	TransactionCount int
	// ByCategory holds expenses only, largest first.
	ByCategory []CategoryTotal
}

// Net is income minus expenses.
func (s MonthlyStats) Net() decimal.Decimal {
	return s.TotalIncome.Sub(s.TotalExpenses)
}

// MonthBounds returns [from, to) covering the month containing t, in t's location.
func MonthBounds(t time.Time) (from, to time.Time) {
	from = time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	return from, from.AddDate(0, 1, 0)
}

// PreviousMonth returns the bounds of the month before the one containing t.
func PreviousMonth(t time.Time) (from, to time.Time) {
	thisMonth, _ := MonthBounds(t)
	return MonthBounds(thisMonth.AddDate(0, -1, 0))
}

// CalculateMonthlyStats totals income and expenses. Expenses without a
// category are grouped under "other".
func CalculateMonthlyStats(txns []*models.Transaction) MonthlyStats {
	stats := MonthlyStats{
		TotalIncome:   decimal.Zero,
		TotalExpenses: decimal.Zero,
	}
	byCategory := make(map[string]decimal.Decimal)

	for _, t := range txns {
		stats.TransactionCount++
		switch t.Type {
		case models.TransactionIncome:
			stats.TotalIncome = stats.TotalIncome.Add(t.Amount)
		case models.TransactionExpense:
			stats.TotalExpenses = stats.TotalExpenses.Add(t.Amount)
			category := t.Category
			if category == "" {
				category = "other"
			}
			byCategory[category] = byCategory[category].Add(t.Amount)
		}
	}

	stats.ByCategory = make([]CategoryTotal, 0, len(byCategory))
	for category, amount := range byCategory {
		stats.ByCategory = append(stats.ByCategory, CategoryTotal{Category: category, Amount: amount})
	}
	sort.Slice(stats.ByCategory, func(i, j int) bool {
		a, b := stats.ByCategory[i], stats.ByCategory[j]
		if c := a.Amount.Cmp(b.Amount); c != 0 {
			return c > 0
		}
		return a.Category < b.Category
	})

	return stats
}

// Insights returns short observations about a month of spending.
func Insights(s MonthlyStats) []string {
	var insights []string

	if s.TotalExpenses.IsZero() {
		return append(insights, "No expenses were recorded this month.")
	}

	if len(s.ByCategory) > 0 {
		top := s.ByCategory[0]
		share := top.Amount.Div(s.TotalExpenses).Mul(hundred).Round(0).IntPart()
		if share >= 30 {
			insights = append(insights, fmt.Sprintf(
				"Your %s expenses are %d%% of your total spending - consider reviewing them.", top.Category, share))
		}
	}

	if s.TotalIncome.IsPositive() {
		rate := s.Net().Div(s.TotalIncome).Mul(hundred).Round(0).IntPart()
		switch {
		case rate < 0:
			insights = append(insights, "You spent more than you earned this month.")
		case rate >= 20:
			insights = append(insights, fmt.Sprintf("Great job saving %d%% of your income this month!", rate))
		default:
			insights = append(insights, "Setting aside 20% of your income could help you build savings.")
		}
	}

	return insights
}
