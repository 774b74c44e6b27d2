package calculator

import "github.com/shopspring/decimal"

// BudgetUsage compares a month's expenses to a budget.
type BudgetUsage struct {
	Budget   decimal.Decimal
	Expenses decimal.Decimal
	// PercentageUsed is Expenses / Budget * 100. It is zero for a zero budget.
	PercentageUsed decimal.Decimal
}

// CalculateBudgetUsage computes how much of budget the expenses consume.
func CalculateBudgetUsage(budget, expenses decimal.Decimal) BudgetUsage {
	u := BudgetUsage{Budget: budget, Expenses: expenses, PercentageUsed: decimal.Zero}
	if budget.IsPositive() {
		u.PercentageUsed = expenses.Div(budget).Mul(hundred)
	}
	return u
}

// Remaining is the budget left, negative when overspent.
func (u BudgetUsage) Remaining() decimal.Decimal {
	return u.Budget.Sub(u.Expenses)
}

// Exceeds reports whether usage is at or above threshold percent.
func (u BudgetUsage) Exceeds(threshold decimal.Decimal) bool {
	return u.Budget.IsPositive() && u.PercentageUsed.GreaterThanOrEqual(threshold)
}
