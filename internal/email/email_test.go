package email

import (
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) *decimal.Decimal {
	return Ptr(decimal.RequireFromString(s))
}

func monthlyMessage() Message {
	return Message{
		UserName: "Haneesh Patel",
		Type:     MonthlyReport,
		Data: Data{
			Month: "December",
			Stats: &Stats{
				TotalIncome:   dec("5000"),
				TotalExpenses: dec("3500"),
				ByCategory: []CategoryAmount{
					{Category: "housing", Amount: decimal.RequireFromString("1500")},
					{Category: "groceries", Amount: decimal.RequireFromString("600")},
				},
			},
			Insights: []string{"Great job keeping entertainment expenses under control this month!"},
		},
	}
}

func TestRender_MonthlyReport(t *testing.T) {
	doc := Render(monthlyMessage())
	require.NoError(t, doc.Err)

	assert.Equal(t, "Your Monthly Financial Report - December", doc.Subject)
	for _, want := range []string{
		"Hello Haneesh Patel,",
		"December",
		"$5000.00",
		"$3500.00",
		"$1500.00",
		"Housing",
		"Groceries",
		"$600.00",
		"Great job keeping entertainment expenses under control this month!",
	} {
		assert.Contains(t, doc.HTML, want)
	}
}

func TestRender_MonthlyReportNegativeNet(t *testing.T) {
	msg := monthlyMessage()
	msg.Data.Stats.TotalIncome = dec("100")
	msg.Data.Stats.TotalExpenses = dec("150.5")

	doc := Render(msg)
	require.NoError(t, doc.Err)
	assert.Contains(t, doc.HTML, "-$50.50")
}

func TestRender_EscapesUserInput(t *testing.T) {
	msg := monthlyMessage()
	msg.UserName = "<script>alert(1)</script>"

	doc := Render(msg)
	require.NoError(t, doc.Err)
	assert.NotContains(t, doc.HTML, "<script>")
}

func TestRender_ZeroTotalsAreNotMissing(t *testing.T) {
	msg := monthlyMessage()
	msg.Data.Stats.TotalIncome = dec("0")

	doc := Render(msg)
	require.NoError(t, doc.Err)
	assert.Contains(t, doc.HTML, "$0.00")
}

func TestRender_BudgetAlert(t *testing.T) {
	doc := Render(Message{
		UserName: "Haneesh Patel",
		Type:     BudgetAlert,
		Data: Data{
			PercentageUsed: dec("85"),
			BudgetAmount:   dec("4000"),
			TotalExpenses:  dec("3400"),
		},
	})
	require.NoError(t, doc.Err)

	assert.Contains(t, doc.Subject, "85.0%")
	assert.Contains(t, doc.HTML, "85.0% of your monthly budget")
	assert.Contains(t, doc.HTML, "$4000.00")
	assert.Contains(t, doc.HTML, "$3400.00")
	assert.Contains(t, doc.HTML, "$600.00")
}

func TestRender_BudgetAlertWithoutPercentage(t *testing.T) {
	doc := Render(Message{
		UserName: "Haneesh Patel",
		Type:     BudgetAlert,
		Data:     Data{BudgetAmount: dec("4000"), TotalExpenses: dec("3400")},
	})
	require.NoError(t, doc.Err)
	assert.Contains(t, doc.HTML, "--% of your monthly budget")
}

func TestRender_ErrorDocuments(t *testing.T) {
	tests := []struct {
		name        string
		msg         Message
		wantFields  []string
		wantInvalid bool
		wantText    string
	}{
		{
			name:        "unknown type",
			msg:         Message{UserName: "A", Type: "weekly-digest"},
			wantInvalid: true,
			wantText:    "Invalid Email Type",
		},
		{
			name:       "monthly report without stats",
			msg:        Message{UserName: "A", Type: MonthlyReport, Data: Data{Month: "May"}},
			wantFields: []string{"data.stats.totalIncome", "data.stats.totalExpenses"},
			wantText:   "Unable to generate report. Missing: data.stats.totalIncome, data.stats.totalExpenses.",
		},
		{
			name:       "monthly report without name or month",
			msg:        Message{Type: MonthlyReport, Data: Data{Stats: &Stats{TotalIncome: dec("1"), TotalExpenses: dec("1")}}},
			wantFields: []string{"userName", "data.month"},
			wantText:   "Missing: userName, data.month.",
		},
		{
			name:       "budget alert without amounts",
			msg:        Message{UserName: "A", Type: BudgetAlert},
			wantFields: []string{"data.budgetAmount", "data.totalExpenses"},
			wantText:   "Unable to generate budget alert. Missing: data.budgetAmount, data.totalExpenses.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := Render(tt.msg)
			require.Error(t, doc.Err)
			assert.Contains(t, doc.HTML, tt.wantText)

			if tt.wantInvalid {
				assert.True(t, errors.Is(doc.Err, ErrInvalidType))
				return
			}
			var mf *MissingFieldsError
			require.True(t, errors.As(doc.Err, &mf))
			assert.Equal(t, tt.wantFields, mf.Fields)
			assert.False(t, strings.Contains(doc.HTML, "Hello "), "no partial report output")
		})
	}
}
