// Package email renders the monthly report and budget alert emails.
//
// Render never returns partial output: a message of an unknown type, or one
// missing a field its type requires, renders as an error document that says
// what is wrong.
package email

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"strings"

	"github.com/shopspring/decimal"
)

// Type selects the email template.
type Type string

const (
	MonthlyReport Type = "monthly-report"
	BudgetAlert   Type = "budget-alert"
)

// ErrInvalidType is the error of a document rendered for an unknown Type.
var ErrInvalidType = errors.New("the email type provided is not supported")

// MissingFieldsError is the error of a document rendered for a message
// missing required fields.
type MissingFieldsError struct {
	Type   Type
	Fields []string
}

func (e *MissingFieldsError) Error() string {
	return fmt.Sprintf("missing fields for %s: %s", e.Type, strings.Join(e.Fields, ", "))
}

// CategoryAmount is one line of the expenses-by-category table.
type CategoryAmount struct {
	Category string
	Amount   decimal.Decimal
}

// Stats are the month's totals for a monthly report.
type Stats struct {
	TotalIncome   *decimal.Decimal
	TotalExpenses *decimal.Decimal
	ByCategory    []CategoryAmount
}

// Data carries the values for either email type. Nil pointers are missing.
type Data struct {
	// Monthly report.
	Month    string
	Stats    *Stats
	Insights []string

	// Budget alert.
	PercentageUsed *decimal.Decimal
	BudgetAmount   *decimal.Decimal
	TotalExpenses  *decimal.Decimal
}

// Message is what the report job asks to render.
type Message struct {
	UserName string
	Type     Type
	Data     Data
}

// Document is a rendered email. Err is set when HTML is an error document.
type Document struct {
	Subject string
	HTML    string
	Err     error
}

//go:embed templates/*.html
var templateFS embed.FS

type statLine struct {
	Label string
	Value string
}

type categoryLine struct {
	Name   string
	Amount string
}

// page is the data every template executes against.
type page struct {
	Title    string
	Preview  string
	UserName string
	Message  string

	Month      string
	Income     string
	Expenses   string
	Net        string
	Categories []categoryLine
	Insights   []string

	Percentage string
	Budget     string
	Spent      string
	Remaining  string
}

var funcs = template.FuncMap{
	"stat": func(label, value string) statLine { return statLine{Label: label, Value: value} },
}

var (
	monthlyTmpl = parse("monthly_report.html")
	alertTmpl   = parse("budget_alert.html")
	errorTmpl   = parse("error.html")
)

func parse(name string) *template.Template {
	return template.Must(template.New(name).Funcs(funcs).ParseFS(templateFS, "templates/layout.html", "templates/"+name))
}

// Ptr returns a pointer to d, for filling optional Data fields.
func Ptr(d decimal.Decimal) *decimal.Decimal { return &d }

// Render renders msg.
func Render(msg Message) Document {
	switch msg.Type {
	case MonthlyReport:
		return renderMonthlyReport(msg)
	case BudgetAlert:
		return renderBudgetAlert(msg)
	}
	return renderError("Invalid Email Type", "Error", "The email type provided is not supported.",
		fmt.Errorf("%w: %q", ErrInvalidType, msg.Type))
}

func renderMonthlyReport(msg Message) Document {
	var missing []string
	if strings.TrimSpace(msg.UserName) == "" {
		missing = append(missing, "userName")
	}
	if msg.Data.Month == "" {
		missing = append(missing, "data.month")
	}
	if msg.Data.Stats == nil || msg.Data.Stats.TotalIncome == nil {
		missing = append(missing, "data.stats.totalIncome")
	}
	if msg.Data.Stats == nil || msg.Data.Stats.TotalExpenses == nil {
		missing = append(missing, "data.stats.totalExpenses")
	}
	if len(missing) > 0 {
		return renderError("Monthly Financial Report", "Monthly Financial Report",
			fmt.Sprintf("Unable to generate report. Missing: %s. Please check your data source or contact support.", strings.Join(missing, ", ")),
			&MissingFieldsError{Type: MonthlyReport, Fields: missing})
	}

	stats := msg.Data.Stats
	p := page{
		Title:    "Monthly Financial Report",
		Preview:  "Your Monthly Financial Report",
		UserName: msg.UserName,
		Month:    msg.Data.Month,
		Income:   money(*stats.TotalIncome),
		Expenses: money(*stats.TotalExpenses),
		Net:      money(stats.TotalIncome.Sub(*stats.TotalExpenses)),
		Insights: msg.Data.Insights,
	}
	for _, c := range stats.ByCategory {
		p.Categories = append(p.Categories, categoryLine{Name: capitalize(c.Category), Amount: money(c.Amount)})
	}

	return execute(monthlyTmpl, "Your Monthly Financial Report - "+msg.Data.Month, p)
}

func renderBudgetAlert(msg Message) Document {
	var missing []string
	if strings.TrimSpace(msg.UserName) == "" {
		missing = append(missing, "userName")
	}
	if msg.Data.BudgetAmount == nil {
		missing = append(missing, "data.budgetAmount")
	}
	if msg.Data.TotalExpenses == nil {
		missing = append(missing, "data.totalExpenses")
	}
	if len(missing) > 0 {
		return renderError("Budget Alert", "Budget Alert",
			fmt.Sprintf("Unable to generate budget alert. Missing: %s.", strings.Join(missing, ", ")),
			&MissingFieldsError{Type: BudgetAlert, Fields: missing})
	}

	percentage := "--"
	if msg.Data.PercentageUsed != nil {
		percentage = msg.Data.PercentageUsed.StringFixed(1)
	}

	p := page{
		Title:      "Budget Alert",
		Preview:    "Budget Alert",
		UserName:   msg.UserName,
		Percentage: percentage,
		Budget:     money(*msg.Data.BudgetAmount),
		Spent:      money(*msg.Data.TotalExpenses),
		Remaining:  money(msg.Data.BudgetAmount.Sub(*msg.Data.TotalExpenses)),
	}

	return execute(alertTmpl, fmt.Sprintf("Budget Alert: %s%% of your monthly budget used", percentage), p)
}

func renderError(title, subject, message string, cause error) Document {
	doc := execute(errorTmpl, subject, page{Title: title, Preview: "Error", Message: message})
	if doc.Err == nil {
		doc.Err = cause
	}
	return doc
}

func execute(tmpl *template.Template, subject string, p page) Document {
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", p); err != nil {
		return Document{Subject: subject, Err: fmt.Errorf("failed to render email: %w", err)}
	}
	return Document{Subject: subject, HTML: buf.String()}
}

func money(d decimal.Decimal) string {
	if d.IsNegative() {
		return "-$" + d.Neg().StringFixed(2)
	}
	return "$" + d.StringFixed(2)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
