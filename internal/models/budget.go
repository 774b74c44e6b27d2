package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Budget is a user's monthly spending limit.
type Budget struct {
	UserID string

	Amount decimal.Decimal

	// LastAlertSent is when the last budget alert went out.
	// Zero if no alert was ever sent.
	LastAlertSent time.Time

	UpdatedAt time.Time
}
