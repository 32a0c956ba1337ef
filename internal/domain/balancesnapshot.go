package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// BalanceSnapshot fiat balance observed by the pre-trade check.
type BalanceSnapshot struct {
	Timestamp time.Time       `json:"ts"`
	Fiat      string          `json:"fiat"`
	Available decimal.Decimal `json:"available"`
	Required  decimal.Decimal `json:"required"`
}

// NewBalanceSnapshot creates a new BalanceSnapshot.
func NewBalanceSnapshot(timestamp time.Time, fiat string, available, required decimal.Decimal) BalanceSnapshot {
	return BalanceSnapshot{
		Timestamp: timestamp,
		Fiat:      fiat,
		Available: available,
		Required:  required,
	}
}
