// Package domain defines core data structures used throughout the DCA bot.
package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Strategy is a single recurring purchase: spend FiatAmount of fiat on Pair.
type Strategy struct {
	// Pair exchange pair name, e.g. XBTEUR.
	Pair string
	// FiatAmount amount of fiat to spend per run.
	FiatAmount decimal.Decimal
}

// NewStrategy validates and returns a Strategy.
func NewStrategy(pair string, fiatAmount decimal.Decimal) (Strategy, error) {
	if pair == "" {
		return Strategy{}, fmt.Errorf("strategy pair is required")
	}
	if !fiatAmount.IsPositive() {
		return Strategy{}, fmt.Errorf("strategy %s: fiat amount must be positive, got %s", pair, fiatAmount.String())
	}
	return Strategy{Pair: pair, FiatAmount: fiatAmount}, nil
}

// String returns a human-readable string representation.
func (s Strategy) String() string {
	return fmt.Sprintf("%s for %s", s.Pair, s.FiatAmount.StringFixed(2))
}

// TotalFiat sums the fiat amounts of all strategies.
func TotalFiat(strategies []Strategy) decimal.Decimal {
	total := decimal.Zero
	for _, s := range strategies {
		total = total.Add(s.FiatAmount)
	}
	return total
}

// Credentials Kraken API key pair. APISecret is the base64 string issued by Kraken.
type Credentials struct {
	APIKey    string
	APISecret string
}

// String hides the secret so credentials can't leak through %v.
func (c Credentials) String() string {
	return "Credentials{APIKey: <redacted>, APISecret: <redacted>}"
}

// GoString hides the secret for %#v as well.
func (c Credentials) GoString() string {
	return c.String()
}
