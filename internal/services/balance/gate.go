// Package balance guards a run against spending fiat the account does not hold.
package balance

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vadiminshakov/krakendca/internal/domain"
)

// Epsilon tolerated shortfall, absorbs rounding in the balance Kraken reports.
var Epsilon = decimal.New(1, -8)

type balancer interface {
	Balance(ctx context.Context) (map[string]decimal.Decimal, error)
}

// Gate checks once per run that the fiat balance covers every strategy.
type Gate struct {
	exchange balancer
	fiat     string
	l        *zap.Logger
	now      func() time.Time
}

// NewGate creates a gate for the fiat currency (e.g. EUR).
func NewGate(l *zap.Logger, exchange balancer, fiat string) *Gate {
	return &Gate{
		exchange: exchange,
		fiat:     strings.ToUpper(fiat),
		l:        l,
		now:      time.Now,
	}
}

// Aliases Kraken asset codes the fiat may be reported under, in lookup order.
func Aliases(fiat string) []string {
	fiat = strings.ToUpper(fiat)
	return []string{"Z" + fiat, fiat}
}

// Check fetches the balance and compares it with the sum of all strategy amounts.
// It returns *domain.InsufficientFundsError when available + Epsilon < required, and
// the fetch error unchanged in kind when the balance cannot be read.
func (g *Gate) Check(ctx context.Context, strategies []domain.Strategy) (domain.BalanceSnapshot, error) {
	required := domain.TotalFiat(strategies)

	balances, err := g.exchange.Balance(ctx)
	if err != nil {
		return domain.BalanceSnapshot{}, errors.Wrap(err, "balance fetch failed")
	}

	available := g.available(balances)
	snapshot := domain.NewBalanceSnapshot(g.now(), g.fiat, available, required)

	g.l.Info("pre-trade balance check",
		zap.String("fiat", g.fiat),
		zap.String("required", required.StringFixed(2)),
		zap.String("available", available.StringFixed(2)))

	if available.Add(Epsilon).LessThan(required) {
		g.l.Warn("insufficient funds, aborting",
			zap.String("required", required.StringFixed(2)),
			zap.String("available", available.StringFixed(2)))
		return snapshot, &domain.InsufficientFundsError{Fiat: g.fiat, Required: required, Available: available}
	}

	return snapshot, nil
}

func (g *Gate) available(balances map[string]decimal.Decimal) decimal.Decimal {
	aliases := Aliases(g.fiat)
	for _, code := range aliases {
		if v, ok := balances[code]; ok {
			return v
		}
	}
	g.l.Warn("fiat balance not reported, treating as zero", zap.Strings("aliases", aliases))
	return decimal.Zero
}
