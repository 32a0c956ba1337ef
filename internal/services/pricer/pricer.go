// Package pricer converts fiat amounts into asset volumes at the current ask price.
package pricer

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/vadiminshakov/krakendca/internal/domain"
)

// VolumePrecision decimals kept in a purchase volume.
const VolumePrecision = 8

type askPricer interface {
	AskPrice(ctx context.Context, pair string) (decimal.Decimal, error)
}

// Quote price used and the volume it buys.
type Quote struct {
	Price  decimal.Decimal
	Volume decimal.Decimal
}

// Converter turns fiat amounts into volumes. Prices are never cached: every call reads
// the ticker again.
type Converter struct {
	pricer askPricer
}

// NewConverter creates a Converter.
func NewConverter(pricer askPricer) *Converter {
	return &Converter{pricer: pricer}
}

// Quote fetches the ask price for pair and computes the volume fiatAmount buys.
func (c *Converter) Quote(ctx context.Context, pair string, fiatAmount decimal.Decimal) (Quote, error) {
	price, err := c.pricer.AskPrice(ctx, pair)
	if err != nil {
		return Quote{}, errors.Wrapf(err, "failed to get ask price for %s", pair)
	}

	volume, err := Volume(fiatAmount, price)
	if err != nil {
		return Quote{}, errors.Wrapf(err, "failed to convert %s to volume for %s", fiatAmount.String(), pair)
	}

	return Quote{Price: price, Volume: volume}, nil
}

// AmountToVolume returns the volume of pair that fiatAmount buys at the current ask.
func (c *Converter) AmountToVolume(ctx context.Context, pair string, fiatAmount decimal.Decimal) (decimal.Decimal, error) {
	q, err := c.Quote(ctx, pair, fiatAmount)
	if err != nil {
		return decimal.Zero, err
	}
	return q.Volume, nil
}

// Volume computes fiatAmount / price rounded once to VolumePrecision decimals, half away from zero.
func Volume(fiatAmount, price decimal.Decimal) (decimal.Decimal, error) {
	if !price.IsPositive() {
		return decimal.Zero, &domain.DataError{Op: "Volume", Reason: fmt.Sprintf("non-positive price %s", price.String())}
	}
	return fiatAmount.DivRound(price, VolumePrecision), nil
}
