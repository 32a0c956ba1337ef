package pricer

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vadiminshakov/krakendca/internal/domain"
)

// mockPricer is a simple mock for the askPricer interface.
type mockPricer struct {
	price decimal.Decimal
	err   error
	calls int
}

func (m *mockPricer) AskPrice(ctx context.Context, pair string) (decimal.Decimal, error) {
	m.calls++
	return m.price, m.err
}

func TestConverter_AmountToVolume(t *testing.T) {
	p := &mockPricer{price: decimal.NewFromInt(50000)}
	c := NewConverter(p)

	volume, err := c.AmountToVolume(context.Background(), "XBTEUR", decimal.NewFromInt(100))
	require.NoError(t, err)
	assert.Equal(t, "0.00200000", volume.StringFixed(VolumePrecision))
	assert.True(t, volume.Equal(decimal.RequireFromString("0.002")))
}

func TestConverter_PriceIsFetchedEveryCall(t *testing.T) {
	p := &mockPricer{price: decimal.NewFromInt(50000)}
	c := NewConverter(p)
	ctx := context.Background()

	first, err := c.AmountToVolume(ctx, "XBTEUR", decimal.NewFromInt(100))
	require.NoError(t, err)
	second, err := c.AmountToVolume(ctx, "XBTEUR", decimal.NewFromInt(100))
	require.NoError(t, err)

	assert.True(t, first.Equal(second), "same price and amount must give the same volume")
	assert.Equal(t, 2, p.calls)

	p.price = decimal.NewFromInt(40000)
	third, err := c.AmountToVolume(ctx, "XBTEUR", decimal.NewFromInt(100))
	require.NoError(t, err)
	assert.True(t, third.Equal(decimal.RequireFromString("0.0025")))
}

func TestConverter_Quote(t *testing.T) {
	p := &mockPricer{price: decimal.RequireFromString("2500.5")}
	c := NewConverter(p)

	q, err := c.Quote(context.Background(), "ETHEUR", decimal.NewFromInt(25))
	require.NoError(t, err)
	assert.True(t, q.Price.Equal(decimal.RequireFromString("2500.5")))
	assert.Equal(t, "0.00999800", q.Volume.StringFixed(VolumePrecision))
	assert.Equal(t, 1, p.calls)
}

func TestConverter_PricerError(t *testing.T) {
	p := &mockPricer{err: &domain.NetworkError{Op: "Ticker", Err: context.DeadlineExceeded}}
	c := NewConverter(p)

	_, err := c.AmountToVolume(context.Background(), "XBTEUR", decimal.NewFromInt(100))
	require.Error(t, err)
	var netErr *domain.NetworkError
	assert.True(t, errors.As(err, &netErr))
	assert.Contains(t, err.Error(), "XBTEUR")
}

func TestVolume_Rounding(t *testing.T) {
	tests := []struct {
		name     string
		fiat     string
		price    string
		expected string
	}{
		{name: "exact", fiat: "100", price: "50000", expected: "0.00200000"},
		{name: "one third rounds down", fiat: "1", price: "3", expected: "0.33333333"},
		{name: "two thirds rounds up", fiat: "2", price: "3", expected: "0.66666667"},
		// half away from zero, banker's rounding would give 0.00000002
		{name: "half rounds up", fiat: "25", price: "1000000000", expected: "0.00000003"},
		{name: "below half rounds down", fiat: "24", price: "1000000000", expected: "0.00000002"},
		{name: "too small rounds to zero", fiat: "1", price: "1000000000", expected: "0.00000000"},
		// just below half: an intermediate rounding step would carry it up to 0.00000001
		{name: "just below half stays down", fiat: "0.0000000049999999999999999999", price: "1", expected: "0.00000000"},
		{name: "just below half on a repeating quotient", fiat: "0.0000000149999999999999999999", price: "3", expected: "0.00000000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := Volume(decimal.RequireFromString(tt.fiat), decimal.RequireFromString(tt.price))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, v.StringFixed(VolumePrecision))
		})
	}
}

func TestVolume_NonPositivePrice(t *testing.T) {
	for _, price := range []decimal.Decimal{decimal.Zero, decimal.NewFromInt(-1)} {
		_, err := Volume(decimal.NewFromInt(100), price)
		var dataErr *domain.DataError
		assert.True(t, errors.As(err, &dataErr), "price %s", price)
	}
}
