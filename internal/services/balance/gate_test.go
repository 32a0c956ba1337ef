package balance

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/vadiminshakov/krakendca/internal/domain"
	exchangeMock "github.com/vadiminshakov/krakendca/mocks/exchange"
)

func strategies(t *testing.T, amounts ...int64) []domain.Strategy {
	t.Helper()
	pairs := []string{"XBTEUR", "ETHEUR", "SOLEUR", "ADAEUR"}
	out := make([]domain.Strategy, 0, len(amounts))
	for i, a := range amounts {
		s, err := domain.NewStrategy(pairs[i%len(pairs)], decimal.NewFromInt(a))
		require.NoError(t, err)
		out = append(out, s)
	}
	return out
}

func TestGate_Check(t *testing.T) {
	tests := []struct {
		name         string
		balances     map[string]decimal.Decimal
		amounts      []int64
		insufficient bool
		available    string
	}{
		{
			name:      "enough funds",
			balances:  map[string]decimal.Decimal{"ZEUR": decimal.NewFromInt(500)},
			amounts:   []int64{100, 100, 100},
			available: "500",
		},
		{
			name:      "exactly enough",
			balances:  map[string]decimal.Decimal{"ZEUR": decimal.NewFromInt(300)},
			amounts:   []int64{100, 200},
			available: "300",
		},
		{
			name:      "shortfall within epsilon passes",
			balances:  map[string]decimal.Decimal{"ZEUR": decimal.RequireFromString("299.999999995")},
			amounts:   []int64{300},
			available: "299.999999995",
		},
		{
			name:         "shortfall beyond epsilon fails",
			balances:     map[string]decimal.Decimal{"ZEUR": decimal.RequireFromString("299.99999998")},
			amounts:      []int64{300},
			insufficient: true,
			available:    "299.99999998",
		},
		{
			name:         "insufficient",
			balances:     map[string]decimal.Decimal{"ZEUR": decimal.NewFromInt(250)},
			amounts:      []int64{100, 100, 100},
			insufficient: true,
			available:    "250",
		},
		{
			name:      "plain alias",
			balances:  map[string]decimal.Decimal{"EUR": decimal.NewFromInt(1000), "XXBT": decimal.NewFromInt(1)},
			amounts:   []int64{50},
			available: "1000",
		},
		{
			name:      "Z alias wins",
			balances:  map[string]decimal.Decimal{"ZEUR": decimal.NewFromInt(10), "EUR": decimal.NewFromInt(1000)},
			amounts:   []int64{5},
			available: "10",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ex := exchangeMock.NewExchange(t)
			ex.On("Balance", mock.Anything).Return(tt.balances, nil).Once()

			gate := NewGate(zap.NewNop(), ex, "eur")
			snapshot, err := gate.Check(context.Background(), strategies(t, tt.amounts...))

			assert.Equal(t, "EUR", snapshot.Fiat)
			assert.True(t, snapshot.Available.Equal(decimal.RequireFromString(tt.available)), snapshot.Available.String())

			if !tt.insufficient {
				require.NoError(t, err)
				return
			}

			var insufficient *domain.InsufficientFundsError
			require.True(t, errors.As(err, &insufficient))
			assert.True(t, insufficient.Available.Equal(decimal.RequireFromString(tt.available)))
			assert.True(t, insufficient.Required.Equal(snapshot.Required))
		})
	}
}

func TestGate_InsufficientReportsTotals(t *testing.T) {
	ex := exchangeMock.NewExchange(t)
	ex.On("Balance", mock.Anything).Return(map[string]decimal.Decimal{"ZEUR": decimal.NewFromInt(250)}, nil)

	_, err := NewGate(zap.NewNop(), ex, "EUR").Check(context.Background(), strategies(t, 100, 100, 100))

	var insufficient *domain.InsufficientFundsError
	require.True(t, errors.As(err, &insufficient))
	assert.True(t, insufficient.Required.Equal(decimal.NewFromInt(300)))
	assert.True(t, insufficient.Available.Equal(decimal.NewFromInt(250)))
	assert.Equal(t, "insufficient EUR balance: required 300.00, available 250.00", err.Error())
}

func TestGate_MissingFiatIsZero(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	ex := exchangeMock.NewExchange(t)
	ex.On("Balance", mock.Anything).Return(map[string]decimal.Decimal{"XXBT": decimal.NewFromInt(2)}, nil)

	snapshot, err := NewGate(zap.New(core), ex, "EUR").Check(context.Background(), strategies(t, 10))

	var insufficient *domain.InsufficientFundsError
	require.True(t, errors.As(err, &insufficient))
	assert.True(t, snapshot.Available.IsZero())
	require.Equal(t, 1, logs.FilterMessage("fiat balance not reported, treating as zero").Len())
}

func TestGate_FetchErrorIsFatal(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{name: "exchange error", err: &domain.ExchangeError{Op: "Balance", Messages: []string{"EAPI:Invalid key"}}},
		{name: "network error", err: &domain.NetworkError{Op: "Balance", Err: context.DeadlineExceeded}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ex := exchangeMock.NewExchange(t)
			ex.On("Balance", mock.Anything).Return(nil, tt.err)

			_, err := NewGate(zap.NewNop(), ex, "EUR").Check(context.Background(), strategies(t, 10))
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.err)

			var insufficient *domain.InsufficientFundsError
			assert.False(t, errors.As(err, &insufficient))
		})
	}
}

func TestGate_AuthErrorDetectable(t *testing.T) {
	ex := exchangeMock.NewExchange(t)
	ex.On("Balance", mock.Anything).Return(nil, &domain.ExchangeError{Op: "Balance", Messages: []string{"EAPI:Invalid signature"}})

	_, err := NewGate(zap.NewNop(), ex, "EUR").Check(context.Background(), strategies(t, 10))
	assert.ErrorIs(t, err, domain.ErrAuth)
}

func TestAliases(t *testing.T) {
	assert.Equal(t, []string{"ZEUR", "EUR"}, Aliases("eur"))
	assert.Equal(t, []string{"ZUSD", "USD"}, Aliases("USD"))
}
