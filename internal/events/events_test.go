package events

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vadiminshakov/krakendca/internal/domain"
)

func TestFromResult(t *testing.T) {
	meta := Meta{RunID: "run-1", At: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)}

	success := domain.NewSuccessResult([]string{"OABC-123"}, "buy 0.002 XBTEUR @ market")
	success.Pair = "XBTEUR"
	success.Volume = decimal.RequireFromString("0.002")
	success.Price = decimal.NewFromInt(50000)

	failed := domain.NewExchangeErrorResult([]string{"EOrder:Insufficient funds"})
	failed.Pair = "ETHEUR"

	dry := domain.OrderResult{Kind: domain.OrderKindDryRun, Pair: "SOLEUR", FiatAmount: decimal.NewFromInt(25)}

	exc := domain.NewExceptionResult("ADAEUR", errors.New("boom"))

	tests := []struct {
		name   string
		result domain.OrderResult
		kind   Kind
	}{
		{name: "success", result: success, kind: KindOrderSucceeded},
		{name: "exchange error", result: failed, kind: KindOrderFailed},
		{name: "dry run", result: dry, kind: KindDryRunResult},
		{name: "exception", result: exc, kind: KindException},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := FromResult(meta, tt.result)
			assert.Equal(t, tt.kind, ev.Kind())
			assert.Equal(t, meta.At, ev.OccurredAt())
		})
	}

	ev, ok := FromResult(meta, success).(OrderSucceeded)
	require.True(t, ok)
	assert.Equal(t, []string{"OABC-123"}, ev.TxIDs)
	assert.Equal(t, "run-1", ev.RunID)

	exEv, ok := FromResult(meta, exc).(Exception)
	require.True(t, ok)
	assert.Equal(t, "ADAEUR", exEv.Pair)
	assert.Equal(t, "boom", exEv.Message)
}
