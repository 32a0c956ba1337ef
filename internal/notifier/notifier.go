// Package notifier delivers run events to humans. Delivery is best effort: a sink never
// returns an error to the caller and never blocks a run beyond its own timeout.
package notifier

import (
	"context"

	"go.uber.org/zap"

	"github.com/vadiminshakov/krakendca/internal/events"
)

// Notifier receives run events.
type Notifier interface {
	Notify(ctx context.Context, ev events.Event)
}

// Nop discards events.
type Nop struct{}

// Notify does nothing.
func (Nop) Notify(context.Context, events.Event) {}

// Multi fans an event out to every sink in order.
type Multi []Notifier

// NewMulti drops nil sinks and returns Nop when nothing is left.
func NewMulti(sinks ...Notifier) Notifier {
	var m Multi
	for _, s := range sinks {
		if s != nil {
			m = append(m, s)
		}
	}
	switch len(m) {
	case 0:
		return Nop{}
	case 1:
		return m[0]
	default:
		return m
	}
}

// Notify passes ev to every sink in order.
func (m Multi) Notify(ctx context.Context, ev events.Event) {
	for _, s := range m {
		s.Notify(ctx, ev)
	}
}

// Log writes events to a zap logger.
type Log struct {
	l *zap.Logger
}

// NewLog creates a log sink.
func NewLog(l *zap.Logger) *Log {
	return &Log{l: l}
}

// Notify logs ev at Warn for failures and Info otherwise.
func (n *Log) Notify(_ context.Context, ev events.Event) {
	fields := []zap.Field{zap.String("event", string(ev.Kind()))}

	switch e := ev.(type) {
	case events.RunStarted:
		fields = append(fields, zap.String("run_id", e.RunID), zap.Int("strategies", e.StrategyCount), zap.Bool("dry_run", e.DryRun))
	case events.DryRunResult:
		fields = append(fields, zap.String("run_id", e.RunID), zap.String("pair", e.Pair),
			zap.String("fiat", e.FiatAmount.String()), zap.String("price", e.Price.String()), zap.String("volume", e.Volume.String()))
	case events.OrderSucceeded:
		fields = append(fields, zap.String("run_id", e.RunID), zap.String("pair", e.Pair),
			zap.String("volume", e.Volume.String()), zap.String("price", e.Price.String()), zap.Strings("txid", e.TxIDs))
	case events.OrderFailed:
		fields = append(fields, zap.String("run_id", e.RunID), zap.String("pair", e.Pair), zap.Strings("errors", e.Errors))
		n.l.Warn("notification", fields...)
		return
	case events.Exception:
		fields = append(fields, zap.String("run_id", e.RunID), zap.String("pair", e.Pair), zap.String("message", e.Message))
		n.l.Warn("notification", fields...)
		return
	case events.RunCompleted:
		fields = append(fields, zap.String("run_id", e.RunID), zap.Int("succeeded", e.Succeeded), zap.Int("failed", e.Failed))
	case events.InsufficientFunds:
		fields = append(fields, zap.String("run_id", e.RunID), zap.String("fiat", e.Fiat),
			zap.String("required", e.Required.String()), zap.String("available", e.Available.String()))
		n.l.Warn("notification", fields...)
		return
	}

	n.l.Info("notification", fields...)
}
