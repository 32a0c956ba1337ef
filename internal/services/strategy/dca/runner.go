// Package dca runs the dollar-cost-averaging purchases of one run.
package dca

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vadiminshakov/krakendca/internal/domain"
	"github.com/vadiminshakov/krakendca/internal/events"
	"github.com/vadiminshakov/krakendca/internal/services/pricer"
	"github.com/vadiminshakov/krakendca/internal/storage/history"
)

// ErrVolumeTooSmall the fiat amount buys less than the smallest volume step.
var ErrVolumeTooSmall = errors.New("volume rounds to zero")

type exchange interface {
	AskPrice(ctx context.Context, pair string) (decimal.Decimal, error)
	AddMarketBuyOrder(ctx context.Context, pair string, volume decimal.Decimal) (domain.OrderResult, error)
}

type notifier interface {
	Notify(ctx context.Context, ev events.Event)
}

type recorder interface {
	Save(rec history.Record) error
}

// State of a run.
type State int

const (
	StateNotStarted State = iota
	StateGateChecked
	StateAborted
	StateExecuting
	StateCompleted
)

// String returns the state name used in logs.
func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "not_started"
	case StateGateChecked:
		return "gate_checked"
	case StateAborted:
		return "aborted"
	case StateExecuting:
		return "executing"
	case StateCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

// Runner executes strategies one after another. A Runner serves a single run.
type Runner struct {
	runID     string
	exchange  exchange
	converter *pricer.Converter
	notifier  notifier
	history   recorder
	l         *zap.Logger
	state     State
	now       func() time.Time
}

// NewRunner creates a runner for the run identified by runID.
func NewRunner(l *zap.Logger, runID string, exchange exchange, n notifier, rec recorder) *Runner {
	if rec == nil {
		rec = history.Discard{}
	}
	return &Runner{
		runID:     runID,
		exchange:  exchange,
		converter: pricer.NewConverter(exchange),
		notifier:  n,
		history:   rec,
		l:         l.With(zap.String("run_id", runID)),
		state:     StateNotStarted,
		now:       time.Now,
	}
}

// State returns the current run state.
func (r *Runner) State() State {
	return r.state
}

// GateChecked records that the balance gate passed.
func (r *Runner) GateChecked() {
	if r.state == StateNotStarted {
		r.state = StateGateChecked
	}
}

// Abort marks the run as aborted; Run becomes a no-op.
func (r *Runner) Abort() {
	if r.state == StateNotStarted || r.state == StateGateChecked {
		r.state = StateAborted
	}
}

// Run processes strategies in configuration order and returns one result per strategy.
// A failing strategy never stops the ones after it.
func (r *Runner) Run(ctx context.Context, strategies []domain.Strategy, dryRun bool) []domain.OrderResult {
	switch r.state {
	case StateAborted, StateExecuting, StateCompleted:
		r.l.Warn("run cannot execute", zap.Stringer("state", r.state))
		return nil
	case StateNotStarted:
		r.l.Warn("running strategies without a balance check")
	}

	r.state = StateExecuting
	r.l.Info("executing strategies", zap.Int("count", len(strategies)), zap.Bool("dry_run", dryRun))

	results := make([]domain.OrderResult, 0, len(strategies))
	for _, s := range strategies {
		res := r.execute(ctx, s, dryRun)
		results = append(results, res)
		r.report(ctx, res)
	}

	r.state = StateCompleted
	return results
}

// execute runs one strategy. Errors and panics become the Exception variant.
func (r *Runner) execute(ctx context.Context, s domain.Strategy, dryRun bool) (res domain.OrderResult) {
	l := r.l.With(zap.String("pair", s.Pair))

	defer func() {
		if p := recover(); p != nil {
			l.Error("strategy panicked", zap.Any("panic", p), zap.Stack("stack"))
			res = domain.NewExceptionResult(s.Pair, fmt.Errorf("panic: %v", p))
			res.FiatAmount = s.FiatAmount
		}
	}()

	l.Info("processing strategy", zap.String("amount", s.FiatAmount.StringFixed(2)))

	q, err := r.converter.Quote(ctx, s.Pair, s.FiatAmount)
	if err != nil {
		l.Error("failed to quote strategy", zap.Error(err))
		return r.exception(s, err)
	}
	l.Info("calculated volume", zap.String("volume", q.Volume.StringFixed(pricer.VolumePrecision)), zap.String("price", q.Price.String()))

	if q.Volume.IsZero() {
		err := errors.Wrapf(ErrVolumeTooSmall, "%s at price %s", s.FiatAmount.String(), q.Price.String())
		l.Error("order skipped", zap.Error(err))
		return r.exception(s, err)
	}

	if dryRun {
		return domain.OrderResult{
			Kind:       domain.OrderKindDryRun,
			Pair:       s.Pair,
			FiatAmount: s.FiatAmount,
			Price:      q.Price,
			Volume:     q.Volume,
		}
	}

	res, err = r.exchange.AddMarketBuyOrder(ctx, s.Pair, q.Volume)
	if err != nil {
		l.Error("failed to place order", zap.Error(err))
		res = r.exception(s, err)
		res.Price = q.Price
		res.Volume = q.Volume
		return res
	}

	res.Pair = s.Pair
	res.FiatAmount = s.FiatAmount
	res.Price = q.Price
	res.Volume = q.Volume
	return res
}

func (r *Runner) exception(s domain.Strategy, err error) domain.OrderResult {
	res := domain.NewExceptionResult(s.Pair, err)
	res.FiatAmount = s.FiatAmount
	return res
}

// report logs, records and announces a result before the next strategy starts.
func (r *Runner) report(ctx context.Context, res domain.OrderResult) {
	if res.OK() {
		r.l.Info(res.String())
	} else {
		r.l.Error(res.String())
	}

	at := r.now()
	if err := r.history.Save(history.NewOrderRecord(r.runID, at, res)); err != nil {
		r.l.Error("failed to record result", zap.String("pair", res.Pair), zap.Error(err))
	}

	r.notifier.Notify(ctx, events.FromResult(events.Meta{RunID: r.runID, At: at}, res))
}

// Summary counts results that reached their intended outcome and those that did not.
func Summary(results []domain.OrderResult) (succeeded, failed int) {
	for _, res := range results {
		if res.OK() {
			succeeded++
		} else {
			failed++
		}
	}
	return succeeded, failed
}
