package internal

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vadiminshakov/krakendca/internal/domain"
	"github.com/vadiminshakov/krakendca/internal/events"
	"github.com/vadiminshakov/krakendca/internal/notifier"
	"github.com/vadiminshakov/krakendca/internal/services/balance"
	"github.com/vadiminshakov/krakendca/internal/services/strategy/dca"
	"github.com/vadiminshakov/krakendca/internal/storage/history"
)

const statusOnline = "online"

// Exchange is the subset of the Kraken API a run needs.
type Exchange interface {
	SystemStatus(ctx context.Context) (string, error)
	AskPrice(ctx context.Context, pair string) (decimal.Decimal, error)
	Balance(ctx context.Context) (map[string]decimal.Decimal, error)
	AddMarketBuyOrder(ctx context.Context, pair string, volume decimal.Decimal) (domain.OrderResult, error)
}

type runHistory interface {
	Save(rec history.Record) error
}

// RunSettings what a run buys.
type RunSettings struct {
	Strategies []domain.Strategy
	DryRun     bool
	Fiat       string
}

// TradingBot performs one DCA run: exchange status, balance gate, then every strategy.
type TradingBot struct {
	exchange Exchange
	notifier notifier.Notifier
	history  runHistory
	settings RunSettings
	l        *zap.Logger
	newRunID func() string
	now      func() time.Time
}

// NewTradingBot creates a bot. n and hist may be nil.
func NewTradingBot(l *zap.Logger, exchange Exchange, n notifier.Notifier, hist runHistory, settings RunSettings) *TradingBot {
	if n == nil {
		n = notifier.Nop{}
	}
	if hist == nil {
		hist = history.Discard{}
	}
	return &TradingBot{
		exchange: exchange,
		notifier: n,
		history:  hist,
		settings: settings,
		l:        l,
		newRunID: uuid.NewString,
		now:      time.Now,
	}
}

// Run executes one run. A non-nil error means the run was aborted before any order:
// the exchange is offline or unreachable, or the balance gate failed. Failures of single
// strategies are reported in the results, not as an error.
func (b *TradingBot) Run(ctx context.Context) ([]domain.OrderResult, error) {
	runID := b.newRunID()
	l := b.l.With(zap.String("run_id", runID))
	meta := func() events.Meta { return events.Meta{RunID: runID, At: b.now()} }

	l.Info("starting DCA run",
		zap.Int("strategies", len(b.settings.Strategies)),
		zap.Bool("dry_run", b.settings.DryRun),
		zap.String("fiat", b.settings.Fiat))

	runner := dca.NewRunner(l, runID, b.exchange, b.notifier, b.history)

	if err := b.checkStatus(ctx, l); err != nil {
		runner.Abort()
		b.notifier.Notify(ctx, events.Exception{Meta: meta(), Pair: events.PairAll, Message: err.Error()})
		return nil, err
	}

	gate := balance.NewGate(l, b.exchange, b.settings.Fiat)
	snapshot, err := gate.Check(ctx, b.settings.Strategies)
	if !snapshot.Timestamp.IsZero() {
		if herr := b.history.Save(history.NewBalanceRecord(runID, snapshot)); herr != nil {
			l.Error("failed to record balance snapshot", zap.Error(herr))
		}
	}
	if err != nil {
		runner.Abort()

		var insufficient *domain.InsufficientFundsError
		if errors.As(err, &insufficient) {
			b.notifier.Notify(ctx, events.InsufficientFunds{
				Meta:      meta(),
				Fiat:      insufficient.Fiat,
				Required:  insufficient.Required,
				Available: insufficient.Available,
			})
			return nil, err
		}

		if errors.Is(err, domain.ErrAuth) {
			l.Error("kraken rejected the credentials, check api key, secret and key permissions", zap.Error(err))
		} else {
			l.Error("balance check failed", zap.Error(err))
		}
		b.notifier.Notify(ctx, events.Exception{Meta: meta(), Pair: events.PairAll, Message: err.Error()})
		return nil, err
	}
	runner.GateChecked()

	b.notifier.Notify(ctx, events.RunStarted{Meta: meta(), StrategyCount: len(b.settings.Strategies), DryRun: b.settings.DryRun})

	results := runner.Run(ctx, b.settings.Strategies, b.settings.DryRun)

	succeeded, failed := dca.Summary(results)
	b.notifier.Notify(ctx, events.RunCompleted{Meta: meta(), Succeeded: succeeded, Failed: failed})
	l.Info("DCA run completed", zap.Int("succeeded", succeeded), zap.Int("failed", failed))

	return results, nil
}

func (b *TradingBot) checkStatus(ctx context.Context, l *zap.Logger) error {
	status, err := b.exchange.SystemStatus(ctx)
	if err != nil {
		l.Error("system status check failed", zap.Error(err))
		return errors.Wrap(err, "system status check failed")
	}

	l.Info("kraken system status", zap.String("status", status))
	if status != statusOnline {
		return errors.Wrapf(domain.ErrExchangeOffline, "status %q", status)
	}
	return nil
}
