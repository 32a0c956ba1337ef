package internal

import (
	"io"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/vadiminshakov/krakendca/config"
	"github.com/vadiminshakov/krakendca/internal/clients"
	"github.com/vadiminshakov/krakendca/internal/notifier"
	"github.com/vadiminshakov/krakendca/internal/storage/history"
)

// Services collaborators built from configuration.
type Services struct {
	Exchange *clients.KrakenClient
	Notifier notifier.Notifier
	History  *history.WALStore
}

// NewServices creates the Kraken client, the notification sinks and the run history.
func NewServices(conf config.Config, l *zap.Logger) (*Services, error) {
	exchange, err := clients.NewKrakenClient(conf.Credentials(),
		clients.WithBaseURL(conf.API.BaseURL),
		clients.WithLogger(l.Named("kraken")),
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create kraken client")
	}
	l.Info("using Kraken API", zap.String("base_url", exchange.BaseURL()))

	sinks := []notifier.Notifier{notifier.NewLog(l.Named("notify"))}
	if conf.Logging.DiscordWebhook != "" {
		sinks = append(sinks, notifier.NewDiscord(conf.Logging.DiscordWebhook, conf.DCA.Fiat, l.Named("discord")))
	} else {
		l.Debug("no Discord webhook configured")
	}
	if conf.Telegram.Enabled() {
		tg, err := notifier.NewTelegram(conf.Telegram.Token, conf.Telegram.ChatID, conf.DCA.Fiat, l.Named("telegram"))
		if err != nil {
			// notifications are best effort
			l.Error("telegram notifications disabled", zap.Error(err))
		} else {
			sinks = append(sinks, tg)
		}
	}

	s := &Services{
		Exchange: exchange,
		Notifier: notifier.NewMulti(sinks...),
	}

	if conf.History.Enabled() {
		store, err := history.NewWALStore(conf.History.Dir)
		if err != nil {
			return nil, errors.Wrap(err, "failed to open run history")
		}
		s.History = store
	}

	return s, nil
}

// NewTradingBotFromConfig wires a TradingBot to s.
func (s *Services) NewTradingBotFromConfig(conf config.Config, l *zap.Logger) *TradingBot {
	var hist runHistory = history.Discard{}
	if s.History != nil {
		hist = s.History
	}
	return NewTradingBot(l, s.Exchange, s.Notifier, hist, RunSettings{
		Strategies: conf.DCA.Strategies,
		DryRun:     conf.DCA.DryRun,
		Fiat:       conf.DCA.Fiat,
	})
}

// Close releases the run history.
func (s *Services) Close() error {
	if s.History != nil {
		return s.History.Close()
	}
	return nil
}

// DumpHistory writes the recorded run history to w as JSON lines.
func DumpHistory(conf config.Config, w io.Writer, l *zap.Logger) error {
	if !conf.History.Enabled() {
		return errors.New("run history is disabled, set history.dir in the config")
	}

	store, err := history.NewWALStore(conf.History.Dir)
	if err != nil {
		return errors.Wrap(err, "failed to open run history")
	}
	defer store.Close()

	n, err := store.Dump(w, 0)
	if err != nil {
		return err
	}
	l.Info("run history dumped", zap.Int("records", n), zap.Uint64("last_index", store.CurrentIndex()))
	return nil
}
