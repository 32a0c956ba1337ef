package notifier

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	tgbot "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/vadiminshakov/krakendca/internal/events"
)

const telegramTimeout = 15 * time.Second

// Telegram sends events as plain text messages to one chat.
type Telegram struct {
	mu     sync.Mutex
	bot    *tgbot.BotAPI
	client *contextClient
	chatID int64
	fiat   string
	l      *zap.Logger
}

// contextClient binds Bot API requests to the context of the current Notify call.
type contextClient struct {
	http *http.Client
	ctx  context.Context
}

func (c *contextClient) Do(req *http.Request) (*http.Response, error) {
	return c.http.Do(req.WithContext(c.ctx))
}

// NewTelegram connects to the Bot API with token.
func NewTelegram(token string, chatID int64, fiat string, l *zap.Logger) (*Telegram, error) {
	return NewTelegramWithEndpoint(token, tgbot.APIEndpoint, chatID, fiat, l)
}

// NewTelegramWithEndpoint is NewTelegram against a custom Bot API endpoint
// (format string taking the token and the method).
func NewTelegramWithEndpoint(token, endpoint string, chatID int64, fiat string, l *zap.Logger) (*Telegram, error) {
	return newTelegram(token, endpoint, chatID, fiat, l, telegramTimeout)
}

func newTelegram(token, endpoint string, chatID int64, fiat string, l *zap.Logger, timeout time.Duration) (*Telegram, error) {
	if chatID == 0 {
		return nil, errors.New("telegram chat id is required")
	}
	client := &contextClient{http: &http.Client{Timeout: timeout}, ctx: context.Background()}
	b, err := tgbot.NewBotAPIWithClient(token, endpoint, client)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create telegram bot")
	}
	return &Telegram{bot: b, client: client, chatID: chatID, fiat: fiat, l: l}, nil
}

// Notify sends ev to the chat. The send gives up when ctx is done or the client times out.
func (t *Telegram) Notify(ctx context.Context, ev events.Event) {
	text, ok := t.render(ev)
	if !ok {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.client.ctx = ctx
	defer func() { t.client.ctx = context.Background() }()

	if _, err := t.bot.Send(tgbot.NewMessage(t.chatID, text)); err != nil {
		t.l.Error("failed to send Telegram message", zap.String("event", string(ev.Kind())), zap.Error(err))
	}
}

func (t *Telegram) render(ev events.Event) (string, bool) {
	var b strings.Builder

	switch v := ev.(type) {
	case events.RunStarted:
		fmt.Fprintf(&b, "🚀 DCA run started: %d strategies", v.StrategyCount)
		if v.DryRun {
			b.WriteString(" (dry run)")
		}
	case events.DryRunResult:
		fmt.Fprintf(&b, "🧪 Dry run %s\namount: %s\nprice: %s\nvolume: %s",
			v.Pair, money(t.fiat, v.FiatAmount, 2), money(t.fiat, v.Price, 4), volume(v.Volume))
	case events.OrderSucceeded:
		fmt.Fprintf(&b, "✅ Bought %s %s at %s\ntxid: %s",
			volume(v.Volume), v.Pair, money(t.fiat, v.Price, 4), txids(v.TxIDs))
	case events.OrderFailed:
		fmt.Fprintf(&b, "❌ Order %s failed\nvolume: %s\nprice: %s\nerror: %s",
			v.Pair, volume(v.Volume), money(t.fiat, v.Price, 4), strings.Join(v.Errors, ", "))
	case events.Exception:
		fmt.Fprintf(&b, "⚠️ Exception for %s\n%s", v.Pair, clip(v.Message, maxExceptionLen))
	case events.RunCompleted:
		fmt.Fprintf(&b, "🏁 DCA run completed: %d succeeded, %d failed", v.Succeeded, v.Failed)
	case events.InsufficientFunds:
		fmt.Fprintf(&b, "🛑 Insufficient %s balance\nrequired: %s\navailable: %s\nCancelling all planned trades.",
			v.Fiat, money(v.Fiat, v.Required, 2), money(v.Fiat, v.Available, 2))
	default:
		return "", false
	}

	return b.String(), true
}
