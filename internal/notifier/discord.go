package notifier

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/vadiminshakov/krakendca/internal/events"
)

const (
	discordTimeout   = 15 * time.Second
	discordFooter    = "Kraken DCA Bot"
	discordTimestamp = "2006-01-02T15:04:05.000Z"
	maxDiscordBody   = 300
)

const (
	colorStart        = 0x3498db
	colorDryRun       = 0xf39c12
	colorSuccess      = 0x27ae60
	colorFailed       = 0xe74c3c
	colorException    = 0xff6b35
	colorCompleted    = 0x9b59b6
	colorInsufficient = 0xc0392b
)

type discordPayload struct {
	Content string         `json:"content,omitempty"`
	Embeds  []discordEmbed `json:"embeds,omitempty"`
}

type discordEmbed struct {
	Title       string         `json:"title"`
	Description string         `json:"description,omitempty"`
	Color       int            `json:"color"`
	Fields      []discordField `json:"fields,omitempty"`
	Timestamp   string         `json:"timestamp"`
	Footer      discordFooterT `json:"footer"`
}

type discordField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

type discordFooterT struct {
	Text string `json:"text"`
}

// Discord posts events as embeds to a webhook.
type Discord struct {
	http    *resty.Client
	webhook string
	fiat    string
	l       *zap.Logger
}

// NewDiscord creates a webhook sink. fiat is the currency used to label amounts.
func NewDiscord(webhook, fiat string, l *zap.Logger) *Discord {
	return &Discord{
		http:    resty.New().SetRetryCount(0).SetTimeout(discordTimeout),
		webhook: webhook,
		fiat:    fiat,
		l:       l,
	}
}

// Notify posts ev as an embed. An empty webhook skips delivery.
func (d *Discord) Notify(ctx context.Context, ev events.Event) {
	if d.webhook == "" {
		d.l.Debug("no Discord webhook configured, skipping message")
		return
	}

	embed, ok := d.embed(ev)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, discordTimeout)
	defer cancel()

	resp, err := d.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(discordPayload{Embeds: []discordEmbed{embed}}).
		Post(d.webhook)
	if err != nil {
		d.l.Error("failed to send Discord message", zap.String("event", string(ev.Kind())), zap.Error(err))
		return
	}
	if resp.StatusCode() >= 300 {
		d.l.Warn("Discord rejected message",
			zap.String("event", string(ev.Kind())),
			zap.Int("status", resp.StatusCode()),
			zap.String("body", clip(resp.String(), maxDiscordBody)))
	}
}

func (d *Discord) embed(ev events.Event) (discordEmbed, bool) {
	e := discordEmbed{
		Timestamp: ev.OccurredAt().UTC().Format(discordTimestamp),
		Footer:    discordFooterT{Text: discordFooter},
	}

	switch v := ev.(type) {
	case events.RunStarted:
		e.Title = "🚀 Kraken DCA Bot Started"
		e.Description = fmt.Sprintf("Starting DCA execution with **%d** strategies", v.StrategyCount)
		if v.DryRun {
			e.Description += " (dry run)"
		}
		e.Color = colorStart
	case events.DryRunResult:
		e.Title = "🧪 Dry Run Executed"
		e.Color = colorDryRun
		e.Fields = []discordField{
			{Name: "Trading Pair", Value: "`" + v.Pair + "`", Inline: true},
			{Name: fmt.Sprintf("Amount (%s)", d.fiat), Value: money(d.fiat, v.FiatAmount, 2), Inline: true},
			{Name: "Current Price", Value: money(d.fiat, v.Price, 4), Inline: true},
			{Name: "Volume", Value: volume(v.Volume), Inline: true},
		}
		e.Footer.Text = discordFooter + " • Dry Run Mode"
	case events.OrderSucceeded:
		e.Title = "✅ Order Successfully Placed"
		e.Color = colorSuccess
		e.Fields = []discordField{
			{Name: "Trading Pair", Value: "`" + v.Pair + "`", Inline: true},
			{Name: "Volume", Value: volume(v.Volume), Inline: true},
			{Name: "Price", Value: money(d.fiat, v.Price, 4), Inline: true},
			{Name: "Transaction ID", Value: "`" + txids(v.TxIDs) + "`", Inline: false},
		}
		e.Footer.Text = discordFooter + " • Live Trading"
	case events.OrderFailed:
		e.Title = "❌ Order Failed"
		e.Color = colorFailed
		e.Fields = []discordField{
			{Name: "Trading Pair", Value: "`" + v.Pair + "`", Inline: true},
			{Name: "Volume", Value: volume(v.Volume), Inline: true},
			{Name: "Price", Value: money(d.fiat, v.Price, 4), Inline: true},
			{Name: "Error", Value: "```" + txids(v.Errors) + "```", Inline: false},
		}
		e.Footer.Text = discordFooter + " • Error"
	case events.Exception:
		e.Title = "⚠️ Exception Occurred"
		e.Color = colorException
		e.Fields = []discordField{
			{Name: "Trading Pair", Value: "`" + v.Pair + "`", Inline: true},
			{Name: "Exception", Value: "```" + clip(v.Message, maxExceptionLen) + "```", Inline: false},
		}
		e.Footer.Text = discordFooter + " • Exception"
	case events.RunCompleted:
		e.Title = "🏁 DCA Run Completed"
		e.Description = fmt.Sprintf("All strategies have been processed: **%d** succeeded, **%d** failed", v.Succeeded, v.Failed)
		e.Color = colorCompleted
	case events.InsufficientFunds:
		e.Title = fmt.Sprintf("🛑 Insufficient %s Balance", v.Fiat)
		e.Color = colorInsufficient
		e.Fields = []discordField{
			{Name: fmt.Sprintf("Required (%s)", v.Fiat), Value: money(v.Fiat, v.Required, 2), Inline: true},
			{Name: fmt.Sprintf("Available (%s)", v.Fiat), Value: money(v.Fiat, v.Available, 2), Inline: true},
			{Name: "Status", Value: "Cancelling all planned trades.", Inline: false},
		}
		e.Footer.Text = discordFooter + " • Pre-Trade Check"
	default:
		d.l.Warn("unknown event, not sent to Discord", zap.String("event", string(ev.Kind())))
		return discordEmbed{}, false
	}

	return e, true
}
