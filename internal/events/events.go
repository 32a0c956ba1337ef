// Package events defines the notifications emitted while a DCA run progresses.
package events

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/vadiminshakov/krakendca/internal/domain"
)

// Kind identifies the event type.
type Kind string

const (
	KindRunStarted        Kind = "run-started"
	KindDryRunResult      Kind = "dry-run-result"
	KindOrderSucceeded    Kind = "order-success"
	KindOrderFailed       Kind = "order-failed"
	KindException         Kind = "exception"
	KindRunCompleted      Kind = "run-completed"
	KindInsufficientFunds Kind = "insufficient-funds"
)

// PairAll is used as the pair of run-wide exceptions.
const PairAll = "ALL"

// Event is implemented by every notification.
type Event interface {
	Kind() Kind
	OccurredAt() time.Time
}

// Meta carries fields common to all events.
type Meta struct {
	RunID string    `json:"run_id"`
	At    time.Time `json:"at"`
}

// OccurredAt returns when the event happened.
func (m Meta) OccurredAt() time.Time { return m.At }

// RunStarted is sent once the balance gate passed.
type RunStarted struct {
	Meta
	StrategyCount int  `json:"strategy_count"`
	DryRun        bool `json:"dry_run"`
}

// Kind returns KindRunStarted.
func (RunStarted) Kind() Kind { return KindRunStarted }

// DryRunResult simulated purchase.
type DryRunResult struct {
	Meta
	Pair       string          `json:"pair"`
	FiatAmount decimal.Decimal `json:"fiat_amount"`
	Price      decimal.Decimal `json:"price"`
	Volume     decimal.Decimal `json:"volume"`
}

// Kind returns KindDryRunResult.
func (DryRunResult) Kind() Kind { return KindDryRunResult }

// OrderSucceeded the exchange accepted a market buy.
type OrderSucceeded struct {
	Meta
	Pair        string          `json:"pair"`
	Volume      decimal.Decimal `json:"volume"`
	Price       decimal.Decimal `json:"price"`
	TxIDs       []string        `json:"txids"`
	Description string          `json:"description,omitempty"`
}

// Kind returns KindOrderSucceeded.
func (OrderSucceeded) Kind() Kind { return KindOrderSucceeded }

// OrderFailed the exchange answered the order with an error list.
type OrderFailed struct {
	Meta
	Pair   string          `json:"pair"`
	Volume decimal.Decimal `json:"volume"`
	Price  decimal.Decimal `json:"price"`
	Errors []string        `json:"errors"`
}

// Kind returns KindOrderFailed.
func (OrderFailed) Kind() Kind { return KindOrderFailed }

// Exception a strategy, or the whole run when Pair is PairAll, failed unexpectedly.
type Exception struct {
	Meta
	Pair    string `json:"pair"`
	Message string `json:"message"`
}

// Kind returns KindException.
func (Exception) Kind() Kind { return KindException }

// RunCompleted is sent after every strategy was processed.
type RunCompleted struct {
	Meta
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

// Kind returns KindRunCompleted.
func (RunCompleted) Kind() Kind { return KindRunCompleted }

// InsufficientFunds the balance gate rejected the run.
type InsufficientFunds struct {
	Meta
	Fiat      string          `json:"fiat"`
	Required  decimal.Decimal `json:"required"`
	Available decimal.Decimal `json:"available"`
}

// Kind returns KindInsufficientFunds.
func (InsufficientFunds) Kind() Kind { return KindInsufficientFunds }

// FromResult maps a strategy outcome onto its notification.
func FromResult(meta Meta, r domain.OrderResult) Event {
	switch r.Kind {
	case domain.OrderKindSuccess:
		return OrderSucceeded{Meta: meta, Pair: r.Pair, Volume: r.Volume, Price: r.Price, TxIDs: r.TxIDs, Description: r.Description}
	case domain.OrderKindExchangeError:
		return OrderFailed{Meta: meta, Pair: r.Pair, Volume: r.Volume, Price: r.Price, Errors: r.Errors}
	case domain.OrderKindDryRun:
		return DryRunResult{Meta: meta, Pair: r.Pair, FiatAmount: r.FiatAmount, Price: r.Price, Volume: r.Volume}
	default:
		return Exception{Meta: meta, Pair: r.Pair, Message: r.Message}
	}
}
