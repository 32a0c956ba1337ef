package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// OrderKind tags the variant held by an OrderResult.
type OrderKind int

const (
	OrderKindSuccess OrderKind = iota
	OrderKindExchangeError
	OrderKindException
	OrderKindDryRun
)

const (
	orderKindStringSuccess       = "success"
	orderKindStringExchangeError = "exchange_error"
	orderKindStringException     = "exception"
	orderKindStringDryRun        = "dry_run"
)

// String returns the string representation of the kind.
func (k OrderKind) String() string {
	switch k {
	case OrderKindSuccess:
		return orderKindStringSuccess
	case OrderKindExchangeError:
		return orderKindStringExchangeError
	case OrderKindException:
		return orderKindStringException
	case OrderKindDryRun:
		return orderKindStringDryRun
	default:
		return "unknown"
	}
}

// MarshalText lets the kind be stored as a readable string.
func (k OrderKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText parses the string form.
func (k *OrderKind) UnmarshalText(text []byte) error {
	switch string(text) {
	case orderKindStringSuccess:
		*k = OrderKindSuccess
	case orderKindStringExchangeError:
		*k = OrderKindExchangeError
	case orderKindStringException:
		*k = OrderKindException
	case orderKindStringDryRun:
		*k = OrderKindDryRun
	default:
		return fmt.Errorf("unknown order kind: %q", string(text))
	}
	return nil
}

// OrderResult outcome of one strategy in one run.
//
// Which fields are meaningful depends on Kind:
//   - Success: TxIDs, Description
//   - ExchangeError: Errors
//   - Exception: Message
//   - DryRun: nothing beyond the common fields
//
// Pair, FiatAmount, Price and Volume are filled whenever they were known at the time
// the result was produced.
type OrderResult struct {
	Kind        OrderKind       `json:"kind"`
	Pair        string          `json:"pair"`
	FiatAmount  decimal.Decimal `json:"fiat_amount"`
	Price       decimal.Decimal `json:"price"`
	Volume      decimal.Decimal `json:"volume"`
	TxIDs       []string        `json:"txids,omitempty"`
	Description string          `json:"description,omitempty"`
	Errors      []string        `json:"errors,omitempty"`
	Message     string          `json:"message,omitempty"`
}

// NewSuccessResult builds the Success variant.
func NewSuccessResult(txIDs []string, description string) OrderResult {
	return OrderResult{Kind: OrderKindSuccess, TxIDs: txIDs, Description: description}
}

// NewExchangeErrorResult builds the ExchangeError variant.
func NewExchangeErrorResult(messages []string) OrderResult {
	return OrderResult{Kind: OrderKindExchangeError, Errors: messages}
}

// NewExceptionResult builds the Exception variant for a failed strategy.
func NewExceptionResult(pair string, err error) OrderResult {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	return OrderResult{Kind: OrderKindException, Pair: pair, Message: msg}
}

// OK reports whether the strategy reached its intended outcome (an order or a simulation).
func (r OrderResult) OK() bool {
	return r.Kind == OrderKindSuccess || r.Kind == OrderKindDryRun
}

// String returns a single log-friendly line.
func (r OrderResult) String() string {
	switch r.Kind {
	case OrderKindSuccess:
		return fmt.Sprintf("SUCCESS | %s | volume=%s | price=%s | txid=%s",
			r.Pair, r.Volume.String(), r.Price.String(), strings.Join(r.TxIDs, ","))
	case OrderKindExchangeError:
		return fmt.Sprintf("FAILED | %s | volume=%s | price=%s | error=%s",
			r.Pair, r.Volume.String(), r.Price.String(), strings.Join(r.Errors, ", "))
	case OrderKindDryRun:
		return fmt.Sprintf("DRY-RUN | %s | fiat=%s | est_price=%s | volume=%s",
			r.Pair, r.FiatAmount.String(), r.Price.String(), r.Volume.String())
	default:
		return fmt.Sprintf("EXCEPTION | %s | %s", r.Pair, r.Message)
	}
}
