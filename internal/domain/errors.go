package domain

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

var (
	// ErrAuth matches exchange errors caused by a rejected key, signature or nonce.
	ErrAuth = errors.New("exchange rejected credentials")
	// ErrExchangeOffline is returned when the exchange reports a status other than online.
	ErrExchangeOffline = errors.New("exchange is not online")
)

// authErrorPrefixes Kraken error codes that mean the request was not authenticated.
var authErrorPrefixes = []string{
	"EAPI:Invalid key",
	"EAPI:Invalid signature",
	"EAPI:Invalid nonce",
	"EGeneral:Permission denied",
}

// NetworkError transport failure or timeout while talking to the exchange.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: network error: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ExchangeError the exchange answered with a non-empty error list.
type ExchangeError struct {
	Op       string
	Messages []string
}

func (e *ExchangeError) Error() string {
	return fmt.Sprintf("%s: exchange error: %s", e.Op, strings.Join(e.Messages, ", "))
}

// IsAuth reports whether any message is an authentication failure.
func (e *ExchangeError) IsAuth() bool {
	for _, m := range e.Messages {
		for _, p := range authErrorPrefixes {
			if strings.HasPrefix(m, p) {
				return true
			}
		}
	}
	return false
}

// Is makes errors.Is(err, ErrAuth) work for authentication failures.
func (e *ExchangeError) Is(target error) bool {
	return target == ErrAuth && e.IsAuth()
}

// DataError the response had an unexpected shape or unparsable values.
type DataError struct {
	Op     string
	Reason string
	Err    error
}

func (e *DataError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: bad response data: %s: %v", e.Op, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: bad response data: %s", e.Op, e.Reason)
}

func (e *DataError) Unwrap() error { return e.Err }

// InsufficientFundsError the pre-trade check found less fiat than the run needs.
type InsufficientFundsError struct {
	Fiat      string
	Required  decimal.Decimal
	Available decimal.Decimal
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient %s balance: required %s, available %s",
		e.Fiat, e.Required.StringFixed(2), e.Available.StringFixed(2))
}
