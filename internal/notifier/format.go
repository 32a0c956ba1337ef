package notifier

import (
	"strings"

	"github.com/shopspring/decimal"
)

const maxExceptionLen = 1000

var fiatSymbols = map[string]string{
	"EUR": "€",
	"USD": "$",
	"GBP": "£",
	"JPY": "¥",
}

// money formats an amount with the fiat symbol, or the ISO code when no symbol is known.
func money(fiat string, amount decimal.Decimal, places int32) string {
	if sym, ok := fiatSymbols[strings.ToUpper(fiat)]; ok {
		return sym + amount.StringFixed(places)
	}
	return amount.StringFixed(places) + " " + fiat
}

func volume(v decimal.Decimal) string {
	return v.StringFixed(8)
}

func txids(ids []string) string {
	if len(ids) == 0 {
		return "N/A"
	}
	return strings.Join(ids, ", ")
}

func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
