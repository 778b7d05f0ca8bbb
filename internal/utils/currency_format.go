package utils

import (
	"strings"

	"github.com/SscSPs/school_ledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// MinDisplayScale is the minimum number of fraction digits monetary strings carry.
const MinDisplayScale = 2

// FormatAmount renders an amount as a decimal string with at least two fraction digits.
// Amounts carrying more digits keep them; nothing is rounded away.
// Example: 500 -> "500.00", 12.3456 -> "12.3456"
func FormatAmount(amount decimal.Decimal) string {
	s := amount.String()
	if i := strings.IndexByte(s, '.'); i >= 0 && len(s)-i-1 > MinDisplayScale {
		return s
	}
	return amount.StringFixed(MinDisplayScale)
}

// FormatWithCurrencyPrecision formats an amount with the correct precision for a given currency
// Example: amount 12.3456 with USD (precision 2) returns "12.35"
// Example: amount 110 with USD (precision 2) returns "110.00"
// Example: amount 12.3456 with JPY (precision 0) returns "12"
func FormatWithCurrencyPrecision(amount decimal.Decimal, currency domain.Currency) string {
	return amount.StringFixed(currency.Precision)
}
