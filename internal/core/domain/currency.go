package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Currency represents a supported currency in the domain.
type Currency struct {
	Code      string `json:"code"`      // Primary Key (e.g., "USD")
	Symbol    string `json:"symbol"`    // e.g., "$"
	Name      string `json:"name"`      // e.g., "US Dollar"
	Precision int32  `json:"precision"` // Display fraction digits
	IsActive  bool   `json:"isActive"`
	AuditFields
}

// ExchangeRate is one point of the time series for a currency pair.
// For a given pair, effective dates never decrease.
type ExchangeRate struct {
	ID            string          `json:"id"`
	FromCurrency  string          `json:"fromCurrency"`
	ToCurrency    string          `json:"toCurrency"`
	Rate          decimal.Decimal `json:"rate"` // 1 FromCurrency = Rate ToCurrency
	EffectiveDate time.Time       `json:"effectiveDate"`
	AuditFields
}

// Convert applies the rate to an amount denominated in FromCurrency.
func (r ExchangeRate) Convert(amount decimal.Decimal) decimal.Decimal {
	return amount.Mul(r.Rate)
}
