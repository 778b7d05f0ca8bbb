package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ExchangeRate stores the conversion rate between two currencies from a given date on.
type ExchangeRate struct {
	ExchangeRateID   string          `db:"id"`
	FromCurrencyCode string          `db:"from_currency"`
	ToCurrencyCode   string          `db:"to_currency"`
	Rate             decimal.Decimal `db:"rate"`
	DateEffective    time.Time       `db:"effective_date"`
	AuditFields
}
