package models

// Currency represents a supported currency.
type Currency struct {
	CurrencyCode string `db:"code"`      // Primary Key (e.g., "USD")
	Symbol       string `db:"symbol"`    // e.g., "$"
	Name         string `db:"name"`      // e.g., "US Dollar"
	Precision    int32  `db:"precision"` // Display fraction digits
	IsActive     bool   `db:"is_active"`
	AuditFields
}
