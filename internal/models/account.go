package models

import "database/sql"

// AccountType defines the fundamental accounting type of an account.
type AccountType string

const (
	Asset     AccountType = "ASSET"
	Liability AccountType = "LIABILITY"
	Equity    AccountType = "EQUITY"
	Revenue   AccountType = "REVENUE"
	Expense   AccountType = "EXPENSE"
)

// Account is a row of the accounts table.
// ParentCode and CurrencyCode are NULL for root and multi-currency accounts.
type Account struct {
	Code         string         `db:"code"`
	Name         string         `db:"name"`
	AccountType  AccountType    `db:"account_type"`
	ParentCode   sql.NullString `db:"parent_code"`
	CurrencyCode sql.NullString `db:"currency_code"`
	Description  string         `db:"description"`
	IsActive     bool           `db:"is_active"`
	AuditFields
}
