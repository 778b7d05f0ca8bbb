package models

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

// JournalEntry is a row of journal_entries. Lines live in journal_lines.
type JournalEntry struct {
	EntryID         string         `db:"id"`
	TransactionDate time.Time      `db:"transaction_date"`
	Description     string         `db:"description"`
	SourceType      string         `db:"source_type"`
	SourceID        string         `db:"source_id"`
	PeriodID        sql.NullString `db:"period_id"`
	ReversalOf      sql.NullString `db:"reversal_of"`
	ReversedBy      sql.NullString `db:"reversed_by"`
	AuditFields
}

// LineSide indicates whether a line is a Debit or a Credit.
type LineSide string

const (
	Debit  LineSide = "DEBIT"
	Credit LineSide = "CREDIT"
)

// JournalLine is a single debit or credit belonging to an entry.
// Amount is always positive; the side carries the sign.
type JournalLine struct {
	LineID       string          `db:"id"`
	EntryID      string          `db:"entry_id"`
	LineNo       int             `db:"line_no"`
	AccountCode  string          `db:"account_code"`
	Side         LineSide        `db:"side"`
	Amount       decimal.Decimal `db:"amount"`
	CurrencyCode string          `db:"currency_code"`
	Memo         string          `db:"memo"`
}
