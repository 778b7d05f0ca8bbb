package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// StatementLine is one externally supplied bank statement line.
// Amount is signed from the bank account's point of view: deposits are positive.
type StatementLine struct {
	Reference   string          `json:"reference"`
	Date        time.Time       `json:"date"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
}

// ReconciliationRequest carries the statement and matching options.
type ReconciliationRequest struct {
	Lines          []StatementLine
	From           *time.Time
	To             *time.Time
	ToleranceDays  *int
	ClosingBalance *decimal.Decimal
	Currency       string
}

// LedgerItem is a bank-account journal line with its signed amount.
type LedgerItem struct {
	EntryID     string          `json:"entryId"`
	LineID      string          `json:"lineId"`
	Date        time.Time       `json:"date"`
	Amount      decimal.Decimal `json:"amount"` // Debit positive
	Currency    string          `json:"currency"`
	Description string          `json:"description"`
	SourceType  SourceType      `json:"sourceType"`
}

// ReconciliationMatch pairs a statement line with a ledger line.
type ReconciliationMatch struct {
	Statement StatementLine `json:"statement"`
	Ledger    LedgerItem    `json:"ledger"`
	DaysApart int           `json:"daysApart"`
}

// ReconciliationResult is the outcome of a reconcile run. The ledger is never mutated.
type ReconciliationResult struct {
	AccountCode        string                `json:"accountCode"`
	Currency           string                `json:"currency"`
	Range              DateRange             `json:"range"`
	ToleranceDays      int                   `json:"toleranceDays"`
	Matched            []ReconciliationMatch `json:"matched"`
	UnmatchedLedger    []LedgerItem          `json:"unmatchedLedger"`
	UnmatchedStatement []StatementLine       `json:"unmatchedStatement"`
	LedgerBalance      decimal.Decimal       `json:"ledgerBalance"`
	ClosingBalance     *decimal.Decimal      `json:"closingBalance,omitempty"`
	Difference         *decimal.Decimal      `json:"difference,omitempty"`
}

// IsReconciled reports whether everything matched and the closing balance, if given, agrees.
func (r ReconciliationResult) IsReconciled() bool {
	if len(r.UnmatchedLedger) > 0 || len(r.UnmatchedStatement) > 0 {
		return false
	}
	return r.Difference == nil || r.Difference.IsZero()
}
