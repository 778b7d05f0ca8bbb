package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Side indicates whether a journal line is a Debit or a Credit.
type Side string

const (
	Debit  Side = "DEBIT"
	Credit Side = "CREDIT"
)

// Opposite returns the other side.
func (s Side) Opposite() Side {
	if s == Debit {
		return Credit
	}
	return Debit
}

// Valid reports whether s is DEBIT or CREDIT.
func (s Side) Valid() bool {
	return s == Debit || s == Credit
}

// SourceType names the collaborator that produced an entry.
type SourceType string

const (
	SourceFeePayment    SourceType = "fee_payment"
	SourceExpense       SourceType = "expense"
	SourceAssetPurchase SourceType = "asset_purchase"
	SourcePayroll       SourceType = "payroll"
	SourceManual        SourceType = "manual"
	SourceAdjustment    SourceType = "adjustment"
	SourceReversal      SourceType = "reversal"
	SourcePeriodClose   SourceType = "period_close"
)

// JournalEntry is an atomic, balanced set of lines recording one business event.
// It is immutable once posted, apart from ReversedBy which is set at most once.
type JournalEntry struct {
	ID              string        `json:"id"`
	TransactionDate time.Time     `json:"transactionDate"`
	Description     string        `json:"description"`
	SourceType      SourceType    `json:"sourceType"`
	SourceID        string        `json:"sourceId"`
	PeriodID        string        `json:"periodId"`
	ReversalOf      string        `json:"reversalOf,omitempty"`
	ReversedBy      string        `json:"reversedBy,omitempty"`
	Lines           []JournalLine `json:"lines"`
	AuditFields
}

// IsReversed reports whether a reversal has been posted for the entry.
func (e JournalEntry) IsReversed() bool { return e.ReversedBy != "" }

// AccountCodes returns the distinct account codes touched by the entry, in line order.
func (e JournalEntry) AccountCodes() []string {
	seen := make(map[string]struct{}, len(e.Lines))
	codes := make([]string, 0, len(e.Lines))
	for _, l := range e.Lines {
		if _, ok := seen[l.AccountCode]; ok {
			continue
		}
		seen[l.AccountCode] = struct{}{}
		codes = append(codes, l.AccountCode)
	}
	return codes
}

// JournalLine is a single debit or credit owned by a JournalEntry.
type JournalLine struct {
	ID           string          `json:"id"`
	EntryID      string          `json:"entryId"`
	LineNo       int             `json:"lineNo"`
	AccountCode  string          `json:"accountCode"`
	Side         Side            `json:"side"`
	Amount       decimal.Decimal `json:"amount"` // Always positive
	CurrencyCode string          `json:"currencyCode"`
	Memo         string          `json:"memo"`
}

// PostedLine is a journal line joined with the header fields the read side needs.
type PostedLine struct {
	JournalLine
	TransactionDate time.Time  `json:"transactionDate"`
	SourceType      SourceType `json:"sourceType"`
	SourceID        string     `json:"sourceId"`
	Description     string     `json:"description"`
	CreatedAt       time.Time  `json:"createdAt"`
}

// JournalFilter narrows journal listings. Zero values mean "no constraint".
type JournalFilter struct {
	From        *time.Time
	To          *time.Time
	SourceType  SourceType
	SourceID    string
	AccountCode string
	PeriodID    string
}

// Matches reports whether an entry passes the header-level constraints of the filter.
// AccountCode is checked against the entry's lines.
func (f JournalFilter) Matches(e JournalEntry) bool {
	d := DateOnly(e.TransactionDate)
	if f.From != nil && d.Before(DateOnly(*f.From)) {
		return false
	}
	if f.To != nil && d.After(DateOnly(*f.To)) {
		return false
	}
	if f.SourceType != "" && e.SourceType != f.SourceType {
		return false
	}
	if f.SourceID != "" && e.SourceID != f.SourceID {
		return false
	}
	if f.PeriodID != "" && e.PeriodID != f.PeriodID {
		return false
	}
	if f.AccountCode != "" {
		for _, l := range e.Lines {
			if l.AccountCode == f.AccountCode {
				return true
			}
		}
		return false
	}
	return true
}

// LineFilter selects posted lines for folds and movement queries.
// A nil From means "since the beginning"; To is always inclusive.
type LineFilter struct {
	AccountCodes       []string
	Currency           string
	From               *time.Time
	To                 time.Time
	ExcludeSourceTypes []SourceType
}

// Matches reports whether the posted line passes the filter.
func (f LineFilter) Matches(l PostedLine) bool {
	if len(f.AccountCodes) > 0 {
		found := false
		for _, c := range f.AccountCodes {
			if c == l.AccountCode {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.Currency != "" && l.CurrencyCode != f.Currency {
		return false
	}
	d := DateOnly(l.TransactionDate)
	if f.From != nil && d.Before(DateOnly(*f.From)) {
		return false
	}
	if d.After(DateOnly(f.To)) {
		return false
	}
	for _, st := range f.ExcludeSourceTypes {
		if l.SourceType == st {
			return false
		}
	}
	return true
}

// JournalPage is one page of a journal listing.
type JournalPage struct {
	Entries   []JournalEntry
	NextToken *string
}
