package domain

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// AccountBalance is a derived balance of one account in one currency as of a date.
type AccountBalance struct {
	AccountCode string          `json:"accountCode"`
	AccountType AccountType     `json:"accountType"`
	AsOf        time.Time       `json:"asOf"`
	Currency    string          `json:"currency"`
	DebitTotal  decimal.Decimal `json:"debitTotal"`
	CreditTotal decimal.Decimal `json:"creditTotal"`
	NetBalance  decimal.Decimal `json:"netBalance"`
}

// Totals accumulates debit and credit sums.
type Totals struct {
	Debit  decimal.Decimal
	Credit decimal.Decimal
}

// Add folds one line amount into the totals.
func (t *Totals) Add(side Side, amount decimal.Decimal) {
	if side == Debit {
		t.Debit = t.Debit.Add(amount)
	} else {
		t.Credit = t.Credit.Add(amount)
	}
}

// Net returns Debit - Credit.
func (t Totals) Net() decimal.Decimal { return t.Debit.Sub(t.Credit) }

// ConvertedBalance is an account balance translated into a reporting currency.
type ConvertedBalance struct {
	AccountBalance
	OriginalCurrency string          `json:"originalCurrency"`
	OriginalNet      decimal.Decimal `json:"originalNet"`
	Rate             decimal.Decimal `json:"rate"`
	Converted        bool            `json:"converted"`
}

// AccountBalances lists an account's balances, one per currency held.
type AccountBalances struct {
	Account  Account            `json:"account"`
	Balances []ConvertedBalance `json:"balances"`
}

// Position identifies an account balance in one currency.
type Position struct {
	AccountCode string
	Currency    string
}

// Positions accumulates per account/currency totals while folding lines.
type Positions map[Position]Totals

// Add folds a line into the positions.
func (p Positions) Add(l JournalLine) {
	key := Position{AccountCode: l.AccountCode, Currency: l.CurrencyCode}
	t := p[key]
	t.Add(l.Side, l.Amount)
	p[key] = t
}

// SortedKeys returns positions ordered by account code then currency.
func (p Positions) SortedKeys() []Position {
	keys := make([]Position, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].AccountCode != keys[j].AccountCode {
			return keys[i].AccountCode < keys[j].AccountCode
		}
		return keys[i].Currency < keys[j].Currency
	})
	return keys
}
