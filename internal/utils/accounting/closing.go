package accounting

import (
	"sort"

	"github.com/SscSPs/school_ledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// NetIncomeByCurrency computes revenue (credit-normal) minus expense (debit-normal) per currency.
// Accounts of other types are ignored.
func NetIncomeByCurrency(p domain.Positions, types map[string]domain.AccountType) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal)
	for key, t := range p {
		switch types[key.AccountCode] {
		case domain.Revenue:
			out[key.Currency] = out[key.Currency].Add(t.Credit.Sub(t.Debit))
		case domain.Expense:
			out[key.Currency] = out[key.Currency].Sub(t.Debit.Sub(t.Credit))
		}
	}
	return out
}

// BuildClosingLines returns the lines that zero every nominal position into the
// retained earnings account, one retained earnings line per currency that needs one.
// Positions already at zero produce no lines.
func BuildClosingLines(p domain.Positions, types map[string]domain.AccountType, retainedEarnings string) []domain.JournalLine {
	lines := make([]domain.JournalLine, 0, len(p)+1)
	offsets := make(map[string]domain.Totals)

	for _, key := range p.SortedKeys() {
		if !domain.IsNominal(types[key.AccountCode]) {
			continue
		}
		net := p[key].Net()
		if net.IsZero() {
			continue
		}
		side := domain.Credit
		if net.IsNegative() {
			side = domain.Debit
		}
		amount := net.Abs()
		lines = append(lines, domain.JournalLine{
			AccountCode:  key.AccountCode,
			Side:         side,
			Amount:       amount,
			CurrencyCode: key.Currency,
			Memo:         "period close",
		})
		o := offsets[key.Currency]
		o.Add(side, amount)
		offsets[key.Currency] = o
	}

	currencies := make([]string, 0, len(offsets))
	for c := range offsets {
		currencies = append(currencies, c)
	}
	sort.Strings(currencies)

	for _, c := range currencies {
		diff := offsets[c].Net()
		if diff.IsZero() {
			continue
		}
		side := domain.Credit
		if diff.IsNegative() {
			side = domain.Debit
		}
		lines = append(lines, domain.JournalLine{
			AccountCode:  retainedEarnings,
			Side:         side,
			Amount:       diff.Abs(),
			CurrencyCode: c,
			Memo:         "net income to retained earnings",
		})
	}

	for i := range lines {
		lines[i].LineNo = i + 1
	}
	return lines
}

// RetainedEarningsMovement returns the credit-minus-debit movement on the retained
// earnings account per currency for the given lines.
func RetainedEarningsMovement(lines []domain.JournalLine, retainedEarnings string) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal)
	for _, l := range lines {
		if l.AccountCode != retainedEarnings {
			continue
		}
		if l.Side == domain.Credit {
			out[l.CurrencyCode] = out[l.CurrencyCode].Add(l.Amount)
		} else {
			out[l.CurrencyCode] = out[l.CurrencyCode].Sub(l.Amount)
		}
	}
	return out
}
