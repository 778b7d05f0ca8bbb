package accounting

import (
	"fmt"
	"sort"
	"time"

	"github.com/SscSPs/school_ledger/internal/apperrors"
	"github.com/SscSPs/school_ledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// MaxAmountScale is the number of fraction digits a posted amount may carry.
// It matches the NUMERIC(20,4) column the lines are stored in.
const MaxAmountScale = 4

// CalculateSignedAmount applies the correct sign to a line amount based on account type and side.
//
//	DEBIT to ASSET/EXPENSE -> Positive (+)
//	CREDIT to ASSET/EXPENSE -> Negative (-)
//	DEBIT to LIABILITY/EQUITY/REVENUE -> Negative (-)
//	CREDIT to LIABILITY/EQUITY/REVENUE -> Positive (+)
func CalculateSignedAmount(line domain.JournalLine, accountType domain.AccountType) (decimal.Decimal, error) {
	switch accountType {
	case domain.Asset, domain.Expense, domain.Liability, domain.Equity, domain.Revenue:
	default:
		return decimal.Zero, fmt.Errorf("unknown account type '%s' encountered for account %s", accountType, line.AccountCode)
	}

	signedAmount := line.Amount
	if isDebit := line.Side == domain.Debit; isDebit != domain.IsDebitNormal(accountType) {
		signedAmount = signedAmount.Neg()
	}
	return signedAmount, nil
}

// NetAmount signs the debit and credit totals of an account of type t and adds them.
func NetAmount(t domain.AccountType, debit, credit decimal.Decimal) (decimal.Decimal, error) {
	debitSigned, err := CalculateSignedAmount(domain.JournalLine{Side: domain.Debit, Amount: debit}, t)
	if err != nil {
		return decimal.Zero, err
	}
	creditSigned, err := CalculateSignedAmount(domain.JournalLine{Side: domain.Credit, Amount: credit}, t)
	if err != nil {
		return decimal.Zero, err
	}
	return debitSigned.Add(creditSigned), nil
}

// NewAccountBalance builds a balance whose NetBalance is signed by the account type.
func NewAccountBalance(code string, t domain.AccountType, asOf time.Time, currency string, debit, credit decimal.Decimal) (domain.AccountBalance, error) {
	net, err := NetAmount(t, debit, credit)
	if err != nil {
		return domain.AccountBalance{}, fmt.Errorf("failed to sign balance of %s: %w", code, err)
	}
	return domain.AccountBalance{
		AccountCode: code,
		AccountType: t,
		AsOf:        domain.DateOnly(asOf),
		Currency:    currency,
		DebitTotal:  debit,
		CreditTotal: credit,
		NetBalance:  net,
	}, nil
}

// ValidateAmount checks a line amount is positive and representable.
func ValidateAmount(accountCode string, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return &apperrors.InvalidAmountError{AccountCode: accountCode, Amount: amount.String(), Reason: "amount must be positive"}
	}
	if -amount.Exponent() > MaxAmountScale && !amount.Equal(amount.Truncate(MaxAmountScale)) {
		return &apperrors.InvalidAmountError{
			AccountCode: accountCode,
			Amount:      amount.String(),
			Reason:      fmt.Sprintf("at most %d fraction digits allowed", MaxAmountScale),
		}
	}
	return nil
}

// CurrencyTotals groups lines by currency and sums each side.
func CurrencyTotals(lines []domain.JournalLine) map[string]domain.Totals {
	totals := make(map[string]domain.Totals)
	for _, l := range lines {
		t := totals[l.CurrencyCode]
		t.Add(l.Side, l.Amount)
		totals[l.CurrencyCode] = t
	}
	return totals
}

// ValidateEntryBalance checks that every currency group self-balances exactly.
// The first failing currency, in code order, is reported.
func ValidateEntryBalance(lines []domain.JournalLine) error {
	totals := CurrencyTotals(lines)
	currencies := make([]string, 0, len(totals))
	for c := range totals {
		currencies = append(currencies, c)
	}
	sort.Strings(currencies)

	for _, c := range currencies {
		t := totals[c]
		if !t.Debit.Equal(t.Credit) {
			return &apperrors.UnbalancedEntryError{Currency: c, DebitTotal: t.Debit, CreditTotal: t.Credit}
		}
	}
	return nil
}

// MirrorLines returns copies of lines with sides swapped, ids cleared and line numbers kept.
func MirrorLines(lines []domain.JournalLine) []domain.JournalLine {
	out := make([]domain.JournalLine, len(lines))
	for i, l := range lines {
		out[i] = domain.JournalLine{
			LineNo:       l.LineNo,
			AccountCode:  l.AccountCode,
			Side:         l.Side.Opposite(),
			Amount:       l.Amount,
			CurrencyCode: l.CurrencyCode,
			Memo:         l.Memo,
		}
	}
	return out
}
