package services

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SscSPs/school_ledger/internal/apperrors"
	"github.com/SscSPs/school_ledger/internal/core/domain"
)

func closingFixture() (domain.Positions, map[string]domain.AccountType) {
	positions := make(domain.Positions)
	positions.Add(domain.JournalLine{AccountCode: "4000", Side: domain.Credit, Amount: decimal.NewFromInt(500), CurrencyCode: "USD"})
	positions.Add(domain.JournalLine{AccountCode: "5000", Side: domain.Debit, Amount: decimal.NewFromInt(200), CurrencyCode: "USD"})
	types := map[string]domain.AccountType{"3000": domain.Equity, "4000": domain.Revenue, "5000": domain.Expense}
	return positions, types
}

func closingLine(code string, side domain.Side, amount int64) domain.JournalLine {
	return domain.JournalLine{AccountCode: code, Side: side, Amount: decimal.NewFromInt(amount), CurrencyCode: "USD"}
}

func TestVerifyClosingLines(t *testing.T) {
	positions, types := closingFixture()

	tests := []struct {
		name    string
		lines   []domain.JournalLine
		wantErr bool
	}{
		{
			name: "balanced and carrying net income",
			lines: []domain.JournalLine{
				closingLine("4000", domain.Debit, 500),
				closingLine("5000", domain.Credit, 200),
				closingLine("3000", domain.Credit, 300),
			},
		},
		{
			name: "debits and credits differ",
			lines: []domain.JournalLine{
				closingLine("4000", domain.Debit, 500),
				closingLine("5000", domain.Credit, 200),
				closingLine("3000", domain.Credit, 250),
			},
			wantErr: true,
		},
		{
			name: "balanced but retained earnings moves the wrong amount",
			lines: []domain.JournalLine{
				closingLine("4000", domain.Debit, 500),
				closingLine("5000", domain.Credit, 100),
				closingLine("3000", domain.Credit, 400),
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := verifyClosingLines("p-jan", tt.lines, positions, types, "3000")
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			var unbalanced *apperrors.UnbalancedPeriodError
			require.True(t, errors.As(err, &unbalanced))
			assert.Equal(t, "p-jan", unbalanced.PeriodID)
			assert.Equal(t, "USD", unbalanced.Currency)
			assert.True(t, unbalanced.NetIncome.Equal(decimal.NewFromInt(300)))
			assert.ErrorIs(t, err, apperrors.ErrIntegrity)
		})
	}
}

func TestVerifyClosingLines_CurrencyWithoutLines(t *testing.T) {
	positions, types := closingFixture()
	positions.Add(domain.JournalLine{AccountCode: "4000", Side: domain.Credit, Amount: decimal.NewFromInt(80), CurrencyCode: "EUR"})

	lines := []domain.JournalLine{
		closingLine("4000", domain.Debit, 500),
		closingLine("5000", domain.Credit, 200),
		closingLine("3000", domain.Credit, 300),
	}
	err := verifyClosingLines("p-jan", lines, positions, types, "3000")

	var unbalanced *apperrors.UnbalancedPeriodError
	require.True(t, errors.As(err, &unbalanced))
	assert.Equal(t, "EUR", unbalanced.Currency)
	assert.True(t, unbalanced.NetIncome.Equal(decimal.NewFromInt(80)))
}
