package domain_test

import (
	"testing"
	"time"

	"github.com/SscSPs/school_ledger/internal/core/domain"
	"github.com/stretchr/testify/assert"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestAccountingPeriod_Covers(t *testing.T) {
	p := domain.AccountingPeriod{StartDate: date(2024, 1, 1), EndDate: date(2024, 1, 31)}

	assert.True(t, p.Covers(date(2024, 1, 1)))
	assert.True(t, p.Covers(time.Date(2024, 1, 31, 23, 59, 0, 0, time.UTC)))
	assert.False(t, p.Covers(date(2024, 2, 1)))
	assert.False(t, p.Covers(date(2023, 12, 31)))
}

func TestAccountingPeriod_Overlaps(t *testing.T) {
	jan := domain.AccountingPeriod{StartDate: date(2024, 1, 1), EndDate: date(2024, 1, 31)}
	feb := domain.AccountingPeriod{StartDate: date(2024, 2, 1), EndDate: date(2024, 2, 29)}
	straddle := domain.AccountingPeriod{StartDate: date(2024, 1, 31), EndDate: date(2024, 2, 1)}

	assert.False(t, jan.Overlaps(feb))
	assert.True(t, jan.Overlaps(straddle))
	assert.True(t, feb.Overlaps(straddle))
}

func TestCanTransition(t *testing.T) {
	assert.True(t, domain.CanTransition(domain.PeriodOpen, domain.PeriodClosing))
	assert.True(t, domain.CanTransition(domain.PeriodClosing, domain.PeriodClosed))
	assert.True(t, domain.CanTransition(domain.PeriodClosing, domain.PeriodOpen))
	assert.False(t, domain.CanTransition(domain.PeriodOpen, domain.PeriodClosed))
	assert.False(t, domain.CanTransition(domain.PeriodClosed, domain.PeriodOpen))
}

func TestJournalFilter_Matches(t *testing.T) {
	from := date(2024, 1, 10)
	entry := domain.JournalEntry{
		TransactionDate: date(2024, 1, 15),
		SourceType:      domain.SourceFeePayment,
		Lines:           []domain.JournalLine{{AccountCode: "1000"}, {AccountCode: "4000"}},
	}

	assert.True(t, domain.JournalFilter{From: &from, AccountCode: "4000"}.Matches(entry))
	assert.False(t, domain.JournalFilter{AccountCode: "5000"}.Matches(entry))
	assert.False(t, domain.JournalFilter{SourceType: domain.SourcePayroll}.Matches(entry))
}
