package mapping

import (
	"github.com/SscSPs/school_ledger/internal/core/domain"
	"github.com/SscSPs/school_ledger/internal/models"
)

// ToModelJournalEntry converts a domain JournalEntry header to a model JournalEntry
func ToModelJournalEntry(d domain.JournalEntry) models.JournalEntry {
	return models.JournalEntry{
		EntryID:         d.ID,
		TransactionDate: domain.DateOnly(d.TransactionDate),
		Description:     d.Description,
		SourceType:      string(d.SourceType),
		SourceID:        d.SourceID,
		PeriodID:        NullString(d.PeriodID),
		ReversalOf:      NullString(d.ReversalOf),
		ReversedBy:      NullString(d.ReversedBy),
		AuditFields:     ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainJournalEntry converts a model JournalEntry and its lines to a domain JournalEntry
func ToDomainJournalEntry(m models.JournalEntry, lines []models.JournalLine) domain.JournalEntry {
	d := domain.JournalEntry{
		ID:              m.EntryID,
		TransactionDate: domain.DateOnly(m.TransactionDate),
		Description:     m.Description,
		SourceType:      domain.SourceType(m.SourceType),
		SourceID:        m.SourceID,
		PeriodID:        m.PeriodID.String,
		ReversalOf:      m.ReversalOf.String,
		ReversedBy:      m.ReversedBy.String,
		AuditFields:     ToDomainAuditFields(m.AuditFields),
		Lines:           make([]domain.JournalLine, len(lines)),
	}
	for i, l := range lines {
		d.Lines[i] = ToDomainJournalLine(l)
	}
	return d
}

// ToModelJournalLine converts a domain JournalLine to a model JournalLine
func ToModelJournalLine(d domain.JournalLine) models.JournalLine {
	return models.JournalLine{
		LineID:       d.ID,
		EntryID:      d.EntryID,
		LineNo:       d.LineNo,
		AccountCode:  d.AccountCode,
		Side:         models.LineSide(d.Side),
		Amount:       d.Amount,
		CurrencyCode: d.CurrencyCode,
		Memo:         d.Memo,
	}
}

// ToDomainJournalLine converts a model JournalLine to a domain JournalLine
func ToDomainJournalLine(m models.JournalLine) domain.JournalLine {
	return domain.JournalLine{
		ID:           m.LineID,
		EntryID:      m.EntryID,
		LineNo:       m.LineNo,
		AccountCode:  m.AccountCode,
		Side:         domain.Side(m.Side),
		Amount:       m.Amount,
		CurrencyCode: m.CurrencyCode,
		Memo:         m.Memo,
	}
}
