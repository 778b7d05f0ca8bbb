package mapping

import (
	"database/sql"

	"github.com/SscSPs/school_ledger/internal/core/domain"
	"github.com/SscSPs/school_ledger/internal/models"
)

// ToModelPeriod converts a domain AccountingPeriod to a model AccountingPeriod
func ToModelPeriod(d domain.AccountingPeriod) models.AccountingPeriod {
	m := models.AccountingPeriod{
		PeriodID:       d.ID,
		Name:           d.Name,
		StartDate:      domain.DateOnly(d.StartDate),
		EndDate:        domain.DateOnly(d.EndDate),
		Status:         string(d.Status),
		ClosedBy:       NullString(d.ClosedBy),
		ClosingEntryID: NullString(d.ClosingEntryID),
		AuditFields:    ToModelAuditFields(d.AuditFields),
	}
	if d.ClosedAt != nil {
		m.ClosedAt = sql.NullTime{Time: *d.ClosedAt, Valid: true}
	}
	return m
}

// ToDomainPeriod converts a model AccountingPeriod to a domain AccountingPeriod
func ToDomainPeriod(m models.AccountingPeriod) domain.AccountingPeriod {
	d := domain.AccountingPeriod{
		ID:             m.PeriodID,
		Name:           m.Name,
		StartDate:      domain.DateOnly(m.StartDate),
		EndDate:        domain.DateOnly(m.EndDate),
		Status:         domain.PeriodStatus(m.Status),
		ClosedBy:       m.ClosedBy.String,
		ClosingEntryID: m.ClosingEntryID.String,
		AuditFields:    ToDomainAuditFields(m.AuditFields),
	}
	if m.ClosedAt.Valid {
		t := m.ClosedAt.Time
		d.ClosedAt = &t
	}
	return d
}
