package models

import (
	"database/sql"
	"time"
)

// AccountingPeriod is a row of accounting_periods.
type AccountingPeriod struct {
	PeriodID       string         `db:"id"`
	Name           string         `db:"name"`
	StartDate      time.Time      `db:"start_date"`
	EndDate        time.Time      `db:"end_date"`
	Status         string         `db:"status"`
	ClosedAt       sql.NullTime   `db:"closed_at"`
	ClosedBy       sql.NullString `db:"closed_by"`
	ClosingEntryID sql.NullString `db:"closing_entry_id"`
	AuditFields
}
