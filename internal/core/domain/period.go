package domain

import "time"

// PeriodStatus is the lifecycle state of an accounting period.
type PeriodStatus string

const (
	PeriodOpen    PeriodStatus = "OPEN"
	PeriodClosing PeriodStatus = "CLOSING"
	PeriodClosed  PeriodStatus = "CLOSED"
)

// AccountingPeriod is a non-overlapping, inclusive date range that journal entries post into.
type AccountingPeriod struct {
	ID             string       `json:"id"`
	Name           string       `json:"name"`
	StartDate      time.Time    `json:"startDate"`
	EndDate        time.Time    `json:"endDate"`
	Status         PeriodStatus `json:"status"`
	ClosedAt       *time.Time   `json:"closedAt,omitempty"`
	ClosedBy       string       `json:"closedBy,omitempty"`
	ClosingEntryID string       `json:"closingEntryId,omitempty"`
	AuditFields
}

// Covers reports whether date falls inside the period.
func (p AccountingPeriod) Covers(date time.Time) bool {
	return p.Range().Contains(date)
}

// Range returns the period bounds as a DateRange.
func (p AccountingPeriod) Range() DateRange {
	return DateRange{From: p.StartDate, To: p.EndDate}
}

// Overlaps reports whether the two periods share at least one day.
func (p AccountingPeriod) Overlaps(other AccountingPeriod) bool {
	return !DateOnly(p.EndDate).Before(DateOnly(other.StartDate)) &&
		!DateOnly(other.EndDate).Before(DateOnly(p.StartDate))
}

// CanTransition reports whether the period state machine allows from -> to.
func CanTransition(from, to PeriodStatus) bool {
	switch from {
	case PeriodOpen:
		return to == PeriodClosing
	case PeriodClosing:
		return to == PeriodClosed || to == PeriodOpen
	}
	return false
}
