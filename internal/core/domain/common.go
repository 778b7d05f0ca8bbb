package domain

import "time"

// AuditFields holds standard audit information for domain entities.
type AuditFields struct {
	CreatedAt     time.Time `json:"createdAt"`
	CreatedBy     string    `json:"createdBy"` // UserID Reference
	LastUpdatedAt time.Time `json:"lastUpdatedAt"`
	LastUpdatedBy string    `json:"lastUpdatedBy"` // UserID Reference
}

// DateLayout is the calendar date layout used for transaction dates, period bounds and query params.
const DateLayout = "2006-01-02"

// DateOnly truncates t to its calendar date in UTC. Ledger dates carry no time of day.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DateRange is an inclusive range of calendar dates.
type DateRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// Contains reports whether date falls inside the range, bounds included.
func (r DateRange) Contains(date time.Time) bool {
	d := DateOnly(date)
	return !d.Before(DateOnly(r.From)) && !d.After(DateOnly(r.To))
}

// MaxDate is the far-future as-of date used for "all history" balance queries.
var MaxDate = time.Date(9999, time.December, 31, 0, 0, 0, 0, time.UTC)
