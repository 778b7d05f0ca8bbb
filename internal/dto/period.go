package dto

import (
	"time"

	"github.com/SscSPs/school_ledger/internal/core/domain"
)

// CreatePeriodRequest defines an accounting period. Both bounds are inclusive.
type CreatePeriodRequest struct {
	Name      string `json:"name" binding:"required,max=64"`
	StartDate Date   `json:"startDate"`
	EndDate   Date   `json:"endDate"`
}

// PeriodResponse defines the data returned for an accounting period.
type PeriodResponse struct {
	PeriodID       string     `json:"periodID"`
	Name           string     `json:"name"`
	StartDate      Date       `json:"startDate"`
	EndDate        Date       `json:"endDate"`
	Status         string     `json:"status"`
	ClosedAt       *time.Time `json:"closedAt,omitempty"`
	ClosedBy       string     `json:"closedBy,omitempty"`
	ClosingEntryID string     `json:"closingEntryID,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	CreatedBy      string     `json:"createdBy"`
}

// ClosePeriodResponse is returned by a completed close.
type ClosePeriodResponse struct {
	Period       PeriodResponse        `json:"period"`
	ClosingEntry *JournalEntryResponse `json:"closingEntry,omitempty"`
}

// ToPeriodResponse converts a domain.AccountingPeriod to PeriodResponse DTO.
func ToPeriodResponse(p *domain.AccountingPeriod) PeriodResponse {
	return PeriodResponse{
		PeriodID:       p.ID,
		Name:           p.Name,
		StartDate:      NewDate(p.StartDate),
		EndDate:        NewDate(p.EndDate),
		Status:         string(p.Status),
		ClosedAt:       p.ClosedAt,
		ClosedBy:       p.ClosedBy,
		ClosingEntryID: p.ClosingEntryID,
		CreatedAt:      p.CreatedAt,
		CreatedBy:      p.CreatedBy,
	}
}

// ToListPeriodResponse converts a slice of periods.
func ToListPeriodResponse(periods []domain.AccountingPeriod) []PeriodResponse {
	out := make([]PeriodResponse, len(periods))
	for i := range periods {
		out[i] = ToPeriodResponse(&periods[i])
	}
	return out
}

// ToClosePeriodResponse converts the outcome of a completed close.
func ToClosePeriodResponse(p *domain.AccountingPeriod, closing *domain.JournalEntry) ClosePeriodResponse {
	resp := ClosePeriodResponse{Period: ToPeriodResponse(p)}
	if closing != nil {
		entry := ToJournalEntryResponse(closing)
		resp.ClosingEntry = &entry
	}
	return resp
}
