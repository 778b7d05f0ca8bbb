package dto

import (
	"time"

	"github.com/SscSPs/school_ledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// JournalLineRequest is one debit or credit of a posting request.
// Amount accepts a JSON string or number and is parsed exactly.
type JournalLineRequest struct {
	AccountCode  string          `json:"accountCode" binding:"required"`
	Side         domain.Side     `json:"side" binding:"required,oneof=DEBIT CREDIT"`
	Amount       decimal.Decimal `json:"amount"`
	CurrencyCode string          `json:"currencyCode" binding:"required,len=3,uppercase"`
	Memo         string          `json:"memo"`
}

// PostEntryRequest is what source collaborators send to record a business event.
type PostEntryRequest struct {
	TransactionDate Date                 `json:"transactionDate"`
	Description     string               `json:"description" binding:"required"`
	SourceType      domain.SourceType    `json:"sourceType" binding:"required"`
	SourceID        string               `json:"sourceId"`
	Lines           []JournalLineRequest `json:"lines" binding:"required,dive"`
}

// ReverseEntryRequest asks for a mirror entry dated into an open period.
type ReverseEntryRequest struct {
	ReversalDate Date   `json:"reversalDate"`
	Description  string `json:"description"` // Optional
}

// ListJournalParams are the query parameters of the journal listing.
type ListJournalParams struct {
	From        string `form:"from"`
	To          string `form:"to"`
	SourceType  string `form:"sourceType"`
	SourceID    string `form:"sourceId"`
	AccountCode string `form:"accountCode"`
	PeriodID    string `form:"periodId"`
	Limit       int    `form:"limit" binding:"omitempty,min=1,max=100"`
	NextToken   string `form:"nextToken"`
}

// JournalLineResponse defines the data returned for a journal line.
type JournalLineResponse struct {
	LineID       string `json:"lineID"`
	LineNo       int    `json:"lineNo"`
	AccountCode  string `json:"accountCode"`
	Side         string `json:"side"`
	Amount       string `json:"amount"`
	CurrencyCode string `json:"currencyCode"`
	Memo         string `json:"memo,omitempty"`
}

// JournalEntryResponse defines the data returned for a journal entry.
type JournalEntryResponse struct {
	EntryID         string                `json:"entryID"`
	TransactionDate Date                  `json:"transactionDate"`
	Description     string                `json:"description"`
	SourceType      string                `json:"sourceType"`
	SourceID        string                `json:"sourceId,omitempty"`
	PeriodID        string                `json:"periodId"`
	ReversalOf      string                `json:"reversalOf,omitempty"`
	ReversedBy      string                `json:"reversedBy,omitempty"`
	Lines           []JournalLineResponse `json:"lines"`
	CreatedAt       time.Time             `json:"createdAt"`
	CreatedBy       string                `json:"createdBy"`
}

// ListJournalResponse is one page of journal entries.
type ListJournalResponse struct {
	Entries   []JournalEntryResponse `json:"entries"`
	NextToken *string                `json:"nextToken,omitempty"`
}

// ToJournalLineResponse converts a domain.JournalLine to its DTO.
func ToJournalLineResponse(l domain.JournalLine) JournalLineResponse {
	return JournalLineResponse{
		LineID:       l.ID,
		LineNo:       l.LineNo,
		AccountCode:  l.AccountCode,
		Side:         string(l.Side),
		Amount:       Amount(l.Amount),
		CurrencyCode: l.CurrencyCode,
		Memo:         l.Memo,
	}
}

// ToJournalEntryResponse converts a domain.JournalEntry to JournalEntryResponse DTO.
func ToJournalEntryResponse(e *domain.JournalEntry) JournalEntryResponse {
	lines := make([]JournalLineResponse, len(e.Lines))
	for i, l := range e.Lines {
		lines[i] = ToJournalLineResponse(l)
	}
	return JournalEntryResponse{
		EntryID:         e.ID,
		TransactionDate: NewDate(e.TransactionDate),
		Description:     e.Description,
		SourceType:      string(e.SourceType),
		SourceID:        e.SourceID,
		PeriodID:        e.PeriodID,
		ReversalOf:      e.ReversalOf,
		ReversedBy:      e.ReversedBy,
		Lines:           lines,
		CreatedAt:       e.CreatedAt,
		CreatedBy:       e.CreatedBy,
	}
}

// ToListJournalResponse converts a page of entries.
func ToListJournalResponse(page *domain.JournalPage) ListJournalResponse {
	entries := make([]JournalEntryResponse, len(page.Entries))
	for i := range page.Entries {
		entries[i] = ToJournalEntryResponse(&page.Entries[i])
	}
	return ListJournalResponse{Entries: entries, NextToken: page.NextToken}
}
