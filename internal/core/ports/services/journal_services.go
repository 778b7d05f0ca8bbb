package services

import (
	"context"

	"github.com/SscSPs/school_ledger/internal/core/domain"
	"github.com/SscSPs/school_ledger/internal/dto"
)

// JournalReaderSvc defines read operations for journal entries
type JournalReaderSvc interface {
	GetEntry(ctx context.Context, entryID string) (*domain.JournalEntry, error)
	ListEntries(ctx context.Context, filter domain.JournalFilter, limit int, nextToken *string) (*domain.JournalPage, error)
}

// JournalWriterSvc defines the posting operations. They are the only writers of ledger facts.
type JournalWriterSvc interface {
	// Post validates and durably records a balanced entry.
	Post(ctx context.Context, req dto.PostEntryRequest, userID string) (*domain.JournalEntry, error)

	// Reverse posts the mirror of an entry into the open period covering the reversal date.
	Reverse(ctx context.Context, entryID string, req dto.ReverseEntryRequest, userID string) (*domain.JournalEntry, error)
}

// JournalSvcFacade combines all journal-related service interfaces
type JournalSvcFacade interface {
	JournalReaderSvc
	JournalWriterSvc
}
