package services

import (
	"context"

	"github.com/SscSPs/personal_ledger_app/internal/core/domain"
	"github.com/SscSPs/personal_ledger_app/internal/dto"
)

// JournalReaderSvc defines read operations for journal data.
type JournalReaderSvc interface {
	// GetJournalByID retrieves a journal with its transactions populated.
	GetJournalByID(ctx context.Context, journalID string) (*domain.Journal, error)

	// ListJournals retrieves a paginated list of journals.
	ListJournals(ctx context.Context, params dto.ListJournalsParams) (*dto.ListJournalsResponse, error)
}

// JournalWriterSvc defines the mutating journal operations. All of them
// validate before persisting; there is no path that writes an unbalanced
// journal.
type JournalWriterSvc interface {
	// CreateJournal validates, rounds, balances and persists a new journal.
	CreateJournal(ctx context.Context, req dto.CreateJournalRequest) (*domain.Journal, error)

	// UpdateJournal replaces a journal's transaction set wholesale after
	// running the same pipeline as CreateJournal.
	UpdateJournal(ctx context.Context, journalID string, req dto.UpdateJournalRequest) (*domain.Journal, error)

	// DeleteJournal soft-deletes a journal and its transactions. Deleting a
	// missing or already-deleted journal is a silent no-op.
	DeleteJournal(ctx context.Context, journalID string) error

	// DuplicateJournal re-creates a copy of a journal dated now, running the
	// full validation pipeline again.
	DuplicateJournal(ctx context.Context, journalID string) (*domain.Journal, error)

	// ReverseJournal creates the mirror-image journal of an active journal
	// and links the two. The original's amounts are never mutated.
	ReverseJournal(ctx context.Context, journalID string, reason string) (*domain.Journal, error)
}

// JournalSvcFacade combines all journal-related service interfaces.
type JournalSvcFacade interface {
	JournalReaderSvc
	JournalWriterSvc
}
