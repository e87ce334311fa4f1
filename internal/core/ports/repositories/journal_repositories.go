package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/personal_ledger_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

// RunningBalanceUpdate is a corrected cached balance for a single transaction,
// produced by the rebuild worker.
type RunningBalanceUpdate struct {
	TransactionID  string
	RunningBalance decimal.Decimal
}

// JournalReader defines read operations for journal data.
type JournalReader interface {
	// FindJournalByID retrieves a journal by its identifier. Soft-deleted
	// journals are reported as not found.
	FindJournalByID(ctx context.Context, journalID string) (*domain.Journal, error)

	// ListJournals retrieves a paginated list of journals using token-based
	// pagination, newest first.
	ListJournals(ctx context.Context, limit int, nextToken *string) ([]domain.Journal, *string, error)
}

// JournalWriter defines write operations for journal data.
type JournalWriter interface {
	// SaveJournal persists a journal and its transactions atomically.
	SaveJournal(ctx context.Context, journal domain.Journal, transactions []domain.Transaction) error

	// ReplaceJournalTransactions updates a journal's header and replaces its
	// entire transaction set atomically. Transactions are never merged.
	ReplaceJournalTransactions(ctx context.Context, journal domain.Journal, transactions []domain.Transaction) error

	// SoftDeleteJournal marks a journal and all of its transactions deleted.
	SoftDeleteJournal(ctx context.Context, journalID string, now time.Time) error

	// MarkReversed links an original journal to its reversal and flips the
	// original's status to REVERSED.
	MarkReversed(ctx context.Context, originalJournalID, reversalJournalID string, now time.Time) error
}

// TransactionReader defines read operations for transaction data.
type TransactionReader interface {
	// FindTransactionsByJournalID retrieves all live transactions of a journal
	// in creation order.
	FindTransactionsByJournalID(ctx context.Context, journalID string) ([]domain.Transaction, error)

	// FindLatestTransactionForAccount retrieves the most recent live
	// transaction recorded against an account, or nil when none exists.
	FindLatestTransactionForAccount(ctx context.Context, accountID string) (*domain.Transaction, error)

	// FindLatestTransactionForAccountBefore retrieves the most recent live
	// transaction for an account dated strictly before the given date, or nil.
	FindLatestTransactionForAccountBefore(ctx context.Context, accountID string, before time.Time) (*domain.Transaction, error)

	// ListTransactionsByAccountSince retrieves all live transactions for an
	// account dated at or after the given date, in account-local
	// chronological order (date, then creation time).
	ListTransactionsByAccountSince(ctx context.Context, accountID string, since time.Time) ([]domain.Transaction, error)

	// ListTransactionsByAccountThrough retrieves all live transactions for an
	// account dated at or before the given date, chronologically.
	ListTransactionsByAccountThrough(ctx context.Context, accountID string, through time.Time) ([]domain.Transaction, error)
}

// RunningBalanceWriter persists corrected running balances computed by the
// rebuild worker.
type RunningBalanceWriter interface {
	UpdateRunningBalances(ctx context.Context, updates []RunningBalanceUpdate) error
}

// JournalRepositoryFacade combines all journal-related repository interfaces.
type JournalRepositoryFacade interface {
	JournalReader
	JournalWriter
	TransactionReader
	RunningBalanceWriter
}
