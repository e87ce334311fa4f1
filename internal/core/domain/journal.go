package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// JournalStatus indicates the state of a journal entry.
type JournalStatus string

const (
	Active   JournalStatus = "ACTIVE"
	Reversed JournalStatus = "REVERSED"
)

// JournalDisplayType is the stored presentation classification of a journal.
// It is computed once at write time so historical display stays consistent
// even if the classification rules evolve.
type JournalDisplayType string

const (
	DisplayIncome   JournalDisplayType = "INCOME"
	DisplayExpense  JournalDisplayType = "EXPENSE"
	DisplayTransfer JournalDisplayType = "TRANSFER"
	DisplayJournal  JournalDisplayType = "JOURNAL"
)

// Journal represents a single, balanced financial event composed of multiple transactions.
type Journal struct {
	JournalID           string             `json:"journalID"`    // Primary Key (UUID)
	JournalDate         time.Time          `json:"journalDate"`  // Date the event occurred (distinct from CreatedAt)
	Description         string             `json:"description"`  // Nullable user description
	CurrencyCode        string             `json:"currencyCode"` // Reporting currency of the journal (Not Null)
	Status              JournalStatus      `json:"status"`       // Default: Active
	TotalAmount         decimal.Decimal    `json:"totalAmount"`  // Derived: max(|sum debits|, |sum credits|) in journal currency
	TransactionCount    int                `json:"transactionCount"`
	DisplayType         JournalDisplayType `json:"displayType"`
	ReversalOfJournalID *string            `json:"reversalOfJournalID"` // Set on a reversal journal
	ReversedByJournalID *string            `json:"reversedByJournalID"` // Set on the original once reversed
	DeletedAt           *time.Time         `json:"deletedAt"`
	AuditFields
	Transactions []Transaction `json:"transactions,omitempty"` // Loaded on demand
}

// IsReversal reports whether this journal was created to reverse another.
func (j *Journal) IsReversal() bool {
	return j.ReversalOfJournalID != nil
}

// IsDeleted reports whether the journal has been soft-deleted.
func (j *Journal) IsDeleted() bool {
	return j.DeletedAt != nil
}
