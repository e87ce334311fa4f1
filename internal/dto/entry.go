package dto

import (
	"time"

	"github.com/SscSPs/personal_ledger_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

// EntryKind selects the shape of a simple two-line entry.
type EntryKind string

const (
	EntryExpense  EntryKind = "expense"
	EntryIncome   EntryKind = "income"
	EntryTransfer EntryKind = "transfer"
)

// SimpleEntryRequest is the guided two-line entry form: money moves from a
// source account to a destination account, with an implicit currency
// conversion when the two accounts use different currencies.
type SimpleEntryRequest struct {
	Kind                 EntryKind       `json:"kind" binding:"required,oneof=expense income transfer"`
	Amount               decimal.Decimal `json:"amount" binding:"required,positive_decimal"`
	SourceAccountID      string          `json:"sourceAccountID" binding:"required"`
	DestinationAccountID string          `json:"destinationAccountID" binding:"required"`
	Date                 time.Time       `json:"date" binding:"required"`
	Description          string          `json:"description"`
	Notes                string          `json:"notes"`
}

// EntryPreferences carries the global preferences the simple-entry builder
// needs. It is passed explicitly so the builder stays testable without
// ambient state.
type EntryPreferences struct {
	DefaultCurrencyCode string `json:"defaultCurrencyCode"`
}

// EntryLine is one line of a multi-line entry with an independent exchange rate.
type EntryLine struct {
	AccountID       string                 `json:"accountID" binding:"required"`
	Amount          decimal.Decimal        `json:"amount" binding:"required,positive_decimal"`
	TransactionType domain.TransactionType `json:"transactionType" binding:"required,oneof=DEBIT CREDIT"`
	Notes           string                 `json:"notes"`
	ExchangeRate    *decimal.Decimal       `json:"exchangeRate"`
}

// MultiLineEntryRequest is the power-user entry form: N arbitrary lines,
// pre-validated before the journal pipeline runs.
type MultiLineEntryRequest struct {
	Date         time.Time   `json:"date" binding:"required"`
	Description  string      `json:"description" binding:"required"`
	CurrencyCode string      `json:"currencyCode" binding:"required,len=3"`
	Lines        []EntryLine `json:"lines" binding:"required,min=2,dive"`
}

// EntryResult is the structured outcome returned by the entry builders,
// designed for direct form-submission feedback rather than thrown errors.
type EntryResult struct {
	Success   bool   `json:"success"`
	JournalID string `json:"journalID,omitempty"`
	Error     string `json:"error,omitempty"`
}

// SuccessResult builds a successful EntryResult for a journal.
func SuccessResult(journalID string) EntryResult {
	return EntryResult{Success: true, JournalID: journalID}
}

// FailureResult builds a failed EntryResult carrying a human-readable reason.
func FailureResult(reason string) EntryResult {
	return EntryResult{Success: false, Error: reason}
}
