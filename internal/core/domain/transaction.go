package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType indicates whether a transaction line is a Debit or a Credit.
type TransactionType string

const (
	Debit  TransactionType = "DEBIT"
	Credit TransactionType = "CREDIT"
)

// Transaction represents a single line item within a Journal, affecting one account.
// Transactions are owned wholesale by their journal: they are created, replaced
// and soft-deleted only through journal-level operations.
type Transaction struct {
	TransactionID   string          `json:"transactionID"`   // Primary Key (UUID)
	JournalID       string          `json:"journalID"`       // FK -> Journal.journalID (Not Null)
	AccountID       string          `json:"accountID"`       // FK -> Account.accountID (Not Null)
	Amount          decimal.Decimal `json:"amount"`          // Non-negative, in the account's own currency
	TransactionType TransactionType `json:"transactionType"` // DEBIT or CREDIT (Not Null)
	CurrencyCode    string          `json:"currencyCode"`    // Account currency at write time (Not Null)
	ExchangeRate    decimal.Decimal `json:"exchangeRate"`    // Rate from this currency to the journal currency; 1 when equal
	RunningBalance  decimal.Decimal `json:"runningBalance"`  // Cached account balance immediately after this transaction
	Notes           string          `json:"notes"`           // Nullable
	TransactionDate time.Time       `json:"transactionDate"` // Equals the owning journal's JournalDate
	DeletedAt       *time.Time      `json:"deletedAt"`
	AuditFields
}

// EffectiveRate returns the exchange rate to apply, defaulting to 1 when unset.
func (t *Transaction) EffectiveRate() decimal.Decimal {
	if t.ExchangeRate.IsZero() {
		return decimal.NewFromInt(1)
	}
	return t.ExchangeRate
}

// AmountInJournalCurrency converts the line amount into journal-currency units.
func (t *Transaction) AmountInJournalCurrency() decimal.Decimal {
	return t.Amount.Mul(t.EffectiveRate())
}
