package dto

import (
	"time"

	"github.com/SscSPs/personal_ledger_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreateTransactionRequest is a single proposed debit/credit line.
type CreateTransactionRequest struct {
	AccountID       string                 `json:"accountID" binding:"required"`
	Amount          decimal.Decimal        `json:"amount" binding:"required,positive_decimal"`
	TransactionType domain.TransactionType `json:"transactionType" binding:"required,oneof=DEBIT CREDIT"`
	Notes           string                 `json:"notes"`
	ExchangeRate    *decimal.Decimal       `json:"exchangeRate"` // Rate into journal currency; nil means 1
}

// CreateJournalRequest is the input for creating a journal with its lines.
type CreateJournalRequest struct {
	Date         time.Time                  `json:"date" binding:"required"`
	Description  string                     `json:"description"`
	CurrencyCode string                     `json:"currencyCode" binding:"required,len=3"`
	Transactions []CreateTransactionRequest `json:"transactions" binding:"required,min=2,dive"`
}

// UpdateJournalRequest replaces a journal's header fields and its entire
// transaction set. Lines are never merged with the existing set.
type UpdateJournalRequest struct {
	Date         time.Time                  `json:"date" binding:"required"`
	Description  string                     `json:"description"`
	CurrencyCode string                     `json:"currencyCode" binding:"required,len=3"`
	Transactions []CreateTransactionRequest `json:"transactions" binding:"required,min=2,dive"`
}

// ReverseJournalRequest carries the reason recorded on the reversal lines.
type ReverseJournalRequest struct {
	Reason string `json:"reason"`
}

// TransactionResponse defines the data returned for a transaction line.
type TransactionResponse struct {
	TransactionID   string          `json:"transactionID"`
	JournalID       string          `json:"journalID"`
	AccountID       string          `json:"accountID"`
	Amount          decimal.Decimal `json:"amount"`
	TransactionType string          `json:"transactionType"`
	CurrencyCode    string          `json:"currencyCode"`
	ExchangeRate    decimal.Decimal `json:"exchangeRate"`
	RunningBalance  decimal.Decimal `json:"runningBalance"`
	Notes           string          `json:"notes"`
	TransactionDate time.Time       `json:"transactionDate"`
}

// JournalResponse defines the data returned for a journal entry.
type JournalResponse struct {
	JournalID           string                `json:"journalID"`
	JournalDate         time.Time             `json:"journalDate"`
	Description         string                `json:"description"`
	CurrencyCode        string                `json:"currencyCode"`
	Status              string                `json:"status"`
	TotalAmount         decimal.Decimal       `json:"totalAmount"`
	TransactionCount    int                   `json:"transactionCount"`
	DisplayType         string                `json:"displayType"`
	ReversalOfJournalID *string               `json:"reversalOfJournalID,omitempty"`
	ReversedByJournalID *string               `json:"reversedByJournalID,omitempty"`
	CreatedAt           time.Time             `json:"createdAt"`
	Transactions        []TransactionResponse `json:"transactions,omitempty"`
}

// ListJournalsParams holds pagination parameters for listing journals.
type ListJournalsParams struct {
	Limit     int
	NextToken *string
}

// ListJournalsResponse is a page of journals plus the next-page token.
type ListJournalsResponse struct {
	Journals  []JournalResponse `json:"journals"`
	NextToken *string           `json:"nextToken,omitempty"`
}

// ToTransactionResponse converts a domain.Transaction to its response DTO.
func ToTransactionResponse(txn *domain.Transaction) TransactionResponse {
	return TransactionResponse{
		TransactionID:   txn.TransactionID,
		JournalID:       txn.JournalID,
		AccountID:       txn.AccountID,
		Amount:          txn.Amount,
		TransactionType: string(txn.TransactionType),
		CurrencyCode:    txn.CurrencyCode,
		ExchangeRate:    txn.EffectiveRate(),
		RunningBalance:  txn.RunningBalance,
		Notes:           txn.Notes,
		TransactionDate: txn.TransactionDate,
	}
}

// ToTransactionResponses converts a slice of domain transactions.
func ToTransactionResponses(txns []domain.Transaction) []TransactionResponse {
	responses := make([]TransactionResponse, len(txns))
	for i := range txns {
		responses[i] = ToTransactionResponse(&txns[i])
	}
	return responses
}

// ToJournalResponse converts a domain.Journal to its response DTO.
func ToJournalResponse(j *domain.Journal) JournalResponse {
	resp := JournalResponse{
		JournalID:           j.JournalID,
		JournalDate:         j.JournalDate,
		Description:         j.Description,
		CurrencyCode:        j.CurrencyCode,
		Status:              string(j.Status),
		TotalAmount:         j.TotalAmount,
		TransactionCount:    j.TransactionCount,
		DisplayType:         string(j.DisplayType),
		ReversalOfJournalID: j.ReversalOfJournalID,
		ReversedByJournalID: j.ReversedByJournalID,
		CreatedAt:           j.CreatedAt,
	}
	if len(j.Transactions) > 0 {
		resp.Transactions = ToTransactionResponses(j.Transactions)
	}
	return resp
}
