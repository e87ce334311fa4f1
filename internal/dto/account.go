package dto

import (
	"time"

	"github.com/SscSPs/personal_ledger_app/internal/core/domain"
)

// CreateAccountRequest is the input for creating an account.
type CreateAccountRequest struct {
	Name            string  `json:"name" binding:"required"`
	AccountType     string  `json:"accountType" binding:"required,oneof=ASSET LIABILITY EQUITY INCOME EXPENSE"`
	CurrencyCode    string  `json:"currencyCode" binding:"required,len=3"`
	ParentAccountID *string `json:"parentAccountID"`
	OrderNum        int     `json:"orderNum"`
	Icon            string  `json:"icon"`
}

// UpdateAccountRequest carries optional field updates for an account.
// AccountType is deliberately absent: it is immutable once transactions
// exist, and changing it on an empty account goes through delete/recreate.
type UpdateAccountRequest struct {
	Name            *string `json:"name"`
	ParentAccountID *string `json:"parentAccountID"`
	OrderNum        *int    `json:"orderNum"`
	Icon            *string `json:"icon"`
}

// AccountResponse defines the data returned for an account.
type AccountResponse struct {
	AccountID       string    `json:"accountID"`
	Name            string    `json:"name"`
	AccountType     string    `json:"accountType"`
	CurrencyCode    string    `json:"currencyCode"`
	ParentAccountID string    `json:"parentAccountID,omitempty"`
	OrderNum        int       `json:"orderNum"`
	Icon            string    `json:"icon,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
}

// ToAccountResponse converts a domain.Account to its response DTO.
func ToAccountResponse(a *domain.Account) AccountResponse {
	return AccountResponse{
		AccountID:       a.AccountID,
		Name:            a.Name,
		AccountType:     string(a.AccountType),
		CurrencyCode:    a.CurrencyCode,
		ParentAccountID: a.ParentAccountID,
		OrderNum:        a.OrderNum,
		Icon:            a.Icon,
		CreatedAt:       a.CreatedAt,
	}
}

// ToAccountResponses converts a slice of domain accounts.
func ToAccountResponses(accounts []domain.Account) []AccountResponse {
	responses := make([]AccountResponse, len(accounts))
	for i := range accounts {
		responses[i] = ToAccountResponse(&accounts[i])
	}
	return responses
}
