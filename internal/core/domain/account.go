package domain

import "time"

// AccountType defines the fundamental accounting type of an account.
type AccountType string

const (
	Asset     AccountType = "ASSET"
	Liability AccountType = "LIABILITY"
	Equity    AccountType = "EQUITY"
	Income    AccountType = "INCOME"
	Expense   AccountType = "EXPENSE"
)

// Account represents a financial account within the ledger.
// Accounts form a forest via ParentAccountID; a child must share its
// parent's AccountType.
type Account struct {
	AccountID       string      `json:"accountID"`       // Primary Key (UUID)
	Name            string      `json:"name"`            // User-defined name
	AccountType     AccountType `json:"accountType"`     // ASSET, LIABILITY, etc.
	CurrencyCode    string      `json:"currencyCode"`    // FK -> currencies.code (Not Null)
	ParentAccountID string      `json:"parentAccountID"` // Nullable FK -> accounts.account_id (self-referencing)
	OrderNum        int         `json:"orderNum"`        // Sibling sort key
	Icon            string      `json:"icon"`            // Nullable display icon name
	DeletedAt       *time.Time  `json:"deletedAt"`       // Soft-delete marker
	AuditFields
}

// IsDeleted reports whether the account has been soft-deleted.
func (a *Account) IsDeleted() bool {
	return a.DeletedAt != nil
}
