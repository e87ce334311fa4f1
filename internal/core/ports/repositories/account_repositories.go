package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/personal_ledger_app/internal/core/domain"
)

// AccountReader defines read operations for account data.
type AccountReader interface {
	// FindAccountByID retrieves a specific account by its unique identifier.
	FindAccountByID(ctx context.Context, accountID string) (*domain.Account, error)

	// FindAccountsByIDs retrieves multiple accounts by their IDs.
	FindAccountsByIDs(ctx context.Context, accountIDs []string) (map[string]domain.Account, error)

	// ListAccounts retrieves every live account ordered by parent, then
	// OrderNum. The full set is small for a personal ledger.
	ListAccounts(ctx context.Context) ([]domain.Account, error)

	// HasTransactions reports whether any live transaction references the account.
	HasTransactions(ctx context.Context, accountID string) (bool, error)
}

// AccountWriter defines write operations for account data.
type AccountWriter interface {
	// SaveAccount persists a new account.
	SaveAccount(ctx context.Context, account domain.Account) error

	// UpdateAccount updates an existing account's details.
	UpdateAccount(ctx context.Context, account domain.Account) error

	// SoftDeleteAccount marks an account deleted.
	SoftDeleteAccount(ctx context.Context, accountID string, now time.Time) error
}

// AccountRepositoryFacade combines all account-related repository interfaces.
type AccountRepositoryFacade interface {
	AccountReader
	AccountWriter
}
