package services

import (
	"context"
	"time"

	"github.com/SscSPs/personal_ledger_app/internal/core/domain"
	"github.com/SscSPs/personal_ledger_app/internal/dto"
	"github.com/shopspring/decimal"
)

// AccountSvcFacade defines account operations.
type AccountSvcFacade interface {
	CreateAccount(ctx context.Context, req dto.CreateAccountRequest) (*domain.Account, error)
	GetAccountByID(ctx context.Context, accountID string) (*domain.Account, error)
	GetAccountsByIDs(ctx context.Context, accountIDs []string) (map[string]domain.Account, error)
	ListAccounts(ctx context.Context) ([]domain.Account, error)
	UpdateAccount(ctx context.Context, accountID string, req dto.UpdateAccountRequest) (*domain.Account, error)
	DeleteAccount(ctx context.Context, accountID string) error
}

// CurrencySvcFacade defines currency lookup operations.
type CurrencySvcFacade interface {
	CreateCurrency(ctx context.Context, req dto.CreateCurrencyRequest) (*domain.Currency, error)
	GetCurrencyByCode(ctx context.Context, currencyCode string) (*domain.Currency, error)
	ListCurrencies(ctx context.Context) ([]domain.Currency, error)

	// PrecisionFor returns the decimal places for a currency, defaulting to
	// domain.DefaultCurrencyPrecision when the currency is unknown.
	PrecisionFor(ctx context.Context, currencyCode string) int
}

// RateSvcFacade resolves conversion rates between currencies.
type RateSvcFacade interface {
	// GetRate resolves the rate from one currency to another, consulting
	// caches before the external provider and falling back to stale data on
	// fetch failure.
	GetRate(ctx context.Context, from, to string) (decimal.Decimal, error)

	// Convert applies the resolved rate to an amount without rounding.
	Convert(ctx context.Context, amount decimal.Decimal, from, to string) (dto.Conversion, error)
}

// BalanceSvcFacade computes derived balances.
type BalanceSvcFacade interface {
	// GetAccountBalance computes a single account's point-in-time balance
	// from its transaction history, without hierarchy rollup.
	GetAccountBalance(ctx context.Context, accountID string, asOf time.Time) (*domain.AccountBalance, error)

	// GetBalanceTree computes balances for every account, rolling child
	// balances up the account forest with currency conversion where a
	// subtree mixes currencies.
	GetBalanceTree(ctx context.Context, asOf time.Time) (map[string]domain.AccountBalance, error)
}

// EntrySvcFacade exposes the two specialized entry builders. Both return a
// structured result instead of a thrown error; they exist for guided form
// flows.
type EntrySvcFacade interface {
	CreateSimpleEntry(ctx context.Context, req dto.SimpleEntryRequest, prefs dto.EntryPreferences) dto.EntryResult
	CreateMultiLineEntry(ctx context.Context, req dto.MultiLineEntryRequest) dto.EntryResult
	UpdateMultiLineEntry(ctx context.Context, journalID string, req dto.MultiLineEntryRequest) dto.EntryResult
}

// AuditSvcFacade is the audit sink and query surface.
type AuditSvcFacade interface {
	// Log records an audit entry. It is fire-and-forget: failures are logged
	// and never propagate to the caller.
	Log(ctx context.Context, entityType, entityID string, action domain.AuditAction, changes any)

	// Find retrieves audit entries for an entity, newest first.
	Find(ctx context.Context, entityType, entityID string) ([]domain.AuditEntry, error)
}

// RebuildSvcFacade is the deferred running-balance rebuild worklist.
type RebuildSvcFacade interface {
	// EnqueueMany registers accounts whose running balances need recomputing
	// from the given date. Repeated enqueues widen to the earliest date.
	EnqueueMany(accountIDs []string, from time.Time)

	// Flush drains the queue, recomputing and persisting running balances.
	Flush(ctx context.Context) error

	// Len reports the number of accounts currently pending.
	Len() int

	// Signal returns a channel that receives after an enqueue, so a worker
	// loop can flush promptly instead of waiting out its tick interval.
	Signal() <-chan struct{}
}

// ServiceContainer bundles all service facades for handler wiring.
type ServiceContainer struct {
	Account      AccountSvcFacade
	Currency     CurrencySvcFacade
	ExchangeRate RateSvcFacade
	Balance      BalanceSvcFacade
	Journal      JournalSvcFacade
	Entry        EntrySvcFacade
	Audit        AuditSvcFacade
	Rebuild      RebuildSvcFacade
}
