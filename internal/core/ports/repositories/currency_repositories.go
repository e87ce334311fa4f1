package repositories

import (
	"context"

	"github.com/SscSPs/personal_ledger_app/internal/core/domain"
)

// CurrencyReader defines read operations for currency data.
type CurrencyReader interface {
	// FindCurrencyByCode retrieves a currency by its ISO-4217-like code.
	FindCurrencyByCode(ctx context.Context, currencyCode string) (*domain.Currency, error)

	// ListCurrencies retrieves all supported currencies.
	ListCurrencies(ctx context.Context) ([]domain.Currency, error)
}

// CurrencyWriter defines write operations for currency data.
type CurrencyWriter interface {
	// SaveCurrency persists a new currency.
	SaveCurrency(ctx context.Context, currency domain.Currency) error
}

// CurrencyRepositoryFacade combines all currency-related repository interfaces.
type CurrencyRepositoryFacade interface {
	CurrencyReader
	CurrencyWriter
}
