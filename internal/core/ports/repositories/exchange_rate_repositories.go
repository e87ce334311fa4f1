package repositories

import (
	"context"

	"github.com/SscSPs/personal_ledger_app/internal/core/domain"
)

// ExchangeRateReader defines read operations for the persistent rate cache.
type ExchangeRateReader interface {
	// FindLatestRate retrieves the most recently fetched rate for a currency
	// pair, regardless of freshness. Staleness is the caller's concern.
	FindLatestRate(ctx context.Context, fromCurrencyCode, toCurrencyCode string) (*domain.ExchangeRate, error)
}

// ExchangeRateWriter defines write operations for the persistent rate cache.
type ExchangeRateWriter interface {
	// SaveExchangeRates persists a batch of freshly fetched rates. Existing
	// rows are superseded, never overwritten in place.
	SaveExchangeRates(ctx context.Context, rates []domain.ExchangeRate) error
}

// ExchangeRateRepositoryFacade combines the rate cache interfaces.
type ExchangeRateRepositoryFacade interface {
	ExchangeRateReader
	ExchangeRateWriter
}
