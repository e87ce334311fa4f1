package providers

import (
	"context"

	"github.com/shopspring/decimal"
)

// RateProvider fetches a full conversion-rate table for a base currency from
// an external source. Implementations live outside the core.
type RateProvider interface {
	// FetchRates returns the rates from base into every target currency the
	// provider knows. Non-2xx responses and non-JSON payloads are hard
	// failures for the call.
	FetchRates(ctx context.Context, base string) (map[string]decimal.Decimal, error)
}
