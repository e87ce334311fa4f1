package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ExchangeRate stores the conversion rate between two currencies fetched at a
// specific time. Newer fetches supersede older rows; rows are never updated
// in place.
type ExchangeRate struct {
	ExchangeRateID   string          `json:"exchangeRateID"`   // Primary Key (UUID)
	FromCurrencyCode string          `json:"fromCurrencyCode"` // FK -> Currency.currencyCode
	ToCurrencyCode   string          `json:"toCurrencyCode"`   // FK -> Currency.currencyCode
	Rate             decimal.Decimal `json:"rate"`
	DateEffective    time.Time       `json:"dateEffective"`
	AuditFields
}

// IsFreshAt reports whether the rate is within the freshness window at the given instant.
func (r *ExchangeRate) IsFreshAt(now time.Time, window time.Duration) bool {
	return now.Sub(r.DateEffective) < window
}
