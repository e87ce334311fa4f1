package domain

// Currency represents a supported currency.
type Currency struct {
	CurrencyCode string `json:"currencyCode"` // Primary Key (e.g., "USD")
	Symbol       string `json:"symbol"`       // e.g., "$"
	Name         string `json:"name"`         // e.g., "US Dollar"
	Precision    int    `json:"precision"`    // Decimal places for rounding (e.g., 2 for USD, 0 for JPY)
	AuditFields
}

// DefaultCurrencyPrecision is used when a currency has no configured precision.
const DefaultCurrencyPrecision = 2
