package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ChildBalance is a per-currency subtotal contributed by a subtree, kept
// pre-conversion so mixed-currency accounts can be surfaced without losing
// the original figures.
type ChildBalance struct {
	CurrencyCode     string          `json:"currencyCode"`
	Balance          decimal.Decimal `json:"balance"`
	TransactionCount int             `json:"transactionCount"`
}

// AccountBalance is the derived point-in-time balance of an account. It is
// never persisted; it is recomputed on demand from transaction history and
// the account hierarchy.
type AccountBalance struct {
	AccountID        string          `json:"accountID"`
	Balance          decimal.Decimal `json:"balance"`
	CurrencyCode     string          `json:"currencyCode"`
	TransactionCount int             `json:"transactionCount"`
	MonthlyIncome    decimal.Decimal `json:"monthlyIncome"`
	MonthlyExpenses  decimal.Decimal `json:"monthlyExpenses"`
	AsOfDate         time.Time       `json:"asOfDate"`
	ChildBalances    []ChildBalance  `json:"childBalances,omitempty"`
}
