package dto

import "github.com/shopspring/decimal"

// Conversion is the result of converting an amount between currencies.
// ConvertedAmount is not rounded; precision is the caller's concern.
type Conversion struct {
	Rate            decimal.Decimal `json:"rate"`
	ConvertedAmount decimal.Decimal `json:"convertedAmount"`
}

// ConvertQuery binds the query parameters of the conversion endpoint.
type ConvertQuery struct {
	Amount decimal.Decimal `form:"amount" binding:"required"`
	From   string          `form:"from" binding:"required,len=3"`
	To     string          `form:"to" binding:"required,len=3"`
}
