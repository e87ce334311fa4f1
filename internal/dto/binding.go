package dto

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// RegisterValidations installs custom binding validators used by the DTO
// tags in this package. Call once at startup before routes are served.
func RegisterValidations() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	_ = v.RegisterValidation("positive_decimal", positiveDecimal)
}

// positiveDecimal accepts only strictly positive decimal.Decimal fields.
// Amounts are validated again in the service layer; this catches bad input
// at the binding boundary with a clearer error.
func positiveDecimal(fl validator.FieldLevel) bool {
	d, ok := fl.Field().Interface().(decimal.Decimal)
	return ok && d.IsPositive()
}
