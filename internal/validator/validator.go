// Package validator provides custom validation functions for Gin's binding engine.
package validator

import (
	"reflect"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/projeto-sistema-financas-pessoais/financas-pessoais-backand/internal/money"
)

// Register registers all custom validators with the Gin binding engine.
func Register() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		RegisterOn(v)
	}
}

// RegisterOn registers the custom validators on v.
func RegisterOn(v *validator.Validate) {
	v.RegisterCustomTypeFunc(decimalValue, decimal.Decimal{})
	_ = v.RegisterValidation("money", validateMoney)
	_ = v.RegisterValidation("cents", validateCents)
	_ = v.RegisterValidation("transaction_kind", oneOf("expense", "income"))
	_ = v.RegisterValidation("payment_method", oneOf("debit", "credit", "cash"))
	_ = v.RegisterValidation("payment_plan", oneOf("single", "installment", "recurring"))
	_ = v.RegisterValidation("recurrence", oneOf("none", "weekly", "biweekly", "monthly", "annual"))
	_ = v.RegisterValidation("account_kind", oneOf("checking", "savings", "wallet", "investment", "other"))
	_ = v.RegisterValidation("category_kind", oneOf("fixed", "variable"))
	_ = v.RegisterValidation("update_scope", oneOf("this", "following"))
}

// decimalValue lets tags on decimal.Decimal fields see the amount as a
// string.
func decimalValue(field reflect.Value) interface{} {
	if d, ok := field.Interface().(decimal.Decimal); ok {
		return d.String()
	}
	return nil
}

func parseField(fl validator.FieldLevel) (decimal.Decimal, bool) {
	d, err := decimal.NewFromString(fl.Field().String())
	return d, err == nil
}

// validateMoney accepts positive amounts with at most two decimal places.
func validateMoney(fl validator.FieldLevel) bool {
	d, ok := parseField(fl)
	return ok && money.IsValidAmount(d)
}

// validateCents accepts any amount with at most two decimal places.
func validateCents(fl validator.FieldLevel) bool {
	d, ok := parseField(fl)
	return ok && money.HasValidPrecision(d)
}

func oneOf(values ...string) validator.Func {
	allowed := make(map[string]bool, len(values))
	for _, v := range values {
		allowed[v] = true
	}
	return func(fl validator.FieldLevel) bool {
		return allowed[fl.Field().String()]
	}
}
