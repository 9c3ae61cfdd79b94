package util

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// MaxAmount 金额上限（不含），与 DECIMAL(14,2) 列一致
var MaxAmount = decimal.New(1, 12)

// ValidAmount 金额必须大于0、最多两位小数且小于 MaxAmount
func ValidAmount(amount decimal.Decimal) bool {
	return amount.IsPositive() &&
		amount.Equal(amount.Truncate(2)) &&
		amount.LessThan(MaxAmount)
}

// ValidatePositiveDecimal 验证金额字段，规则同 ValidAmount
func ValidatePositiveDecimal(fl validator.FieldLevel) bool {
	amount, ok := fl.Field().Interface().(decimal.Decimal)
	if !ok {
		return false
	}
	return ValidAmount(amount)
}

// NewValidator 返回注册了自定义规则的校验器
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	RegisterValidations(v)
	return v
}

// RegisterValidations 注册自定义校验规则，gin 的绑定校验器也复用这里
func RegisterValidations(v *validator.Validate) {
	v.RegisterValidation("positive_decimal", ValidatePositiveDecimal)
}

// RegisterBindingValidations 把自定义规则注册到 gin 的请求绑定校验器
func RegisterBindingValidations() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		RegisterValidations(v)
	}
}
