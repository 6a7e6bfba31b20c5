package utils

import (
	"github.com/shopspring/decimal"
)

// MoneyPlaces is the fixed precision for stored monetary amounts.
// Rounding policy: round half away from zero to 2 decimal places
// (decimal.Round semantics). E.g. a raw tax of 1.8075 stores as 1.81.
const MoneyPlaces = 2

var decimalOneHundred = decimal.NewFromInt(100)

func RoundMoney(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(MoneyPlaces)
}

// CalculateLineTotal derives an item line total from quantity and unit rate.
func CalculateLineTotal(quantity int, unitPrice decimal.Decimal) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt(int64(quantity)))
}

// CalculateTaxAmount computes subtotal * taxRate / 100 rounded to money precision.
// taxRate is a percentage in [0, 100].
func CalculateTaxAmount(subtotal decimal.Decimal, taxRate decimal.Decimal) decimal.Decimal {
	return RoundMoney(subtotal.Mul(taxRate).Div(decimalOneHundred))
}

// CalculateDiscountAmount resolves a discount against a subtotal.
// discountType "P" treats discount as a percentage, anything else as a flat amount.
func CalculateDiscountAmount(subtotal decimal.Decimal, discount decimal.Decimal, discountType string) decimal.Decimal {
	if !discount.GreaterThan(decimal.Zero) {
		return decimal.Zero
	}
	if discountType == "P" {
		return RoundMoney(subtotal.Mul(discount).Div(decimalOneHundred))
	}
	return discount
}
