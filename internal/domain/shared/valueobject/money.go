package valueobject

import "github.com/shopspring/decimal"

// DefaultExponent is the minor-unit exponent used for settlement rounding
// when a store does not configure one. IDR is priced in whole rupiah.
const DefaultExponent int32 = 0

// Round rounds an amount to the given minor-unit exponent using
// half-away-from-zero. All settlement math in the system rounds with this
// single function so that allocation and tax figures reconcile exactly.
func Round(amount decimal.Decimal, exponent int32) decimal.Decimal {
	return amount.Round(exponent)
}
