package ordering

import (
	"github.com/pos/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// AllocateDiscount distributes an order-level discount across line
// subtotals in proportion to each line's pre-discount subtotal. Every line
// except the last gets round(discount * subtotal / totalBeforeDiscount);
// the last line receives whatever is left, so the allocated sum always
// equals the header discount exactly. The last line absorbing the rounding
// residue is a fixed policy the tests pin down.
func AllocateDiscount(discount decimal.Decimal, subtotals []decimal.Decimal, exponent int32) []decimal.Decimal {
	allocated := make([]decimal.Decimal, len(subtotals))
	for i := range allocated {
		allocated[i] = decimal.Zero
	}
	if len(subtotals) == 0 || discount.IsZero() {
		return allocated
	}

	totalBefore := decimal.Zero
	for _, s := range subtotals {
		totalBefore = totalBefore.Add(s)
	}
	if totalBefore.IsZero() {
		// nothing to weight by; the last line takes the full discount
		allocated[len(allocated)-1] = discount
		return allocated
	}

	remaining := discount
	for i, s := range subtotals {
		if i == len(subtotals)-1 {
			allocated[i] = remaining
			break
		}
		share := valueobject.Round(discount.Mul(s).Div(totalBefore), exponent)
		allocated[i] = share
		remaining = remaining.Sub(share)
	}
	return allocated
}

// SettleLine computes priceBeforeTax and tax for one line from its gross
// subtotal (unitPrice * quantity), its allocated discount and the product's
// tax rate.
//
// Tax-inclusive: priceBeforeTax = round((gross - discount) / (1 + rate)),
// tax is the remainder so the pair sums exactly to the discounted gross.
// Tax-exclusive: priceBeforeTax = gross - discount, tax = round(pbt * rate).
//
// Rounding is half-away-from-zero at the store's minor-unit exponent.
func SettleLine(gross, discount, rate decimal.Decimal, priceIncludesTax bool, exponent int32) (priceBeforeTax, tax decimal.Decimal) {
	afterDiscount := gross.Sub(discount)
	if priceIncludesTax {
		divisor := decimal.NewFromInt(1).Add(rate)
		priceBeforeTax = valueobject.Round(afterDiscount.Div(divisor), exponent)
		tax = afterDiscount.Sub(priceBeforeTax)
		return priceBeforeTax, tax
	}
	priceBeforeTax = afterDiscount
	tax = valueobject.Round(priceBeforeTax.Mul(rate), exponent)
	return priceBeforeTax, tax
}

// SettledLine is the outcome of settling one order line.
type SettledLine struct {
	Discount       decimal.Decimal
	PriceBeforeTax decimal.Decimal
	Tax            decimal.Decimal
	Total          decimal.Decimal
}

// SettlementResult aggregates a full settlement pass over an order.
type SettlementResult struct {
	Lines    []SettledLine
	Subtotal decimal.Decimal
	Tax      decimal.Decimal
	Discount decimal.Decimal
	Total    decimal.Decimal
}

// Settle runs the full settlement algorithm over the given gross subtotals
// and tax rates: proportional discount allocation followed by per-line tax
// computation, then aggregation. subtotals and rates must be parallel
// slices.
func Settle(discount decimal.Decimal, subtotals, rates []decimal.Decimal, priceIncludesTax bool, exponent int32) SettlementResult {
	res := SettlementResult{
		Lines:    make([]SettledLine, len(subtotals)),
		Subtotal: decimal.Zero,
		Tax:      decimal.Zero,
		Discount: discount,
	}
	allocated := AllocateDiscount(discount, subtotals, exponent)
	for i := range subtotals {
		pbt, tax := SettleLine(subtotals[i], allocated[i], rates[i], priceIncludesTax, exponent)
		res.Lines[i] = SettledLine{
			Discount:       allocated[i],
			PriceBeforeTax: pbt,
			Tax:            tax,
			Total:          pbt.Add(tax),
		}
		res.Subtotal = res.Subtotal.Add(pbt)
		res.Tax = res.Tax.Add(tax)
	}
	res.Total = valueobject.Round(res.Subtotal.Add(res.Tax), exponent)
	return res
}
