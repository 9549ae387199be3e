package ordering

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func TestAllocateDiscount_ProportionalWithLastLineRemainder(t *testing.T) {
	// 50 across 100 and 300: the first line gets round(50*100/400) = 13,
	// the last absorbs 37 so the sum is exactly 50.
	allocated := AllocateDiscount(d("50"), []decimal.Decimal{d("100"), d("300")}, 0)

	require.Len(t, allocated, 2)
	assert.True(t, allocated[0].Equal(d("13")), "got %s", allocated[0])
	assert.True(t, allocated[1].Equal(d("37")), "got %s", allocated[1])
}

func TestAllocateDiscount_SumAlwaysEqualsDiscount(t *testing.T) {
	cases := [][]string{
		{"100", "300"},
		{"33", "33", "33"},
		{"1", "1", "1", "1", "1", "1", "1"},
		{"19.99", "5.01", "74.50"},
	}
	for _, subs := range cases {
		subtotals := make([]decimal.Decimal, len(subs))
		for i, s := range subs {
			subtotals[i] = d(s)
		}
		discount := d("50")
		allocated := AllocateDiscount(discount, subtotals, 0)

		sum := decimal.Zero
		for _, a := range allocated {
			sum = sum.Add(a)
		}
		assert.True(t, sum.Equal(discount), "subtotals %v: allocated sum %s", subs, sum)
	}
}

func TestAllocateDiscount_ZeroDiscount(t *testing.T) {
	allocated := AllocateDiscount(decimal.Zero, []decimal.Decimal{d("100"), d("300")}, 0)
	for _, a := range allocated {
		assert.True(t, a.IsZero())
	}
}

func TestAllocateDiscount_ZeroTotalGoesToLastLine(t *testing.T) {
	allocated := AllocateDiscount(d("10"), []decimal.Decimal{decimal.Zero, decimal.Zero}, 0)
	assert.True(t, allocated[0].IsZero())
	assert.True(t, allocated[1].Equal(d("10")))
}

func TestSettleLine_TaxExclusive(t *testing.T) {
	// gross 100, discount 13, 10% exclusive: pbt 87, tax round(8.7) = 9
	pbt, tax := SettleLine(d("100"), d("13"), d("0.1"), false, 0)
	assert.True(t, pbt.Equal(d("87")), "got %s", pbt)
	assert.True(t, tax.Equal(d("9")), "got %s", tax)
}

func TestSettleLine_TaxInclusive(t *testing.T) {
	// gross 110 includes 10% tax: pbt round(110/1.1) = 100, tax is the
	// remainder so pbt+tax reconstructs the discounted gross exactly.
	pbt, tax := SettleLine(d("110"), decimal.Zero, d("0.1"), true, 0)
	assert.True(t, pbt.Equal(d("100")), "got %s", pbt)
	assert.True(t, tax.Equal(d("10")), "got %s", tax)
	assert.True(t, pbt.Add(tax).Equal(d("110")))
}

func TestSettleLine_InclusiveRemainderReconciles(t *testing.T) {
	pbt, tax := SettleLine(d("99"), d("4"), d("0.11"), true, 0)
	assert.True(t, pbt.Add(tax).Equal(d("95")), "pbt %s + tax %s", pbt, tax)
}

func TestSettle_WorkedExample(t *testing.T) {
	// Two lines 100 and 300, order discount 50, 10% exclusive tax, whole
	// rupiah rounding. This pins down the full settlement pipeline:
	//   discounts 13 / 37, pbt 87 / 263, tax 9 / 26
	//   subtotal 350, tax 35, total 385
	result := Settle(
		d("50"),
		[]decimal.Decimal{d("100"), d("300")},
		[]decimal.Decimal{d("0.1"), d("0.1")},
		false, 0,
	)

	require.Len(t, result.Lines, 2)
	assert.True(t, result.Lines[0].Discount.Equal(d("13")))
	assert.True(t, result.Lines[0].PriceBeforeTax.Equal(d("87")))
	assert.True(t, result.Lines[0].Tax.Equal(d("9")))
	assert.True(t, result.Lines[0].Total.Equal(d("96")))

	assert.True(t, result.Lines[1].Discount.Equal(d("37")))
	assert.True(t, result.Lines[1].PriceBeforeTax.Equal(d("263")))
	assert.True(t, result.Lines[1].Tax.Equal(d("26")))
	assert.True(t, result.Lines[1].Total.Equal(d("289")))

	assert.True(t, result.Subtotal.Equal(d("350")), "subtotal %s", result.Subtotal)
	assert.True(t, result.Tax.Equal(d("35")), "tax %s", result.Tax)
	assert.True(t, result.Discount.Equal(d("50")))
	assert.True(t, result.Total.Equal(d("385")), "total %s", result.Total)
}

func TestSettle_Idempotent(t *testing.T) {
	subtotals := []decimal.Decimal{d("100"), d("300")}
	rates := []decimal.Decimal{d("0.1"), d("0.1")}

	first := Settle(d("50"), subtotals, rates, false, 0)
	second := Settle(d("50"), subtotals, rates, false, 0)

	assert.True(t, first.Total.Equal(second.Total))
	assert.True(t, first.Subtotal.Equal(second.Subtotal))
	assert.True(t, first.Tax.Equal(second.Tax))
	for i := range first.Lines {
		assert.True(t, first.Lines[i].Discount.Equal(second.Lines[i].Discount))
	}
}

func TestSettle_TotalEqualsSubtotalPlusTax(t *testing.T) {
	result := Settle(
		d("17"),
		[]decimal.Decimal{d("45"), d("120"), d("33")},
		[]decimal.Decimal{d("0.1"), d("0"), d("0.05")},
		false, 0,
	)
	assert.True(t, result.Total.Equal(result.Subtotal.Add(result.Tax)))
}

func TestSettle_TwoDigitExponent(t *testing.T) {
	// A store priced at two minor-unit digits rounds at cents instead.
	pbt, tax := SettleLine(d("19.99"), decimal.Zero, d("0.07"), false, 2)
	assert.True(t, pbt.Equal(d("19.99")))
	assert.True(t, tax.Equal(d("1.4")), "got %s", tax) // round(1.3993) = 1.40
}
