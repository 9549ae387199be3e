package handler

import "github.com/shopspring/decimal"

// parseDecimal parses a decimal carried as a JSON string. Quantities and
// money travel as strings to avoid float precision loss on the wire.
func parseDecimal(s string) (decimal.Decimal, error) {
	return decimal.NewFromString(s)
}
