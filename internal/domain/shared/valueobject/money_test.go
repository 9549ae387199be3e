package valueobject

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestRound(t *testing.T) {
	tests := []struct {
		name     string
		amount   string
		exponent int32
		want     string
	}{
		{"half rounds away from zero", "1.5", 0, "2"},
		{"negative half rounds away from zero", "-1.5", 0, "-2"},
		{"below half rounds down", "1.4", 0, "1"},
		{"above half rounds up", "1.6", 0, "2"},
		{"whole amount unchanged", "350", 0, "350"},
		{"two-digit exponent", "1.3993", 2, "1.4"},
		{"two-digit half away from zero", "0.005", 2, "0.01"},
		{"two-digit negative half", "-0.005", 2, "-0.01"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			amount, err := decimal.NewFromString(tt.amount)
			assert.NoError(t, err)
			want, err := decimal.NewFromString(tt.want)
			assert.NoError(t, err)
			assert.True(t, Round(amount, tt.exponent).Equal(want),
				"Round(%s, %d) = %s", tt.amount, tt.exponent, Round(amount, tt.exponent))
		})
	}
}

func TestDefaultExponentIsWholeUnit(t *testing.T) {
	assert.Equal(t, int32(0), DefaultExponent)
}
