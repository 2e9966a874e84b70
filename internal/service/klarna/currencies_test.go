package klarna

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dalecarliacrew/klarna-checkout-bridge/pkg/errors"
)

func TestToMinorUnits(t *testing.T) {
	tests := []struct {
		name     string
		amount   string
		currency string
		want     int64
	}{
		{name: "two-decimal currency", amount: "10.00", currency: "SEK", want: 1000},
		{name: "two-decimal rounding up", amount: "10.005", currency: "EUR", want: 1001},
		{name: "two-decimal rounding down", amount: "10.004", currency: "EUR", want: 1000},
		{name: "zero-decimal currency", amount: "1500", currency: "JPY", want: 1500},
		{name: "zero-decimal rounds to nearest", amount: "1500.4", currency: "JPY", want: 1500},
		{name: "three-decimal currency", amount: "1.234", currency: "KWD", want: 1234},
		{name: "negative amount", amount: "-5.50", currency: "USD", want: -550},
		{name: "zero", amount: "0", currency: "NOK", want: 0},
		{name: "percentage convention", amount: "25", currency: PercentageConvention, want: 2500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			amount, err := decimal.NewFromString(tt.amount)
			require.NoError(t, err)

			got, err := ToMinorUnits(amount, tt.currency)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestToMinorUnitsUnsupportedCurrency(t *testing.T) {
	_, err := ToMinorUnits(decimal.NewFromInt(10), "XYZ")
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrUnsupportedCurrency)
	assert.Contains(t, err.Error(), "XYZ")
}

func TestToMinorUnitsRoundTrip(t *testing.T) {
	// Converting an amount and re-reading the result at the currency's
	// exponent must be stable within the currency's precision.
	for _, currency := range []string{"SEK", "JPY", "KWD"} {
		t.Run(currency, func(t *testing.T) {
			exponent, err := CurrencyExponent(currency)
			require.NoError(t, err)

			amount := decimal.NewFromFloat(123.456).Round(exponent)
			minor, err := ToMinorUnits(amount, currency)
			require.NoError(t, err)

			back := decimal.New(minor, -exponent)
			assert.True(t, amount.Equal(back), "expected %s, got %s", amount, back)
		})
	}
}

func TestCalculateTaxRate(t *testing.T) {
	tests := []struct {
		name string
		tax  string
		net  string
		want int64
	}{
		{name: "25 percent", tax: "25", net: "100", want: 2500},
		{name: "25 percent from line amounts", tax: "4.00", net: "16.00", want: 2500},
		{name: "12 percent", tax: "12", net: "100", want: 1200},
		{name: "zero tax", tax: "0", net: "100", want: 0},
		{name: "zero net yields zero rate", tax: "4.00", net: "0", want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tax, err := decimal.NewFromString(tt.tax)
			require.NoError(t, err)
			net, err := decimal.NewFromString(tt.net)
			require.NoError(t, err)

			assert.Equal(t, tt.want, CalculateTaxRate(tax, net))
		})
	}
}
