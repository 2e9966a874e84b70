package klarna

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/dalecarliacrew/klarna-checkout-bridge/pkg/errors"
)

// PercentageConvention selects the non-monetary x100 scaling used for tax
// rates. The provider expresses rates in basis points with the same rounding
// rule as two-decimal monetary amounts, so the converter is reused rather
// than inventing a second rounding policy.
const PercentageConvention = ""

// currencyExponents maps ISO-4217 codes to their canonical minor-unit
// exponent. Zero- and three-decimal currencies are listed explicitly; a code
// missing here is an error, never a guessed exponent, since a wrong exponent
// corrupts amounts by orders of magnitude.
var currencyExponents = map[string]int32{
	"AED": 2, "AUD": 2, "BGN": 2, "BHD": 3, "BRL": 2, "CAD": 2, "CHF": 2,
	"CLP": 0, "CNY": 2, "COP": 2, "CZK": 2, "DJF": 0, "DKK": 2, "EUR": 2,
	"GBP": 2, "GNF": 0, "HKD": 2, "HUF": 2, "IDR": 2, "ILS": 2, "INR": 2,
	"IQD": 3, "ISK": 0, "JOD": 3, "JPY": 0, "KMF": 0, "KRW": 0, "KWD": 3,
	"LYD": 3, "MXN": 2, "MYR": 2, "NOK": 2, "NZD": 2, "OMR": 3, "PHP": 2,
	"PLN": 2, "PYG": 0, "RON": 2, "RSD": 2, "RWF": 0, "SAR": 2, "SEK": 2,
	"SGD": 2, "THB": 2, "TND": 3, "TRY": 2, "TWD": 2, "UGX": 0, "USD": 2,
	"UYU": 2, "VND": 0, "VUV": 0, "XAF": 0, "XOF": 0, "XPF": 0, "ZAR": 2,
}

// ToMinorUnits converts a major-unit amount to the provider's integer
// minor-unit representation for the given currency: the amount is scaled by
// the currency's exponent and rounded half away from zero. Passing
// PercentageConvention as the currency applies the plain x100 scaling used
// for basis-point rates. Unknown currency codes return ErrUnsupportedCurrency.
func ToMinorUnits(amount decimal.Decimal, currency string) (int64, error) {
	exponent, err := currencyExponent(currency)
	if err != nil {
		return 0, err
	}
	return amount.Shift(exponent).Round(0).IntPart(), nil
}

// CurrencyExponent returns the canonical minor-unit exponent of an ISO-4217
// currency code.
func CurrencyExponent(currency string) (int32, error) {
	return currencyExponent(currency)
}

func currencyExponent(currency string) (int32, error) {
	if currency == PercentageConvention {
		return 2, nil
	}
	exponent, ok := currencyExponents[currency]
	if !ok {
		return 0, fmt.Errorf("%w: %q", errors.ErrUnsupportedCurrency, currency)
	}
	return exponent, nil
}

// CalculateTaxRate derives the provider's basis-point tax rate from a tax
// amount and the net amount it was levied on: round(100 * tax / net), scaled
// through the same x100 rounding as monetary conversion (2500 = 25.00%).
// A zero net amount yields 0 basis points: there is nothing to tax against,
// and rejecting a whole session over a free line would be worse than
// reporting a zero rate.
func CalculateTaxRate(taxAmount, netAmount decimal.Decimal) int64 {
	if netAmount.IsZero() {
		return 0
	}
	rate := taxAmount.Mul(decimal.NewFromInt(100)).Div(netAmount).Round(0)
	bp, err := ToMinorUnits(rate, PercentageConvention)
	if err != nil {
		// PercentageConvention is always recognized.
		panic(err)
	}
	return bp
}
