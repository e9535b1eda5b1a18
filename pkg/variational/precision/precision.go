// Package precision normalises order quantities and prices to an asset's
// significant-figure and tick rules.
package precision

import (
	"math/big"

	"github.com/shopspring/decimal"

	"github.com/variational-research/variational-go/pkg/variational/models"
)

// Requirements bounds how many digits a value may carry. Values >= 1 keep at
// most MaxSignificantFigures digits but never fewer than MinDecimalFigures
// decimal places; values in (0, 1) keep at most MaxDecimalOnlyFigures
// significant digits.
type Requirements struct {
	MinDecimalFigures     int `json:"min_decimal_figures" yaml:"min_decimal_figures"`
	MaxDecimalOnlyFigures int `json:"max_decimal_only_figures" yaml:"max_decimal_only_figures"`
	MaxSignificantFigures int `json:"max_significant_figures" yaml:"max_significant_figures"`
}

// DefaultRequirements are the venue's defaults for quantities.
var DefaultRequirements = Requirements{
	MinDecimalFigures:     2,
	MaxDecimalOnlyFigures: 4,
	MaxSignificantFigures: 6,
}

var (
	bigOne = big.NewInt(1)
	bigTen = big.NewInt(10)
)

// RoundToRequirements trims v to req, rounding half away from zero. The
// exponent v was written with counts, so "1.50" has two decimal places. Values
// already within bounds, and zero, are returned unchanged.
func RoundToRequirements(v decimal.Decimal, req Requirements) decimal.Decimal {
	if v.IsZero() {
		return v
	}
	exp := int(v.Exponent())
	digits := log10Ceil(unscaled(v))

	abs := v.Abs()
	switch {
	case abs.GreaterThanOrEqual(decimal.NewFromInt(1)):
		allowed := digits + exp - req.MaxSignificantFigures
		target := min(allowed, -req.MinDecimalFigures)
		if target > exp {
			return v.Round(int32(-target))
		}
	default:
		remove := digits - req.MaxDecimalOnlyFigures
		if remove > 0 {
			return v.Round(int32(-(exp + remove)))
		}
	}
	return v
}

// unscaled is |v| with the decimal point removed. Values written with a
// non-negative exponent are taken as the integer they denote.
func unscaled(v decimal.Decimal) *big.Int {
	coef := new(big.Int).Abs(v.Coefficient())
	if exp := v.Exponent(); exp > 0 {
		coef.Mul(coef, new(big.Int).Exp(bigTen, big.NewInt(int64(exp)), nil))
	}
	return coef
}

// log10Ceil is ceil(log10(n)) for n >= 1: the digit count, less one when n
// is an exact power of ten.
func log10Ceil(n *big.Int) int {
	s := n.String()
	digits := len(s)
	if s[0] == '1' && isZeros(s[1:]) {
		return digits - 1
	}
	return digits
}

func isZeros(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] != '0' {
			return false
		}
	}
	return true
}

// DefaultMinQtyTick derives the coarsest quantity tick whose notional at price
// stays at or below minOrderNotional: min(1, 10^floor(log10(notional/price))).
// A non-positive price or notional yields 1.
func DefaultMinQtyTick(minOrderNotional, price decimal.Decimal) decimal.Decimal {
	one := decimal.NewFromInt(1)
	if !price.IsPositive() || !minOrderNotional.IsPositive() {
		return one
	}
	ratio := new(big.Rat).Quo(minOrderNotional.Rat(), price.Rat())
	if ratio.Cmp(new(big.Rat).SetInt(bigOne)) >= 0 {
		return one
	}
	// ratio < 1: find the smallest n with ratio * 10^n >= 1.
	n := 0
	scaled := new(big.Rat).Set(ratio)
	ten := new(big.Rat).SetInt(bigTen)
	for scaled.Cmp(new(big.Rat).SetInt(bigOne)) < 0 {
		scaled.Mul(scaled, ten)
		n++
	}
	return decimal.New(1, int32(-n))
}

// FindAssetDetails returns the supported-asset entry for the instrument's
// underlying. When the instrument pins a DEX token, only an entry with the
// same token details matches; otherwise the first entry wins.
func FindAssetDetails(instrument models.Instrument, supported models.SupportedAssets) (models.SupportedAssetDetails, bool) {
	for _, asset := range supported[instrument.Underlying] {
		if asset.Asset != instrument.Underlying {
			continue
		}
		if instrument.DexTokenDetails == nil {
			return asset, true
		}
		if instrument.DexTokenDetails.Equal(asset.DexTokenDetails) {
			return asset, true
		}
	}
	return models.SupportedAssetDetails{}, false
}

// Format renders v with exactly as many decimal places as its exponent
// carries, so rounded values keep their trailing zeros ("1.50", not "1.5").
func Format(v decimal.Decimal) string {
	if exp := v.Exponent(); exp < 0 {
		return v.StringFixed(-exp)
	}
	return v.String()
}
