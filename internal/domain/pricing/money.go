package pricing

import (
	"strings"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Format renders cents as a fixed two-decimal amount, e.g. 1400 -> "14.00"
func Format(cents int64) string {
	return decimal.New(cents, -2).StringFixed(2)
}

// PercentOff takes percent off an amount in cents, rounding half away from zero
func PercentOff(cents int64, percent int64) int64 {
	if percent <= 0 {
		return cents
	}
	if percent >= 100 {
		return 0
	}
	kept := decimal.NewFromInt(cents).Mul(decimal.NewFromInt(100 - percent)).Div(hundred)
	return kept.Round(0).IntPart()
}

// UnitLabel turns a unit of measure into the suffix shown next to a price
func UnitLabel(unitOfMeasure string) string {
	switch strings.ToLower(strings.TrimSpace(unitOfMeasure)) {
	case "kg":
		return "per kg"
	case "g", "100g":
		return "per 100g"
	case "l":
		return "per l"
	case "ml", "100ml":
		return "per 100ml"
	default:
		return "per item"
	}
}

// Display renders the price of a line for a shopper, e.g. "7.00 per item (was 10.00)"
func Display(lp LinePrice, unitOfMeasure string) string {
	s := Format(lp.Unit) + " " + UnitLabel(unitOfMeasure)
	if lp.Discounted {
		s += " (was " + Format(lp.Was) + ")"
	}
	return s
}
