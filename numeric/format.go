package numeric

import (
	"math"
	"strconv"
)

// DefaultDecimals is the precision Short uses.
const DefaultDecimals = 2

// Overflow is rendered once a value outgrows the suffix table.
const Overflow = "Infinity"

var suffixes = []string{"", "K", "M", "B", "T", "Qa", "Qi", "Sx", "Sp", "Oc", "No", "Dc"}

// Format renders v for display, dividing by 1000 per suffix step.
// Big values are converted to float64 first, which is fine for display.
//
//	Format(Parse("1500"), 2)        == "1.5K"
//	Format(Parse("2000000"), 2)     == "2M"
//	Format(Parse("-1234567"), 1)    == "-1.2M"
func Format(v Value, decimals int) string {
	if decimals < 0 {
		decimals = 0
	}
	f := v.Float64()
	negative := f < 0
	display := math.Abs(f)

	sign := ""
	if negative {
		sign = "-"
	}
	if math.IsInf(display, 0) {
		return sign + Overflow
	}

	i := 0
	for display >= 1000 {
		if i == len(suffixes)-1 {
			return sign + Overflow
		}
		display /= 1000
		i++
	}

	out := normalizeZero(trimFraction(strconv.FormatFloat(display, 'f', decimals, 64)))
	if out == "0" {
		sign = ""
	}
	return sign + out + suffixes[i]
}

// Short formats with DefaultDecimals.
func Short(v Value) string {
	return Format(v, DefaultDecimals)
}
