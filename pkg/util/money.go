package util

import (
	"strings"

	"github.com/shopspring/decimal"
)

// FormatUSD renders a price with thousands separators, keeping the value's own
// precision but never more than two decimals.
func FormatUSD(d decimal.Decimal) string {
	if d.Exponent() < -2 {
		d = d.Round(2)
	}
	s := d.String()
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	intPart, frac, hasFrac := strings.Cut(s, ".")
	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	out := sign + "$" + b.String()
	if hasFrac {
		out += "." + frac
	}
	return out
}

// FormatPercent renders a percentage with one decimal place.
func FormatPercent(d decimal.Decimal) string {
	return d.StringFixed(1) + "%"
}

// FormatSignedPercent is FormatPercent with an explicit plus sign for gains.
func FormatSignedPercent(d decimal.Decimal) string {
	if d.IsPositive() {
		return "+" + FormatPercent(d)
	}
	return FormatPercent(d)
}
