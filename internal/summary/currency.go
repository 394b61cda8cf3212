package summary

import (
	"strings"

	"github.com/shopspring/decimal"
)

// FormatINR renders x as rupees with two decimals and comma thousands
// grouping, e.g. 1234567.891 -> ₹1,234,567.89. Rounding is half away from zero.
func FormatINR(x float64) string {
	s := decimal.NewFromFloat(x).Round(2).StringFixed(2)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	intPart, frac, _ := strings.Cut(s, ".")
	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	b.WriteString("₹")
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	b.WriteByte('.')
	b.WriteString(frac)
	return b.String()
}

// round2 rounds to two decimals for prompt payloads.
func round2(x float64) float64 {
	f, _ := decimal.NewFromFloat(x).Round(2).Float64()
	return f
}
