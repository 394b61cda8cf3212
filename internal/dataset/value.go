package dataset

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// Year bounds for values that are treated as calendar years.
const (
	MinYear = 1900
	MaxYear = 2100
)

var absentTokens = map[string]struct{}{
	"":     {},
	"na":   {},
	"n/a":  {},
	"-":    {},
	"nan":  {},
	"null": {},
}

// Number coerces a cell to float64. Strings may carry thousands separators
// and a leading currency symbol; blank and NA-like markers are absent.
func Number(v Value) (float64, bool) {
	switch x := v.(type) {
	case nil:
		return 0, false
	case float64:
		return finite(x)
	case float32:
		return finite(float64(x))
	case int64:
		return float64(x), true
	case int:
		return float64(x), true
	case int32:
		return float64(x), true
	case string:
		return parseNumber(x)
	default:
		return 0, false
	}
}

func parseNumber(s string) (float64, bool) {
	raw := strings.TrimSpace(strings.ReplaceAll(s, "\u00A0", " "))
	if _, ok := absentTokens[strings.ToLower(raw)]; ok {
		return 0, false
	}
	for _, sym := range []string{"₹", "$", "€", "£", "Rs.", "INR"} {
		raw = strings.TrimPrefix(raw, sym)
	}
	raw = strings.ReplaceAll(raw, ",", "")
	raw = strings.ReplaceAll(raw, " ", "")
	if raw == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return finite(f)
}

func finite(f float64) (float64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// Text renders a cell as text. Nil cells have no text.
func Text(v Value) (string, bool) {
	switch x := v.(type) {
	case nil:
		return "", false
	case string:
		return x, true
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), true
	case int64:
		return strconv.FormatInt(x, 10), true
	case int:
		return strconv.Itoa(x), true
	case bool:
		return strconv.FormatBool(x), true
	case time.Time:
		return x.Format("2006-01-02"), true
	default:
		return "", false
	}
}

// Year resolves a cell to a calendar year in [MinYear, MaxYear].
// Numbers must be whole; timestamps contribute their year.
func Year(v Value) (int, bool) {
	if t, ok := v.(time.Time); ok {
		return inYearRange(t.Year())
	}
	f, ok := Number(v)
	if !ok || f != math.Trunc(f) {
		return 0, false
	}
	if f < MinYear || f > MaxYear {
		return 0, false
	}
	return int(f), true
}

func inYearRange(y int) (int, bool) {
	if y < MinYear || y > MaxYear {
		return 0, false
	}
	return y, true
}

// inferCell converts a raw spreadsheet string into the narrowest scalar:
// int64, float64 or the trimmed string. Empty cells become nil.
func inferCell(s string) Value {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		if _, ok := finite(f); ok {
			return f
		}
	}
	return s
}
