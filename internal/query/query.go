// Package query turns free-text questions into area tokens and a query kind.
package query

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Kind classifies a query.
type Kind int

const (
	Single Kind = iota
	Comparison
	TimeWindowed
)

func (k Kind) String() string {
	switch k {
	case Comparison:
		return "comparison"
	case TimeWindowed:
		return "time_windowed"
	default:
		return "single"
	}
}

// MarshalText renders the kind by name in JSON output.
func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// Query is the interpreted form of a request.
type Query struct {
	Raw   string   `json:"raw"`
	Kind  Kind     `json:"kind"`
	Areas []string `json:"areas"`
	// LookbackYears is meaningful only when HasLookback is set.
	LookbackYears int  `json:"lookbackYears,omitempty"`
	HasLookback   bool `json:"hasLookback"`
}

// Empty reports that no area could be extracted.
func (q Query) Empty() bool { return len(q.Areas) == 0 }

// Area returns the first area token, or "" when there is none.
func (q Query) Area() string {
	if q.Empty() {
		return ""
	}
	return q.Areas[0]
}

// GuidanceMessage is returned to callers when a query names no area.
const GuidanceMessage = "Please specify an area name in your query (e.g., Wakad, Akurdi, Hinjewadi)."

var (
	wordRE     = regexp.MustCompile(`\b[A-Za-z]+\b`)
	lookbackRE = regexp.MustCompile(`(\d+)\s*years?`)
)

var stopWords = toSet(
	"give", "me", "analysis", "of", "compare", "and", "show", "price",
	"growth", "for", "over", "last", "years", "year", "demand", "trends", "trend",
	"the", "a", "an", "in", "on", "at", "to", "vs", "versus", "between", "with",
	"from", "what", "how", "about", "tell", "data", "market", "rates", "rate",
)

var (
	comparisonWords = toSet("compare", "vs", "versus", "between")
	timeWords       = toSet("growth", "trend", "trends", "over", "last", "years")
)

// Interpret extracts area tokens from free text and classifies the query.
// Keywords are recognized as whole words, case-insensitively.
func Interpret(text string) Query {
	q := Query{Raw: text, Kind: Single}
	words := wordRE.FindAllString(text, -1)
	var hasCompare, hasTime bool
	for _, w := range words {
		lw := strings.ToLower(w)
		if _, ok := comparisonWords[lw]; ok {
			hasCompare = true
		}
		if _, ok := timeWords[lw]; ok {
			hasTime = true
		}
		if _, stop := stopWords[lw]; stop || utf8.RuneCountInString(w) <= 2 {
			continue
		}
		q.Areas = append(q.Areas, titleCase(w))
	}
	switch {
	case hasCompare && len(q.Areas) >= 2:
		q.Kind = Comparison
	case hasTime:
		q.Kind = TimeWindowed
		if m := lookbackRE.FindStringSubmatch(strings.ToLower(text)); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil {
				q.LookbackYears, q.HasLookback = n, true
			}
		}
	}
	return q
}

// FromArea builds a query from an explicit area parameter. The area is used
// verbatim; a comma-separated list with two or more entries is a comparison.
func FromArea(area string) Query {
	q := Query{Raw: area, Kind: Single}
	if !strings.Contains(area, ",") {
		if a := strings.TrimSpace(area); a != "" {
			q.Areas = []string{a}
		}
		return q
	}
	q.Areas = SplitAreas(area)
	if len(q.Areas) >= 2 {
		q.Kind = Comparison
	}
	return q
}

// SplitAreas splits a comma-separated list, trimming entries and dropping empty ones.
func SplitAreas(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// WordCount counts whitespace-separated words.
func WordCount(s string) int { return len(strings.Fields(s)) }

func titleCase(w string) string {
	r := []rune(strings.ToLower(w))
	if len(r) == 0 {
		return w
	}
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

func toSet(words ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}
