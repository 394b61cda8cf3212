package analysis

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"unicode"

	"github.com/hashicorp/go-bexpr"

	"github.com/KaramelBytes/estatelens-cli/internal/dataset"
)

// Predicate is a compiled boolean row filter in go-bexpr syntax, such as
// `year == 2022 and location matches "^Wakad"`. The grammar has equality,
// membership, emptiness and regex operators but no ordering comparisons.
//
// Selectors are column names lowercased with every run of non-alphanumeric
// characters replaced by "_" (so "Flat - Weighted Average Rate" becomes
// "flat_weighted_average_rate"). Two synthetic selectors are always present
// when resolvable: "price" (the averaged row price) and "year".
type Predicate struct {
	expr string
	// the evaluator caches compiled regexes on first use
	mu        sync.Mutex
	evaluator *bexpr.Evaluator
}

// CompilePredicate parses expr. An empty expression yields a nil Predicate, which matches everything.
func CompilePredicate(expr string) (*Predicate, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, nil
	}
	ev, err := bexpr.CreateEvaluator(expr)
	if err != nil {
		return nil, fmt.Errorf("error parsing expression '%s': %w", expr, err)
	}
	return &Predicate{expr: expr, evaluator: ev}, nil
}

func (p *Predicate) String() string {
	if p == nil {
		return ""
	}
	return p.expr
}

// Match evaluates the predicate against a filtered row. A nil Predicate matches.
func (p *Predicate) Match(fr FilteredRow) (bool, error) {
	if p == nil {
		return true, nil
	}
	vars := predicateVars(fr)
	p.mu.Lock()
	ok, err := p.evaluator.Evaluate(vars)
	p.mu.Unlock()
	if err != nil {
		return false, fmt.Errorf("error evaluating expression '%s': %w, input values: %s", p.expr, err, stringify(vars))
	}
	return ok, nil
}

func predicateVars(fr FilteredRow) map[string]any {
	vars := make(map[string]any, len(fr.Row)+2)
	for k, v := range fr.Row {
		key := SelectorName(k)
		if key == "" || v == nil {
			continue
		}
		if f, ok := dataset.Number(v); ok {
			vars[key] = f
			continue
		}
		if s, ok := dataset.Text(v); ok {
			vars[key] = s
		}
	}
	if fr.Price != nil {
		vars["price"] = *fr.Price
	}
	if fr.HasYear {
		vars["year"] = int64(fr.Year)
	}
	return vars
}

// SelectorName converts a column name into the selector used in predicates.
func SelectorName(col string) string {
	var b strings.Builder
	pendingSep := false
	for _, r := range strings.ToLower(col) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingSep = false
			b.WriteRune(r)
			continue
		}
		pendingSep = true
	}
	return b.String()
}

func stringify(obj any) string {
	b, err := json.Marshal(obj)
	if err != nil {
		b = []byte(fmt.Sprintf("%+v", obj))
	}
	return string(b)
}
