package insights

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Error codes.
const (
	CodeInput    = "InputErr"
	CodeDataset  = "DatasetErr"
	CodeInternal = "InternalErr"
)

// Err is the error type returned by Service operations.
type Err struct {
	Code  string
	Title string
	Data  map[string]any
}

func (e Err) Error() string {
	fields := []string{e.Code + ": " + e.Title}
	keys := make([]string, 0, len(e.Data))
	for k := range e.Data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		v := e.Data[k]
		if err, ok := v.(error); ok {
			v = err.Error()
		}
		fields = append(fields, fmt.Sprintf("%s = %+v", k, v))
	}
	return strings.Join(fields, "; ")
}

// ErrIs reports whether err is an Err with the given code.
func ErrIs(err error, code string) bool {
	var e Err
	if !errors.As(err, &e) {
		return false
	}
	return e.Code == code
}

func InputErr(title string, data map[string]any) error {
	return Err{Code: CodeInput, Title: title, Data: data}
}

func DatasetErr(title string, data map[string]any) error {
	return Err{Code: CodeDataset, Title: title, Data: data}
}

func InternalErr(title string, data map[string]any) error {
	return Err{Code: CodeInternal, Title: title, Data: data}
}
