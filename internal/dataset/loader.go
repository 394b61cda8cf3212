package dataset

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Source describes where a dataset snapshot comes from. Either Path (CSV,
// TSV, XLSX) or DSN+Table (PostgreSQL) is set.
type Source struct {
	Path      string
	Sheet     string
	Delimiter rune
	DSN       string
	Table     string
}

func (s Source) String() string {
	if s.DSN != "" {
		return "postgres table " + s.Table
	}
	if s.Sheet != "" {
		return fmt.Sprintf("%s (sheet: %s)", s.Path, s.Sheet)
	}
	return s.Path
}

// Loader reads a Source into a Dataset.
type Loader interface {
	CanLoad(src Source) bool
	Load(ctx context.Context, src Source) (*Dataset, error)
}

var registry []Loader

// Register adds a loader implementation to the registry.
func Register(l Loader) {
	registry = append(registry, l)
}

// ErrUnsupported indicates no registered loader accepts the source.
var ErrUnsupported = errors.New("unsupported dataset source")

// ErrNoSource indicates neither a file path nor a database source was configured.
var ErrNoSource = errors.New("no dataset source configured (set --data or dataset_path/dataset_dsn)")

// Load selects a loader for src and reads the snapshot once.
func Load(ctx context.Context, src Source) (*Dataset, error) {
	if strings.TrimSpace(src.Path) == "" && strings.TrimSpace(src.DSN) == "" {
		return nil, ErrNoSource
	}
	for _, l := range registry {
		if l.CanLoad(src) {
			ds, err := l.Load(ctx, src)
			if err != nil {
				return nil, fmt.Errorf("load %s: %w", src, err)
			}
			return ds, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupported, src)
}

func init() {
	Register(postgresLoader{})
	Register(xlsxLoader{})
	Register(csvLoader{})
}
