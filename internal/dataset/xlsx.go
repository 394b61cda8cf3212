package dataset

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

type xlsxLoader struct{}

func (xlsxLoader) CanLoad(src Source) bool {
	name := strings.ToLower(src.Path)
	return src.DSN == "" && (strings.HasSuffix(name, ".xlsx") || strings.HasSuffix(name, ".xlsm"))
}

// Load reads the requested sheet, or the first one when Sheet is empty.
func (xlsxLoader) Load(_ context.Context, src Source) (*Dataset, error) {
	f, err := excelize.OpenFile(src.Path)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook %s has no sheets", filepath.Base(src.Path))
	}
	sheet := sheets[0]
	if src.Sheet != "" {
		sheet = ""
		for _, s := range sheets {
			if strings.EqualFold(s, src.Sheet) {
				sheet = s
				break
			}
		}
		if sheet == "" {
			return nil, fmt.Errorf("sheet '%s' not found in workbook '%s'; available sheets: %s",
				src.Sheet, filepath.Base(src.Path), strings.Join(sheets, ", "))
		}
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheet, err)
	}
	name := filepath.Base(src.Path)
	if len(rows) == 0 {
		return FromRows(name, nil, nil), nil
	}
	return New(name, rows[0], rows[1:]), nil
}
