package parser

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/KaramelBytes/chartloom/internal/dataset"
)

type xlsxLoader struct{}

func (xlsxLoader) CanLoad(filename string) bool {
	name := strings.ToLower(filename)
	return strings.HasSuffix(name, ".xlsx") || strings.HasSuffix(name, ".xlsm")
}

// Load reads the requested sheet, or the one with the most rows, filling
// merged ranges with their top-left value.
func (xlsxLoader) Load(data []byte, opt Options) (*dataset.Table, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmpty
	}
	var (
		sheet string
		rows  [][]string
	)
	if opt.Sheet != "" {
		found := false
		for _, s := range sheets {
			if strings.EqualFold(s, opt.Sheet) {
				sheet, found = s, true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("sheet %q not found (available: %s)", opt.Sheet, strings.Join(sheets, ", "))
		}
		if rows, err = f.GetRows(sheet); err != nil {
			return nil, fmt.Errorf("read sheet %s: %w", sheet, err)
		}
	} else {
		for _, s := range sheets {
			r, err := f.GetRows(s)
			if err != nil {
				return nil, fmt.Errorf("read sheet %s: %w", s, err)
			}
			if sheet == "" || len(r) > len(rows) {
				sheet, rows = s, r
			}
		}
	}

	rows, err = fillMerged(f, sheet, rows)
	if err != nil {
		return nil, err
	}
	return build(rows, opt), nil
}

// fillMerged copies each merged range's value into every cell it covers.
func fillMerged(f *excelize.File, sheet string, rows [][]string) ([][]string, error) {
	merged, err := f.GetMergeCells(sheet)
	if err != nil {
		return nil, fmt.Errorf("merged cells %s: %w", sheet, err)
	}
	for _, m := range merged {
		x1, y1, e1 := excelize.CellNameToCoordinates(m.GetStartAxis())
		x2, y2, e2 := excelize.CellNameToCoordinates(m.GetEndAxis())
		if e1 != nil || e2 != nil {
			continue
		}
		v := m.GetCellValue()
		for y := y1; y <= y2; y++ {
			for len(rows) < y {
				rows = append(rows, nil)
			}
			row := rows[y-1]
			for len(row) < x2 {
				row = append(row, "")
			}
			for x := x1; x <= x2; x++ {
				row[x-1] = v
			}
			rows[y-1] = row
		}
	}
	return rows, nil
}
