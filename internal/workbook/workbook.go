// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package workbook opens spreadsheet workbooks as read-only grids of raw
// cells and selects the worksheet an extraction schema applies to.
package workbook

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/pdiddy/kiga-extract/internal/match"
)

var (
	// ErrMalformed indicates the workbook could not be read at all.
	ErrMalformed = errors.New("malformed workbook")

	// ErrSheetNotFound indicates no sheet matched any sheet pattern.
	ErrSheetNotFound = errors.New("sheet not found")
)

// Workbook is an ordered collection of named sheets. Callers must Close it.
type Workbook struct {
	// Name is the file name the workbook was opened from.
	Name string

	names []string
	load  func(name string) (*Sheet, error)
	close func() error
}

// Open opens an xlsx workbook. Unreadable or corrupt files return an error
// wrapping ErrMalformed.
func Open(path string) (*Workbook, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, filepath.Base(path), err)
	}
	return &Workbook{
		Name:  filepath.Base(path),
		names: f.GetSheetList(),
		load:  func(name string) (*Sheet, error) { return readSheet(f, name) },
		close: f.Close,
	}, nil
}

// New builds an in-memory workbook from already materialized sheets.
func New(name string, sheets ...*Sheet) *Workbook {
	byName := make(map[string]*Sheet, len(sheets))
	names := make([]string, 0, len(sheets))
	for _, s := range sheets {
		byName[s.Name] = s
		names = append(names, s.Name)
	}
	return &Workbook{
		Name:  name,
		names: names,
		load: func(n string) (*Sheet, error) {
			if s, ok := byName[n]; ok {
				return s, nil
			}
			return nil, fmt.Errorf("sheet %q does not exist", n)
		},
	}
}

// SheetNames returns the sheet names in workbook order.
func (w *Workbook) SheetNames() []string {
	return append([]string(nil), w.names...)
}

// Sheet reads the named sheet.
func (w *Workbook) Sheet(name string) (*Sheet, error) {
	return w.load(name)
}

// Close releases the underlying file.
func (w *Workbook) Close() error {
	if w.close == nil {
		return nil
	}
	return w.close()
}

// Locate returns the sheet selected by patterns. Patterns take priority over
// sheet order: every sheet is tried against the first pattern before the
// second pattern is considered. When nothing matches it returns an error
// wrapping ErrSheetNotFound.
func (w *Workbook) Locate(patterns []string) (*Sheet, match.Result, error) {
	for _, p := range patterns {
		for _, name := range w.names {
			tier := match.Classify(name, p)
			if tier == match.TierNone {
				continue
			}
			sheet, err := w.Sheet(name)
			if err != nil {
				return nil, match.Result{}, fmt.Errorf("%w: reading sheet %q: %v", ErrMalformed, name, err)
			}
			return sheet, match.Result{Row: -1, Column: -1, Variant: p, Tier: tier}, nil
		}
	}
	return nil, match.Result{}, fmt.Errorf("%w: no sheet matching %q (available: %q)", ErrSheetNotFound, patterns, w.names)
}

// readSheet materializes a sheet with raw (unformatted) values and the cell
// type recorded in the file.
func readSheet(f *excelize.File, name string) (*Sheet, error) {
	raw, err := f.GetRows(name, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, err
	}

	rows := make([][]Cell, len(raw))
	for r, values := range raw {
		cells := make([]Cell, len(values))
		for c, v := range values {
			if v == "" {
				continue
			}
			ref, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return nil, err
			}
			ct, err := f.GetCellType(name, ref)
			if err != nil {
				return nil, err
			}
			cells[c] = toCell(ct, v)
		}
		rows[r] = cells
	}
	return NewSheet(name, rows), nil
}

func toCell(ct excelize.CellType, v string) Cell {
	switch ct {
	case excelize.CellTypeBool:
		b, err := strconv.ParseBool(v)
		if err != nil {
			return TextCell(v)
		}
		return BoolCell(b)
	case excelize.CellTypeUnset, excelize.CellTypeNumber, excelize.CellTypeDate:
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return Cell{Kind: CellNumber, Number: f, Text: v}
		}
	}
	return TextCell(v)
}
