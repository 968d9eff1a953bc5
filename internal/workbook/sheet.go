// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package workbook

import (
	"strconv"
	"strings"
)

// CellKind is the raw type of a sheet cell.
type CellKind int

const (
	CellEmpty CellKind = iota
	CellNumber
	CellText
	CellBool
)

// Cell is one raw cell value.
type Cell struct {
	Kind   CellKind
	Text   string
	Number float64
	Bool   bool
}

// TextCell returns a text cell. Blank text yields an empty cell.
func TextCell(s string) Cell {
	if strings.TrimSpace(s) == "" {
		return Cell{}
	}
	return Cell{Kind: CellText, Text: s}
}

// NumberCell returns a numeric cell.
func NumberCell(f float64) Cell {
	return Cell{Kind: CellNumber, Number: f, Text: strconv.FormatFloat(f, 'f', -1, 64)}
}

// BoolCell returns a boolean cell.
func BoolCell(b bool) Cell {
	return Cell{Kind: CellBool, Bool: b, Text: strconv.FormatBool(b)}
}

// Sheet is a read-only grid of cells addressed by zero-based (row, column).
type Sheet struct {
	Name string
	rows [][]Cell
}

// NewSheet wraps rows as a Sheet. Rows may be ragged.
func NewSheet(name string, rows [][]Cell) *Sheet {
	return &Sheet{Name: name, rows: rows}
}

// NumRows returns the number of rows, including trailing rows that are
// present but empty.
func (s *Sheet) NumRows() int { return len(s.rows) }

// Row returns the cells of row r, or nil when r is out of range.
func (s *Sheet) Row(r int) []Cell {
	if r < 0 || r >= len(s.rows) {
		return nil
	}
	return s.rows[r]
}

// Cell returns the cell at (r, c). Out-of-range addresses are empty.
func (s *Sheet) Cell(r, c int) Cell {
	row := s.Row(r)
	if c < 0 || c >= len(row) {
		return Cell{}
	}
	return row[c]
}

// Label returns the trimmed text of a text cell, or "" for any other kind.
func (s *Sheet) Label(r, c int) string {
	cell := s.Cell(r, c)
	if cell.Kind != CellText {
		return ""
	}
	return strings.TrimSpace(cell.Text)
}
