// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package extract is the schema-driven extraction engine. Given a located
// sheet and an ExtractionSchema it anchors the named section, walks the
// declared category/item tree (or the flat group rows), reads and coerces
// the value columns, and assembles normalized records.
//
// Stages are plain functions over an immutable sheet so the batch driver
// can run them in sequence and record a failure at whichever stage misses.
package extract

import (
	"github.com/pdiddy/kiga-extract/internal/workbook"
	"github.com/pdiddy/kiga-extract/pkg/types"
)

// Located is the walk output for either schema shape.
type Located struct {
	Items  []Match
	Groups []FlatMatch
}

// Len returns the number of located rows.
func (l Located) Len() int { return len(l.Items) + len(l.Groups) }

// Locate walks the sheet below anchorRow according to the schema shape.
func Locate(sheet *workbook.Sheet, anchorRow int, s *types.ExtractionSchema) (Located, []types.FailureEntry) {
	if s.Shape == types.ShapeFlat {
		groups, failures := WalkFlat(sheet, anchorRow, s)
		return Located{Groups: groups}, failures
	}
	items, failures := Walk(sheet, anchorRow, s)
	return Located{Items: items}, failures
}

// AssembleAll reads values and builds one record per located row, in walk
// order.
func AssembleAll(sourceFile string, sheet *workbook.Sheet, loc Located, s *types.ExtractionSchema) []types.ExtractedRecord {
	records := make([]types.ExtractedRecord, 0, loc.Len())
	for _, m := range loc.Items {
		values := ExtractValues(sheet, m.Row, s.ValueColumns)
		comment := commentValue(sheet, m.Row, s.CommentColumn)
		records = append(records, Assemble(sourceFile, sheet.Name, m, values, comment, s))
	}
	for _, g := range loc.Groups {
		values := ExtractValues(sheet, g.Row, s.Columns)
		records = append(records, AssembleFlat(sourceFile, sheet.Name, g, values, s))
	}
	return records
}
