// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"errors"
	"fmt"

	"github.com/pdiddy/kiga-extract/internal/match"
	"github.com/pdiddy/kiga-extract/internal/workbook"
)

// ErrSectionNotFound indicates no row matched the section patterns.
var ErrSectionNotFound = errors.New("section not found")

// Anchor scans the sheet top to bottom and returns the first row whose
// anchor cell matches any of the section patterns. With a nil column every
// text cell of the row is tested.
func Anchor(sheet *workbook.Sheet, patterns []string, column *int) (match.Result, error) {
	if res, ok := findRow(sheet, 0, sheet.NumRows(), patterns, column); ok {
		return res, nil
	}
	return match.Result{}, fmt.Errorf("%w: none of %q in sheet %q", ErrSectionNotFound, patterns, sheet.Name)
}

// sectionEnd returns the first row in [from, NumRows) matching a stop
// pattern, or NumRows when there is none.
func sectionEnd(sheet *workbook.Sheet, from int, stop []string, column *int) int {
	if len(stop) == 0 {
		return sheet.NumRows()
	}
	if res, ok := findRow(sheet, from, sheet.NumRows(), stop, column); ok {
		return res.Row
	}
	return sheet.NumRows()
}

// findRow returns the first row in [from, to) with a label cell matching
// patterns.
func findRow(sheet *workbook.Sheet, from, to int, patterns []string, column *int) (match.Result, bool) {
	if from < 0 {
		from = 0
	}
	for r := from; r < to && r < sheet.NumRows(); r++ {
		if res, ok := matchRow(sheet, r, patterns, column); ok {
			return res, true
		}
	}
	return match.Result{}, false
}

// matchRow tests the label cells of row r against patterns.
func matchRow(sheet *workbook.Sheet, r int, patterns []string, column *int) (match.Result, bool) {
	if column != nil {
		return matchCell(sheet, r, *column, patterns)
	}
	for c := range sheet.Row(r) {
		if res, ok := matchCell(sheet, r, c, patterns); ok {
			return res, true
		}
	}
	return match.Result{}, false
}

func matchCell(sheet *workbook.Sheet, r, c int, patterns []string) (match.Result, bool) {
	label := sheet.Label(r, c)
	if label == "" {
		return match.Result{}, false
	}
	variant, tier, ok := match.Any(label, patterns)
	if !ok {
		return match.Result{}, false
	}
	return match.Result{Row: r, Column: c, Variant: variant, Tier: tier}, true
}
