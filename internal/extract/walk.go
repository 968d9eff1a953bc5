// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"fmt"

	"github.com/pdiddy/kiga-extract/internal/match"
	"github.com/pdiddy/kiga-extract/internal/workbook"
	"github.com/pdiddy/kiga-extract/pkg/types"
)

// Match is one schema item located in the sheet.
type Match struct {
	Category types.Category
	Item     types.Item
	Row      int
	Label    match.Result
}

// Walk locates every declared category and item below the anchor row.
//
// The cursor only moves down: each search starts one row below the last
// match, and an item search is bounded by the next category label (or the
// end of the section). A missing category or item is reported as a failure
// entry and the walk continues with the next declaration. Returned failures
// carry no SourceFile; the caller stamps it.
func Walk(sheet *workbook.Sheet, anchorRow int, s *types.ExtractionSchema) ([]Match, []types.FailureEntry) {
	end := sectionEnd(sheet, anchorRow+1, s.StopPatterns, s.LabelColumn)
	cursor := anchorRow + 1

	var (
		matches  []Match
		failures []types.FailureEntry
	)

	for ci, cat := range s.Categories {
		catRes, ok := findRow(sheet, cursor, end, cat.Patterns(), s.LabelColumn)
		if !ok {
			failures = append(failures, types.FailureEntry{
				Stage:    types.StageCategoryLookup,
				Reason:   "category not found in section",
				Category: cat.Label,
				Expected: cat.Label,
			})
			continue
		}

		itemEnd := nextCategoryRow(sheet, catRes.Row+1, end, s.Categories[ci+1:], s.LabelColumn)
		cursor = catRes.Row + 1

		for _, item := range cat.Items {
			res, ok := findRow(sheet, cursor, itemEnd, item.Patterns(), s.LabelColumn)
			if !ok {
				failures = append(failures, missingItem(sheet, cat, item, itemEnd, s.LabelColumn))
				continue
			}
			matches = append(matches, Match{Category: cat, Item: item, Row: res.Row, Label: res})
			cursor = res.Row + 1
		}
	}

	return matches, failures
}

// nextCategoryRow returns the row of the first later category found in
// [from, end), or end.
func nextCategoryRow(sheet *workbook.Sheet, from, end int, later []types.Category, column *int) int {
	for _, cat := range later {
		if res, ok := findRow(sheet, from, end, cat.Patterns(), column); ok {
			return res.Row
		}
	}
	return end
}

func missingItem(sheet *workbook.Sheet, cat types.Category, item types.Item, bound int, column *int) types.FailureEntry {
	f := types.FailureEntry{
		Stage:    types.StageItemLookup,
		Reason:   "item not found before end of section",
		Category: cat.Label,
		Expected: item.Label,
	}
	if found := rowLabel(sheet, bound, column); found != "" {
		f.Reason = "item not found before next label"
		f.Found = found
	}
	return f
}

// rowLabel returns the label text of row r: the label column if set,
// otherwise the first text cell.
func rowLabel(sheet *workbook.Sheet, r int, column *int) string {
	if column != nil {
		return sheet.Label(r, *column)
	}
	for c := range sheet.Row(r) {
		if l := sheet.Label(r, c); l != "" {
			return l
		}
	}
	return ""
}

func (m Match) String() string {
	return fmt.Sprintf("%s / %s @ row %d (%s)", m.Category.Label, m.Item.Label, m.Row, m.Label.Tier)
}
