// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/kiga-extract/internal/match"
	"github.com/pdiddy/kiga-extract/internal/workbook"
	"github.com/pdiddy/kiga-extract/pkg/types"
)

// --- fixtures ---

func intp(i int) *int { return &i }

// sheetOf builds a sheet of n rows; cells maps row → column → cell.
func sheetOf(name string, n int, cells map[int]map[int]workbook.Cell) *workbook.Sheet {
	rows := make([][]workbook.Cell, n)
	for r, cols := range cells {
		width := 0
		for c := range cols {
			if c+1 > width {
				width = c + 1
			}
		}
		row := make([]workbook.Cell, width)
		for c, cell := range cols {
			row[c] = cell
		}
		rows[r] = row
	}
	return workbook.NewSheet(name, rows)
}

func text(s string) workbook.Cell { return workbook.TextCell(s) }
func num(f float64) workbook.Cell { return workbook.NumberCell(f) }
func label(s string) map[int]workbook.Cell { return map[int]workbook.Cell{2: text(s)} }

func itemRow(l string, v22, v23 workbook.Cell, comment string) map[int]workbook.Cell {
	row := map[int]workbook.Cell{2: text(l), 3: v22, 4: v23}
	if comment != "" {
		row[6] = text(comment)
	}
	return row
}

func personalSchema() *types.ExtractionSchema {
	return &types.ExtractionSchema{
		Type:            "personalausgaben",
		Shape:           types.ShapeHierarchical,
		SheetPatterns:   []string{"NB_KIGA", "*NB_KIGA*"},
		SectionID:       "I. PERSONALAUSGABEN",
		SectionPatterns: []string{"I. PERSONALAUSGABEN 1)", "I. PERSONALAUSGABEN"},
		LabelColumn:     intp(2),
		StopPatterns:    []string{"II. SACHAUSGABEN*"},
		Categories: []types.Category{
			{
				Label:       "1. BETREUUNGSPERSONAL",
				Description: "Pädagogisches Personal",
				Items: []types.Item{
					{Label: "Kindergärtner*innen..."},
					{Label: "Helfer*innen", Variants: []string{"Kinderbetreuer*innen und Helfer*innen"}},
				},
			},
			{
				Label: "2. VERWALTUNGSPERSONAL",
				Items: []types.Item{
					{Label: "Leitung"},
					{Label: "Sonstiges"},
				},
			},
		},
		ValueColumns:           []types.ColumnSpec{{Field: "value_2022", Offset: 3}, {Field: "value_2023", Offset: 4}},
		CommentColumn:          intp(6),
		OutputColumns:          []string{"source_file", "category", "subcategory", "subcategory_desc", "detail", "value_2022", "value_2023", "comment"},
		SubcategoryDescDefault: types.DescEmpty,
	}
}

func personalSheet() *workbook.Sheet {
	return sheetOf("NB_KIGA", 24, map[int]map[int]workbook.Cell{
		2:  {0: text("Jahresbericht 2023")},
		10: label("I. PERSONALAUSGABEN 1)"),
		12: label("1. BETREUUNGSPERSONAL"),
		13: itemRow("Kindergärtner*innen...", num(50000), num(52000), ""),
		14: itemRow("Kinderbetreuer*innen  und Helfer*innen", num(20000), text("21.000,50"), "inkl. Vertretung"),
		16: label("2. VERWALTUNGSPERSONAL"),
		17: itemRow("Leitung", num(9000), workbook.Cell{}, ""),
		18: itemRow("Sonstiges", num(0), num(100), ""),
		20: label("II. SACHAUSGABEN 2)"),
		21: itemRow("Sonstiges", num(1), num(2), ""),
	})
}

// --- Anchor ---

func TestAnchor(t *testing.T) {
	sheet := personalSheet()

	res, err := Anchor(sheet, []string{"I. PERSONALAUSGABEN", "I. PERSONALAUSGABEN 1)"}, nil)
	require.NoError(t, err)
	assert.Equal(t, 10, res.Row)
	assert.Equal(t, 2, res.Column)
	assert.Equal(t, "I. PERSONALAUSGABEN 1)", res.Variant)
	assert.Equal(t, match.TierExact, res.Tier)
}

func TestAnchorRestrictedColumn(t *testing.T) {
	sheet := personalSheet()

	_, err := Anchor(sheet, []string{"I. PERSONALAUSGABEN 1)"}, intp(0))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSectionNotFound))

	res, err := Anchor(sheet, []string{"I. PERSONALAUSGABEN 1)"}, intp(2))
	require.NoError(t, err)
	assert.Equal(t, 10, res.Row)
}

func TestAnchorDriftsVertically(t *testing.T) {
	for _, row := range []int{0, 4, 30} {
		sheet := sheetOf("S", 40, map[int]map[int]workbook.Cell{row: label("i.  personalausgaben")})
		res, err := Anchor(sheet, []string{"I. PERSONALAUSGABEN"}, nil)
		require.NoError(t, err)
		assert.Equal(t, row, res.Row)
		assert.Equal(t, match.TierNormalized, res.Tier)
	}
}

func TestAnchorNotFound(t *testing.T) {
	sheet := sheetOf("S", 5, map[int]map[int]workbook.Cell{1: label("Deckblatt")})
	_, err := Anchor(sheet, []string{"I. PERSONALAUSGABEN"}, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSectionNotFound))
}

// --- Walk ---

func TestWalkAllItems(t *testing.T) {
	s := personalSchema()
	matches, failures := Walk(personalSheet(), 10, s)

	assert.Empty(t, failures)
	require.Len(t, matches, 4)

	wantRows := []int{13, 14, 17, 18}
	for i, m := range matches {
		assert.Equal(t, wantRows[i], m.Row, "match %d", i)
	}
	assert.Equal(t, "Helfer*innen", matches[1].Item.Label)
	assert.Equal(t, match.TierNormalized, matches[1].Label.Tier)
}

func TestWalkCursorMonotonic(t *testing.T) {
	s := personalSchema()
	// "Sonstiges" appears in both categories and again after the stop row.
	s.Categories[0].Items = append(s.Categories[0].Items, types.Item{Label: "Sonstiges"})
	sheet := sheetOf("NB_KIGA", 20, map[int]map[int]workbook.Cell{
		1: label("I. PERSONALAUSGABEN"),
		2: label("1. BETREUUNGSPERSONAL"),
		3: itemRow("Sonstiges", num(1), num(1), ""),
		4: itemRow("Kindergärtner*innen...", num(2), num(2), ""),
		5: itemRow("Helfer*innen", num(3), num(3), ""),
		6: label("2. VERWALTUNGSPERSONAL"),
		7: itemRow("Leitung", num(4), num(4), ""),
		8: itemRow("Sonstiges", num(5), num(5), ""),
	})

	matches, failures := Walk(sheet, 1, s)

	prev := -1
	for _, m := range matches {
		assert.Greater(t, m.Row, prev, "rows must increase: %s", m)
		prev = m.Row
	}

	// "Sonstiges" at row 3 precedes the earlier declared items, so the
	// first category's trailing "Sonstiges" is missing rather than
	// re-matching row 3 or leaking into the next category's row 8.
	require.Len(t, failures, 1)
	assert.Equal(t, types.StageItemLookup, failures[0].Stage)
	assert.Equal(t, "Sonstiges", failures[0].Expected)
	assert.Equal(t, "1. BETREUUNGSPERSONAL", failures[0].Category)
	assert.Equal(t, "2. VERWALTUNGSPERSONAL", failures[0].Found)
}

func TestWalkMissingItem(t *testing.T) {
	s := personalSchema()
	// No "Leitung" row.
	sheet := sheetOf("NB_KIGA", 24, map[int]map[int]workbook.Cell{
		10: label("I. PERSONALAUSGABEN 1)"),
		12: label("1. BETREUUNGSPERSONAL"),
		13: itemRow("Kindergärtner*innen...", num(50000), num(52000), ""),
		14: itemRow("Helfer*innen", num(1), num(2), ""),
		16: label("2. VERWALTUNGSPERSONAL"),
		18: itemRow("Sonstiges", num(0), num(100), ""),
		20: label("II. SACHAUSGABEN"),
	})

	matches, failures := Walk(sheet, 10, s)
	assert.Len(t, matches, 3)
	require.Len(t, failures, 1)
	assert.Equal(t, types.StageItemLookup, failures[0].Stage)
	assert.Equal(t, "Leitung", failures[0].Expected)
	assert.Equal(t, "II. SACHAUSGABEN", failures[0].Found)
}

func TestWalkMissingCategory(t *testing.T) {
	s := personalSchema()
	sheet := sheetOf("NB_KIGA", 10, map[int]map[int]workbook.Cell{
		0: label("I. PERSONALAUSGABEN"),
		1: label("2. VERWALTUNGSPERSONAL"),
		2: itemRow("Leitung", num(1), num(2), ""),
		3: itemRow("Sonstiges", num(1), num(2), ""),
	})

	matches, failures := Walk(sheet, 0, s)
	assert.Len(t, matches, 2)
	require.Len(t, failures, 1)
	assert.Equal(t, types.StageCategoryLookup, failures[0].Stage)
	assert.Equal(t, "1. BETREUUNGSPERSONAL", failures[0].Expected)
}

func TestWalkStopsAtStopPattern(t *testing.T) {
	s := personalSchema()
	sheet := sheetOf("NB_KIGA", 10, map[int]map[int]workbook.Cell{
		0: label("I. PERSONALAUSGABEN"),
		1: label("1. BETREUUNGSPERSONAL"),
		2: itemRow("Kindergärtner*innen...", num(1), num(2), ""),
		3: itemRow("Helfer*innen", num(1), num(2), ""),
		4: label("II. SACHAUSGABEN"),
		5: label("2. VERWALTUNGSPERSONAL"),
		6: itemRow("Leitung", num(1), num(2), ""),
		7: itemRow("Sonstiges", num(1), num(2), ""),
	})

	matches, failures := Walk(sheet, 0, s)
	assert.Len(t, matches, 2)
	require.Len(t, failures, 1)
	assert.Equal(t, types.StageCategoryLookup, failures[0].Stage)
}

// --- WalkFlat ---

func hoursSchema() *types.ExtractionSchema {
	return &types.ExtractionSchema{
		Type:            "oeffnungszeiten",
		Shape:           types.ShapeFlat,
		SectionID:       "D. ÖFFNUNGSZEITEN",
		SectionPatterns: []string{"D. ÖFFNUNGSZEITEN"},
		StopPatterns:    []string{"E. SCHLIESSZEITEN*"},
		GroupColumn:     intp(1),
		GroupField:      "Gruppe",
		TargetGroups:    []string{"Kindergartengruppe ganztags", "Hortgruppe", "*Familiengruppe*"},
		Columns: []types.ColumnSpec{
			{Field: "Stunden_pro_Woche", Offset: 2},
			{Field: "Wochentage", Offset: 3},
			{Field: "Oeffnungszeiten", Offset: 4},
		},
		OutputColumns: []string{"Gruppe", "Stunden_pro_Woche", "Wochentage", "Oeffnungszeiten", "source_file"},
	}
}

func TestWalkFlat(t *testing.T) {
	s := hoursSchema()
	sheet := sheetOf("NB_KIGA", 12, map[int]map[int]workbook.Cell{
		1: {0: text("D. ÖFFNUNGSZEITEN")},
		2: {1: text("Gruppe"), 2: text("Ø Stunden"), 3: text("Wochentage")},
		3: {1: text("Kindergartengruppe  ganztags"), 2: num(45), 3: text("Mo-Fr"), 4: text("07:00-16:00")},
		4: {1: text("Kleinkindergruppe (Krippe)"), 2: num(40)},
		5: {1: text("Familiengruppe 2 - 6"), 2: text("42,5")},
		7: {0: text("E. SCHLIESSZEITEN")},
		8: {1: text("Hortgruppe"), 2: num(30)},
	})

	groups, failures := WalkFlat(sheet, 1, s)
	assert.Empty(t, failures)
	require.Len(t, groups, 2)
	assert.Equal(t, "Kindergartengruppe ganztags", groups[0].Group, "literal match reports declared name")
	assert.Equal(t, 3, groups[0].Row)
	assert.Equal(t, "Familiengruppe 2 - 6", groups[1].Group, "wildcard match reports cell text")

	records := AssembleAll("kiga.xlsx", sheet, Located{Groups: groups}, s)
	require.Len(t, records, 2)
	assert.Equal(t, types.Text("Kindergartengruppe ganztags"), records[0].Field("Gruppe"))
	assert.Equal(t, types.Number(45), records[0].Field("Stunden_pro_Woche"))
	assert.Equal(t, types.Text("Mo-Fr"), records[0].Field("Wochentage"))
	assert.Equal(t, types.Number(42.5), records[1].Field("Stunden_pro_Woche"))
	assert.True(t, records[1].Field("Wochentage").IsEmpty())
}

func TestWalkFlatNoGroups(t *testing.T) {
	s := hoursSchema()
	sheet := sheetOf("NB_KIGA", 4, map[int]map[int]workbook.Cell{
		0: {0: text("D. ÖFFNUNGSZEITEN")},
		1: {1: text("Unbekannt")},
	})

	groups, failures := WalkFlat(sheet, 0, s)
	assert.Empty(t, groups)
	require.Len(t, failures, 1)
	assert.Equal(t, types.StageItemLookup, failures[0].Stage)
}

func TestWalkFlatWithoutGroupColumn(t *testing.T) {
	s := hoursSchema()
	s.GroupColumn = nil
	sheet := sheetOf("NB_KIGA", 3, map[int]map[int]workbook.Cell{
		0: {0: text("D. ÖFFNUNGSZEITEN")},
		1: {1: text("Hortgruppe")},
	})

	var loc Located
	var failures []types.FailureEntry
	require.NotPanics(t, func() { loc, failures = Locate(sheet, 0, s) })
	assert.Zero(t, loc.Len())
	require.Len(t, failures, 1)
	assert.Contains(t, failures[0].Reason, "no group_column")
}

func TestWalkFlatWithoutAllowList(t *testing.T) {
	s := hoursSchema()
	s.TargetGroups = nil
	sheet := sheetOf("NB_KIGA", 4, map[int]map[int]workbook.Cell{
		0: {0: text("D. ÖFFNUNGSZEITEN")},
		1: {1: text("Irgendeine Gruppe")},
		2: {1: num(3)},
	})

	groups, failures := WalkFlat(sheet, 0, s)
	assert.Empty(t, failures)
	require.Len(t, groups, 1)
	assert.Equal(t, "Irgendeine Gruppe", groups[0].Group)
}

// --- values ---

func TestCoerce(t *testing.T) {
	tests := []struct {
		name string
		cell workbook.Cell
		want types.Value
	}{
		{"number passes through", num(50000), types.Number(50000)},
		{"zero stays zero", num(0), types.Number(0)},
		{"empty is absent", workbook.Cell{}, types.Value{}},
		{"blank text is absent", workbook.Cell{Kind: workbook.CellText, Text: "  "}, types.Value{}},
		{"decimal comma", text("1234,5"), types.Number(1234.5)},
		{"decimal point", text("1234.5"), types.Number(1234.5)},
		{"german thousands", text("21.000,50"), types.Number(21000.5)},
		{"english thousands", text("21,000.50"), types.Number(21000.5)},
		{"repeated dots", text("1.234.567"), types.Number(1234567)},
		{"negative", text("-12,5"), types.Number(-12.5)},
		{"spaced thousands", text("12 500"), types.Number(12500)},
		{"free text trimmed", text("  siehe Anhang "), types.Text("siehe Anhang")},
		{"percent stays text", text("45%"), types.Text("45%")},
		{"nan is text", text("NaN"), types.Text("NaN")},
		{"bool", workbook.BoolCell(true), types.Boolean(true)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Coerce(tt.cell))
		})
	}
}

func TestExtractValuesBlankIsNotZero(t *testing.T) {
	sheet := sheetOf("S", 2, map[int]map[int]workbook.Cell{
		0: {3: num(0)},
	})
	values := ExtractValues(sheet, 0, []types.ColumnSpec{{Field: "value_2022", Offset: 3}, {Field: "value_2023", Offset: 4}})

	assert.Equal(t, types.Number(0), values["value_2022"])
	assert.True(t, values["value_2023"].IsEmpty())
	assert.Nil(t, values["value_2023"].Any())
}

// --- end to end over one sheet ---

func TestLocateAndAssemble(t *testing.T) {
	s := personalSchema()
	sheet := personalSheet()

	anchor, err := Anchor(sheet, s.SectionPatterns, s.AnchorColumn)
	require.NoError(t, err)

	loc, failures := Locate(sheet, anchor.Row, s)
	assert.Empty(t, failures)

	records := AssembleAll("traeger_a.xlsx", sheet, loc, s)
	require.Len(t, records, 4)

	first := records[0]
	assert.Equal(t, "traeger_a.xlsx", first.SourceFile)
	assert.Equal(t, "1. BETREUUNGSPERSONAL", first.Category)
	assert.Equal(t, "Kindergärtner*innen...", first.Subcategory)
	assert.Equal(t, types.Text("Pädagogisches Personal"), first.SubcategoryDesc)
	assert.Equal(t, types.Number(50000), first.Field("value_2022"))
	assert.Equal(t, types.Number(52000), first.Field("value_2023"))
	assert.Equal(t, types.Text(""), first.Comment)

	second := records[1]
	assert.Equal(t, types.Number(21000.5), second.Field("value_2023"))
	assert.Equal(t, types.Text("inkl. Vertretung"), second.Comment)

	leitung := records[2]
	assert.Equal(t, types.Text(""), leitung.SubcategoryDesc, "no description defaults to empty text")
	assert.True(t, leitung.Field("value_2023").IsEmpty())

	sonstiges := records[3]
	assert.Equal(t, types.Number(0), sonstiges.Field("value_2022"))
	assert.Equal(t, 18, sonstiges.Row)
}

func TestSubcategoryDescOmit(t *testing.T) {
	s := personalSchema()
	s.SubcategoryDescDefault = types.DescOmit

	sheet := personalSheet()
	loc, _ := Locate(sheet, 10, s)
	records := AssembleAll("a.xlsx", sheet, loc, s)
	require.Len(t, records, 4)

	assert.Equal(t, types.Text("Pädagogisches Personal"), records[0].SubcategoryDesc)
	assert.True(t, records[2].SubcategoryDesc.IsEmpty())
}
