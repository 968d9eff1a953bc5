// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/pdiddy/kiga-extract/internal/workbook"
	"github.com/pdiddy/kiga-extract/pkg/types"
)

// numericText accepts digits with optional sign and '.'/',' separators.
var numericText = regexp.MustCompile(`^[+-]?[0-9.,]*[0-9][0-9.,]*$`)

// ExtractValues reads each value column at row. Missing or blank cells
// yield empty values, never zero.
func ExtractValues(sheet *workbook.Sheet, row int, columns []types.ColumnSpec) map[string]types.Value {
	out := make(map[string]types.Value, len(columns))
	for _, col := range columns {
		out[col.Field] = Coerce(sheet.Cell(row, col.Offset))
	}
	return out
}

// Coerce converts a raw cell to a semantic value. Numbers and booleans pass
// through; text that reads as a decimal number (with '.' or ',' as decimal
// separator) becomes a number; other text is trimmed.
func Coerce(c workbook.Cell) types.Value {
	switch c.Kind {
	case workbook.CellNumber:
		return types.Number(c.Number)
	case workbook.CellBool:
		return types.Boolean(c.Bool)
	case workbook.CellText:
		s := strings.TrimSpace(c.Text)
		if s == "" {
			return types.Value{}
		}
		if f, ok := ParseDecimal(s); ok {
			return types.Number(f)
		}
		return types.Text(s)
	}
	return types.Value{}
}

// ParseDecimal parses locale-ambiguous decimal text. When both separators
// appear, the last one is the decimal separator and the other groups
// thousands. A lone ',' is a decimal comma; repeated identical separators
// group thousands.
func ParseDecimal(s string) (float64, bool) {
	s = strings.NewReplacer(" ", "", "\u00a0", "", "'", "").Replace(strings.TrimSpace(s))
	if !numericText.MatchString(s) {
		return 0, false
	}

	lastDot := strings.LastIndex(s, ".")
	lastComma := strings.LastIndex(s, ",")
	switch {
	case lastDot >= 0 && lastComma >= 0:
		if lastComma > lastDot {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case lastComma >= 0:
		if strings.Count(s, ",") > 1 {
			s = strings.ReplaceAll(s, ",", "")
		} else {
			s = strings.Replace(s, ",", ".", 1)
		}
	case strings.Count(s, ".") > 1:
		s = strings.ReplaceAll(s, ".", "")
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// commentValue reads the comment cell as trimmed text. A blank comment is
// empty text rather than an absent value.
func commentValue(sheet *workbook.Sheet, row int, column *int) types.Value {
	if column == nil {
		return types.Text("")
	}
	c := sheet.Cell(row, *column)
	if c.Kind == workbook.CellEmpty {
		return types.Text("")
	}
	return types.Text(strings.TrimSpace(c.Text))
}
