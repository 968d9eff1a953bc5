// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package infer picks a relational column type for every output field from
// the values observed across all records of a run.
package infer

import (
	"math"
	"strings"
	"time"

	"github.com/pdiddy/kiga-extract/pkg/types"
)

// DefaultLongTextKeywords mark free-text fields that need a wide column.
var DefaultLongTextKeywords = []string{"beschreibung", "erlaeuterung", "kommentar", "comment", "eintrag", "desc"}

// DateLayouts are the date spellings recognized in text cells, both when
// inferring datetime columns and when binding values to them.
var DateLayouts = []string{
	"2006-01-02",
	"02.01.2006",
	time.RFC3339,
	"2006-01-02 15:04:05",
}

// Options tunes inference.
type Options struct {
	// LongTextKeywords promote text fields whose name contains one of the
	// keywords (case-insensitive) to long text.
	LongTextKeywords []string

	// Overrides fix the type of the named fields and skip inference.
	Overrides map[string]types.ColumnType
}

// DefaultOptions returns options with the default long-text keywords.
func DefaultOptions() Options {
	return Options{LongTextKeywords: DefaultLongTextKeywords}
}

// Infer returns one column type per requested column. The result depends
// only on the multiset of values, so repeated calls over the same records
// agree.
func Infer(records []types.ExtractedRecord, columns []string, opts Options) map[string]types.ColumnType {
	out := make(map[string]types.ColumnType, len(columns))
	for _, col := range columns {
		if t, ok := opts.Overrides[col]; ok && t.Valid() {
			out[col] = t
			continue
		}
		values := make([]types.Value, 0, len(records))
		for _, r := range records {
			values = append(values, r.Field(col))
		}
		out[col] = Column(col, values, opts.LongTextKeywords)
	}
	return out
}

// Column infers the type of a single field from its values. Empty values
// are ignored; a column with no present values is short text.
func Column(name string, values []types.Value, keywords []string) types.ColumnType {
	var (
		present  int
		numbers  int
		integral = true
		bools    int
		dates    int
	)
	for _, v := range values {
		switch v.Kind {
		case types.ValueEmpty:
			continue
		case types.ValueNumber:
			numbers++
			if v.Num != math.Trunc(v.Num) || math.IsInf(v.Num, 0) {
				integral = false
			}
		case types.ValueBool:
			bools++
		case types.ValueText:
			if strings.TrimSpace(v.Str) == "" {
				continue
			}
			switch {
			case isDate(v.Str):
				dates++
			case isBoolToken(v.Str):
				bools++
			}
		}
		present++
	}

	switch {
	case present == 0:
		return types.ColumnShortText
	case numbers == present && integral:
		return types.ColumnInteger
	case numbers == present:
		return types.ColumnFloat
	case dates == present:
		return types.ColumnDateTime
	case bools == present:
		return types.ColumnBoolean
	}
	if isLongText(name, keywords) {
		return types.ColumnLongText
	}
	return types.ColumnShortText
}

// ParseDate parses s with the first matching layout of DateLayouts.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range DateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ParseBoolToken reads the German and English yes/no spellings.
func ParseBoolToken(s string) (value, ok bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "ja", "yes":
		return true, true
	case "false", "nein", "no":
		return false, true
	}
	return false, false
}

func isDate(s string) bool {
	_, ok := ParseDate(s)
	return ok
}

func isBoolToken(s string) bool {
	_, ok := ParseBoolToken(s)
	return ok
}

func isLongText(name string, keywords []string) bool {
	n := strings.ToLower(name)
	for _, k := range keywords {
		if k != "" && strings.Contains(n, strings.ToLower(k)) {
			return true
		}
	}
	return false
}
