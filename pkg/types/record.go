// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "strconv"

// ValueKind tags the semantic type of an extracted Value.
type ValueKind int

const (
	ValueEmpty ValueKind = iota
	ValueNumber
	ValueText
	ValueBool
)

// Value is one extracted cell value. The zero Value is empty, which is
// distinct from a reported zero.
type Value struct {
	Kind ValueKind
	Num  float64
	Str  string
	Bool bool
}

// Number returns a numeric Value.
func Number(f float64) Value { return Value{Kind: ValueNumber, Num: f} }

// Text returns a text Value. Empty text is still text, not an absent value.
func Text(s string) Value { return Value{Kind: ValueText, Str: s} }

// Boolean returns a boolean Value.
func Boolean(b bool) Value { return Value{Kind: ValueBool, Bool: b} }

// IsEmpty reports whether the value is the absent marker.
func (v Value) IsEmpty() bool { return v.Kind == ValueEmpty }

// String renders the value for CSV output. Empty values render as "".
func (v Value) String() string {
	switch v.Kind {
	case ValueNumber:
		return strconv.FormatFloat(v.Num, 'f', -1, 64)
	case ValueText:
		return v.Str
	case ValueBool:
		return strconv.FormatBool(v.Bool)
	}
	return ""
}

// Any returns the value as a driver-friendly Go value; empty is nil.
func (v Value) Any() any {
	switch v.Kind {
	case ValueNumber:
		return v.Num
	case ValueText:
		return v.Str
	case ValueBool:
		return v.Bool
	}
	return nil
}

// Well-known output field names backed by ExtractedRecord provenance.
const (
	FieldSourceFile      = "source_file"
	FieldSection         = "section"
	FieldCategory        = "category"
	FieldSubcategory     = "subcategory"
	FieldSubcategoryDesc = "subcategory_desc"
	FieldDetail          = "detail"
	FieldComment         = "comment"
)

// ExtractedRecord is one normalized output row. Every record traces to a
// schema-declared item (or, for flat schemas, an allow-listed group row).
type ExtractedRecord struct {
	SourceFile      string
	Sheet           string
	Row             int
	Section         string
	Category        string
	Subcategory     string
	SubcategoryDesc Value
	Detail          string
	Comment         Value

	// Values holds the value columns keyed by output field.
	Values map[string]Value
}

// Field resolves an output column name against the record.
func (r ExtractedRecord) Field(name string) Value {
	switch name {
	case FieldSourceFile:
		return Text(r.SourceFile)
	case FieldSection:
		return Text(r.Section)
	case FieldCategory:
		return Text(r.Category)
	case FieldSubcategory:
		return Text(r.Subcategory)
	case FieldSubcategoryDesc:
		return r.SubcategoryDesc
	case FieldDetail:
		return Text(r.Detail)
	case FieldComment:
		return r.Comment
	}
	return r.Values[name]
}

// Project returns the record's values in the given column order.
func (r ExtractedRecord) Project(columns []string) []Value {
	out := make([]Value, len(columns))
	for i, c := range columns {
		out[i] = r.Field(c)
	}
	return out
}

// Stage names the pipeline stage at which a failure was recorded.
type Stage string

const (
	StageFileRead       Stage = "file-read"
	StageSheetLookup    Stage = "sheet-lookup"
	StageSectionLookup  Stage = "section-lookup"
	StageCategoryLookup Stage = "category-lookup"
	StageItemLookup     Stage = "item-lookup"
	StageSQLBind        Stage = "sql-bind"
)

// FailureEntry is one auditable miss or error, written to the failure manifest.
type FailureEntry struct {
	SourceFile string `json:"source_file" yaml:"source_file"`
	Stage      Stage  `json:"stage" yaml:"stage"`
	Reason     string `json:"reason" yaml:"reason"`
	Category   string `json:"category,omitempty" yaml:"category,omitempty"`
	Expected   string `json:"expected,omitempty" yaml:"expected,omitempty"`
	Found      string `json:"found,omitempty" yaml:"found,omitempty"`
}

// FileFatal reports whether the failure stopped extraction for its file.
func (f FailureEntry) FileFatal() bool {
	switch f.Stage {
	case StageFileRead, StageSheetLookup, StageSectionLookup:
		return true
	}
	return false
}
