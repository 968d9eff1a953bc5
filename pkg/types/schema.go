// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"fmt"

	"go.yaml.in/yaml/v3"
)

// SchemaShape selects the leaf shape of an extraction schema.
type SchemaShape string

const (
	// ShapeHierarchical walks a category → item tree below the section anchor.
	ShapeHierarchical SchemaShape = "hierarchical"
	// ShapeFlat reads fixed column offsets on every row below the anchor
	// whose group column names one of the target groups (e.g. opening hours).
	ShapeFlat SchemaShape = "flat"
)

// DescDefault controls how subcategory_desc is emitted for categories
// without a description.
type DescDefault string

const (
	DescEmpty DescDefault = "empty" // empty text
	DescOmit  DescDefault = "omit"  // absent (NULL in relational sinks)
)

// ExtractionSchema is the declarative description of what to extract for
// one extraction type. It is loaded once per run and read-only thereafter.
type ExtractionSchema struct {
	// Type is the extraction type identifier (e.g. "personalausgaben").
	Type string `json:"type" yaml:"type"`

	// Shape selects hierarchical (category/item) or flat (column-mapped) walking.
	Shape SchemaShape `json:"shape" yaml:"shape"`

	// SheetPatterns are tried in order; the first pattern that matches any
	// sheet wins.
	SheetPatterns []string `json:"sheet_patterns" yaml:"sheet_patterns"`

	// SectionID is the canonical label of the section anchor.
	SectionID string `json:"section_id" yaml:"section_id"`

	// SectionPatterns lists every accepted wording of the section label.
	SectionPatterns []string `json:"section_patterns" yaml:"section_patterns"`

	// AnchorColumn restricts the anchor scan to one column. Nil scans every
	// cell of each row.
	AnchorColumn *int `json:"anchor_column,omitempty" yaml:"anchor_column,omitempty"`

	// LabelColumn restricts category and item label matching to one column.
	// Nil matches any text cell of the row.
	LabelColumn *int `json:"label_column,omitempty" yaml:"label_column,omitempty"`

	// StopPatterns end the section: rows at or below the first match are
	// never walked.
	StopPatterns []string `json:"stop_patterns,omitempty" yaml:"stop_patterns,omitempty"`

	// Categories in source order.
	Categories []Category `json:"categories,omitempty" yaml:"categories,omitempty"`

	// ValueColumns are the per-year value columns read at each matched item row.
	ValueColumns []ColumnSpec `json:"value_columns,omitempty" yaml:"value_columns,omitempty"`

	// CommentColumn is the zero-based column holding free-text comments.
	CommentColumn *int `json:"comment_column,omitempty" yaml:"comment_column,omitempty"`

	// Columns maps fields to offsets for flat schemas.
	Columns []ColumnSpec `json:"columns,omitempty" yaml:"columns,omitempty"`

	// GroupColumn is the zero-based column holding the group name (flat only).
	GroupColumn *int `json:"group_column,omitempty" yaml:"group_column,omitempty"`

	// GroupField is the output field that receives the group name (flat only).
	GroupField string `json:"group_field,omitempty" yaml:"group_field,omitempty"`

	// TargetGroups is the allow-list of group names (flat only). Empty
	// accepts every non-blank group.
	TargetGroups []string `json:"target_groups,omitempty" yaml:"target_groups,omitempty"`

	// OutputColumns is the ordered output row shape.
	OutputColumns []string `json:"output_columns" yaml:"output_columns"`

	// TypeOverrides bypass type inference for the named fields.
	TypeOverrides map[string]ColumnType `json:"type_overrides,omitempty" yaml:"type_overrides,omitempty"`

	// SubcategoryDescDefault applies to categories without a description.
	SubcategoryDescDefault DescDefault `json:"subcategory_desc_default,omitempty" yaml:"subcategory_desc_default,omitempty"`
}

// Category is one level-1 label of a hierarchical schema.
type Category struct {
	Label       string   `json:"label" yaml:"label"`
	Variants    []string `json:"variants,omitempty" yaml:"variants,omitempty"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	Items       []Item   `json:"items" yaml:"items"`
}

// Patterns returns the label followed by its declared variants.
func (c Category) Patterns() []string {
	return append([]string{c.Label}, c.Variants...)
}

// Item is one level-2 label within a category. In schema documents an item
// is either a plain string (the label) or a mapping with variants and detail.
type Item struct {
	Label    string   `json:"label" yaml:"label"`
	Variants []string `json:"variants,omitempty" yaml:"variants,omitempty"`
	Detail   string   `json:"detail,omitempty" yaml:"detail,omitempty"`
}

// Patterns returns the label followed by its declared variants.
func (i Item) Patterns() []string {
	return append([]string{i.Label}, i.Variants...)
}

// UnmarshalYAML accepts both the scalar and the mapping form of an item.
func (i *Item) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		return node.Decode(&i.Label)
	}
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: item must be a string or a mapping", node.Line)
	}
	type plain Item
	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}
	*i = Item(p)
	return nil
}

// ColumnSpec binds an output field to a zero-based column offset.
type ColumnSpec struct {
	Field  string `json:"field" yaml:"field"`
	Offset int    `json:"offset" yaml:"offset"`
}

// ColumnType is the relational column type inferred for an output field.
type ColumnType string

const (
	ColumnInteger   ColumnType = "integer"
	ColumnFloat     ColumnType = "float"
	ColumnDateTime  ColumnType = "datetime"
	ColumnBoolean   ColumnType = "boolean"
	ColumnShortText ColumnType = "short_text"
	ColumnLongText  ColumnType = "long_text"
)

// Valid reports whether t is one of the known column types.
func (t ColumnType) Valid() bool {
	switch t {
	case ColumnInteger, ColumnFloat, ColumnDateTime, ColumnBoolean, ColumnShortText, ColumnLongText:
		return true
	}
	return false
}
