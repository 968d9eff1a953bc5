// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package schema loads and validates extraction schema documents. A schema
// document is YAML named <type>_structure.yaml; every extraction type is
// data consumed by the one generic engine in internal/extract.
package schema

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/kiga-extract/pkg/types"
)

const fileSuffix = "_structure.yaml"

// fileNames maps extraction types whose document name differs from the type.
var fileNames = map[string]string{
	"vermoegen": "vermoegensuebersicht" + fileSuffix,
}

// SchemaError reports an unusable schema document. It is fatal for a run.
type SchemaError struct {
	Path     string
	Problems []string
}

func (e *SchemaError) Error() string {
	where := e.Path
	if where == "" {
		where = "schema"
	}
	return fmt.Sprintf("%s: %s", where, strings.Join(e.Problems, "; "))
}

// FileName returns the document file name for an extraction type.
func FileName(typ string) string {
	if name, ok := fileNames[typ]; ok {
		return name
	}
	return typ + fileSuffix
}

// LoadType loads the schema for typ from dir.
func LoadType(dir, typ string) (*types.ExtractionSchema, error) {
	s, err := Load(filepath.Join(dir, FileName(typ)))
	if err != nil {
		return nil, err
	}
	if s.Type != typ {
		return nil, &SchemaError{
			Path:     filepath.Join(dir, FileName(typ)),
			Problems: []string{fmt.Sprintf("document declares type %q, want %q", s.Type, typ)},
		}
	}
	return s, nil
}

// Load reads, defaults, and validates one schema document. Unknown keys are
// rejected so that a misspelled field fails loudly instead of being ignored.
func Load(path string) (*types.ExtractionSchema, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening schema %s: %w", path, err)
	}
	defer f.Close()

	s, err := Decode(f)
	if err != nil {
		var se *SchemaError
		if errors.As(err, &se) {
			se.Path = path
			return nil, se
		}
		return nil, &SchemaError{Path: path, Problems: []string{err.Error()}}
	}
	return s, nil
}

// Decode parses a schema document from r, applies defaults, and validates it.
func Decode(r io.Reader) (*types.ExtractionSchema, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var s types.ExtractionSchema
	if err := dec.Decode(&s); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &SchemaError{Problems: []string{"empty document"}}
		}
		return nil, fmt.Errorf("parsing schema: %w", err)
	}
	applyDefaults(&s)
	if err := Validate(&s); err != nil {
		return nil, err
	}
	return &s, nil
}

// List returns the extraction types with a schema document in dir, sorted.
func List(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading schema dir %s: %w", dir, err)
	}
	reverse := make(map[string]string, len(fileNames))
	for typ, name := range fileNames {
		reverse[name] = typ
	}

	var out []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, fileSuffix) {
			continue
		}
		if typ, ok := reverse[name]; ok {
			out = append(out, typ)
			continue
		}
		out = append(out, strings.TrimSuffix(name, fileSuffix))
	}
	sort.Strings(out)
	return out, nil
}

func applyDefaults(s *types.ExtractionSchema) {
	if s.Shape == "" {
		s.Shape = types.ShapeHierarchical
	}
	if s.SubcategoryDescDefault == "" {
		s.SubcategoryDescDefault = types.DescEmpty
	}
	if s.SectionID != "" && !slices.Contains(s.SectionPatterns, s.SectionID) {
		s.SectionPatterns = append([]string{s.SectionID}, s.SectionPatterns...)
	}
}

// Validate checks a schema for the problems that would make extraction
// meaningless. All problems are collected into one *SchemaError.
func Validate(s *types.ExtractionSchema) error {
	var p []string
	add := func(format string, args ...any) { p = append(p, fmt.Sprintf(format, args...)) }

	if s.Type == "" {
		add("type is required")
	}
	if len(s.SheetPatterns) == 0 {
		add("sheet_patterns must not be empty")
	}
	if len(s.SectionPatterns) == 0 {
		add("section_id or section_patterns is required")
	}
	if len(s.OutputColumns) == 0 {
		add("output_columns must not be empty")
	}
	for _, c := range []struct {
		name string
		col  *int
	}{
		{"anchor_column", s.AnchorColumn},
		{"label_column", s.LabelColumn},
		{"comment_column", s.CommentColumn},
		{"group_column", s.GroupColumn},
	} {
		if c.col != nil && *c.col < 0 {
			add("%s must be >= 0", c.name)
		}
	}
	switch s.SubcategoryDescDefault {
	case types.DescEmpty, types.DescOmit:
	default:
		add("subcategory_desc_default %q must be empty or omit", s.SubcategoryDescDefault)
	}

	var fields []types.ColumnSpec
	switch s.Shape {
	case types.ShapeHierarchical:
		fields = s.ValueColumns
		if len(s.Categories) == 0 {
			add("hierarchical schema needs at least one category")
		}
		for i, cat := range s.Categories {
			if strings.TrimSpace(cat.Label) == "" {
				add("categories[%d]: label is required", i)
			}
			if len(cat.Items) == 0 {
				add("category %q has no items", cat.Label)
			}
			for j, item := range cat.Items {
				if strings.TrimSpace(item.Label) == "" {
					add("category %q: items[%d]: label is required", cat.Label, j)
				}
			}
		}
		if len(s.ValueColumns) == 0 {
			add("hierarchical schema needs value_columns")
		}
	case types.ShapeFlat:
		fields = s.Columns
		if s.GroupColumn == nil {
			add("flat schema needs group_column")
		}
		if len(s.Columns) == 0 {
			add("flat schema needs columns")
		}
	default:
		add("unknown shape %q", s.Shape)
	}

	known := map[string]bool{
		types.FieldSourceFile:      true,
		types.FieldSection:         true,
		types.FieldCategory:        true,
		types.FieldSubcategory:     true,
		types.FieldSubcategoryDesc: true,
		types.FieldDetail:          true,
		types.FieldComment:         true,
	}
	if s.GroupField != "" {
		known[s.GroupField] = true
	}
	for _, f := range fields {
		if f.Field == "" {
			add("column at offset %d has no field name", f.Offset)
			continue
		}
		if f.Offset < 0 {
			add("field %q: offset must be >= 0", f.Field)
		}
		if known[f.Field] {
			add("duplicate field %q", f.Field)
		}
		known[f.Field] = true
	}

	seen := make(map[string]bool, len(s.OutputColumns))
	for _, c := range s.OutputColumns {
		if seen[c] {
			add("output column %q listed twice", c)
		}
		seen[c] = true
		if !known[c] {
			add("output column %q is not produced by the schema", c)
		}
	}
	for field, t := range s.TypeOverrides {
		if !t.Valid() {
			add("type_overrides[%s]: unknown column type %q", field, t)
		}
	}

	if len(p) > 0 {
		sort.Strings(p)
		return &SchemaError{Problems: p}
	}
	return nil
}
