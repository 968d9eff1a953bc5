// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"github.com/pdiddy/kiga-extract/pkg/types"
)

// Assemble builds the output record for one matched item.
func Assemble(sourceFile, sheet string, m Match, values map[string]types.Value, comment types.Value, s *types.ExtractionSchema) types.ExtractedRecord {
	return types.ExtractedRecord{
		SourceFile:      sourceFile,
		Sheet:           sheet,
		Row:             m.Row,
		Section:         s.SectionID,
		Category:        m.Category.Label,
		Subcategory:     m.Item.Label,
		SubcategoryDesc: describe(m.Category, s.SubcategoryDescDefault),
		Detail:          m.Item.Detail,
		Comment:         comment,
		Values:          values,
	}
}

// AssembleFlat builds the output record for one group row of a flat schema.
// The group name is exposed both as the subcategory and, when configured,
// under the schema's group field.
func AssembleFlat(sourceFile, sheet string, m FlatMatch, values map[string]types.Value, s *types.ExtractionSchema) types.ExtractedRecord {
	if s.GroupField != "" {
		values[s.GroupField] = types.Text(m.Group)
	}
	return types.ExtractedRecord{
		SourceFile:      sourceFile,
		Sheet:           sheet,
		Row:             m.Row,
		Section:         s.SectionID,
		Subcategory:     m.Group,
		SubcategoryDesc: describe(types.Category{}, s.SubcategoryDescDefault),
		Comment:         types.Text(""),
		Values:          values,
	}
}

func describe(cat types.Category, def types.DescDefault) types.Value {
	if cat.Description != "" {
		return types.Text(cat.Description)
	}
	if def == types.DescOmit {
		return types.Value{}
	}
	return types.Text("")
}
