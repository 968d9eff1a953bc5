// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"strings"

	"github.com/pdiddy/kiga-extract/internal/match"
	"github.com/pdiddy/kiga-extract/internal/workbook"
	"github.com/pdiddy/kiga-extract/pkg/types"
)

// FlatMatch is one group row of a flat, column-mapped schema.
type FlatMatch struct {
	Row   int
	Group string
	Label match.Result
}

// WalkFlat returns every row below the anchor whose group column names an
// allow-listed target group. Literal matches report the declared group name
// so that spacing drift does not leak into the output. A section without any
// target group row yields one item-lookup failure, and so does a schema
// without a group column.
func WalkFlat(sheet *workbook.Sheet, anchorRow int, s *types.ExtractionSchema) ([]FlatMatch, []types.FailureEntry) {
	if s.GroupColumn == nil {
		return nil, []types.FailureEntry{{
			Stage:  types.StageItemLookup,
			Reason: "flat schema declares no group_column",
		}}
	}
	col := *s.GroupColumn
	end := sectionEnd(sheet, anchorRow+1, s.StopPatterns, s.LabelColumn)

	var matches []FlatMatch
	for r := anchorRow + 1; r < end; r++ {
		group := sheet.Label(r, col)
		if group == "" {
			continue
		}
		if len(s.TargetGroups) == 0 {
			matches = append(matches, FlatMatch{
				Row:   r,
				Group: group,
				Label: match.Result{Row: r, Column: col, Variant: group, Tier: match.TierExact},
			})
			continue
		}
		variant, tier, ok := match.Any(group, s.TargetGroups)
		if !ok {
			continue
		}
		name := variant
		if tier == match.TierWildcard {
			name = group
		}
		matches = append(matches, FlatMatch{
			Row:   r,
			Group: name,
			Label: match.Result{Row: r, Column: col, Variant: variant, Tier: tier},
		})
	}

	if len(matches) == 0 {
		return nil, []types.FailureEntry{{
			Stage:    types.StageItemLookup,
			Reason:   "no target group rows in section",
			Expected: strings.Join(s.TargetGroups, "; "),
		}}
	}
	return matches, nil
}
