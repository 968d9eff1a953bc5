// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pdiddy/kiga-extract/internal/schema"
	"github.com/pdiddy/kiga-extract/pkg/types"
)

var schemasCmd = &cobra.Command{
	Use:   "schemas",
	Short: "List and validate the schema documents",
	Long: `Schemas loads every <type>_structure.yaml in --schema-dir, validates it,
and prints one line per extraction type. It exits non-zero when any
document is invalid.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, _ := cmd.Flags().GetString("schema-dir")
		return listSchemas(dir, cmd.OutOrStdout())
	},
}

func init() {
	schemasCmd.Flags().String("schema-dir", filepath.Join("config", "schemas"), "directory of schema documents")
	rootCmd.AddCommand(schemasCmd)
}

func listSchemas(dir string, w io.Writer) error {
	names, err := schema.List(dir)
	if err != nil {
		return err
	}
	invalid := 0
	for _, name := range names {
		s, err := schema.LoadType(dir, name)
		if err != nil {
			fmt.Fprintf(w, "invalid %s: %v\n", name, err)
			invalid++
			continue
		}
		fmt.Fprintf(w, "%-24s %s\n", name, describeSchema(s))
	}
	if invalid > 0 {
		return fmt.Errorf("%d of %d schema(s) invalid", invalid, len(names))
	}
	return nil
}

func describeSchema(s *types.ExtractionSchema) string {
	if s.Shape == types.ShapeFlat {
		return fmt.Sprintf("flat, section %q, %d target groups, %d columns",
			s.SectionID, len(s.TargetGroups), len(s.Columns))
	}
	items := 0
	for _, c := range s.Categories {
		items += len(c.Items)
	}
	return fmt.Sprintf("hierarchical, section %q, %d categories, %d items",
		s.SectionID, len(s.Categories), items)
}
