// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package sink writes extracted records and the failure manifest to their
// destinations: CSV files and a relational table.
package sink

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pdiddy/kiga-extract/pkg/types"
)

// FailureColumns is the header of the failure manifest.
var FailureColumns = []string{"source_file", "stage", "reason", "category", "expected", "found"}

// WriteRecordsCSV writes a header row and one row per record, projected onto
// columns. Absent values are written as empty fields.
func WriteRecordsCSV(w io.Writer, columns []string, records []types.ExtractedRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(columns); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	row := make([]string, len(columns))
	for i, r := range records {
		for j, v := range r.Project(columns) {
			row[j] = v.String()
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing record %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteFailuresCSV writes the failure manifest.
func WriteFailuresCSV(w io.Writer, failures []types.FailureEntry) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(FailureColumns); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, f := range failures {
		row := []string{f.SourceFile, string(f.Stage), f.Reason, f.Category, f.Expected, f.Found}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing failure %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteFile writes path through a temporary file in the same directory and
// renames it into place, so readers never see a partial file.
func WriteFile(path string, write func(io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return fmt.Errorf("setting mode on %s: %w", path, err)
	}
	if err := write(tmp); err != nil {
		tmp.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("renaming into %s: %w", path, err)
	}
	return nil
}
