// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"path/filepath"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/kiga-extract/internal/batch"
	"github.com/pdiddy/kiga-extract/internal/sink"
	"github.com/pdiddy/kiga-extract/pkg/types"
)

// outputs names the files one run writes.
type outputs struct {
	Records  string `yaml:"records"`
	Failures string `yaml:"failures"`
	Summary  string `yaml:"summary"`
}

func outputPaths(dir, typ string) outputs {
	return outputs{
		Records:  filepath.Join(dir, "kindergarten_"+typ+".csv"),
		Failures: filepath.Join(dir, "errors_"+typ+".csv"),
		Summary:  filepath.Join(dir, "summary_"+typ+".yaml"),
	}
}

// report is the summary document written at the end of a run.
type report struct {
	RunID       string              `yaml:"run_id"`
	Type        string              `yaml:"type"`
	Section     string              `yaml:"section"`
	FinishedAt  time.Time           `yaml:"finished_at"`
	Summary     batch.Summary       `yaml:"summary"`
	Outputs     outputs             `yaml:"outputs"`
	Table       string              `yaml:"table,omitempty"`
	SQLError    string              `yaml:"sql_error,omitempty"`
	ColumnTypes []columnType        `yaml:"column_types"`
	Files       []fileReport        `yaml:"files"`
	Failures    map[types.Stage]int `yaml:"failures_by_stage,omitempty"`
}

type columnType struct {
	Name string           `yaml:"name"`
	Type types.ColumnType `yaml:"type"`
}

type fileReport struct {
	Name     string `yaml:"name"`
	State    string `yaml:"state"`
	Sheet    string `yaml:"sheet,omitempty"`
	Records  int    `yaml:"records"`
	Failures int    `yaml:"failures"`
}

func newReport(res *batch.Result, s *types.ExtractionSchema, out outputs, table string) report {
	r := report{
		RunID:      res.RunID,
		Type:       res.Type,
		Section:    s.SectionID,
		FinishedAt: time.Now().UTC().Truncate(time.Second),
		Summary:    res.Summary,
		Outputs:    out,
		Table:      table,
	}
	for _, c := range s.OutputColumns {
		r.ColumnTypes = append(r.ColumnTypes, columnType{Name: c, Type: res.ColumnTypes[c]})
	}
	for _, o := range res.Files {
		r.Files = append(r.Files, fileReport{
			Name:     o.Name,
			State:    o.State.String(),
			Sheet:    o.Sheet,
			Records:  len(o.Records),
			Failures: len(o.Failures),
		})
	}
	if len(res.Failures) > 0 {
		r.Failures = make(map[types.Stage]int)
		for _, f := range res.Failures {
			r.Failures[f.Stage]++
		}
	}
	return r
}

func writeReport(path string, r report) error {
	return sink.WriteFile(path, func(w io.Writer) error {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return fmt.Errorf("encoding summary: %w", err)
		}
		return enc.Close()
	})
}
