// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package batch drives extraction over a set of workbook files. Each file
// moves through a small state machine; any stage failure is recorded as a
// failure entry and the batch continues with the next file. Type inference
// runs once over the accumulated records of the whole batch.
package batch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/kiga-extract/internal/extract"
	"github.com/pdiddy/kiga-extract/internal/infer"
	"github.com/pdiddy/kiga-extract/internal/metrics"
	"github.com/pdiddy/kiga-extract/internal/workbook"
	"github.com/pdiddy/kiga-extract/pkg/types"
)

// State is the position of one file in the extraction pipeline.
type State int

const (
	StatePending State = iota
	StateSheetLocated
	StateSectionAnchored
	StateWalked
	StateAssembled
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateSheetLocated:
		return "sheet-located"
	case StateSectionAnchored:
		return "section-anchored"
	case StateWalked:
		return "walked"
	case StateAssembled:
		return "assembled"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Config controls a batch run.
type Config struct {
	// Workers bounds how many files are extracted concurrently (default 1).
	Workers int

	// Logger receives structured progress; nil disables logging.
	Logger *zap.Logger

	// Metrics collects run counters; nil disables metrics.
	Metrics *metrics.BatchMetrics

	// Out receives one human-readable line per file and a summary line;
	// nil discards them.
	Out io.Writer

	// Infer configures column type inference.
	Infer infer.Options
}

// FileOutcome is the result of extracting one file.
type FileOutcome struct {
	Path      string
	Name      string
	State     State
	Sheet     string
	AnchorRow int
	Records   []types.ExtractedRecord
	Failures  []types.FailureEntry
	Duration  time.Duration
}

// Failed reports whether a fatal stage stopped the file.
func (o FileOutcome) Failed() bool { return o.State == StateFailed }

// Summary counts the outcome of a run.
type Summary struct {
	FilesProcessed    int `json:"files_processed" yaml:"files_processed"`
	FilesSucceeded    int `json:"files_succeeded" yaml:"files_succeeded"`
	FilesFailed       int `json:"files_failed" yaml:"files_failed"`
	Records           int `json:"records" yaml:"records"`
	ItemsMissing      int `json:"items_missing" yaml:"items_missing"`
	CategoriesMissing int `json:"categories_missing" yaml:"categories_missing"`
}

// Total returns the number of files processed.
func (s Summary) Total() int { return s.FilesSucceeded + s.FilesFailed }

// HasFailures reports whether any file failed or any declared label was missed.
func (s Summary) HasFailures() bool {
	return s.FilesFailed > 0 || s.ItemsMissing > 0 || s.CategoriesMissing > 0
}

// Result is everything a run produced, in input file order.
type Result struct {
	RunID       string
	Type        string
	Records     []types.ExtractedRecord
	Failures    []types.FailureEntry
	ColumnTypes map[string]types.ColumnType
	Files       []FileOutcome
	Summary     Summary
}

// Run extracts every file with schema s. Per-file problems never abort the
// run; only context cancellation does. Records and failures keep the order
// of files, whatever the worker count.
func Run(ctx context.Context, files []string, s *types.ExtractionSchema, cfg Config) (*Result, error) {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	out := cfg.Out
	if out == nil {
		out = io.Discard
	}
	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}

	runID := uuid.NewString()
	log = log.With(zap.String("run_id", runID), zap.String("type", s.Type))
	log.Info("batch: starting", zap.Int("files", len(files)), zap.Int("workers", workers))

	outcomes := make([]FileOutcome, len(files))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, path := range files {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			cfg.Metrics.StartFile()
			o := ExtractFile(path, s)
			cfg.Metrics.FinishFile(o.Duration, o.Failed())
			cfg.Metrics.AddRecords(s.SectionID, len(o.Records))
			cfg.Metrics.ObserveFailures(o.Failures)
			logOutcome(log, o)
			outcomes[i] = o
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("batch interrupted: %w", err)
	}

	res := &Result{RunID: runID, Type: s.Type, Files: outcomes}
	for _, o := range outcomes {
		res.Records = append(res.Records, o.Records...)
		res.Failures = append(res.Failures, o.Failures...)
		res.Summary.FilesProcessed++
		if o.Failed() {
			res.Summary.FilesFailed++
			fmt.Fprintf(out, "failed  %s: %s\n", o.Name, o.Failures[len(o.Failures)-1].Reason)
			continue
		}
		res.Summary.FilesSucceeded++
		missing := 0
		for _, f := range o.Failures {
			switch f.Stage {
			case types.StageItemLookup:
				res.Summary.ItemsMissing++
				missing++
			case types.StageCategoryLookup:
				res.Summary.CategoriesMissing++
				missing++
			}
		}
		if missing > 0 {
			fmt.Fprintf(out, "extracted %s (%d records, %d missing)\n", o.Name, len(o.Records), missing)
		} else {
			fmt.Fprintf(out, "extracted %s (%d records)\n", o.Name, len(o.Records))
		}
	}
	res.Summary.Records = len(res.Records)

	opts := cfg.Infer
	if opts.Overrides == nil {
		opts.Overrides = s.TypeOverrides
	}
	res.ColumnTypes = infer.Infer(res.Records, s.OutputColumns, opts)

	fmt.Fprintf(out, "\nBatch summary: %d files, %d extracted, %d failed, %d records, %d items missing\n",
		res.Summary.FilesProcessed, res.Summary.FilesSucceeded, res.Summary.FilesFailed,
		res.Summary.Records, res.Summary.ItemsMissing)
	log.Info("batch: finished",
		zap.Int("files", res.Summary.FilesProcessed),
		zap.Int("failed", res.Summary.FilesFailed),
		zap.Int("records", res.Summary.Records),
		zap.Int("items_missing", res.Summary.ItemsMissing),
		zap.Int("categories_missing", res.Summary.CategoriesMissing),
	)
	return res, nil
}

// ExtractFile runs one file through the pipeline. The workbook is closed
// before ExtractFile returns, on every path.
func ExtractFile(path string, s *types.ExtractionSchema) (o FileOutcome) {
	start := time.Now()
	o = FileOutcome{Path: path, Name: filepath.Base(path), State: StatePending, AnchorRow: -1}
	defer func() { o.Duration = time.Since(start) }()

	wb, err := workbook.Open(path)
	if err != nil {
		o.fail(types.StageFileRead, err)
		return o
	}
	defer wb.Close()

	extractWorkbook(&o, wb, s)
	return o
}

// ExtractWorkbook runs an already opened workbook through the pipeline.
func ExtractWorkbook(wb *workbook.Workbook, s *types.ExtractionSchema) FileOutcome {
	o := FileOutcome{Path: wb.Name, Name: wb.Name, State: StatePending, AnchorRow: -1}
	extractWorkbook(&o, wb, s)
	return o
}

func extractWorkbook(o *FileOutcome, wb *workbook.Workbook, s *types.ExtractionSchema) {
	sheet, _, err := wb.Locate(s.SheetPatterns)
	if err != nil {
		stage := types.StageSheetLookup
		if errors.Is(err, workbook.ErrMalformed) {
			stage = types.StageFileRead
		}
		o.fail(stage, err)
		return
	}
	o.Sheet = sheet.Name
	o.State = StateSheetLocated

	anchor, err := extract.Anchor(sheet, s.SectionPatterns, s.AnchorColumn)
	if err != nil {
		o.fail(types.StageSectionLookup, err)
		return
	}
	o.AnchorRow = anchor.Row
	o.State = StateSectionAnchored

	loc, failures := extract.Locate(sheet, anchor.Row, s)
	o.State = StateWalked

	o.Records = extract.AssembleAll(o.Name, sheet, loc, s)
	o.State = StateAssembled

	for _, f := range failures {
		f.SourceFile = o.Name
		o.Failures = append(o.Failures, f)
	}
	o.State = StateDone
}

func (o *FileOutcome) fail(stage types.Stage, err error) {
	o.Failures = append(o.Failures, types.FailureEntry{
		SourceFile: o.Name,
		Stage:      stage,
		Reason:     err.Error(),
	})
	o.State = StateFailed
}

func logOutcome(log *zap.Logger, o FileOutcome) {
	fields := []zap.Field{
		zap.String("file", o.Name),
		zap.String("state", o.State.String()),
		zap.Int("records", len(o.Records)),
		zap.Int("failures", len(o.Failures)),
		zap.Int64("duration_ms", o.Duration.Milliseconds()),
	}
	if o.Failed() {
		log.Warn("batch: file failed", append(fields, zap.String("reason", o.Failures[len(o.Failures)-1].Reason))...)
		return
	}
	if o.Sheet != "" {
		fields = append(fields, zap.String("sheet", o.Sheet), zap.Int("anchor_row", o.AnchorRow))
	}
	log.Info("batch: file extracted", fields...)
	for _, f := range o.Failures {
		log.Debug("batch: label missing",
			zap.String("file", o.Name),
			zap.String("stage", string(f.Stage)),
			zap.String("category", f.Category),
			zap.String("expected", f.Expected),
			zap.String("found", f.Found),
		)
	}
}
