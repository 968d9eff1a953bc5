// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/kiga-extract/internal/batch"
	"github.com/pdiddy/kiga-extract/internal/infer"
	"github.com/pdiddy/kiga-extract/internal/metrics"
	"github.com/pdiddy/kiga-extract/internal/schema"
	"github.com/pdiddy/kiga-extract/internal/secrets"
	"github.com/pdiddy/kiga-extract/internal/sink"
	"github.com/pdiddy/kiga-extract/pkg/types"
)

const (
	defaultTablePrefix = "kindergarten_"
	defaultSQLiteFile  = "kindergarten.db"
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract one record type from every workbook in a directory",
	Long: `Extract loads the schema document for --type, runs every workbook in
--input-dir through it, and writes:

  kindergarten_<type>.csv   extracted records
  errors_<type>.csv         failure manifest (one row per miss)
  summary_<type>.yaml       run summary and inferred column types

Unless --no-sql is set the records are also appended to the table
kindergarten_<type>. A file that cannot be read, or whose sheet or section
cannot be found, is recorded in the manifest and skipped. A value that does
not fit its inferred column type is stored as NULL and recorded too. The run
itself only fails on an invalid schema or a sink error, and the manifest and
summary are still written when the table write fails.`,
	RunE: runExtract,
}

func init() {
	f := extractCmd.Flags()
	f.String("type", "", "extraction type (selects <type>_structure.yaml)")
	f.String("input-dir", "input", "directory containing the workbooks")
	f.String("output-dir", "output", "directory for CSV, manifest, and summary output")
	f.String("schema-dir", filepath.Join("config", "schemas"), "directory of schema documents")
	f.String("schema", "", "explicit schema document (overrides --schema-dir)")
	f.Bool("debug", false, "process only the first workbook")
	f.Bool("no-sql", false, "skip the relational sink")
	f.Int("workers", 1, "number of workbooks extracted concurrently")
	f.String("metrics-file", "", "write batch metrics in Prometheus text format to this file")
	f.String("db-driver", sink.DriverSQLite, "database driver: sqlite3 or pgx")
	f.String("db-dsn", "", "database DSN (default: database-dsn secret, or output-dir/kindergarten.db for sqlite3)")
	f.String("table-prefix", defaultTablePrefix, "prefix of the output table name")

	for key, flag := range map[string]string{
		"extract.type":          "type",
		"extract.input_dir":     "input-dir",
		"extract.output_dir":    "output-dir",
		"extract.schema_dir":    "schema-dir",
		"extract.schema_file":   "schema",
		"extract.debug":         "debug",
		"extract.no_sql":        "no-sql",
		"extract.workers":       "workers",
		"extract.metrics_file":  "metrics-file",
		"database.driver":       "db-driver",
		"database.dsn":          "db-dsn",
		"database.table_prefix": "table-prefix",
	} {
		_ = viper.BindPFlag(key, f.Lookup(flag))
	}
	viper.SetDefault("extract.long_text_keywords", infer.DefaultLongTextKeywords)

	rootCmd.AddCommand(extractCmd)
}

// loadConfig assembles the effective configuration from flags, environment,
// and the config file.
func loadConfig() (types.Config, error) {
	var cfg types.Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("reading configuration: %w", err)
	}
	if cfg.Database.TablePrefix == "" {
		cfg.Database.TablePrefix = defaultTablePrefix
	}
	cfg.Database.DSN = secretDefault(secrets.DatabaseDSN, cfg.Database.DSN)
	if cfg.Database.DSN == "" && cfg.Database.Driver == sink.DriverSQLite {
		cfg.Database.DSN = filepath.Join(cfg.Extract.OutputDir, defaultSQLiteFile)
	}
	return cfg, nil
}

func runExtract(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Extract.Type == "" {
		return fmt.Errorf("--type is required (see 'kiga-extract schemas')")
	}
	return extractType(cmd.Context(), cfg, cmd.OutOrStdout())
}

// extractType runs one extraction type end to end.
func extractType(ctx context.Context, cfg types.Config, w io.Writer) error {
	ec := cfg.Extract
	log := logger.With(zap.String("type", ec.Type))

	s, err := loadSchema(ec)
	if err != nil {
		return err
	}

	limit := 0
	if ec.Debug {
		limit = 1
	}
	files, err := discoverWorkbooks(ec.InputDir, limit)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no workbooks found in %s", ec.InputDir)
	}

	m := metrics.NewBatchMetrics(ec.Type)
	opts := infer.DefaultOptions()
	if len(ec.LongTextKeywords) > 0 {
		opts.LongTextKeywords = ec.LongTextKeywords
	}
	opts.Overrides = s.TypeOverrides

	res, err := batch.Run(ctx, files, s, batch.Config{
		Workers: ec.Workers,
		Logger:  log,
		Metrics: m,
		Out:     w,
		Infer:   opts,
	})
	if err != nil {
		return err
	}

	out := outputPaths(ec.OutputDir, ec.Type)
	if err := sink.WriteFile(out.Records, func(fw io.Writer) error {
		return sink.WriteRecordsCSV(fw, s.OutputColumns, res.Records)
	}); err != nil {
		return err
	}
	fmt.Fprintf(w, "wrote %s (%d records)\n", out.Records, len(res.Records))

	// The manifest and summary are written even when the table write fails.
	var table string
	var sqlErr error
	if !ec.NoSQL {
		table = cfg.Database.TablePrefix + ec.Type
		n, rejected, err := writeSQL(ctx, cfg.Database, table, s.OutputColumns, res)
		if err != nil {
			sqlErr = fmt.Errorf("writing table %s: %w", table, err)
			log.Error("extract: table write failed", zap.String("table", table), zap.Error(err))
		} else {
			res.Failures = append(res.Failures, rejected...)
			m.ObserveFailures(rejected)
			fmt.Fprintf(w, "wrote %d rows to table %s (%d values stored as NULL)\n", n, table, len(rejected))
		}
	}

	if err := sink.WriteFile(out.Failures, func(fw io.Writer) error {
		return sink.WriteFailuresCSV(fw, res.Failures)
	}); err != nil {
		return err
	}
	fmt.Fprintf(w, "wrote %s (%d failures)\n", out.Failures, len(res.Failures))

	rep := newReport(res, s, out, table)
	if sqlErr != nil {
		rep.SQLError = sqlErr.Error()
	}
	if err := writeReport(out.Summary, rep); err != nil {
		return err
	}
	if ec.MetricsFile != "" {
		if err := m.WriteTextfile(ec.MetricsFile); err != nil {
			return err
		}
	}
	return sqlErr
}

func loadSchema(ec types.ExtractConfig) (*types.ExtractionSchema, error) {
	if ec.SchemaFile != "" {
		s, err := schema.Load(ec.SchemaFile)
		if err != nil {
			return nil, err
		}
		if s.Type != ec.Type {
			return nil, fmt.Errorf("schema %s declares type %q, not %q", ec.SchemaFile, s.Type, ec.Type)
		}
		return s, nil
	}
	return schema.LoadType(ec.SchemaDir, ec.Type)
}

func writeSQL(ctx context.Context, dc types.DatabaseConfig, table string, columns []string, res *batch.Result) (int, []types.FailureEntry, error) {
	db, err := sink.Open(ctx, dc)
	if err != nil {
		return 0, nil, err
	}
	defer db.Close()
	return db.Write(ctx, table, columns, res.Records, res.ColumnTypes)
}
