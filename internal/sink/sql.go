// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sink

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/kiga-extract/internal/infer"
	"github.com/pdiddy/kiga-extract/pkg/types"
)

// Supported database/sql driver names.
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "pgx"
)

// dialect maps column types to the DDL of one database family.
type dialect struct {
	columnTypes map[types.ColumnType]string
}

var dialects = map[string]dialect{
	DriverSQLite: {columnTypes: map[types.ColumnType]string{
		types.ColumnInteger:   "INTEGER",
		types.ColumnFloat:     "REAL",
		types.ColumnDateTime:  "TEXT",
		types.ColumnBoolean:   "INTEGER",
		types.ColumnShortText: "TEXT",
		types.ColumnLongText:  "TEXT",
	}},
	DriverPostgres: {columnTypes: map[types.ColumnType]string{
		types.ColumnInteger:   "BIGINT",
		types.ColumnFloat:     "DOUBLE PRECISION",
		types.ColumnDateTime:  "TIMESTAMP",
		types.ColumnBoolean:   "BOOLEAN",
		types.ColumnShortText: "VARCHAR(255)",
		types.ColumnLongText:  "VARCHAR(1000)",
	}},
}

// SQLSink appends records to a relational table, creating it on first use.
type SQLSink struct {
	db      *sqlx.DB
	dialect dialect
}

// Open connects to the database named by cfg and verifies the connection.
func Open(ctx context.Context, cfg types.DatabaseConfig) (*SQLSink, error) {
	if _, ok := dialects[cfg.Driver]; !ok {
		return nil, fmt.Errorf("unsupported database driver %q (want %s or %s)", cfg.Driver, DriverSQLite, DriverPostgres)
	}
	if cfg.DSN == "" {
		return nil, fmt.Errorf("database dsn is empty")
	}
	db, err := sqlx.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	return &SQLSink{db: db, dialect: dialects[cfg.Driver]}, nil
}

// NewSQLSink wraps an open connection; driver selects the SQL dialect and
// placeholder style.
func NewSQLSink(db *sql.DB, driver string) (*SQLSink, error) {
	d, ok := dialects[driver]
	if !ok {
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
	return &SQLSink{db: sqlx.NewDb(db, driver), dialect: d}, nil
}

// Close releases the connection.
func (s *SQLSink) Close() error {
	return s.db.Close()
}

// Write creates table if needed and appends every record in one
// transaction. Columns are declared in the given order with the inferred
// types; absent values are stored as NULL. A value that does not fit its
// column type is stored as NULL too and reported as a sql-bind failure.
// It returns the number of rows inserted.
func (s *SQLSink) Write(ctx context.Context, table string, columns []string, records []types.ExtractedRecord, columnTypes map[string]types.ColumnType) (int, []types.FailureEntry, error) {
	if len(columns) == 0 {
		return 0, nil, fmt.Errorf("no columns for table %s", table)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, s.createTable(table, columns, columnTypes)); err != nil {
		return 0, nil, fmt.Errorf("creating table %s: %w", table, err)
	}

	var rejected []types.FailureEntry
	insert := tx.Rebind(insertStatement(table, columns))
	args := make([]any, len(columns))
	for i, r := range records {
		for j, v := range r.Project(columns) {
			t := columnTypes[columns[j]]
			arg, err := bindValue(v, t)
			if err != nil {
				rejected = append(rejected, types.FailureEntry{
					SourceFile: r.SourceFile,
					Stage:      types.StageSQLBind,
					Reason:     fmt.Sprintf("column %s: %v; stored as NULL", columns[j], err),
					Category:   r.Category,
					Expected:   string(t),
					Found:      v.String(),
				})
			}
			args[j] = arg
		}
		if _, err := tx.ExecContext(ctx, insert, args...); err != nil {
			return 0, nil, fmt.Errorf("inserting record %d (%s): %w", i, r.SourceFile, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, nil, fmt.Errorf("committing: %w", err)
	}
	return len(records), rejected, nil
}

func (s *SQLSink) createTable(table string, columns []string, columnTypes map[string]types.ColumnType) string {
	defs := make([]string, len(columns))
	for i, c := range columns {
		t, ok := columnTypes[c]
		if !ok {
			t = types.ColumnShortText
		}
		defs[i] = quoteIdent(c) + " " + s.dialect.columnTypes[t]
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", quoteIdent(table), strings.Join(defs, ", "))
}

func insertStatement(table string, columns []string) string {
	names := make([]string, len(columns))
	marks := make([]string, len(columns))
	for i, c := range columns {
		names[i] = quoteIdent(c)
		marks[i] = "?"
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", quoteIdent(table), strings.Join(names, ", "), strings.Join(marks, ", "))
}

// bindValue converts a value to the Go type the column type stores.
func bindValue(v types.Value, t types.ColumnType) (any, error) {
	if v.IsEmpty() {
		return nil, nil
	}
	switch t {
	case types.ColumnInteger:
		if v.Kind == types.ValueNumber {
			return int64(v.Num), nil
		}
	case types.ColumnFloat:
		if v.Kind == types.ValueNumber {
			return v.Num, nil
		}
	case types.ColumnBoolean:
		switch v.Kind {
		case types.ValueBool:
			return v.Bool, nil
		case types.ValueText:
			if b, ok := infer.ParseBoolToken(v.Str); ok {
				return b, nil
			}
		}
	case types.ColumnDateTime:
		if v.Kind == types.ValueText {
			if ts, ok := infer.ParseDate(v.Str); ok {
				return ts, nil
			}
		}
	default:
		return v.String(), nil
	}
	return nil, fmt.Errorf("value %q does not fit column type %s", v.String(), t)
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
