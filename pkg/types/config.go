// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// LoggingConfig holds process-wide logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, or error (default info).
	Level string `json:"level" yaml:"level" mapstructure:"level"`

	// Format selects the zap encoder: console or json (default console).
	Format string `json:"format" yaml:"format" mapstructure:"format"`
}

// DatabaseConfig holds settings for the relational sink.
type DatabaseConfig struct {
	// Driver selects the database/sql driver: sqlite3 or pgx.
	Driver string `json:"driver" yaml:"driver" mapstructure:"driver"`

	// DSN is the data source name. For sqlite3 it is a file path; when empty
	// the sink writes output_dir/kindergarten.db.
	DSN string `json:"dsn,omitempty" yaml:"dsn,omitempty" mapstructure:"dsn"`

	// TablePrefix is prepended to the extraction type to form the table name
	// (default "kindergarten_").
	TablePrefix string `json:"table_prefix" yaml:"table_prefix" mapstructure:"table_prefix"`
}

// ExtractConfig holds settings for one extraction run.
type ExtractConfig struct {
	// Type is the extraction type identifier; it selects the schema document.
	Type string `json:"type" yaml:"type" mapstructure:"type"`

	// InputDir contains the workbook files.
	InputDir string `json:"input_dir" yaml:"input_dir" mapstructure:"input_dir"`

	// OutputDir receives the CSV output, failure manifest, and summary.
	OutputDir string `json:"output_dir" yaml:"output_dir" mapstructure:"output_dir"`

	// SchemaDir holds <type>_structure.yaml documents.
	SchemaDir string `json:"schema_dir" yaml:"schema_dir" mapstructure:"schema_dir"`

	// SchemaFile overrides SchemaDir lookup with an explicit document.
	SchemaFile string `json:"schema_file,omitempty" yaml:"schema_file,omitempty" mapstructure:"schema_file"`

	// Debug processes only the first input file.
	Debug bool `json:"debug" yaml:"debug" mapstructure:"debug"`

	// NoSQL skips the relational sink (CSV only).
	NoSQL bool `json:"no_sql" yaml:"no_sql" mapstructure:"no_sql"`

	// Workers is the number of files extracted concurrently (default 1).
	Workers int `json:"workers" yaml:"workers" mapstructure:"workers"`

	// MetricsFile, when set, receives the batch metrics in Prometheus text format.
	MetricsFile string `json:"metrics_file,omitempty" yaml:"metrics_file,omitempty" mapstructure:"metrics_file"`

	// LongTextKeywords widen text columns whose name contains any keyword.
	LongTextKeywords []string `json:"long_text_keywords,omitempty" yaml:"long_text_keywords,omitempty" mapstructure:"long_text_keywords"`
}

// Config groups every setting read from kiga-extract.yaml.
type Config struct {
	Extract  ExtractConfig  `json:"extract" yaml:"extract" mapstructure:"extract"`
	Database DatabaseConfig `json:"database" yaml:"database" mapstructure:"database"`
	Logging  LoggingConfig  `json:"logging" yaml:"logging" mapstructure:"logging"`
}
