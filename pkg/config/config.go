package config

import (
	"strings"
	"unicode/utf8"

	"github.com/ajitpratap0/strata/pkg/columnar"
	"github.com/ajitpratap0/strata/pkg/compression"
	"github.com/ajitpratap0/strata/pkg/errors"
	"github.com/ajitpratap0/strata/pkg/logger"
	"github.com/ajitpratap0/strata/pkg/observability"
)

// StoreConfig describes a column store and how it is filled from CSV. All
// tools that build a store share this one structure.
type StoreConfig struct {
	// Name identifies the store in logs and metrics
	Name string `yaml:"name" json:"name"`

	// Schema lists the columns in CSV order. When empty the schema is
	// inferred from the input.
	Schema []ColumnConfig `yaml:"schema" json:"schema"`

	// CSV controls how input files are parsed
	CSV CSVConfig `yaml:"csv" json:"csv"`

	// Logging configures the global logger
	Logging LoggingConfig `yaml:"logging" json:"logging"`

	// Metrics configures the Prometheus endpoint
	Metrics MetricsConfig `yaml:"metrics" json:"metrics"`

	// Tracing configures span export
	Tracing TracingConfig `yaml:"tracing" json:"tracing"`
}

// ColumnConfig declares one column.
type ColumnConfig struct {
	Name     string `yaml:"name" json:"name"`
	Type     string `yaml:"type" json:"type"`
	Encoding string `yaml:"encoding" json:"encoding"`
	Nullable bool   `yaml:"nullable" json:"nullable"`
}

// CSVConfig controls CSV parsing.
type CSVConfig struct {
	Delimiter        string `yaml:"delimiter" json:"delimiter"`
	Header           bool   `yaml:"header" json:"header"`
	Comment          string `yaml:"comment" json:"comment"`
	TrimLeadingSpace bool   `yaml:"trim_leading_space" json:"trim_leading_space"`
	// NullMarker is the field text read as null in nullable columns
	NullMarker string `yaml:"null_marker" json:"null_marker"`
	// SkipInvalid counts and drops rows that fail to parse instead of
	// aborting the load
	SkipInvalid bool `yaml:"skip_invalid" json:"skip_invalid"`
	// InferSample is the number of rows sampled for schema inference
	InferSample int `yaml:"infer_sample" json:"infer_sample"`
	// ProgressEvery logs progress after this many rows; zero disables it
	ProgressEvery int `yaml:"progress_every" json:"progress_every"`
	// Compression of input and output files: auto, none, gzip, zstd, lz4,
	// snappy or s2. Auto goes by file extension.
	Compression string `yaml:"compression" json:"compression"`
}

// LoggingConfig configures the global logger.
type LoggingConfig struct {
	Level       string   `yaml:"level" json:"level"`
	Encoding    string   `yaml:"encoding" json:"encoding"`
	Development bool     `yaml:"development" json:"development"`
	OutputPaths []string `yaml:"output_paths,omitempty" json:"output_paths,omitempty"`
}

// MetricsConfig configures metric exposition.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Address string `yaml:"address" json:"address"`
}

// TracingConfig configures OpenTelemetry span export.
type TracingConfig struct {
	Enabled      bool    `yaml:"enabled" json:"enabled"`
	Output       string  `yaml:"output" json:"output"`
	SamplingRate float64 `yaml:"sampling_rate" json:"sampling_rate"`
	PrettyPrint  bool    `yaml:"pretty_print" json:"pretty_print"`
}

// NewStoreConfig creates a configuration with sensible defaults.
func NewStoreConfig(name string) *StoreConfig {
	if name == "" {
		name = "strata"
	}
	return &StoreConfig{
		Name: name,
		CSV: CSVConfig{
			Delimiter:     ",",
			Header:        true,
			InferSample:   100,
			ProgressEvery: 100000,
			Compression:   string(compression.Auto),
		},
		Logging: LoggingConfig{
			Level:    "info",
			Encoding: "json",
		},
		Metrics: MetricsConfig{
			Address: ":9090",
		},
		Tracing: TracingConfig{
			Output:       "stderr",
			SamplingRate: 1,
		},
	}
}

// LoadStoreConfig reads path over the defaults and validates the result.
func LoadStoreConfig(path string) (*StoreConfig, error) {
	cfg := NewStoreConfig("")
	if err := Load(path, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate validates the configuration for correctness.
func (c *StoreConfig) Validate() error {
	if c.Name == "" {
		return errors.New(errors.ErrorTypeConfig, "name is required")
	}
	if _, err := c.CSV.DelimiterRune(); err != nil {
		return err
	}
	if c.CSV.Comment != "" {
		if _, err := c.CSV.CommentRune(); err != nil {
			return err
		}
	}
	if c.CSV.InferSample <= 0 {
		return errors.New(errors.ErrorTypeConfig, "csv.infer_sample must be positive")
	}
	if c.CSV.ProgressEvery < 0 {
		return errors.New(errors.ErrorTypeConfig, "csv.progress_every cannot be negative")
	}
	if _, err := c.CSV.CompressionAlgorithm(); err != nil {
		return err
	}
	if c.Tracing.SamplingRate < 0 || c.Tracing.SamplingRate > 1 {
		return errors.New(errors.ErrorTypeConfig, "tracing.sampling_rate must be between 0 and 1")
	}
	if c.Metrics.Enabled && c.Metrics.Address == "" {
		return errors.New(errors.ErrorTypeConfig, "metrics.address is required when metrics are enabled")
	}
	if len(c.Schema) > 0 {
		if _, err := c.ToSchema(); err != nil {
			return err
		}
	}
	return nil
}

// ToSchema converts the declared columns to a columnar schema.
func (c *StoreConfig) ToSchema() (*columnar.Schema, error) {
	schema := &columnar.Schema{Fields: make([]columnar.FieldSchema, len(c.Schema))}
	for i, col := range c.Schema {
		t, err := columnar.ParseLogicalType(col.Type)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeConfig, "invalid column type").
				WithDetail("column", col.Name)
		}
		enc, err := columnar.ParseEncoding(col.Encoding)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeConfig, "invalid column encoding").
				WithDetail("column", col.Name)
		}
		schema.Fields[i] = columnar.FieldSchema{
			Name:     col.Name,
			Type:     t,
			Encoding: enc,
			Nullable: col.Nullable,
		}
	}
	if err := schema.Validate(); err != nil {
		return nil, err
	}
	return schema, nil
}

// FromSchema replaces the declared columns with schema.
func (c *StoreConfig) FromSchema(schema columnar.Schema) {
	c.Schema = make([]ColumnConfig, len(schema.Fields))
	for i, f := range schema.Fields {
		c.Schema[i] = ColumnConfig{
			Name:     f.Name,
			Type:     f.Type.String(),
			Encoding: f.Encoding.String(),
			Nullable: f.Nullable,
		}
	}
}

// DelimiterRune returns the field delimiter as a rune.
func (c *CSVConfig) DelimiterRune() (rune, error) {
	d := c.Delimiter
	if d == `\t` || strings.EqualFold(d, "tab") {
		return '\t', nil
	}
	return singleRune("csv.delimiter", d)
}

// CompressionAlgorithm returns the configured compression algorithm.
func (c *CSVConfig) CompressionAlgorithm() (compression.Algorithm, error) {
	return compression.ParseAlgorithm(c.Compression)
}

// CommentRune returns the comment character as a rune.
func (c *CSVConfig) CommentRune() (rune, error) {
	return singleRune("csv.comment", c.Comment)
}

func singleRune(field, s string) (rune, error) {
	r, size := utf8.DecodeRuneInString(s)
	if size == 0 || size != len(s) || r == utf8.RuneError {
		return 0, errors.Newf(errors.ErrorTypeConfig, "%s must be a single character", field).
			WithDetail("value", s)
	}
	if r == '"' || r == '\r' || r == '\n' {
		return 0, errors.Newf(errors.ErrorTypeConfig, "%s cannot be %q", field, r)
	}
	return r, nil
}

// LoggerConfig converts the logging section for the logger package.
func (l LoggingConfig) LoggerConfig() logger.Config {
	return logger.Config{
		Level:       l.Level,
		Development: l.Development,
		Encoding:    l.Encoding,
		OutputPaths: l.OutputPaths,
	}
}

// TracingConfig converts the tracing section for the observability package.
func (t TracingConfig) ObservabilityConfig(serviceName, version string) observability.TracingConfig {
	return observability.TracingConfig{
		ServiceName:    serviceName,
		ServiceVersion: version,
		SamplingRate:   t.SamplingRate,
		Output:         t.Output,
		PrettyPrint:    t.PrettyPrint,
	}
}
