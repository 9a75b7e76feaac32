package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/strata/pkg/columnar"
	"github.com/ajitpratap0/strata/pkg/compression"
	"github.com/ajitpratap0/strata/pkg/errors"
	"github.com/ajitpratap0/strata/pkg/testutil"
)

const sampleYAML = `
name: ${STRATA_TEST_NAME}
schema:
  - name: id
    type: int64
  - name: city
    type: string
    encoding: dictionary
  - name: score
    type: double
    nullable: true
csv:
  delimiter: ";"
  null_marker: NA
  skip_invalid: true
metrics:
  enabled: true
`

func TestLoadStoreConfig(t *testing.T) {
	t.Setenv("STRATA_TEST_NAME", "cities")
	path := testutil.WriteFile(t, "strata.yaml", sampleYAML)

	cfg, err := LoadStoreConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "cities", cfg.Name)
	assert.Equal(t, ";", cfg.CSV.Delimiter)
	assert.Equal(t, "NA", cfg.CSV.NullMarker)
	assert.True(t, cfg.CSV.SkipInvalid)
	// defaults survive when the file omits a key
	assert.True(t, cfg.CSV.Header)
	assert.Equal(t, 100, cfg.CSV.InferSample)
	assert.Equal(t, ":9090", cfg.Metrics.Address)
	assert.Equal(t, "info", cfg.Logging.Level)

	schema, err := cfg.ToSchema()
	require.NoError(t, err)
	require.Len(t, schema.Fields, 3)
	assert.Equal(t, columnar.FieldSchema{Name: "city", Type: columnar.TypeString, Encoding: columnar.EncodingDictionary}, schema.Fields[1])
	assert.True(t, schema.Fields[2].Nullable)
}

func TestLoad_MissingFile(t *testing.T) {
	err := Load(filepath.Join(t.TempDir(), "absent.yaml"), NewStoreConfig(""))
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeFile))
}

func TestLoad_BadYAML(t *testing.T) {
	path := testutil.WriteFile(t, "bad.yaml", "name: [unterminated")
	err := Load(path, NewStoreConfig(""))
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
}

func TestSaveRoundTrip(t *testing.T) {
	cfg := NewStoreConfig("roundtrip")
	cfg.Schema = []ColumnConfig{{Name: "a", Type: "int8"}}
	path := filepath.Join(t.TempDir(), "out.yaml")

	require.NoError(t, Save(path, cfg))

	loaded, err := LoadStoreConfig(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestStoreConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*StoreConfig)
	}{
		{"empty name", func(c *StoreConfig) { c.Name = "" }},
		{"long delimiter", func(c *StoreConfig) { c.CSV.Delimiter = "::" }},
		{"quote delimiter", func(c *StoreConfig) { c.CSV.Delimiter = `"` }},
		{"empty delimiter", func(c *StoreConfig) { c.CSV.Delimiter = "" }},
		{"bad comment", func(c *StoreConfig) { c.CSV.Comment = "//" }},
		{"zero sample", func(c *StoreConfig) { c.CSV.InferSample = 0 }},
		{"negative progress", func(c *StoreConfig) { c.CSV.ProgressEvery = -1 }},
		{"unknown compression", func(c *StoreConfig) { c.CSV.Compression = "brotli" }},
		{"sampling rate above one", func(c *StoreConfig) { c.Tracing.SamplingRate = 1.5 }},
		{"metrics without address", func(c *StoreConfig) { c.Metrics.Enabled = true; c.Metrics.Address = "" }},
		{"unknown type", func(c *StoreConfig) { c.Schema = []ColumnConfig{{Name: "a", Type: "decimal"}} }},
		{"unknown encoding", func(c *StoreConfig) { c.Schema = []ColumnConfig{{Name: "a", Type: "int8", Encoding: "rle"}} }},
		{"duplicate column", func(c *StoreConfig) {
			c.Schema = []ColumnConfig{{Name: "a", Type: "int8"}, {Name: "a", Type: "int16"}}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewStoreConfig("x")
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
		})
	}

	assert.NoError(t, NewStoreConfig("").Validate())
}

func TestCSVConfig_DelimiterRune(t *testing.T) {
	for in, want := range map[string]rune{",": ',', "\t": '\t', `\t`: '\t', "tab": '\t', "|": '|'} {
		c := CSVConfig{Delimiter: in}
		got, err := c.DelimiterRune()
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
}

func TestFromSchema(t *testing.T) {
	cfg := NewStoreConfig("x")
	cfg.FromSchema(columnar.Schema{Fields: []columnar.FieldSchema{
		{Name: "n", Type: columnar.TypeInt32, Nullable: true},
		{Name: "s", Type: columnar.TypeString, Encoding: columnar.EncodingDictionary},
	}})

	assert.Equal(t, []ColumnConfig{
		{Name: "n", Type: "int32", Encoding: "plain", Nullable: true},
		{Name: "s", Type: "string", Encoding: "dictionary"},
	}, cfg.Schema)

	schema, err := cfg.ToSchema()
	require.NoError(t, err)
	assert.Equal(t, columnar.TypeInt32, schema.Fields[0].Type)
}

func TestSubstituteEnvVars(t *testing.T) {
	t.Setenv("STRATA_A", "x")
	assert.Equal(t, "x-x-", substituteEnvVars("${STRATA_A}-${STRATA_A}-${STRATA_UNSET_VAR}"))
	assert.Equal(t, "plain ${open", substituteEnvVars("plain ${open"))
}

func TestLoggingConfig_LoggerConfig(t *testing.T) {
	l := LoggingConfig{Level: "debug", Encoding: "console", Development: true}
	lc := l.LoggerConfig()
	assert.Equal(t, "debug", lc.Level)
	assert.Equal(t, "console", lc.Encoding)
	assert.True(t, lc.Development)
}

func TestTracingConfig_ObservabilityConfig(t *testing.T) {
	cfg := NewStoreConfig("x")
	tc := cfg.Tracing.ObservabilityConfig("strata", "1.2.3")
	assert.Equal(t, "strata", tc.ServiceName)
	assert.Equal(t, "1.2.3", tc.ServiceVersion)
	assert.Equal(t, "stderr", tc.Output)
	assert.Equal(t, 1.0, tc.SamplingRate)
}

func TestCSVConfig_CompressionAlgorithm(t *testing.T) {
	c := CSVConfig{Compression: "zstd"}
	alg, err := c.CompressionAlgorithm()
	require.NoError(t, err)
	assert.Equal(t, compression.Zstd, alg)
}
