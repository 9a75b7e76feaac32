package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	gojson "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/strata/pkg/logger"
	"github.com/ajitpratap0/strata/pkg/testutil"
)

const eventsCSV = `id,kind,latency
1,click,0.5
2,view,
3,click,1.25
4,click,2
5,view,0.75
`

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Cleanup(func() { logger.SetLogger(nil) })

	var out bytes.Buffer
	root := newRootCmd(&out)
	root.SetArgs(append(args, "--log-level", "error"))
	err := root.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	t.Cleanup(func() { logger.SetLogger(nil) })

	var out bytes.Buffer
	root := newRootCmd(&out)
	root.SetArgs([]string{"version"})
	testutil.RequireNoError(t, root.Execute(), "version")
	assert.Contains(t, out.String(), "Strata v"+version)
}

func TestIngestStatsJSON(t *testing.T) {
	input := testutil.WriteFile(t, "events.csv", eventsCSV)

	out, err := run(t, "ingest", "--input", input, "--stats-json")
	require.NoError(t, err)

	var stats struct {
		Rows     int  `json:"rows"`
		Skipped  int  `json:"skipped"`
		Inferred bool `json:"schema_inferred"`
		Stats    struct {
			Columns []struct {
				Name     string `json:"name"`
				Type     string `json:"type"`
				Encoding string `json:"encoding"`
				Nulls    int    `json:"nulls"`
			} `json:"columns"`
		} `json:"stats"`
	}
	require.NoError(t, gojson.Unmarshal([]byte(out), &stats))

	assert.Equal(t, 5, stats.Rows)
	assert.Zero(t, stats.Skipped)
	assert.True(t, stats.Inferred)
	require.Len(t, stats.Stats.Columns, 3)
	assert.Equal(t, "int64", stats.Stats.Columns[0].Type)
	assert.Equal(t, "dictionary", stats.Stats.Columns[1].Encoding)
	assert.Equal(t, "double", stats.Stats.Columns[2].Type)
	assert.Equal(t, 1, stats.Stats.Columns[2].Nulls)
}

func TestIngestSummaryAndOutput(t *testing.T) {
	input := testutil.WriteFile(t, "events.csv", eventsCSV)
	output := filepath.Join(t.TempDir(), "events.csv.gz")

	out, err := run(t, "ingest", "--input", input, "--output", output, "--metrics-addr", "127.0.0.1:0")
	require.NoError(t, err)
	assert.Contains(t, out, "rows:")
	assert.Contains(t, out, "latency")

	out, err = run(t, "get", "--input", output, "--row", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "kind:")
	assert.Contains(t, out, "view")
	assert.Contains(t, out, "NULL")
}

func TestGetOutOfRange(t *testing.T) {
	input := testutil.WriteFile(t, "events.csv", eventsCSV)
	_, err := run(t, "get", "--input", input, "--row", "9")
	assert.Error(t, err)
}

func TestSchemaRoundTrip(t *testing.T) {
	input := testutil.WriteFile(t, "events.csv", eventsCSV)

	out, err := run(t, "schema", "--input", input)
	require.NoError(t, err)
	assert.Contains(t, out, "encoding: dictionary")

	cfgPath := testutil.WriteFile(t, "store.yaml", out)
	out, err = run(t, "ingest", "--config", cfgPath, "--input", input, "--stats-json")
	require.NoError(t, err)
	assert.Contains(t, out, `"schema_inferred": false`)
}

func TestSchemaArrow(t *testing.T) {
	input := testutil.WriteFile(t, "events.csv", eventsCSV)

	out, err := run(t, "schema", "--input", input, "--format", "arrow")
	require.NoError(t, err)
	assert.Contains(t, out, "latency: type=float64, nullable")
	assert.Contains(t, out, "rows: 5")

	_, err = run(t, "schema", "--input", input, "--format", "xml")
	assert.Error(t, err)
}

func TestIngestMissingInput(t *testing.T) {
	_, err := run(t, "ingest")
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "input"))
}
