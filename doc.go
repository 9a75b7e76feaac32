// Package strata is an in-memory columnar store for delimited data. Values
// live in typed columns as raw little-endian bytes; strings are either
// appended to an arena or deduplicated through a dictionary, and any column
// can carry a null bitmap.
//
// # Architecture
//
// Strata is layered bottom-up:
//
//  1. Storage: a paged arena with stable offsets (plain) or an interned
//     arena plus ordered index (dictionary).
//  2. Columns: FixedColumn[T] for numeric types and StringColumn for
//     length-prefixed strings, both addressed by row.
//  3. Nullable overlay: wraps any column and appends the value and its null
//     flag in a single call so the two never drift apart.
//  4. ColumnStore: a schema of columns that validates a whole row before
//     appending any of it.
//
// # Quick Start
//
// Load a CSV file with an inferred schema:
//
//	import (
//	    "context"
//	    "github.com/ajitpratap0/strata/internal/ingest"
//	    "github.com/ajitpratap0/strata/pkg/config"
//	)
//
//	cfg := config.NewStoreConfig("events")
//	res, err := ingest.NewLoader(cfg, nil, nil).LoadFile(context.Background(), "events.csv")
//	row, err := res.Store.GetRow(0)
//
// # Key Packages
//
//	pkg/columnar      - Storage, typed columns, nullable overlay, ColumnStore, Arrow export
//	pkg/cast          - Text to value conversion per logical type
//	pkg/config        - YAML store configuration with ${VAR} substitution
//	pkg/compression   - Compressed input and output streams
//	pkg/errors        - Structured error handling
//	pkg/logger        - Structured logging
//	pkg/metrics       - Prometheus metrics and process statistics
//	pkg/observability - OpenTelemetry tracing
//	internal/ingest   - CSV loading, schema inference and export
//
// # Command Line
//
//	strata ingest --input events.csv.gz --stats-json
//	strata get --input events.csv --row 42
//	strata schema --input events.csv > store.yaml
//	strata ingest --config store.yaml --input events.csv --output events.csv.zst
package strata
