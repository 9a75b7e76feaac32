// Package ingest loads delimited text into column stores and writes stores
// back out.
package ingest

import (
	"context"
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/ajitpratap0/strata/pkg/cast"
	"github.com/ajitpratap0/strata/pkg/columnar"
	"github.com/ajitpratap0/strata/pkg/compression"
	"github.com/ajitpratap0/strata/pkg/config"
	"github.com/ajitpratap0/strata/pkg/errors"
	"github.com/ajitpratap0/strata/pkg/logger"
	"github.com/ajitpratap0/strata/pkg/metrics"
	"github.com/ajitpratap0/strata/pkg/observability"
)

// cancelCheckInterval is how many rows are loaded between context checks.
const cancelCheckInterval = 1024

// Result summarizes one load.
type Result struct {
	Store         *columnar.ColumnStore `json:"-"`
	Rows          int                   `json:"rows"`
	Skipped       int                   `json:"skipped"`
	Duration      time.Duration         `json:"duration_ns"`
	RowsPerSecond float64               `json:"rows_per_second"`
	Inferred      bool                  `json:"schema_inferred"`
	Stats         columnar.StoreStats   `json:"stats"`
	Process       metrics.ProcessStats  `json:"process"`
}

// Loader reads CSV input into a new ColumnStore per call.
type Loader struct {
	cfg     *config.StoreConfig
	logger  *zap.Logger
	metrics *metrics.Collector
}

// NewLoader creates a loader. A nil logger uses the global logger; a nil
// collector disables metrics.
func NewLoader(cfg *config.StoreConfig, log *zap.Logger, collector *metrics.Collector) *Loader {
	if log == nil {
		log = logger.Get()
	}
	return &Loader{
		cfg:     cfg,
		logger:  log.With(zap.String("component", "ingest"), zap.String("store", cfg.Name)),
		metrics: collector,
	}
}

// LoadFile opens path and loads it, decompressing according to
// csv.compression.
func (l *Loader) LoadFile(ctx context.Context, path string) (*Result, error) {
	alg, err := l.cfg.CSV.CompressionAlgorithm()
	if err != nil {
		return nil, err
	}
	alg = compression.Resolve(alg, path)

	f, err := os.Open(path) //nolint:gosec // G304: path comes from the operator
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to open input").
			WithDetail("path", path)
	}
	defer f.Close()

	r, err := compression.NewReader(alg, f)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to open input").
			WithDetail("path", path).
			WithDetail("compression", string(alg))
	}
	defer r.Close()

	return l.Load(context.WithValue(ctx, logger.InputKey, path), r)
}

// record is one CSV record and the line it started on.
type record struct {
	fields []string
	line   int
}

// Load reads every record from r into a new store. The schema comes from the
// configuration or, when none is declared, is inferred from the first
// csv.infer_sample records.
func (l *Loader) Load(ctx context.Context, r io.Reader) (res *Result, err error) {
	ctx, span := observability.StartSpan(ctx, "ingest.load")
	span.SetAttribute("store", l.cfg.Name)
	defer func() {
		if res != nil {
			span.SetAttribute("rows", res.Rows)
			span.SetAttribute("skipped", res.Skipped)
			span.SetAttribute("schema_inferred", res.Inferred)
		}
		span.Finish(err)
	}()

	log := l.logger.With(logger.Fields(ctx)...)
	timer := metrics.NewTimer("ingest")

	reader, err := l.newReader(r)
	if err != nil {
		return nil, err
	}

	var header []string
	if l.cfg.CSV.Header {
		header, err = reader.Read()
		if err == io.EOF {
			return nil, errors.New(errors.ErrorTypeData, "input is empty")
		}
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeData, "failed to read header row")
		}
		header = append([]string(nil), header...)
	}

	var (
		schema   *columnar.Schema
		inferred bool
		buffered []record
		dropped  int
	)
	if len(l.cfg.Schema) > 0 {
		if schema, err = l.cfg.ToSchema(); err != nil {
			return nil, err
		}
		if header != nil && len(header) != len(schema.Fields) {
			return nil, errors.Newf(errors.ErrorTypeData,
				"header has %d columns, schema declares %d", len(header), len(schema.Fields))
		}
	} else {
		buffered, dropped, err = readSample(reader, l.cfg.CSV.InferSample, l.cfg.CSV.SkipInvalid)
		if err != nil {
			return nil, err
		}
		fields := make([][]string, len(buffered))
		for i, rec := range buffered {
			fields[i] = rec.fields
		}
		inferredSchema := InferSchema(header, fields, l.cfg.CSV.NullMarker)
		if len(inferredSchema.Fields) == 0 {
			return nil, errors.New(errors.ErrorTypeData, "cannot infer a schema from empty input")
		}
		schema, inferred = &inferredSchema, true
		span.AddEvent("schema.inferred", attribute.Int("columns", len(schema.Fields)))
		log.Info("inferred schema", zap.Int("columns", len(schema.Fields)), zap.Int("sample_rows", len(buffered)))
	}

	store, err := columnar.NewColumnStore(schema)
	if err != nil {
		return nil, err
	}

	state := &loadState{
		loader:  l,
		store:   store,
		schema:  schema,
		nulls:   make([]int, len(schema.Fields)),
		row:     make([]columnar.Buffer, len(schema.Fields)),
		skipped: dropped,
		log:     log,
		tracker: metrics.NewThroughputTracker(l.metrics, l.cfg.Name),
	}

	for _, rec := range buffered {
		if err := state.add(rec); err != nil {
			return nil, err
		}
	}

	for {
		if state.seen%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, errors.Wrap(err, errors.ErrorTypeInternal, "load cancelled").
					WithDetail("rows", store.RowCount())
			}
		}

		fields, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) && l.cfg.CSV.SkipInvalid {
				state.skip(perr.StartLine, err)
				continue
			}
			return nil, errors.Wrap(err, errors.ErrorTypeData, "malformed input")
		}
		line, _ := reader.FieldPos(0)
		if err := state.add(record{fields: fields, line: line}); err != nil {
			return nil, err
		}
	}

	res = &Result{
		Store:    store,
		Rows:     store.RowCount(),
		Skipped:  state.skipped,
		Duration: timer.Stop(),
		Inferred: inferred,
		Stats:    store.Stats(),
	}
	if res.Duration > 0 {
		res.RowsPerSecond = float64(res.Rows) / res.Duration.Seconds()
	}
	if res.Process, err = metrics.ReadProcessStats(); err != nil {
		log.Debug("process stats unavailable", zap.Error(err))
		err = nil
	}

	l.report(res, state.nulls)
	log.Info("load complete",
		zap.Int("rows", res.Rows),
		zap.Int("skipped", res.Skipped),
		zap.Duration("duration", res.Duration),
		zap.Float64("rows_per_second", res.RowsPerSecond),
		zap.Int64("memory_bytes", res.Stats.MemoryBytes),
		zap.Uint64("resident_bytes", res.Process.ResidentBytes))

	return res, nil
}

func (l *Loader) newReader(r io.Reader) (*csv.Reader, error) {
	comma, err := l.cfg.CSV.DelimiterRune()
	if err != nil {
		return nil, err
	}

	reader := csv.NewReader(r)
	reader.Comma = comma
	reader.FieldsPerRecord = -1 // Field counts are checked against the schema
	reader.TrimLeadingSpace = l.cfg.CSV.TrimLeadingSpace
	if l.cfg.CSV.Comment != "" {
		if reader.Comment, err = l.cfg.CSV.CommentRune(); err != nil {
			return nil, err
		}
	}
	return reader, nil
}

func (l *Loader) report(res *Result, nulls []int) {
	if l.metrics == nil {
		return
	}
	name := l.cfg.Name
	l.metrics.RowsAppended(name, res.Rows)
	l.metrics.RowsSkipped(name, res.Skipped)
	for i, f := range res.Store.Schema().Fields {
		if nulls[i] > 0 {
			l.metrics.NullValues(name, f.Name, nulls[i])
		}
	}
	l.metrics.ObserveStore(name, res.Stats)
	l.metrics.ObserveIngest(name, res.Duration, res.Rows)
	if res.Process.ResidentBytes > 0 {
		l.metrics.ObserveProcess(res.Process)
	}
}

// readSample reads up to n records for inference. Malformed records are
// dropped and counted when skipInvalid is set.
func readSample(reader *csv.Reader, n int, skipInvalid bool) ([]record, int, error) {
	sample := make([]record, 0, n)
	dropped := 0
	for len(sample) < n {
		fields, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) && skipInvalid {
				dropped++
				continue
			}
			return nil, 0, errors.Wrap(err, errors.ErrorTypeData, "malformed input")
		}
		line, _ := reader.FieldPos(0)
		sample = append(sample, record{fields: fields, line: line})
	}
	return sample, dropped, nil
}

// loadState carries per-load counters.
type loadState struct {
	loader  *Loader
	store   *columnar.ColumnStore
	schema  *columnar.Schema
	nulls   []int
	row     []columnar.Buffer
	seen    int
	skipped int
	log     *zap.Logger
	tracker *metrics.ThroughputTracker
}

// add converts one record and appends it, or skips it when invalid input
// is tolerated.
func (s *loadState) add(rec record) error {
	s.seen++
	if err := s.convert(rec); err != nil {
		if s.loader.cfg.CSV.SkipInvalid {
			s.skip(rec.line, err)
			return nil
		}
		return err
	}

	if err := s.store.AppendRow(s.row); err != nil {
		return errors.Wrap(err, errors.ErrorTypeData, "failed to append row").
			WithDetail("line", rec.line)
	}
	for i, v := range s.row {
		if v == nil {
			s.nulls[i]++
		}
	}
	s.tracker.Increment(1)

	if every := s.loader.cfg.CSV.ProgressEvery; every > 0 && s.store.RowCount()%every == 0 {
		s.log.Info("load progress",
			zap.Int("rows", s.store.RowCount()),
			zap.Int("skipped", s.skipped),
			zap.Float64("rows_per_second", s.tracker.GetAndReset()))
	}
	return nil
}

func (s *loadState) convert(rec record) error {
	if len(rec.fields) != len(s.schema.Fields) {
		return errors.Newf(errors.ErrorTypeData,
			"record has %d fields, schema has %d", len(rec.fields), len(s.schema.Fields)).
			WithDetail("line", rec.line)
	}

	marker := s.loader.cfg.CSV.NullMarker
	for i, field := range s.schema.Fields {
		text := rec.fields[i]
		if field.Nullable && text == marker {
			s.row[i] = nil
			continue
		}
		buf, err := cast.FromString(field.Type, text)
		if err != nil {
			return errors.Wrap(err, errors.ErrorTypeData, "invalid value for column "+strconv.Quote(field.Name)).
				WithDetail("line", rec.line).
				WithDetail("column", field.Name).
				WithDetail("text", text)
		}
		s.row[i] = buf
	}
	return nil
}

func (s *loadState) skip(line int, err error) {
	s.skipped++
	s.log.Debug("skipping invalid record", zap.Int("line", line), zap.Error(err))
}
