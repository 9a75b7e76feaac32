package ingest

import (
	"context"
	"encoding/csv"
	"io"
	"os"

	"github.com/ajitpratap0/strata/pkg/cast"
	"github.com/ajitpratap0/strata/pkg/columnar"
	"github.com/ajitpratap0/strata/pkg/compression"
	"github.com/ajitpratap0/strata/pkg/config"
	"github.com/ajitpratap0/strata/pkg/errors"
	"github.com/ajitpratap0/strata/pkg/observability"
)

// ExportFile writes store to path as CSV, compressed according to
// opts.Compression. The file is replaced if it exists.
func ExportFile(ctx context.Context, store *columnar.ColumnStore, path string, opts config.CSVConfig) (err error) {
	_, span := observability.StartSpan(ctx, "ingest.export")
	span.SetAttribute("rows", store.RowCount())
	defer func() { span.Finish(err) }()

	alg, err := opts.CompressionAlgorithm()
	if err != nil {
		return err
	}
	alg = compression.Resolve(alg, path)
	span.SetAttribute("compression", string(alg))

	f, err := os.Create(path) //nolint:gosec // G304: path comes from the operator
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to create output").
			WithDetail("path", path)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = errors.Wrap(cerr, errors.ErrorTypeFile, "failed to close output").
				WithDetail("path", path)
		}
	}()

	w, err := compression.NewWriter(alg, f, compression.Default)
	if err != nil {
		return err
	}
	if err := Export(store, w, opts); err != nil {
		_ = w.Close()
		return err
	}
	if err := w.Close(); err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to finish compressed output").
			WithDetail("path", path)
	}
	return nil
}

// Export writes every row of store to w as CSV using the delimiter, header
// and null marker settings of opts. Nulls are written as the null marker.
func Export(store *columnar.ColumnStore, w io.Writer, opts config.CSVConfig) error {
	comma, err := opts.DelimiterRune()
	if err != nil {
		return err
	}

	writer := csv.NewWriter(w)
	writer.Comma = comma

	if opts.Header {
		if err := writer.Write(store.ColumnNames()); err != nil {
			return errors.Wrap(err, errors.ErrorTypeFile, "failed to write header")
		}
	}

	types := make([]columnar.LogicalType, store.ColumnCount())
	for i := range types {
		types[i] = store.ColumnAt(i).Type()
	}

	record := make([]string, store.ColumnCount())
	it := store.NewIterator()
	for it.Next() {
		for i, v := range it.Row() {
			if v == nil {
				record[i] = opts.NullMarker
				continue
			}
			s, err := cast.ToString(types[i], v)
			if err != nil {
				return errors.Wrap(err, errors.ErrorTypeInternal, "failed to format value").
					WithDetail("row", it.Index()).
					WithDetail("column", i)
			}
			record[i] = s
		}
		if err := writer.Write(record); err != nil {
			return errors.Wrap(err, errors.ErrorTypeFile, "failed to write row").
				WithDetail("row", it.Index())
		}
	}
	if err := it.Err(); err != nil {
		return err
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to flush output")
	}
	return nil
}
