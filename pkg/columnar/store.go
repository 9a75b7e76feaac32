package columnar

import (
	"github.com/ajitpratap0/strata/pkg/errors"
)

// Schema defines the structure of a columnar store
type Schema struct {
	Fields []FieldSchema
}

// FieldSchema defines a single field in the schema
type FieldSchema struct {
	Name     string
	Type     LogicalType
	Encoding Encoding
	Nullable bool
}

// Validate checks that field names are unique and non-empty and that every
// type and encoding is known.
func (s *Schema) Validate() error {
	if s == nil || len(s.Fields) == 0 {
		return errors.New(errors.ErrorTypeConfig, "schema has no fields")
	}
	seen := make(map[string]struct{}, len(s.Fields))
	for i, f := range s.Fields {
		if f.Name == "" {
			return errors.Newf(errors.ErrorTypeConfig, "field %d has no name", i)
		}
		if _, dup := seen[f.Name]; dup {
			return errors.Newf(errors.ErrorTypeConfig, "duplicate field %q", f.Name)
		}
		seen[f.Name] = struct{}{}
		if !f.Type.Valid() {
			return errors.Newf(errors.ErrorTypeConfig, "field %q has unknown type", f.Name).
				WithDetail("type", int(f.Type))
		}
		if !f.Encoding.Valid() {
			return errors.Newf(errors.ErrorTypeConfig, "field %q has unknown encoding", f.Name).
				WithDetail("encoding", int(f.Encoding))
		}
	}
	return nil
}

// ColumnStore holds one column per schema field and keeps them at the same
// row count. It has a single writer; callers that share a store across
// goroutines must serialize appends themselves.
type ColumnStore struct {
	schema   Schema
	columns  []Column
	byName   map[string]int
	rowCount int
}

// NewColumnStore creates an empty store for schema.
func NewColumnStore(schema *Schema) (*ColumnStore, error) {
	if err := schema.Validate(); err != nil {
		return nil, err
	}

	store := &ColumnStore{
		schema:  Schema{Fields: append([]FieldSchema(nil), schema.Fields...)},
		columns: make([]Column, len(schema.Fields)),
		byName:  make(map[string]int, len(schema.Fields)),
	}
	for i, field := range schema.Fields {
		col, err := createColumn(field)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeConfig, "cannot create column").
				WithDetail("column", field.Name)
		}
		store.columns[i] = col
		store.byName[field.Name] = i
	}
	return store, nil
}

// createColumn creates a new column for the field
func createColumn(field FieldSchema) (Column, error) {
	if field.Nullable {
		return NewNullable(field.Type, field.Encoding)
	}
	return NewColumn(field.Type, field.Encoding)
}

// AppendRow adds one row. values holds one entry per field in schema order;
// a nil entry is a null and is only accepted by nullable fields. The row is
// validated before any column is touched, so a rejected row leaves the
// store unchanged.
func (s *ColumnStore) AppendRow(values []Buffer) error {
	views := make([]View, len(values))
	for i, v := range values {
		if v != nil {
			views[i] = v.View()
		}
	}
	return s.AppendViews(views)
}

// AppendViews is AppendRow for borrowed values.
func (s *ColumnStore) AppendViews(values []View) error {
	if len(values) != len(s.columns) {
		return errors.Newf(errors.ErrorTypeValidation,
			"row has %d values, schema has %d fields", len(values), len(s.columns)).
			WithDetail("row", s.rowCount)
	}

	for i, v := range values {
		field := s.schema.Fields[i]
		if v == nil {
			if !field.Nullable {
				return errors.Newf(errors.ErrorTypeValidation, "column %q is not nullable", field.Name).
					WithDetail("row", s.rowCount)
			}
			continue
		}
		if w := field.Type.NativeSize(); w > 0 && len(v) != w {
			return errors.Newf(errors.ErrorTypeTypeMismatch,
				"column %q expects %d-byte values, got %d", field.Name, w, len(v)).
				WithDetail("row", s.rowCount)
		}
	}
	for i, v := range values {
		if err := checkCapacity(s.columns[i], v); err != nil {
			return errors.Wrap(err, errors.ErrorTypeOutOfRange, "column cannot take another value").
				WithDetail("column", s.schema.Fields[i].Name).
				WithDetail("row", s.rowCount)
		}
	}

	for i, v := range values {
		var err error
		if nc, ok := s.columns[i].(*NullableColumn); ok {
			err = nc.AppendOptional(v, v == nil)
		} else {
			err = s.columns[i].AppendView(v)
		}
		if err != nil {
			return errors.Wrap(err, errors.ErrorTypeInternal, "column rejected a validated value").
				WithDetail("column", s.schema.Fields[i].Name).
				WithDetail("row", s.rowCount)
		}
	}

	s.rowCount++
	return nil
}

// GetRow retrieves a row by index. Null values are returned as nil views.
func (s *ColumnStore) GetRow(index int) ([]View, error) {
	row := make([]View, len(s.columns))
	if err := s.readRow(index, row); err != nil {
		return nil, err
	}
	return row, nil
}

func (s *ColumnStore) readRow(index int, row []View) error {
	if err := checkRow(index, s.rowCount); err != nil {
		return err
	}
	for i, col := range s.columns {
		if nc, ok := col.(*NullableColumn); ok {
			null, err := nc.IsNull(index)
			if err != nil {
				return err
			}
			if null {
				row[i] = nil
				continue
			}
		}
		v, err := col.GetView(index)
		if err != nil {
			return errors.Wrap(err, errors.ErrorTypeInternal, "cannot read column").
				WithDetail("column", s.schema.Fields[i].Name)
		}
		row[i] = v
	}
	return nil
}

// GetColumn retrieves a column by name
func (s *ColumnStore) GetColumn(name string) (Column, bool) {
	i, exists := s.byName[name]
	if !exists {
		return nil, false
	}
	return s.columns[i], true
}

// ColumnAt returns the i-th column in schema order.
func (s *ColumnStore) ColumnAt(i int) Column { return s.columns[i] }

// Schema returns a copy of the store schema.
func (s *ColumnStore) Schema() Schema {
	return Schema{Fields: append([]FieldSchema(nil), s.schema.Fields...)}
}

// RowCount returns the number of rows
func (s *ColumnStore) RowCount() int { return s.rowCount }

// ColumnCount returns the number of columns
func (s *ColumnStore) ColumnCount() int { return len(s.columns) }

// ColumnNames returns all column names in schema order
func (s *ColumnStore) ColumnNames() []string {
	names := make([]string, len(s.schema.Fields))
	for i, f := range s.schema.Fields {
		names[i] = f.Name
	}
	return names
}

// MemoryUsage returns total memory usage in bytes
func (s *ColumnStore) MemoryUsage() int64 {
	var total int64

	// Overhead for the store itself
	total += 64
	total += int64(len(s.columns) * 32)

	for i, col := range s.columns {
		total += int64(len(s.schema.Fields[i].Name))
		total += col.MemoryUsage()
	}
	return total
}

// MemoryPerRecord returns average memory usage per record
func (s *ColumnStore) MemoryPerRecord() float64 {
	if s.rowCount == 0 {
		return 0
	}
	return float64(s.MemoryUsage()) / float64(s.rowCount)
}

// ColumnStats describes one column of a store.
type ColumnStats struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Encoding    string `json:"encoding"`
	Rows        int    `json:"rows"`
	Distinct    int    `json:"distinct"`
	Nulls       int    `json:"nulls"`
	MemoryBytes int64  `json:"memory_bytes"`
}

// StoreStats describes a store and its columns.
type StoreStats struct {
	Rows           int           `json:"rows"`
	MemoryBytes    int64         `json:"memory_bytes"`
	BytesPerRecord float64       `json:"bytes_per_record"`
	Columns        []ColumnStats `json:"columns"`
}

// Stats returns memory and cardinality statistics
func (s *ColumnStore) Stats() StoreStats {
	stats := StoreStats{
		Rows:           s.rowCount,
		MemoryBytes:    s.MemoryUsage(),
		BytesPerRecord: s.MemoryPerRecord(),
		Columns:        make([]ColumnStats, len(s.columns)),
	}
	for i, col := range s.columns {
		stats.Columns[i] = StatsOf(s.schema.Fields[i].Name, col)
	}
	return stats
}

// StatsOf returns statistics for a single column.
func StatsOf(name string, col Column) ColumnStats {
	cs := ColumnStats{
		Name:        name,
		Type:        col.Type().String(),
		Encoding:    col.Encoding().String(),
		Rows:        col.Len(),
		MemoryBytes: col.MemoryUsage(),
	}
	if nc, ok := col.(*NullableColumn); ok {
		cs.Nulls = nc.NullCount()
	}
	cs.Distinct = col.Len()
	if d, ok := col.(interface{ Distinct() int }); ok {
		cs.Distinct = d.Distinct()
	}
	return cs
}

// checkCapacity reports whether a dictionary-encoded col can intern v. A nil v
// stands for the placeholder of a nullable column.
func checkCapacity(col Column, v View) error {
	if nc, ok := col.(*NullableColumn); ok {
		col = nc.inner
		if v == nil {
			v = nc.placeholder
		}
	}
	sc, ok := col.(interface{ Storage() Storage })
	if !ok {
		return nil
	}
	if d, ok := sc.Storage().(*DictionaryStorage); ok {
		return d.CanAppend(v)
	}
	return nil
}

// Iterator provides sequential access to rows
type Iterator struct {
	store  *ColumnStore
	index  int
	buffer []View
	err    error
}

// NewIterator creates a new iterator over the store
func (s *ColumnStore) NewIterator() *Iterator {
	return &Iterator{
		store:  s,
		index:  -1,
		buffer: make([]View, len(s.columns)),
	}
}

// Next advances to the next row and loads it
func (it *Iterator) Next() bool {
	if it.err != nil {
		return false
	}
	it.index++
	if it.index >= it.store.rowCount {
		return false
	}
	if err := it.store.readRow(it.index, it.buffer); err != nil {
		it.err = err
		return false
	}
	return true
}

// Row returns the current row. The slice is reused by the next call to Next.
func (it *Iterator) Row() []View { return it.buffer }

// Index returns the current row position.
func (it *Iterator) Index() int { return it.index }

// Err returns the error that stopped iteration, if any.
func (it *Iterator) Err() error { return it.err }

// BatchIterator provides batch access to rows
type BatchIterator struct {
	store     *ColumnStore
	batchSize int
	index     int
}

// NewBatchIterator creates a new batch iterator
func (s *ColumnStore) NewBatchIterator(batchSize int) *BatchIterator {
	if batchSize <= 0 {
		batchSize = 1
	}
	return &BatchIterator{
		store:     s,
		batchSize: batchSize,
	}
}

// NextBatch returns the next batch of rows
func (it *BatchIterator) NextBatch() ([][]View, bool, error) {
	if it.index >= it.store.rowCount {
		return nil, false, nil
	}

	endIndex := it.index + it.batchSize
	if endIndex > it.store.rowCount {
		endIndex = it.store.rowCount
	}

	batch := make([][]View, 0, endIndex-it.index)
	for i := it.index; i < endIndex; i++ {
		row, err := it.store.GetRow(i)
		if err != nil {
			return nil, false, err
		}
		batch = append(batch, row)
	}

	it.index = endIndex
	return batch, true, nil
}
