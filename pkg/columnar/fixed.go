package columnar

import (
	"github.com/ajitpratap0/strata/pkg/errors"
)

// FixedColumn stores values whose byte size is known from the logical type.
// The column keeps no offset table: row i is the i-th append, and the
// storage's Locate turns that position into a byte offset (plain) or an
// index (dictionary).
type FixedColumn[T Fixed] struct {
	typ   LogicalType
	width uint64
	store Storage
	rows  int
}

// NewFixedColumn creates an empty fixed-width column of T.
func NewFixedColumn[T Fixed](enc Encoding) (*FixedColumn[T], error) {
	t := TypeOf[T]()
	store, err := NewStorage(enc)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "cannot create fixed-width column").
			WithDetail("type", t.String())
	}
	return &FixedColumn[T]{
		typ:   t,
		width: uint64(t.NativeSize()),
		store: store,
	}, nil
}

func (c *FixedColumn[T]) Type() LogicalType  { return c.typ }
func (c *FixedColumn[T]) Encoding() Encoding { return c.store.Encoding() }
func (c *FixedColumn[T]) Len() int           { return c.rows }

// Width returns the element size in bytes.
func (c *FixedColumn[T]) Width() int { return int(c.width) }

// Storage returns the underlying storage.
func (c *FixedColumn[T]) Storage() Storage { return c.store }

func (c *FixedColumn[T]) Append(b Buffer) error {
	return c.AppendView(b.View())
}

func (c *FixedColumn[T]) AppendView(v View) error {
	if uint64(len(v)) != c.width {
		return errors.Newf(errors.ErrorTypeTypeMismatch,
			"%s value must be %d bytes, got %d", c.typ, c.width, len(v)).
			WithDetail("row", c.rows)
	}
	if _, err := c.store.Append(v); err != nil {
		return err
	}
	c.rows++
	return nil
}

// AppendValue encodes and appends a typed value.
func (c *FixedColumn[T]) AppendValue(v T) error {
	var scratch [8]byte
	return c.AppendView(EncodeFixed(scratch[:0], v))
}

func (c *FixedColumn[T]) GetView(row int) (View, error) {
	if err := checkRow(row, c.rows); err != nil {
		return nil, err
	}
	return c.store.Read(c.store.Locate(uint64(row), c.width), c.width)
}

func (c *FixedColumn[T]) Get(row int) (Buffer, error) {
	v, err := c.GetView(row)
	if err != nil {
		return nil, err
	}
	return NewBuffer(v), nil
}

// Value decodes the typed value at row.
func (c *FixedColumn[T]) Value(row int) (T, error) {
	v, err := c.GetView(row)
	if err != nil {
		var zero T
		return zero, err
	}
	return DecodeFixed[T](v)
}

// Distinct returns the number of distinct values stored. Plain storage does
// not deduplicate, so it reports the row count.
func (c *FixedColumn[T]) Distinct() int {
	return distinctOf(c.store, c.rows)
}

func (c *FixedColumn[T]) MemoryUsage() int64 {
	return c.store.MemoryUsage() + 32
}

func distinctOf(s Storage, rows int) int {
	if d, ok := s.(*DictionaryStorage); ok {
		return d.Distinct()
	}
	return rows
}
