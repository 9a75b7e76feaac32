package columnar

import (
	"github.com/ajitpratap0/strata/pkg/errors"
)

// NullableColumn augments a typed column with a per-row null flag kept
// beside the values. A null row still occupies a value slot: the overlay
// appends a placeholder (zero bytes of the element width, or an empty string)
// so row positions in the values and the flags always agree.
//
// A value and its flag are appended by one call. The wrapped value column is
// created by NewNullable and never handed out, so nothing outside the
// overlay can append a value without its flag.
type NullableColumn struct {
	inner       Column
	nulls       nullBitmap
	placeholder View
}

// newNullableColumn wraps an empty column. The caller must not retain inner.
func newNullableColumn(inner Column) (*NullableColumn, error) {
	if inner == nil {
		return nil, errors.New(errors.ErrorTypeValidation, "nullable column requires a value column")
	}
	if inner.Len() != 0 {
		return nil, errors.New(errors.ErrorTypeValidation, "nullable column must wrap an empty column").
			WithDetail("rows", inner.Len())
	}
	return &NullableColumn{
		inner:       inner,
		placeholder: make(View, inner.Type().NativeSize()),
	}, nil
}

// NewNullable creates an empty nullable column for the given type and
// encoding.
func NewNullable(t LogicalType, enc Encoding) (*NullableColumn, error) {
	inner, err := NewColumn(t, enc)
	if err != nil {
		return nil, err
	}
	return newNullableColumn(inner)
}

func (c *NullableColumn) Type() LogicalType  { return c.inner.Type() }
func (c *NullableColumn) Encoding() Encoding { return c.inner.Encoding() }
func (c *NullableColumn) Len() int           { return c.inner.Len() }

// Distinct returns the number of distinct value slots held by the wrapped
// column. A placeholder counts once if any row is null.
func (c *NullableColumn) Distinct() int {
	if d, ok := c.inner.(interface{ Distinct() int }); ok {
		return d.Distinct()
	}
	return c.inner.Len()
}

// Append appends a non-null value.
func (c *NullableColumn) Append(b Buffer) error {
	return c.AppendOptional(b.View(), false)
}

// AppendView appends a non-null value.
func (c *NullableColumn) AppendView(v View) error {
	return c.AppendOptional(v, false)
}

// AppendNull appends a null row.
func (c *NullableColumn) AppendNull() error {
	return c.AppendOptional(nil, true)
}

// AppendOptional appends v and its null flag as one row. When null is true
// v is ignored and the placeholder is stored instead. The flag is recorded
// only if the value append succeeds.
func (c *NullableColumn) AppendOptional(v View, null bool) error {
	if null {
		v = c.placeholder
	}
	if err := c.inner.AppendView(v); err != nil {
		return err
	}
	c.nulls.append(null)
	return nil
}

// IsNull reports the null flag recorded for row.
func (c *NullableColumn) IsNull(row int) (bool, error) {
	if err := checkRow(row, c.nulls.len()); err != nil {
		return false, err
	}
	return c.nulls.get(row), nil
}

// GetView returns the value slot of row, whatever its null flag.
func (c *NullableColumn) GetView(row int) (View, error) {
	return c.inner.GetView(row)
}

// Get returns a copy of the value slot of row, whatever its null flag.
func (c *NullableColumn) Get(row int) (Buffer, error) {
	return c.inner.Get(row)
}

// NullCount returns the number of null rows.
func (c *NullableColumn) NullCount() int { return c.nulls.ones }

func (c *NullableColumn) MemoryUsage() int64 {
	return c.inner.MemoryUsage() + int64(len(c.nulls.words)*8)
}

// nullBitmap packs 64 flags per word.
type nullBitmap struct {
	words []uint64
	count int
	ones  int
}

func (b *nullBitmap) append(v bool) {
	wordIndex := b.count / 64
	bitIndex := b.count % 64

	if wordIndex >= len(b.words) {
		b.words = append(b.words, 0)
	}
	if v {
		b.words[wordIndex] |= 1 << bitIndex
		b.ones++
	}
	b.count++
}

func (b *nullBitmap) get(i int) bool {
	return b.words[i/64]&(1<<(i%64)) != 0
}

func (b *nullBitmap) len() int { return b.count }
