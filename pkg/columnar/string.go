package columnar

import (
	"encoding/binary"

	"github.com/ajitpratap0/strata/pkg/errors"
)

// lengthPrefixSize is the size of the little-endian length written ahead of
// each plain-encoded string.
const lengthPrefixSize = 8

// StringColumn stores variable-length values. Because sizes vary, the
// column records where each row begins in an offset table.
//
// Under plain encoding a row is two consecutive appends, an 8-byte length
// prefix then the payload, and offsets[i] is the offset of the prefix.
// Under dictionary encoding a row is a single append and offsets[i] is the
// dictionary index; the interned value carries its own length.
type StringColumn struct {
	store   Storage
	offsets []uint64
}

// NewStringColumn creates an empty string column.
func NewStringColumn(enc Encoding) (*StringColumn, error) {
	store, err := NewStorage(enc)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "cannot create string column")
	}
	return &StringColumn{
		store:   store,
		offsets: make([]uint64, 0, 1024),
	}, nil
}

func (c *StringColumn) Type() LogicalType  { return TypeString }
func (c *StringColumn) Encoding() Encoding { return c.store.Encoding() }
func (c *StringColumn) Len() int           { return len(c.offsets) }

// Storage returns the underlying storage.
func (c *StringColumn) Storage() Storage { return c.store }

func (c *StringColumn) Append(b Buffer) error {
	return c.AppendView(b.View())
}

func (c *StringColumn) AppendView(v View) error {
	if c.store.Encoding() == EncodingDictionary {
		index, err := c.store.Append(v)
		if err != nil {
			return err
		}
		c.offsets = append(c.offsets, index)
		return nil
	}

	var prefix [lengthPrefixSize]byte
	binary.LittleEndian.PutUint64(prefix[:], uint64(len(v)))
	offset, err := c.store.Append(prefix[:])
	if err != nil {
		return err
	}
	if _, err := c.store.Append(v); err != nil {
		return err
	}
	c.offsets = append(c.offsets, offset)
	return nil
}

// AppendString appends s.
func (c *StringColumn) AppendString(s string) error {
	return c.AppendView(ViewString(s))
}

func (c *StringColumn) GetView(row int) (View, error) {
	if err := checkRow(row, len(c.offsets)); err != nil {
		return nil, err
	}
	offset := c.offsets[row]

	if c.store.Encoding() == EncodingDictionary {
		return c.store.Read(offset, 0)
	}

	prefix, err := c.store.Read(offset, lengthPrefixSize)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeInternal, "cannot read length prefix").
			WithDetail("row", row)
	}
	size := binary.LittleEndian.Uint64(prefix)
	return c.store.Read(offset+lengthPrefixSize, size)
}

func (c *StringColumn) Get(row int) (Buffer, error) {
	v, err := c.GetView(row)
	if err != nil {
		return nil, err
	}
	return NewBuffer(v), nil
}

// String returns a copy of the row's value as a string.
func (c *StringColumn) String(row int) (string, error) {
	v, err := c.GetView(row)
	if err != nil {
		return "", err
	}
	return string(v), nil
}

// Offset returns the storage location recorded for row: the length prefix
// offset under plain encoding, the dictionary index otherwise.
func (c *StringColumn) Offset(row int) (uint64, error) {
	if err := checkRow(row, len(c.offsets)); err != nil {
		return 0, err
	}
	return c.offsets[row], nil
}

// Handle returns the dictionary handle of row's value. Rows with equal
// content share a handle. Plain columns return a TypeMismatch error.
func (c *StringColumn) Handle(row int) (uint32, error) {
	d, ok := c.store.(*DictionaryStorage)
	if !ok {
		return 0, errors.New(errors.ErrorTypeTypeMismatch, "column is not dictionary encoded")
	}
	if err := checkRow(row, len(c.offsets)); err != nil {
		return 0, err
	}
	return d.Handle(c.offsets[row])
}

// Distinct returns the number of distinct values stored. Plain storage does
// not deduplicate, so it reports the row count.
func (c *StringColumn) Distinct() int {
	return distinctOf(c.store, len(c.offsets))
}

func (c *StringColumn) MemoryUsage() int64 {
	return c.store.MemoryUsage() + int64(cap(c.offsets)*8)
}
