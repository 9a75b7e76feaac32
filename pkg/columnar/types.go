// Package columnar provides the byte-level columnar storage engine
package columnar

import (
	"strings"

	"github.com/ajitpratap0/strata/pkg/errors"
)

// LogicalType represents the declared data type of a column
type LogicalType int

const (
	TypeInt8 LogicalType = iota
	TypeInt16
	TypeInt32
	TypeInt64
	TypeFloat
	TypeDouble
	TypeString
)

var logicalTypeNames = [...]string{
	TypeInt8:   "int8",
	TypeInt16:  "int16",
	TypeInt32:  "int32",
	TypeInt64:  "int64",
	TypeFloat:  "float",
	TypeDouble: "double",
	TypeString: "string",
}

// NativeSize returns the storage representation size in bytes. Variable
// length types report zero.
func (t LogicalType) NativeSize() int {
	switch t {
	case TypeInt8:
		return 1
	case TypeInt16:
		return 2
	case TypeInt32, TypeFloat:
		return 4
	case TypeInt64, TypeDouble:
		return 8
	default:
		return 0
	}
}

// Tag returns the numeric type tag.
func (t LogicalType) Tag() int { return int(t) }

// FixedWidth reports whether values of the type have a static byte size.
func (t LogicalType) FixedWidth() bool { return t.NativeSize() > 0 }

// Valid reports whether t is a member of the catalog.
func (t LogicalType) Valid() bool { return t >= TypeInt8 && t <= TypeString }

func (t LogicalType) String() string {
	if !t.Valid() {
		return "unknown"
	}
	return logicalTypeNames[t]
}

// ParseLogicalType parses a type name as used in schema configuration.
func ParseLogicalType(name string) (LogicalType, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "int8", "tinyint":
		return TypeInt8, nil
	case "int16", "smallint":
		return TypeInt16, nil
	case "int32", "int", "integer":
		return TypeInt32, nil
	case "int64", "bigint", "long":
		return TypeInt64, nil
	case "float", "float32":
		return TypeFloat, nil
	case "double", "float64":
		return TypeDouble, nil
	case "string", "text", "varchar":
		return TypeString, nil
	default:
		return 0, errors.Newf(errors.ErrorTypeConfig, "unknown logical type %q", name)
	}
}

// Encoding selects the storage strategy of a column. It carries no runtime
// state.
type Encoding int

const (
	// EncodingPlain appends values to an arena without deduplication
	EncodingPlain Encoding = iota
	// EncodingDictionary stores each distinct value once and records an
	// index per row
	EncodingDictionary
)

func (e Encoding) String() string {
	switch e {
	case EncodingPlain:
		return "plain"
	case EncodingDictionary:
		return "dictionary"
	default:
		return "unknown"
	}
}

// Valid reports whether e is a known encoding.
func (e Encoding) Valid() bool { return e == EncodingPlain || e == EncodingDictionary }

// ParseEncoding parses an encoding name as used in schema configuration.
func ParseEncoding(name string) (Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "plain":
		return EncodingPlain, nil
	case "dictionary", "dict":
		return EncodingDictionary, nil
	default:
		return 0, errors.Newf(errors.ErrorTypeConfig, "unknown encoding %q", name)
	}
}

// Column is the contract shared by every typed column. Append and AppendView
// take exclusive access to the column; Get and GetView may interleave with
// each other but never with an append.
type Column interface {
	// Type returns the logical type of stored values.
	Type() LogicalType
	// Encoding returns the storage encoding.
	Encoding() Encoding
	// Len returns the number of rows appended so far.
	Len() int
	// Append stores one row, copying b.
	Append(b Buffer) error
	// AppendView stores one row from a borrowed view.
	AppendView(v View) error
	// Get returns an owned copy of the row's bytes.
	Get(row int) (Buffer, error)
	// GetView returns the row's bytes without copying. The view must not
	// outlive the column.
	GetView(row int) (View, error)
	// MemoryUsage estimates the bytes held by the column.
	MemoryUsage() int64
}

// NewColumn creates an empty column for the given type and encoding.
func NewColumn(t LogicalType, enc Encoding) (Column, error) {
	switch t {
	case TypeInt8:
		return NewFixedColumn[int8](enc)
	case TypeInt16:
		return NewFixedColumn[int16](enc)
	case TypeInt32:
		return NewFixedColumn[int32](enc)
	case TypeInt64:
		return NewFixedColumn[int64](enc)
	case TypeFloat:
		return NewFixedColumn[float32](enc)
	case TypeDouble:
		return NewFixedColumn[float64](enc)
	case TypeString:
		return NewStringColumn(enc)
	default:
		return nil, errors.Newf(errors.ErrorTypeConfig, "unsupported logical type %d", int(t)).
			WithDetail("encoding", enc.String())
	}
}

func checkRow(row, length int) error {
	if row < 0 {
		return errors.Newf(errors.ErrorTypeOutOfRange, "row %d out of range [0, %d)", row, length)
	}
	if row >= length {
		return errors.OutOfRange("row", uint64(row), uint64(length))
	}
	return nil
}
