package columnar

import (
	"encoding/binary"
	"math"

	"github.com/ajitpratap0/strata/pkg/errors"
)

// Fixed is the set of Go types stored by fixed-width columns.
type Fixed interface {
	int8 | int16 | int32 | int64 | float32 | float64
}

// TypeOf returns the logical type stored for T.
func TypeOf[T Fixed]() LogicalType {
	var zero T
	switch any(zero).(type) {
	case int8:
		return TypeInt8
	case int16:
		return TypeInt16
	case int32:
		return TypeInt32
	case int64:
		return TypeInt64
	case float32:
		return TypeFloat
	default:
		return TypeDouble
	}
}

// EncodeFixed appends the little-endian representation of v to dst.
func EncodeFixed[T Fixed](dst []byte, v T) []byte {
	switch x := any(v).(type) {
	case int8:
		return append(dst, byte(x))
	case int16:
		return binary.LittleEndian.AppendUint16(dst, uint16(x))
	case int32:
		return binary.LittleEndian.AppendUint32(dst, uint32(x))
	case int64:
		return binary.LittleEndian.AppendUint64(dst, uint64(x))
	case float32:
		return binary.LittleEndian.AppendUint32(dst, math.Float32bits(x))
	case float64:
		return binary.LittleEndian.AppendUint64(dst, math.Float64bits(x))
	}
	return dst
}

// DecodeFixed decodes a little-endian value of type T.
func DecodeFixed[T Fixed](v View) (T, error) {
	var zero T
	t := TypeOf[T]()
	if len(v) != t.NativeSize() {
		return zero, errors.Newf(errors.ErrorTypeTypeMismatch,
			"cannot decode %d bytes as %s", len(v), t).
			WithDetail("expected", t.NativeSize())
	}

	var out any
	switch any(zero).(type) {
	case int8:
		out = int8(v[0])
	case int16:
		out = int16(binary.LittleEndian.Uint16(v))
	case int32:
		out = int32(binary.LittleEndian.Uint32(v))
	case int64:
		out = int64(binary.LittleEndian.Uint64(v))
	case float32:
		out = math.Float32frombits(binary.LittleEndian.Uint32(v))
	case float64:
		out = math.Float64frombits(binary.LittleEndian.Uint64(v))
	}
	return out.(T), nil
}
