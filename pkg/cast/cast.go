// Package cast converts between textual values and the little-endian byte
// representation stored by columnar columns.
package cast

import (
	"strconv"
	"strings"

	"github.com/ajitpratap0/strata/pkg/columnar"
	"github.com/ajitpratap0/strata/pkg/errors"
)

// FromString parses s as a value of type t and returns its stored bytes.
// Numeric text is trimmed of surrounding spaces; string values are kept
// verbatim.
func FromString(t columnar.LogicalType, s string) (columnar.Buffer, error) {
	if t == columnar.TypeString {
		return columnar.BufferString(s), nil
	}

	text := strings.TrimSpace(s)
	var (
		buf = make(columnar.Buffer, 0, 8)
		err error
	)
	switch t {
	case columnar.TypeInt8:
		buf, err = parseInt[int8](buf, text, 8)
	case columnar.TypeInt16:
		buf, err = parseInt[int16](buf, text, 16)
	case columnar.TypeInt32:
		buf, err = parseInt[int32](buf, text, 32)
	case columnar.TypeInt64:
		buf, err = parseInt[int64](buf, text, 64)
	case columnar.TypeFloat:
		var f float64
		if f, err = strconv.ParseFloat(text, 32); err == nil {
			buf = columnar.EncodeFixed(buf, float32(f))
		}
	case columnar.TypeDouble:
		var f float64
		if f, err = strconv.ParseFloat(text, 64); err == nil {
			buf = columnar.EncodeFixed(buf, f)
		}
	default:
		return nil, errors.Newf(errors.ErrorTypeConfig, "cannot cast to type %d", int(t))
	}

	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeData, "cannot parse "+t.String()).
			WithDetail("text", s)
	}
	return buf, nil
}

func parseInt[T int8 | int16 | int32 | int64](dst columnar.Buffer, text string, bitSize int) (columnar.Buffer, error) {
	n, err := strconv.ParseInt(text, 10, bitSize)
	if err != nil {
		return nil, err
	}
	return columnar.EncodeFixed(dst, T(n)), nil
}

// ToString formats the stored bytes v of type t as text. Floats use the
// shortest representation that parses back to the same value.
func ToString(t columnar.LogicalType, v columnar.View) (string, error) {
	switch t {
	case columnar.TypeString:
		return string(v), nil
	case columnar.TypeInt8:
		return formatInt[int8](v)
	case columnar.TypeInt16:
		return formatInt[int16](v)
	case columnar.TypeInt32:
		return formatInt[int32](v)
	case columnar.TypeInt64:
		return formatInt[int64](v)
	case columnar.TypeFloat:
		f, err := columnar.DecodeFixed[float32](v)
		if err != nil {
			return "", err
		}
		return strconv.FormatFloat(float64(f), 'g', -1, 32), nil
	case columnar.TypeDouble:
		f, err := columnar.DecodeFixed[float64](v)
		if err != nil {
			return "", err
		}
		return strconv.FormatFloat(f, 'g', -1, 64), nil
	default:
		return "", errors.Newf(errors.ErrorTypeConfig, "cannot format type %d", int(t))
	}
}

func formatInt[T int8 | int16 | int32 | int64](v columnar.View) (string, error) {
	n, err := columnar.DecodeFixed[T](v)
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(int64(n), 10), nil
}

// AppendString parses s for col's type and appends it.
func AppendString(col columnar.Column, s string) error {
	buf, err := FromString(col.Type(), s)
	if err != nil {
		return err
	}
	return col.Append(buf)
}

// StringAt formats row of col as text.
func StringAt(col columnar.Column, row int) (string, error) {
	v, err := col.GetView(row)
	if err != nil {
		return "", err
	}
	return ToString(col.Type(), v)
}
