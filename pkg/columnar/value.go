package columnar

import (
	"cmp"
	"slices"

	"github.com/ajitpratap0/strata/pkg/errors"
)

// Value pairs a fetched view with its logical type so it can be ordered.
type Value struct {
	view View
	typ  LogicalType
}

// NewValue wraps v as a value of type t.
func NewValue(v View, t LogicalType) Value {
	return Value{view: v, typ: t}
}

// ValueAt fetches row from col as a Value.
func ValueAt(col Column, row int) (Value, error) {
	v, err := col.GetView(row)
	if err != nil {
		return Value{}, err
	}
	return Value{view: v, typ: col.Type()}, nil
}

// View returns the wrapped bytes
func (v Value) View() View { return v.view }

// Type returns the logical type
func (v Value) Type() LogicalType { return v.typ }

// Compare returns -1, 0 or +1 as v sorts before, equal to or after o.
// Integers compare as signed numbers, floats by IEEE value with NaN first,
// strings by byte order.
func (v Value) Compare(o Value) (int, error) {
	if v.typ != o.typ {
		return 0, errors.Newf(errors.ErrorTypeTypeMismatch,
			"cannot compare %s with %s", v.typ, o.typ)
	}
	switch v.typ {
	case TypeInt8:
		return compareFixed[int8](v.view, o.view)
	case TypeInt16:
		return compareFixed[int16](v.view, o.view)
	case TypeInt32:
		return compareFixed[int32](v.view, o.view)
	case TypeInt64:
		return compareFixed[int64](v.view, o.view)
	case TypeFloat:
		return compareFixed[float32](v.view, o.view)
	case TypeDouble:
		return compareFixed[float64](v.view, o.view)
	case TypeString:
		return v.view.Compare(o.view), nil
	default:
		return 0, errors.Newf(errors.ErrorTypeTypeMismatch, "cannot compare values of type %s", v.typ)
	}
}

// Less reports whether v sorts before o. Incomparable values report false.
func (v Value) Less(o Value) bool {
	c, err := v.Compare(o)
	return err == nil && c < 0
}

// Greater reports whether v sorts after o. Incomparable values report false.
func (v Value) Greater(o Value) bool {
	c, err := v.Compare(o)
	return err == nil && c > 0
}

func compareFixed[T Fixed](a, b View) (int, error) {
	x, err := DecodeFixed[T](a)
	if err != nil {
		return 0, err
	}
	y, err := DecodeFixed[T](b)
	if err != nil {
		return 0, err
	}
	return cmp.Compare(x, y), nil
}

// SortedRows returns the row positions of col ordered by value. The sort is
// stable, and null rows of a NullableColumn come first.
func SortedRows(col Column) ([]int, error) {
	type keyed struct {
		row  int
		null bool
		val  Value
	}

	nullable, _ := col.(*NullableColumn)
	keys := make([]keyed, col.Len())
	for i := range keys {
		val, err := ValueAt(col, i)
		if err != nil {
			return nil, err
		}
		if w := col.Type().NativeSize(); w > 0 && val.view.Len() != w {
			return nil, errors.Newf(errors.ErrorTypeInternal, "row %d holds %d bytes, want %d", i, val.view.Len(), w)
		}
		keys[i] = keyed{row: i, val: val}
		if nullable != nil {
			if keys[i].null, err = nullable.IsNull(i); err != nil {
				return nil, err
			}
		}
	}

	slices.SortStableFunc(keys, func(a, b keyed) int {
		switch {
		case a.null && b.null:
			return 0
		case a.null:
			return -1
		case b.null:
			return 1
		}
		c, _ := a.val.Compare(b.val)
		return c
	})

	rows := make([]int, len(keys))
	for i, k := range keys {
		rows[i] = k.row
	}
	return rows, nil
}
