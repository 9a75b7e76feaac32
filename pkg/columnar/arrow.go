package columnar

import (
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/ajitpratap0/strata/pkg/errors"
)

// ArrowType returns the Arrow data type used to export values of t.
func ArrowType(t LogicalType) (arrow.DataType, error) {
	switch t {
	case TypeInt8:
		return arrow.PrimitiveTypes.Int8, nil
	case TypeInt16:
		return arrow.PrimitiveTypes.Int16, nil
	case TypeInt32:
		return arrow.PrimitiveTypes.Int32, nil
	case TypeInt64:
		return arrow.PrimitiveTypes.Int64, nil
	case TypeFloat:
		return arrow.PrimitiveTypes.Float32, nil
	case TypeDouble:
		return arrow.PrimitiveTypes.Float64, nil
	case TypeString:
		return arrow.BinaryTypes.String, nil
	default:
		return nil, errors.Newf(errors.ErrorTypeConfig, "no arrow type for %s", t)
	}
}

// ToArrow copies a column into a new Arrow array. Null flags of a
// NullableColumn become Arrow validity. The caller owns the returned array
// and must Release it.
func ToArrow(col Column, mem memory.Allocator) (arrow.Array, error) {
	if mem == nil {
		mem = memory.NewGoAllocator()
	}
	switch col.Type() {
	case TypeInt8:
		return buildFixed[int8](col, array.NewInt8Builder(mem))
	case TypeInt16:
		return buildFixed[int16](col, array.NewInt16Builder(mem))
	case TypeInt32:
		return buildFixed[int32](col, array.NewInt32Builder(mem))
	case TypeInt64:
		return buildFixed[int64](col, array.NewInt64Builder(mem))
	case TypeFloat:
		return buildFixed[float32](col, array.NewFloat32Builder(mem))
	case TypeDouble:
		return buildFixed[float64](col, array.NewFloat64Builder(mem))
	case TypeString:
		return buildString(col, array.NewStringBuilder(mem))
	default:
		return nil, errors.Newf(errors.ErrorTypeConfig, "cannot export %s column to arrow", col.Type())
	}
}

type fixedBuilder[T Fixed] interface {
	array.Builder
	Append(T)
}

func buildFixed[T Fixed, B fixedBuilder[T]](col Column, b B) (arrow.Array, error) {
	defer b.Release()
	b.Reserve(col.Len())

	for i := 0; i < col.Len(); i++ {
		null, err := nullAt(col, i)
		if err != nil {
			return nil, err
		}
		if null {
			b.AppendNull()
			continue
		}
		v, err := col.GetView(i)
		if err != nil {
			return nil, err
		}
		x, err := DecodeFixed[T](v)
		if err != nil {
			return nil, err
		}
		b.Append(x)
	}
	return b.NewArray(), nil
}

func buildString(col Column, b *array.StringBuilder) (arrow.Array, error) {
	defer b.Release()
	b.Reserve(col.Len())

	for i := 0; i < col.Len(); i++ {
		null, err := nullAt(col, i)
		if err != nil {
			return nil, err
		}
		if null {
			b.AppendNull()
			continue
		}
		v, err := col.GetView(i)
		if err != nil {
			return nil, err
		}
		// Append copies, so the zero-copy string is safe here.
		b.Append(v.String())
	}
	return b.NewArray(), nil
}

func nullAt(col Column, row int) (bool, error) {
	if nc, ok := col.(*NullableColumn); ok {
		return nc.IsNull(row)
	}
	return false, nil
}

// ArrowSchema converts a store schema to an Arrow schema.
func ArrowSchema(schema Schema) (*arrow.Schema, error) {
	fields := make([]arrow.Field, len(schema.Fields))
	for i, f := range schema.Fields {
		dt, err := ArrowType(f.Type)
		if err != nil {
			return nil, err
		}
		fields[i] = arrow.Field{Name: f.Name, Type: dt, Nullable: f.Nullable}
	}
	return arrow.NewSchema(fields, nil), nil
}

// StoreToRecord exports every column of the store as one Arrow record. The
// caller owns the record and must Release it.
func StoreToRecord(store *ColumnStore, mem memory.Allocator) (arrow.Record, error) {
	schema, err := ArrowSchema(store.Schema())
	if err != nil {
		return nil, err
	}

	cols := make([]arrow.Array, 0, store.ColumnCount())
	defer func() {
		for _, c := range cols {
			c.Release()
		}
	}()

	for i := 0; i < store.ColumnCount(); i++ {
		arr, err := ToArrow(store.ColumnAt(i), mem)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeData, "cannot export column").
				WithDetail("column", schema.Field(i).Name)
		}
		cols = append(cols, arr)
	}

	return array.NewRecord(schema, cols, int64(store.RowCount())), nil
}
