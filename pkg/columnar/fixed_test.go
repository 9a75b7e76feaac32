package columnar

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/strata/pkg/errors"
)

func TestFixedColumn_PlainInt64(t *testing.T) {
	col, err := NewFixedColumn[int64](EncodingPlain)
	require.NoError(t, err)

	for _, v := range []int64{10, 20, 30} {
		require.NoError(t, col.AppendValue(v))
	}

	assert.Equal(t, 3, col.Len())
	assert.Equal(t, TypeInt64, col.Type())
	assert.Equal(t, 8, col.Width())

	got, err := col.Value(1)
	require.NoError(t, err)
	assert.Equal(t, int64(20), got)

	// row 1 begins at byte offset 8
	raw, err := col.Storage().Read(8, 8)
	require.NoError(t, err)
	assert.Equal(t, View(EncodeFixed(nil, int64(20))), raw)
}

func TestFixedColumn_DictionaryInt32(t *testing.T) {
	col, err := NewFixedColumn[int32](EncodingDictionary)
	require.NoError(t, err)

	for _, v := range []int32{7, 7, 9} {
		require.NoError(t, col.AppendValue(v))
	}

	assert.Equal(t, 2, col.Distinct())
	for i, want := range []int32{7, 7, 9} {
		got, err := col.Value(i)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestFixedColumn_AllTypesRoundTrip(t *testing.T) {
	for _, enc := range []Encoding{EncodingPlain, EncodingDictionary} {
		t.Run(enc.String(), func(t *testing.T) {
			roundTrip(t, enc, []int8{math.MinInt8, -1, 0, math.MaxInt8})
			roundTrip(t, enc, []int16{math.MinInt16, 0, 12345})
			roundTrip(t, enc, []int32{math.MinInt32, 42, math.MaxInt32})
			roundTrip(t, enc, []int64{math.MinInt64, 1 << 40, math.MaxInt64})
			roundTrip(t, enc, []float32{-1.5, 0, 3.25})
			roundTrip(t, enc, []float64{math.Inf(-1), math.Pi, math.MaxFloat64})
		})
	}
}

func roundTrip[T Fixed](t *testing.T, enc Encoding, values []T) {
	t.Helper()

	col, err := NewFixedColumn[T](enc)
	require.NoError(t, err)
	for _, v := range values {
		require.NoError(t, col.AppendValue(v))
	}
	require.Equal(t, len(values), col.Len())

	for i, want := range values {
		got, err := col.Value(i)
		require.NoError(t, err)
		assert.Equal(t, want, got)

		buf, err := col.Get(i)
		require.NoError(t, err)
		assert.Equal(t, TypeOf[T]().NativeSize(), buf.Len())
	}
}

func TestFixedColumn_RejectsWrongWidth(t *testing.T) {
	col, err := NewFixedColumn[int32](EncodingPlain)
	require.NoError(t, err)

	err = col.Append(Buffer{1, 2, 3})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeTypeMismatch))
	assert.Equal(t, 0, col.Len())
}

func TestFixedColumn_OutOfRange(t *testing.T) {
	col, err := NewFixedColumn[int64](EncodingPlain)
	require.NoError(t, err)

	_, err = col.Get(0)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeOutOfRange))

	require.NoError(t, col.AppendValue(1))
	_, err = col.GetView(1)
	assert.True(t, errors.IsType(err, errors.ErrorTypeOutOfRange))

	_, err = col.GetView(-1)
	assert.True(t, errors.IsType(err, errors.ErrorTypeOutOfRange))
}

func TestFixedColumn_GetReturnsCopy(t *testing.T) {
	col, err := NewFixedColumn[int16](EncodingPlain)
	require.NoError(t, err)
	require.NoError(t, col.AppendValue(5))

	buf, err := col.Get(0)
	require.NoError(t, err)
	buf[0] = 0xff

	got, err := col.Value(0)
	require.NoError(t, err)
	assert.Equal(t, int16(5), got)
}

func TestNewColumn(t *testing.T) {
	tests := []struct {
		typ   LogicalType
		width int
	}{
		{TypeInt8, 1},
		{TypeInt16, 2},
		{TypeInt32, 4},
		{TypeInt64, 8},
		{TypeFloat, 4},
		{TypeDouble, 8},
	}

	for _, tt := range tests {
		t.Run(tt.typ.String(), func(t *testing.T) {
			col, err := NewColumn(tt.typ, EncodingPlain)
			require.NoError(t, err)
			assert.Equal(t, tt.typ, col.Type())
			assert.Equal(t, tt.width, tt.typ.NativeSize())
			assert.NoError(t, col.Append(make(Buffer, tt.width)))
		})
	}

	col, err := NewColumn(TypeString, EncodingDictionary)
	require.NoError(t, err)
	assert.IsType(t, &StringColumn{}, col)

	_, err = NewColumn(LogicalType(99), EncodingPlain)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
}

func TestDecodeFixed_WrongLength(t *testing.T) {
	_, err := DecodeFixed[int64](View{1, 2})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeTypeMismatch))
}

func TestParseLogicalType(t *testing.T) {
	tests := map[string]LogicalType{
		"int8":     TypeInt8,
		"SMALLINT": TypeInt16,
		"int":      TypeInt32,
		"bigint":   TypeInt64,
		"float":    TypeFloat,
		"double":   TypeDouble,
		" text ":   TypeString,
	}
	for name, want := range tests {
		got, err := ParseLogicalType(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}

	_, err := ParseLogicalType("decimal")
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
}

func TestParseEncoding(t *testing.T) {
	enc, err := ParseEncoding("")
	require.NoError(t, err)
	assert.Equal(t, EncodingPlain, enc)

	enc, err = ParseEncoding("dict")
	require.NoError(t, err)
	assert.Equal(t, EncodingDictionary, enc)

	_, err = ParseEncoding("rle")
	assert.Error(t, err)
}
