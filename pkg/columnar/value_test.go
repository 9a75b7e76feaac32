package columnar

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/strata/pkg/errors"
)

func TestValue_Compare(t *testing.T) {
	i64 := func(v int64) Value { return NewValue(EncodeFixed(nil, v), TypeInt64) }
	f32 := func(v float32) Value { return NewValue(EncodeFixed(nil, v), TypeFloat) }
	str := func(s string) Value { return NewValue(ViewString(s), TypeString) }

	tests := []struct {
		name string
		a, b Value
		want int
	}{
		{"negative before positive", i64(-5), i64(3), -1},
		{"equal ints", i64(7), i64(7), 0},
		{"floats", f32(2.5), f32(-1), 1},
		{"byte order", str("abc"), str("abd"), -1},
		{"prefix first", str("ab"), str("abc"), -1},
		{"empty first", str(""), str("a"), -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.a.Compare(tt.b)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	assert.True(t, i64(1).Less(i64(2)))
	assert.True(t, str("b").Greater(str("a")))
}

func TestValue_CompareTypeMismatch(t *testing.T) {
	a := NewValue(EncodeFixed(nil, int32(1)), TypeInt32)
	b := NewValue(EncodeFixed(nil, int64(1)), TypeInt64)

	_, err := a.Compare(b)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeTypeMismatch))
	assert.False(t, a.Less(b))
	assert.False(t, a.Greater(b))
}

func TestValueAt(t *testing.T) {
	col, err := NewFixedColumn[int16](EncodingPlain)
	require.NoError(t, err)
	require.NoError(t, col.AppendValue(-3))

	v, err := ValueAt(col, 0)
	require.NoError(t, err)
	assert.Equal(t, TypeInt16, v.Type())
	assert.Equal(t, 2, v.View().Len())

	_, err = ValueAt(col, 1)
	assert.True(t, errors.IsType(err, errors.ErrorTypeOutOfRange))
}

func TestSortedRows(t *testing.T) {
	col, err := NewFixedColumn[int64](EncodingDictionary)
	require.NoError(t, err)
	for _, v := range []int64{30, -1, 20, -1, 10} {
		require.NoError(t, col.AppendValue(v))
	}

	rows, err := SortedRows(col)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 3, 4, 2, 0}, rows)
}

func TestSortedRows_NullsFirst(t *testing.T) {
	col, err := NewNullable(TypeString, EncodingPlain)
	require.NoError(t, err)

	require.NoError(t, col.AppendView(ViewString("pear")))
	require.NoError(t, col.AppendNull())
	require.NoError(t, col.AppendView(ViewString("")))
	require.NoError(t, col.AppendView(ViewString("apple")))
	require.NoError(t, col.AppendNull())

	rows, err := SortedRows(col)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 4, 2, 3, 0}, rows)
}
