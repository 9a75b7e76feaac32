package columnar

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/strata/pkg/errors"
)

func testSchema() *Schema {
	return &Schema{Fields: []FieldSchema{
		{Name: "id", Type: TypeInt64},
		{Name: "city", Type: TypeString, Encoding: EncodingDictionary},
		{Name: "score", Type: TypeDouble, Nullable: true},
	}}
}

func row(id int64, city string, score *float64) []Buffer {
	r := []Buffer{EncodeFixed(nil, id), BufferString(city), nil}
	if score != nil {
		r[2] = EncodeFixed(nil, *score)
	}
	return r
}

func ptr(f float64) *float64 { return &f }

func TestSchema_Validate(t *testing.T) {
	tests := []struct {
		name   string
		schema *Schema
	}{
		{"nil", nil},
		{"empty", &Schema{}},
		{"unnamed", &Schema{Fields: []FieldSchema{{Type: TypeInt8}}}},
		{"duplicate", &Schema{Fields: []FieldSchema{{Name: "a", Type: TypeInt8}, {Name: "a", Type: TypeString}}}},
		{"bad type", &Schema{Fields: []FieldSchema{{Name: "a", Type: LogicalType(42)}}}},
		{"bad encoding", &Schema{Fields: []FieldSchema{{Name: "a", Type: TypeInt8, Encoding: Encoding(3)}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.schema.Validate()
			require.Error(t, err)
			assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
		})
	}

	assert.NoError(t, testSchema().Validate())
}

func TestColumnStore_AppendAndGetRow(t *testing.T) {
	store, err := NewColumnStore(testSchema())
	require.NoError(t, err)

	require.NoError(t, store.AppendRow(row(1, "oslo", ptr(1.5))))
	require.NoError(t, store.AppendRow(row(2, "lima", nil)))
	require.NoError(t, store.AppendRow(row(3, "oslo", ptr(-2))))

	assert.Equal(t, 3, store.RowCount())
	assert.Equal(t, 3, store.ColumnCount())
	assert.Equal(t, []string{"id", "city", "score"}, store.ColumnNames())

	got, err := store.GetRow(1)
	require.NoError(t, err)
	assert.Equal(t, View(EncodeFixed(nil, int64(2))), got[0])
	assert.Equal(t, "lima", got[1].String())
	assert.Nil(t, got[2])

	col, ok := store.GetColumn("city")
	require.True(t, ok)
	assert.Equal(t, 2, col.(*StringColumn).Distinct())

	_, ok = store.GetColumn("missing")
	assert.False(t, ok)
}

func TestColumnStore_RejectedRowLeavesStoreUnchanged(t *testing.T) {
	store, err := NewColumnStore(testSchema())
	require.NoError(t, err)
	require.NoError(t, store.AppendRow(row(1, "oslo", nil)))

	tests := []struct {
		name    string
		values  []Buffer
		errType errors.ErrorType
	}{
		{"too few values", []Buffer{EncodeFixed(nil, int64(1))}, errors.ErrorTypeValidation},
		{"null in required column", []Buffer{nil, BufferString("x"), nil}, errors.ErrorTypeValidation},
		{"wrong width", []Buffer{{1, 2}, BufferString("x"), nil}, errors.ErrorTypeTypeMismatch},
		{"wrong width in last column", []Buffer{EncodeFixed(nil, int64(1)), BufferString("x"), {1}}, errors.ErrorTypeTypeMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := store.AppendRow(tt.values)
			require.Error(t, err)
			assert.True(t, errors.IsType(err, tt.errType))

			assert.Equal(t, 1, store.RowCount())
			for i := 0; i < store.ColumnCount(); i++ {
				assert.Equal(t, 1, store.ColumnAt(i).Len())
			}
		})
	}
}

func TestColumnStore_FullDictionaryLeavesStoreUnchanged(t *testing.T) {
	limitDistinct(t, 1)

	store, err := NewColumnStore(testSchema())
	require.NoError(t, err)
	require.NoError(t, store.AppendRow(row(1, "oslo", nil)))

	err = store.AppendRow(row(2, "lima", ptr(1)))
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeOutOfRange))
	assert.Equal(t, 1, store.RowCount())
	for i := 0; i < store.ColumnCount(); i++ {
		assert.Equal(t, 1, store.ColumnAt(i).Len())
	}

	require.NoError(t, store.AppendRow(row(2, "oslo", ptr(1))))
	assert.Equal(t, 2, store.RowCount())
}

func TestColumnStore_FullDictionaryRejectsNewPlaceholder(t *testing.T) {
	limitDistinct(t, 1)

	store, err := NewColumnStore(&Schema{Fields: []FieldSchema{
		{Name: "tag", Type: TypeString, Encoding: EncodingDictionary, Nullable: true},
	}})
	require.NoError(t, err)
	require.NoError(t, store.AppendRow([]Buffer{BufferString("a")}))

	err = store.AppendRow([]Buffer{nil})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeOutOfRange))
	assert.Equal(t, 1, store.RowCount())
	assert.Equal(t, 0, store.ColumnAt(0).(*NullableColumn).NullCount())
}

func TestColumnStore_EmptyStringIsNotNull(t *testing.T) {
	store, err := NewColumnStore(&Schema{Fields: []FieldSchema{
		{Name: "note", Type: TypeString, Nullable: true},
	}})
	require.NoError(t, err)

	require.NoError(t, store.AppendRow([]Buffer{BufferString("")}))
	require.NoError(t, store.AppendRow([]Buffer{nil}))

	first, err := store.GetRow(0)
	require.NoError(t, err)
	assert.NotNil(t, first[0])

	second, err := store.GetRow(1)
	require.NoError(t, err)
	assert.Nil(t, second[0])
}

func TestColumnStore_GetRowOutOfRange(t *testing.T) {
	store, err := NewColumnStore(testSchema())
	require.NoError(t, err)

	_, err = store.GetRow(0)
	assert.True(t, errors.IsType(err, errors.ErrorTypeOutOfRange))
}

func TestColumnStore_Stats(t *testing.T) {
	store, err := NewColumnStore(testSchema())
	require.NoError(t, err)
	require.NoError(t, store.AppendRow(row(1, "oslo", nil)))
	require.NoError(t, store.AppendRow(row(2, "oslo", ptr(3))))
	require.NoError(t, store.AppendRow(row(3, "rome", nil)))

	stats := store.Stats()
	assert.Equal(t, 3, stats.Rows)
	assert.Greater(t, stats.MemoryBytes, int64(0))
	assert.InDelta(t, float64(stats.MemoryBytes)/3, stats.BytesPerRecord, 1e-9)
	require.Len(t, stats.Columns, 3)

	assert.Equal(t, ColumnStats{
		Name:        "city",
		Type:        "string",
		Encoding:    "dictionary",
		Rows:        3,
		Distinct:    2,
		MemoryBytes: stats.Columns[1].MemoryBytes,
	}, stats.Columns[1])
	assert.Equal(t, 2, stats.Columns[2].Nulls)
	assert.Equal(t, 3, stats.Columns[2].Distinct)
}

func TestColumnStore_Iterators(t *testing.T) {
	store, err := NewColumnStore(testSchema())
	require.NoError(t, err)
	for i := int64(0); i < 5; i++ {
		require.NoError(t, store.AppendRow(row(i, "x", nil)))
	}

	it := store.NewIterator()
	var ids []int64
	for it.Next() {
		id, err := DecodeFixed[int64](it.Row()[0])
		require.NoError(t, err)
		ids = append(ids, id)
		assert.Equal(t, int(id), it.Index())
	}
	require.NoError(t, it.Err())
	assert.Equal(t, []int64{0, 1, 2, 3, 4}, ids)

	bi := store.NewBatchIterator(2)
	var sizes []int
	for {
		batch, more, err := bi.NextBatch()
		require.NoError(t, err)
		if !more {
			break
		}
		sizes = append(sizes, len(batch))
	}
	assert.Equal(t, []int{2, 2, 1}, sizes)
}

func TestColumnStore_SchemaIsCopied(t *testing.T) {
	schema := testSchema()
	store, err := NewColumnStore(schema)
	require.NoError(t, err)

	schema.Fields[0].Name = "changed"
	assert.Equal(t, "id", store.Schema().Fields[0].Name)

	s := store.Schema()
	s.Fields[1].Name = "also changed"
	assert.Equal(t, "city", store.Schema().Fields[1].Name)
}
