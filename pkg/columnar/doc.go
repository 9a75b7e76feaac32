// Package columnar implements strata's byte-level column storage.
//
// # Overview
//
// Every column stores raw bytes. The logical type of a column decides how
// many bytes a value occupies and how they are interpreted; the encoding
// decides how those bytes are laid out:
//   - Plain encoding appends every value to a paged arena
//   - Dictionary encoding keeps each distinct value once and records a
//     handle per row
//
// # Architecture
//
//   - Arena: append-only paged bytes with stable offsets
//   - Storage: PlainStorage and DictionaryStorage behind one interface
//   - FixedColumn: int8 through double, little-endian, no offset table
//   - StringColumn: variable-length values with an offset table
//   - NullableColumn: a null bitmap kept in step with any typed column
//   - ColumnStore: named columns appended one row at a time
//
// # Addressing
//
// Plain storage addresses values by byte offset and dictionary storage by
// append index. Columns never compute locations themselves; Storage.Locate
// translates a row position into whatever the storage expects, so a
// fixed-width column reads row i at i*width under plain encoding and at
// index i under dictionary encoding.
//
// # Usage Example
//
//	col, _ := columnar.NewFixedColumn[int64](columnar.EncodingPlain)
//	_ = col.AppendValue(10)
//	_ = col.AppendValue(20)
//	v, _ := col.Value(1) // 20
//
//	names, _ := columnar.NewStringColumn(columnar.EncodingDictionary)
//	_ = names.AppendString("ab")
//	_ = names.AppendString("cd")
//	_ = names.AppendString("ab")
//	names.Distinct() // 2
//
// # Ownership
//
// Get returns an owned Buffer. GetView returns a View into column memory
// that stays valid for the lifetime of the column, including across later
// appends. Columns are not safe for concurrent appends.
package columnar
