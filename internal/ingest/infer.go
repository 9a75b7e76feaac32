package ingest

import (
	"strconv"
	"strings"

	"github.com/ajitpratap0/strata/pkg/cast"
	"github.com/ajitpratap0/strata/pkg/columnar"
)

// dictionaryRatio is the highest distinct/non-null ratio of a sampled string
// column that still selects dictionary encoding.
const dictionaryRatio = 0.5

// InferSchema proposes a schema from sampled records. A column is int64
// when every non-null sample parses as an integer, double when every one
// parses as a float, and string otherwise. Columns with a null sample are
// nullable. Repetitive string columns get dictionary encoding.
//
// header names the columns; missing or empty names become colN. Fields equal
// to nullMarker count as null. A record too short to reach a column says
// nothing about it: the loader rejects such records rather than padding them.
func InferSchema(header []string, sample [][]string, nullMarker string) columnar.Schema {
	width := len(header)
	for _, rec := range sample {
		width = max(width, len(rec))
	}

	schema := columnar.Schema{Fields: make([]columnar.FieldSchema, width)}
	for i := range schema.Fields {
		name := ""
		if i < len(header) {
			name = strings.TrimSpace(header[i])
		}
		if name == "" {
			name = "col" + strconv.Itoa(i+1)
		}
		schema.Fields[i] = inferColumn(name, i, sample, nullMarker)
	}
	return dedupeNames(schema)
}

func inferColumn(name string, index int, sample [][]string, nullMarker string) columnar.FieldSchema {
	allInt, allFloat := true, true
	nullable := false
	values := 0
	distinct := make(map[string]struct{})

	for _, rec := range sample {
		if index >= len(rec) {
			continue
		}
		if rec[index] == nullMarker {
			nullable = true
			continue
		}
		val := rec[index]
		values++
		distinct[val] = struct{}{}

		if allInt {
			if _, err := cast.FromString(columnar.TypeInt64, val); err != nil {
				allInt = false
			}
		}
		if allFloat && !allInt {
			if _, err := cast.FromString(columnar.TypeDouble, val); err != nil {
				allFloat = false
			}
		}
	}

	field := columnar.FieldSchema{Name: name, Type: columnar.TypeString, Nullable: nullable}
	switch {
	case values == 0:
		field.Nullable = true
	case allInt:
		field.Type = columnar.TypeInt64
	case allFloat:
		field.Type = columnar.TypeDouble
	default:
		if float64(len(distinct)) <= dictionaryRatio*float64(values) {
			field.Encoding = columnar.EncodingDictionary
		}
	}
	return field
}

// dedupeNames suffixes repeated column names so the schema validates.
func dedupeNames(schema columnar.Schema) columnar.Schema {
	seen := make(map[string]int, len(schema.Fields))
	for i, f := range schema.Fields {
		seen[f.Name]++
		if n := seen[f.Name]; n > 1 {
			schema.Fields[i].Name = f.Name + "_" + strconv.Itoa(n)
		}
	}
	return schema
}
