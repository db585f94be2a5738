package postgres

import (
	"reflect"
	"sync"
)

// dbMeta is the per-type reflection summary: which fields carry a "db"
// tag and which are embedded structs to flatten. Computed once per
// type and cached, so the hot paths only walk plain slices.
type dbMeta struct {
	tagged   []taggedField
	embedded []int
}

type taggedField struct {
	index  int
	column string
}

var metaCache sync.Map // reflect.Type -> *dbMeta

func metaFor(t reflect.Type) *dbMeta {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if cached, ok := metaCache.Load(t); ok {
		return cached.(*dbMeta)
	}

	m := &dbMeta{}
	if t.Kind() == reflect.Struct {
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			if f.Anonymous {
				m.embedded = append(m.embedded, i)
				continue
			}
			col := f.Tag.Get("db")
			if col == "" || col == "-" {
				continue
			}
			m.tagged = append(m.tagged, taggedField{index: i, column: col})
		}
	}
	metaCache.Store(t, m)
	return m
}

// ExtractDBColumns lists the "db"-tagged column names of T, flattening
// embedded structs such as entity.Catalog and entity.Document in
// declaration order. Repositories call it once at construction to
// build their column lists.
func ExtractDBColumns[T any]() []string {
	var zero T
	return columnsOf(reflect.TypeOf(zero))
}

func columnsOf(t reflect.Type) []string {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil
	}

	var cols []string
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.Anonymous {
			cols = append(cols, columnsOf(f.Type)...)
			continue
		}
		if col := f.Tag.Get("db"); col != "" && col != "-" {
			cols = append(cols, col)
		}
	}
	return cols
}

// StructToMap flattens a struct into a column/value map keyed by "db"
// tags. Untagged fields and fields tagged "-" are dropped, embedded
// structs are merged in. Used to build squirrel insert and update
// clauses from domain entities.
func StructToMap(v any) map[string]any {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Ptr {
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil
	}

	m := metaFor(rv.Type())
	out := make(map[string]any, len(m.tagged))
	for _, ei := range m.embedded {
		for col, val := range StructToMap(rv.Field(ei).Interface()) {
			out[col] = val
		}
	}
	for _, tf := range m.tagged {
		out[tf.column] = rv.Field(tf.index).Interface()
	}
	return out
}
