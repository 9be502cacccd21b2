// Package keys builds the cache keys. The format is shared with anything else
// reading the store, so it must not change:
//
//	dict#<table>#<fromColumn>#<toColumn>#<value>
//	<table>#<col1>#<val1>#<col2>#<val2>...   (columns sorted ascending)
package keys

import (
	"fmt"
	"sort"
	"strings"
)

const (
	Sep     = "#"
	DictTag = "dict"
)

// Dict returns the positional key for a scalar conversion.
func Dict(table, fromColumn, toColumn, value string) string {
	return strings.Join([]string{DictTag, table, fromColumn, toColumn, value}, Sep)
}

// Filters returns the key for a filtered list query. Columns are sorted so the
// key does not depend on map iteration order. Values are rendered with fmt.Sprint.
func Filters[M ~map[string]V, V any](table string, filters M) string {
	cols := make([]string, 0, len(filters))
	for col := range filters {
		cols = append(cols, col)
	}
	sort.Strings(cols)

	var b strings.Builder
	b.WriteString(table)
	for _, col := range cols {
		b.WriteString(Sep)
		b.WriteString(col)
		b.WriteString(Sep)
		b.WriteString(fmt.Sprint(filters[col]))
	}
	return b.String()
}
