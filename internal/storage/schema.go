// TableSpec lives here so backends and the loader can share it without
// circular imports.
package storage

// TableSpec describes one destination table. Column types use a small
// portable vocabulary that each backend maps to its own DDL:
// "integer", "bigint", "text", "double", "date".
type TableSpec struct {
	Name       string
	PrimaryKey string // column name; empty means no primary key
	Columns    []ColumnSpec
}

// ColumnSpec describes one column of a destination table.
type ColumnSpec struct {
	Name     string
	Type     string
	Nullable bool
}
