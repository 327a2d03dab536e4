package schema

import "slices"

// Table describes how a table is referenced in a statement.
type Table interface {
	// TableName is the unquoted name of the table.
	TableName() string
	// DefaultAlias is the alias the table takes when it appears with AS.
	DefaultAlias() string
}

// ColumnSet is a Table together with the ordered list of its persisted columns.
// The order of Columns is the order values are expected in when rows are
// written into a derived values table.
type ColumnSet interface {
	Table
	// Columns returns every persisted column, in order.
	Columns() []string
	// Keys returns the columns which identify a row. Every key is also
	// returned by Columns.
	Keys() []string
}

// Typed is implemented by column sets which know the type of their columns.
type Typed interface {
	ColumnType(name string) (FieldType, bool)
}

// TableColumns is a plain-data ColumnSet.
type TableColumns struct {
	Name    string
	Alias   string
	Cols    []string
	KeyCols []string
	Types   map[string]FieldType
}

var _ ColumnSet = TableColumns{}
var _ Typed = TableColumns{}

func (t TableColumns) TableName() string    { return t.Name }
func (t TableColumns) DefaultAlias() string { return t.Alias }
func (t TableColumns) Columns() []string    { return t.Cols }

// Keys returns KeyCols, or "id" when none were given.
func (t TableColumns) Keys() []string {
	if len(t.KeyCols) == 0 {
		return []string{"id"}
	}
	return t.KeyCols
}

func (t TableColumns) ColumnType(name string) (FieldType, bool) {
	ft, ok := t.Types[name]
	return ft, ok
}

// NonKeyColumns returns the columns of cs which are not keys, in order.
func NonKeyColumns(cs ColumnSet) []string {
	keys := cs.Keys()
	columns := cs.Columns()
	out := make([]string, 0, len(columns))
	for _, column := range columns {
		if !slices.Contains(keys, column) {
			out = append(out, column)
		}
	}
	return out
}
