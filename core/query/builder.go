package query

import (
	"strings"

	"github.com/asaidimu/go-matchsql/core/schema"
)

// Builder accumulates the text of one statement and the parameters bound by
// it. Every bound value is written as a placeholder numbered by the builder's
// own counter, so the n-th placeholder always refers to Args()[n-1].
//
// A Builder is owned by a single statement build and is not safe for
// concurrent use.
type Builder struct {
	dialect Dialect
	sql     strings.Builder
	args    []any
}

// NewBuilder creates a builder whose text starts with init.
func NewBuilder(dialect Dialect, init string) *Builder {
	b := &Builder{dialect: dialect}
	b.sql.WriteString(init)
	return b
}

// Dialect returns the dialect placeholders are written for.
func (b *Builder) Dialect() Dialect {
	return b.dialect
}

// SQL returns the statement text written so far.
func (b *Builder) SQL() string {
	return b.sql.String()
}

// Args returns the bound parameters, in placeholder order.
func (b *Builder) Args() []any {
	return b.args
}

// Len returns the length of the statement text written so far.
func (b *Builder) Len() int {
	return b.sql.Len()
}

// ParamCount returns the number of parameters bound so far.
func (b *Builder) ParamCount() int {
	return len(b.args)
}

// Push appends raw statement text. It must never be given untrusted input.
func (b *Builder) Push(sql string) *Builder {
	b.sql.WriteString(sql)
	return b
}

// PushBind binds value and writes its placeholder.
func (b *Builder) PushBind(value any) *Builder {
	b.args = append(b.args, value)
	b.sql.WriteString(b.dialect.Placeholder(len(b.args)))
	return b
}

// PushBindCast binds value and writes its placeholder cast to sqlType, when the
// dialect uses casts.
func (b *Builder) PushBindCast(value any, sqlType string) *Builder {
	b.PushBind(value)
	if sqlType != "" {
		b.sql.WriteString(b.dialect.Cast(sqlType))
	}
	return b
}

// PushIdent writes `alias.column`, or just `column` when alias is empty.
func (b *Builder) PushIdent(alias, column string) *Builder {
	if alias != "" {
		b.sql.WriteString(alias)
		b.sql.WriteByte('.')
	}
	b.sql.WriteString(column)
	return b
}

// PushAs writes `name AS alias`.
func (b *Builder) PushAs(name, alias string) *Builder {
	b.sql.WriteString(name)
	b.sql.WriteString(SQLAs)
	b.sql.WriteString(alias)
	return b
}

// PushColumns writes columns separated by commas.
func (b *Builder) PushColumns(columns []string) *Builder {
	b.sql.WriteString(strings.Join(columns, ", "))
	return b
}

// PushGroup writes the output of fn between parentheses.
func (b *Builder) PushGroup(fn func(*Builder)) *Builder {
	b.sql.WriteByte('(')
	fn(b)
	b.sql.WriteByte(')')
	return b
}

// PushSeparated calls fn n times, writing sep between calls.
func (b *Builder) PushSeparated(n int, sep string, fn func(i int, b *Builder)) *Builder {
	for i := 0; i < n; i++ {
		if i > 0 {
			b.sql.WriteString(sep)
		}
		fn(i, b)
	}
	return b
}

// PushTuple binds values and writes `($1, $2, ...)`.
func (b *Builder) PushTuple(values ...any) *Builder {
	return b.PushGroup(func(b *Builder) {
		b.PushSeparated(len(values), ", ", func(i int, b *Builder) {
			b.PushBind(values[i])
		})
	})
}

// PushValues writes `VALUES (...), (...)` with one tuple per row. row returns
// the values of the i-th row in column order. Nothing is written when rows is
// zero.
func (b *Builder) PushValues(rows int, row func(i int) []any) *Builder {
	if rows <= 0 {
		return b
	}
	b.sql.WriteString(SQLValues)
	return b.PushSeparated(rows, ", ", func(i int, b *Builder) {
		b.PushTuple(row(i)...)
	})
}

// PushTypedValues is PushValues for the columns of cs. When cs implements
// schema.Typed, every placeholder is cast to the dialect's type for its column
// so that the derived table's columns carry the types of the target columns.
func (b *Builder) PushTypedValues(cs schema.ColumnSet, rows int, row func(i int) []any) *Builder {
	typed, ok := cs.(schema.Typed)
	if !ok {
		return b.PushValues(rows, row)
	}
	if rows <= 0 {
		return b
	}

	columns := cs.Columns()
	casts := make([]string, len(columns))
	for i, column := range columns {
		if ft, ok := typed.ColumnType(column); ok {
			casts[i] = b.dialect.ColumnType(ft)
		}
	}

	b.sql.WriteString(SQLValues)
	return b.PushSeparated(rows, ", ", func(i int, b *Builder) {
		values := row(i)
		b.PushGroup(func(b *Builder) {
			b.PushSeparated(len(values), ", ", func(j int, b *Builder) {
				cast := ""
				if j < len(casts) {
					cast = casts[j]
				}
				b.PushBindCast(values[j], cast)
			})
		})
	})
}

// PushSetTo writes `c = valuesAlias.c` for every non-key column of cs,
// separated by commas.
func (b *Builder) PushSetTo(cs schema.ColumnSet, valuesAlias string) *Builder {
	columns := schema.NonKeyColumns(cs)
	return b.PushSeparated(len(columns), ", ", func(i int, b *Builder) {
		b.Push(columns[i]).Push(" = ").PushIdent(valuesAlias, columns[i])
	})
}

// PushUpdateWhereTo writes `alias.k = valuesAlias.k` for every key of cs,
// joined with AND.
func (b *Builder) PushUpdateWhereTo(cs schema.ColumnSet, alias, valuesAlias string) *Builder {
	keys := cs.Keys()
	return b.PushSeparated(len(keys), SQLAnd, func(i int, b *Builder) {
		b.PushIdent(alias, keys[i]).Push(" = ").PushIdent(valuesAlias, keys[i])
	})
}
