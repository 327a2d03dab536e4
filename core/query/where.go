package query

import (
	"fmt"
	"strings"

	"github.com/asaidimu/go-matchsql/core/match"
)

// WriteContext tracks where in a WHERE clause a condition is being written, and
// therefore what has to precede it.
type WriteContext int

const (
	// BeforeWhereClause means no WHERE keyword has been written yet.
	BeforeWhereClause WriteContext = iota
	// AcceptingAnotherWhereCondition means a condition has already been
	// written and the next one is joined with AND.
	AcceptingAnotherWhereCondition
	// AfterWhereClause means the caller has written whatever must precede the
	// condition, e.g. an ON or a WHERE of its own.
	AfterWhereClause
)

func (c WriteContext) prefix() string {
	switch c {
	case BeforeWhereClause:
		return SQLWhere
	case AcceptingAnotherWhereCondition:
		return SQLAnd
	default:
		return ""
	}
}

// Condition pairs a column with the Match applied to it.
type Condition struct {
	Column string
	Match  match.Match
}

// WriteWhereClause writes the prefix required by ctx, then m compiled against
// alias.column. Parameters are bound on b in the order they are written.
// The returned context is the one the next condition on b should be written
// with.
func WriteWhereClause(ctx WriteContext, alias, column string, m match.Match, b *Builder) WriteContext {
	b.Push(ctx.prefix())
	writeMatch(alias, column, m, b)
	return AcceptingAnotherWhereCondition
}

// WriteConditions writes every condition through WriteWhereClause, joining
// them with AND. Nothing is written when conditions is empty, and ctx is
// returned unchanged.
func WriteConditions(ctx WriteContext, alias string, conditions []Condition, b *Builder) WriteContext {
	for _, cond := range conditions {
		ctx = WriteWhereClause(ctx, alias, cond.Column, cond.Match, b)
	}
	return ctx
}

func writeMatch(alias, column string, m match.Match, b *Builder) {
	switch v := m.(type) {
	case match.AnyMatch:
		b.Push(SQLTrue)
	case match.NoneMatch:
		b.Push(SQLFalse)
	case match.EqualTo:
		writeComparison(alias, column, " = ", v.Value, b)
	case match.NotEqualTo:
		writeComparison(alias, column, " <> ", v.Value, b)
	case match.GreaterThan:
		writeComparison(alias, column, " > ", v.Value, b)
	case match.LessThan:
		writeComparison(alias, column, " < ", v.Value, b)
	case match.AtLeast:
		writeComparison(alias, column, " >= ", v.Value, b)
	case match.AtMost:
		writeComparison(alias, column, " <= ", v.Value, b)
	case match.InRange:
		b.PushGroup(func(b *Builder) {
			b.PushIdent(alias, column).Push(" BETWEEN ").PushBind(v.Low).Push(SQLAnd).PushBind(v.High)
		})
	case match.In:
		if len(v.Values) == 0 {
			b.Push(SQLFalse)
			return
		}
		b.PushIdent(alias, column).Push(SQLIn).PushTuple(v.Values...)
	case match.Contains:
		b.PushIdent(alias, column).Push(" LIKE ").PushBind("%" + escapeLike(v.Substring) + "%").Push(` ESCAPE '\'`)
	case match.IsNull:
		b.PushIdent(alias, column).Push(" IS NULL")
	case match.And:
		writeJoined(alias, column, v.Children, SQLAnd, SQLTrue, b)
	case match.Or:
		writeJoined(alias, column, v.Children, SQLOr, SQLFalse, b)
	case match.Not:
		if value, ok := match.Constant(v.Child); ok {
			if value {
				b.Push(SQLFalse)
			} else {
				b.Push(SQLTrue)
			}
			return
		}
		b.Push(SQLNot).PushGroup(func(b *Builder) {
			writeMatch(alias, column, v.Child, b)
		})
	default:
		panic(fmt.Sprintf("query: unhandled match variant %T", m))
	}
}

func writeComparison(alias, column, operator string, value any, b *Builder) {
	b.PushIdent(alias, column).Push(operator).PushBind(value)
}

// writeJoined writes every child in its own parentheses, separated by joiner.
// identity is written when there are no children.
func writeJoined(alias, column string, children []match.Match, joiner, identity string, b *Builder) {
	if len(children) == 0 {
		b.Push(identity)
		return
	}
	b.PushSeparated(len(children), joiner, func(i int, b *Builder) {
		b.PushGroup(func(b *Builder) {
			writeMatch(alias, column, children[i], b)
		})
	})
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
