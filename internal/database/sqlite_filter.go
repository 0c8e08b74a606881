package database

import (
	"fmt"
	"strings"
	"time"

	"github.com/aiplsaur/APIMongoDB/internal/model"
	"github.com/aiplsaur/APIMongoDB/internal/query"
)

// sqliteWhere renders a filter as a parameterised SQL condition over the
// JSON body column. The identity maps to the id column.
func sqliteWhere(g *query.Group) (string, []interface{}, error) {
	if g.Empty() {
		return "", nil, nil
	}
	b := &sqliteBuilder{}
	clause, err := b.group(g)
	if err != nil {
		return "", nil, err
	}
	return clause, b.args, nil
}

type sqliteBuilder struct {
	args []interface{}
}

func (b *sqliteBuilder) group(g *query.Group) (string, error) {
	if g.Empty() {
		return "1", nil
	}
	joiner := " AND "
	if g.Logic == query.LogicOr {
		joiner = " OR "
	}
	parts := make([]string, 0, len(g.Exprs))
	for _, e := range g.Exprs {
		var (
			s   string
			err error
		)
		switch t := e.(type) {
		case query.Condition:
			s, err = b.condition(t)
		case *query.Group:
			s, err = b.group(t)
		}
		if err != nil {
			return "", err
		}
		parts = append(parts, "("+s+")")
	}
	return strings.Join(parts, joiner), nil
}

// column returns the SQL expression for a field, appending its path argument.
func (b *sqliteBuilder) column(field string) string {
	if field == model.IDField {
		return "id"
	}
	b.args = append(b.args, sqlitePath(field))
	return "json_extract(body, ?)"
}

func (b *sqliteBuilder) condition(c query.Condition) (string, error) {
	if !query.ValidField(c.Field) {
		return "", fmt.Errorf("%w: field %q", query.ErrInvalidFilter, c.Field)
	}

	if c.Op == query.OpExists {
		var expr string
		if c.Field == model.IDField {
			expr = "id"
		} else {
			b.args = append(b.args, sqlitePath(c.Field))
			expr = "json_type(body, ?)"
		}
		if exists, _ := c.Value.(bool); exists {
			return expr + " IS NOT NULL", nil
		}
		return expr + " IS NULL", nil
	}

	col := b.column(c.Field)
	switch c.Op {
	case query.OpEq:
		if c.Value == nil {
			return col + " IS NULL", nil
		}
		b.args = append(b.args, sqliteValue(c.Value))
		return col + " = ?", nil
	case query.OpNe:
		if c.Value == nil {
			return col + " IS NOT NULL", nil
		}
		// Missing fields match $ne, as in MongoDB.
		b.args = append(b.args, sqliteValue(c.Value))
		return col + " IS NOT ?", nil
	case query.OpGt:
		b.args = append(b.args, sqliteValue(c.Value))
		return col + " > ?", nil
	case query.OpGte:
		b.args = append(b.args, sqliteValue(c.Value))
		return col + " >= ?", nil
	case query.OpLt:
		b.args = append(b.args, sqliteValue(c.Value))
		return col + " < ?", nil
	case query.OpLte:
		b.args = append(b.args, sqliteValue(c.Value))
		return col + " <= ?", nil
	case query.OpIn, query.OpNin:
		items, _ := c.Value.([]interface{})
		if len(items) == 0 {
			// The column argument stays bound; the condition is constant.
			if c.Op == query.OpIn {
				return col + " IS NULL AND 0", nil
			}
			return col + " IS NULL OR 1", nil
		}
		marks := make([]string, len(items))
		for i, item := range items {
			marks[i] = "?"
			b.args = append(b.args, sqliteValue(item))
		}
		list := "(" + strings.Join(marks, ", ") + ")"
		if c.Op == query.OpIn {
			return col + " IN " + list, nil
		}
		// col is bound once more for the NULL test.
		return col + " NOT IN " + list + " OR " + b.column(c.Field) + " IS NULL", nil
	default:
		return "", fmt.Errorf("%w: operator %s", query.ErrInvalidFilter, c.Op)
	}
}

// sqlitePath converts a dotted field into a JSON path: a.b.0 -> $.a.b[0].
func sqlitePath(field string) string {
	var sb strings.Builder
	sb.WriteString("$")
	for _, seg := range strings.Split(field, ".") {
		if isDigits(seg) {
			sb.WriteString("[" + seg + "]")
			continue
		}
		sb.WriteString(`."` + seg + `"`)
	}
	return sb.String()
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// sqliteValue converts a filter value to what json_extract yields for it.
func sqliteValue(v interface{}) interface{} {
	switch t := v.(type) {
	case bool:
		if t {
			return 1
		}
		return 0
	case time.Time:
		return t.Format(time.RFC3339Nano)
	case string:
		return t
	default:
		return v
	}
}

func sqliteOrder(s *query.Sort) (string, []interface{}, error) {
	if s == nil {
		return " ORDER BY rowid", nil, nil
	}
	if !query.ValidField(s.Field) {
		return "", nil, fmt.Errorf("%w: field %q", query.ErrInvalidSort, s.Field)
	}
	dir := "ASC"
	if s.Direction == query.Descending {
		dir = "DESC"
	}
	if s.Field == model.IDField {
		return " ORDER BY id " + dir, nil, nil
	}
	return " ORDER BY json_extract(body, ?) " + dir + ", rowid", []interface{}{sqlitePath(s.Field)}, nil
}
