package database

import (
	"fmt"
	"strings"

	"github.com/aiplsaur/APIMongoDB/internal/model"
	"github.com/aiplsaur/APIMongoDB/internal/query"
)

// surrealWhere renders a filter as a SurrealQL condition. Values are bound
// as $f0, $f1, ... in vars; field paths are inlined after validation by the
// query package.
func surrealWhere(g *query.Group, vars map[string]interface{}) (string, error) {
	if g.Empty() {
		return "", nil
	}
	b := &surrealBuilder{vars: vars}
	return b.group(g)
}

type surrealBuilder struct {
	vars map[string]interface{}
	n    int
}

func (b *surrealBuilder) bind(v interface{}) string {
	name := fmt.Sprintf("f%d", b.n)
	b.n++
	b.vars[name] = v
	return "$" + name
}

func (b *surrealBuilder) group(g *query.Group) (string, error) {
	if g.Empty() {
		return "true", nil
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

func (b *surrealBuilder) condition(c query.Condition) (string, error) {
	if !query.ValidField(c.Field) {
		return "", fmt.Errorf("%w: field %q", query.ErrInvalidFilter, c.Field)
	}
	field := surrealField(c.Field)
	value := c.Value
	if c.Field == model.IDField {
		value = surrealIDValue(value)
	}

	switch c.Op {
	case query.OpEq:
		if value == nil {
			return field + " IS NONE OR " + field + " IS NULL", nil
		}
		return field + " = " + b.bind(value), nil
	case query.OpNe:
		if value == nil {
			return field + " IS NOT NONE AND " + field + " IS NOT NULL", nil
		}
		return field + " != " + b.bind(value), nil
	case query.OpGt:
		return field + " > " + b.bind(value), nil
	case query.OpGte:
		return field + " >= " + b.bind(value), nil
	case query.OpLt:
		return field + " < " + b.bind(value), nil
	case query.OpLte:
		return field + " <= " + b.bind(value), nil
	case query.OpIn:
		return field + " INSIDE " + b.bind(value), nil
	case query.OpNin:
		return field + " NOT INSIDE " + b.bind(value), nil
	case query.OpExists:
		if exists, _ := value.(bool); exists {
			return field + " IS NOT NONE", nil
		}
		return field + " IS NONE", nil
	default:
		return "", fmt.Errorf("%w: operator %s", query.ErrInvalidFilter, c.Op)
	}
}

// surrealField maps a document path to a SurrealQL expression. The document
// identity is the key of the record id.
func surrealField(field string) string {
	if field == model.IDField {
		return "record::id(id)"
	}
	return field
}

// surrealIDValue keeps identity comparisons on the string form of keys.
func surrealIDValue(v interface{}) interface{} {
	switch t := v.(type) {
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, item := range t {
			out[i] = surrealIDValue(item)
		}
		return out
	case nil, string:
		return t
	default:
		return fmt.Sprint(t)
	}
}

func surrealOrder(s *query.Sort) string {
	if s == nil {
		return ""
	}
	dir := "ASC"
	if s.Direction == query.Descending {
		dir = "DESC"
	}
	field := s.Field
	if field == model.IDField {
		field = "id"
	}
	return " ORDER BY " + field + " " + dir
}
