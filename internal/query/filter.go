// Package query implements the closed filter language and the "db." command
// form accepted by the query endpoints.
//
// Filters are JSON objects in the familiar document-database shape:
//
//	{"age": {"$gte": 18}, "$or": [{"role": "admin"}, {"active": true}]}
//
// They are parsed into a tree of Group and Condition values. Store backends
// translate that tree into their own native predicate; nothing supplied by a
// client is ever evaluated by the server as code.
package query

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"
)

var (
	// ErrInvalidFilter is returned for any filter outside the supported language.
	ErrInvalidFilter = errors.New("invalid filter")

	// ErrInvalidSort is returned for a malformed sort specification.
	ErrInvalidSort = errors.New("invalid sort")
)

// Operator is a comparison operator of a Condition.
type Operator string

const (
	OpEq     Operator = "$eq"
	OpNe     Operator = "$ne"
	OpGt     Operator = "$gt"
	OpGte    Operator = "$gte"
	OpLt     Operator = "$lt"
	OpLte    Operator = "$lte"
	OpIn     Operator = "$in"
	OpNin    Operator = "$nin"
	OpExists Operator = "$exists"
)

var operators = map[Operator]bool{
	OpEq: true, OpNe: true, OpGt: true, OpGte: true, OpLt: true,
	OpLte: true, OpIn: true, OpNin: true, OpExists: true,
}

// Logic joins the members of a Group.
type Logic string

const (
	LogicAnd Logic = "$and"
	LogicOr  Logic = "$or"
)

// Expr is either a *Group or a Condition.
type Expr interface {
	isExpr()
}

// Condition compares one field against a value.
type Condition struct {
	Field string
	Op    Operator
	Value interface{}
}

// Group joins expressions with a single logical operator. A nil or empty
// group matches every document.
type Group struct {
	Logic Logic
	Exprs []Expr
}

func (Condition) isExpr() {}
func (*Group) isExpr()    {}

// Empty reports whether the group constrains nothing.
func (g *Group) Empty() bool {
	return g == nil || len(g.Exprs) == 0
}

// Eq builds a single equality filter.
func Eq(field string, value interface{}) *Group {
	return &Group{Logic: LogicAnd, Exprs: []Expr{Condition{Field: field, Op: OpEq, Value: value}}}
}

// In builds a single membership filter.
func In(field string, values []interface{}) *Group {
	return &Group{Logic: LogicAnd, Exprs: []Expr{Condition{Field: field, Op: OpIn, Value: values}}}
}

var fieldPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z0-9_]+)*$`)

// ValidField reports whether name may be used as a filter or sort field.
func ValidField(name string) bool {
	return fieldPattern.MatchString(name)
}

// ParseJSON parses a filter from its JSON text. Blank text is the empty filter.
func ParseJSON(text string) (*Group, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return &Group{Logic: LogicAnd}, nil
	}
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()
	var raw map[string]interface{}
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFilter, err)
	}
	return Parse(normalize(raw).(map[string]interface{}))
}

// Parse converts a decoded JSON object into a filter tree.
func Parse(raw map[string]interface{}) (*Group, error) {
	root := &Group{Logic: LogicAnd}
	for _, key := range sortedKeys(raw) {
		val := raw[key]
		switch {
		case key == string(LogicAnd) || key == string(LogicOr):
			sub, err := parseLogical(Logic(key), val)
			if err != nil {
				return nil, err
			}
			root.Exprs = append(root.Exprs, sub)
		case strings.HasPrefix(key, "$"):
			return nil, fmt.Errorf("%w: unsupported operator %q", ErrInvalidFilter, key)
		default:
			conds, err := parseField(key, val)
			if err != nil {
				return nil, err
			}
			for _, c := range conds {
				root.Exprs = append(root.Exprs, c)
			}
		}
	}
	return root, nil
}

func parseLogical(logic Logic, val interface{}) (*Group, error) {
	items, ok := val.([]interface{})
	if !ok || len(items) == 0 {
		return nil, fmt.Errorf("%w: %s requires a non-empty array", ErrInvalidFilter, logic)
	}
	group := &Group{Logic: logic}
	for _, item := range items {
		obj, ok := asObject(item)
		if !ok {
			return nil, fmt.Errorf("%w: %s members must be objects", ErrInvalidFilter, logic)
		}
		sub, err := Parse(obj)
		if err != nil {
			return nil, err
		}
		group.Exprs = append(group.Exprs, sub)
	}
	return group, nil
}

func parseField(field string, val interface{}) ([]Condition, error) {
	if !ValidField(field) {
		return nil, fmt.Errorf("%w: invalid field name %q", ErrInvalidFilter, field)
	}

	obj, isObj := asObject(val)
	if !isObj || !isOperatorObject(obj) {
		if err := checkScalar(field, val); err != nil {
			return nil, err
		}
		return []Condition{{Field: field, Op: OpEq, Value: val}}, nil
	}

	conds := make([]Condition, 0, len(obj))
	for _, key := range sortedKeys(obj) {
		op := Operator(key)
		if !operators[op] {
			return nil, fmt.Errorf("%w: unsupported operator %q", ErrInvalidFilter, key)
		}
		arg := obj[key]
		switch op {
		case OpIn, OpNin:
			items, ok := arg.([]interface{})
			if !ok {
				return nil, fmt.Errorf("%w: %s on %q requires an array", ErrInvalidFilter, op, field)
			}
			for _, item := range items {
				if err := checkScalar(field, item); err != nil {
					return nil, err
				}
			}
		case OpExists:
			if _, ok := arg.(bool); !ok {
				return nil, fmt.Errorf("%w: $exists on %q requires a boolean", ErrInvalidFilter, field)
			}
		default:
			if err := checkScalar(field, arg); err != nil {
				return nil, err
			}
		}
		conds = append(conds, Condition{Field: field, Op: op, Value: arg})
	}
	return conds, nil
}

// isOperatorObject reports whether every key of obj is an operator. Mixed
// objects are rejected later as non-scalar equality values.
func isOperatorObject(obj map[string]interface{}) bool {
	if len(obj) == 0 {
		return false
	}
	for k := range obj {
		if !strings.HasPrefix(k, "$") {
			return false
		}
	}
	return true
}

func checkScalar(field string, v interface{}) error {
	switch v.(type) {
	case nil, bool, string, int, int32, int64, float64, time.Time:
		return nil
	default:
		return fmt.Errorf("%w: value for %q must be a string, number, boolean or null", ErrInvalidFilter, field)
	}
}

func asObject(v interface{}) (map[string]interface{}, bool) {
	switch t := v.(type) {
	case map[string]interface{}:
		return t, true
	default:
		return nil, false
	}
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// normalize turns json.Number into int64 or float64 and leaves objects as
// plain maps.
func normalize(v interface{}) interface{} {
	switch t := v.(type) {
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i
		}
		f, _ := t.Float64()
		return f
	case map[string]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, val := range t {
			out[k] = normalize(val)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, val := range t {
			out[i] = normalize(val)
		}
		return out
	default:
		return v
	}
}
