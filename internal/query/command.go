package query

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Prefix is the only recognised start of a command.
const Prefix = "db."

var (
	ErrMissingPrefix       = errors.New("query must start with " + Prefix)
	ErrSyntax              = errors.New("query syntax error")
	ErrUnsupportedMethod   = errors.New("unsupported query method")
	ErrCollectionRequired  = errors.New("collection is required")
	ErrInvalidModifierArgs = errors.New("invalid modifier argument")
)

// Method is a whitelisted command method.
type Method string

const (
	MethodFind               Method = "find"
	MethodFindOne            Method = "findOne"
	MethodCountDocuments     Method = "countDocuments"
	MethodCount              Method = "count"
	MethodStats              Method = "stats"
	MethodGetCollectionNames Method = "getCollectionNames"
)

var collectionMethods = map[Method]bool{
	MethodFind: true, MethodFindOne: true, MethodCountDocuments: true,
	MethodCount: true, MethodStats: true,
}

// Command is a parsed "db." statement.
type Command struct {
	Collection string
	Method     Method
	Filter     *Group
	Projection []string
	Sort       *Sort
	Skip       int64
	Limit      int64
}

// segment is one ".name" or ".name(args)" step of a statement.
type segment struct {
	name string
	args string
	call bool
}

// ParseCommand parses text into a Command. collection is used when the
// statement names no collection of its own, as in db.find({}).
func ParseCommand(text, collection string) (*Command, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimSuffix(text, ";")
	if !strings.HasPrefix(text, Prefix) {
		return nil, ErrMissingPrefix
	}

	segs, err := scanSegments(text[len(Prefix):])
	if err != nil {
		return nil, err
	}

	cmd := &Command{}
	first := segs[0]
	switch {
	case first.call && Method(first.name) == MethodGetCollectionNames:
		if len(segs) > 1 || strings.TrimSpace(first.args) != "" {
			return nil, fmt.Errorf("%w: getCollectionNames takes no arguments", ErrSyntax)
		}
		cmd.Method = MethodGetCollectionNames
		return cmd, nil
	case first.call && first.name == "getCollection":
		args, err := parseArgs(first.args)
		if err != nil {
			return nil, err
		}
		name, ok := singleString(args)
		if !ok {
			return nil, fmt.Errorf("%w: getCollection expects a collection name", ErrSyntax)
		}
		cmd.Collection = name
		segs = segs[1:]
	case first.call:
		if !collectionMethods[Method(first.name)] {
			return nil, fmt.Errorf("%w: %s", ErrUnsupportedMethod, first.name)
		}
		if strings.TrimSpace(collection) == "" {
			return nil, ErrCollectionRequired
		}
		cmd.Collection = collection
	default:
		cmd.Collection = first.name
		segs = segs[1:]
	}

	if len(segs) == 0 || !segs[0].call {
		return nil, fmt.Errorf("%w: expected a method call", ErrSyntax)
	}
	if err := cmd.applyMethod(segs[0]); err != nil {
		return nil, err
	}
	for _, seg := range segs[1:] {
		if err := cmd.applyModifier(seg); err != nil {
			return nil, err
		}
	}
	return cmd, nil
}

func (c *Command) applyMethod(seg segment) error {
	m := Method(seg.name)
	if !collectionMethods[m] {
		return fmt.Errorf("%w: %s", ErrUnsupportedMethod, seg.name)
	}
	c.Method = m

	args, err := parseArgs(seg.args)
	if err != nil {
		return err
	}
	maxArgs := 1
	if m == MethodFind || m == MethodFindOne {
		maxArgs = 2
	}
	if m == MethodStats {
		maxArgs = 0
	}
	if len(args) > maxArgs {
		return fmt.Errorf("%w: %s accepts at most %d argument(s)", ErrSyntax, m, maxArgs)
	}

	if len(args) > 0 && args[0] != nil {
		obj, ok := asObject(args[0])
		if !ok {
			return fmt.Errorf("%w: filter must be an object", ErrInvalidFilter)
		}
		if c.Filter, err = Parse(obj); err != nil {
			return err
		}
	}
	if len(args) > 1 && args[1] != nil {
		obj, ok := asObject(args[1])
		if !ok {
			return fmt.Errorf("%w: projection must be an object", ErrSyntax)
		}
		c.Projection = projectionFields(obj)
	}
	if m == MethodFindOne {
		c.Limit = 1
	}
	return nil
}

func (c *Command) applyModifier(seg segment) error {
	if !seg.call {
		return fmt.Errorf("%w: unexpected %q", ErrSyntax, seg.name)
	}
	if c.Method != MethodFind {
		return fmt.Errorf("%w: %s cannot follow %s", ErrSyntax, seg.name, c.Method)
	}
	args, err := parseArgs(seg.args)
	if err != nil {
		return err
	}
	if len(args) != 1 {
		return fmt.Errorf("%w: %s expects one argument", ErrInvalidModifierArgs, seg.name)
	}

	switch seg.name {
	case "sort":
		obj, ok := asObject(args[0])
		if !ok {
			return fmt.Errorf("%w: sort expects an object", ErrInvalidModifierArgs)
		}
		s, err := ParseSortObject(obj)
		if err != nil {
			return err
		}
		c.Sort = s
	case "skip", "limit":
		n, ok := args[0].(int64)
		if !ok || n < 0 {
			return fmt.Errorf("%w: %s expects a non-negative integer", ErrInvalidModifierArgs, seg.name)
		}
		if seg.name == "skip" {
			c.Skip = n
		} else {
			c.Limit = n
		}
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedMethod, seg.name)
	}
	return nil
}

func projectionFields(obj map[string]interface{}) []string {
	var fields []string
	for k, v := range obj {
		switch t := v.(type) {
		case bool:
			if !t {
				continue
			}
		case int64:
			if t == 0 {
				continue
			}
		case float64:
			if t == 0 {
				continue
			}
		}
		fields = append(fields, k)
	}
	sort.Strings(fields)
	return fields
}

func singleString(args []interface{}) (string, bool) {
	if len(args) != 1 {
		return "", false
	}
	s, ok := args[0].(string)
	return s, ok && s != ""
}

// scanSegments splits "a.b(x).c(y)" into its dotted steps. Parentheses are
// balanced and quoted strings are skipped.
func scanSegments(s string) ([]segment, error) {
	var segs []segment
	i := 0
	for {
		start := i
		for i < len(s) && isNameByte(s[i]) {
			i++
		}
		if i == start {
			return nil, fmt.Errorf("%w: expected a name at offset %d", ErrSyntax, start+len(Prefix))
		}
		seg := segment{name: s[start:i]}

		for i < len(s) && s[i] == ' ' {
			i++
		}
		if i < len(s) && s[i] == '(' {
			end, err := matchParen(s, i)
			if err != nil {
				return nil, err
			}
			seg.call = true
			seg.args = s[i+1 : end]
			i = end + 1
		}
		segs = append(segs, seg)

		for i < len(s) && (s[i] == ' ' || s[i] == '\n' || s[i] == '\t') {
			i++
		}
		if i == len(s) {
			return segs, nil
		}
		if s[i] != '.' {
			return nil, fmt.Errorf("%w: unexpected %q", ErrSyntax, s[i])
		}
		i++
	}
}

func isNameByte(b byte) bool {
	return b == '_' || b == '-' || b == '$' ||
		(b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}

// matchParen returns the index of the parenthesis closing the one at open.
func matchParen(s string, open int) (int, error) {
	depth := 0
	var quote byte
	for i := open; i < len(s); i++ {
		c := s[i]
		if quote != 0 {
			switch c {
			case '\\':
				i++
			case quote:
				quote = 0
			}
			continue
		}
		switch c {
		case '"', '\'':
			quote = c
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i, nil
			}
		}
	}
	return 0, fmt.Errorf("%w: unbalanced parentheses", ErrSyntax)
}

// parseArgs decodes a comma separated argument list written in relaxed JSON.
func parseArgs(args string) ([]interface{}, error) {
	if strings.TrimSpace(args) == "" {
		return nil, nil
	}
	relaxed, err := relaxJSON(args)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(strings.NewReader("[" + relaxed + "]"))
	dec.UseNumber()
	var out []interface{}
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSyntax, err)
	}
	return normalize(out).([]interface{}), nil
}

// wrappers are shell constructors whose single argument is kept as is.
var wrappers = map[string]bool{"ObjectId": true, "ISODate": true, "NumberLong": true, "NumberInt": true}

// relaxJSON rewrites shell-style object literals into strict JSON: bare keys
// are quoted, single-quoted strings become double-quoted and wrapper calls such
// as ObjectId("...") are replaced by their argument.
func relaxJSON(s string) (string, error) {
	var buf bytes.Buffer
	for i := 0; i < len(s); {
		c := s[i]
		switch {
		case c == '"' || c == '\'':
			end, lit, err := readString(s, i)
			if err != nil {
				return "", err
			}
			buf.WriteString(lit)
			i = end
		case c == '_' || c == '$' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z'):
			start := i
			for i < len(s) && (isNameByte(s[i]) && s[i] != '-') {
				i++
			}
			ident := s[start:i]
			j := i
			for j < len(s) && (s[j] == ' ' || s[j] == '\t' || s[j] == '\n') {
				j++
			}
			switch {
			case j < len(s) && s[j] == ':':
				buf.WriteString(`"` + ident + `"`)
			case j < len(s) && s[j] == '(' && wrappers[ident]:
				end, err := matchParen(s, j)
				if err != nil {
					return "", err
				}
				inner, err := relaxJSON(s[j+1 : end])
				if err != nil {
					return "", err
				}
				buf.WriteString(strings.TrimSpace(inner))
				i = end + 1
			default:
				buf.WriteString(ident)
			}
		default:
			buf.WriteByte(c)
			i++
		}
	}
	return buf.String(), nil
}

// readString reads the quoted literal starting at s[start] and returns it as
// a double-quoted JSON string.
func readString(s string, start int) (int, string, error) {
	quote := s[start]
	var b strings.Builder
	b.WriteByte('"')
	for i := start + 1; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '\\' && i+1 < len(s):
			if quote == '\'' && s[i+1] == '\'' {
				b.WriteByte('\'')
			} else {
				b.WriteByte(c)
				b.WriteByte(s[i+1])
			}
			i++
		case c == quote:
			b.WriteByte('"')
			return i + 1, b.String(), nil
		case c == '"':
			b.WriteString(`\"`)
		default:
			b.WriteByte(c)
		}
	}
	return 0, "", fmt.Errorf("%w: unterminated string", ErrSyntax)
}
