package query

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Direction is a sort direction: 1 ascending, -1 descending.
type Direction int

const (
	Ascending  Direction = 1
	Descending Direction = -1
)

// Sort orders results by a single field.
type Sort struct {
	Field     string
	Direction Direction
}

// NewSort validates field and builds an ascending or descending sort.
func NewSort(field string, dir Direction) (*Sort, error) {
	if !ValidField(field) {
		return nil, fmt.Errorf("%w: invalid field name %q", ErrInvalidSort, field)
	}
	if dir != Ascending && dir != Descending {
		return nil, fmt.Errorf("%w: direction must be 1 or -1", ErrInvalidSort)
	}
	return &Sort{Field: field, Direction: dir}, nil
}

// ParseDirection accepts 1, -1, "1", "-1", "asc", "desc", "ascending" and
// "descending". An empty string means ascending.
func ParseDirection(v interface{}) (Direction, error) {
	switch t := v.(type) {
	case nil:
		return Ascending, nil
	case int:
		return directionFromInt(int64(t))
	case int64:
		return directionFromInt(t)
	case float64:
		return directionFromInt(int64(t))
	case json.Number:
		i, err := t.Int64()
		if err != nil {
			return 0, fmt.Errorf("%w: direction %q", ErrInvalidSort, t.String())
		}
		return directionFromInt(i)
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "", "1", "asc", "ascending":
			return Ascending, nil
		case "-1", "desc", "descending":
			return Descending, nil
		}
		return 0, fmt.Errorf("%w: direction %q", ErrInvalidSort, t)
	default:
		return 0, fmt.Errorf("%w: direction must be a number or string", ErrInvalidSort)
	}
}

func directionFromInt(i int64) (Direction, error) {
	switch i {
	case 1:
		return Ascending, nil
	case -1:
		return Descending, nil
	default:
		return 0, fmt.Errorf("%w: direction %s", ErrInvalidSort, strconv.FormatInt(i, 10))
	}
}

// ParseSortObject reads either {"field": "a", "order": -1} or the shell form
// {"a": -1}. Exactly one sort field is allowed.
func ParseSortObject(obj map[string]interface{}) (*Sort, error) {
	if field, ok := obj["field"].(string); ok {
		if len(obj) > 2 {
			return nil, fmt.Errorf("%w: unexpected keys", ErrInvalidSort)
		}
		order, hasOrder := obj["order"]
		if len(obj) == 2 && !hasOrder {
			return nil, fmt.Errorf("%w: unexpected keys", ErrInvalidSort)
		}
		dir, err := ParseDirection(order)
		if err != nil {
			return nil, err
		}
		return NewSort(field, dir)
	}

	if len(obj) != 1 {
		return nil, fmt.Errorf("%w: exactly one sort field is supported", ErrInvalidSort)
	}
	for field, raw := range obj {
		dir, err := ParseDirection(raw)
		if err != nil {
			return nil, err
		}
		return NewSort(field, dir)
	}
	return nil, nil
}

// ParseSortJSON parses a sort object from JSON text.
func ParseSortJSON(text string) (*Sort, error) {
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()
	var raw map[string]interface{}
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSort, err)
	}
	return ParseSortObject(normalize(raw).(map[string]interface{}))
}
