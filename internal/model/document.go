package model

import (
	"encoding/json"
	"math"
	"strconv"
)

// IDField is the distinguished identity field of every document.
const IDField = "_id"

// Document is a schema-less record. Values are restricted to the JSON data
// model plus time.Time: nil, bool, int64, float64, string, []interface{},
// Document and time.Time. Backends normalise driver types into this set.
type Document map[string]interface{}

// ID returns the document identity, or nil when it has none.
func (d Document) ID() interface{} {
	return d[IDField]
}

// Clone returns a shallow copy of the document.
func (d Document) Clone() Document {
	out := make(Document, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

// WithoutID returns a copy of the document without its identity field.
func (d Document) WithoutID() Document {
	out := d.Clone()
	delete(out, IDField)
	return out
}

// Project keeps only the named top-level fields. The identity field is always
// kept.
func (d Document) Project(fields []string) Document {
	if len(fields) == 0 {
		return d
	}
	out := Document{}
	if id, ok := d[IDField]; ok {
		out[IDField] = id
	}
	for _, f := range fields {
		if v, ok := d[f]; ok {
			out[f] = v
		}
	}
	return out
}

// NormalizeJSON converts a value decoded with json.Decoder.UseNumber into the
// document value set. Integral numbers become int64, the rest float64, and
// nested objects become Document.
func NormalizeJSON(v interface{}) interface{} {
	switch t := v.(type) {
	case json.Number:
		if i, err := strconv.ParseInt(t.String(), 10, 64); err == nil {
			return i
		}
		if f, err := t.Float64(); err == nil {
			return f
		}
		return t.String()
	case float64:
		if t == math.Trunc(t) && math.Abs(t) < 1<<53 {
			return int64(t)
		}
		return t
	case map[string]interface{}:
		out := make(Document, len(t))
		for k, val := range t {
			out[k] = NormalizeJSON(val)
		}
		return out
	case Document:
		out := make(Document, len(t))
		for k, val := range t {
			out[k] = NormalizeJSON(val)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, val := range t {
			out[i] = NormalizeJSON(val)
		}
		return out
	default:
		return v
	}
}

// NormalizeDocument applies NormalizeJSON to every field of m.
func NormalizeDocument(m map[string]interface{}) Document {
	if m == nil {
		return nil
	}
	return NormalizeJSON(m).(Document)
}
