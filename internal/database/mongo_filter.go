package database

import (
	"fmt"

	"github.com/aiplsaur/APIMongoDB/internal/model"
	"github.com/aiplsaur/APIMongoDB/internal/query"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// mongoFilter renders a filter tree as a bson document. Identity values that
// are 24-character hex strings are compared as ObjectIDs.
func mongoFilter(g *query.Group) (bson.D, error) {
	if g.Empty() {
		return bson.D{}, nil
	}
	parts := make(bson.A, 0, len(g.Exprs))
	for _, e := range g.Exprs {
		var (
			part bson.D
			err  error
		)
		switch t := e.(type) {
		case query.Condition:
			part, err = mongoCondition(t)
		case *query.Group:
			part, err = mongoFilter(t)
		}
		if err != nil {
			return nil, err
		}
		parts = append(parts, part)
	}
	op := "$and"
	if g.Logic == query.LogicOr {
		op = "$or"
	}
	return bson.D{{Key: op, Value: parts}}, nil
}

func mongoCondition(c query.Condition) (bson.D, error) {
	if !query.ValidField(c.Field) {
		return nil, fmt.Errorf("%w: field %q", query.ErrInvalidFilter, c.Field)
	}
	value := c.Value
	if c.Field == model.IDField {
		value = mongoIDValue(value)
	}
	if items, ok := value.([]interface{}); ok {
		value = bson.A(items)
	}
	return bson.D{{Key: c.Field, Value: bson.D{{Key: string(c.Op), Value: value}}}}, nil
}

func mongoIDValue(v interface{}) interface{} {
	switch t := v.(type) {
	case string:
		if oid, err := primitive.ObjectIDFromHex(t); err == nil {
			return oid
		}
		return t
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, item := range t {
			out[i] = mongoIDValue(item)
		}
		return out
	default:
		return v
	}
}

func mongoSort(s *query.Sort) (bson.D, error) {
	if !query.ValidField(s.Field) {
		return nil, fmt.Errorf("%w: field %q", query.ErrInvalidSort, s.Field)
	}
	return bson.D{{Key: s.Field, Value: int(s.Direction)}}, nil
}

// mongoValue converts decoded bson values into document values.
func mongoValue(v interface{}) interface{} {
	switch t := v.(type) {
	case primitive.ObjectID:
		return t.Hex()
	case primitive.DateTime:
		return t.Time().UTC()
	case primitive.Timestamp:
		return int64(t.T)
	case primitive.Decimal128:
		return t.String()
	case primitive.Binary:
		return t.Data
	case primitive.Regex:
		return t.Pattern
	case primitive.Null, primitive.Undefined:
		return nil
	case int32:
		return int64(t)
	case int:
		return int64(t)
	case primitive.M:
		out := make(model.Document, len(t))
		for k, val := range t {
			out[k] = mongoValue(val)
		}
		return out
	case primitive.D:
		out := make(model.Document, len(t))
		for _, e := range t {
			out[e.Key] = mongoValue(e.Value)
		}
		return out
	case primitive.A:
		out := make([]interface{}, len(t))
		for i, val := range t {
			out[i] = mongoValue(val)
		}
		return out
	default:
		return v
	}
}

// mongoDocument converts a decoded bson document into a model.Document.
func mongoDocument(m primitive.M) model.Document {
	return mongoValue(m).(model.Document)
}
