package database

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/aiplsaur/APIMongoDB/internal/model"
	"github.com/surrealdb/surrealdb.go/pkg/models"
)

// isUniqueConstraintError checks if an error is a unique constraint violation
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "unique") ||
		strings.Contains(errStr, "duplicate") ||
		strings.Contains(errStr, "already exists")
}

// extractRecordKey returns the key part of a SurrealDB record id
// ("person:abc" -> "abc").
func extractRecordKey(id interface{}) string {
	switch v := id.(type) {
	case string:
		if _, key, ok := strings.Cut(v, ":"); ok {
			return strings.Trim(key, "⟨⟩`")
		}
		return v
	case models.RecordID:
		return fmt.Sprint(v.ID)
	case *models.RecordID:
		if v != nil {
			return fmt.Sprint(v.ID)
		}
	case map[string]interface{}:
		// Handle {"tb": "table", "id": "xxx"} format
		if key, ok := v["id"]; ok {
			return fmt.Sprint(key)
		}
	}
	return ""
}

// toInt64 converts the numeric types drivers return to int64
func toInt64(v interface{}) int64 {
	switch c := v.(type) {
	case float64:
		return int64(c)
	case float32:
		return int64(c)
	case int:
		return int64(c)
	case int32:
		return int64(c)
	case int64:
		return c
	case uint64:
		return int64(c)
	case json.Number:
		if i, err := c.Int64(); err == nil {
			return i
		}
		f, _ := c.Float64()
		return int64(f)
	}
	return 0
}

// toFloat64 converts the numeric types drivers return to float64
func toFloat64(v interface{}) float64 {
	switch c := v.(type) {
	case float64:
		return c
	case float32:
		return float64(c)
	case int:
		return float64(c)
	case int32:
		return float64(c)
	case int64:
		return float64(c)
	case uint64:
		return float64(c)
	}
	return 0
}

// normalizeSurrealValue converts SurrealDB result values to document values
func normalizeSurrealValue(v interface{}) interface{} {
	switch t := v.(type) {
	case models.CustomDateTime:
		return t.Time
	case *models.CustomDateTime:
		if t != nil {
			return t.Time
		}
		return nil
	case models.RecordID:
		return t.String()
	case *models.RecordID:
		if t != nil {
			return t.String()
		}
		return nil
	case time.Time:
		return t
	case map[string]interface{}:
		out := make(model.Document, len(t))
		for k, val := range t {
			out[k] = normalizeSurrealValue(val)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, val := range t {
			out[i] = normalizeSurrealValue(val)
		}
		return out
	case uint64:
		return int64(t)
	case int:
		return int64(t)
	case float32:
		return float64(t)
	default:
		return model.NormalizeJSON(v)
	}
}
