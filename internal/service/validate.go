package service

import (
	"fmt"
	"strings"

	"github.com/aiplsaur/APIMongoDB/internal/database"
)

// Request validators. Every operation runs them in the same order: the
// connection check first, then the shape of the request. They never touch
// the store beyond fetching the handle.

// requireHandle returns the live handle or database.ErrNotConnected.
func requireHandle(p database.Provider) (database.Handle, error) {
	return p.Handle()
}

// requireText fails with err when s is blank.
func requireText(s string, err error) error {
	if strings.TrimSpace(s) == "" {
		return err
	}
	return nil
}

// parseID parses an identity, reporting malformed input as ErrInvalidDocumentID.
func parseID(h database.Handle, raw string) (interface{}, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, ErrInvalidDocumentID
	}
	id, err := h.ParseID(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDocumentID, raw)
	}
	return id, nil
}

// parseIDs parses every identity of a bulk request before anything is
// deleted. One malformed entry fails the whole set.
func parseIDs(h database.Handle, raw []interface{}) ([]interface{}, error) {
	if len(raw) == 0 {
		return nil, ErrIDsRequired
	}
	out := make([]interface{}, 0, len(raw))
	for _, v := range raw {
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("%w: %v", ErrInvalidDocumentID, v)
		}
		id, err := parseID(h, s)
		if err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, nil
}
