package model

import "time"

// SavedQuery is a named query definition persisted as a document in the
// reserved saved-queries collection.
type SavedQuery struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Query      string    `json:"query"`
	Collection string    `json:"collection,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// ExecuteQueryRequest is the body of POST /api/query/execute
type ExecuteQueryRequest struct {
	Query      string `json:"query"`
	Collection string `json:"collection,omitempty"`
}

// SaveQueryRequest is the body of POST /api/query/save
type SaveQueryRequest struct {
	Name       string `json:"name"`
	Query      string `json:"query"`
	Collection string `json:"collection,omitempty"`
}

// QueryResult is the transient output of an executed query.
type QueryResult struct {
	Results interface{} `json:"results"`
	// Truncated is set when a find matched more documents than were returned.
	Truncated bool `json:"truncated,omitempty"`
}
