// Package model defines the values exchanged between the layers of the API.
//
// # Documents
//
// Document is a schema-less record keyed by field name. The identity lives in
// the "_id" field (IDField); its type depends on the backend (an ObjectID hex
// string for MongoDB, a string key for SQLite and SurrealDB). Values decoded
// from request bodies are normalised with NormalizeDocument so integral
// numbers stay integers.
//
// # Envelope
//
// Every response shares one shape:
//
//	type Envelope struct {
//	    Success bool         `json:"success"`
//	    Data    interface{}  `json:"data,omitempty"`
//	    Message string       `json:"message,omitempty"`
//	    Error   string       `json:"error,omitempty"`
//	    Details []FieldError `json:"details,omitempty"`
//	}
//
// # Error Types
//
// APIError carries an ErrorKind, which alone decides the HTTP status and the
// "error" label:
//
//	KindValidation   400 Bad Request
//	KindNotFound     404 Not Found
//	KindStore        500 Database Error
//	KindConnection   200 Connection Error (success=false)
//	KindUnauthorized 401 Unauthorized
//	KindRateLimited  429 Too Many Requests
package model
