package service

import "errors"

// Centralized service layer errors.
// All errors returned by service methods are defined here for consistency
// and to make error handling in handlers predictable.

// ===== Connection Errors =====
var (
	ErrConnectionStringRequired = errors.New("Connection string is required")
	ErrConnectFailed            = errors.New("Failed to connect to database")
)

// ===== Collection Errors =====
var (
	ErrCollectionNameRequired  = errors.New("Collection name is required")
	ErrCollectionNamesRequired = errors.New("Old and new collection names are required")
	ErrCollectionNotFound      = errors.New("Collection not found")
)

// ===== Document Errors =====
var (
	ErrDocumentRequired  = errors.New("Document is required")
	ErrDocumentNotFound  = errors.New("Document not found")
	ErrInvalidDocumentID = errors.New("Invalid document id")
	ErrIDsRequired       = errors.New("Ids array is required")
	ErrInvalidPage       = errors.New("page must be a positive integer")
	ErrInvalidLimit      = errors.New("limit must be a positive integer")
	ErrInvalidFilter     = errors.New("Invalid filter")
	ErrInvalidSort       = errors.New("Invalid sort")
)

// ===== Query Errors =====
var (
	ErrQueryRequired        = errors.New("Query is required")
	ErrInvalidQueryFormat   = errors.New("Invalid query format. Must start with db.")
	ErrInvalidQuery         = errors.New("Invalid query")
	ErrNameAndQueryRequired = errors.New("Name and query are required")
	ErrSavedQueryNotFound   = errors.New("Query not found")
)
