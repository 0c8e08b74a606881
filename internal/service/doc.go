// Package service implements the operations behind the admin API.
//
// Each service resolves the live database handle per call through a
// database.Provider, runs its request validators and performs one store
// operation. Validators always run in the same order: a missing connection
// is reported before any malformed input.
//
// # Service Pattern
//
//   - Constructor function (NewXxxService) accepts a config struct with its dependencies
//   - Services define the narrow interfaces they need (SavedQueryRepository, ConnectionManager)
//   - Errors are sentinel values from errors.go, or store errors wrapped with %w
//
// # Example Usage
//
//	docs := NewDocumentService(DocumentServiceConfig{
//	    Handles:  manager,
//	    MaxLimit: 1000,
//	})
//	page, err := docs.List(ctx, "orders", ListDocumentsRequest{Page: 2, Limit: 20})
package service
