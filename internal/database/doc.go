// Package database is the store collaborator of the API.
//
// A Handle is one open session on a document database. Three backends
// implement it, chosen by the scheme of the connection string:
//
//	mongodb://, mongodb+srv://      MongoDB
//	ws://, wss://, http://, https:// SurrealDB (user:pass@host:port/ns/db)
//	sqlite://path, sqlite://:memory: embedded SQLite, one JSON table per collection
//
// The Manager owns the single process-wide handle slot. Connecting again
// closes the previous handle before the new one is dialled; a failed
// connect leaves the manager disconnected.
//
//	mgr := database.NewManager(database.ManagerConfig{Logger: logger})
//	if err := mgr.Connect(ctx, "mongodb://localhost:27017/shop"); err != nil {
//	    // errors.Is(err, database.ErrConnection)
//	}
//	h, err := mgr.Handle()
//
// # Error Types
//
// Backends wrap driver failures against the sentinels in database.go:
//
//   - ErrNotFound: document does not exist
//   - ErrCollectionNotFound / ErrCollectionExists: collection lifecycle conflicts
//   - ErrInvalidID / ErrInvalidName: input the backend cannot represent
//   - ErrConnection / ErrNotConnected: no usable session
package database
