// Package repository implements persistence for the API's own records.
//
// Saved queries are stored as ordinary documents in a reserved collection of
// the connected database, so they follow whichever backend is live. The
// repository resolves the handle on every call through a database.Provider
// and never caches it across a reconnect.
//
// # Example Usage
//
//	repo := NewSavedQueryRepository(manager, "saved_queries")
//	saved, err := repo.Create(ctx, "adults", "db.users.find({age: {$gte: 18}})", "users")
//	if err := repo.Delete(ctx, saved.ID); errors.Is(err, database.ErrNotFound) {
//	    // already gone
//	}
package repository
