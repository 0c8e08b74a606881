// Package testdb provides test database utilities for the admin API.
//
// # Test Database Setup
//
// Create a test database for each test:
//
//	func TestSomething(t *testing.T) {
//	    tdb := testdb.New(t)
//	    defer tdb.Close()
//
//	    // tdb.Manager is connected; tdb.Handle() returns the live handle
//	}
//
// # Backends
//
// Without configuration each TestDB is a private sqlite://:memory: database.
// TEST_DATABASE_URI selects a server instead:
//
//	TEST_DATABASE_URI=mongodb://localhost:27017 go test ./...
//	TEST_DATABASE_URI=ws://root:root@localhost:8000/ns/db go test ./...
//
// Server-backed tests get a unique database name per TestDB.
//
// # Shared Database
//
// For subtests that share a connection:
//
//	tdb := testdb.NewShared(t)
//	t.Run("create", func(t *testing.T) { db := tdb.SetupSubtest(t); ... })
package testdb
