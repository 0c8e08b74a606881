// Package fixtures provides test data factories for the admin API.
//
// # Factory Pattern
//
// Create a factory over a connected manager:
//
//	f := fixtures.New(tdb.Manager)
//
// # Creating Test Data
//
//	coll := f.CreateCollection(t)                          // coll_<random>
//	coll := f.CreateCollection(t, fixtures.WithName("users"))
//	doc := f.CreateDocument(t, coll)                       // {name, score}
//	docs := f.CreateDocuments(t, coll, 25)                 // seq 1..25
//	q := f.CreateSavedQuery(t, fixtures.WithQuery("db.users.find()"))
//
// # Cleanup
//
// Test data is removed when the test database is closed.
package fixtures
