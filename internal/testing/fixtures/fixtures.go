// Package fixtures provides test data factories for e2e testing.
//
// Each factory method creates entities with sensible defaults while allowing
// customization via option functions. Factories write through the live
// handle and return what the store returned.
//
// Usage:
//
//	f := fixtures.New(tdb.Manager)
//	coll := f.CreateCollection(t)
//	doc := f.CreateDocument(t, coll)
//	saved := f.CreateSavedQuery(t)
package fixtures

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"testing"
	"time"

	"github.com/aiplsaur/APIMongoDB/internal/database"
	"github.com/aiplsaur/APIMongoDB/internal/model"
	"github.com/aiplsaur/APIMongoDB/internal/repository"
)

// Factory creates test entities in the database
type Factory struct {
	handles database.Provider
	saved   *repository.SavedQueryRepository
}

// New creates a new fixture factory
func New(handles database.Provider) *Factory {
	return &Factory{
		handles: handles,
		saved:   repository.NewSavedQueryRepository(handles, ""),
	}
}

// randomID generates a random hex ID
func randomID() string {
	b := make([]byte, 8)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

func ctx(t *testing.T) context.Context {
	c, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)
	return c
}

func (f *Factory) handle(t *testing.T) database.Handle {
	t.Helper()
	h, err := f.handles.Handle()
	if err != nil {
		t.Fatalf("fixtures: %v", err)
	}
	return h
}

// ============================================================================
// Collection Fixtures
// ============================================================================

// CollectionOpts customizes collection creation
type CollectionOpts struct {
	Name string
}

// WithName sets the collection name
func WithName(name string) func(*CollectionOpts) {
	return func(o *CollectionOpts) { o.Name = name }
}

// CreateCollection creates an empty collection and returns its name
func (f *Factory) CreateCollection(t *testing.T, opts ...func(*CollectionOpts)) string {
	t.Helper()

	o := &CollectionOpts{Name: fmt.Sprintf("coll_%s", randomID())}
	for _, fn := range opts {
		fn(o)
	}

	if err := f.handle(t).CreateCollection(ctx(t), o.Name); err != nil {
		t.Fatalf("fixtures: failed to create collection %s: %v", o.Name, err)
	}
	return o.Name
}

// ============================================================================
// Document Fixtures
// ============================================================================

// DocumentOpts customizes document creation
type DocumentOpts struct {
	Fields model.Document
}

// WithFields merges fields into the default document
func WithFields(fields model.Document) func(*DocumentOpts) {
	return func(o *DocumentOpts) {
		for k, v := range fields {
			o.Fields[k] = v
		}
	}
}

// CreateDocument inserts a document into collection. The default document
// has a unique name and a score of 1.
func (f *Factory) CreateDocument(t *testing.T, collection string, opts ...func(*DocumentOpts)) model.Document {
	t.Helper()

	o := &DocumentOpts{Fields: model.Document{
		"name":  fmt.Sprintf("doc_%s", randomID()),
		"score": int64(1),
	}}
	for _, fn := range opts {
		fn(o)
	}

	doc, err := f.handle(t).Insert(ctx(t), collection, o.Fields)
	if err != nil {
		t.Fatalf("fixtures: failed to insert into %s: %v", collection, err)
	}
	return doc
}

// CreateDocuments inserts n documents whose "seq" field runs from 1 to n.
func (f *Factory) CreateDocuments(t *testing.T, collection string, n int) []model.Document {
	t.Helper()

	docs := make([]model.Document, 0, n)
	for i := 1; i <= n; i++ {
		docs = append(docs, f.CreateDocument(t, collection, WithFields(model.Document{
			"seq": int64(i),
		})))
	}
	return docs
}

// ============================================================================
// Saved Query Fixtures
// ============================================================================

// SavedQueryOpts customizes saved query creation
type SavedQueryOpts struct {
	Name       string
	Query      string
	Collection string
}

// WithQuery sets the query text
func WithQuery(text string) func(*SavedQueryOpts) {
	return func(o *SavedQueryOpts) { o.Query = text }
}

// CreateSavedQuery stores a saved query
func (f *Factory) CreateSavedQuery(t *testing.T, opts ...func(*SavedQueryOpts)) *model.SavedQuery {
	t.Helper()

	o := &SavedQueryOpts{
		Name:  fmt.Sprintf("query_%s", randomID()),
		Query: "db.getCollectionNames()",
	}
	for _, fn := range opts {
		fn(o)
	}

	saved, err := f.saved.Create(ctx(t), o.Name, o.Query, o.Collection)
	if err != nil {
		t.Fatalf("fixtures: failed to save query: %v", err)
	}
	return saved
}
