package repository

import (
	"context"
	"errors"
	"time"

	"github.com/aiplsaur/APIMongoDB/internal/database"
	"github.com/aiplsaur/APIMongoDB/internal/model"
	"github.com/aiplsaur/APIMongoDB/internal/query"
)

// DefaultSavedQueriesCollection is the reserved collection holding saved queries.
const DefaultSavedQueriesCollection = "saved_queries"

// Stored field names of a saved query document.
const (
	fieldName       = "name"
	fieldQuery      = "query"
	fieldCollection = "collection"
	fieldCreatedAt  = "createdAt"
	fieldUpdatedAt  = "updatedAt"
)

// SavedQueryRepository persists saved queries as documents on the live handle
type SavedQueryRepository struct {
	handles    database.Provider
	collection string
	now        func() time.Time
}

// NewSavedQueryRepository creates a new saved query repository
func NewSavedQueryRepository(handles database.Provider, collection string) *SavedQueryRepository {
	if collection == "" {
		collection = DefaultSavedQueriesCollection
	}
	return &SavedQueryRepository{
		handles:    handles,
		collection: collection,
		now:        time.Now,
	}
}

// Collection returns the name of the collection saved queries live in
func (r *SavedQueryRepository) Collection() string {
	return r.collection
}

// Create stores a new saved query. The identity is generated by the store and
// both timestamps carry the same instant.
func (r *SavedQueryRepository) Create(ctx context.Context, name, queryText, collection string) (*model.SavedQuery, error) {
	h, err := r.handles.Handle()
	if err != nil {
		return nil, err
	}

	// Millisecond precision survives every backend unchanged.
	now := r.now().UTC().Truncate(time.Millisecond)
	doc := model.Document{
		fieldName:      name,
		fieldQuery:     queryText,
		fieldCreatedAt: now,
		fieldUpdatedAt: now,
	}
	if collection != "" {
		doc[fieldCollection] = collection
	}

	stored, err := h.Insert(ctx, r.collection, doc)
	if err != nil {
		return nil, err
	}

	return &model.SavedQuery{
		ID:         idString(stored.ID()),
		Name:       name,
		Query:      queryText,
		Collection: collection,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// List returns every saved query projected to its declared fields
func (r *SavedQueryRepository) List(ctx context.Context) ([]*model.SavedQuery, error) {
	h, err := r.handles.Handle()
	if err != nil {
		return nil, err
	}

	docs, err := h.Find(ctx, r.collection, database.FindOptions{})
	if err != nil {
		return nil, err
	}

	out := make([]*model.SavedQuery, 0, len(docs))
	for _, d := range docs {
		out = append(out, &model.SavedQuery{
			ID:         idString(d.ID()),
			Name:       getString(d, fieldName),
			Query:      getString(d, fieldQuery),
			Collection: getString(d, fieldCollection),
			CreatedAt:  parseTime(d[fieldCreatedAt]),
			UpdatedAt:  parseTime(d[fieldUpdatedAt]),
		})
	}
	return out, nil
}

// Delete removes a saved query. An identity that does not parse can never
// exist, so it is reported as database.ErrNotFound like a missing one.
func (r *SavedQueryRepository) Delete(ctx context.Context, id string) error {
	h, err := r.handles.Handle()
	if err != nil {
		return err
	}

	native, err := h.ParseID(id)
	if errors.Is(err, database.ErrInvalidID) {
		return database.ErrNotFound
	}
	if err != nil {
		return err
	}

	n, err := h.DeleteMany(ctx, r.collection, query.Eq(model.IDField, native))
	if err != nil {
		return err
	}
	if n == 0 {
		return database.ErrNotFound
	}
	return nil
}
