package service

import (
	"context"
	"errors"
	"fmt"
	"math"

	"golang.org/x/sync/errgroup"

	"github.com/aiplsaur/APIMongoDB/internal/database"
	"github.com/aiplsaur/APIMongoDB/internal/model"
	"github.com/aiplsaur/APIMongoDB/internal/query"
)

// Page size defaults
const (
	DefaultPageLimit = 20
	DefaultMaxLimit  = 1000
)

// ListDocumentsRequest selects one page of a collection. Zero Page and Limit
// take the defaults.
type ListDocumentsRequest struct {
	Page   int
	Limit  int
	Sort   *query.Sort
	Filter *query.Group
}

// DocumentService handles document operations
type DocumentService struct {
	handles      database.Provider
	defaultLimit int
	maxLimit     int
}

// DocumentServiceConfig holds configuration for the document service
type DocumentServiceConfig struct {
	Handles      database.Provider
	DefaultLimit int
	MaxLimit     int
}

// NewDocumentService creates a new document service
func NewDocumentService(cfg DocumentServiceConfig) *DocumentService {
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = DefaultPageLimit
	}
	if cfg.MaxLimit <= 0 {
		cfg.MaxLimit = DefaultMaxLimit
	}
	if cfg.DefaultLimit > cfg.MaxLimit {
		cfg.DefaultLimit = cfg.MaxLimit
	}
	return &DocumentService{
		handles:      cfg.Handles,
		defaultLimit: cfg.DefaultLimit,
		maxLimit:     cfg.MaxLimit,
	}
}

// List returns one page of documents and the number of documents matching
// the filter. The page and the count are read independently and may not
// agree when the collection changes in between.
func (s *DocumentService) List(ctx context.Context, collection string, req ListDocumentsRequest) (*model.DocumentPage, error) {
	h, err := requireHandle(s.handles)
	if err != nil {
		return nil, err
	}

	page, limit := req.Page, req.Limit
	if page == 0 {
		page = 1
	}
	if limit == 0 {
		limit = s.defaultLimit
	}
	switch {
	case page < 1:
		return nil, ErrInvalidPage
	case limit < 1:
		return nil, ErrInvalidLimit
	}
	limit = min(limit, s.maxLimit)

	opts := database.FindOptions{
		Filter: req.Filter,
		Sort:   req.Sort,
		Skip:   pageOffset(page, limit),
		Limit:  int64(limit),
	}

	var (
		docs  []model.Document
		total int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		docs, err = h.Find(gctx, collection, opts)
		return err
	})
	g.Go(func() error {
		var err error
		total, err = h.Count(gctx, collection, req.Filter)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, mapQueryError(err)
	}

	if docs == nil {
		docs = []model.Document{}
	}
	return &model.DocumentPage{
		Documents: docs,
		Total:     total,
		Page:      page,
		Limit:     limit,
	}, nil
}

// pageOffset returns the number of documents before page. Offsets past
// math.MaxInt64 saturate, which still skips every stored document.
func pageOffset(page, limit int) int64 {
	if int64(page-1) > math.MaxInt64/int64(limit) {
		return math.MaxInt64
	}
	return int64(page-1) * int64(limit)
}

// Get returns the document with the given identity
func (s *DocumentService) Get(ctx context.Context, collection, id string) (model.Document, error) {
	h, err := requireHandle(s.handles)
	if err != nil {
		return nil, err
	}
	native, err := parseID(h, id)
	if err != nil {
		return nil, err
	}
	return s.get(ctx, h, collection, native)
}

func (s *DocumentService) get(ctx context.Context, h database.Handle, collection string, id interface{}) (model.Document, error) {
	docs, err := h.Find(ctx, collection, database.FindOptions{
		Filter: query.Eq(model.IDField, id),
		Limit:  1,
	})
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, ErrDocumentNotFound
	}
	return docs[0], nil
}

// Create stores a document. A supplied identity is kept, otherwise the
// store generates one. The stored document is returned.
func (s *DocumentService) Create(ctx context.Context, collection string, doc model.Document) (model.Document, error) {
	h, err := requireHandle(s.handles)
	if err != nil {
		return nil, err
	}
	if len(doc) == 0 {
		return nil, ErrDocumentRequired
	}
	return h.Insert(ctx, collection, doc)
}

// Update sets the supplied fields on a document and returns the result. The
// identity field of the payload is ignored so an update never moves a
// document to another identity.
func (s *DocumentService) Update(ctx context.Context, collection, id string, doc model.Document) (model.Document, error) {
	h, err := requireHandle(s.handles)
	if err != nil {
		return nil, err
	}
	if len(doc) == 0 {
		return nil, ErrDocumentRequired
	}
	native, err := parseID(h, id)
	if err != nil {
		return nil, err
	}

	set := doc.WithoutID()
	if len(set) == 0 {
		return s.get(ctx, h, collection, native)
	}

	updated, err := h.Update(ctx, collection, native, set)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrDocumentNotFound
	}
	return updated, err
}

// Delete removes the document with the given identity
func (s *DocumentService) Delete(ctx context.Context, collection, id string) error {
	h, err := requireHandle(s.handles)
	if err != nil {
		return err
	}
	native, err := parseID(h, id)
	if err != nil {
		return err
	}

	n, err := h.DeleteMany(ctx, collection, query.Eq(model.IDField, native))
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrDocumentNotFound
	}
	return nil
}

// DeleteMany removes every document whose identity is listed and returns
// how many were removed. Identities that match nothing are not an error.
// All identities are parsed before anything is deleted.
func (s *DocumentService) DeleteMany(ctx context.Context, collection string, ids []interface{}) (int64, error) {
	h, err := requireHandle(s.handles)
	if err != nil {
		return 0, err
	}
	natives, err := parseIDs(h, ids)
	if err != nil {
		return 0, err
	}
	return h.DeleteMany(ctx, collection, query.In(model.IDField, natives))
}

// mapQueryError reports filters and sorts a backend refused as validation
// failures.
func mapQueryError(err error) error {
	switch {
	case errors.Is(err, query.ErrInvalidFilter):
		return fmt.Errorf("%w: %w", ErrInvalidFilter, err)
	case errors.Is(err, query.ErrInvalidSort):
		return fmt.Errorf("%w: %w", ErrInvalidSort, err)
	}
	return err
}
