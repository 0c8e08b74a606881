package service

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/aiplsaur/APIMongoDB/internal/database"
	"github.com/aiplsaur/APIMongoDB/internal/model"
)

// maxStatsConcurrency bounds the statistics calls in flight for one listing.
const maxStatsConcurrency = 8

// CollectionService handles collection operations
type CollectionService struct {
	handles database.Provider
}

// CollectionServiceConfig holds configuration for the collection service
type CollectionServiceConfig struct {
	Handles database.Provider
}

// NewCollectionService creates a new collection service
func NewCollectionService(cfg CollectionServiceConfig) *CollectionService {
	return &CollectionService{handles: cfg.Handles}
}

// List returns every collection with its statistics, in the order the store
// reports them. A failed statistics call fails the whole listing.
func (s *CollectionService) List(ctx context.Context) ([]*model.CollectionInfo, error) {
	h, err := requireHandle(s.handles)
	if err != nil {
		return nil, err
	}

	names, err := h.ListCollections(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]*model.CollectionInfo, len(names))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxStatsConcurrency)
	for i, name := range names {
		g.Go(func() error {
			info, err := h.CollectionStats(gctx, name)
			if err != nil {
				return err
			}
			out[i] = info
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, mapCollectionError(err)
	}
	return out, nil
}

// Create creates an empty collection
func (s *CollectionService) Create(ctx context.Context, name string) error {
	h, err := requireHandle(s.handles)
	if err != nil {
		return err
	}
	if err := requireText(name, ErrCollectionNameRequired); err != nil {
		return err
	}
	return h.CreateCollection(ctx, name)
}

// Rename renames a collection. The source must exist and the target must not.
func (s *CollectionService) Rename(ctx context.Context, oldName, newName string) error {
	h, err := requireHandle(s.handles)
	if err != nil {
		return err
	}
	if requireText(oldName, ErrCollectionNamesRequired) != nil || requireText(newName, ErrCollectionNamesRequired) != nil {
		return ErrCollectionNamesRequired
	}
	return mapCollectionError(h.RenameCollection(ctx, oldName, newName))
}

// Drop removes a collection and every document in it
func (s *CollectionService) Drop(ctx context.Context, name string) error {
	h, err := requireHandle(s.handles)
	if err != nil {
		return err
	}
	if err := requireText(name, ErrCollectionNameRequired); err != nil {
		return err
	}
	return mapCollectionError(h.DropCollection(ctx, name))
}

func mapCollectionError(err error) error {
	if errors.Is(err, database.ErrCollectionNotFound) {
		return fmt.Errorf("%w: %w", ErrCollectionNotFound, err)
	}
	return err
}
