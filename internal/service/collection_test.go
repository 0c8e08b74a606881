package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/aiplsaur/APIMongoDB/internal/database"
	"github.com/aiplsaur/APIMongoDB/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// List Tests
// ============================================================================

func TestCollectionService_List_KeepsStoreOrder(t *testing.T) {
	t.Parallel()
	h := &mockHandle{
		listCollectionsFunc: func(ctx context.Context) ([]string, error) {
			return []string{"zeta", "alpha", "mid"}, nil
		},
		collectionStatsFunc: func(ctx context.Context, name string) (*model.CollectionInfo, error) {
			// Finish out of order to prove the result is positional.
			if name == "zeta" {
				time.Sleep(10 * time.Millisecond)
			}
			return &model.CollectionInfo{Name: name, Count: int64(len(name))}, nil
		},
	}
	svc := NewCollectionService(CollectionServiceConfig{Handles: provider{h: h}})

	list, err := svc.List(context.Background())

	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "zeta", list[0].Name)
	assert.Equal(t, "alpha", list[1].Name)
	assert.Equal(t, "mid", list[2].Name)
	assert.Equal(t, int64(5), list[1].Count)
}

func TestCollectionService_List_StatsFailureAbortsListing(t *testing.T) {
	t.Parallel()
	boom := errors.New("collStats failed")
	h := &mockHandle{
		listCollectionsFunc: func(ctx context.Context) ([]string, error) {
			return []string{"a", "b"}, nil
		},
		collectionStatsFunc: func(ctx context.Context, name string) (*model.CollectionInfo, error) {
			if name == "b" {
				return nil, boom
			}
			return &model.CollectionInfo{Name: name}, nil
		},
	}
	svc := NewCollectionService(CollectionServiceConfig{Handles: provider{h: h}})

	list, err := svc.List(context.Background())

	assert.ErrorIs(t, err, boom)
	assert.Nil(t, list)
}

func TestCollectionService_List_Empty(t *testing.T) {
	t.Parallel()
	svc := NewCollectionService(CollectionServiceConfig{Handles: provider{h: &mockHandle{}}})

	list, err := svc.List(context.Background())

	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)
}

// ============================================================================
// Create / Rename / Drop Tests
// ============================================================================

func TestCollectionService_Create(t *testing.T) {
	t.Parallel()
	var created string
	h := &mockHandle{
		createCollectionFunc: func(ctx context.Context, name string) error {
			created = name
			return nil
		},
	}
	svc := NewCollectionService(CollectionServiceConfig{Handles: provider{h: h}})

	require.NoError(t, svc.Create(context.Background(), "x"))
	assert.Equal(t, "x", created)
}

func TestCollectionService_Create_Validation(t *testing.T) {
	t.Parallel()
	called := false
	h := &mockHandle{
		createCollectionFunc: func(ctx context.Context, name string) error {
			called = true
			return nil
		},
	}
	svc := NewCollectionService(CollectionServiceConfig{Handles: provider{h: h}})

	assert.ErrorIs(t, svc.Create(context.Background(), "  "), ErrCollectionNameRequired)
	assert.False(t, called)
}

func TestCollectionService_Create_ExistingIsStoreError(t *testing.T) {
	t.Parallel()
	h := &mockHandle{
		createCollectionFunc: func(ctx context.Context, name string) error {
			return fmt.Errorf("%w: %s", database.ErrCollectionExists, name)
		},
	}
	svc := NewCollectionService(CollectionServiceConfig{Handles: provider{h: h}})

	err := svc.Create(context.Background(), "x")

	assert.ErrorIs(t, err, database.ErrCollectionExists)
	assert.NotErrorIs(t, err, ErrCollectionNotFound)
}

func TestCollectionService_Rename(t *testing.T) {
	t.Parallel()
	h := &mockHandle{
		renameCollectionFunc: func(ctx context.Context, from, to string) error {
			if from == "missing" {
				return database.ErrCollectionNotFound
			}
			return nil
		},
	}
	svc := NewCollectionService(CollectionServiceConfig{Handles: provider{h: h}})
	ctx := context.Background()

	assert.NoError(t, svc.Rename(ctx, "a", "b"))
	assert.ErrorIs(t, svc.Rename(ctx, "missing", "b"), ErrCollectionNotFound)
	assert.ErrorIs(t, svc.Rename(ctx, "a", ""), ErrCollectionNamesRequired)
	assert.ErrorIs(t, svc.Rename(ctx, "", "b"), ErrCollectionNamesRequired)
}

func TestCollectionService_Drop(t *testing.T) {
	t.Parallel()
	h := &mockHandle{
		dropCollectionFunc: func(ctx context.Context, name string) error {
			if name == "missing" {
				return fmt.Errorf("%w: %s", database.ErrCollectionNotFound, name)
			}
			return nil
		},
	}
	svc := NewCollectionService(CollectionServiceConfig{Handles: provider{h: h}})
	ctx := context.Background()

	assert.NoError(t, svc.Drop(ctx, "x"))
	err := svc.Drop(ctx, "missing")
	assert.ErrorIs(t, err, ErrCollectionNotFound)
	assert.ErrorIs(t, err, database.ErrCollectionNotFound)
}

// ============================================================================
// Validation Order Tests
// ============================================================================

func TestCollectionService_NotConnectedComesFirst(t *testing.T) {
	t.Parallel()
	svc := NewCollectionService(CollectionServiceConfig{Handles: disconnected})
	ctx := context.Background()

	_, err := svc.List(ctx)
	assert.ErrorIs(t, err, database.ErrNotConnected)
	// Missing fields are only reported once a handle exists.
	assert.ErrorIs(t, svc.Create(ctx, ""), database.ErrNotConnected)
	assert.ErrorIs(t, svc.Rename(ctx, "", ""), database.ErrNotConnected)
	assert.ErrorIs(t, svc.Drop(ctx, ""), database.ErrNotConnected)
}
