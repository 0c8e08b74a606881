package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aiplsaur/APIMongoDB/internal/database"
	"github.com/aiplsaur/APIMongoDB/internal/model"
	"github.com/aiplsaur/APIMongoDB/internal/query"
)

// DefaultMaxResults caps the documents a single executed query returns.
const DefaultMaxResults = 100

// SavedQueryRepository defines the interface for saved query storage
type SavedQueryRepository interface {
	Create(ctx context.Context, name, queryText, collection string) (*model.SavedQuery, error)
	List(ctx context.Context) ([]*model.SavedQuery, error)
	Delete(ctx context.Context, id string) error
}

// QueryService executes "db." commands and manages saved queries
type QueryService struct {
	handles    database.Provider
	saved      SavedQueryRepository
	maxResults int64
}

// QueryServiceConfig holds configuration for the query service
type QueryServiceConfig struct {
	Handles    database.Provider
	SavedRepo  SavedQueryRepository
	MaxResults int
}

// NewQueryService creates a new query service
func NewQueryService(cfg QueryServiceConfig) *QueryService {
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = DefaultMaxResults
	}
	return &QueryService{
		handles:    cfg.Handles,
		saved:      cfg.SavedRepo,
		maxResults: int64(cfg.MaxResults),
	}
}

// Execute parses and runs a command. Text without the "db." prefix is
// rejected before the store is touched. collection names the target when
// the command itself does not.
func (s *QueryService) Execute(ctx context.Context, text, collection string) (*model.QueryResult, error) {
	h, err := requireHandle(s.handles)
	if err != nil {
		return nil, err
	}
	if err := requireText(text, ErrQueryRequired); err != nil {
		return nil, err
	}
	if !strings.HasPrefix(strings.TrimSpace(text), query.Prefix) {
		return nil, ErrInvalidQueryFormat
	}

	cmd, err := query.ParseCommand(text, collection)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidQuery, err)
	}

	result, err := s.run(ctx, h, cmd)
	if err != nil {
		return nil, mapCollectionError(mapQueryError(err))
	}
	return result, nil
}

func (s *QueryService) run(ctx context.Context, h database.Handle, cmd *query.Command) (*model.QueryResult, error) {
	switch cmd.Method {
	case query.MethodGetCollectionNames:
		names, err := h.ListCollections(ctx)
		if err != nil {
			return nil, err
		}
		if names == nil {
			names = []string{}
		}
		return &model.QueryResult{Results: names}, nil

	case query.MethodStats:
		info, err := h.CollectionStats(ctx, cmd.Collection)
		if err != nil {
			return nil, err
		}
		return &model.QueryResult{Results: info}, nil

	case query.MethodCount, query.MethodCountDocuments:
		n, err := h.Count(ctx, cmd.Collection, cmd.Filter)
		if err != nil {
			return nil, err
		}
		return &model.QueryResult{Results: n}, nil

	case query.MethodFindOne:
		docs, err := s.find(ctx, h, cmd, 1)
		if err != nil {
			return nil, err
		}
		if len(docs) == 0 {
			return &model.QueryResult{Results: nil}, nil
		}
		return &model.QueryResult{Results: docs[0]}, nil

	case query.MethodFind:
		limit := s.maxResults
		if cmd.Limit > 0 && cmd.Limit <= s.maxResults {
			limit = cmd.Limit
		}
		// One extra row tells a capped result from an exact one.
		docs, err := s.find(ctx, h, cmd, limit+1)
		if err != nil {
			return nil, err
		}
		truncated := int64(len(docs)) > limit
		if truncated {
			docs = docs[:limit]
		}
		return &model.QueryResult{
			Results:   docs,
			Truncated: truncated && limit == s.maxResults,
		}, nil
	}
	return nil, fmt.Errorf("%w: %s", query.ErrUnsupportedMethod, cmd.Method)
}

func (s *QueryService) find(ctx context.Context, h database.Handle, cmd *query.Command, limit int64) ([]model.Document, error) {
	docs, err := h.Find(ctx, cmd.Collection, database.FindOptions{
		Filter: cmd.Filter,
		Sort:   cmd.Sort,
		Skip:   cmd.Skip,
		Limit:  limit,
	})
	if err != nil {
		return nil, err
	}
	out := make([]model.Document, len(docs))
	for i, d := range docs {
		out[i] = d.Project(cmd.Projection)
	}
	return out, nil
}

// Save stores a named query. Both timestamps are equal on creation.
func (s *QueryService) Save(ctx context.Context, name, text, collection string) (*model.SavedQuery, error) {
	if _, err := requireHandle(s.handles); err != nil {
		return nil, err
	}
	if requireText(name, ErrNameAndQueryRequired) != nil || requireText(text, ErrNameAndQueryRequired) != nil {
		return nil, ErrNameAndQueryRequired
	}
	return s.saved.Create(ctx, name, text, collection)
}

// ListSaved returns every saved query
func (s *QueryService) ListSaved(ctx context.Context) ([]*model.SavedQuery, error) {
	if _, err := requireHandle(s.handles); err != nil {
		return nil, err
	}
	out, err := s.saved.List(ctx)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []*model.SavedQuery{}
	}
	return out, nil
}

// DeleteSaved removes a saved query
func (s *QueryService) DeleteSaved(ctx context.Context, id string) error {
	if _, err := requireHandle(s.handles); err != nil {
		return err
	}
	if strings.TrimSpace(id) == "" {
		return ErrSavedQueryNotFound
	}
	err := s.saved.Delete(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return ErrSavedQueryNotFound
	}
	return err
}
