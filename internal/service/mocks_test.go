package service

import (
	"context"

	"github.com/aiplsaur/APIMongoDB/internal/database"
	"github.com/aiplsaur/APIMongoDB/internal/model"
	"github.com/aiplsaur/APIMongoDB/internal/query"
)

// ============================================================================
// Mock Handle
// ============================================================================

type mockHandle struct {
	parseIDFunc          func(raw string) (interface{}, error)
	listCollectionsFunc  func(ctx context.Context) ([]string, error)
	collectionStatsFunc  func(ctx context.Context, name string) (*model.CollectionInfo, error)
	createCollectionFunc func(ctx context.Context, name string) error
	renameCollectionFunc func(ctx context.Context, from, to string) error
	dropCollectionFunc   func(ctx context.Context, name string) error
	findFunc             func(ctx context.Context, collection string, opts database.FindOptions) ([]model.Document, error)
	countFunc            func(ctx context.Context, collection string, filter *query.Group) (int64, error)
	insertFunc           func(ctx context.Context, collection string, doc model.Document) (model.Document, error)
	updateFunc           func(ctx context.Context, collection string, id interface{}, set model.Document) (model.Document, error)
	deleteManyFunc       func(ctx context.Context, collection string, filter *query.Group) (int64, error)
}

func (m *mockHandle) Backend() database.Backend       { return database.BackendSQLite }
func (m *mockHandle) DatabaseName() string            { return "test" }
func (m *mockHandle) Ping(ctx context.Context) error  { return nil }
func (m *mockHandle) Close(ctx context.Context) error { return nil }

func (m *mockHandle) ParseID(raw string) (interface{}, error) {
	if m.parseIDFunc != nil {
		return m.parseIDFunc(raw)
	}
	return raw, nil
}

func (m *mockHandle) ListCollections(ctx context.Context) ([]string, error) {
	if m.listCollectionsFunc != nil {
		return m.listCollectionsFunc(ctx)
	}
	return nil, nil
}

func (m *mockHandle) CollectionStats(ctx context.Context, name string) (*model.CollectionInfo, error) {
	if m.collectionStatsFunc != nil {
		return m.collectionStatsFunc(ctx, name)
	}
	return &model.CollectionInfo{Name: name}, nil
}

func (m *mockHandle) CreateCollection(ctx context.Context, name string) error {
	if m.createCollectionFunc != nil {
		return m.createCollectionFunc(ctx, name)
	}
	return nil
}

func (m *mockHandle) RenameCollection(ctx context.Context, from, to string) error {
	if m.renameCollectionFunc != nil {
		return m.renameCollectionFunc(ctx, from, to)
	}
	return nil
}

func (m *mockHandle) DropCollection(ctx context.Context, name string) error {
	if m.dropCollectionFunc != nil {
		return m.dropCollectionFunc(ctx, name)
	}
	return nil
}

func (m *mockHandle) Find(ctx context.Context, collection string, opts database.FindOptions) ([]model.Document, error) {
	if m.findFunc != nil {
		return m.findFunc(ctx, collection, opts)
	}
	return nil, nil
}

func (m *mockHandle) Count(ctx context.Context, collection string, filter *query.Group) (int64, error) {
	if m.countFunc != nil {
		return m.countFunc(ctx, collection, filter)
	}
	return 0, nil
}

func (m *mockHandle) Insert(ctx context.Context, collection string, doc model.Document) (model.Document, error) {
	if m.insertFunc != nil {
		return m.insertFunc(ctx, collection, doc)
	}
	out := doc.Clone()
	if out.ID() == nil {
		out[model.IDField] = "generated"
	}
	return out, nil
}

func (m *mockHandle) Update(ctx context.Context, collection string, id interface{}, set model.Document) (model.Document, error) {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, collection, id, set)
	}
	out := set.Clone()
	out[model.IDField] = id
	return out, nil
}

func (m *mockHandle) DeleteMany(ctx context.Context, collection string, filter *query.Group) (int64, error) {
	if m.deleteManyFunc != nil {
		return m.deleteManyFunc(ctx, collection, filter)
	}
	return 0, nil
}

// provider serves a fixed handle, or ErrNotConnected when h is nil.
type provider struct {
	h database.Handle
}

func (p provider) Handle() (database.Handle, error) {
	if p.h == nil {
		return nil, database.ErrNotConnected
	}
	return p.h, nil
}

// disconnected has no handle.
var disconnected = provider{}

// ============================================================================
// Mock Saved Query Repository
// ============================================================================

type mockSavedRepo struct {
	createFunc func(ctx context.Context, name, queryText, collection string) (*model.SavedQuery, error)
	listFunc   func(ctx context.Context) ([]*model.SavedQuery, error)
	deleteFunc func(ctx context.Context, id string) error
}

func (m *mockSavedRepo) Create(ctx context.Context, name, queryText, collection string) (*model.SavedQuery, error) {
	if m.createFunc != nil {
		return m.createFunc(ctx, name, queryText, collection)
	}
	return &model.SavedQuery{ID: "q1", Name: name, Query: queryText, Collection: collection}, nil
}

func (m *mockSavedRepo) List(ctx context.Context) ([]*model.SavedQuery, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx)
	}
	return nil, nil
}

func (m *mockSavedRepo) Delete(ctx context.Context, id string) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, id)
	}
	return nil
}

// ============================================================================
// Mock Connection Manager
// ============================================================================

type mockManager struct {
	connectFunc func(ctx context.Context, uri string) error
	status      model.ConnectionStatus
	connected   []string
}

func (m *mockManager) Connect(ctx context.Context, uri string) error {
	m.connected = append(m.connected, uri)
	if m.connectFunc != nil {
		return m.connectFunc(ctx, uri)
	}
	return nil
}

func (m *mockManager) Status() model.ConnectionStatus {
	return m.status
}

type fixedPings struct {
	result *model.PingResult
}

func (f fixedPings) LastPing() *model.PingResult { return f.result }
