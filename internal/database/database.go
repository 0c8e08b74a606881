package database

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/aiplsaur/APIMongoDB/internal/model"
	"github.com/aiplsaur/APIMongoDB/internal/query"
)

// Standard errors for database operations.
// Use errors.Is() to check these error types in calling code.
var (
	// ErrNotFound indicates the requested document does not exist.
	ErrNotFound = errors.New("document not found")

	// ErrDuplicate indicates a document with the same identity already exists.
	ErrDuplicate = errors.New("duplicate document")

	// ErrConnection indicates a failure to connect to or communicate with the database.
	ErrConnection = errors.New("database connection error")

	// ErrQuery indicates a query execution failure.
	ErrQuery = errors.New("query error")

	// ErrNotConnected is returned when no handle is open.
	ErrNotConnected = errors.New("Not connected to database")

	ErrCollectionNotFound = errors.New("collection not found")
	ErrCollectionExists   = errors.New("collection already exists")

	// ErrInvalidID indicates an identity value the backend cannot parse.
	ErrInvalidID = errors.New("invalid document id")

	// ErrInvalidName indicates a collection name the backend cannot store.
	ErrInvalidName = errors.New("invalid collection name")

	// ErrUnsupportedScheme indicates a connection string no backend accepts.
	ErrUnsupportedScheme = errors.New("unsupported connection string")

	// ErrReservedField indicates a document field the backend keeps for itself.
	ErrReservedField = errors.New("reserved field")
)

// Backend names a store implementation.
type Backend string

const (
	BackendMongo   Backend = "mongodb"
	BackendSurreal Backend = "surrealdb"
	BackendSQLite  Backend = "sqlite"
)

// FindOptions selects and orders documents. A zero Limit means no limit.
type FindOptions struct {
	Filter *query.Group
	Sort   *query.Sort
	Skip   int64
	Limit  int64
}

// Handle is an open session on one database. Every store operation of the
// API goes through it.
type Handle interface {
	Backend() Backend
	DatabaseName() string
	Ping(ctx context.Context) error
	Close(ctx context.Context) error

	// ParseID converts the textual form of an identity into the backend's
	// native value. Malformed input returns ErrInvalidID.
	ParseID(raw string) (interface{}, error)

	// Collections
	ListCollections(ctx context.Context) ([]string, error)
	CollectionStats(ctx context.Context, name string) (*model.CollectionInfo, error)
	CreateCollection(ctx context.Context, name string) error
	RenameCollection(ctx context.Context, from, to string) error
	DropCollection(ctx context.Context, name string) error

	// Documents
	Find(ctx context.Context, collection string, opts FindOptions) ([]model.Document, error)
	Count(ctx context.Context, collection string, filter *query.Group) (int64, error)
	Insert(ctx context.Context, collection string, doc model.Document) (model.Document, error)
	// Update sets the given fields on the document with the given identity
	// and returns the updated document, or ErrNotFound.
	Update(ctx context.Context, collection string, id interface{}, set model.Document) (model.Document, error)
	DeleteMany(ctx context.Context, collection string, filter *query.Group) (int64, error)
}

// Config holds SurrealDB connection settings
type Config struct {
	Scheme    string
	Host      string
	Port      string
	User      string
	Password  string
	Namespace string
	Database  string
}

const maxCollectionName = 120

// ValidateCollectionName applies the naming rules shared by every backend:
// non-empty, bounded, no "$", no NUL, no "system." prefix.
func ValidateCollectionName(name string) error {
	switch {
	case strings.TrimSpace(name) == "":
		return fmt.Errorf("%w: name is empty", ErrInvalidName)
	case len(name) > maxCollectionName:
		return fmt.Errorf("%w: name exceeds %d characters", ErrInvalidName, maxCollectionName)
	case strings.ContainsAny(name, "$\x00`\""):
		return fmt.Errorf("%w: %q contains a forbidden character", ErrInvalidName, name)
	case strings.HasPrefix(name, "system."):
		return fmt.Errorf("%w: %q uses the reserved system prefix", ErrInvalidName, name)
	}
	return nil
}

var stringIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,128}$`)

// parseStringID validates identities of the backends that use string keys.
func parseStringID(raw string) (string, error) {
	if !stringIDPattern.MatchString(raw) {
		return "", fmt.Errorf("%w: %q", ErrInvalidID, raw)
	}
	return raw, nil
}

// Provider hands out the live handle. *Manager implements it.
type Provider interface {
	Handle() (Handle, error)
}
