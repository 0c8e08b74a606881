package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/aiplsaur/APIMongoDB/internal/model"
	"github.com/aiplsaur/APIMongoDB/internal/query"

	_ "modernc.org/sqlite"
)

const sqliteMemory = ":memory:"

// SQLite implements Handle on an embedded SQLite database. Each collection
// is a table of (id, body) rows with the document stored as JSON.
type SQLite struct {
	db   *sql.DB
	name string
}

// NewSQLite wraps an open *sql.DB. name is reported as the database name.
func NewSQLite(db *sql.DB, name string) *SQLite {
	return &SQLite{db: db, name: name}
}

// OpenSQLite opens sqlite://<path> or sqlite://:memory:.
func OpenSQLite(ctx context.Context, uri string) (*SQLite, error) {
	path := strings.TrimPrefix(uri, "sqlite://")
	if path == "" {
		return nil, fmt.Errorf("%w: sqlite path is empty", ErrConnection)
	}

	dsn := path
	name := "memory"
	if path != sqliteMemory {
		dsn = path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
		name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open sqlite database: %v", ErrConnection, err)
	}
	// One connection: an in-memory database exists per connection, and a
	// single writer avoids SQLITE_BUSY on files.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: failed to ping sqlite database: %v", ErrConnection, err)
	}
	return NewSQLite(db, name), nil
}

// Backend implements Handle
func (s *SQLite) Backend() Backend { return BackendSQLite }

// DatabaseName implements Handle
func (s *SQLite) DatabaseName() string { return s.name }

// Ping implements Handle
func (s *SQLite) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrConnection, err)
	}
	return nil
}

// Close implements Handle
func (s *SQLite) Close(_ context.Context) error {
	return s.db.Close()
}

// ParseID implements Handle
func (s *SQLite) ParseID(raw string) (interface{}, error) {
	return parseStringID(raw)
}

func quoteSQLiteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func validateSQLiteName(name string) error {
	if err := ValidateCollectionName(name); err != nil {
		return err
	}
	if strings.HasPrefix(strings.ToLower(name), "sqlite_") {
		return fmt.Errorf("%w: %q uses the reserved sqlite_ prefix", ErrInvalidName, name)
	}
	return nil
}

type sqlQueryer interface {
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

func sqliteTableExists(ctx context.Context, q sqlQueryer, name string) (bool, error) {
	var one int
	err := q.QueryRowContext(ctx,
		`SELECT 1 FROM sqlite_master WHERE type = 'table' AND name = ?`, name,
	).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrQuery, err)
	}
	return true, nil
}

// ============================================================================
// Collections
// ============================================================================

// ListCollections implements Handle
func (s *SQLite) ListCollections(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite\_%' ESCAPE '\'`)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQuery, err)
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrQuery, err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQuery, err)
	}
	return names, nil
}

// CollectionStats implements Handle. Size is the byte length of the stored
// JSON; storage size is reported equal to it.
func (s *SQLite) CollectionStats(ctx context.Context, name string) (*model.CollectionInfo, error) {
	exists, err := sqliteTableExists(ctx, s.db, name)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrCollectionNotFound, name)
	}

	info := &model.CollectionInfo{Name: name, IndexDetails: map[string]int64{}}
	err = s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(LENGTH(body)), 0) FROM `+quoteSQLiteIdent(name),
	).Scan(&info.Count, &info.Size)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQuery, err)
	}
	if info.Count > 0 {
		info.AvgDocumentSize = float64(info.Size) / float64(info.Count)
	}
	info.StorageSize = info.Size

	rows, err := s.db.QueryContext(ctx, `SELECT name, origin FROM pragma_index_list(?)`, name)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQuery, err)
	}
	defer rows.Close()
	for rows.Next() {
		var ixName, origin string
		if err := rows.Scan(&ixName, &origin); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrQuery, err)
		}
		if origin == "pk" {
			ixName = "_id_"
		}
		info.IndexDetails[ixName] = 0
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQuery, err)
	}
	info.Indexes = len(info.IndexDetails)
	return info, nil
}

func createTableSQL(name string, ifNotExists bool) string {
	clause := "CREATE TABLE "
	if ifNotExists {
		clause += "IF NOT EXISTS "
	}
	return clause + quoteSQLiteIdent(name) + ` (id TEXT PRIMARY KEY, body TEXT NOT NULL)`
}

// CreateCollection implements Handle
func (s *SQLite) CreateCollection(ctx context.Context, name string) error {
	if err := validateSQLiteName(name); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, createTableSQL(name, false)); err != nil {
		if isUniqueConstraintError(err) {
			return fmt.Errorf("%w: %s", ErrCollectionExists, name)
		}
		return fmt.Errorf("%w: %v", ErrQuery, err)
	}
	return nil
}

// RenameCollection implements Handle
func (s *SQLite) RenameCollection(ctx context.Context, from, to string) error {
	if err := validateSQLiteName(to); err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrQuery, err)
	}
	defer func() { _ = tx.Rollback() }()

	exists, err := sqliteTableExists(ctx, tx, from)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: %s", ErrCollectionNotFound, from)
	}
	taken, err := sqliteTableExists(ctx, tx, to)
	if err != nil {
		return err
	}
	if taken {
		return fmt.Errorf("%w: %s", ErrCollectionExists, to)
	}

	if _, err := tx.ExecContext(ctx,
		`ALTER TABLE `+quoteSQLiteIdent(from)+` RENAME TO `+quoteSQLiteIdent(to)); err != nil {
		return fmt.Errorf("%w: %v", ErrQuery, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: %v", ErrQuery, err)
	}
	return nil
}

// DropCollection implements Handle
func (s *SQLite) DropCollection(ctx context.Context, name string) error {
	exists, err := sqliteTableExists(ctx, s.db, name)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: %s", ErrCollectionNotFound, name)
	}
	if _, err := s.db.ExecContext(ctx, `DROP TABLE `+quoteSQLiteIdent(name)); err != nil {
		return fmt.Errorf("%w: %v", ErrQuery, err)
	}
	return nil
}

// ============================================================================
// Documents
// ============================================================================

// Find implements Handle. A collection that does not exist yields no
// documents.
func (s *SQLite) Find(ctx context.Context, collection string, opts FindOptions) ([]model.Document, error) {
	exists, err := sqliteTableExists(ctx, s.db, collection)
	if err != nil || !exists {
		return []model.Document{}, err
	}

	where, args, err := sqliteWhere(opts.Filter)
	if err != nil {
		return nil, err
	}
	order, orderArgs, err := sqliteOrder(opts.Sort)
	if err != nil {
		return nil, err
	}

	var sb strings.Builder
	sb.WriteString(`SELECT id, body FROM ` + quoteSQLiteIdent(collection))
	if where != "" {
		sb.WriteString(" WHERE " + where)
	}
	sb.WriteString(order)
	args = append(args, orderArgs...)

	if opts.Limit > 0 || opts.Skip > 0 {
		limit := opts.Limit
		if limit <= 0 {
			limit = -1
		}
		sb.WriteString(" LIMIT ? OFFSET ?")
		args = append(args, limit, opts.Skip)
	}

	rows, err := s.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQuery, err)
	}
	defer rows.Close()

	docs := []model.Document{}
	for rows.Next() {
		var id, body string
		if err := rows.Scan(&id, &body); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrQuery, err)
		}
		doc, err := decodeSQLiteBody(id, body)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQuery, err)
	}
	return docs, nil
}

// Count implements Handle
func (s *SQLite) Count(ctx context.Context, collection string, filter *query.Group) (int64, error) {
	exists, err := sqliteTableExists(ctx, s.db, collection)
	if err != nil || !exists {
		return 0, err
	}
	where, args, err := sqliteWhere(filter)
	if err != nil {
		return 0, err
	}
	q := `SELECT COUNT(*) FROM ` + quoteSQLiteIdent(collection)
	if where != "" {
		q += " WHERE " + where
	}
	var n int64
	if err := s.db.QueryRowContext(ctx, q, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrQuery, err)
	}
	return n, nil
}

// Insert implements Handle. The collection is created on first insert.
func (s *SQLite) Insert(ctx context.Context, collection string, doc model.Document) (model.Document, error) {
	if err := validateSQLiteName(collection); err != nil {
		return nil, err
	}
	key, err := documentKey(doc)
	if err != nil {
		return nil, err
	}
	body, err := json.Marshal(doc.WithoutID())
	if err != nil {
		return nil, fmt.Errorf("%w: encode document: %v", ErrQuery, err)
	}

	if _, err := s.db.ExecContext(ctx, createTableSQL(collection, true)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQuery, err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO `+quoteSQLiteIdent(collection)+` (id, body) VALUES (?, ?)`, key, string(body))
	if err != nil {
		if isUniqueConstraintError(err) {
			return nil, fmt.Errorf("%w: %s", ErrDuplicate, key)
		}
		return nil, fmt.Errorf("%w: %v", ErrQuery, err)
	}
	return decodeSQLiteBody(key, string(body))
}

// Update implements Handle. Top-level fields of set replace those stored.
func (s *SQLite) Update(ctx context.Context, collection string, id interface{}, set model.Document) (model.Document, error) {
	key := fmt.Sprint(id)
	exists, err := sqliteTableExists(ctx, s.db, collection)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrNotFound
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQuery, err)
	}
	defer func() { _ = tx.Rollback() }()

	var body string
	err = tx.QueryRowContext(ctx,
		`SELECT body FROM `+quoteSQLiteIdent(collection)+` WHERE id = ?`, key).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQuery, err)
	}

	current, err := decodeSQLiteBody(key, body)
	if err != nil {
		return nil, err
	}
	merged := current.WithoutID()
	for k, v := range set {
		if k != model.IDField {
			merged[k] = v
		}
	}
	encoded, err := json.Marshal(merged)
	if err != nil {
		return nil, fmt.Errorf("%w: encode document: %v", ErrQuery, err)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE `+quoteSQLiteIdent(collection)+` SET body = ? WHERE id = ?`, string(encoded), key); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQuery, err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQuery, err)
	}
	return decodeSQLiteBody(key, string(encoded))
}

// DeleteMany implements Handle
func (s *SQLite) DeleteMany(ctx context.Context, collection string, filter *query.Group) (int64, error) {
	exists, err := sqliteTableExists(ctx, s.db, collection)
	if err != nil || !exists {
		return 0, err
	}
	where, args, err := sqliteWhere(filter)
	if err != nil {
		return 0, err
	}
	q := `DELETE FROM ` + quoteSQLiteIdent(collection)
	if where != "" {
		q += " WHERE " + where
	}
	res, err := s.db.ExecContext(ctx, q, args...)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrQuery, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrQuery, err)
	}
	return n, nil
}

func decodeSQLiteBody(id, body string) (model.Document, error) {
	dec := json.NewDecoder(strings.NewReader(body))
	dec.UseNumber()
	var raw map[string]interface{}
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: decode document %s: %v", ErrQuery, id, err)
	}
	doc := model.NormalizeDocument(raw)
	if doc == nil {
		doc = model.Document{}
	}
	doc[model.IDField] = id
	return doc, nil
}
