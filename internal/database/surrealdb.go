package database

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/aiplsaur/APIMongoDB/internal/model"
	"github.com/aiplsaur/APIMongoDB/internal/query"
	"github.com/google/uuid"
	"github.com/surrealdb/surrealdb.go"
)

// surrealRecordField is the record id field SurrealDB keeps on every row.
const surrealRecordField = "id"

// SurrealDB implements Handle for SurrealDB. Collections are tables and the
// document identity is the key of the record id. Close may run concurrently
// with requests; operations after Close fail with ErrConnection.
type SurrealDB struct {
	db     atomic.Pointer[surrealdb.DB]
	config Config
}

// NewSurrealDB creates a new SurrealDB instance
func NewSurrealDB(cfg Config) *SurrealDB {
	return &SurrealDB{
		config: cfg,
	}
}

// Connect establishes a connection to SurrealDB
func (s *SurrealDB) Connect(ctx context.Context) error {
	scheme := s.config.Scheme
	if scheme == "" {
		scheme = "ws"
	}
	endpoint := fmt.Sprintf("%s://%s:%s", scheme, s.config.Host, s.config.Port)

	db, err := surrealdb.FromEndpointURLString(ctx, endpoint)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrConnection, err)
	}

	if s.config.User != "" {
		_, err = db.SignIn(ctx, &surrealdb.Auth{
			Username: s.config.User,
			Password: s.config.Password,
		})
		if err != nil {
			_ = db.Close(ctx)
			return fmt.Errorf("%w: signin failed: %v", ErrConnection, err)
		}
	}

	if err := db.Use(ctx, s.config.Namespace, s.config.Database); err != nil {
		_ = db.Close(ctx)
		return fmt.Errorf("%w: use failed: %v", ErrConnection, err)
	}

	s.db.Store(db)
	return nil
}

// Backend implements Handle
func (s *SurrealDB) Backend() Backend { return BackendSurreal }

// DatabaseName implements Handle
func (s *SurrealDB) DatabaseName() string { return s.config.Database }

// Close closes the database connection
func (s *SurrealDB) Close(ctx context.Context) error {
	db := s.db.Swap(nil)
	if db == nil {
		return nil
	}
	return db.Close(ctx)
}

// Ping checks the database connection
func (s *SurrealDB) Ping(ctx context.Context) error {
	db := s.db.Load()
	if db == nil {
		return ErrConnection
	}
	if _, err := db.Version(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrConnection, err)
	}
	return nil
}

// ParseID implements Handle
func (s *SurrealDB) ParseID(raw string) (interface{}, error) {
	return parseStringID(raw)
}

// Query executes a query and returns one {status, result} entry per statement
func (s *SurrealDB) Query(ctx context.Context, query string, vars map[string]interface{}) ([]interface{}, error) {
	db := s.db.Load()
	if db == nil {
		return nil, ErrConnection
	}

	results, err := surrealdb.Query[interface{}](ctx, db, query, vars)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQuery, err)
	}
	if results == nil {
		return nil, nil
	}

	output := make([]interface{}, 0, len(*results))
	for _, r := range *results {
		if r.Status != "OK" {
			if r.Error != nil {
				return nil, fmt.Errorf("%w: %s", ErrQuery, r.Error.Message)
			}
			return nil, ErrQuery
		}
		output = append(output, map[string]interface{}{
			"status": r.Status,
			"result": r.Result,
		})
	}

	return output, nil
}

// rows runs a single-statement query and returns its result rows
func (s *SurrealDB) rows(ctx context.Context, q string, vars map[string]interface{}) ([]interface{}, error) {
	results, err := s.Query(ctx, q, vars)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}
	resp, _ := results[len(results)-1].(map[string]interface{})
	switch data := resp["result"].(type) {
	case []interface{}:
		return data, nil
	case nil:
		return nil, nil
	default:
		return []interface{}{data}, nil
	}
}

// ============================================================================
// Collections
// ============================================================================

// ListCollections implements Handle
func (s *SurrealDB) ListCollections(ctx context.Context) ([]string, error) {
	rows, err := s.rows(ctx, "INFO FOR DB", nil)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return []string{}, nil
	}
	info, _ := rows[0].(map[string]interface{})
	tables, ok := info["tables"].(map[string]interface{})
	if !ok {
		tables, _ = info["tb"].(map[string]interface{})
	}

	names := make([]string, 0, len(tables))
	for name := range tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (s *SurrealDB) tableExists(ctx context.Context, name string) (bool, error) {
	names, err := s.ListCollections(ctx)
	if err != nil {
		return false, err
	}
	for _, n := range names {
		if n == name {
			return true, nil
		}
	}
	return false, nil
}

// CollectionStats implements Handle. SurrealDB does not report storage
// sizes; they are returned as zero.
func (s *SurrealDB) CollectionStats(ctx context.Context, name string) (*model.CollectionInfo, error) {
	count, err := s.Count(ctx, name, nil)
	if err != nil {
		return nil, err
	}

	info := &model.CollectionInfo{
		Name:         name,
		Count:        count,
		IndexDetails: map[string]int64{},
	}

	rows, err := s.rows(ctx, "INFO FOR TABLE "+quoteSurrealIdent(name), nil)
	if err != nil {
		return nil, err
	}
	if len(rows) > 0 {
		tbInfo, _ := rows[0].(map[string]interface{})
		indexes, ok := tbInfo["indexes"].(map[string]interface{})
		if !ok {
			indexes, _ = tbInfo["ix"].(map[string]interface{})
		}
		for ix := range indexes {
			info.IndexDetails[ix] = 0
		}
		info.Indexes = len(indexes)
	}
	return info, nil
}

// CreateCollection implements Handle
func (s *SurrealDB) CreateCollection(ctx context.Context, name string) error {
	if err := ValidateCollectionName(name); err != nil {
		return err
	}
	exists, err := s.tableExists(ctx, name)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("%w: %s", ErrCollectionExists, name)
	}
	_, err = s.Query(ctx, "DEFINE TABLE "+quoteSurrealIdent(name)+" SCHEMALESS", nil)
	return err
}

// RenameCollection copies every record into the new table and removes the
// old one in a single transaction.
func (s *SurrealDB) RenameCollection(ctx context.Context, from, to string) error {
	if err := ValidateCollectionName(to); err != nil {
		return err
	}
	names, err := s.ListCollections(ctx)
	if err != nil {
		return err
	}
	var hasFrom, hasTo bool
	for _, n := range names {
		hasFrom = hasFrom || n == from
		hasTo = hasTo || n == to
	}
	if !hasFrom {
		return fmt.Errorf("%w: %s", ErrCollectionNotFound, from)
	}
	if hasTo {
		return fmt.Errorf("%w: %s", ErrCollectionExists, to)
	}

	rows, err := s.rows(ctx, "SELECT * FROM type::table($tb)", map[string]interface{}{"tb": from})
	if err != nil {
		return err
	}

	batch := NewAtomicBatch()
	batch.AddRaw("DEFINE TABLE " + quoteSurrealIdent(to) + " SCHEMALESS")
	for _, row := range rows {
		rec, ok := row.(map[string]interface{})
		if !ok {
			continue
		}
		body := make(map[string]interface{}, len(rec))
		for k, v := range rec {
			if k != surrealRecordField {
				body[k] = v
			}
		}
		batch.Add("CREATE type::thing($tb, $key) CONTENT $body", map[string]interface{}{
			"tb":   to,
			"key":  extractRecordKey(rec[surrealRecordField]),
			"body": body,
		})
	}
	batch.AddRaw("REMOVE TABLE " + quoteSurrealIdent(from))
	return batch.Execute(ctx, s)
}

// DropCollection implements Handle
func (s *SurrealDB) DropCollection(ctx context.Context, name string) error {
	exists, err := s.tableExists(ctx, name)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: %s", ErrCollectionNotFound, name)
	}
	_, err = s.Query(ctx, "REMOVE TABLE "+quoteSurrealIdent(name), nil)
	return err
}

// ============================================================================
// Documents
// ============================================================================

// Find implements Handle
func (s *SurrealDB) Find(ctx context.Context, collection string, opts FindOptions) ([]model.Document, error) {
	vars := map[string]interface{}{"tb": collection}
	where, err := surrealWhere(opts.Filter, vars)
	if err != nil {
		return nil, err
	}

	var sb strings.Builder
	sb.WriteString("SELECT * FROM type::table($tb)")
	if where != "" {
		sb.WriteString(" WHERE " + where)
	}
	if opts.Sort != nil {
		if !query.ValidField(opts.Sort.Field) {
			return nil, fmt.Errorf("%w: field %q", query.ErrInvalidSort, opts.Sort.Field)
		}
		sb.WriteString(surrealOrder(opts.Sort))
	}
	if opts.Limit > 0 {
		sb.WriteString(" LIMIT $limit")
		vars["limit"] = opts.Limit
	}
	if opts.Skip > 0 {
		sb.WriteString(" START $start")
		vars["start"] = opts.Skip
	}

	rows, err := s.rows(ctx, sb.String(), vars)
	if err != nil {
		return nil, err
	}
	docs := make([]model.Document, 0, len(rows))
	for _, row := range rows {
		if doc := surrealDocument(row); doc != nil {
			docs = append(docs, doc)
		}
	}
	return docs, nil
}

// Count implements Handle
func (s *SurrealDB) Count(ctx context.Context, collection string, filter *query.Group) (int64, error) {
	vars := map[string]interface{}{"tb": collection}
	where, err := surrealWhere(filter, vars)
	if err != nil {
		return 0, err
	}
	q := "SELECT count() FROM type::table($tb)"
	if where != "" {
		q += " WHERE " + where
	}
	q += " GROUP ALL"

	rows, err := s.rows(ctx, q, vars)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}
	row, _ := rows[0].(map[string]interface{})
	return toInt64(row["count"]), nil
}

// Insert implements Handle. The identity is taken from _id when supplied,
// otherwise a UUID is generated.
func (s *SurrealDB) Insert(ctx context.Context, collection string, doc model.Document) (model.Document, error) {
	if _, ok := doc[surrealRecordField]; ok {
		return nil, fmt.Errorf("%w: %q is the SurrealDB record id", ErrReservedField, surrealRecordField)
	}
	key, err := documentKey(doc)
	if err != nil {
		return nil, err
	}

	rows, err := s.rows(ctx, "CREATE type::thing($tb, $key) CONTENT $body", map[string]interface{}{
		"tb":   collection,
		"key":  key,
		"body": map[string]interface{}(doc.WithoutID()),
	})
	if err != nil {
		if isUniqueConstraintError(err) {
			return nil, fmt.Errorf("%w: %s", ErrDuplicate, key)
		}
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: create returned no record", ErrQuery)
	}
	return surrealDocument(rows[0]), nil
}

// Update implements Handle
func (s *SurrealDB) Update(ctx context.Context, collection string, id interface{}, set model.Document) (model.Document, error) {
	if _, ok := set[surrealRecordField]; ok {
		return nil, fmt.Errorf("%w: %q is the SurrealDB record id", ErrReservedField, surrealRecordField)
	}
	vars := map[string]interface{}{"tb": collection, "key": fmt.Sprint(id)}

	existing, err := s.rows(ctx, "SELECT * FROM type::thing($tb, $key)", vars)
	if err != nil {
		return nil, err
	}
	if len(existing) == 0 {
		return nil, ErrNotFound
	}

	vars["body"] = map[string]interface{}(set)
	rows, err := s.rows(ctx, "UPDATE type::thing($tb, $key) MERGE $body", vars)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	return surrealDocument(rows[0]), nil
}

// DeleteMany implements Handle
func (s *SurrealDB) DeleteMany(ctx context.Context, collection string, filter *query.Group) (int64, error) {
	vars := map[string]interface{}{"tb": collection}
	where, err := surrealWhere(filter, vars)
	if err != nil {
		return 0, err
	}
	q := "DELETE FROM type::table($tb)"
	if where != "" {
		q += " WHERE " + where
	}
	q += " RETURN BEFORE"

	rows, err := s.rows(ctx, q, vars)
	if err != nil {
		return 0, err
	}
	return int64(len(rows)), nil
}

// surrealDocument converts a record into a document with _id set to the
// record key.
func surrealDocument(row interface{}) model.Document {
	rec, ok := row.(map[string]interface{})
	if !ok {
		return nil
	}
	doc := make(model.Document, len(rec))
	for k, v := range rec {
		if k == surrealRecordField {
			doc[model.IDField] = extractRecordKey(v)
			continue
		}
		doc[k] = normalizeSurrealValue(v)
	}
	return doc
}

// documentKey returns the string identity for a new document.
func documentKey(doc model.Document) (string, error) {
	raw, ok := doc[model.IDField]
	if !ok || raw == nil {
		return uuid.NewString(), nil
	}
	switch v := raw.(type) {
	case string:
		return parseStringID(v)
	case int64, float64:
		return parseStringID(fmt.Sprint(v))
	default:
		return "", fmt.Errorf("%w: %v", ErrInvalidID, raw)
	}
}

func quoteSurrealIdent(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "") + "`"
}
