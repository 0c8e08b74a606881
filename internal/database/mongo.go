package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/aiplsaur/APIMongoDB/internal/model"
	"github.com/aiplsaur/APIMongoDB/internal/query"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.mongodb.org/mongo-driver/x/mongo/driver/connstring"
)

// defaultMongoDatabase is used when the connection string names none.
const defaultMongoDatabase = "test"

// mongoNamespaceExists is the server error code for an existing namespace.
const mongoNamespaceExists = 48

// Mongo implements Handle for MongoDB.
type Mongo struct {
	client *mongo.Client
	db     *mongo.Database
}

// OpenMongo connects to the deployment in uri and selects the database named
// in its path, or "test".
func OpenMongo(ctx context.Context, uri string) (*Mongo, error) {
	cs, err := connstring.ParseAndValidate(uri)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnection, err)
	}
	name := cs.Database
	if name == "" {
		name = defaultMongoDatabase
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnection, err)
	}
	return &Mongo{client: client, db: client.Database(name)}, nil
}

// Backend implements Handle
func (m *Mongo) Backend() Backend { return BackendMongo }

// DatabaseName implements Handle
func (m *Mongo) DatabaseName() string { return m.db.Name() }

// Ping implements Handle
func (m *Mongo) Ping(ctx context.Context) error {
	if err := m.client.Ping(ctx, readpref.Primary()); err != nil {
		return fmt.Errorf("%w: %v", ErrConnection, err)
	}
	return nil
}

// Close implements Handle
func (m *Mongo) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

// ParseID implements Handle
func (m *Mongo) ParseID(raw string) (interface{}, error) {
	oid, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidID, raw)
	}
	return oid, nil
}

func (m *Mongo) collectionExists(ctx context.Context, name string) (bool, error) {
	names, err := m.db.ListCollectionNames(ctx, bson.D{{Key: "name", Value: name}})
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrQuery, err)
	}
	return len(names) > 0, nil
}

// ============================================================================
// Collections
// ============================================================================

// ListCollections implements Handle
func (m *Mongo) ListCollections(ctx context.Context) ([]string, error) {
	names, err := m.db.ListCollectionNames(ctx, bson.D{})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQuery, err)
	}
	return names, nil
}

// CollectionStats implements Handle
func (m *Mongo) CollectionStats(ctx context.Context, name string) (*model.CollectionInfo, error) {
	var stats bson.M
	err := m.db.RunCommand(ctx, bson.D{{Key: "collStats", Value: name}}).Decode(&stats)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQuery, err)
	}

	info := &model.CollectionInfo{
		Name:            name,
		Count:           toInt64(stats["count"]),
		Size:            toInt64(stats["size"]),
		AvgDocumentSize: toFloat64(stats["avgObjSize"]),
		StorageSize:     toInt64(stats["storageSize"]),
		Indexes:         int(toInt64(stats["nindexes"])),
		IndexDetails:    map[string]int64{},
	}
	if sizes, ok := stats["indexSizes"].(bson.M); ok {
		for ix, size := range sizes {
			info.IndexDetails[ix] = toInt64(size)
		}
	} else if sizes, ok := stats["indexSizes"].(bson.D); ok {
		for _, e := range sizes {
			info.IndexDetails[e.Key] = toInt64(e.Value)
		}
	}
	return info, nil
}

// CreateCollection implements Handle
func (m *Mongo) CreateCollection(ctx context.Context, name string) error {
	if err := ValidateCollectionName(name); err != nil {
		return err
	}
	if err := m.db.CreateCollection(ctx, name); err != nil {
		var cmdErr mongo.CommandError
		if errors.As(err, &cmdErr) && cmdErr.Code == mongoNamespaceExists {
			return fmt.Errorf("%w: %s", ErrCollectionExists, name)
		}
		return fmt.Errorf("%w: %v", ErrQuery, err)
	}
	return nil
}

// RenameCollection implements Handle
func (m *Mongo) RenameCollection(ctx context.Context, from, to string) error {
	if err := ValidateCollectionName(to); err != nil {
		return err
	}
	exists, err := m.collectionExists(ctx, from)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: %s", ErrCollectionNotFound, from)
	}
	taken, err := m.collectionExists(ctx, to)
	if err != nil {
		return err
	}
	if taken {
		return fmt.Errorf("%w: %s", ErrCollectionExists, to)
	}

	cmd := bson.D{
		{Key: "renameCollection", Value: m.db.Name() + "." + from},
		{Key: "to", Value: m.db.Name() + "." + to},
	}
	if err := m.client.Database("admin").RunCommand(ctx, cmd).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrQuery, err)
	}
	return nil
}

// DropCollection implements Handle
func (m *Mongo) DropCollection(ctx context.Context, name string) error {
	exists, err := m.collectionExists(ctx, name)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: %s", ErrCollectionNotFound, name)
	}
	if err := m.db.Collection(name).Drop(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrQuery, err)
	}
	return nil
}

// ============================================================================
// Documents
// ============================================================================

// Find implements Handle
func (m *Mongo) Find(ctx context.Context, collection string, opts FindOptions) ([]model.Document, error) {
	filter, err := mongoFilter(opts.Filter)
	if err != nil {
		return nil, err
	}

	findOpts := options.Find()
	if opts.Sort != nil {
		sort, err := mongoSort(opts.Sort)
		if err != nil {
			return nil, err
		}
		findOpts.SetSort(sort)
	}
	if opts.Skip > 0 {
		findOpts.SetSkip(opts.Skip)
	}
	if opts.Limit > 0 {
		findOpts.SetLimit(opts.Limit)
	}

	cursor, err := m.db.Collection(collection).Find(ctx, filter, findOpts)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQuery, err)
	}
	var raw []bson.M
	if err := cursor.All(ctx, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQuery, err)
	}

	docs := make([]model.Document, 0, len(raw))
	for _, r := range raw {
		docs = append(docs, mongoDocument(r))
	}
	return docs, nil
}

// Count implements Handle
func (m *Mongo) Count(ctx context.Context, collection string, filter *query.Group) (int64, error) {
	f, err := mongoFilter(filter)
	if err != nil {
		return 0, err
	}
	n, err := m.db.Collection(collection).CountDocuments(ctx, f)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrQuery, err)
	}
	return n, nil
}

// Insert implements Handle. A supplied _id is kept; hex strings are stored
// as ObjectIDs so the document is reachable by id.
func (m *Mongo) Insert(ctx context.Context, collection string, doc model.Document) (model.Document, error) {
	in := doc.Clone()
	if id, ok := in[model.IDField]; ok {
		in[model.IDField] = mongoIDValue(id)
	}

	res, err := m.db.Collection(collection).InsertOne(ctx, map[string]interface{}(in))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, fmt.Errorf("%w: %v", ErrDuplicate, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrQuery, err)
	}

	out := doc.Clone()
	out[model.IDField] = mongoValue(res.InsertedID)
	return out, nil
}

// Update implements Handle
func (m *Mongo) Update(ctx context.Context, collection string, id interface{}, set model.Document) (model.Document, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	update := bson.D{{Key: "$set", Value: map[string]interface{}(set.WithoutID())}}

	var updated bson.M
	err := m.db.Collection(collection).
		FindOneAndUpdate(ctx, bson.D{{Key: model.IDField, Value: id}}, update, opts).
		Decode(&updated)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQuery, err)
	}
	return mongoDocument(updated), nil
}

// DeleteMany implements Handle
func (m *Mongo) DeleteMany(ctx context.Context, collection string, filter *query.Group) (int64, error) {
	f, err := mongoFilter(filter)
	if err != nil {
		return 0, err
	}
	res, err := m.db.Collection(collection).DeleteMany(ctx, f)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrQuery, err)
	}
	return res.DeletedCount, nil
}
