// Package mongo provides the MongoDB implementation of [store.Store].
//
// Documents keep their fields at the top level and are identified by the `_id`
// ObjectID MongoDB assigns on insert; the canonical external identifier is its
// 24-character hex form. Strings that are not valid hex ObjectIDs are reported as
// [store.ErrInvalidID].
package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/surrealdb/surrealcrud/pkg/store"
)

// Store implements store.Store on a MongoDB database.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

// Open connects to the server at uri and selects the named database.
func Open(ctx context.Context, uri, database string) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	return &Store{
		client: client,
		db:     client.Database(database),
	}, nil
}

func (s *Store) Backend() string  { return "mongo" }
func (s *Store) Database() string { return s.db.Name() }

func (s *Store) Collection(name string) store.Collection {
	return &collection{coll: s.db.Collection(name)}
}

// Migrate creates the collections that do not exist yet.
func (s *Store) Migrate(ctx context.Context, collections ...string) error {
	existing, err := s.db.ListCollectionNames(ctx, bson.D{})
	if err != nil {
		return fmt.Errorf("failed to list collections: %w", err)
	}
	have := make(map[string]bool, len(existing))
	for _, name := range existing {
		have[name] = true
	}
	for _, name := range collections {
		if have[name] {
			continue
		}
		if err := s.db.CreateCollection(ctx, name); err != nil {
			return fmt.Errorf("failed to create collection %s: %w", name, err)
		}
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// objectKey renders an ObjectID as plain hex; ObjectID.String wraps it in ObjectID("...").
type objectKey primitive.ObjectID

func (k objectKey) String() string {
	return primitive.ObjectID(k).Hex()
}

type collection struct {
	coll *mongo.Collection
}

func (c *collection) Name() string { return c.coll.Name() }

func parseID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: %q", store.ErrInvalidID, id)
	}
	return oid, nil
}

func (c *collection) Find(ctx context.Context) ([]store.Document, error) {
	cursor, err := c.coll.Find(ctx, bson.D{})
	if err != nil {
		return nil, fmt.Errorf("failed to find in %s: %w", c.Name(), err)
	}
	var raw []bson.M
	if err := cursor.All(ctx, &raw); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", c.Name(), err)
	}

	docs := make([]store.Document, 0, len(raw))
	for _, m := range raw {
		doc, err := c.document(m)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func (c *collection) FindOne(ctx context.Context, id string) (store.Document, error) {
	oid, err := parseID(id)
	if err != nil {
		return store.Document{}, err
	}
	var m bson.M
	if err := c.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&m); err != nil {
		return store.Document{}, c.wrap(err, "find", id)
	}
	return c.document(m)
}

func (c *collection) InsertOne(ctx context.Context, fields map[string]any) (string, error) {
	res, err := c.coll.InsertOne(ctx, bson.M(fields))
	if err != nil {
		return "", fmt.Errorf("failed to insert into %s: %w", c.Name(), err)
	}
	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return "", fmt.Errorf("unexpected inserted id %v (%T) in %s", res.InsertedID, res.InsertedID, c.Name())
	}
	return oid.Hex(), nil
}

func (c *collection) UpdateOne(ctx context.Context, id string, fields map[string]any) (store.Document, error) {
	// MongoDB rejects an empty $set, and an empty partial update changes nothing.
	if len(fields) == 0 {
		return c.FindOne(ctx, id)
	}
	oid, err := parseID(id)
	if err != nil {
		return store.Document{}, err
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var m bson.M
	err = c.coll.FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$set": fields}, opts).Decode(&m)
	if err != nil {
		return store.Document{}, c.wrap(err, "update", id)
	}
	return c.document(m)
}

func (c *collection) DeleteOne(ctx context.Context, id string) error {
	oid, err := parseID(id)
	if err != nil {
		return err
	}
	res, err := c.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return c.wrap(err, "delete", id)
	}
	if res.DeletedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (c *collection) wrap(err error, op, id string) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return store.ErrNotFound
	}
	return fmt.Errorf("failed to %s %s(%s): %w", op, c.Name(), id, err)
}

func (c *collection) document(m bson.M) (store.Document, error) {
	oid, ok := m["_id"].(primitive.ObjectID)
	if !ok {
		return store.Document{}, fmt.Errorf("unexpected _id %v (%T) in %s", m["_id"], m["_id"], c.Name())
	}
	fields := make(map[string]any, len(m))
	for k, v := range m {
		if k != "_id" {
			fields[k] = v
		}
	}
	return store.Document{ID: objectKey(oid), Fields: fields}, nil
}
