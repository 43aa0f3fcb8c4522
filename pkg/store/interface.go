// Package store provides the document persistence layer abstraction for surrealcrud.
//
// The [Store] interface lets the HTTP service work against several document databases
// while the resource views stay identical. A Store is a process-wide connection handle:
// it is opened once at startup, shared by every request, and closed on shutdown.
// Implementations must be safe for concurrent use.
//
// # Implementations
//
//   - [github.com/surrealdb/surrealcrud/pkg/store/surrealdb.Store]: SurrealDB through the Go SDK,
//     one table per collection, record keys as identifiers
//   - [github.com/surrealdb/surrealcrud/pkg/store/mongo.Store]: MongoDB, ObjectID identifiers
//   - [github.com/surrealdb/surrealcrud/pkg/store/postgres.Store]: PostgreSQL through GORM, documents
//     kept as JSONB rows in a single table
//   - [github.com/surrealdb/surrealcrud/pkg/store/memory.Store]: in-process maps for tests and local runs
//
// # Conditional mutations
//
// [Collection.UpdateOne] and [Collection.DeleteOne] are single conditional operations.
// They report a miss with [ErrNotFound] instead of requiring a separate existence check,
// so there is no window in which a concurrent delete can slip between the check and
// the mutation.
package store

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when no document matches the identifier.
	ErrNotFound = errors.New("document not found")

	// ErrInvalidID is returned when an identifier cannot be represented by the backend,
	// e.g. a string that is not a valid ObjectID for MongoDB.
	ErrInvalidID = errors.New("invalid document identifier")

	// ErrReadOnly is returned by write operations while the store is in read-only mode.
	ErrReadOnly = errors.New("operation denied: store is in read-only mode")
)

// Document is a raw record as held by a backend.
//
// ID is the backend's native identifier. Its String method renders the canonical
// external form (record key, ObjectID hex, UUID). Fields holds every other field
// of the record, unconverted.
type Document struct {
	ID     fmt.Stringer
	Fields map[string]any
}

// Store is a connection to a document database.
type Store interface {
	// Backend returns the backend name, e.g. "surrealdb".
	Backend() string

	// Database returns the name of the database the store operates on.
	Database() string

	// Collection returns a handle to the named collection. It does not touch the database.
	Collection(name string) Collection

	// Migrate prepares the given collections. It is safe to run repeatedly.
	Migrate(ctx context.Context, collections ...string) error

	// Ping verifies the database is reachable.
	Ping(ctx context.Context) error

	// Close releases the connection.
	Close(ctx context.Context) error
}

// Collection is a named group of documents of one resource type.
type Collection interface {
	Name() string

	// Find returns every document in the backend's natural order. Never nil on success.
	Find(ctx context.Context) ([]Document, error)

	// FindOne returns the document with the given identifier or ErrNotFound.
	FindOne(ctx context.Context, id string) (Document, error)

	// InsertOne stores a new document with exactly the given fields and returns the
	// canonical identifier the backend assigned to it.
	InsertOne(ctx context.Context, fields map[string]any) (string, error)

	// UpdateOne overwrites only the given fields of an existing document and returns the
	// document as stored afterwards, or ErrNotFound when nothing matched.
	UpdateOne(ctx context.Context, id string, fields map[string]any) (Document, error)

	// DeleteOne removes the document, or returns ErrNotFound when nothing matched.
	DeleteOne(ctx context.Context, id string) error
}
