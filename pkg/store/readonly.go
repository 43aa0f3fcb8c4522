package store

import (
	"context"
)

// ReadOnlyStore wraps a Store and rejects write operations while read-only mode is on.
//
// The read-only state is determined dynamically by the isReadOnly function, so the
// application can toggle it at runtime without recreating the store. Reads (Find,
// FindOne) always pass through; InsertOne, UpdateOne and DeleteOne return ErrReadOnly.
type ReadOnlyStore struct {
	Store
	isReadOnly func() bool
}

// NewReadOnlyStore creates a new read-only wrapper for a store
func NewReadOnlyStore(store Store, isReadOnly func() bool) *ReadOnlyStore {
	return &ReadOnlyStore{
		Store:      store,
		isReadOnly: isReadOnly,
	}
}

// Unwrap returns the underlying store
func (r *ReadOnlyStore) Unwrap() Store {
	return r.Store
}

func (r *ReadOnlyStore) Collection(name string) Collection {
	return &readOnlyCollection{
		Collection: r.Store.Collection(name),
		isReadOnly: r.isReadOnly,
	}
}

type readOnlyCollection struct {
	Collection
	isReadOnly func() bool
}

// checkReadOnly returns an error if the store is in read-only mode
func (c *readOnlyCollection) checkReadOnly() error {
	if c.isReadOnly() {
		return ErrReadOnly
	}
	return nil
}

func (c *readOnlyCollection) InsertOne(ctx context.Context, fields map[string]any) (string, error) {
	if err := c.checkReadOnly(); err != nil {
		return "", err
	}
	return c.Collection.InsertOne(ctx, fields)
}

func (c *readOnlyCollection) UpdateOne(ctx context.Context, id string, fields map[string]any) (Document, error) {
	if err := c.checkReadOnly(); err != nil {
		return Document{}, err
	}
	return c.Collection.UpdateOne(ctx, id, fields)
}

func (c *readOnlyCollection) DeleteOne(ctx context.Context, id string) error {
	if err := c.checkReadOnly(); err != nil {
		return err
	}
	return c.Collection.DeleteOne(ctx, id)
}
