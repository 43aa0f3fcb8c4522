// Package memory provides an in-process implementation of [store.Store].
//
// It keeps documents in maps guarded by a mutex and remembers insertion order, which
// is the natural iteration order reported by Find. Identifiers are random UUIDs.
// Nothing is persisted; the store is meant for tests and local runs.
package memory

import (
	"context"
	"fmt"
	"maps"
	"sync"

	"github.com/google/uuid"

	"github.com/surrealdb/surrealcrud/pkg/store"
)

// key is the native identifier of a memory document.
type key string

func (k key) String() string { return string(k) }

// Store is a thread-safe, in-memory document store.
type Store struct {
	mu          sync.RWMutex
	database    string
	collections map[string]*collectionData
	closed      bool
}

type collectionData struct {
	docs  map[string]map[string]any
	order []string // insertion order for deterministic listing
}

// New creates an empty store for the named database.
func New(database string) *Store {
	return &Store{
		database:    database,
		collections: make(map[string]*collectionData),
	}
}

func (s *Store) Backend() string  { return "memory" }
func (s *Store) Database() string { return s.database }

func (s *Store) Collection(name string) store.Collection {
	return &collection{store: s, name: name}
}

// Migrate is a no-op: collections come into existence on first insert.
func (s *Store) Migrate(ctx context.Context, collections ...string) error {
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return fmt.Errorf("memory store %q is closed", s.database)
	}
	return nil
}

func (s *Store) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// data returns the named collection, creating it when create is set.
// Callers must hold s.mu.
func (s *Store) data(name string, create bool) *collectionData {
	c, ok := s.collections[name]
	if !ok && create {
		c = &collectionData{docs: make(map[string]map[string]any)}
		s.collections[name] = c
	}
	return c
}

type collection struct {
	store *Store
	name  string
}

func (c *collection) Name() string { return c.name }

func (c *collection) Find(ctx context.Context) ([]store.Document, error) {
	c.store.mu.RLock()
	defer c.store.mu.RUnlock()

	docs := make([]store.Document, 0)
	data := c.store.data(c.name, false)
	if data == nil {
		return docs, nil
	}
	for _, id := range data.order {
		docs = append(docs, document(id, data.docs[id]))
	}
	return docs, nil
}

func (c *collection) FindOne(ctx context.Context, id string) (store.Document, error) {
	c.store.mu.RLock()
	defer c.store.mu.RUnlock()

	data := c.store.data(c.name, false)
	if data == nil {
		return store.Document{}, store.ErrNotFound
	}
	fields, ok := data.docs[id]
	if !ok {
		return store.Document{}, store.ErrNotFound
	}
	return document(id, fields), nil
}

func (c *collection) InsertOne(ctx context.Context, fields map[string]any) (string, error) {
	c.store.mu.Lock()
	defer c.store.mu.Unlock()

	data := c.store.data(c.name, true)
	id := uuid.NewString()
	data.docs[id] = maps.Clone(fields)
	data.order = append(data.order, id)
	return id, nil
}

func (c *collection) UpdateOne(ctx context.Context, id string, fields map[string]any) (store.Document, error) {
	c.store.mu.Lock()
	defer c.store.mu.Unlock()

	data := c.store.data(c.name, false)
	if data == nil {
		return store.Document{}, store.ErrNotFound
	}
	current, ok := data.docs[id]
	if !ok {
		return store.Document{}, store.ErrNotFound
	}
	maps.Copy(current, fields)
	return document(id, current), nil
}

func (c *collection) DeleteOne(ctx context.Context, id string) error {
	c.store.mu.Lock()
	defer c.store.mu.Unlock()

	data := c.store.data(c.name, false)
	if data == nil {
		return store.ErrNotFound
	}
	if _, ok := data.docs[id]; !ok {
		return store.ErrNotFound
	}
	delete(data.docs, id)
	for i, oid := range data.order {
		if oid == id {
			data.order = append(data.order[:i], data.order[i+1:]...)
			break
		}
	}
	return nil
}

// document copies the stored fields so callers never alias the store's maps.
func document(id string, fields map[string]any) store.Document {
	return store.Document{ID: key(id), Fields: maps.Clone(fields)}
}
