// Package surrealdb provides the SurrealDB implementation of [store.Store].
//
// Every collection maps to a table of the same name inside the configured namespace and
// database. Records are stored schemaless, exactly as the views hand them over, and the
// record key (the part after the colon in `user:xyz`) is the canonical external identifier.
//
// # Connection
//
// WebSocket URLs (ws, wss) are dialled through the SDK's gorillaws connection with the
// surrealcbor codec, which round-trips RecordIDs and numbers without loss. HTTP URLs use
// the SDK's endpoint constructor.
//
// # Queries
//
// All statements are parameterized; user input never reaches the query text. Updates and
// deletes are a single statement each, and a miss is detected from the empty result set:
//
//	UPDATE $rid MERGE $data RETURN AFTER
//	DELETE $rid RETURN BEFORE
package surrealdb

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/surrealdb/surrealdb.go"
	"github.com/surrealdb/surrealdb.go/pkg/connection"
	"github.com/surrealdb/surrealdb.go/pkg/connection/gorillaws"
	"github.com/surrealdb/surrealdb.go/pkg/models"
	"github.com/surrealdb/surrealdb.go/surrealcbor"

	"github.com/surrealdb/surrealcrud/pkg/store"
)

// Config holds the SurrealDB connection settings.
type Config struct {
	URL       string
	Namespace string
	Database  string
	Username  string
	Password  string
}

// Store implements store.Store on top of a SurrealDB connection.
type Store struct {
	db       *surrealdb.DB
	ns       string
	database string
}

// Open connects, signs in when credentials are given, and selects the namespace and database.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	db, err := connect(ctx, cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to SurrealDB: %w", err)
	}

	if cfg.Username != "" && cfg.Password != "" {
		token, err := db.SignIn(ctx, &surrealdb.Auth{
			Username: cfg.Username,
			Password: cfg.Password,
		})
		if err != nil {
			_ = db.Close(ctx)
			return nil, fmt.Errorf("failed to sign in: %w", err)
		}
		if err := db.Authenticate(ctx, token); err != nil {
			_ = db.Close(ctx)
			return nil, fmt.Errorf("failed to authenticate: %w", err)
		}
	}

	if err := db.Use(ctx, cfg.Namespace, cfg.Database); err != nil {
		_ = db.Close(ctx)
		return nil, fmt.Errorf("failed to use namespace/database: %w", err)
	}

	return &Store{
		db:       db,
		ns:       cfg.Namespace,
		database: cfg.Database,
	}, nil
}

func connect(ctx context.Context, rawURL string) (*surrealdb.DB, error) {
	u, err := url.ParseRequestURI(rawURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}

	switch u.Scheme {
	case "ws", "wss":
		conf := connection.NewConfig(u)
		codec := surrealcbor.New()
		conf.Marshaler = codec
		conf.Unmarshaler = codec
		return surrealdb.FromConnection(ctx, gorillaws.New(conf))
	case "http", "https":
		return surrealdb.FromEndpointURLString(ctx, rawURL)
	default:
		return nil, fmt.Errorf("invalid connection URL scheme: %s", u.Scheme)
	}
}

func (s *Store) Backend() string  { return "surrealdb" }
func (s *Store) Database() string { return s.database }

func (s *Store) Collection(name string) store.Collection {
	return &collection{db: s.db, table: name}
}

// Migrate defines the tables as schemaless. SurrealDB would also create them
// implicitly on first insert, but an explicit definition makes List on a fresh
// database return an empty set instead of an error on strict servers.
func (s *Store) Migrate(ctx context.Context, collections ...string) error {
	for _, name := range collections {
		if !validTableName(name) {
			return fmt.Errorf("invalid table name %q", name)
		}
		// Table names cannot be bound as parameters in DEFINE statements.
		query := "DEFINE TABLE IF NOT EXISTS " + name + " SCHEMALESS"
		if _, err := surrealdb.Query[any](ctx, s.db, query, nil); err != nil {
			return fmt.Errorf("failed to define table %s: %w", name, err)
		}
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	if _, err := surrealdb.Query[bool](ctx, s.db, "RETURN true", nil); err != nil {
		return fmt.Errorf("failed to ping SurrealDB: %w", err)
	}
	return nil
}

func (s *Store) Close(ctx context.Context) error {
	return s.db.Close(ctx)
}

func validTableName(name string) bool {
	if name == "" {
		return false
	}
	for _, r := range name {
		if !(r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			return false
		}
	}
	return true
}

// recordKey renders a RecordID by its key alone.
type recordKey struct {
	id models.RecordID
}

func (k recordKey) String() string {
	return fmt.Sprint(k.id.ID)
}

type collection struct {
	db    *surrealdb.DB
	table string
}

func (c *collection) Name() string { return c.table }

func (c *collection) recordID(id string) (models.RecordID, error) {
	if id == "" {
		return models.RecordID{}, store.ErrInvalidID
	}
	return models.NewRecordID(c.table, id), nil
}

func (c *collection) Find(ctx context.Context) ([]store.Document, error) {
	result, err := surrealdb.Query[[]map[string]any](ctx, c.db,
		"SELECT * FROM type::table($tb)",
		map[string]any{"tb": c.table},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to select from %s: %w", c.table, err)
	}

	docs := make([]store.Document, 0)
	for _, record := range firstResult(result) {
		doc, err := c.document(record)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func (c *collection) FindOne(ctx context.Context, id string) (store.Document, error) {
	rid, err := c.recordID(id)
	if err != nil {
		return store.Document{}, err
	}
	result, err := surrealdb.Query[[]map[string]any](ctx, c.db,
		"SELECT * FROM $rid",
		map[string]any{"rid": rid},
	)
	if err != nil {
		return store.Document{}, fmt.Errorf("failed to select %s: %w", rid.String(), err)
	}
	return c.single(firstResult(result))
}

func (c *collection) InsertOne(ctx context.Context, fields map[string]any) (string, error) {
	result, err := surrealdb.Query[[]map[string]any](ctx, c.db,
		"CREATE type::table($tb) CONTENT $data RETURN id",
		map[string]any{"tb": c.table, "data": fields},
	)
	if err != nil {
		return "", fmt.Errorf("failed to create in %s: %w", c.table, err)
	}
	records := firstResult(result)
	if len(records) == 0 {
		return "", fmt.Errorf("failed to create in %s: no record returned", c.table)
	}
	rid, err := c.parseID(records[0]["id"])
	if err != nil {
		return "", err
	}
	return recordKey{id: rid}.String(), nil
}

func (c *collection) UpdateOne(ctx context.Context, id string, fields map[string]any) (store.Document, error) {
	rid, err := c.recordID(id)
	if err != nil {
		return store.Document{}, err
	}
	result, err := surrealdb.Query[[]map[string]any](ctx, c.db,
		"UPDATE $rid MERGE $data RETURN AFTER",
		map[string]any{"rid": rid, "data": fields},
	)
	if err != nil {
		return store.Document{}, fmt.Errorf("failed to update %s: %w", rid.String(), err)
	}
	return c.single(firstResult(result))
}

func (c *collection) DeleteOne(ctx context.Context, id string) error {
	rid, err := c.recordID(id)
	if err != nil {
		return err
	}
	result, err := surrealdb.Query[[]map[string]any](ctx, c.db,
		"DELETE $rid RETURN BEFORE",
		map[string]any{"rid": rid},
	)
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", rid.String(), err)
	}
	if len(firstResult(result)) == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (c *collection) single(records []map[string]any) (store.Document, error) {
	if len(records) == 0 {
		return store.Document{}, store.ErrNotFound
	}
	return c.document(records[0])
}

// document splits the record id from the remaining fields.
func (c *collection) document(record map[string]any) (store.Document, error) {
	rid, err := c.parseID(record["id"])
	if err != nil {
		return store.Document{}, err
	}
	fields := make(map[string]any, len(record))
	for k, v := range record {
		if k != "id" {
			fields[k] = v
		}
	}
	return store.Document{ID: recordKey{id: rid}, Fields: fields}, nil
}

func (c *collection) parseID(v any) (models.RecordID, error) {
	switch id := v.(type) {
	case models.RecordID:
		return id, nil
	case *models.RecordID:
		if id != nil {
			return *id, nil
		}
	case string:
		// Some transports hand back the textual "table:key" form.
		if table, key, ok := strings.Cut(id, ":"); ok {
			return models.NewRecordID(table, strings.Trim(key, "`⟨⟩")), nil
		}
	}
	return models.RecordID{}, fmt.Errorf("unexpected record id %v (%T) in %s", v, v, c.table)
}

func firstResult[T any](result *[]surrealdb.QueryResult[[]T]) []T {
	if result == nil || len(*result) == 0 {
		return nil
	}
	return (*result)[0].Result
}
