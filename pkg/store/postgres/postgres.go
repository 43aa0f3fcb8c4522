// Package postgres provides a PostgreSQL implementation of [store.Store] using GORM.
//
// PostgreSQL is not a document database, so the store emulates one: every document of
// every collection lives in a single `documents` table as a JSONB body, keyed by the
// collection name and a UUID. A BIGSERIAL column records insertion order, which is the
// natural order Find reports.
//
// Partial updates use the JSONB concatenation operator, so only the supplied keys change:
//
//	UPDATE documents SET body = body || $patch WHERE collection = $c AND id = $id RETURNING *
package postgres

import (
	"context"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/surrealdb/surrealcrud/pkg/store"
)

// Body is a JSONB document body.
type Body map[string]any

// Value implements driver.Valuer.
func (b Body) Value() (driver.Value, error) {
	if b == nil {
		return "{}", nil
	}
	data, err := json.Marshal(b)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan implements sql.Scanner.
func (b *Body) Scan(value any) error {
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	case nil:
		*b = Body{}
		return nil
	default:
		return fmt.Errorf("cannot scan %T into Body", value)
	}
	// Unmarshal merges into a non-nil map.
	*b = nil
	return json.Unmarshal(data, b)
}

// Row is one stored document.
type Row struct {
	Seq        int64     `gorm:"primaryKey;autoIncrement"`
	Collection string    `gorm:"not null;uniqueIndex:idx_documents_collection_id,priority:1"`
	ID         uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_documents_collection_id,priority:2"`
	Body       Body      `gorm:"type:jsonb;not null"`
}

// TableName overrides the GORM default.
func (Row) TableName() string { return "documents" }

// Store implements store.Store on a PostgreSQL database.
type Store struct {
	db       *gorm.DB
	database string
}

// Open connects with the given DSN. database is the logical name reported by Database;
// the physical database is the one named in the DSN.
func Open(ctx context.Context, dsn, database string) (*Store, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	return &Store{db: db, database: database}, nil
}

func (s *Store) Backend() string  { return "postgres" }
func (s *Store) Database() string { return s.database }

func (s *Store) Collection(name string) store.Collection {
	return &collection{db: s.db, name: name}
}

// Migrate creates the documents table. Collections need no DDL of their own.
func (s *Store) Migrate(ctx context.Context, collections ...string) error {
	if err := s.db.WithContext(ctx).AutoMigrate(&Row{}); err != nil {
		return fmt.Errorf("failed to migrate documents table: %w", err)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *Store) Close(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

type collection struct {
	db   *gorm.DB
	name string
}

func (c *collection) Name() string { return c.name }

func parseID(id string) (uuid.UUID, error) {
	u, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %q", store.ErrInvalidID, id)
	}
	return u, nil
}

func (c *collection) Find(ctx context.Context) ([]store.Document, error) {
	var rows []Row
	err := c.db.WithContext(ctx).
		Where("collection = ?", c.name).
		Order("seq").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", c.name, err)
	}
	docs := make([]store.Document, 0, len(rows))
	for _, row := range rows {
		docs = append(docs, document(row))
	}
	return docs, nil
}

func (c *collection) FindOne(ctx context.Context, id string) (store.Document, error) {
	uid, err := parseID(id)
	if err != nil {
		return store.Document{}, err
	}
	var row Row
	err = c.db.WithContext(ctx).
		Where("collection = ? AND id = ?", c.name, uid).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return store.Document{}, store.ErrNotFound
	}
	if err != nil {
		return store.Document{}, fmt.Errorf("failed to get %s(%s): %w", c.name, id, err)
	}
	return document(row), nil
}

func (c *collection) InsertOne(ctx context.Context, fields map[string]any) (string, error) {
	row := Row{
		Collection: c.name,
		ID:         uuid.New(),
		Body:       Body(fields),
	}
	if err := c.db.WithContext(ctx).Create(&row).Error; err != nil {
		return "", fmt.Errorf("failed to insert into %s: %w", c.name, err)
	}
	return row.ID.String(), nil
}

func (c *collection) UpdateOne(ctx context.Context, id string, fields map[string]any) (store.Document, error) {
	uid, err := parseID(id)
	if err != nil {
		return store.Document{}, err
	}
	patch, err := Body(fields).Value()
	if err != nil {
		return store.Document{}, fmt.Errorf("failed to encode patch: %w", err)
	}

	var rows []Row
	res := c.db.WithContext(ctx).
		Model(&rows).
		Clauses(clause.Returning{}).
		Where("collection = ? AND id = ?", c.name, uid).
		Update("body", gorm.Expr("body || ?::jsonb", patch))
	if res.Error != nil {
		return store.Document{}, fmt.Errorf("failed to update %s(%s): %w", c.name, id, res.Error)
	}
	if res.RowsAffected == 0 || len(rows) == 0 {
		return store.Document{}, store.ErrNotFound
	}
	return document(rows[0]), nil
}

func (c *collection) DeleteOne(ctx context.Context, id string) error {
	uid, err := parseID(id)
	if err != nil {
		return err
	}
	res := c.db.WithContext(ctx).
		Where("collection = ? AND id = ?", c.name, uid).
		Delete(&Row{})
	if res.Error != nil {
		return fmt.Errorf("failed to delete %s(%s): %w", c.name, id, res.Error)
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func document(row Row) store.Document {
	fields := map[string]any(row.Body)
	if fields == nil {
		fields = map[string]any{}
	}
	return store.Document{ID: row.ID, Fields: fields}
}
