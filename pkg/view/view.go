// Package view implements the generic resource view: uniform CRUD over one store
// collection, projected through a resource's Output schema.
//
// A View knows nothing about the resource beyond its collection name and Output
// field list. It turns store misses into *NotFoundError, converts native identifiers
// to their canonical string form, and returns every document as a [Record].
package view

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/surrealdb/surrealcrud/pkg/schema"
	"github.com/surrealdb/surrealcrud/pkg/store"
)

// NotFoundError reports that no document in Collection has the identifier ID.
type NotFoundError struct {
	Collection string
	ID         string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s(_id=%s) not found!", e.Collection, quoteID(e.ID))
}

// MissingFieldError reports a stored document that lacks a field of the Output schema.
type MissingFieldError struct {
	Collection string
	ID         string
	Field      string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("%s(_id=%s) has no field %q", e.Collection, quoteID(e.ID), e.Field)
}

// quoteID renders id as a quoted literal. Single quotes are used unless id contains a
// single quote and no double quote.
func quoteID(id string) string {
	quote := '\''
	if strings.ContainsRune(id, '\'') && !strings.ContainsRune(id, '"') {
		quote = '"'
	}

	var b strings.Builder
	b.WriteRune(quote)
	for _, r := range id {
		switch {
		case r == quote || r == '\\':
			b.WriteRune('\\')
			b.WriteRune(r)
		case r == '\n':
			b.WriteString(`\n`)
		case r == '\r':
			b.WriteString(`\r`)
		case r == '\t':
			b.WriteString(`\t`)
		case unicode.IsPrint(r):
			b.WriteRune(r)
		case r < 0x100:
			fmt.Fprintf(&b, `\x%02x`, r)
		case r < 0x10000:
			fmt.Fprintf(&b, `\u%04x`, r)
		default:
			fmt.Fprintf(&b, `\U%08x`, r)
		}
	}
	b.WriteRune(quote)
	return b.String()
}

// View mediates CRUD operations between the HTTP layer and a store collection.
type View struct {
	resource   schema.Resource
	collection store.Collection
}

// New returns the view of resource r backed by s.
func New(s store.Store, r schema.Resource) *View {
	return &View{
		resource:   r,
		collection: s.Collection(r.Collection),
	}
}

// Resource returns the resource the view serves.
func (v *View) Resource() schema.Resource {
	return v.resource
}

// List returns every document of the collection in the store's natural order.
func (v *View) List(ctx context.Context) ([]Record, error) {
	docs, err := v.collection.Find(ctx)
	if err != nil {
		return nil, err
	}
	records := make([]Record, 0, len(docs))
	for _, doc := range docs {
		rec, err := v.Dump(doc)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

// Get returns the document with the given identifier.
func (v *View) Get(ctx context.Context, id string) (Record, error) {
	doc, err := v.collection.FindOne(ctx, id)
	if err != nil {
		return Record{}, v.translate(err, id)
	}
	return v.Dump(doc)
}

// Add inserts a document with exactly the given fields and returns it as stored.
func (v *View) Add(ctx context.Context, data map[string]any) (Record, error) {
	id, err := v.collection.InsertOne(ctx, data)
	if err != nil {
		return Record{}, err
	}
	return v.Get(ctx, id)
}

// Update overwrites the given fields of an existing document and returns it as stored.
// An empty data map leaves the document unchanged.
func (v *View) Update(ctx context.Context, id string, data map[string]any) (Record, error) {
	doc, err := v.collection.UpdateOne(ctx, id, data)
	if err != nil {
		return Record{}, v.translate(err, id)
	}
	return v.Dump(doc)
}

// Delete removes the document with the given identifier.
func (v *View) Delete(ctx context.Context, id string) error {
	if err := v.collection.DeleteOne(ctx, id); err != nil {
		return v.translate(err, id)
	}
	return nil
}

// Dump projects doc onto the Output schema. The identifier field gets the canonical
// string form of the native ID; every other field is copied unchanged.
func (v *View) Dump(doc store.Document) (Record, error) {
	id := doc.ID.String()
	rec := newRecord(len(v.resource.Output))
	for _, f := range v.resource.Output {
		if f.Identifier {
			rec.set(f.Name, id)
			continue
		}
		value, ok := doc.Fields[f.Name]
		if !ok {
			return Record{}, &MissingFieldError{Collection: v.resource.Collection, ID: id, Field: f.Name}
		}
		rec.set(f.Name, value)
	}
	return rec, nil
}

// translate maps store misses to *NotFoundError. An identifier the backend cannot
// represent cannot match any document, so it is a miss too.
func (v *View) translate(err error, id string) error {
	if errors.Is(err, store.ErrNotFound) || errors.Is(err, store.ErrInvalidID) {
		return &NotFoundError{Collection: v.resource.Collection, ID: id}
	}
	return err
}
