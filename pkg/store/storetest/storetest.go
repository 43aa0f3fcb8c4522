// Package storetest provides a conformance suite that every [store.Store]
// implementation runs from its own tests.
package storetest

import (
	"context"
	"fmt"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/surrealdb/surrealcrud/pkg/store"
)

// Suite exercises the store.Collection contract. Open is called once per test and
// must return a fresh connection.
type Suite struct {
	suite.Suite

	Open func() (store.Store, error)

	// MissingID is a well-formed identifier that is never assigned.
	MissingID string

	// MalformedID, when set, is an identifier the backend cannot represent.
	MalformedID string

	st   store.Store
	coll store.Collection
	ctx  context.Context
}

func (s *Suite) SetupTest() {
	s.ctx = context.Background()
	st, err := s.Open()
	s.Require().NoError(err)
	s.st = st
	name := fmt.Sprintf("storetest_%d", time.Now().UnixNano())
	s.Require().NoError(s.st.Migrate(s.ctx, name))
	s.coll = s.st.Collection(name)
}

func (s *Suite) TearDownTest() {
	if s.st != nil {
		s.NoError(s.st.Close(s.ctx))
	}
}

func (s *Suite) TestPing() {
	s.NoError(s.st.Ping(s.ctx))
}

func (s *Suite) TestFindEmpty() {
	docs, err := s.coll.Find(s.ctx)
	s.Require().NoError(err)
	s.NotNil(docs)
	s.Empty(docs)
}

func (s *Suite) TestInsertThenFindOne() {
	id, err := s.coll.InsertOne(s.ctx, map[string]any{"name": "Ann", "price": 2.5})
	s.Require().NoError(err)
	s.NotEmpty(id)

	doc, err := s.coll.FindOne(s.ctx, id)
	s.Require().NoError(err)
	s.Equal(id, doc.ID.String())
	s.Equal("Ann", doc.Fields["name"])
	s.Equal(2.5, doc.Fields["price"])
}

func (s *Suite) TestFindReturnsEveryInsert() {
	ids := make(map[string]bool)
	for i := 0; i < 3; i++ {
		id, err := s.coll.InsertOne(s.ctx, map[string]any{"name": fmt.Sprintf("user-%d", i)})
		s.Require().NoError(err)
		ids[id] = true
	}

	docs, err := s.coll.Find(s.ctx)
	s.Require().NoError(err)
	s.Len(docs, 3)
	for _, doc := range docs {
		s.True(ids[doc.ID.String()], "unexpected id %s", doc.ID)
	}
}

func (s *Suite) TestFindOneMissing() {
	_, err := s.coll.FindOne(s.ctx, s.MissingID)
	s.ErrorIs(err, store.ErrNotFound)
}

func (s *Suite) TestMalformedID() {
	if s.MalformedID == "" {
		s.T().Skip("backend accepts any identifier")
	}
	_, err := s.coll.FindOne(s.ctx, s.MalformedID)
	s.ErrorIs(err, store.ErrInvalidID)
	_, err = s.coll.UpdateOne(s.ctx, s.MalformedID, map[string]any{"name": "x"})
	s.ErrorIs(err, store.ErrInvalidID)
	s.ErrorIs(s.coll.DeleteOne(s.ctx, s.MalformedID), store.ErrInvalidID)
}

func (s *Suite) TestUpdateMergesFields() {
	id, err := s.coll.InsertOne(s.ctx, map[string]any{"name": "Ann", "price": 1.0})
	s.Require().NoError(err)

	doc, err := s.coll.UpdateOne(s.ctx, id, map[string]any{"price": 3.0})
	s.Require().NoError(err)
	s.Equal(id, doc.ID.String())
	s.Equal("Ann", doc.Fields["name"])
	s.Equal(3.0, doc.Fields["price"])

	doc, err = s.coll.FindOne(s.ctx, id)
	s.Require().NoError(err)
	s.Equal("Ann", doc.Fields["name"])
	s.Equal(3.0, doc.Fields["price"])
}

func (s *Suite) TestUpdateEmptyLeavesDocument() {
	id, err := s.coll.InsertOne(s.ctx, map[string]any{"name": "Ann"})
	s.Require().NoError(err)

	doc, err := s.coll.UpdateOne(s.ctx, id, map[string]any{})
	s.Require().NoError(err)
	s.Equal("Ann", doc.Fields["name"])
}

func (s *Suite) TestUpdateMissing() {
	_, err := s.coll.UpdateOne(s.ctx, s.MissingID, map[string]any{"name": "x"})
	s.ErrorIs(err, store.ErrNotFound)

	docs, err := s.coll.Find(s.ctx)
	s.Require().NoError(err)
	s.Empty(docs, "update of a missing document must not create it")
}

func (s *Suite) TestDelete() {
	id, err := s.coll.InsertOne(s.ctx, map[string]any{"name": "Ann"})
	s.Require().NoError(err)

	s.Require().NoError(s.coll.DeleteOne(s.ctx, id))

	_, err = s.coll.FindOne(s.ctx, id)
	s.ErrorIs(err, store.ErrNotFound)
	s.ErrorIs(s.coll.DeleteOne(s.ctx, id), store.ErrNotFound)
}

func (s *Suite) TestReadOnlyWrapper() {
	readOnly := true
	wrapped := store.NewReadOnlyStore(s.st, func() bool { return readOnly })
	coll := wrapped.Collection(s.coll.Name())

	_, err := coll.InsertOne(s.ctx, map[string]any{"name": "Ann"})
	s.ErrorIs(err, store.ErrReadOnly)

	readOnly = false
	id, err := coll.InsertOne(s.ctx, map[string]any{"name": "Ann"})
	s.Require().NoError(err)

	readOnly = true
	_, err = coll.UpdateOne(s.ctx, id, map[string]any{"name": "Bob"})
	s.ErrorIs(err, store.ErrReadOnly)
	s.ErrorIs(coll.DeleteOne(s.ctx, id), store.ErrReadOnly)

	doc, err := coll.FindOne(s.ctx, id)
	s.Require().NoError(err)
	s.Equal("Ann", doc.Fields["name"])
}
