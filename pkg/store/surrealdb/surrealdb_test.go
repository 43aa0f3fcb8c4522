package surrealdb

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/surrealdb/surrealdb.go/pkg/models"

	"github.com/surrealdb/surrealcrud/internal/testenv"
	"github.com/surrealdb/surrealcrud/pkg/store"
	"github.com/surrealdb/surrealcrud/pkg/store/storetest"
)

func TestSurrealDBStore(t *testing.T) {
	url := testenv.SurrealDBURL(t)
	database := testenv.DatabaseName("surrealcrud_test")

	suite.Run(t, &storetest.Suite{
		Open: func() (store.Store, error) {
			return Open(context.Background(), Config{
				URL:       url,
				Namespace: "surrealcrud_test",
				Database:  database,
				Username:  testenv.Credential("SURREALDB_USER", "root"),
				Password:  testenv.Credential("SURREALDB_PASS", "root"),
			})
		},
		MissingID: "doesnotexist",
	})
}

func TestRecordKeyString(t *testing.T) {
	k := recordKey{id: models.NewRecordID("user", "k2x9p0")}
	assert.Equal(t, "k2x9p0", k.String())

	k = recordKey{id: models.NewRecordID("user", 42)}
	assert.Equal(t, "42", k.String())
}

func TestParseID(t *testing.T) {
	c := &collection{table: "user"}

	rid, err := c.parseID(models.NewRecordID("user", "abc"))
	require.NoError(t, err)
	assert.Equal(t, "abc", rid.ID)

	ptr := models.NewRecordID("user", "def")
	rid, err = c.parseID(&ptr)
	require.NoError(t, err)
	assert.Equal(t, "def", rid.ID)

	rid, err = c.parseID("user:⟨ghi⟩")
	require.NoError(t, err)
	assert.Equal(t, "user", rid.Table)
	assert.Equal(t, "ghi", rid.ID)

	_, err = c.parseID(12)
	assert.Error(t, err)
}

func TestDocumentSplitsID(t *testing.T) {
	c := &collection{table: "item"}
	doc, err := c.document(map[string]any{
		"id":    models.NewRecordID("item", "xyz"),
		"name":  "lamp",
		"price": 9.5,
	})
	require.NoError(t, err)
	assert.Equal(t, "xyz", doc.ID.String())
	assert.Equal(t, map[string]any{"name": "lamp", "price": 9.5}, doc.Fields)
}

func TestValidTableName(t *testing.T) {
	assert.True(t, validTableName("user"))
	assert.True(t, validTableName("storetest_123"))
	assert.False(t, validTableName(""))
	assert.False(t, validTableName("user; REMOVE TABLE item"))
}

func TestRecordIDRejectsEmpty(t *testing.T) {
	c := &collection{table: "user"}
	_, err := c.recordID("")
	assert.ErrorIs(t, err, store.ErrInvalidID)
}
