package surrealcrud_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/surrealdb/surrealcrud/pkg/client"
	"github.com/surrealdb/surrealcrud/pkg/store/memory"
	"github.com/surrealdb/surrealcrud/pkg/surrealcrud"
)

type testServer struct {
	app    *surrealcrud.App
	store  *memory.Store
	server *httptest.Server
	client *client.Client
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	st := memory.New("test_db")
	app := surrealcrud.NewWithStore(&surrealcrud.Config{Backend: "memory", Database: "test_db"}, st, zerolog.Nop())
	server := httptest.NewServer(app.Handler())
	t.Cleanup(func() {
		server.Close()
		_ = app.Close(context.Background())
	})
	return &testServer{
		app:    app,
		store:  st,
		server: server,
		client: client.NewClient(server.URL),
	}
}

func (ts *testServer) do(t *testing.T, method, path, body string) (*http.Response, string) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, ts.server.URL+path, reader)
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(data)
}

func requireAPIError(t *testing.T, err error, status int) *client.APIError {
	t.Helper()
	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, status, apiErr.StatusCode, apiErr.Body)
	return apiErr
}

func TestUserLifecycle(t *testing.T) {
	ctx := context.Background()
	ts := newTestServer(t)

	created, err := ts.client.CreateUser(ctx, "Ann")
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	assert.Equal(t, "Ann", created.Name)

	fetched, err := ts.client.GetUser(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, fetched)

	require.NoError(t, ts.client.DeleteUser(ctx, created.ID))

	_, err = ts.client.GetUser(ctx, created.ID)
	apiErr := requireAPIError(t, err, http.StatusNotFound)
	assert.Equal(t, "user(_id='"+created.ID+"') not found!", apiErr.Detail)
}

func TestResponseBodies(t *testing.T) {
	ts := newTestServer(t)

	resp, body := ts.do(t, http.MethodPost, "/users", `{"name":"Ann"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	assert.True(t, strings.HasPrefix(body, `{"id":"`), body)
	assert.True(t, strings.HasSuffix(strings.TrimSpace(body), `","name":"Ann"}`), body)

	var user client.User
	require.NoError(t, json.Unmarshal([]byte(body), &user))

	resp, body = ts.do(t, http.MethodDelete, "/users/"+user.ID, "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Empty(t, body)

	resp, body = ts.do(t, http.MethodGet, "/users/"+user.ID, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.JSONEq(t, `{"detail":"user(_id='`+user.ID+`') not found!"}`, body)

	resp, body = ts.do(t, http.MethodGet, "/items", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "[]", strings.TrimSpace(body))
}

func TestItemUpdate(t *testing.T) {
	ctx := context.Background()
	ts := newTestServer(t)

	item, err := ts.client.CreateItem(ctx, "lamp", 12.5)
	require.NoError(t, err)

	price := 10.0
	updated, err := ts.client.UpdateItem(ctx, item.ID, client.ItemUpdate{Price: &price})
	require.NoError(t, err)
	assert.Equal(t, client.Item{ID: item.ID, Name: "lamp", Price: 10}, *updated)

	unchanged, err := ts.client.UpdateItem(ctx, item.ID, client.ItemUpdate{})
	require.NoError(t, err)
	assert.Equal(t, updated, unchanged)

	name := "desk lamp"
	renamed, err := ts.client.UpdateItem(ctx, item.ID, client.ItemUpdate{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, client.Item{ID: item.ID, Name: "desk lamp", Price: 10}, *renamed)
}

func TestListAfterAdds(t *testing.T) {
	ctx := context.Background()
	ts := newTestServer(t)

	names := []string{"a", "b", "c"}
	for _, name := range names {
		_, err := ts.client.CreateUser(ctx, name)
		require.NoError(t, err)
	}

	users, err := ts.client.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, len(names))
	for i, u := range users {
		assert.Equal(t, names[i], u.Name)
		fetched, err := ts.client.GetUser(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, u, *fetched)
	}

	items, err := ts.client.ListItems(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestMissingDocument(t *testing.T) {
	ctx := context.Background()
	ts := newTestServer(t)
	const missing = "does-not-exist"

	name := "ghost"
	_, err := ts.client.UpdateUser(ctx, missing, client.UserUpdate{Name: &name})
	apiErr := requireAPIError(t, err, http.StatusNotFound)
	assert.Equal(t, "user(_id='does-not-exist') not found!", apiErr.Detail)

	err = ts.client.DeleteItem(ctx, missing)
	apiErr = requireAPIError(t, err, http.StatusNotFound)
	assert.Equal(t, "item(_id='does-not-exist') not found!", apiErr.Detail)
	assert.True(t, client.IsNotFound(err))

	users, err := ts.client.ListUsers(ctx)
	require.NoError(t, err)
	assert.Empty(t, users)
}

func TestNotFoundDetailQuotesID(t *testing.T) {
	ts := newTestServer(t)

	resp, body := ts.do(t, http.MethodGet, "/users/a%27b", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.JSONEq(t, `{"detail":"user(_id=\"a'b\") not found!"}`, body)
}

func TestNullBodyIsMissing(t *testing.T) {
	ts := newTestServer(t)
	const missing = `{"detail":[{"loc":["body"],"msg":"Field required","type":"missing"}]}`

	resp, body := ts.do(t, http.MethodPatch, "/users/x", "null")
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.JSONEq(t, missing, body)

	resp, body = ts.do(t, http.MethodPost, "/items", " null ")
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.JSONEq(t, missing, body)
}

func TestValidation(t *testing.T) {
	ts := newTestServer(t)

	resp, body := ts.do(t, http.MethodPost, "/items", `{"name":"lamp","price":-1}`)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.JSONEq(t, `{"detail":[{"loc":["body","price"],"msg":"Input should be greater than or equal to 0","type":"greater_than_equal"}]}`, body)

	resp, body = ts.do(t, http.MethodPost, "/users", `{}`)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.JSONEq(t, `{"detail":[{"loc":["body","name"],"msg":"Field required","type":"missing"}]}`, body)

	resp, _ = ts.do(t, http.MethodPost, "/users", `not json`)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	resp, _ = ts.do(t, http.MethodPost, "/users", "")
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	users, err := ts.client.ListUsers(context.Background())
	require.NoError(t, err)
	assert.Empty(t, users, "rejected bodies must not reach the store")
}

func TestValidationPrecedesLookup(t *testing.T) {
	ts := newTestServer(t)

	resp, _ := ts.do(t, http.MethodPatch, "/items/does-not-exist", `{"price":"cheap"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	resp, _ = ts.do(t, http.MethodPatch, "/items/does-not-exist", `{"price":3}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestReadOnly(t *testing.T) {
	ctx := context.Background()
	ts := newTestServer(t)

	user, err := ts.client.CreateUser(ctx, "Ann")
	require.NoError(t, err)

	ts.app.SetReadOnly(true)
	assert.True(t, ts.app.IsReadOnly())

	_, err = ts.client.CreateUser(ctx, "Bob")
	requireAPIError(t, err, http.StatusServiceUnavailable)

	name := "Eve"
	_, err = ts.client.UpdateUser(ctx, user.ID, client.UserUpdate{Name: &name})
	requireAPIError(t, err, http.StatusServiceUnavailable)

	err = ts.client.DeleteUser(ctx, user.ID)
	requireAPIError(t, err, http.StatusServiceUnavailable)

	fetched, err := ts.client.GetUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ann", fetched.Name)

	health, err := ts.client.Health(ctx)
	require.NoError(t, err)
	assert.True(t, health.ReadOnly)

	ts.app.SetReadOnly(false)
	_, err = ts.client.CreateUser(ctx, "Bob")
	require.NoError(t, err)
}

func TestIncompleteDocumentIsServerError(t *testing.T) {
	ts := newTestServer(t)

	id, err := ts.store.Collection("item").InsertOne(context.Background(), map[string]any{"name": "no price"})
	require.NoError(t, err)

	resp, body := ts.do(t, http.MethodGet, "/items/"+id, "")
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.JSONEq(t, `{"detail":"Internal Server Error"}`, body)

	resp, _ = ts.do(t, http.MethodGet, "/items", "")
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestHealth(t *testing.T) {
	ctx := context.Background()
	ts := newTestServer(t)

	health, err := ts.client.Health(ctx)
	require.NoError(t, err)
	assert.Equal(t, client.Health{Status: "healthy", Backend: "memory", Database: "test_db"}, *health)

	require.NoError(t, ts.store.Close(ctx))
	_, err = ts.client.Health(ctx)
	requireAPIError(t, err, http.StatusServiceUnavailable)
}

func TestUnknownRoutes(t *testing.T) {
	ts := newTestServer(t)

	resp, body := ts.do(t, http.MethodGet, "/nope", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.JSONEq(t, `{"detail":"Not Found"}`, body)

	resp, body = ts.do(t, http.MethodPut, "/users", `{"name":"Ann"}`)
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	assert.JSONEq(t, `{"detail":"Method Not Allowed"}`, body)
}

func TestMetrics(t *testing.T) {
	ts := newTestServer(t)

	resp, _ := ts.do(t, http.MethodGet, "/users/abc", "")
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, body := ts.do(t, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `surrealcrud_http_requests_total{method="GET",route="/users/{id}",status="404"} 1`)
	assert.NotContains(t, body, `route="/metrics"`)
}

func TestMetricsCountUnmatchedRequests(t *testing.T) {
	ts := newTestServer(t)

	resp, _ := ts.do(t, http.MethodGet, "/nope", "")
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp, _ = ts.do(t, http.MethodPut, "/users", `{"name":"Ann"}`)
	require.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)

	_, body := ts.do(t, http.MethodGet, "/metrics", "")
	assert.Contains(t, body, `surrealcrud_http_requests_total{method="GET",route="unmatched",status="404"} 1`)
	assert.Contains(t, body, `method="PUT"`)
	assert.Contains(t, body, `status="405"`)
}
