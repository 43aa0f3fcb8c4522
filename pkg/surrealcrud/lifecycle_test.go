package surrealcrud_test

import (
	"context"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/surrealdb/surrealcrud/pkg/client"
	"github.com/surrealdb/surrealcrud/pkg/store/memory"
	"github.com/surrealdb/surrealcrud/pkg/surrealcrud"
)

// setupMainEnv points Main at a memory store and a log file it can be observed through.
func setupMainEnv(t *testing.T) string {
	t.Helper()
	logFile := filepath.Join(t.TempDir(), "surrealcrud.log")
	t.Setenv("APP_HOST", "127.0.0.1")
	t.Setenv("DB_NAME", "lifecycle")
	t.Setenv("LOG_LEVEL", "info")
	t.Setenv("LOG_FILE", logFile)
	t.Setenv("READ_ONLY", "false")
	return logFile
}

func readLog(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return ""
	}
	require.NoError(t, err)
	return string(data)
}

func TestServeStopsOnCancel(t *testing.T) {
	app := surrealcrud.NewWithStore(&surrealcrud.Config{Backend: "memory", Database: "test_db"}, memory.New("test_db"), zerolog.Nop())
	t.Cleanup(func() { _ = app.Close(context.Background()) })

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- app.Serve(ctx, listener) }()

	c := client.NewClient("http://" + listener.Addr().String())
	health, err := c.Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "healthy", health.Status)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}

func TestMainRun(t *testing.T) {
	logFile := setupMainEnv(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- surrealcrud.Main(ctx, []string{"-backend", "memory", "run", "0"}) }()

	require.Eventually(t, func() bool {
		data, _ := os.ReadFile(logFile)
		return strings.Contains(string(data), `"listening"`)
	}, 10*time.Second, 20*time.Millisecond)

	select {
	case err := <-done:
		t.Fatalf("Main returned before cancel: %v", err)
	default:
	}

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("Main did not return after cancel")
	}

	out := readLog(t, logFile)
	assert.Contains(t, out, `"using db"`)
	assert.Contains(t, out, `"database":"lifecycle"`)
	assert.Contains(t, out, `"backend":"memory"`)
	assert.Contains(t, out, `"shutting down server"`)
}

func TestMainMigrate(t *testing.T) {
	logFile := setupMainEnv(t)

	require.NoError(t, surrealcrud.Main(context.Background(), []string{"-backend", "memory", "migrate"}))

	out := readLog(t, logFile)
	assert.Contains(t, out, "running database migrations")
	assert.Contains(t, out, "migrations completed successfully")
}

func TestMainErrors(t *testing.T) {
	setupMainEnv(t)

	err := surrealcrud.Main(context.Background(), []string{"serve"})
	assert.ErrorContains(t, err, "failed to parse configuration")

	t.Setenv("LOG_FILE", filepath.Join(t.TempDir(), "missing", "dir", "out.log"))
	err = surrealcrud.Main(context.Background(), []string{"-backend", "memory", "migrate"})
	assert.ErrorContains(t, err, "failed to create application")
}
