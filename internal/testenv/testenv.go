// Package testenv locates the external databases used by integration tests.
//
// Each backend is opt-in through the same environment variables the service reads.
// When a variable is unset the calling test is skipped, so `go test ./...` passes on a
// machine with no databases running.
package testenv

import (
	"fmt"
	"os"
	"testing"
	"time"
)

const (
	// EnvSurrealDBURL is the environment variable that specifies the SurrealDB URL,
	// e.g. ws://localhost:8001/rpc.
	EnvSurrealDBURL = "SURREALDB_URL"

	// EnvMongoDBURI is the environment variable that specifies the MongoDB URI.
	EnvMongoDBURI = "MONGODB_URI"

	// EnvPostgresDSN is the environment variable that specifies the PostgreSQL DSN.
	EnvPostgresDSN = "POSTGRES_DSN"
)

// SurrealDBURL returns the SurrealDB URL or skips the test.
func SurrealDBURL(t testing.TB) string {
	return require(t, EnvSurrealDBURL)
}

// MongoDBURI returns the MongoDB URI or skips the test.
func MongoDBURI(t testing.TB) string {
	return require(t, EnvMongoDBURI)
}

// PostgresDSN returns the PostgreSQL DSN or skips the test.
func PostgresDSN(t testing.TB) string {
	return require(t, EnvPostgresDSN)
}

// Credential returns the value of key, or fallback when unset.
func Credential(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// DatabaseName returns a database name unique to this test run.
func DatabaseName(prefix string) string {
	return fmt.Sprintf("%s_%d", prefix, time.Now().UnixNano())
}

func require(t testing.TB, key string) string {
	t.Helper()
	v := os.Getenv(key)
	if v == "" {
		t.Skipf("%s not set", key)
	}
	return v
}
