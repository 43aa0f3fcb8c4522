package surrealcrud

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/surrealdb/surrealcrud/pkg/logger"
	"github.com/surrealdb/surrealcrud/pkg/schema"
	"github.com/surrealdb/surrealcrud/pkg/store"
	"github.com/surrealdb/surrealcrud/pkg/store/memory"
	"github.com/surrealdb/surrealcrud/pkg/store/mongo"
	"github.com/surrealdb/surrealcrud/pkg/store/postgres"
	"github.com/surrealdb/surrealcrud/pkg/store/surrealdb"
	"github.com/surrealdb/surrealcrud/pkg/view"
)

// App holds the application state: the store connection, one view per resource, the
// logger and the metrics registry.
type App struct {
	config   *Config
	store    *store.ReadOnlyStore
	log      zerolog.Logger
	logData  *logger.LogData
	readOnly atomic.Bool
	metrics  *httpMetrics
	users    *view.View
	items    *view.View
}

// New builds the logger, opens the configured backend and returns the application.
// The caller must Close it.
func New(ctx context.Context, config *Config) (*App, error) {
	level, err := logger.ParseLevel(config.LogLevel)
	if err != nil {
		return nil, err
	}
	logData, err := logger.New().FromPath(config.LogFile).Level(level).Make()
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	st, err := openStore(ctx, config)
	if err != nil {
		_ = logData.Close()
		return nil, err
	}
	logData.Logger.Info().
		Str("backend", st.Backend()).
		Str("database", st.Database()).
		Msg("connected to store")

	app := NewWithStore(config, st, logData.Logger)
	app.logData = logData
	return app, nil
}

// NewWithStore returns an application over an already opened store.
// The application takes ownership of st and closes it in Close.
func NewWithStore(config *Config, st store.Store, log zerolog.Logger) *App {
	app := &App{
		config:  config,
		log:     log,
		metrics: newHTTPMetrics(prometheus.NewRegistry()),
	}
	app.readOnly.Store(config.ReadOnly)
	app.store = store.NewReadOnlyStore(st, app.IsReadOnly)
	app.users = view.New(app.store, schema.User)
	app.items = view.New(app.store, schema.Item)
	return app
}

func openStore(ctx context.Context, config *Config) (store.Store, error) {
	switch config.Backend {
	case "surrealdb":
		st, err := surrealdb.Open(ctx, surrealdb.Config{
			URL:       config.SurrealDBURL,
			Namespace: config.SurrealDBNS,
			Database:  config.Database,
			Username:  config.SurrealDBUser,
			Password:  config.SurrealDBPass,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to SurrealDB: %w", err)
		}
		return st, nil
	case "mongo":
		st, err := mongo.Open(ctx, config.MongoDBURI, config.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
		}
		return st, nil
	case "postgres":
		st, err := postgres.Open(ctx, config.PostgresDSN, config.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
		}
		return st, nil
	case "memory":
		return memory.New(config.Database), nil
	default:
		return nil, fmt.Errorf("unknown store backend: %s", config.Backend)
	}
}

// Close closes the store and the log file.
func (a *App) Close(ctx context.Context) error {
	err := a.store.Close(ctx)
	if a.logData != nil {
		if cerr := a.logData.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// Store returns the store the views operate on, read-only wrapper included.
func (a *App) Store() store.Store {
	return a.store
}

// SetReadOnly switches write rejection on or off at runtime.
func (a *App) SetReadOnly(readOnly bool) {
	a.readOnly.Store(readOnly)
	a.log.Info().Bool("read_only", readOnly).Msg("application read-only mode changed")
}

// IsReadOnly reports whether writes are currently rejected.
func (a *App) IsReadOnly() bool {
	return a.readOnly.Load()
}
