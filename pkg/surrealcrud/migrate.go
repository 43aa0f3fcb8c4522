package surrealcrud

import (
	"context"
	"fmt"

	"github.com/surrealdb/surrealcrud/pkg/schema"
)

// Migrate prepares the backend for every resource collection.
func (a *App) Migrate(ctx context.Context, cmd *MigrateCommand) error {
	collections := schema.Collections()
	a.log.Info().
		Str("backend", a.store.Backend()).
		Str("database", a.store.Database()).
		Strs("collections", collections).
		Msg("running database migrations")
	if err := a.store.Migrate(ctx, collections...); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	a.log.Info().Msg("migrations completed successfully")
	return nil
}
