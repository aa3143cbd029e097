package db

import (
	"context"
	"fmt"

	"entgo.io/ent/dialect"

	entmigrate "github.com/eslsoft/skillswap/internal/adapter/db/ent/generated/migrate"
)

// Migrate creates or upgrades the tables generated from ent/schema.
func Migrate(ctx context.Context, drv dialect.Driver) error {
	if err := entmigrate.NewSchema(drv).Create(ctx); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}
