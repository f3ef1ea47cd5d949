package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/spotifycc/internal/repositories/postgres"
	"github.com/desertthunder/spotifycc/internal/shared"
)

// SetupConfig writes the embedded example config to --config.
func (r *Runner) SetupConfig(ctx context.Context, cmd *cli.Command) error {
	path := r.configPath
	if path == "" {
		path = "config.toml"
	}

	if err := shared.CreateConfigFile(path); err != nil {
		return err
	}

	r.logger.Info("config file created", "path", path)
	return r.writePlain("✓ Config written to %s\n", path)
}

// SetupDatabase initializes the configured database.
//
// SQLite runs pending migrations; PostgreSQL applies the idempotent schema.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	if r.config.Database.Driver == "postgres" {
		r.logger.Info("applying postgres schema")
		store, err := postgres.Open(ctx, r.config.Database.URL, r.config.Database.MaxOpenConns)
		if err != nil {
			return err
		}
		defer store.Close()

		if err := store.EnsureSchema(ctx); err != nil {
			return err
		}
		return r.writePlain("✓ PostgreSQL schema is up to date\n")
	}

	r.logger.Info("initializing database", "path", r.config.Database.Path)

	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}
	defer db.Close()

	if err := shared.RunMigrationsContext(ctx, db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	versions, err := shared.AppliedMigrations(db)
	if err != nil {
		return err
	}

	r.logger.Infof("setup complete for database: %v", r.config.Database.Path)
	return r.writePlain("✓ %s is at migration %d\n", r.config.Database.Path, latest(versions))
}

// SetupRollback rolls back the most recent SQLite migration.
func (r *Runner) SetupRollback(ctx context.Context, cmd *cli.Command) error {
	if r.config.Database.Driver != "sqlite" {
		return fmt.Errorf("%w: rollback is only supported for sqlite", shared.ErrInvalidConfig)
	}

	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := shared.RollbackMigration(db); err != nil {
		return err
	}

	versions, err := shared.AppliedMigrations(db)
	if err != nil {
		return err
	}
	return r.writePlain("✓ %s rolled back to migration %d\n", r.config.Database.Path, latest(versions))
}

func latest(versions []int) int {
	if len(versions) == 0 {
		return 0
	}
	return versions[len(versions)-1]
}
