package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/spotifycc/internal/providers"
	"github.com/desertthunder/spotifycc/internal/repositories"
	"github.com/desertthunder/spotifycc/internal/repositories/postgres"
	"github.com/desertthunder/spotifycc/internal/seed"
	"github.com/desertthunder/spotifycc/internal/server"
	"github.com/desertthunder/spotifycc/internal/shared"
)

// store is what the server and the seeder need from either database backend.
type store interface {
	server.Store
	seed.Store
	Close() error
}

var (
	_ store = (*repositories.Store)(nil)
	_ store = (*postgres.Store)(nil)
)

// openStore connects to the configured database and brings its schema up to date.
func (r *Runner) openStore(ctx context.Context) (store, error) {
	cfg := r.config.Database

	if cfg.Driver == "postgres" {
		pg, err := postgres.Open(ctx, cfg.URL, cfg.MaxOpenConns)
		if err != nil {
			return nil, err
		}
		if err := pg.EnsureSchema(ctx); err != nil {
			pg.Close()
			return nil, err
		}
		r.logger.Info("using postgres store")
		return pg, nil
	}

	db, err := shared.NewDatabase(cfg.Path)
	if err != nil {
		return nil, err
	}
	if cfg.Path != ":memory:" {
		shared.ConfigureDatabase(db, cfg.MaxOpenConns, cfg.MaxIdleConns)
	}
	if err := shared.RunMigrationsContext(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	r.logger.Info("using sqlite store", "path", cfg.Path)
	return repositories.NewStore(db), nil
}

// Serve runs the HTTP API until SIGINT or SIGTERM.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	if port := cmd.Int("port"); port != 0 {
		r.config.Server.Port = port
	}
	if kind := cmd.String("provider"); kind != "" {
		r.config.Provider.Kind = kind
	}
	if err := r.config.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := r.openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	provider, err := providers.New(r.config, r.logger)
	if err != nil {
		return err
	}

	srv := server.New(server.Options{
		Store:    st,
		Provider: provider,
		Config:   r.config,
		Logger:   r.logger,
	})

	return srv.ListenAndServe(ctx)
}

// Seed inserts the demo data, or the TOML document named by --file.
func (r *Runner) Seed(ctx context.Context, cmd *cli.Command) error {
	data, err := r.seedData(cmd.String("file"))
	if err != nil {
		return err
	}

	st, err := r.openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	summary, err := seed.Seed(ctx, st, data, r.logger)
	if err != nil {
		return fmt.Errorf("failed to seed database: %w", err)
	}

	r.writePlainHeader("Seed data inserted")
	r.writePlain("Listener:    %s (id %d)\n", data.User.Email, summary.UserID)
	r.writePlain("Artists:     %d\n", summary.Artists)
	r.writePlain("Albums:      %d\n", summary.Albums)
	r.writePlain("Tracks:      %d\n", summary.Tracks)
	r.writePlain("Playlists:   %d (%d entries)\n", summary.Playlists, summary.Memberships)
	return nil
}

func (r *Runner) seedData(path string) (*seed.Data, error) {
	if path == "" {
		return seed.Default()
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}
	return seed.Parse(b)
}
