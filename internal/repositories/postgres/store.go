// Package postgres implements the catalog, playlist, user and history store on PostgreSQL via a pgx connection pool.
//
// It mirrors the SQLite repositories method for method, so either can back the services and the HTTP API.
// Playlist appends lock the playlist row (SELECT ... FOR UPDATE), which serializes appends per playlist
// without blocking appends to other playlists.
package postgres

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/desertthunder/spotifycc/internal/models"
	"github.com/desertthunder/spotifycc/internal/shared"
)

//go:embed schema.sql
var schema string

const uniqueViolation = "23505"

// Store is the PostgreSQL store.
type Store struct {
	pool *pgxpool.Pool
}

// Open connects to the database at dsn and verifies the connection.
func Open(ctx context.Context, dsn string, maxConns int) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("%w: database url is required for postgres", shared.ErrMissingConfig)
	}

	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database url: %w", err)
	}
	if maxConns > 0 {
		config.MaxConns = int32(maxConns)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{pool: pool}, nil
}

// EnsureSchema creates missing tables and indexes.
func (s *Store) EnsureSchema(ctx context.Context) error {
	for _, stmt := range shared.SplitStatements(schema) {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w\nStatement: %s", err, stmt)
		}
	}
	return nil
}

// Close releases every pooled connection.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func storeErr(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%w: %s: %w", shared.ErrConflict, op, err)
	}
	return fmt.Errorf("%w: failed to %s: %w", shared.ErrStoreFailure, op, err)
}

func notFound(entity string, id int64) error {
	return fmt.Errorf("%w: %s %d", shared.ErrNotFound, entity, id)
}

func likePattern(q string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(q) + "%"
}

// CreateUser inserts user and fills in its ID and CreatedAt.
func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	if user.Email == "" || user.Name == "" {
		return fmt.Errorf("%w: user email and name are required", shared.ErrValidation)
	}

	err := s.pool.QueryRow(ctx,
		`INSERT INTO users (email, name) VALUES ($1, $2) RETURNING id, created_at`,
		user.Email, user.Name,
	).Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		return storeErr("insert user", err)
	}
	return nil
}

// GetUser retrieves a user by ID
func (s *Store) GetUser(ctx context.Context, id int64) (*models.User, error) {
	var u models.User
	err := s.pool.QueryRow(ctx, `SELECT id, email, name, created_at FROM users WHERE id = $1`, id).
		Scan(&u.ID, &u.Email, &u.Name, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, notFound("user", id)
	}
	if err != nil {
		return nil, storeErr("query user", err)
	}
	return &u, nil
}

// GetUserByEmail retrieves a user by email address
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	err := s.pool.QueryRow(ctx, `SELECT id, email, name, created_at FROM users WHERE email = $1`, email).
		Scan(&u.ID, &u.Email, &u.Name, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: user %s", shared.ErrNotFound, email)
	}
	if err != nil {
		return nil, storeErr("query user", err)
	}
	return &u, nil
}

// FirstUser returns the earliest user, or nil when there are none.
func (s *Store) FirstUser(ctx context.Context) (*models.User, error) {
	var u models.User
	err := s.pool.QueryRow(ctx, `SELECT id, email, name, created_at FROM users ORDER BY id ASC LIMIT 1`).
		Scan(&u.ID, &u.Email, &u.Name, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storeErr("query first user", err)
	}
	return &u, nil
}
