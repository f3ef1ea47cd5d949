package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/desertthunder/spotifycc/internal/models"
	"github.com/desertthunder/spotifycc/internal/shared"
)

// UserRepository persists [models.User] records.
type UserRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new [UserRepository] with the given database connection
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

// CreateUser inserts user and fills in its ID and CreatedAt. Duplicate emails fail with [shared.ErrConflict].
func (r *UserRepository) CreateUser(ctx context.Context, user *models.User) error {
	if user.Email == "" || user.Name == "" {
		return fmt.Errorf("%w: user email and name are required", shared.ErrValidation)
	}

	result, err := r.db.ExecContext(ctx, `INSERT INTO users (email, name) VALUES (?, ?)`, user.Email, user.Name)
	if err != nil {
		return storeErr("insert user", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return storeErr("read user id", err)
	}

	created, err := r.GetUser(ctx, id)
	if err != nil {
		return err
	}
	*user = *created
	return nil
}

// GetUser retrieves a user by ID
func (r *UserRepository) GetUser(ctx context.Context, id int64) (*models.User, error) {
	query := `SELECT id, email, name, created_at FROM users WHERE id = ?`

	user, err := scanUser(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("user", id)
	}
	if err != nil {
		return nil, storeErr("query user", err)
	}
	return user, nil
}

// GetUserByEmail retrieves a user by email address
func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT id, email, name, created_at FROM users WHERE email = ?`

	user, err := scanUser(r.db.QueryRowContext(ctx, query, email))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: user %s", shared.ErrNotFound, email)
	}
	if err != nil {
		return nil, storeErr("query user", err)
	}
	return user, nil
}

// FirstUser returns the earliest user, or nil when there are none.
//
// Playlists created without an explicit owner belong to this user.
func (r *UserRepository) FirstUser(ctx context.Context) (*models.User, error) {
	query := `SELECT id, email, name, created_at FROM users ORDER BY id ASC LIMIT 1`

	user, err := scanUser(r.db.QueryRowContext(ctx, query))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storeErr("query first user", err)
	}
	return user, nil
}

func scanUser(row scanner) (*models.User, error) {
	var user models.User
	if err := row.Scan(&user.ID, &user.Email, &user.Name, &user.CreatedAt); err != nil {
		return nil, err
	}
	return &user, nil
}
