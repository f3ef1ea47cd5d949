package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/mattn/go-sqlite3"

	"github.com/desertthunder/spotifycc/internal/shared"
)

// Store bundles the SQLite repositories over a single connection pool.
type Store struct {
	*UserRepository
	*CatalogRepository
	*PlaylistRepository
	*HistoryRepository

	db *sql.DB
}

// NewStore creates a [Store] over db. Migrations must already be applied.
func NewStore(db *sql.DB) *Store {
	return &Store{
		UserRepository:     NewUserRepository(db),
		CatalogRepository:  NewCatalogRepository(db),
		PlaylistRepository: NewPlaylistRepository(db),
		HistoryRepository:  NewHistoryRepository(db),
		db:                 db,
	}
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// scanner is satisfied by [sql.Row] and [sql.Rows].
type scanner interface {
	Scan(dest ...any) error
}

// storeErr wraps err in [shared.ErrStoreFailure], translating constraint violations to [shared.ErrConflict].
func storeErr(op string, err error) error {
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: %s: %w", shared.ErrConflict, op, err)
	}
	return fmt.Errorf("%w: failed to %s: %w", shared.ErrStoreFailure, op, err)
}

func isUniqueViolation(err error) bool {
	var se sqlite3.Error
	if !errors.As(err, &se) {
		return false
	}
	return se.ExtendedCode == sqlite3.ErrConstraintUnique || se.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
}

// notFound wraps [shared.ErrNotFound] with the entity name and id.
func notFound(entity string, id int64) error {
	return fmt.Errorf("%w: %s %d", shared.ErrNotFound, entity, id)
}

// likePattern builds a LIKE pattern matching q as a literal substring. Use with ESCAPE '\'
// against a unicode_lower() column, which folds case the same way.
func likePattern(q string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(strings.ToLower(q)) + "%"
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullInt(i *int) sql.NullInt64 {
	if i == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*i), Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func intPtr(ni sql.NullInt64) *int {
	if !ni.Valid {
		return nil
	}
	i := int(ni.Int64)
	return &i
}
