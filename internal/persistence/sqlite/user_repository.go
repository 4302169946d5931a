package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/example/exterminus/internal/persistence"
)

// UserRepository implements persistence.UserRepository using SQLite
type UserRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewUserRepository creates a new SQLite user repository
func NewUserRepository(pool *ConnectionPool) *UserRepository {
	return &UserRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

// CreateUser inserts a new user and returns it with its assigned id
func (r *UserRepository) CreateUser(ctx context.Context, user persistence.User) (persistence.User, error) {
	user.Username = normalizeUsername(user.Username)
	if user.Username == "" {
		return persistence.User{}, persistence.ErrConstraintViolation
	}
	if user.Role == "" {
		user.Role = "technician"
	}

	const query = `
		INSERT INTO users (first_name, last_name, username, role)
		VALUES (?, ?, ?, ?)`

	result, err := r.helper.Exec(ctx, query,
		nullString(user.FirstName),
		nullString(user.LastName),
		user.Username,
		user.Role,
	)
	if err != nil {
		return persistence.User{}, r.mapper.MapError(err)
	}

	if user.ID, err = result.LastInsertId(); err != nil {
		return persistence.User{}, fmt.Errorf("failed to read user id: %w", err)
	}
	return user, nil
}

// GetUser retrieves a user by ID from the database
func (r *UserRepository) GetUser(ctx context.Context, id int64) (persistence.User, error) {
	const query = `
		SELECT id, first_name, last_name, username, role
		FROM users
		WHERE id = ?`

	var (
		user        persistence.User
		first, last sql.NullString
	)
	err := r.helper.QueryRow(ctx, query, id).Scan(&user.ID, &first, &last, &user.Username, &user.Role)
	if err != nil {
		return persistence.User{}, r.mapper.MapError(err)
	}
	user.FirstName = first.String
	user.LastName = last.String
	return user, nil
}

// UpdateUserRole sets the role of a user. A non-empty rosterName is added to
// the technician roster in the same transaction unless it is already there.
func (r *UserRepository) UpdateUserRole(ctx context.Context, id int64, role, rosterName string) error {
	if strings.TrimSpace(role) == "" {
		return persistence.ErrConstraintViolation
	}

	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `UPDATE users SET role = ? WHERE id = ?`, role, id)
		if err != nil {
			return r.mapper.MapError(err)
		}
		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rowsAffected == 0 {
			return persistence.ErrNotFound
		}

		if rosterName = strings.TrimSpace(rosterName); rosterName == "" {
			return nil
		}
		if _, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO technicians (name) VALUES (?)`, rosterName); err != nil {
			return r.mapper.MapError(err)
		}
		return nil
	})
}

// normalizeUsername normalizes usernames for consistent storage and lookup
func normalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}
