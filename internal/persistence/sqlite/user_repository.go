package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/campus-scheduler/internal/persistence"
)

// UserRepository implements persistence.UserRepository on SQLite.
type UserRepository struct {
	pool *ConnectionPool
}

// NewUserRepository creates a SQLite-backed user repository.
func NewUserRepository(pool *ConnectionPool) *UserRepository {
	return &UserRepository{pool: pool}
}

// CreateUser inserts a new user record.
func (r *UserRepository) CreateUser(ctx context.Context, user persistence.User) error {
	if user.ID == "" {
		return persistence.ErrConstraintViolation
	}

	_, err := r.pool.db.ExecContext(ctx, `
		INSERT INTO users (id, email, name, career, password_hash, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		user.ID,
		user.Email,
		user.Name,
		user.Career,
		user.PasswordHash,
		formatTime(user.CreatedAt),
		formatTime(user.UpdatedAt),
	)
	if err != nil {
		return mapSQLiteError(err)
	}

	return nil
}

// GetUser retrieves a user by ID.
func (r *UserRepository) GetUser(ctx context.Context, id string) (persistence.User, error) {
	if id == "" {
		return persistence.User{}, persistence.ErrNotFound
	}

	row := r.pool.db.QueryRowContext(ctx, `
		SELECT id, email, name, career, password_hash, created_at, updated_at
		FROM users WHERE id = ?
	`, id)

	return scanUser(row)
}

// GetUserByEmail retrieves a user by email address. The email column uses a
// NOCASE collation, so lookups are case-insensitive.
func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (persistence.User, error) {
	if email == "" {
		return persistence.User{}, persistence.ErrNotFound
	}

	row := r.pool.db.QueryRowContext(ctx, `
		SELECT id, email, name, career, password_hash, created_at, updated_at
		FROM users WHERE email = ?
	`, email)

	return scanUser(row)
}

// ListUsers returns all users ordered by email.
func (r *UserRepository) ListUsers(ctx context.Context) ([]persistence.User, error) {
	rows, err := r.pool.db.QueryContext(ctx, `
		SELECT id, email, name, career, password_hash, created_at, updated_at
		FROM users ORDER BY email ASC, id ASC
	`)
	if err != nil {
		return nil, mapSQLiteError(err)
	}
	defer rows.Close()

	var users []persistence.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, mapSQLiteError(err)
	}

	return users, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (persistence.User, error) {
	var user persistence.User
	var createdAt, updatedAt string

	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.Name,
		&user.Career,
		&user.PasswordHash,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return persistence.User{}, persistence.ErrNotFound
		}
		return persistence.User{}, mapSQLiteError(err)
	}

	if user.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.User{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if user.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return persistence.User{}, fmt.Errorf("failed to parse updated_at: %w", err)
	}

	return user, nil
}

// Timestamps are stored as UTC RFC3339 strings; the fixed width keeps
// lexicographic comparison equal to chronological comparison for the range
// pushdown in schedule queries.
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func parseTime(value string) (time.Time, error) {
	return time.Parse(time.RFC3339, value)
}
