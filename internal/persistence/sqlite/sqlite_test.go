package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/example/campus-scheduler/internal/persistence"
)

func setupPool(t *testing.T) *ConnectionPool {
	t.Helper()

	dir := t.TempDir()
	pool, err := NewConnectionPool("file:" + filepath.Join(dir, "scheduler.db"))
	if err != nil {
		t.Fatalf("failed to open pool: %v", err)
	}
	t.Cleanup(func() { pool.Close() })

	if err := pool.Migrate(context.Background()); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	return pool
}

func createTestUser(t *testing.T, pool *ConnectionPool, id, email string) {
	t.Helper()

	repo := NewUserRepository(pool)
	now := time.Date(2024, time.February, 1, 12, 0, 0, 0, time.UTC)
	err := repo.CreateUser(context.Background(), persistence.User{
		ID:           id,
		Email:        email,
		Name:         "Usuario " + id,
		Career:       "Ingeniería de Sistemas",
		PasswordHash: "$argon2id$test",
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		t.Fatalf("failed to create test user %s: %v", id, err)
	}
}

func TestMigrate_Idempotent(t *testing.T) {
	pool := setupPool(t)

	if err := pool.Migrate(context.Background()); err != nil {
		t.Fatalf("second Migrate failed: %v", err)
	}

	version, err := pool.currentVersion(context.Background())
	if err != nil {
		t.Fatalf("failed to read version: %v", err)
	}
	if version != migrations[len(migrations)-1].version {
		t.Fatalf("expected version %d, got %d", migrations[len(migrations)-1].version, version)
	}
}
