package testfixtures

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/example/campus-scheduler/internal/persistence"
	"github.com/example/campus-scheduler/internal/persistence/sqlite"
)

// SQLiteHarness provides repository access backed by a temporary SQLite
// database for integration-style persistence tests.
type SQLiteHarness struct {
	Users     persistence.UserRepository
	Schedules persistence.ScheduleRepository
	Groups    persistence.GroupRepository

	cleanup func()
}

// Close releases resources associated with the harness.
func (h *SQLiteHarness) Close() {
	if h != nil && h.cleanup != nil {
		h.cleanup()
		h.cleanup = nil
	}
}

// NewSQLiteHarness constructs a migrated SQLiteHarness over a temporary file.
// Callers may invoke Close, but the helper also registers a cleanup callback
// with the provided testing.TB.
func NewSQLiteHarness(tb testing.TB) *SQLiteHarness {
	tb.Helper()

	path := filepath.Join(tb.TempDir(), "scheduler.db")

	pool, err := sqlite.NewConnectionPool("file:" + path + "?_foreign_keys=on")
	if err != nil {
		tb.Fatalf("failed to open storage: %v", err)
	}

	if err := pool.Migrate(context.Background()); err != nil {
		_ = pool.Close()
		tb.Fatalf("failed to migrate storage: %v", err)
	}

	harness := &SQLiteHarness{
		Users:     sqlite.NewUserRepository(pool),
		Schedules: sqlite.NewScheduleRepository(pool),
		Groups:    sqlite.NewGroupRepository(pool),
		cleanup: func() {
			_ = pool.Close()
		},
	}

	tb.Cleanup(harness.Close)
	return harness
}
