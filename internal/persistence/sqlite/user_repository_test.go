package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/campus-scheduler/internal/persistence"
)

func TestUserRepository_CreateAndGet(t *testing.T) {
	pool := setupPool(t)
	repo := NewUserRepository(pool)
	ctx := context.Background()

	now := time.Date(2024, time.February, 1, 12, 0, 0, 0, time.UTC)
	user := persistence.User{
		ID:           "user1",
		Email:        "ana@ucaldas.edu.co",
		Name:         "Ana Gómez",
		Career:       "Ingeniería de Sistemas",
		PasswordHash: "$argon2id$v=19$m=65536,t=1,p=4$c2FsdA$aGFzaA",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := repo.CreateUser(ctx, user); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	got, err := repo.GetUser(ctx, "user1")
	if err != nil {
		t.Fatalf("GetUser failed: %v", err)
	}
	if got.Email != user.Email || got.Name != user.Name || got.Career != user.Career {
		t.Errorf("user mismatch: %+v", got)
	}
	if got.PasswordHash != user.PasswordHash {
		t.Errorf("password hash mismatch")
	}
	if !got.CreatedAt.Equal(now) {
		t.Errorf("created at mismatch: %v", got.CreatedAt)
	}
}

func TestUserRepository_GetByEmail(t *testing.T) {
	pool := setupPool(t)
	repo := NewUserRepository(pool)
	ctx := context.Background()

	createTestUser(t, pool, "user1", "ana@ucaldas.edu.co")

	got, err := repo.GetUserByEmail(ctx, "ana@ucaldas.edu.co")
	if err != nil {
		t.Fatalf("GetUserByEmail failed: %v", err)
	}
	if got.ID != "user1" {
		t.Errorf("expected user1, got %s", got.ID)
	}

	// Email comparison ignores case.
	got, err = repo.GetUserByEmail(ctx, "ANA@UCALDAS.EDU.CO")
	if err != nil {
		t.Fatalf("GetUserByEmail (upper) failed: %v", err)
	}
	if got.ID != "user1" {
		t.Errorf("expected user1 for case-insensitive lookup, got %s", got.ID)
	}

	if _, err := repo.GetUserByEmail(ctx, "nadie@ucaldas.edu.co"); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUserRepository_DuplicateEmail(t *testing.T) {
	pool := setupPool(t)
	repo := NewUserRepository(pool)
	ctx := context.Background()

	createTestUser(t, pool, "user1", "ana@ucaldas.edu.co")

	now := time.Now().UTC()
	err := repo.CreateUser(ctx, persistence.User{
		ID:           "user2",
		Email:        "Ana@ucaldas.edu.co",
		Name:         "Otra Ana",
		Career:       "Medicina",
		PasswordHash: "x",
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if !errors.Is(err, persistence.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}

func TestUserRepository_ListUsers(t *testing.T) {
	pool := setupPool(t)
	repo := NewUserRepository(pool)
	ctx := context.Background()

	createTestUser(t, pool, "user2", "luis@ucaldas.edu.co")
	createTestUser(t, pool, "user1", "ana@ucaldas.edu.co")

	users, err := repo.ListUsers(ctx)
	if err != nil {
		t.Fatalf("ListUsers failed: %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("expected 2 users, got %d", len(users))
	}
	// Ordered by email.
	if users[0].Email != "ana@ucaldas.edu.co" || users[1].Email != "luis@ucaldas.edu.co" {
		t.Errorf("unexpected order: %s, %s", users[0].Email, users[1].Email)
	}
}
