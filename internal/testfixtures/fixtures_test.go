package testfixtures

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/campus-scheduler/internal/persistence"
)

func TestFixturesRoundTripThroughSQLite(t *testing.T) {
	harness := NewSQLiteHarness(t)
	ctx := context.Background()

	owner := NewUserFixture(WithUserEmail("ana@ucaldas.edu.co"))
	if err := harness.Users.CreateUser(ctx, owner); err != nil {
		t.Fatalf("CreateUser returned error: %v", err)
	}

	schedule := NewScheduleFixture(owner.ID, WithScheduleDays(time.Monday, time.Wednesday))
	if err := harness.Schedules.CreateSchedule(ctx, schedule); err != nil {
		t.Fatalf("CreateSchedule returned error: %v", err)
	}

	group := NewGroupFixture(owner.ID, WithGroupSubject("Cálculo III"))
	if err := harness.Groups.CreateGroup(ctx, group); err != nil {
		t.Fatalf("CreateGroup returned error: %v", err)
	}

	storedUser, err := harness.Users.GetUserByEmail(ctx, "ana@ucaldas.edu.co")
	if err != nil {
		t.Fatalf("GetUserByEmail returned error: %v", err)
	}
	if storedUser.ID != owner.ID {
		t.Fatalf("expected user %q, got %q", owner.ID, storedUser.ID)
	}

	storedSchedule, err := harness.Schedules.GetSchedule(ctx, schedule.ID)
	if err != nil {
		t.Fatalf("GetSchedule returned error: %v", err)
	}
	if len(storedSchedule.Days) != 2 {
		t.Fatalf("expected weekday metadata to survive, got %v", storedSchedule.Days)
	}
	if storedSchedule.UserID != owner.ID {
		t.Fatalf("expected owner %q, got %q", owner.ID, storedSchedule.UserID)
	}

	storedGroup, err := harness.Groups.GetGroup(ctx, group.ID)
	if err != nil {
		t.Fatalf("GetGroup returned error: %v", err)
	}
	if storedGroup.Subject != "Cálculo III" {
		t.Fatalf("expected overridden subject, got %q", storedGroup.Subject)
	}
	if len(storedGroup.Members) != 1 || storedGroup.Members[0] != owner.ID {
		t.Fatalf("expected creator as sole member, got %v", storedGroup.Members)
	}
}

func TestFixturesProduceUniqueIdentifiers(t *testing.T) {
	first := NewUserFixture()
	second := NewUserFixture()
	if first.ID == second.ID {
		t.Fatalf("expected distinct user fixtures, both got %q", first.ID)
	}

	scheduleA := NewScheduleFixture(first.ID)
	scheduleB := NewScheduleFixture(first.ID)
	if scheduleA.ID == scheduleB.ID {
		t.Fatalf("expected distinct schedule fixtures, both got %q", scheduleA.ID)
	}
	if scheduleA.Start.Equal(scheduleB.Start) {
		t.Fatal("expected fixtures to occupy distinct time slots")
	}
}

func TestHarnessEnforcesForeignKeys(t *testing.T) {
	harness := NewSQLiteHarness(t)
	ctx := context.Background()

	schedule := NewScheduleFixture("missing-user")
	err := harness.Schedules.CreateSchedule(ctx, schedule)
	if !errors.Is(err, persistence.ErrForeignKeyViolation) {
		t.Fatalf("expected foreign key violation, got %v", err)
	}
}
