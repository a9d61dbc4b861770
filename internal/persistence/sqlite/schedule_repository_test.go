package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/campus-scheduler/internal/persistence"
)

func testSchedule(id, userID string, start, end time.Time) persistence.Schedule {
	now := time.Date(2024, time.February, 1, 12, 0, 0, 0, time.UTC)
	return persistence.Schedule{
		ID:        id,
		Title:     "Cálculo Diferencial",
		Type:      "class",
		Start:     start,
		End:       end,
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestScheduleRepository_CreateAndGet(t *testing.T) {
	pool := setupPool(t)
	repo := NewScheduleRepository(pool)
	ctx := context.Background()

	createTestUser(t, pool, "user1", "ana@ucaldas.edu.co")

	start := time.Date(2024, time.March, 4, 8, 0, 0, 0, time.UTC)
	semStart := time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC)
	semEnd := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)

	schedule := testSchedule("sched1", "user1", start, start.Add(2*time.Hour))
	schedule.Days = []time.Weekday{time.Monday, time.Wednesday}
	schedule.SemesterStart = &semStart
	schedule.SemesterEnd = &semEnd
	schedule.Details = persistence.ScheduleDetails{
		Professor: "Dra. Ramírez",
		Classroom: "Bloque C 301",
		Notes:     "Llevar taller resuelto",
	}

	if err := repo.CreateSchedule(ctx, schedule); err != nil {
		t.Fatalf("CreateSchedule failed: %v", err)
	}

	got, err := repo.GetSchedule(ctx, "sched1")
	if err != nil {
		t.Fatalf("GetSchedule failed: %v", err)
	}
	if got.Title != schedule.Title || got.Type != schedule.Type {
		t.Errorf("title/type mismatch: %+v", got)
	}
	if !got.Start.Equal(schedule.Start) || !got.End.Equal(schedule.End) {
		t.Errorf("time mismatch: got %v - %v", got.Start, got.End)
	}
	if got.UserID != "user1" {
		t.Errorf("expected owner user1, got %s", got.UserID)
	}
	if len(got.Days) != 2 || got.Days[0] != time.Monday || got.Days[1] != time.Wednesday {
		t.Errorf("days mismatch: %v", got.Days)
	}
	if got.SemesterStart == nil || !got.SemesterStart.Equal(semStart) {
		t.Errorf("semester start mismatch: %v", got.SemesterStart)
	}
	if got.Details.Professor != "Dra. Ramírez" || got.Details.Notes != "Llevar taller resuelto" {
		t.Errorf("details mismatch: %+v", got.Details)
	}
}

func TestScheduleRepository_GetMissing(t *testing.T) {
	pool := setupPool(t)
	repo := NewScheduleRepository(pool)

	if _, err := repo.GetSchedule(context.Background(), "nope"); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestScheduleRepository_InsertSchedules_AllOrNothing(t *testing.T) {
	pool := setupPool(t)
	repo := NewScheduleRepository(pool)
	ctx := context.Background()

	createTestUser(t, pool, "user1", "ana@ucaldas.edu.co")

	start := time.Date(2024, time.March, 5, 10, 0, 0, 0, time.UTC)
	batch := []persistence.Schedule{
		testSchedule("batch1", "user1", start, start.Add(time.Hour)),
		testSchedule("batch2", "user1", start.AddDate(0, 0, 2), start.AddDate(0, 0, 2).Add(time.Hour)),
		// Duplicate ID forces the batch to fail.
		testSchedule("batch1", "user1", start.AddDate(0, 0, 7), start.AddDate(0, 0, 7).Add(time.Hour)),
	}

	err := repo.InsertSchedules(ctx, batch)
	if !errors.Is(err, persistence.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}

	// Nothing from the failed batch may remain.
	stored, err := repo.ListSchedules(ctx, persistence.ScheduleFilter{UserID: "user1"})
	if err != nil {
		t.Fatalf("ListSchedules failed: %v", err)
	}
	if len(stored) != 0 {
		t.Fatalf("expected empty store after failed batch, got %d records", len(stored))
	}

	// The same batch without the duplicate persists fully.
	if err := repo.InsertSchedules(ctx, batch[:2]); err != nil {
		t.Fatalf("InsertSchedules failed: %v", err)
	}
	stored, err = repo.ListSchedules(ctx, persistence.ScheduleFilter{UserID: "user1"})
	if err != nil {
		t.Fatalf("ListSchedules failed: %v", err)
	}
	if len(stored) != 2 {
		t.Fatalf("expected 2 records, got %d", len(stored))
	}
}

func TestScheduleRepository_ListSchedules_RangePushdown(t *testing.T) {
	pool := setupPool(t)
	repo := NewScheduleRepository(pool)
	ctx := context.Background()

	createTestUser(t, pool, "user1", "ana@ucaldas.edu.co")
	createTestUser(t, pool, "user2", "luis@ucaldas.edu.co")

	day := time.Date(2024, time.March, 4, 0, 0, 0, 0, time.UTC)
	mk := func(id string, owner string, startHour, endHour int) persistence.Schedule {
		return testSchedule(id, owner, day.Add(time.Duration(startHour)*time.Hour), day.Add(time.Duration(endHour)*time.Hour))
	}

	for _, s := range []persistence.Schedule{
		mk("early", "user1", 6, 8),
		mk("touching", "user1", 8, 10),   // ends exactly at range start
		mk("inside", "user1", 11, 12),    // fully inside
		mk("containing", "user1", 9, 15), // strictly contains the range
		mk("after", "user1", 14, 16),     // starts exactly at range end
		mk("other-owner", "user2", 11, 12),
	} {
		if err := repo.CreateSchedule(ctx, s); err != nil {
			t.Fatalf("CreateSchedule(%s) failed: %v", s.ID, err)
		}
	}

	rangeStart := day.Add(10 * time.Hour)
	rangeEnd := day.Add(14 * time.Hour)

	got, err := repo.ListSchedules(ctx, persistence.ScheduleFilter{
		UserID:      "user1",
		StartsAfter: &rangeStart,
		EndsBefore:  &rangeEnd,
	})
	if err != nil {
		t.Fatalf("ListSchedules failed: %v", err)
	}

	if len(got) != 2 {
		t.Fatalf("expected 2 overlapping schedules, got %d: %v", len(got), got)
	}
	// Ordered by start time: containing (9h) before inside (11h).
	if got[0].ID != "containing" || got[1].ID != "inside" {
		t.Fatalf("unexpected overlap set: %s, %s", got[0].ID, got[1].ID)
	}
}

func TestScheduleRepository_UpdatePreservesOwner(t *testing.T) {
	pool := setupPool(t)
	repo := NewScheduleRepository(pool)
	ctx := context.Background()

	createTestUser(t, pool, "user1", "ana@ucaldas.edu.co")
	createTestUser(t, pool, "user2", "luis@ucaldas.edu.co")

	start := time.Date(2024, time.March, 4, 8, 0, 0, 0, time.UTC)
	if err := repo.CreateSchedule(ctx, testSchedule("sched1", "user1", start, start.Add(time.Hour))); err != nil {
		t.Fatalf("CreateSchedule failed: %v", err)
	}

	updated := testSchedule("sched1", "user2", start, start.Add(2*time.Hour))
	updated.Title = "Cálculo Integral"
	if err := repo.UpdateSchedule(ctx, updated); err != nil {
		t.Fatalf("UpdateSchedule failed: %v", err)
	}

	got, err := repo.GetSchedule(ctx, "sched1")
	if err != nil {
		t.Fatalf("GetSchedule failed: %v", err)
	}
	if got.Title != "Cálculo Integral" {
		t.Errorf("expected updated title, got %s", got.Title)
	}
	if got.UserID != "user1" {
		t.Errorf("owner must not change on update, got %s", got.UserID)
	}
}

func TestScheduleRepository_Delete(t *testing.T) {
	pool := setupPool(t)
	repo := NewScheduleRepository(pool)
	ctx := context.Background()

	createTestUser(t, pool, "user1", "ana@ucaldas.edu.co")

	start := time.Date(2024, time.March, 4, 8, 0, 0, 0, time.UTC)
	schedule := testSchedule("sched1", "user1", start, start.Add(time.Hour))
	schedule.Days = []time.Weekday{time.Monday}
	if err := repo.CreateSchedule(ctx, schedule); err != nil {
		t.Fatalf("CreateSchedule failed: %v", err)
	}

	if err := repo.DeleteSchedule(ctx, "sched1"); err != nil {
		t.Fatalf("DeleteSchedule failed: %v", err)
	}
	if _, err := repo.GetSchedule(ctx, "sched1"); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if err := repo.DeleteSchedule(ctx, "sched1"); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for second delete, got %v", err)
	}
}

func TestScheduleRepository_CreateRejectsInvertedRange(t *testing.T) {
	pool := setupPool(t)
	repo := NewScheduleRepository(pool)
	ctx := context.Background()

	createTestUser(t, pool, "user1", "ana@ucaldas.edu.co")

	start := time.Date(2024, time.March, 4, 10, 0, 0, 0, time.UTC)
	err := repo.CreateSchedule(ctx, testSchedule("bad", "user1", start, start.Add(-time.Hour)))
	if !errors.Is(err, persistence.ErrConstraintViolation) {
		t.Fatalf("expected ErrConstraintViolation, got %v", err)
	}
}
