package application

import (
	"context"
	"errors"
	"testing"
	"time"
)

type scheduleRepoStub struct {
	created    []Schedule
	batches    [][]Schedule
	updated    []Schedule
	schedule   Schedule
	list       []Schedule
	lastFilter ScheduleRepositoryFilter
	getErr     error
	createErr  error
	insertErr  error
	deleteErr  error
	listErr    error
	// failAfter allows this many successful creates before createErr applies.
	failAfter int
}

func (s *scheduleRepoStub) CreateSchedule(ctx context.Context, schedule Schedule) (Schedule, error) {
	if s.createErr != nil && len(s.created) >= s.failAfter {
		return Schedule{}, s.createErr
	}
	s.created = append(s.created, schedule)
	return schedule, nil
}

func (s *scheduleRepoStub) InsertSchedules(ctx context.Context, schedules []Schedule) ([]Schedule, error) {
	if s.insertErr != nil {
		return nil, s.insertErr
	}
	batch := make([]Schedule, len(schedules))
	copy(batch, schedules)
	s.batches = append(s.batches, batch)
	return batch, nil
}

func (s *scheduleRepoStub) GetSchedule(ctx context.Context, id string) (Schedule, error) {
	if s.getErr != nil {
		return Schedule{}, s.getErr
	}
	if s.schedule.ID == "" {
		return Schedule{}, ErrNotFound
	}
	return s.schedule, nil
}

func (s *scheduleRepoStub) UpdateSchedule(ctx context.Context, schedule Schedule) (Schedule, error) {
	s.updated = append(s.updated, schedule)
	return schedule, nil
}

func (s *scheduleRepoStub) DeleteSchedule(ctx context.Context, id string) error {
	return s.deleteErr
}

func (s *scheduleRepoStub) ListSchedules(ctx context.Context, filter ScheduleRepositoryFilter) ([]Schedule, error) {
	s.lastFilter = filter
	if s.listErr != nil {
		return nil, s.listErr
	}
	out := make([]Schedule, len(s.list))
	copy(out, s.list)
	return out, nil
}

type userDirectoryStub struct {
	byEmail map[string]User
	byID    map[string]User
	err     error
}

func (u *userDirectoryStub) FindUserByEmail(ctx context.Context, email string) (User, error) {
	if u.err != nil {
		return User{}, u.err
	}
	if user, ok := u.byEmail[email]; ok {
		return user, nil
	}
	return User{}, ErrNotFound
}

func (u *userDirectoryStub) FindUserByID(ctx context.Context, id string) (User, error) {
	if u.err != nil {
		return User{}, u.err
	}
	if user, ok := u.byID[id]; ok {
		return user, nil
	}
	return User{}, ErrNotFound
}

func at(day, hour int) time.Time {
	return time.Date(2024, time.March, day, hour, 0, 0, 0, time.UTC)
}

func fixedNow() time.Time {
	return time.Date(2024, time.February, 1, 12, 0, 0, 0, time.UTC)
}

func sequentialIDs(prefix string) func() string {
	counter := 0
	return func() string {
		counter++
		return prefix + "-" + string(rune('0'+counter))
	}
}

func TestScheduleService_CreateSchedule_ValidatesTemporalBounds(t *testing.T) {
	t.Parallel()

	repo := &scheduleRepoStub{}
	svc := NewScheduleService(repo, func() string { return "schedule-1" }, fixedNow)

	_, err := svc.CreateSchedule(context.Background(), CreateScheduleParams{
		Principal: Principal{UserID: "user-1"},
		Input: ScheduleInput{
			Title: "Cálculo Diferencial",
			Type:  "Clase",
			Start: at(14, 10),
			End:   at(14, 9),
		},
	})

	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if _, ok := vErr.FieldErrors["time"]; !ok {
		t.Fatalf("expected time validation error, got %v", vErr.FieldErrors)
	}
	if len(repo.created) != 0 {
		t.Fatalf("no schedule should be persisted on validation failure")
	}
}

func TestScheduleService_CreateSchedule_ValidatesRequiredFields(t *testing.T) {
	t.Parallel()

	svc := NewScheduleService(&scheduleRepoStub{}, nil, fixedNow)

	_, err := svc.CreateSchedule(context.Background(), CreateScheduleParams{
		Principal: Principal{UserID: "user-1"},
		Input: ScheduleInput{
			Start: at(14, 9),
			End:   at(14, 10),
		},
	})

	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	for _, field := range []string{"title", "type"} {
		if _, ok := vErr.FieldErrors[field]; !ok {
			t.Errorf("expected %s validation error, got %v", field, vErr.FieldErrors)
		}
	}
}

func TestScheduleService_CreateSchedule_PersistsOwnerFromPrincipal(t *testing.T) {
	t.Parallel()

	repo := &scheduleRepoStub{}
	svc := NewScheduleService(repo, func() string { return "schedule-1" }, fixedNow)

	created, err := svc.CreateSchedule(context.Background(), CreateScheduleParams{
		Principal: Principal{UserID: "user-1"},
		Input: ScheduleInput{
			Title:   "  Cálculo Diferencial  ",
			Type:    "Clase",
			Start:   at(14, 9),
			End:     at(14, 10),
			Details: ScheduleDetails{Professor: "Dra. Ramírez"},
		},
	})
	if err != nil {
		t.Fatalf("CreateSchedule failed: %v", err)
	}

	if created.ID != "schedule-1" {
		t.Errorf("expected generated id, got %q", created.ID)
	}
	if created.UserID != "user-1" {
		t.Errorf("expected owner user-1, got %q", created.UserID)
	}
	if created.Title != "Cálculo Diferencial" {
		t.Errorf("expected trimmed title, got %q", created.Title)
	}
	if !created.CreatedAt.Equal(fixedNow()) {
		t.Errorf("expected fixed creation time, got %v", created.CreatedAt)
	}
	if len(repo.created) != 1 {
		t.Fatalf("expected one persisted schedule, got %d", len(repo.created))
	}
}

func TestScheduleService_CreateRecurringSchedule_RequiresDaysAndBounds(t *testing.T) {
	t.Parallel()

	svc := NewScheduleService(&scheduleRepoStub{}, nil, fixedNow)

	_, err := svc.CreateRecurringSchedule(context.Background(), CreateRecurringScheduleParams{
		Principal: Principal{UserID: "user-1"},
		Input: RecurringScheduleInput{
			Title: "Física II",
			Type:  "Clase",
			Start: at(14, 9),
			End:   at(14, 10),
		},
	})

	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	for _, field := range []string{"days", "semester_start", "semester_end"} {
		if _, ok := vErr.FieldErrors[field]; !ok {
			t.Errorf("expected %s validation error, got %v", field, vErr.FieldErrors)
		}
	}
}

func TestScheduleService_CreateRecurringSchedule_ExpandsWeeklyPattern(t *testing.T) {
	t.Parallel()

	repo := &scheduleRepoStub{}
	svc := NewScheduleService(repo, sequentialIDs("schedule"), fixedNow)

	// 2024-01-01 is a Monday.
	semStart := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	semEnd := time.Date(2024, time.January, 10, 0, 0, 0, 0, time.UTC)

	batch, err := svc.CreateRecurringSchedule(context.Background(), CreateRecurringScheduleParams{
		Principal: Principal{UserID: "user-1"},
		Input: RecurringScheduleInput{
			Title:         "Física II",
			Type:          "Clase",
			Start:         time.Date(2024, time.January, 1, 8, 0, 0, 0, time.UTC),
			End:           time.Date(2024, time.January, 1, 10, 0, 0, 0, time.UTC),
			Days:          []time.Weekday{time.Wednesday, time.Monday, time.Monday},
			SemesterStart: semStart,
			SemesterEnd:   semEnd,
		},
	})
	if err != nil {
		t.Fatalf("CreateRecurringSchedule failed: %v", err)
	}

	// Mondays: Jan 1, 8. Wednesdays: Jan 3, 10.
	wantDays := []int{1, 3, 8, 10}
	if len(batch) != len(wantDays) {
		t.Fatalf("expected %d occurrences, got %d", len(wantDays), len(batch))
	}
	seenIDs := make(map[string]struct{})
	for i, occurrence := range batch {
		if occurrence.Start.Day() != wantDays[i] {
			t.Errorf("occurrence %d: expected day %d, got %d", i, wantDays[i], occurrence.Start.Day())
		}
		if occurrence.Start.Hour() != 8 || occurrence.End.Hour() != 10 {
			t.Errorf("occurrence %d: expected 08:00-10:00, got %v-%v", i, occurrence.Start, occurrence.End)
		}
		if occurrence.UserID != "user-1" {
			t.Errorf("occurrence %d: expected owner user-1, got %q", i, occurrence.UserID)
		}
		if len(occurrence.Days) != 2 || occurrence.Days[0] != time.Monday || occurrence.Days[1] != time.Wednesday {
			t.Errorf("occurrence %d: expected deduped sorted days, got %v", i, occurrence.Days)
		}
		if occurrence.SemesterStart == nil || !occurrence.SemesterStart.Equal(semStart) {
			t.Errorf("occurrence %d: missing semester start", i)
		}
		if _, dup := seenIDs[occurrence.ID]; dup {
			t.Errorf("occurrence %d: duplicate id %q", i, occurrence.ID)
		}
		seenIDs[occurrence.ID] = struct{}{}
	}
	if len(repo.batches) != 1 {
		t.Fatalf("expected a single batch insert, got %d", len(repo.batches))
	}
}

func TestScheduleService_CreateRecurringSchedule_EmptyExpansion(t *testing.T) {
	t.Parallel()

	repo := &scheduleRepoStub{}
	svc := NewScheduleService(repo, sequentialIDs("schedule"), fixedNow)

	// Monday through Friday contains no Saturday.
	batch, err := svc.CreateRecurringSchedule(context.Background(), CreateRecurringScheduleParams{
		Principal: Principal{UserID: "user-1"},
		Input: RecurringScheduleInput{
			Title:         "Física II",
			Type:          "Clase",
			Start:         time.Date(2024, time.January, 1, 8, 0, 0, 0, time.UTC),
			End:           time.Date(2024, time.January, 1, 10, 0, 0, 0, time.UTC),
			Days:          []time.Weekday{time.Saturday},
			SemesterStart: time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
			SemesterEnd:   time.Date(2024, time.January, 5, 0, 0, 0, 0, time.UTC),
		},
	})
	if err != nil {
		t.Fatalf("CreateRecurringSchedule failed: %v", err)
	}
	if len(batch) != 0 {
		t.Fatalf("expected empty batch, got %d occurrences", len(batch))
	}
	if len(repo.batches) != 0 {
		t.Fatalf("repository must not be called for an empty expansion")
	}
}

func TestScheduleService_UpdateSchedule_RejectsForeignOwner(t *testing.T) {
	t.Parallel()

	repo := &scheduleRepoStub{schedule: Schedule{
		ID:     "schedule-1",
		Title:  "Cálculo Diferencial",
		Type:   "Clase",
		Start:  at(14, 9),
		End:    at(14, 10),
		UserID: "user-1",
	}}
	svc := NewScheduleService(repo, nil, fixedNow)

	_, err := svc.UpdateSchedule(context.Background(), UpdateScheduleParams{
		Principal:  Principal{UserID: "user-2"},
		ScheduleID: "schedule-1",
		Patch:      SchedulePatch{},
	})
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if len(repo.updated) != 0 {
		t.Fatalf("no update should reach persistence")
	}
}

func TestScheduleService_UpdateSchedule_AppliesPatchAndKeepsOwner(t *testing.T) {
	t.Parallel()

	repo := &scheduleRepoStub{schedule: Schedule{
		ID:      "schedule-1",
		Title:   "Cálculo Diferencial",
		Type:    "Clase",
		Start:   at(14, 9),
		End:     at(14, 10),
		Details: ScheduleDetails{Professor: "Dra. Ramírez"},
		UserID:  "user-1",
	}}
	svc := NewScheduleService(repo, nil, fixedNow)

	newTitle := "Cálculo Integral"
	newEnd := at(14, 11)
	updated, err := svc.UpdateSchedule(context.Background(), UpdateScheduleParams{
		Principal:  Principal{UserID: "user-1"},
		ScheduleID: "schedule-1",
		Patch:      SchedulePatch{Title: &newTitle, End: &newEnd},
	})
	if err != nil {
		t.Fatalf("UpdateSchedule failed: %v", err)
	}

	if updated.Title != "Cálculo Integral" {
		t.Errorf("expected patched title, got %q", updated.Title)
	}
	if !updated.End.Equal(newEnd) {
		t.Errorf("expected patched end, got %v", updated.End)
	}
	if updated.Type != "Clase" || updated.Details.Professor != "Dra. Ramírez" {
		t.Errorf("unpatched fields must be preserved: %+v", updated)
	}
	if updated.UserID != "user-1" {
		t.Errorf("owner must not change, got %q", updated.UserID)
	}
}

func TestScheduleService_UpdateSchedule_ValidatesPatchedTimes(t *testing.T) {
	t.Parallel()

	repo := &scheduleRepoStub{schedule: Schedule{
		ID:     "schedule-1",
		Title:  "Cálculo Diferencial",
		Type:   "Clase",
		Start:  at(14, 9),
		End:    at(14, 10),
		UserID: "user-1",
	}}
	svc := NewScheduleService(repo, nil, fixedNow)

	badStart := at(14, 11)
	_, err := svc.UpdateSchedule(context.Background(), UpdateScheduleParams{
		Principal:  Principal{UserID: "user-1"},
		ScheduleID: "schedule-1",
		Patch:      SchedulePatch{Start: &badStart},
	})

	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if _, ok := vErr.FieldErrors["time"]; !ok {
		t.Fatalf("expected time validation error, got %v", vErr.FieldErrors)
	}
}

func TestScheduleService_DeleteSchedule_NotFound(t *testing.T) {
	t.Parallel()

	svc := NewScheduleService(&scheduleRepoStub{}, nil, fixedNow)

	err := svc.DeleteSchedule(context.Background(), Principal{UserID: "user-1"}, "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestScheduleService_DeleteSchedule_RejectsForeignOwner(t *testing.T) {
	t.Parallel()

	repo := &scheduleRepoStub{schedule: Schedule{ID: "schedule-1", UserID: "user-1"}}
	svc := NewScheduleService(repo, nil, fixedNow)

	err := svc.DeleteSchedule(context.Background(), Principal{UserID: "user-2"}, "schedule-1")
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestScheduleService_ListSchedules_OrdersByStartThenID(t *testing.T) {
	t.Parallel()

	repo := &scheduleRepoStub{list: []Schedule{
		{ID: "b", Start: at(15, 9), UserID: "user-1"},
		{ID: "c", Start: at(14, 9), UserID: "user-1"},
		{ID: "a", Start: at(15, 9), UserID: "user-1"},
	}}
	svc := NewScheduleService(repo, nil, fixedNow)

	startsAfter := at(14, 0)
	listed, err := svc.ListSchedules(context.Background(), ListSchedulesParams{
		Principal:   Principal{UserID: "user-1"},
		StartsAfter: &startsAfter,
	})
	if err != nil {
		t.Fatalf("ListSchedules failed: %v", err)
	}

	gotOrder := []string{listed[0].ID, listed[1].ID, listed[2].ID}
	wantOrder := []string{"c", "a", "b"}
	for i := range wantOrder {
		if gotOrder[i] != wantOrder[i] {
			t.Fatalf("expected order %v, got %v", wantOrder, gotOrder)
		}
	}
	if repo.lastFilter.UserID != "user-1" {
		t.Errorf("expected owner filter, got %q", repo.lastFilter.UserID)
	}
	if repo.lastFilter.StartsAfter == nil || !repo.lastFilter.StartsAfter.Equal(startsAfter) {
		t.Errorf("expected range pushed to repository, got %+v", repo.lastFilter)
	}
}
