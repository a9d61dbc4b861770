package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/example/campus-scheduler/internal/persistence"
	"github.com/example/campus-scheduler/internal/recurrence"
)

// ScheduleRepository captures the persistence interactions needed by the service.
type ScheduleRepository interface {
	CreateSchedule(ctx context.Context, schedule Schedule) (Schedule, error)
	InsertSchedules(ctx context.Context, schedules []Schedule) ([]Schedule, error)
	GetSchedule(ctx context.Context, id string) (Schedule, error)
	UpdateSchedule(ctx context.Context, schedule Schedule) (Schedule, error)
	DeleteSchedule(ctx context.Context, id string) error
	ListSchedules(ctx context.Context, filter ScheduleRepositoryFilter) ([]Schedule, error)
}

// ScheduleRepositoryFilter narrows queries issued to the schedule repository.
type ScheduleRepositoryFilter struct {
	UserID      string
	StartsAfter *time.Time
	EndsBefore  *time.Time
}

// ScheduleService orchestrates validation and persistence for calendar events.
type ScheduleService struct {
	schedules   ScheduleRepository
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewScheduleService wires dependencies for schedule operations.
func NewScheduleService(schedules ScheduleRepository, idGenerator func() string, now func() time.Time) *ScheduleService {
	return NewScheduleServiceWithLogger(schedules, idGenerator, now, nil)
}

// NewScheduleServiceWithLogger wires dependencies together with a base logger.
func NewScheduleServiceWithLogger(schedules ScheduleRepository, idGenerator func() string, now func() time.Time, logger *slog.Logger) *ScheduleService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &ScheduleService{
		schedules:   schedules,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

// CreateSchedule validates the request before persisting a single event.
func (s *ScheduleService) CreateSchedule(ctx context.Context, params CreateScheduleParams) (Schedule, error) {
	if s == nil {
		return Schedule{}, fmt.Errorf("ScheduleService is nil")
	}
	logger := serviceLogger(ctx, s.logger, "ScheduleService", "CreateSchedule", "user_id", params.Principal.UserID)

	input := params.Input

	vErr := &ValidationError{}
	validateEventCore(input.Title, input.Type, input.Start, input.End, vErr)
	if vErr.HasErrors() {
		logger.Warn("schedule validation failed", "fields", vErr.FieldErrors)
		return Schedule{}, vErr
	}

	createdAt := s.now()
	schedule := Schedule{
		ID:        s.idGenerator(),
		Title:     strings.TrimSpace(input.Title),
		Type:      input.Type,
		Start:     input.Start,
		End:       input.End,
		Details:   input.Details,
		UserID:    params.Principal.UserID,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}

	persisted, err := s.schedules.CreateSchedule(ctx, schedule)
	if err != nil {
		err = mapScheduleRepoError(err)
		logger.Error("schedule create failed", "error", err, "error_kind", ErrorKind(err))
		return Schedule{}, err
	}

	logger.Info("schedule created", "schedule_id", persisted.ID)
	return persisted, nil
}

// CreateRecurringSchedule expands a weekly pattern across semester bounds and
// persists the resulting events as a single batch. An expansion that produces
// no dates is not an error; the batch is simply empty.
func (s *ScheduleService) CreateRecurringSchedule(ctx context.Context, params CreateRecurringScheduleParams) ([]Schedule, error) {
	if s == nil {
		return nil, fmt.Errorf("ScheduleService is nil")
	}
	logger := serviceLogger(ctx, s.logger, "ScheduleService", "CreateRecurringSchedule", "user_id", params.Principal.UserID)

	input := params.Input

	vErr := &ValidationError{}
	validateEventCore(input.Title, input.Type, input.Start, input.End, vErr)
	if len(input.Days) == 0 {
		vErr.add("days", "at least one weekday is required")
	}
	if input.SemesterStart.IsZero() {
		vErr.add("semester_start", "semester start is required")
	}
	if input.SemesterEnd.IsZero() {
		vErr.add("semester_end", "semester end is required")
	}
	if vErr.HasErrors() {
		logger.Warn("schedule validation failed", "fields", vErr.FieldErrors)
		return nil, vErr
	}

	days := recurrence.UniqueWeekdays(input.Days)
	dates := recurrence.Expand(days, input.SemesterStart, input.SemesterEnd)
	if len(dates) == 0 {
		logger.Info("recurring expansion produced no occurrences")
		return []Schedule{}, nil
	}

	createdAt := s.now()
	semStart := input.SemesterStart
	semEnd := input.SemesterEnd
	batch := make([]Schedule, 0, len(dates))
	for _, date := range dates {
		batch = append(batch, Schedule{
			ID:            s.idGenerator(),
			Title:         strings.TrimSpace(input.Title),
			Type:          input.Type,
			Start:         recurrence.Compose(date, input.Start),
			End:           recurrence.Compose(date, input.End),
			Days:          days,
			SemesterStart: &semStart,
			SemesterEnd:   &semEnd,
			Details:       input.Details,
			UserID:        params.Principal.UserID,
			CreatedAt:     createdAt,
			UpdatedAt:     createdAt,
		})
	}

	persisted, err := s.schedules.InsertSchedules(ctx, batch)
	if err != nil {
		err = mapScheduleRepoError(err)
		logger.Error("schedule batch insert failed", "error", err, "error_kind", ErrorKind(err))
		return nil, err
	}

	logger.Info("recurring schedule created", "occurrences", len(persisted))
	return persisted, nil
}

// UpdateSchedule applies authorization and validation before updating an event.
func (s *ScheduleService) UpdateSchedule(ctx context.Context, params UpdateScheduleParams) (Schedule, error) {
	if s == nil {
		return Schedule{}, fmt.Errorf("ScheduleService is nil")
	}
	logger := serviceLogger(ctx, s.logger, "ScheduleService", "UpdateSchedule",
		"user_id", params.Principal.UserID, "schedule_id", params.ScheduleID)

	existing, err := s.schedules.GetSchedule(ctx, params.ScheduleID)
	if err != nil {
		err = mapScheduleRepoError(err)
		logger.Warn("schedule lookup failed", "error", err, "error_kind", ErrorKind(err))
		return Schedule{}, err
	}

	if existing.UserID != params.Principal.UserID {
		logger.Warn("schedule update rejected", "error_kind", ErrorKind(ErrUnauthorized))
		return Schedule{}, ErrUnauthorized
	}

	updated := existing
	patch := params.Patch
	if patch.Title != nil {
		updated.Title = strings.TrimSpace(*patch.Title)
	}
	if patch.Type != nil {
		updated.Type = *patch.Type
	}
	if patch.Start != nil {
		updated.Start = *patch.Start
	}
	if patch.End != nil {
		updated.End = *patch.End
	}
	if patch.Details != nil {
		updated.Details = *patch.Details
	}
	updated.UserID = existing.UserID
	updated.UpdatedAt = s.now()

	vErr := &ValidationError{}
	validateEventCore(updated.Title, updated.Type, updated.Start, updated.End, vErr)
	if vErr.HasErrors() {
		logger.Warn("schedule validation failed", "fields", vErr.FieldErrors)
		return Schedule{}, vErr
	}

	persisted, err := s.schedules.UpdateSchedule(ctx, updated)
	if err != nil {
		err = mapScheduleRepoError(err)
		logger.Error("schedule update failed", "error", err, "error_kind", ErrorKind(err))
		return Schedule{}, err
	}

	logger.Info("schedule updated")
	return persisted, nil
}

// DeleteSchedule ensures the caller owns the event before removing it.
func (s *ScheduleService) DeleteSchedule(ctx context.Context, principal Principal, scheduleID string) error {
	if s == nil {
		return fmt.Errorf("ScheduleService is nil")
	}
	logger := serviceLogger(ctx, s.logger, "ScheduleService", "DeleteSchedule",
		"user_id", principal.UserID, "schedule_id", scheduleID)

	existing, err := s.schedules.GetSchedule(ctx, scheduleID)
	if err != nil {
		err = mapScheduleRepoError(err)
		logger.Warn("schedule lookup failed", "error", err, "error_kind", ErrorKind(err))
		return err
	}

	if existing.UserID != principal.UserID {
		logger.Warn("schedule delete rejected", "error_kind", ErrorKind(ErrUnauthorized))
		return ErrUnauthorized
	}

	if err := s.schedules.DeleteSchedule(ctx, scheduleID); err != nil {
		err = mapScheduleRepoError(err)
		logger.Error("schedule delete failed", "error", err, "error_kind", ErrorKind(err))
		return err
	}

	logger.Info("schedule deleted")
	return nil
}

// ListSchedules enumerates the requesting user's events ordered by start time.
func (s *ScheduleService) ListSchedules(ctx context.Context, params ListSchedulesParams) ([]Schedule, error) {
	if s == nil {
		return nil, fmt.Errorf("ScheduleService is nil")
	}
	logger := serviceLogger(ctx, s.logger, "ScheduleService", "ListSchedules", "user_id", params.Principal.UserID)

	filter := ScheduleRepositoryFilter{
		UserID:      params.Principal.UserID,
		StartsAfter: params.StartsAfter,
		EndsBefore:  params.EndsBefore,
	}

	schedules, err := s.schedules.ListSchedules(ctx, filter)
	if err != nil {
		if isNotFoundError(err) {
			return nil, nil
		}
		logger.Error("schedule list failed", "error", err, "error_kind", ErrorKind(err))
		return nil, err
	}

	ordered := make([]Schedule, len(schedules))
	copy(ordered, schedules)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Start.Equal(ordered[j].Start) {
			return ordered[i].ID < ordered[j].ID
		}
		return ordered[i].Start.Before(ordered[j].Start)
	})

	return ordered, nil
}

func validateEventCore(title, eventType string, start, end time.Time, vErr *ValidationError) {
	if strings.TrimSpace(title) == "" {
		vErr.add("title", "title is required")
	}
	if strings.TrimSpace(eventType) == "" {
		vErr.add("type", "type is required")
	}
	if start.IsZero() {
		vErr.add("start", "start is required")
	}
	if end.IsZero() {
		vErr.add("end", "end is required")
	}
	if !start.IsZero() && !end.IsZero() && !start.Before(end) {
		vErr.add("time", "start must be before end")
	}
}

func mapScheduleRepoError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, persistence.ErrNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, persistence.ErrConstraintViolation) {
		vErr := &ValidationError{}
		vErr.add("time", "start must be before end")
		return vErr
	}
	if errors.Is(err, persistence.ErrForeignKeyViolation) {
		vErr := &ValidationError{}
		vErr.add("user_id", "related records are missing")
		return vErr
	}
	return err
}

func isNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, persistence.ErrNotFound)
}
