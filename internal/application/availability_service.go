package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/example/campus-scheduler/internal/availability"
)

// UserDirectory exposes user lookup operations.
type UserDirectory interface {
	FindUserByEmail(ctx context.Context, email string) (User, error)
	FindUserByID(ctx context.Context, id string) (User, error)
}

// AvailabilityService answers whether a user is free during a time range.
type AvailabilityService struct {
	users     UserDirectory
	schedules ScheduleRepository
	logger    *slog.Logger
}

// NewAvailabilityService wires dependencies for availability checks.
func NewAvailabilityService(users UserDirectory, schedules ScheduleRepository) *AvailabilityService {
	return NewAvailabilityServiceWithLogger(users, schedules, nil)
}

// NewAvailabilityServiceWithLogger wires dependencies together with a base logger.
func NewAvailabilityServiceWithLogger(users UserDirectory, schedules ScheduleRepository, logger *slog.Logger) *AvailabilityService {
	return &AvailabilityService{
		users:     users,
		schedules: schedules,
		logger:    defaultLogger(logger),
	}
}

// Check reports whether the identified user is free during the requested range
// and lists every event that collides with it.
func (s *AvailabilityService) Check(ctx context.Context, params AvailabilityParams) (AvailabilityResult, error) {
	if s == nil {
		return AvailabilityResult{}, fmt.Errorf("AvailabilityService is nil")
	}
	logger := serviceLogger(ctx, s.logger, "AvailabilityService", "Check",
		"user_id", params.UserID, "email", params.Email)

	vErr := &ValidationError{}
	if params.UserID == "" && strings.TrimSpace(params.Email) == "" {
		vErr.add("user", "a user id or email is required")
	}
	if params.Start.IsZero() {
		vErr.add("start", "start is required")
	}
	if params.End.IsZero() {
		vErr.add("end", "end is required")
	}
	if !params.Start.IsZero() && !params.End.IsZero() && !params.Start.Before(params.End) {
		vErr.add("time", "start must be before end")
	}
	if vErr.HasErrors() {
		logger.Warn("availability validation failed", "fields", vErr.FieldErrors)
		return AvailabilityResult{}, vErr
	}

	user, err := s.resolveUser(ctx, params)
	if err != nil {
		err = mapScheduleRepoError(err)
		logger.Warn("availability lookup failed", "error", err, "error_kind", ErrorKind(err))
		return AvailabilityResult{}, err
	}

	// Overlap is pushed down to the store: keep only events that end after the
	// range opens and start before it closes.
	startsAfter := params.Start
	endsBefore := params.End
	schedules, err := s.schedules.ListSchedules(ctx, ScheduleRepositoryFilter{
		UserID:      user.ID,
		StartsAfter: &startsAfter,
		EndsBefore:  &endsBefore,
	})
	if err != nil {
		if isNotFoundError(err) {
			schedules = nil
		} else {
			logger.Error("availability query failed", "error", err, "error_kind", ErrorKind(err))
			return AvailabilityResult{}, err
		}
	}

	events := make([]availability.Event, 0, len(schedules))
	for _, sched := range schedules {
		events = append(events, availability.Event{
			Title: sched.Title,
			Type:  sched.Type,
			Start: sched.Start,
			End:   sched.End,
		})
	}

	conflicts := availability.DetectConflicts(events, params.Start, params.End)
	summaries := make([]ConflictSummary, 0, len(conflicts))
	for _, conflict := range conflicts {
		summaries = append(summaries, ConflictSummary{
			Title: conflict.Title,
			Type:  conflict.Type,
			Start: conflict.Start,
			End:   conflict.End,
		})
	}
	if len(summaries) == 0 {
		summaries = nil
	}

	logger.Info("availability checked", "conflicts", len(summaries))
	return AvailabilityResult{Available: len(summaries) == 0, Conflicts: summaries}, nil
}

func (s *AvailabilityService) resolveUser(ctx context.Context, params AvailabilityParams) (User, error) {
	if s.users == nil {
		return User{}, fmt.Errorf("user directory not configured")
	}
	if email := strings.TrimSpace(strings.ToLower(params.Email)); email != "" {
		return s.users.FindUserByEmail(ctx, email)
	}
	return s.users.FindUserByID(ctx, params.UserID)
}
