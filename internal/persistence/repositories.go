package persistence

import (
	"context"
	"time"
)

// UserRepository exposes the user directory operations.
type UserRepository interface {
	CreateUser(ctx context.Context, user User) error
	GetUser(ctx context.Context, id string) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
	ListUsers(ctx context.Context) ([]User, error)
}

// ScheduleFilter narrows schedule queries. StartsAfter keeps events ending
// strictly after the bound and EndsBefore keeps events starting strictly
// before it, so supplying both pushes the half-open overlap test down to the
// store.
type ScheduleFilter struct {
	UserID      string
	StartsAfter *time.Time
	EndsBefore  *time.Time
}

// ScheduleRepository stores calendar events.
type ScheduleRepository interface {
	CreateSchedule(ctx context.Context, schedule Schedule) error
	// InsertSchedules persists a batch atomically: either every record is
	// stored or none is.
	InsertSchedules(ctx context.Context, schedules []Schedule) error
	GetSchedule(ctx context.Context, id string) (Schedule, error)
	ListSchedules(ctx context.Context, filter ScheduleFilter) ([]Schedule, error)
	UpdateSchedule(ctx context.Context, schedule Schedule) error
	DeleteSchedule(ctx context.Context, id string) error
}

// GroupRepository stores study groups and their member sets.
type GroupRepository interface {
	CreateGroup(ctx context.Context, group StudyGroup) error
	GetGroup(ctx context.Context, id string) (StudyGroup, error)
	ListGroups(ctx context.Context) ([]StudyGroup, error)
	UpdateGroup(ctx context.Context, group StudyGroup) error
	DeleteGroup(ctx context.Context, id string) error
}
