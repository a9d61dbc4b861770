package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/campus-scheduler/internal/persistence"
)

var (
	userCounter     uint64
	scheduleCounter uint64
	groupCounter    uint64
)

// NewUserFixture returns a deterministic student record with optional overrides.
func NewUserFixture(opts ...UserOption) persistence.User {
	idx := atomic.AddUint64(&userCounter, 1)
	id := fmt.Sprintf("user-%03d", idx)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	user := persistence.User{
		ID:           id,
		Email:        fmt.Sprintf("%s@ucaldas.edu.co", id),
		Name:         fmt.Sprintf("Estudiante %03d", idx),
		Career:       "Ingeniería de Sistemas",
		PasswordHash: fmt.Sprintf("hash-%03d", idx),
		CreatedAt:    created,
		UpdatedAt:    created,
	}
	for _, opt := range opts {
		opt(&user)
	}
	return user
}

// UserOption configures a generated user fixture.
type UserOption func(*persistence.User)

// WithUserID overrides the generated user ID.
func WithUserID(id string) UserOption {
	return func(u *persistence.User) { u.ID = id }
}

// WithUserEmail overrides the generated email address.
func WithUserEmail(email string) UserOption {
	return func(u *persistence.User) { u.Email = email }
}

// WithUserName overrides the generated display name.
func WithUserName(name string) UserOption {
	return func(u *persistence.User) { u.Name = name }
}

// NewScheduleFixture returns a deterministic calendar event owned by the given
// user. Each fixture occupies its own two hour slot so that fixtures never
// collide unless a test arranges it.
func NewScheduleFixture(userID string, opts ...ScheduleOption) persistence.Schedule {
	idx := atomic.AddUint64(&scheduleCounter, 1)
	start := referenceTime.Add(time.Duration(idx) * 3 * time.Hour)
	schedule := persistence.Schedule{
		ID:     fmt.Sprintf("schedule-%03d", idx),
		Title:  fmt.Sprintf("Clase %03d", idx),
		Type:   "Clase",
		Start:  start,
		End:    start.Add(2 * time.Hour),
		UserID: userID,
		Details: persistence.ScheduleDetails{
			Professor: "Dr. Gómez",
			Classroom: "B-301",
		},
		CreatedAt: referenceTime,
		UpdatedAt: referenceTime,
	}
	for _, opt := range opts {
		opt(&schedule)
	}
	return schedule
}

// ScheduleOption configures a generated schedule fixture.
type ScheduleOption func(*persistence.Schedule)

// WithScheduleID overrides the generated schedule ID.
func WithScheduleID(id string) ScheduleOption {
	return func(s *persistence.Schedule) { s.ID = id }
}

// WithScheduleSlot sets the event's start and end times.
func WithScheduleSlot(start, end time.Time) ScheduleOption {
	return func(s *persistence.Schedule) {
		s.Start = start
		s.End = end
	}
}

// WithScheduleType overrides the event type.
func WithScheduleType(eventType string) ScheduleOption {
	return func(s *persistence.Schedule) { s.Type = eventType }
}

// WithScheduleDays attaches the weekly recurrence metadata.
func WithScheduleDays(days ...time.Weekday) ScheduleOption {
	return func(s *persistence.Schedule) {
		s.Days = append([]time.Weekday(nil), days...)
	}
}

// NewGroupFixture returns a deterministic study group owned by the given user.
func NewGroupFixture(userID string, opts ...GroupOption) persistence.StudyGroup {
	idx := atomic.AddUint64(&groupCounter, 1)
	start := referenceTime.Add(time.Duration(idx) * 24 * time.Hour)
	group := persistence.StudyGroup{
		ID:      fmt.Sprintf("group-%03d", idx),
		Name:    fmt.Sprintf("Grupo %03d", idx),
		Subject: "Física II",
		Members: []string{userID},
		Schedule: persistence.GroupSchedule{
			Start: start,
			End:   start.Add(2 * time.Hour),
		},
		UserID:    userID,
		CreatedAt: referenceTime,
		UpdatedAt: referenceTime,
	}
	for _, opt := range opts {
		opt(&group)
	}
	return group
}

// GroupOption configures a generated study group fixture.
type GroupOption func(*persistence.StudyGroup)

// WithGroupID overrides the generated group ID.
func WithGroupID(id string) GroupOption {
	return func(g *persistence.StudyGroup) { g.ID = id }
}

// WithGroupMembers replaces the member set.
func WithGroupMembers(members ...string) GroupOption {
	return func(g *persistence.StudyGroup) {
		g.Members = append([]string(nil), members...)
	}
}

// WithGroupSubject overrides the study subject.
func WithGroupSubject(subject string) GroupOption {
	return func(g *persistence.StudyGroup) { g.Subject = subject }
}
