package application

import "time"

// Principal represents the authenticated user invoking a service method.
type Principal struct {
	UserID string
	Name   string
}

// ScheduleDetails carries the optional descriptive fields of an event.
type ScheduleDetails struct {
	Professor string
	Classroom string
	Notes     string
}

// ScheduleInput captures caller provided schedule fields.
type ScheduleInput struct {
	Title   string
	Type    string
	Start   time.Time
	End     time.Time
	Details ScheduleDetails
}

// RecurringScheduleInput captures the fields required to expand a weekly event
// into concrete occurrences across a semester.
type RecurringScheduleInput struct {
	Title         string
	Type          string
	Start         time.Time
	End           time.Time
	Days          []time.Weekday
	SemesterStart time.Time
	SemesterEnd   time.Time
	Details       ScheduleDetails
}

// Schedule represents a persisted calendar event.
type Schedule struct {
	ID            string
	Title         string
	Type          string
	Start         time.Time
	End           time.Time
	Days          []time.Weekday
	SemesterStart *time.Time
	SemesterEnd   *time.Time
	Details       ScheduleDetails
	UserID        string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// SchedulePatch carries the fields a caller may change on an existing event.
// Nil pointers leave the stored value untouched.
type SchedulePatch struct {
	Title   *string
	Type    *string
	Start   *time.Time
	End     *time.Time
	Details *ScheduleDetails
}

// CreateScheduleParams wraps the data required to create a single event.
type CreateScheduleParams struct {
	Principal Principal
	Input     ScheduleInput
}

// CreateRecurringScheduleParams wraps the data required to create a weekly batch.
type CreateRecurringScheduleParams struct {
	Principal Principal
	Input     RecurringScheduleInput
}

// UpdateScheduleParams wraps the data required to update an existing event.
type UpdateScheduleParams struct {
	Principal  Principal
	ScheduleID string
	Patch      SchedulePatch
}

// ListSchedulesParams wraps the data required to list a user's events.
type ListSchedulesParams struct {
	Principal   Principal
	StartsAfter *time.Time
	EndsBefore  *time.Time
}

// AvailabilityParams identifies the user and time range to probe for conflicts.
// Either UserID or Email must be set; Email wins when both are present.
type AvailabilityParams struct {
	UserID string
	Email  string
	Start  time.Time
	End    time.Time
}

// ConflictSummary describes one event that collides with the probed range.
type ConflictSummary struct {
	Title string
	Type  string
	Start time.Time
	End   time.Time
}

// AvailabilityResult reports whether a range is free and which events block it.
type AvailabilityResult struct {
	Available bool
	Conflicts []ConflictSummary
}

// GroupSchedule ties a study group to its agreed meeting slot.
type GroupSchedule struct {
	Start   time.Time
	End     time.Time
	EventID string
}

// GroupInput captures caller provided study group fields.
type GroupInput struct {
	Name         string
	Subject      string
	Description  string
	MemberEmails []string
	Start        time.Time
	End          time.Time
}

// StudyGroup represents a persisted study group.
type StudyGroup struct {
	ID          string
	Name        string
	Subject     string
	Description string
	Members     []string
	Schedule    GroupSchedule
	UserID      string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// GroupPatch carries the fields a caller may change on an existing group.
type GroupPatch struct {
	Name        *string
	Subject     *string
	Description *string
}

// CreateGroupParams wraps the data required to create a study group.
type CreateGroupParams struct {
	Principal Principal
	Input     GroupInput
}

// UpdateGroupParams wraps the data required to update a study group.
type UpdateGroupParams struct {
	Principal Principal
	GroupID   string
	Patch     GroupPatch
}

// UserInput captures the attributes required to register an account.
type UserInput struct {
	Email    string
	Name     string
	Career   string
	Password string
}

// User represents a student account exposed by the application services.
type User struct {
	ID        string
	Email     string
	Name      string
	Career    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// UserCredentials models the authentication attributes persisted for a user.
type UserCredentials struct {
	User         User
	PasswordHash string
}

// AuthenticateParams captures the data required to authenticate a user.
type AuthenticateParams struct {
	Email    string
	Password string
}

// AuthenticateResult captures the outcome of a successful authentication attempt.
type AuthenticateResult struct {
	User  User
	Token string
}
