package persistence

import "time"

// User represents a student account in the campus scheduler.
type User struct {
	ID           string
	Email        string
	Name         string
	Career       string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ScheduleDetails carries the optional free-form fields attached to an event.
type ScheduleDetails struct {
	Professor string
	Classroom string
	Notes     string
}

// Schedule represents one concrete calendar event stored in persistence.
// Days and the semester bounds are informational leftovers from recurring
// batch creation; each stored record is a single occurrence.
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

// GroupSchedule is the single time range embedded in a study group, plus the
// back-reference to the creator's generated calendar event.
type GroupSchedule struct {
	Start   time.Time
	End     time.Time
	EventID string
}

// StudyGroup represents a collection of users sharing a study session.
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
