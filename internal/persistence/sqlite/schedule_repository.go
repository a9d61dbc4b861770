package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/example/campus-scheduler/internal/persistence"
)

// ScheduleRepository implements persistence.ScheduleRepository on SQLite.
type ScheduleRepository struct {
	pool *ConnectionPool
}

// NewScheduleRepository creates a SQLite-backed schedule repository.
func NewScheduleRepository(pool *ConnectionPool) *ScheduleRepository {
	return &ScheduleRepository{pool: pool}
}

// CreateSchedule inserts a single schedule with its weekday annotations.
func (r *ScheduleRepository) CreateSchedule(ctx context.Context, schedule persistence.Schedule) error {
	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		return insertScheduleTx(tx, schedule)
	})
}

// InsertSchedules persists the batch inside one transaction. A failure on
// any record rolls back every record: recurring batches are stored
// all-or-nothing.
func (r *ScheduleRepository) InsertSchedules(ctx context.Context, schedules []persistence.Schedule) error {
	if len(schedules) == 0 {
		return nil
	}

	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		for _, schedule := range schedules {
			if err := insertScheduleTx(tx, schedule); err != nil {
				return err
			}
		}
		return nil
	})
}

// GetSchedule retrieves a schedule by ID.
func (r *ScheduleRepository) GetSchedule(ctx context.Context, id string) (persistence.Schedule, error) {
	if id == "" {
		return persistence.Schedule{}, persistence.ErrNotFound
	}

	row := r.pool.db.QueryRowContext(ctx, selectScheduleColumns+" FROM schedules WHERE id = ?", id)
	schedule, err := scanSchedule(row)
	if err != nil {
		return persistence.Schedule{}, err
	}

	days, err := r.loadDays(ctx, id)
	if err != nil {
		return persistence.Schedule{}, err
	}
	schedule.Days = days

	return schedule, nil
}

// ListSchedules returns schedules matching the filter ordered by start time.
func (r *ScheduleRepository) ListSchedules(ctx context.Context, filter persistence.ScheduleFilter) ([]persistence.Schedule, error) {
	query, args := buildListQuery(filter)

	rows, err := r.pool.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapSQLiteError(err)
	}
	defer rows.Close()

	var schedules []persistence.Schedule
	for rows.Next() {
		schedule, err := scanSchedule(rows)
		if err != nil {
			return nil, err
		}
		schedules = append(schedules, schedule)
	}
	if err := rows.Err(); err != nil {
		return nil, mapSQLiteError(err)
	}

	for i := range schedules {
		days, err := r.loadDays(ctx, schedules[i].ID)
		if err != nil {
			return nil, err
		}
		schedules[i].Days = days
	}

	return schedules, nil
}

// UpdateSchedule rewrites a schedule. The stored owner is preserved no
// matter what the input carries.
func (r *ScheduleRepository) UpdateSchedule(ctx context.Context, schedule persistence.Schedule) error {
	if schedule.ID == "" {
		return persistence.ErrNotFound
	}

	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		var storedOwner string
		err := tx.QueryRow("SELECT user_id FROM schedules WHERE id = ?", schedule.ID).Scan(&storedOwner)
		if err != nil {
			if err == sql.ErrNoRows {
				return persistence.ErrNotFound
			}
			return mapSQLiteError(err)
		}

		result, err := tx.Exec(`
			UPDATE schedules
			SET title = ?, type = ?, start_time = ?, end_time = ?,
				semester_start = ?, semester_end = ?,
				professor = ?, classroom = ?, notes = ?,
				user_id = ?, updated_at = ?
			WHERE id = ?
		`,
			schedule.Title,
			schedule.Type,
			formatTime(schedule.Start),
			formatTime(schedule.End),
			formatOptionalTime(schedule.SemesterStart),
			formatOptionalTime(schedule.SemesterEnd),
			nullableString(schedule.Details.Professor),
			nullableString(schedule.Details.Classroom),
			nullableString(schedule.Details.Notes),
			storedOwner,
			formatTime(schedule.UpdatedAt),
			schedule.ID,
		)
		if err != nil {
			return mapSQLiteError(err)
		}

		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if affected == 0 {
			return persistence.ErrNotFound
		}

		if _, err := tx.Exec("DELETE FROM schedule_days WHERE schedule_id = ?", schedule.ID); err != nil {
			return mapSQLiteError(err)
		}
		return insertDaysTx(tx, schedule.ID, schedule.Days)
	})
}

// DeleteSchedule removes a schedule; its day annotations cascade.
func (r *ScheduleRepository) DeleteSchedule(ctx context.Context, id string) error {
	if id == "" {
		return persistence.ErrNotFound
	}

	result, err := r.pool.db.ExecContext(ctx, "DELETE FROM schedules WHERE id = ?", id)
	if err != nil {
		return mapSQLiteError(err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}

	return nil
}

const selectScheduleColumns = `
	SELECT id, title, type, start_time, end_time,
		semester_start, semester_end,
		professor, classroom, notes,
		user_id, created_at, updated_at`

func insertScheduleTx(tx *sql.Tx, schedule persistence.Schedule) error {
	if schedule.ID == "" {
		return persistence.ErrConstraintViolation
	}

	_, err := tx.Exec(`
		INSERT INTO schedules (id, title, type, start_time, end_time,
			semester_start, semester_end,
			professor, classroom, notes,
			user_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		schedule.ID,
		schedule.Title,
		schedule.Type,
		formatTime(schedule.Start),
		formatTime(schedule.End),
		formatOptionalTime(schedule.SemesterStart),
		formatOptionalTime(schedule.SemesterEnd),
		nullableString(schedule.Details.Professor),
		nullableString(schedule.Details.Classroom),
		nullableString(schedule.Details.Notes),
		schedule.UserID,
		formatTime(schedule.CreatedAt),
		formatTime(schedule.UpdatedAt),
	)
	if err != nil {
		return mapSQLiteError(err)
	}

	return insertDaysTx(tx, schedule.ID, schedule.Days)
}

func insertDaysTx(tx *sql.Tx, scheduleID string, days []time.Weekday) error {
	seen := make(map[time.Weekday]struct{}, len(days))
	for _, day := range days {
		if day < time.Sunday || day > time.Saturday {
			continue
		}
		if _, ok := seen[day]; ok {
			continue
		}
		seen[day] = struct{}{}

		if _, err := tx.Exec(
			"INSERT INTO schedule_days (schedule_id, weekday) VALUES (?, ?)",
			scheduleID, int(day),
		); err != nil {
			return mapSQLiteError(err)
		}
	}
	return nil
}

func (r *ScheduleRepository) loadDays(ctx context.Context, scheduleID string) ([]time.Weekday, error) {
	rows, err := r.pool.db.QueryContext(ctx,
		"SELECT weekday FROM schedule_days WHERE schedule_id = ? ORDER BY weekday ASC",
		scheduleID,
	)
	if err != nil {
		return nil, mapSQLiteError(err)
	}
	defer rows.Close()

	var days []time.Weekday
	for rows.Next() {
		var day int
		if err := rows.Scan(&day); err != nil {
			return nil, mapSQLiteError(err)
		}
		days = append(days, time.Weekday(day))
	}
	if err := rows.Err(); err != nil {
		return nil, mapSQLiteError(err)
	}

	return days, nil
}

func scanSchedule(row rowScanner) (persistence.Schedule, error) {
	var schedule persistence.Schedule
	var startStr, endStr, createdAt, updatedAt string
	var semesterStart, semesterEnd, professor, classroom, notes sql.NullString

	err := row.Scan(
		&schedule.ID,
		&schedule.Title,
		&schedule.Type,
		&startStr,
		&endStr,
		&semesterStart,
		&semesterEnd,
		&professor,
		&classroom,
		&notes,
		&schedule.UserID,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return persistence.Schedule{}, persistence.ErrNotFound
		}
		return persistence.Schedule{}, mapSQLiteError(err)
	}

	if schedule.Start, err = parseTime(startStr); err != nil {
		return persistence.Schedule{}, fmt.Errorf("failed to parse start_time: %w", err)
	}
	if schedule.End, err = parseTime(endStr); err != nil {
		return persistence.Schedule{}, fmt.Errorf("failed to parse end_time: %w", err)
	}
	if schedule.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.Schedule{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if schedule.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return persistence.Schedule{}, fmt.Errorf("failed to parse updated_at: %w", err)
	}
	if schedule.SemesterStart, err = parseOptionalTime(semesterStart); err != nil {
		return persistence.Schedule{}, fmt.Errorf("failed to parse semester_start: %w", err)
	}
	if schedule.SemesterEnd, err = parseOptionalTime(semesterEnd); err != nil {
		return persistence.Schedule{}, fmt.Errorf("failed to parse semester_end: %w", err)
	}

	schedule.Details = persistence.ScheduleDetails{
		Professor: professor.String,
		Classroom: classroom.String,
		Notes:     notes.String,
	}

	return schedule, nil
}

func buildListQuery(filter persistence.ScheduleFilter) (string, []any) {
	var conditions []string
	var args []any

	if filter.UserID != "" {
		conditions = append(conditions, "user_id = ?")
		args = append(args, filter.UserID)
	}
	if filter.StartsAfter != nil {
		conditions = append(conditions, "end_time > ?")
		args = append(args, formatTime(*filter.StartsAfter))
	}
	if filter.EndsBefore != nil {
		conditions = append(conditions, "start_time < ?")
		args = append(args, formatTime(*filter.EndsBefore))
	}

	query := selectScheduleColumns + " FROM schedules"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY start_time ASC, id ASC"

	return query, args
}

func formatOptionalTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(*t), Valid: true}
}

func parseOptionalTime(value sql.NullString) (*time.Time, error) {
	if !value.Valid {
		return nil, nil
	}
	parsed, err := parseTime(value.String)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

func nullableString(value string) sql.NullString {
	if value == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: value, Valid: true}
}
