package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/example/campus-scheduler/internal/persistence"
)

// GroupRepository implements persistence.GroupRepository on SQLite.
type GroupRepository struct {
	pool *ConnectionPool
}

// NewGroupRepository creates a SQLite-backed study group repository.
func NewGroupRepository(pool *ConnectionPool) *GroupRepository {
	return &GroupRepository{pool: pool}
}

// CreateGroup inserts a group and its member rows in one transaction.
func (r *GroupRepository) CreateGroup(ctx context.Context, group persistence.StudyGroup) error {
	if group.ID == "" {
		return persistence.ErrConstraintViolation
	}

	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		_, err := tx.Exec(`
			INSERT INTO study_groups (id, name, subject, description,
				schedule_start, schedule_end, event_id,
				user_id, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			group.ID,
			group.Name,
			group.Subject,
			group.Description,
			formatTime(group.Schedule.Start),
			formatTime(group.Schedule.End),
			nullableString(group.Schedule.EventID),
			group.UserID,
			formatTime(group.CreatedAt),
			formatTime(group.UpdatedAt),
		)
		if err != nil {
			return mapSQLiteError(err)
		}

		return insertMembersTx(tx, group.ID, group.Members)
	})
}

// GetGroup retrieves a group with its member set.
func (r *GroupRepository) GetGroup(ctx context.Context, id string) (persistence.StudyGroup, error) {
	if id == "" {
		return persistence.StudyGroup{}, persistence.ErrNotFound
	}

	row := r.pool.db.QueryRowContext(ctx, selectGroupColumns+" FROM study_groups WHERE id = ?", id)
	group, err := scanGroup(row)
	if err != nil {
		return persistence.StudyGroup{}, err
	}

	members, err := r.loadMembers(ctx, id)
	if err != nil {
		return persistence.StudyGroup{}, err
	}
	group.Members = members

	return group, nil
}

// ListGroups returns all groups ordered by creation time.
func (r *GroupRepository) ListGroups(ctx context.Context) ([]persistence.StudyGroup, error) {
	rows, err := r.pool.db.QueryContext(ctx, selectGroupColumns+" FROM study_groups ORDER BY created_at ASC, id ASC")
	if err != nil {
		return nil, mapSQLiteError(err)
	}
	defer rows.Close()

	var groups []persistence.StudyGroup
	for rows.Next() {
		group, err := scanGroup(rows)
		if err != nil {
			return nil, err
		}
		groups = append(groups, group)
	}
	if err := rows.Err(); err != nil {
		return nil, mapSQLiteError(err)
	}

	for i := range groups {
		members, err := r.loadMembers(ctx, groups[i].ID)
		if err != nil {
			return nil, err
		}
		groups[i].Members = members
	}

	return groups, nil
}

// UpdateGroup rewrites a group and its member rows. The stored owner is
// preserved no matter what the input carries.
func (r *GroupRepository) UpdateGroup(ctx context.Context, group persistence.StudyGroup) error {
	if group.ID == "" {
		return persistence.ErrNotFound
	}

	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		var storedOwner string
		err := tx.QueryRow("SELECT user_id FROM study_groups WHERE id = ?", group.ID).Scan(&storedOwner)
		if err != nil {
			if err == sql.ErrNoRows {
				return persistence.ErrNotFound
			}
			return mapSQLiteError(err)
		}

		result, err := tx.Exec(`
			UPDATE study_groups
			SET name = ?, subject = ?, description = ?,
				schedule_start = ?, schedule_end = ?, event_id = ?,
				user_id = ?, updated_at = ?
			WHERE id = ?
		`,
			group.Name,
			group.Subject,
			group.Description,
			formatTime(group.Schedule.Start),
			formatTime(group.Schedule.End),
			nullableString(group.Schedule.EventID),
			storedOwner,
			formatTime(group.UpdatedAt),
			group.ID,
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

		if _, err := tx.Exec("DELETE FROM group_members WHERE group_id = ?", group.ID); err != nil {
			return mapSQLiteError(err)
		}
		return insertMembersTx(tx, group.ID, group.Members)
	})
}

// DeleteGroup removes a group; member rows cascade. Calendar events generated
// from the group are untouched: they outlive the group by design.
func (r *GroupRepository) DeleteGroup(ctx context.Context, id string) error {
	if id == "" {
		return persistence.ErrNotFound
	}

	result, err := r.pool.db.ExecContext(ctx, "DELETE FROM study_groups WHERE id = ?", id)
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

const selectGroupColumns = `
	SELECT id, name, subject, description,
		schedule_start, schedule_end, event_id,
		user_id, created_at, updated_at`

func insertMembersTx(tx *sql.Tx, groupID string, members []string) error {
	seen := make(map[string]struct{}, len(members))
	for _, member := range members {
		if member == "" {
			continue
		}
		if _, ok := seen[member]; ok {
			continue
		}
		seen[member] = struct{}{}

		if _, err := tx.Exec(
			"INSERT INTO group_members (group_id, user_id) VALUES (?, ?)",
			groupID, member,
		); err != nil {
			return mapSQLiteError(err)
		}
	}
	return nil
}

func (r *GroupRepository) loadMembers(ctx context.Context, groupID string) ([]string, error) {
	rows, err := r.pool.db.QueryContext(ctx,
		"SELECT user_id FROM group_members WHERE group_id = ? ORDER BY user_id ASC",
		groupID,
	)
	if err != nil {
		return nil, mapSQLiteError(err)
	}
	defer rows.Close()

	var members []string
	for rows.Next() {
		var member string
		if err := rows.Scan(&member); err != nil {
			return nil, mapSQLiteError(err)
		}
		members = append(members, member)
	}
	if err := rows.Err(); err != nil {
		return nil, mapSQLiteError(err)
	}

	return members, nil
}

func scanGroup(row rowScanner) (persistence.StudyGroup, error) {
	var group persistence.StudyGroup
	var startStr, endStr, createdAt, updatedAt string
	var eventID sql.NullString

	err := row.Scan(
		&group.ID,
		&group.Name,
		&group.Subject,
		&group.Description,
		&startStr,
		&endStr,
		&eventID,
		&group.UserID,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return persistence.StudyGroup{}, persistence.ErrNotFound
		}
		return persistence.StudyGroup{}, mapSQLiteError(err)
	}

	if group.Schedule.Start, err = parseTime(startStr); err != nil {
		return persistence.StudyGroup{}, fmt.Errorf("failed to parse schedule_start: %w", err)
	}
	if group.Schedule.End, err = parseTime(endStr); err != nil {
		return persistence.StudyGroup{}, fmt.Errorf("failed to parse schedule_end: %w", err)
	}
	if group.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.StudyGroup{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if group.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return persistence.StudyGroup{}, fmt.Errorf("failed to parse updated_at: %w", err)
	}
	group.Schedule.EventID = eventID.String

	return group, nil
}
