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
)

// StudySessionType marks calendar events generated from study groups.
const StudySessionType = "Estudio"

// GroupRepository captures the persistence interactions needed by the service.
type GroupRepository interface {
	CreateGroup(ctx context.Context, group StudyGroup) (StudyGroup, error)
	GetGroup(ctx context.Context, id string) (StudyGroup, error)
	ListGroups(ctx context.Context) ([]StudyGroup, error)
	UpdateGroup(ctx context.Context, group StudyGroup) (StudyGroup, error)
	DeleteGroup(ctx context.Context, id string) error
}

// CleanupHook lets the caller compensate for a partially created group. The
// service only invokes it when member event fan-out fails after the group has
// already been persisted.
type CleanupHook func(ctx context.Context, groupID string) error

// GroupService orchestrates study group creation and its calendar fan-out.
type GroupService struct {
	groups      GroupRepository
	schedules   ScheduleRepository
	users       UserDirectory
	cleanup     CleanupHook
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewGroupService wires dependencies for study group operations.
func NewGroupService(groups GroupRepository, schedules ScheduleRepository, users UserDirectory, idGenerator func() string, now func() time.Time) *GroupService {
	return NewGroupServiceWithLogger(groups, schedules, users, idGenerator, now, nil)
}

// NewGroupServiceWithLogger wires dependencies together with a base logger.
func NewGroupServiceWithLogger(groups GroupRepository, schedules ScheduleRepository, users UserDirectory, idGenerator func() string, now func() time.Time, logger *slog.Logger) *GroupService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &GroupService{
		groups:      groups,
		schedules:   schedules,
		users:       users,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

// SetCleanupHook registers an optional compensation callback for failed fan-outs.
func (s *GroupService) SetCleanupHook(hook CleanupHook) {
	if s != nil {
		s.cleanup = hook
	}
}

// CreateGroup resolves every member, persists the group, and places a study
// session on each member's calendar. Unresolvable members abort the operation
// before anything is written.
func (s *GroupService) CreateGroup(ctx context.Context, params CreateGroupParams) (StudyGroup, error) {
	if s == nil {
		return StudyGroup{}, fmt.Errorf("GroupService is nil")
	}
	logger := serviceLogger(ctx, s.logger, "GroupService", "CreateGroup", "user_id", params.Principal.UserID)

	input := params.Input

	vErr := &ValidationError{}
	if strings.TrimSpace(input.Name) == "" {
		vErr.add("name", "name is required")
	}
	if strings.TrimSpace(input.Subject) == "" {
		vErr.add("subject", "subject is required")
	}
	if input.Start.IsZero() {
		vErr.add("start", "start is required")
	}
	if input.End.IsZero() {
		vErr.add("end", "end is required")
	}
	if !input.Start.IsZero() && !input.End.IsZero() && !input.Start.Before(input.End) {
		vErr.add("time", "start must be before end")
	}
	if vErr.HasErrors() {
		logger.Warn("group validation failed", "fields", vErr.FieldErrors)
		return StudyGroup{}, vErr
	}

	memberIDs, err := s.resolveMembers(ctx, input.MemberEmails, params.Principal.UserID)
	if err != nil {
		logger.Warn("member resolution failed", "error", err, "error_kind", ErrorKind(err))
		return StudyGroup{}, err
	}

	now := s.now()
	group := StudyGroup{
		ID:          s.idGenerator(),
		Name:        strings.TrimSpace(input.Name),
		Subject:     strings.TrimSpace(input.Subject),
		Description: input.Description,
		Members:     memberIDs,
		Schedule:    GroupSchedule{Start: input.Start, End: input.End},
		UserID:      params.Principal.UserID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	persisted, err := s.groups.CreateGroup(ctx, group)
	if err != nil {
		err = mapGroupRepoError(err)
		logger.Error("group create failed", "error", err, "error_kind", ErrorKind(err))
		return StudyGroup{}, err
	}

	// The creator's event is created first so the group can reference it.
	creatorEvent, err := s.schedules.CreateSchedule(ctx, s.buildSessionEvent(persisted, params.Principal.UserID, now))
	if err != nil {
		return StudyGroup{}, s.failFanOut(ctx, logger, persisted.ID, err)
	}

	persisted.Schedule.EventID = creatorEvent.ID
	persisted.UpdatedAt = s.now()
	persisted, err = s.groups.UpdateGroup(ctx, persisted)
	if err != nil {
		return StudyGroup{}, s.failFanOut(ctx, logger, persisted.ID, err)
	}

	for _, memberID := range persisted.Members {
		if memberID == params.Principal.UserID {
			continue
		}
		if _, err := s.schedules.CreateSchedule(ctx, s.buildSessionEvent(persisted, memberID, now)); err != nil {
			return StudyGroup{}, s.failFanOut(ctx, logger, persisted.ID, err)
		}
	}

	logger.Info("group created", "group_id", persisted.ID, "members", len(persisted.Members))
	return persisted, nil
}

// GetGroup fetches a single study group by ID.
func (s *GroupService) GetGroup(ctx context.Context, id string) (StudyGroup, error) {
	if s == nil {
		return StudyGroup{}, fmt.Errorf("GroupService is nil")
	}
	group, err := s.groups.GetGroup(ctx, id)
	if err != nil {
		return StudyGroup{}, mapGroupRepoError(err)
	}
	return group, nil
}

// ListGroups enumerates every study group ordered by name.
func (s *GroupService) ListGroups(ctx context.Context) ([]StudyGroup, error) {
	if s == nil {
		return nil, fmt.Errorf("GroupService is nil")
	}
	groups, err := s.groups.ListGroups(ctx)
	if err != nil {
		if isNotFoundError(err) {
			return nil, nil
		}
		return nil, err
	}

	ordered := make([]StudyGroup, len(groups))
	copy(ordered, groups)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Name == ordered[j].Name {
			return ordered[i].ID < ordered[j].ID
		}
		return ordered[i].Name < ordered[j].Name
	})
	return ordered, nil
}

// UpdateGroup applies authorization before changing descriptive fields.
func (s *GroupService) UpdateGroup(ctx context.Context, params UpdateGroupParams) (StudyGroup, error) {
	if s == nil {
		return StudyGroup{}, fmt.Errorf("GroupService is nil")
	}
	logger := serviceLogger(ctx, s.logger, "GroupService", "UpdateGroup",
		"user_id", params.Principal.UserID, "group_id", params.GroupID)

	existing, err := s.groups.GetGroup(ctx, params.GroupID)
	if err != nil {
		err = mapGroupRepoError(err)
		logger.Warn("group lookup failed", "error", err, "error_kind", ErrorKind(err))
		return StudyGroup{}, err
	}

	if existing.UserID != params.Principal.UserID {
		logger.Warn("group update rejected", "error_kind", ErrorKind(ErrUnauthorized))
		return StudyGroup{}, ErrUnauthorized
	}

	updated := existing
	patch := params.Patch
	if patch.Name != nil {
		updated.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Subject != nil {
		updated.Subject = strings.TrimSpace(*patch.Subject)
	}
	if patch.Description != nil {
		updated.Description = *patch.Description
	}
	updated.UserID = existing.UserID
	updated.UpdatedAt = s.now()

	vErr := &ValidationError{}
	if updated.Name == "" {
		vErr.add("name", "name is required")
	}
	if updated.Subject == "" {
		vErr.add("subject", "subject is required")
	}
	if vErr.HasErrors() {
		logger.Warn("group validation failed", "fields", vErr.FieldErrors)
		return StudyGroup{}, vErr
	}

	persisted, err := s.groups.UpdateGroup(ctx, updated)
	if err != nil {
		err = mapGroupRepoError(err)
		logger.Error("group update failed", "error", err, "error_kind", ErrorKind(err))
		return StudyGroup{}, err
	}

	logger.Info("group updated")
	return persisted, nil
}

// DeleteGroup removes a group. Calendar events created from the group stay in
// place; members keep their study sessions.
func (s *GroupService) DeleteGroup(ctx context.Context, principal Principal, groupID string) error {
	if s == nil {
		return fmt.Errorf("GroupService is nil")
	}
	logger := serviceLogger(ctx, s.logger, "GroupService", "DeleteGroup",
		"user_id", principal.UserID, "group_id", groupID)

	existing, err := s.groups.GetGroup(ctx, groupID)
	if err != nil {
		err = mapGroupRepoError(err)
		logger.Warn("group lookup failed", "error", err, "error_kind", ErrorKind(err))
		return err
	}

	if existing.UserID != principal.UserID {
		logger.Warn("group delete rejected", "error_kind", ErrorKind(ErrUnauthorized))
		return ErrUnauthorized
	}

	if err := s.groups.DeleteGroup(ctx, groupID); err != nil {
		err = mapGroupRepoError(err)
		logger.Error("group delete failed", "error", err, "error_kind", ErrorKind(err))
		return err
	}

	logger.Info("group deleted")
	return nil
}

// resolveMembers maps member emails to user IDs, deduplicates, and guarantees
// the creator is a member. Every unresolvable email is reported in a single
// validation error so the caller sees the full list at once.
func (s *GroupService) resolveMembers(ctx context.Context, emails []string, creatorID string) ([]string, error) {
	if s.users == nil {
		return nil, fmt.Errorf("user directory not configured")
	}

	seen := make(map[string]struct{})
	ids := make([]string, 0, len(emails)+1)
	var unresolved []string

	for _, raw := range emails {
		email := strings.TrimSpace(strings.ToLower(raw))
		if email == "" {
			continue
		}
		user, err := s.users.FindUserByEmail(ctx, email)
		if err != nil {
			if isNotFoundError(err) {
				unresolved = append(unresolved, email)
				continue
			}
			return nil, err
		}
		if _, ok := seen[user.ID]; ok {
			continue
		}
		seen[user.ID] = struct{}{}
		ids = append(ids, user.ID)
	}

	if len(unresolved) > 0 {
		vErr := &ValidationError{}
		vErr.add("members", fmt.Sprintf("unknown member emails: %s", strings.Join(unresolved, ", ")))
		return nil, vErr
	}

	if _, ok := seen[creatorID]; !ok {
		ids = append(ids, creatorID)
	}
	return ids, nil
}

func (s *GroupService) buildSessionEvent(group StudyGroup, userID string, now time.Time) Schedule {
	return Schedule{
		ID:    s.idGenerator(),
		Title: fmt.Sprintf("Grupo de estudio: %s", group.Name),
		Type:  StudySessionType,
		Start: group.Schedule.Start,
		End:   group.Schedule.End,
		Details: ScheduleDetails{
			Professor: group.Description,
			Classroom: "No especificado",
			Notes:     fmt.Sprintf("Grupo de estudio creado para el tema %s", group.Subject),
		},
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// failFanOut reports a fan-out failure and, when a cleanup hook is configured,
// gives it a chance to compensate. The group itself is not rolled back here.
func (s *GroupService) failFanOut(ctx context.Context, logger *slog.Logger, groupID string, err error) error {
	err = mapGroupRepoError(err)
	logger.Error("group fan-out failed", "group_id", groupID, "error", err, "error_kind", ErrorKind(err))
	if s.cleanup != nil {
		if cleanupErr := s.cleanup(ctx, groupID); cleanupErr != nil {
			logger.Error("group cleanup failed", "group_id", groupID, "error", cleanupErr)
		}
	}
	return err
}

func mapGroupRepoError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, persistence.ErrNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, persistence.ErrForeignKeyViolation) {
		vErr := &ValidationError{}
		vErr.add("members", "related records are missing")
		return vErr
	}
	return err
}
