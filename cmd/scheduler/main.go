package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/example/campus-scheduler/internal/application"
	"github.com/example/campus-scheduler/internal/config"
	httptransport "github.com/example/campus-scheduler/internal/http"
	"github.com/example/campus-scheduler/internal/persistence"
	"github.com/example/campus-scheduler/internal/persistence/sqlite"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	pool, err := sqlite.NewConnectionPool(cfg.SQLiteDSN)
	if err != nil {
		logger.Error("failed to open storage", "error", err)
		os.Exit(1)
	}
	defer func() {
		if cerr := pool.Close(); cerr != nil {
			logger.Error("failed to close storage", "error", cerr)
		}
	}()

	if err := pool.Migrate(context.Background()); err != nil {
		logger.Error("failed to apply migrations", "error", err)
		os.Exit(1)
	}

	idGenerator := uuid.NewString
	now := time.Now

	userRepo := sqlite.NewUserRepository(pool)
	scheduleRepo := sqlite.NewScheduleRepository(pool)
	groupRepo := sqlite.NewGroupRepository(pool)

	schedules := newScheduleRepositoryAdapter(scheduleRepo)
	groups := newGroupRepositoryAdapter(groupRepo)
	credentials := newCredentialStoreAdapter(userRepo)
	directory := newUserDirectoryAdapter(userRepo)

	tokens := application.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL, now)

	authService := application.NewAuthServiceWithLogger(credentials, tokens, idGenerator, now, logger)
	scheduleService := application.NewScheduleServiceWithLogger(schedules, idGenerator, now, logger)
	availabilityService := application.NewAvailabilityServiceWithLogger(directory, schedules, logger)
	groupService := application.NewGroupServiceWithLogger(groups, schedules, directory, idGenerator, now, logger)

	router := httptransport.NewRouter(httptransport.RouterConfig{
		Auth:           httptransport.NewAuthHandler(authService, logger),
		Schedules:      httptransport.NewScheduleHandler(scheduleService, logger),
		Availability:   httptransport.NewAvailabilityHandler(availabilityService, logger),
		Groups:         httptransport.NewGroupHandler(groupService, logger),
		AuthMiddleware: httptransport.RequireAuth(authService, logger),
		Middleware: []func(http.Handler) http.Handler{
			httptransport.RequestLogger(logger),
		},
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.Info("campus scheduler API listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server encountered error", "error", err)
		os.Exit(1)
	}
}

type scheduleRepositoryAdapter struct {
	repo persistence.ScheduleRepository
}

func newScheduleRepositoryAdapter(repo persistence.ScheduleRepository) *scheduleRepositoryAdapter {
	return &scheduleRepositoryAdapter{repo: repo}
}

func (a *scheduleRepositoryAdapter) CreateSchedule(ctx context.Context, schedule application.Schedule) (application.Schedule, error) {
	if err := a.repo.CreateSchedule(ctx, toPersistenceSchedule(schedule)); err != nil {
		return application.Schedule{}, err
	}
	stored, err := a.repo.GetSchedule(ctx, schedule.ID)
	if err != nil {
		return application.Schedule{}, err
	}
	return toApplicationSchedule(stored), nil
}

func (a *scheduleRepositoryAdapter) InsertSchedules(ctx context.Context, schedules []application.Schedule) ([]application.Schedule, error) {
	if len(schedules) == 0 {
		return nil, nil
	}

	models := make([]persistence.Schedule, 0, len(schedules))
	for _, schedule := range schedules {
		models = append(models, toPersistenceSchedule(schedule))
	}
	if err := a.repo.InsertSchedules(ctx, models); err != nil {
		return nil, err
	}

	stored := make([]application.Schedule, 0, len(schedules))
	for _, schedule := range schedules {
		model, err := a.repo.GetSchedule(ctx, schedule.ID)
		if err != nil {
			return nil, err
		}
		stored = append(stored, toApplicationSchedule(model))
	}
	return stored, nil
}

func (a *scheduleRepositoryAdapter) GetSchedule(ctx context.Context, id string) (application.Schedule, error) {
	stored, err := a.repo.GetSchedule(ctx, id)
	if err != nil {
		return application.Schedule{}, err
	}
	return toApplicationSchedule(stored), nil
}

func (a *scheduleRepositoryAdapter) UpdateSchedule(ctx context.Context, schedule application.Schedule) (application.Schedule, error) {
	if err := a.repo.UpdateSchedule(ctx, toPersistenceSchedule(schedule)); err != nil {
		return application.Schedule{}, err
	}
	stored, err := a.repo.GetSchedule(ctx, schedule.ID)
	if err != nil {
		return application.Schedule{}, err
	}
	return toApplicationSchedule(stored), nil
}

func (a *scheduleRepositoryAdapter) DeleteSchedule(ctx context.Context, id string) error {
	return a.repo.DeleteSchedule(ctx, id)
}

func (a *scheduleRepositoryAdapter) ListSchedules(ctx context.Context, filter application.ScheduleRepositoryFilter) ([]application.Schedule, error) {
	models, err := a.repo.ListSchedules(ctx, persistence.ScheduleFilter{
		UserID:      filter.UserID,
		StartsAfter: filter.StartsAfter,
		EndsBefore:  filter.EndsBefore,
	})
	if err != nil {
		return nil, err
	}
	if len(models) == 0 {
		return nil, nil
	}
	schedules := make([]application.Schedule, 0, len(models))
	for _, model := range models {
		schedules = append(schedules, toApplicationSchedule(model))
	}
	return schedules, nil
}

type groupRepositoryAdapter struct {
	repo persistence.GroupRepository
}

func newGroupRepositoryAdapter(repo persistence.GroupRepository) *groupRepositoryAdapter {
	return &groupRepositoryAdapter{repo: repo}
}

func (a *groupRepositoryAdapter) CreateGroup(ctx context.Context, group application.StudyGroup) (application.StudyGroup, error) {
	if err := a.repo.CreateGroup(ctx, toPersistenceGroup(group)); err != nil {
		return application.StudyGroup{}, err
	}
	stored, err := a.repo.GetGroup(ctx, group.ID)
	if err != nil {
		return application.StudyGroup{}, err
	}
	return toApplicationGroup(stored), nil
}

func (a *groupRepositoryAdapter) GetGroup(ctx context.Context, id string) (application.StudyGroup, error) {
	stored, err := a.repo.GetGroup(ctx, id)
	if err != nil {
		return application.StudyGroup{}, err
	}
	return toApplicationGroup(stored), nil
}

func (a *groupRepositoryAdapter) ListGroups(ctx context.Context) ([]application.StudyGroup, error) {
	models, err := a.repo.ListGroups(ctx)
	if err != nil {
		return nil, err
	}
	if len(models) == 0 {
		return nil, nil
	}
	groups := make([]application.StudyGroup, 0, len(models))
	for _, model := range models {
		groups = append(groups, toApplicationGroup(model))
	}
	return groups, nil
}

func (a *groupRepositoryAdapter) UpdateGroup(ctx context.Context, group application.StudyGroup) (application.StudyGroup, error) {
	if err := a.repo.UpdateGroup(ctx, toPersistenceGroup(group)); err != nil {
		return application.StudyGroup{}, err
	}
	stored, err := a.repo.GetGroup(ctx, group.ID)
	if err != nil {
		return application.StudyGroup{}, err
	}
	return toApplicationGroup(stored), nil
}

func (a *groupRepositoryAdapter) DeleteGroup(ctx context.Context, id string) error {
	return a.repo.DeleteGroup(ctx, id)
}

type credentialStoreAdapter struct {
	repo persistence.UserRepository
}

func newCredentialStoreAdapter(repo persistence.UserRepository) *credentialStoreAdapter {
	return &credentialStoreAdapter{repo: repo}
}

func (a *credentialStoreAdapter) CreateUser(ctx context.Context, credentials application.UserCredentials) (application.User, error) {
	model := toPersistenceUser(credentials.User)
	model.PasswordHash = credentials.PasswordHash
	if err := a.repo.CreateUser(ctx, model); err != nil {
		return application.User{}, err
	}
	stored, err := a.repo.GetUser(ctx, credentials.User.ID)
	if err != nil {
		return application.User{}, err
	}
	return toApplicationUser(stored), nil
}

func (a *credentialStoreAdapter) GetUserCredentialsByEmail(ctx context.Context, email string) (application.UserCredentials, error) {
	stored, err := a.repo.GetUserByEmail(ctx, email)
	if err != nil {
		return application.UserCredentials{}, err
	}
	return application.UserCredentials{
		User:         toApplicationUser(stored),
		PasswordHash: stored.PasswordHash,
	}, nil
}

func (a *credentialStoreAdapter) GetUser(ctx context.Context, id string) (application.User, error) {
	stored, err := a.repo.GetUser(ctx, id)
	if err != nil {
		return application.User{}, err
	}
	return toApplicationUser(stored), nil
}

type userDirectoryAdapter struct {
	repo persistence.UserRepository
}

func newUserDirectoryAdapter(repo persistence.UserRepository) *userDirectoryAdapter {
	return &userDirectoryAdapter{repo: repo}
}

func (a *userDirectoryAdapter) FindUserByEmail(ctx context.Context, email string) (application.User, error) {
	stored, err := a.repo.GetUserByEmail(ctx, email)
	if err != nil {
		return application.User{}, err
	}
	return toApplicationUser(stored), nil
}

func (a *userDirectoryAdapter) FindUserByID(ctx context.Context, id string) (application.User, error) {
	stored, err := a.repo.GetUser(ctx, id)
	if err != nil {
		return application.User{}, err
	}
	return toApplicationUser(stored), nil
}

func toApplicationUser(model persistence.User) application.User {
	return application.User{
		ID:        model.ID,
		Email:     model.Email,
		Name:      model.Name,
		Career:    model.Career,
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
	}
}

func toPersistenceUser(user application.User) persistence.User {
	return persistence.User{
		ID:        user.ID,
		Email:     user.Email,
		Name:      user.Name,
		Career:    user.Career,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
}

func toApplicationSchedule(model persistence.Schedule) application.Schedule {
	return application.Schedule{
		ID:            model.ID,
		Title:         model.Title,
		Type:          model.Type,
		Start:         model.Start,
		End:           model.End,
		Days:          append([]time.Weekday(nil), model.Days...),
		SemesterStart: cloneTime(model.SemesterStart),
		SemesterEnd:   cloneTime(model.SemesterEnd),
		Details: application.ScheduleDetails{
			Professor: model.Details.Professor,
			Classroom: model.Details.Classroom,
			Notes:     model.Details.Notes,
		},
		UserID:    model.UserID,
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
	}
}

func toPersistenceSchedule(schedule application.Schedule) persistence.Schedule {
	return persistence.Schedule{
		ID:            schedule.ID,
		Title:         schedule.Title,
		Type:          schedule.Type,
		Start:         schedule.Start,
		End:           schedule.End,
		Days:          append([]time.Weekday(nil), schedule.Days...),
		SemesterStart: cloneTime(schedule.SemesterStart),
		SemesterEnd:   cloneTime(schedule.SemesterEnd),
		Details: persistence.ScheduleDetails{
			Professor: schedule.Details.Professor,
			Classroom: schedule.Details.Classroom,
			Notes:     schedule.Details.Notes,
		},
		UserID:    schedule.UserID,
		CreatedAt: schedule.CreatedAt,
		UpdatedAt: schedule.UpdatedAt,
	}
}

func toApplicationGroup(model persistence.StudyGroup) application.StudyGroup {
	return application.StudyGroup{
		ID:          model.ID,
		Name:        model.Name,
		Subject:     model.Subject,
		Description: model.Description,
		Members:     append([]string(nil), model.Members...),
		Schedule: application.GroupSchedule{
			Start:   model.Schedule.Start,
			End:     model.Schedule.End,
			EventID: model.Schedule.EventID,
		},
		UserID:    model.UserID,
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
	}
}

func toPersistenceGroup(group application.StudyGroup) persistence.StudyGroup {
	return persistence.StudyGroup{
		ID:          group.ID,
		Name:        group.Name,
		Subject:     group.Subject,
		Description: group.Description,
		Members:     append([]string(nil), group.Members...),
		Schedule: persistence.GroupSchedule{
			Start:   group.Schedule.Start,
			End:     group.Schedule.End,
			EventID: group.Schedule.EventID,
		},
		UserID:    group.UserID,
		CreatedAt: group.CreatedAt,
		UpdatedAt: group.UpdatedAt,
	}
}

func cloneTime(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	clone := *value
	return &clone
}
