package testfixtures

import (
	"log/slog"
	"time"

	"github.com/example/campus-scheduler/internal/application"
)

// ServiceFactory assists tests with constructing application services using
// deterministic identifiers and clocks.
type ServiceFactory struct {
	Clock       *Clock
	IDGenerator *IDGenerator
}

// ServiceFactoryOption configures a ServiceFactory instance.
type ServiceFactoryOption func(*ServiceFactory)

// NewServiceFactory constructs a ServiceFactory with defaults.
func NewServiceFactory(opts ...ServiceFactoryOption) *ServiceFactory {
	factory := &ServiceFactory{
		Clock:       NewClock(time.Time{}),
		IDGenerator: NewIDGenerator("id"),
	}
	for _, opt := range opts {
		opt(factory)
	}
	if factory.Clock == nil {
		factory.Clock = NewClock(time.Time{})
	}
	if factory.IDGenerator == nil {
		factory.IDGenerator = NewIDGenerator("id")
	}
	return factory
}

// WithClock overrides the clock used by the factory.
func WithClock(clock *Clock) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Clock = clock
	}
}

// WithIDGenerator overrides the identifier generator used by the factory.
func WithIDGenerator(generator *IDGenerator) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.IDGenerator = generator
	}
}

// ScheduleServiceDeps captures dependencies for constructing a schedule service.
type ScheduleServiceDeps struct {
	Schedules   application.ScheduleRepository
	IDGenerator func() string
	Now         func() time.Time
	Logger      *slog.Logger
}

// NewScheduleService builds a schedule service using the supplied dependencies
// combined with the factory defaults.
func (f *ServiceFactory) NewScheduleService(deps ScheduleServiceDeps) *application.ScheduleService {
	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = f.IDGenerator.NextFunc()
	}
	now := deps.Now
	if now == nil {
		now = f.Clock.NowFunc()
	}
	return application.NewScheduleServiceWithLogger(deps.Schedules, idGen, now, deps.Logger)
}

// AuthServiceDeps captures dependencies for constructing an auth service.
type AuthServiceDeps struct {
	Credentials application.CredentialStore
	Tokens      *application.TokenIssuer
	IDGenerator func() string
	Now         func() time.Time
	Logger      *slog.Logger
}

// NewAuthService builds an auth service using the supplied dependencies.
func (f *ServiceFactory) NewAuthService(deps AuthServiceDeps) *application.AuthService {
	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = f.IDGenerator.NextFunc()
	}
	now := deps.Now
	if now == nil {
		now = f.Clock.NowFunc()
	}
	tokens := deps.Tokens
	if tokens == nil {
		tokens = application.NewTokenIssuer("testfixtures-secret", time.Hour, now)
	}
	return application.NewAuthServiceWithLogger(deps.Credentials, tokens, idGen, now, deps.Logger)
}

// AvailabilityServiceDeps captures dependencies for constructing an
// availability service.
type AvailabilityServiceDeps struct {
	Users     application.UserDirectory
	Schedules application.ScheduleRepository
	Logger    *slog.Logger
}

// NewAvailabilityService builds an availability service using the supplied
// dependencies.
func (f *ServiceFactory) NewAvailabilityService(deps AvailabilityServiceDeps) *application.AvailabilityService {
	return application.NewAvailabilityServiceWithLogger(deps.Users, deps.Schedules, deps.Logger)
}

// GroupServiceDeps captures dependencies for constructing a study group service.
type GroupServiceDeps struct {
	Groups      application.GroupRepository
	Schedules   application.ScheduleRepository
	Users       application.UserDirectory
	IDGenerator func() string
	Now         func() time.Time
	Logger      *slog.Logger
}

// NewGroupService builds a study group service using the supplied dependencies.
func (f *ServiceFactory) NewGroupService(deps GroupServiceDeps) *application.GroupService {
	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = f.IDGenerator.NextFunc()
	}
	now := deps.Now
	if now == nil {
		now = f.Clock.NowFunc()
	}
	return application.NewGroupServiceWithLogger(deps.Groups, deps.Schedules, deps.Users, idGen, now, deps.Logger)
}
