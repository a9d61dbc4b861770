package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/campus-scheduler/internal/persistence"
)

// allowedEmailDomain restricts registration to institutional accounts.
const allowedEmailDomain = "@ucaldas.edu.co"

const minPasswordLength = 6

// CredentialStore exposes the user persistence operations required by the auth service.
type CredentialStore interface {
	CreateUser(ctx context.Context, credentials UserCredentials) (User, error)
	GetUserCredentialsByEmail(ctx context.Context, email string) (UserCredentials, error)
	GetUser(ctx context.Context, id string) (User, error)
}

// PasswordVerifier compares a stored hash with a candidate password.
type PasswordVerifier func(hashedPassword, password string) error

// PasswordHasher derives a storable hash from a plaintext password.
type PasswordHasher func(password string) (string, error)

// AuthService coordinates registration, login and token renewal.
type AuthService struct {
	credentials    CredentialStore
	tokens         *TokenIssuer
	verifyPassword PasswordVerifier
	hashPassword   PasswordHasher
	idGenerator    func() string
	now            func() time.Time
	logger         *slog.Logger
}

// NewAuthService constructs an AuthService with the provided dependencies.
func NewAuthService(credentials CredentialStore, tokens *TokenIssuer, idGenerator func() string, now func() time.Time) *AuthService {
	return NewAuthServiceWithLogger(credentials, tokens, idGenerator, now, nil)
}

// NewAuthServiceWithLogger constructs an AuthService with a specified logger.
func NewAuthServiceWithLogger(credentials CredentialStore, tokens *TokenIssuer, idGenerator func() string, now func() time.Time, logger *slog.Logger) *AuthService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &AuthService{
		credentials:    credentials,
		tokens:         tokens,
		verifyPassword: VerifyPassword,
		hashPassword: func(password string) (string, error) {
			return CreatePasswordHash(password, DefaultArgon2idParams)
		},
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

func (s *AuthService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "AuthService", operation, attrs...)
}

// Register creates a student account and signs the new user in.
func (s *AuthService) Register(ctx context.Context, input UserInput) (result AuthenticateResult, err error) {
	if s == nil {
		err = fmt.Errorf("AuthService is nil")
		return
	}
	if s.credentials == nil {
		err = fmt.Errorf("credential store not configured")
		return
	}

	email := strings.TrimSpace(strings.ToLower(input.Email))
	logger := s.loggerWith(ctx, "Register", "email", email)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "registration failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("user_id", result.User.ID).InfoContext(ctx, "registration succeeded")
	}()

	vErr := &ValidationError{}
	if email == "" {
		vErr.add("email", "email is required")
	} else if !strings.HasSuffix(email, allowedEmailDomain) {
		vErr.add("email", fmt.Sprintf("email must belong to %s", allowedEmailDomain))
	}
	if strings.TrimSpace(input.Name) == "" {
		vErr.add("name", "name is required")
	}
	if len(input.Password) < minPasswordLength {
		vErr.add("password", fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}

	var hash string
	hash, err = s.hashPassword(input.Password)
	if err != nil {
		return
	}

	now := s.now()
	user := User{
		ID:        s.idGenerator(),
		Email:     email,
		Name:      strings.TrimSpace(input.Name),
		Career:    strings.TrimSpace(input.Career),
		CreatedAt: now,
		UpdatedAt: now,
	}

	created, createErr := s.credentials.CreateUser(ctx, UserCredentials{User: user, PasswordHash: hash})
	if createErr != nil {
		if errors.Is(createErr, persistence.ErrDuplicate) {
			dup := &ValidationError{}
			dup.add("email", "email is already registered")
			err = dup
			return
		}
		err = createErr
		return
	}

	var token string
	token, err = s.tokens.Issue(created)
	if err != nil {
		return
	}

	result = AuthenticateResult{User: created, Token: token}
	return
}

// Authenticate validates credentials and issues a signed access token.
func (s *AuthService) Authenticate(ctx context.Context, params AuthenticateParams) (result AuthenticateResult, err error) {
	if s == nil {
		err = fmt.Errorf("AuthService is nil")
		return
	}
	if s.credentials == nil {
		err = fmt.Errorf("credential store not configured")
		return
	}

	email := strings.TrimSpace(strings.ToLower(params.Email))
	password := params.Password

	logger := s.loggerWith(ctx, "Authenticate", "email", email)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "authentication failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("user_id", result.User.ID).InfoContext(ctx, "authentication succeeded")
	}()

	if email == "" || password == "" {
		err = ErrInvalidCredentials
		return
	}

	var creds UserCredentials
	creds, err = s.credentials.GetUserCredentialsByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, persistence.ErrNotFound) {
			err = ErrInvalidCredentials
			return
		}
		return
	}

	if err = s.verifyPassword(creds.PasswordHash, password); err != nil {
		err = ErrInvalidCredentials
		return
	}

	var token string
	token, err = s.tokens.Issue(creds.User)
	if err != nil {
		return
	}

	result = AuthenticateResult{User: creds.User, Token: token}
	return
}

// Renew issues a fresh token for an already authenticated principal.
func (s *AuthService) Renew(ctx context.Context, principal Principal) (result AuthenticateResult, err error) {
	if s == nil {
		err = fmt.Errorf("AuthService is nil")
		return
	}
	if s.credentials == nil {
		err = fmt.Errorf("credential store not configured")
		return
	}

	logger := s.loggerWith(ctx, "Renew", "user_id", principal.UserID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "token renewal failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "token renewed")
	}()

	var user User
	user, err = s.credentials.GetUser(ctx, principal.UserID)
	if err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, persistence.ErrNotFound) {
			err = ErrUnauthorized
		}
		return
	}

	var token string
	token, err = s.tokens.Issue(user)
	if err != nil {
		return
	}

	result = AuthenticateResult{User: user, Token: token}
	return
}

// VerifyToken checks a token signature and confirms the subject still exists.
func (s *AuthService) VerifyToken(ctx context.Context, token string) (principal Principal, err error) {
	if s == nil {
		err = fmt.Errorf("AuthService is nil")
		return
	}
	if s.credentials == nil {
		err = fmt.Errorf("credential store not configured")
		return
	}

	trimmed := strings.TrimSpace(token)
	logger := s.loggerWith(ctx, "VerifyToken", "token_provided", trimmed != "")
	defer func() {
		if err != nil {
			logger.WarnContext(ctx, "token verification failed", "error", err, "error_kind", ErrorKind(err))
		}
	}()

	if trimmed == "" {
		err = ErrUnauthorized
		return
	}

	principal, err = s.tokens.Verify(trimmed)
	if err != nil {
		err = ErrUnauthorized
		return
	}

	var user User
	user, err = s.credentials.GetUser(ctx, principal.UserID)
	if err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, persistence.ErrNotFound) {
			err = ErrUnauthorized
		}
		return
	}

	principal = Principal{UserID: user.ID, Name: user.Name}
	return
}
