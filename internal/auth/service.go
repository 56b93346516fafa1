package auth

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/mrlokans/bookmarks/internal/config"
	"github.com/mrlokans/bookmarks/internal/database"
	"github.com/mrlokans/bookmarks/internal/entities"
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("wrong email or password")
	ErrInvalidToken       = errors.New("invalid token")
	ErrTokenExpired       = errors.New("token expired")
	ErrAuthRequired       = errors.New("authentication required")
	ErrEmailRequired      = errors.New("email is required")
	ErrPasswordRequired   = errors.New("password is required")
	ErrEmailInvalid       = errors.New("invalid email format")
	ErrAccountLocked      = errors.New("account is locked due to too many failed login attempts")
)

// UserStore is the persistence the service needs. Lookups return
// (nil, nil) for a missing user.
type UserStore interface {
	Create(ctx context.Context, user *entities.User) error
	GetByID(ctx context.Context, id uint) (*entities.User, error)
	GetByEmail(ctx context.Context, email string) (*entities.User, error)
	RecordFailedLogin(ctx context.Context, id uint, count int, lockedUntil *time.Time) error
	RecordSuccessfulLogin(ctx context.Context, id uint, at time.Time) error
}

// Service handles authentication and user management.
type Service struct {
	users  UserStore
	tokens *TokenIssuer
	config config.Auth
	now    func() time.Time
}

// NewService creates a new authentication service. cfg.JWTSecret must be set.
func NewService(users UserStore, cfg config.Auth) *Service {
	return &Service{
		users:  users,
		tokens: NewTokenIssuer(cfg.JWTSecret, cfg.TokenExpiry),
		config: cfg,
		now:    time.Now,
	}
}

// CreateUser registers a local account.
func (s *Service) CreateUser(ctx context.Context, email, password string) (*entities.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, ErrEmailRequired
	}
	if password == "" {
		return nil, ErrPasswordRequired
	}
	// RFC 5321 limit is 254
	if len(email) > 254 || !emailPattern.MatchString(email) {
		return nil, ErrEmailInvalid
	}

	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if existing != nil {
		return nil, ErrUserExists
	}

	passwordHash, err := HashPassword(password, s.config.BcryptCost)
	if err != nil {
		return nil, err
	}

	user := &entities.User{
		Email:        email,
		PasswordHash: passwordHash,
	}
	if err := s.users.Create(ctx, user); err != nil {
		// Lost a race with a concurrent sign-up for the same email.
		if _, ok := database.ConstraintViolation(err); ok {
			return nil, ErrUserExists
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// Authenticate validates credentials and returns the user. Accounts are
// locked for LockoutDuration after LockoutThreshold consecutive failures.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*entities.User, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}

	now := s.now()
	if user.LockedUntil != nil && now.Before(*user.LockedUntil) {
		return nil, ErrAccountLocked
	}

	if err := CheckPassword(password, user.PasswordHash); err != nil {
		if !errors.Is(err, ErrInvalidPassword) {
			return nil, err
		}
		if recErr := s.recordFailedLogin(ctx, user, now); recErr != nil {
			return nil, recErr
		}
		return nil, ErrInvalidCredentials
	}

	if err := s.users.RecordSuccessfulLogin(ctx, user.ID, now); err != nil {
		return nil, fmt.Errorf("failed to record login: %w", err)
	}
	user.FailedLoginCount = 0
	user.LockedUntil = nil
	user.LastLoginAt = &now
	return user, nil
}

func (s *Service) recordFailedLogin(ctx context.Context, user *entities.User, now time.Time) error {
	threshold := s.config.LockoutThreshold
	if threshold <= 0 {
		threshold = 5
	}

	count := user.FailedLoginCount + 1
	var lockedUntil *time.Time
	if count >= threshold {
		lockoutDuration := s.config.LockoutDuration
		if lockoutDuration == 0 {
			lockoutDuration = 30 * time.Minute
		}
		until := now.Add(lockoutDuration)
		lockedUntil = &until
		count = 0
	}

	if err := s.users.RecordFailedLogin(ctx, user.ID, count, lockedUntil); err != nil {
		return fmt.Errorf("failed to record failed login: %w", err)
	}
	return nil
}

// IssueToken returns a signed access token for the user.
func (s *Service) IssueToken(user *entities.User) (string, time.Time, error) {
	return s.tokens.Issue(user.ID, user.Email)
}

// ValidateToken verifies an access token and returns the user it was issued for.
func (s *Service) ValidateToken(ctx context.Context, token string) (*entities.User, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return nil, err
	}
	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidToken
	}
	return user, nil
}

// GetUserByID retrieves a user by their ID.
func (s *Service) GetUserByID(ctx context.Context, id uint) (*entities.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// IsAuthEnabled returns true if authentication is required.
func (s *Service) IsAuthEnabled() bool {
	return s.config.Mode == config.AuthModeLocal
}
