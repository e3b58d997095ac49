package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/lantern-eats/api/internal/domain"
	"github.com/lantern-eats/api/internal/repositories"
)

const (
	minPasswordLength = 8
	maxPasswordLength = 72 // bcrypt input limit
)

// AuthServiceDeps bundles constructor inputs for the auth service.
type AuthServiceDeps struct {
	Users       repositories.UserRepository
	Tokens      TokenIssuer
	Clock       func() time.Time
	IDGenerator func() string
	HashCost    int
}

type authService struct {
	users    repositories.UserRepository
	tokens   TokenIssuer
	clock    func() time.Time
	newID    func() string
	hashCost int
}

// NewAuthService constructs the auth service with the supplied dependencies.
func NewAuthService(deps AuthServiceDeps) (AuthService, error) {
	if deps.Users == nil {
		return nil, errors.New("auth service: user repository is required")
	}
	if deps.Tokens == nil {
		return nil, errors.New("auth service: token issuer is required")
	}
	if deps.IDGenerator == nil {
		return nil, errors.New("auth service: id generator is required")
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	cost := deps.HashCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}

	return &authService{
		users:    deps.Users,
		tokens:   deps.Tokens,
		clock:    func() time.Time { return clock().UTC() },
		newID:    deps.IDGenerator,
		hashCost: cost,
	}, nil
}

func (s *authService) Register(ctx context.Context, cmd RegisterCommand) (AuthResult, error) {
	username := strings.TrimSpace(cmd.Username)
	email := strings.ToLower(strings.TrimSpace(cmd.Email))

	if username == "" {
		return AuthResult{}, fmt.Errorf("%w: username is required", ErrInvalidInput)
	}
	if strings.Contains(username, "@") {
		return AuthResult{}, fmt.Errorf("%w: username must not contain '@'", ErrInvalidInput)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return AuthResult{}, fmt.Errorf("%w: email is invalid", ErrInvalidInput)
	}
	if len(cmd.Password) < minPasswordLength {
		return AuthResult{}, fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, minPasswordLength)
	}
	if len(cmd.Password) > maxPasswordLength {
		return AuthResult{}, fmt.Errorf("%w: password must be at most %d characters", ErrInvalidInput, maxPasswordLength)
	}

	// Self-service registration always yields a customer account. Privileged
	// roles are provisioned out of band.
	role := domain.RoleCustomer
	if raw := strings.TrimSpace(cmd.Role); raw != "" {
		parsed, ok := domain.ParseRole(raw)
		if !ok {
			return AuthResult{}, fmt.Errorf("%w: unknown role %q", ErrInvalidInput, raw)
		}
		if parsed != domain.RoleCustomer {
			return AuthResult{}, fmt.Errorf("%w: role %q cannot self-register", ErrInvalidInput, raw)
		}
		role = parsed
	}

	if _, err := s.users.FindByUsername(ctx, username); err == nil {
		return AuthResult{}, fmt.Errorf("%w: username taken", ErrAccountExists)
	} else if !isNotFound(err) {
		return AuthResult{}, err
	}
	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return AuthResult{}, fmt.Errorf("%w: email taken", ErrAccountExists)
	} else if !isNotFound(err) {
		return AuthResult{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cmd.Password), s.hashCost)
	if err != nil {
		return AuthResult{}, fmt.Errorf("auth service: hash password: %w", err)
	}

	user := domain.User{
		ID:           s.newID(),
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
		CreatedAt:    s.clock(),
	}

	if err := s.users.Insert(ctx, user); err != nil {
		if isConflict(err) {
			return AuthResult{}, ErrAccountExists
		}
		return AuthResult{}, err
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return AuthResult{}, fmt.Errorf("auth service: issue token: %w", err)
	}
	return AuthResult{Token: token, User: user}, nil
}

func (s *authService) Login(ctx context.Context, cmd LoginCommand) (AuthResult, error) {
	identifier := strings.TrimSpace(cmd.Identifier)
	if identifier == "" || cmd.Password == "" {
		return AuthResult{}, ErrInvalidCredentials
	}

	var (
		user domain.User
		err  error
	)
	if strings.Contains(identifier, "@") {
		user, err = s.users.FindByEmail(ctx, strings.ToLower(identifier))
	} else {
		user, err = s.users.FindByUsername(ctx, identifier)
	}
	if err != nil {
		if isNotFound(err) {
			// Constant response for unknown accounts and bad passwords.
			return AuthResult{}, ErrInvalidCredentials
		}
		return AuthResult{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(cmd.Password)); err != nil {
		return AuthResult{}, ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return AuthResult{}, fmt.Errorf("auth service: issue token: %w", err)
	}
	return AuthResult{Token: token, User: user}, nil
}

func (s *authService) Profile(ctx context.Context, userID string) (domain.User, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return domain.User{}, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if isNotFound(err) {
			return domain.User{}, ErrUserNotFound
		}
		return domain.User{}, err
	}
	return user, nil
}
