package user

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/nekogravitycat/campus-scheduler/internal/auth"
)

// Service defines business logic related to users.
type Service interface {
	Register(ctx context.Context, email, password, displayName string) (*User, error)
	Login(ctx context.Context, email, password string) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	List(ctx context.Context, filter Filter) ([]*User, int, error)
	Update(ctx context.Context, id string, req UpdateRequest) (*User, error)
}

// UpdateRequest carries admin changes to an account. Nil fields are left alone.
type UpdateRequest struct {
	DisplayName *string
	Role        *auth.Role
	IsActive    *bool
}

type service struct {
	repo   Repository
	hasher auth.PasswordHasher
	now    func() time.Time

	minPasswordLength int
}

// NewService creates a new user Service.
func NewService(repo Repository, hasher auth.PasswordHasher) Service {
	return &service{
		repo:              repo,
		hasher:            hasher,
		now:               func() time.Time { return time.Now().UTC() },
		minPasswordLength: 8,
	}
}

// Register creates a student account. Roles are granted later by an admin.
func (s *service) Register(ctx context.Context, email, password, displayName string) (*User, error) {
	cleanEmail := normalizeEmail(email)
	if cleanEmail == "" {
		return nil, ErrEmailRequired
	}

	if len(password) < s.minPasswordLength {
		return nil, ErrPasswordTooShort
	}

	// Check if email is already used.
	_, err := s.repo.GetByEmail(ctx, cleanEmail)
	if err == nil {
		return nil, ErrEmailAlreadyUsed
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("failed to check existing email: %w", err)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	u := &User{
		Email:        cleanEmail,
		PasswordHash: hash,
		DisplayName:  trimmedOrNil(displayName),
		Role:         auth.RoleStudent,
		IsActive:     true,
	}

	if err := s.repo.Create(ctx, u); err != nil {
		if errors.Is(err, ErrEmailAlreadyUsed) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return u, nil
}

func (s *service) Login(ctx context.Context, email, password string) (*User, error) {
	cleanEmail := normalizeEmail(email)
	if cleanEmail == "" || strings.TrimSpace(password) == "" {
		return nil, ErrInvalidCredentials
	}

	u, err := s.repo.GetByEmail(ctx, cleanEmail)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to fetch user by email: %w", err)
	}

	// Compare before looking at the active flag so a wrong password never
	// reveals that the account exists.
	if err := s.hasher.Compare(u.PasswordHash, password); err != nil {
		return nil, ErrInvalidCredentials
	}
	if !u.IsActive {
		return nil, ErrInactiveUser
	}

	now := s.now()
	if err := s.repo.UpdateLastLogin(ctx, u.ID, now); err != nil {
		log.Printf("failed to record last login for user %s: %v", u.ID, err)
	} else {
		u.LastLoginAt = &now
	}

	return u, nil
}

func (s *service) GetByID(ctx context.Context, id string) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) List(ctx context.Context, filter Filter) ([]*User, int, error) {
	if filter.Role != "" && !filter.Role.Valid() {
		return nil, 0, ErrInvalidRole
	}
	return s.repo.List(ctx, filter)
}

func (s *service) Update(ctx context.Context, id string, req UpdateRequest) (*User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.DisplayName != nil {
		u.DisplayName = trimmedOrNil(*req.DisplayName)
	}
	if req.Role != nil {
		if !req.Role.Valid() {
			return nil, ErrInvalidRole
		}
		u.Role = *req.Role
	}
	if req.IsActive != nil {
		u.IsActive = *req.IsActive
	}

	if err := s.repo.Update(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// normalizeEmail trims spaces and lowercases the email.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func trimmedOrNil(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
