package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hotelbook/apiserver/internal/auth"
	"github.com/hotelbook/apiserver/internal/store"
	"github.com/hotelbook/apiserver/internal/validator"
	"github.com/hotelbook/apiserver/types"
	"golang.org/x/crypto/bcrypt"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (types.User, error)
	GetByEmail(ctx context.Context, email string) (types.User, error)
	Create(ctx context.Context, user types.User) (types.User, error)
}

// RegisterInput is the payload of a registration.
type RegisterInput struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=6"`
	FirstName string `json:"firstName" validate:"required"`
	LastName  string `json:"lastName" validate:"required"`
}

// UserService encapsulates registration, login and session verification.
type UserService struct {
	repo     UserRepository
	issuer   *auth.Issuer
	hashCost int
}

func NewUserService(repo UserRepository, issuer *auth.Issuer) *UserService {
	return &UserService{repo: repo, issuer: issuer, hashCost: bcrypt.DefaultCost}
}

// SetHashCost overrides the bcrypt cost. Tests lower it to bcrypt.MinCost.
func (s *UserService) SetHashCost(cost int) {
	s.hashCost = cost
}

func (s *UserService) GetByID(ctx context.Context, id string) (types.User, error) {
	return s.repo.GetByID(ctx, id)
}

// Register creates a user and returns it with a session token bound to its id.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (types.User, string, error) {
	in.Email = strings.TrimSpace(in.Email)
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	if err := validator.GetValidator().Struct(in); err != nil {
		return types.User{}, "", fromValidator(err)
	}

	if _, err := s.repo.GetByEmail(ctx, in.Email); err == nil {
		return types.User{}, "", ErrDuplicateUser
	} else if !errors.Is(err, store.ErrNotFound) {
		return types.User{}, "", fmt.Errorf("check user: %w", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.hashCost)
	if err != nil {
		return types.User{}, "", fmt.Errorf("hash password: %w", err)
	}

	user, err := s.repo.Create(ctx, types.User{
		Email:        in.Email,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		PasswordHash: string(hashed),
	})
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return types.User{}, "", ErrDuplicateUser
		}
		return types.User{}, "", fmt.Errorf("create user: %w", err)
	}

	token, err := s.issuer.Issue(user.ID)
	if err != nil {
		return types.User{}, "", fmt.Errorf("issue token: %w", err)
	}
	return user, token, nil
}

// Login verifies the credentials and returns a fresh session token.
// An unknown email and a wrong password fail with the same error.
func (s *UserService) Login(ctx context.Context, email, password string) (types.User, string, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return types.User{}, "", ErrInvalidCredentials
	}

	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.User{}, "", ErrInvalidCredentials
		}
		return types.User{}, "", fmt.Errorf("load user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return types.User{}, "", ErrInvalidCredentials
	}

	token, err := s.issuer.Issue(user.ID)
	if err != nil {
		return types.User{}, "", fmt.Errorf("issue token: %w", err)
	}
	return user, token, nil
}

// Verify resolves a session token to its user id without touching storage.
func (s *UserService) Verify(token string) (string, error) {
	return s.issuer.Verify(token)
}

// TokenTTL is the lifetime of issued tokens, used for the cookie Max-Age.
func (s *UserService) TokenTTL() time.Duration {
	return s.issuer.TTL()
}
