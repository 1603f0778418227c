package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"storefront/internal/domain"
	"storefront/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const (
	// BcryptCost is the cost factor for staff password hashes
	BcryptCost = 10

	// StaffRole is the role claim carried by every staff token
	StaffRole = "staff"
)

// LoginInput is the staff sign-in form
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// StaffService authenticates back-office users
type StaffService interface {
	Login(ctx context.Context, input LoginInput) (token string, user *domain.StaffUser, err error)
	// IsActiveStaff reports whether id is an existing account that may still
	// use the back-office. Unknown ids are not an error.
	IsActiveStaff(ctx context.Context, id int64) (bool, error)
	// EnsureStaff creates the account unless one already exists for email.
	EnsureStaff(ctx context.Context, email, password, name string) (created bool, err error)
}

// Claims represents the JWT claims
type Claims struct {
	StaffID int64  `json:"staff_id"`
	Role    string `json:"role"`
	jwt.RegisteredClaims
}

type staffService struct {
	staffRepo   repository.StaffRepository
	jwtSecret   string
	tokenExpiry time.Duration
}

// NewStaffService creates a new instance of StaffService
func NewStaffService(
	staffRepo repository.StaffRepository,
	jwtSecret string,
	tokenExpiry time.Duration,
) StaffService {
	return &staffService{
		staffRepo:   staffRepo,
		jwtSecret:   jwtSecret,
		tokenExpiry: tokenExpiry,
	}
}

// Login verifies credentials and issues a signed token. Unknown emails,
// wrong passwords and non-staff accounts all yield ErrInvalidCredentials.
func (s *staffService) Login(ctx context.Context, input LoginInput) (string, *domain.StaffUser, error) {
	input.Email = strings.TrimSpace(input.Email)
	if err := validateStruct(&input).errOrNil(); err != nil {
		return "", nil, err
	}

	user, err := s.staffRepo.FindByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, repository.ErrStaffNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, fmt.Errorf("failed to find staff user: %w", err)
	}

	if err := s.verifyPassword(user.PasswordHash, input.Password); err != nil {
		return "", nil, ErrInvalidCredentials
	}
	if !user.IsStaff {
		return "", nil, ErrInvalidCredentials
	}

	token, err := s.generateAccessToken(user)
	if err != nil {
		return "", nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	return token, user, nil
}

func (s *staffService) IsActiveStaff(ctx context.Context, id int64) (bool, error) {
	user, err := s.staffRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrStaffNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to get staff user: %w", err)
	}
	return user.IsStaff, nil
}

func (s *staffService) EnsureStaff(ctx context.Context, email, password, name string) (bool, error) {
	_, err := s.staffRepo.FindByEmail(ctx, email)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, repository.ErrStaffNotFound) {
		return false, fmt.Errorf("failed to check existing staff user: %w", err)
	}

	hashedPassword, err := s.hashPassword(password)
	if err != nil {
		return false, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &domain.StaffUser{
		Email:        email,
		PasswordHash: hashedPassword,
		Name:         name,
		IsStaff:      true,
	}
	if err := s.staffRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrStaffAlreadyExists) {
			return false, nil
		}
		return false, fmt.Errorf("failed to create staff user: %w", err)
	}

	return true, nil
}

func (s *staffService) hashPassword(password string) (string, error) {
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return "", err
	}
	return string(hashedBytes), nil
}

func (s *staffService) verifyPassword(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}

func (s *staffService) generateAccessToken(user *domain.StaffUser) (string, error) {
	now := time.Now()
	claims := &Claims{
		StaffID: user.ID,
		Role:    StaffRole,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenExpiry)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtSecret))
}
