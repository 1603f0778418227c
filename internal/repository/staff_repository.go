package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"storefront/internal/domain"
)

var (
	ErrStaffNotFound      = errors.New("staff user not found")
	ErrStaffAlreadyExists = errors.New("staff user with this email already exists")
)

// StaffRepository defines the interface for back-office account data access
type StaffRepository interface {
	Create(ctx context.Context, user *domain.StaffUser) error
	FindByEmail(ctx context.Context, email string) (*domain.StaffUser, error)
	FindByID(ctx context.Context, id int64) (*domain.StaffUser, error)
}

type staffRepository struct {
	db *sql.DB
}

// NewStaffRepository creates a new instance of StaffRepository
func NewStaffRepository(db *sql.DB) StaffRepository {
	return &staffRepository{db: db}
}

// Create inserts a staff user. Emails are stored lowercased.
func (r *staffRepository) Create(ctx context.Context, user *domain.StaffUser) error {
	query := `
		INSERT INTO staff_users (email, password_hash, name, is_staff)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`

	user.Email = strings.ToLower(strings.TrimSpace(user.Email))

	err := r.db.QueryRowContext(
		ctx,
		query,
		user.Email,
		user.PasswordHash,
		user.Name,
		user.IsStaff,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)

	if err != nil {
		if isUniqueViolation(err, "staff_users_email_key") {
			return ErrStaffAlreadyExists
		}
		return fmt.Errorf("failed to create staff user: %w", err)
	}

	return nil
}

// FindByEmail retrieves a staff user by email, case-insensitively
func (r *staffRepository) FindByEmail(ctx context.Context, email string) (*domain.StaffUser, error) {
	query := `
		SELECT id, email, password_hash, name, is_staff, created_at, updated_at
		FROM staff_users
		WHERE email = $1
	`

	return r.findOne(ctx, "email", query, strings.ToLower(strings.TrimSpace(email)))
}

// FindByID retrieves a staff user by ID
func (r *staffRepository) FindByID(ctx context.Context, id int64) (*domain.StaffUser, error) {
	query := `
		SELECT id, email, password_hash, name, is_staff, created_at, updated_at
		FROM staff_users
		WHERE id = $1
	`

	return r.findOne(ctx, "ID", query, id)
}

func (r *staffRepository) findOne(ctx context.Context, by, query string, arg interface{}) (*domain.StaffUser, error) {
	user := &domain.StaffUser{}
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.Name,
		&user.IsStaff,
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrStaffNotFound
		}
		return nil, fmt.Errorf("failed to find staff user by %s: %w", by, err)
	}

	return user, nil
}
