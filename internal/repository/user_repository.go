package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/tahaet/book-ecommerce/internal/domain"

	"github.com/google/uuid"
)

const userColumns = `id, name, email, photo, password_hash, role, is_confirmed, active,
	password_changed_at, confirm_token_hash, confirm_token_expires,
	reset_token_hash, reset_token_expires, activate_token_hash,
	activate_token_expires, created_at, updated_at`

// UserRepository is the data access boundary for accounts. Reads filter out
// soft-deleted users (active = false) unless the method says otherwise; the
// activation flows are the only callers that need deactivated rows.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByEmailAnyStatus(ctx context.Context, email string) (*domain.User, error)
	FindByTokenHash(ctx context.Context, purpose domain.TokenPurpose, hash string) (*domain.User, error)
	List(ctx context.Context) ([]*domain.User, error)
	Update(ctx context.Context, user *domain.User) error
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string, changedAt time.Time) error
	SetConfirmed(ctx context.Context, id uuid.UUID) error
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
	SetToken(ctx context.Context, id uuid.UUID, purpose domain.TokenPurpose, hash string, expires time.Time) error
	ClearToken(ctx context.Context, id uuid.UUID, purpose domain.TokenPurpose) error
	DeleteByID(ctx context.Context, id uuid.UUID) error
}

type userRepository struct {
	db DBTX
}

func NewUserRepository(db DBTX) UserRepository {
	return &userRepository{db: db}
}

func scanUser(s scanner) (*domain.User, error) {
	user := &domain.User{}
	err := s.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.Photo,
		&user.PasswordHash,
		&user.Role,
		&user.IsConfirmed,
		&user.Active,
		&user.PasswordChangedAt,
		&user.ConfirmTokenHash,
		&user.ConfirmTokenExpires,
		&user.ResetTokenHash,
		&user.ResetTokenExpires,
		&user.ActivateTokenHash,
		&user.ActivateTokenExpires,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	return user, err
}

// tokenColumns maps a token purpose onto its hash/expiry column pair.
func tokenColumns(purpose domain.TokenPurpose) (hashCol, expiresCol string) {
	switch purpose {
	case domain.TokenReset:
		return "reset_token_hash", "reset_token_expires"
	case domain.TokenActivate:
		return "activate_token_hash", "activate_token_expires"
	default:
		return "confirm_token_hash", "confirm_token_expires"
	}
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (id, name, email, photo, password_hash, role, is_confirmed, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.db.ExecContext(
		ctx,
		query,
		user.ID,
		user.Name,
		user.Email,
		user.Photo,
		user.PasswordHash,
		user.Role,
		user.IsConfirmed,
		user.Active,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrUserAlreadyExists
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *userRepository) findOne(ctx context.Context, where string, args ...any) (*domain.User, error) {
	query := fmt.Sprintf("SELECT %s FROM users WHERE %s", userColumns, where)

	user, err := scanUser(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}

func (r *userRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return r.findOne(ctx, "id = $1 AND active = TRUE", id)
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, "email = $1 AND active = TRUE", email)
}

func (r *userRepository) FindByEmailAnyStatus(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, "email = $1", email)
}

func (r *userRepository) FindByTokenHash(ctx context.Context, purpose domain.TokenPurpose, hash string) (*domain.User, error) {
	hashCol, expiresCol := tokenColumns(purpose)
	where := fmt.Sprintf("%s = $1 AND %s > NOW()", hashCol, expiresCol)
	// Activation operates on deactivated users; every other purpose keeps
	// the soft-delete filter.
	if purpose != domain.TokenActivate {
		where += " AND active = TRUE"
	}
	return r.findOne(ctx, where, hash)
}

func (r *userRepository) List(ctx context.Context) ([]*domain.User, error) {
	query := fmt.Sprintf("SELECT %s FROM users WHERE active = TRUE ORDER BY created_at", userColumns)

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := []*domain.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}
	return users, nil
}

func (r *userRepository) Update(ctx context.Context, user *domain.User) error {
	query := `
		UPDATE users
		SET name = $2, email = $3, photo = $4, role = $5, updated_at = NOW()
		WHERE id = $1
	`

	res, err := r.db.ExecContext(ctx, query, user.ID, user.Name, user.Email, user.Photo, user.Role)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrUserAlreadyExists
		}
		return fmt.Errorf("failed to update user: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *userRepository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string, changedAt time.Time) error {
	query := `
		UPDATE users
		SET password_hash = $2, password_changed_at = $3, updated_at = NOW()
		WHERE id = $1
	`

	res, err := r.db.ExecContext(ctx, query, id, passwordHash, changedAt)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *userRepository) SetConfirmed(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE users SET is_confirmed = TRUE, updated_at = NOW() WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to confirm user: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *userRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE users SET active = $2, updated_at = NOW() WHERE id = $1", id, active)
	if err != nil {
		return fmt.Errorf("failed to set active flag: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *userRepository) SetToken(ctx context.Context, id uuid.UUID, purpose domain.TokenPurpose, hash string, expires time.Time) error {
	hashCol, expiresCol := tokenColumns(purpose)
	query := fmt.Sprintf(
		"UPDATE users SET %s = $2, %s = $3, updated_at = NOW() WHERE id = $1",
		hashCol, expiresCol)

	res, err := r.db.ExecContext(ctx, query, id, hash, expires)
	if err != nil {
		return fmt.Errorf("failed to store %s token: %w", purpose, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *userRepository) ClearToken(ctx context.Context, id uuid.UUID, purpose domain.TokenPurpose) error {
	hashCol, expiresCol := tokenColumns(purpose)
	query := fmt.Sprintf(
		"UPDATE users SET %s = NULL, %s = NULL, updated_at = NOW() WHERE id = $1",
		hashCol, expiresCol)

	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("failed to clear %s token: %w", purpose, err)
	}
	return nil
}

func (r *userRepository) DeleteByID(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM users WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrUserNotFound
	}
	return nil
}
