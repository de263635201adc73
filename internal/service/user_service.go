package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/tahaet/book-ecommerce/internal/domain"
	"github.com/tahaet/book-ecommerce/internal/repository"
)

// UserService covers profile self-service and the admin user listing.
// Credential changes live in AuthService; profile updates here never
// touch the password.
type UserService struct {
	users repository.UserRepository
}

func NewUserService(users repository.UserRepository) *UserService {
	return &UserService{users: users}
}

func (s *UserService) Get(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return s.users.FindByID(ctx, id)
}

func (s *UserService) List(ctx context.Context) ([]*domain.User, error) {
	return s.users.List(ctx)
}

type UpdateProfileInput struct {
	Name  *string
	Email *string
	Photo *string
}

// UpdateProfile applies the provided fields to the user's own profile.
// Nil fields are left untouched.
func (s *UserService) UpdateProfile(ctx context.Context, id uuid.UUID, in UpdateProfileInput) (*domain.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		user.Name = *in.Name
	}
	if in.Email != nil {
		user.Email = *in.Email
	}
	if in.Photo != nil {
		user.Photo = *in.Photo
	}
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Deactivate soft-deletes the account. The row stays so the user can
// come back through the activation flow.
func (s *UserService) Deactivate(ctx context.Context, id uuid.UUID) error {
	return s.users.SetActive(ctx, id, false)
}

type AdminUpdateUserInput struct {
	Name  *string
	Email *string
	Role  *string
}

// AdminUpdate lets an admin change profile fields and the role.
func (s *UserService) AdminUpdate(ctx context.Context, id uuid.UUID, in AdminUpdateUserInput) (*domain.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		user.Name = *in.Name
	}
	if in.Email != nil {
		user.Email = *in.Email
	}
	if in.Role != nil {
		user.Role = *in.Role
	}
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// AdminDelete removes the row outright, unlike the self-service
// soft delete.
func (s *UserService) AdminDelete(ctx context.Context, id uuid.UUID) error {
	return s.users.DeleteByID(ctx, id)
}
