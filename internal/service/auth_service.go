package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/tahaet/book-ecommerce/internal/domain"
	"github.com/tahaet/book-ecommerce/internal/mail"
	"github.com/tahaet/book-ecommerce/internal/repository"
	"github.com/tahaet/book-ecommerce/internal/token"
)

const bcryptCost = 12

// AuthService owns signup, login and every token-driven account flow.
// Confirmation, password reset and reactivation all share the same
// one-shot opaque token mechanics from the token package.
type AuthService struct {
	users   repository.UserRepository
	jwt     *token.JWTManager
	mailer  mail.Mailer
	baseURL string
}

func NewAuthService(users repository.UserRepository, jwt *token.JWTManager, mailer mail.Mailer, baseURL string) *AuthService {
	return &AuthService{users: users, jwt: jwt, mailer: mailer, baseURL: baseURL}
}

type SignUpInput struct {
	Name            string
	Email           string
	Password        string
	PasswordConfirm string
}

// SignUp creates an unconfirmed account and emails a confirmation link.
// If the email cannot be delivered the token is cleared so the user can
// simply retry instead of being stuck with a dangling hash.
func (s *AuthService) SignUp(ctx context.Context, in SignUpInput) (*domain.User, error) {
	if in.Password != in.PasswordConfirm {
		return nil, ErrPasswordMismatch
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	now := time.Now()
	user := &domain.User{
		ID:           uuid.New(),
		Name:         in.Name,
		Email:        in.Email,
		Photo:        "default.jpg",
		PasswordHash: string(hash),
		Role:         domain.RoleUser,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	raw, tokenHash, err := token.NewOpaque()
	if err != nil {
		return nil, fmt.Errorf("generating confirmation token: %w", err)
	}
	expiry := time.Now().Add(token.OpaqueExpiry)
	if err := s.users.SetToken(ctx, user.ID, domain.TokenConfirm, tokenHash, expiry); err != nil {
		return nil, err
	}

	link := fmt.Sprintf("%s/api/v1/users/confirmEmail/%s", s.baseURL, raw)
	body := fmt.Sprintf("Welcome %s! Please confirm your email within 10 minutes:\n\n%s", user.Name, link)
	if err := s.mailer.Send(user.Email, "Confirm your email (valid for 10 minutes)", body); err != nil {
		_ = s.users.ClearToken(ctx, user.ID, domain.TokenConfirm)
		return nil, fmt.Errorf("%w: %v", ErrEmailDelivery, err)
	}
	return user, nil
}

// ConfirmEmail consumes a confirmation token and logs the user in.
func (s *AuthService) ConfirmEmail(ctx context.Context, rawToken string) (string, *domain.User, error) {
	user, err := s.users.FindByTokenHash(ctx, domain.TokenConfirm, token.Hash(rawToken))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return "", nil, ErrInvalidToken
		}
		return "", nil, err
	}
	if err := s.users.SetConfirmed(ctx, user.ID); err != nil {
		return "", nil, err
	}
	if err := s.users.ClearToken(ctx, user.ID, domain.TokenConfirm); err != nil {
		return "", nil, err
	}
	user.IsConfirmed = true
	return s.issueSession(user)
}

// Login verifies credentials. Bad email and bad password return the same
// error so the response does not leak which accounts exist.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return "", nil, ErrInvalidCredentials
	}
	if !user.IsConfirmed {
		return "", nil, ErrEmailUnconfirmed
	}
	return s.issueSession(user)
}

// UserFromToken resolves a session token to a live user, rejecting
// sessions issued before the last password change.
func (s *AuthService) UserFromToken(ctx context.Context, tokenString string) (*domain.User, error) {
	claims, err := s.jwt.Parse(tokenString)
	if err != nil {
		return nil, ErrInvalidToken
	}
	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserGone
		}
		return nil, err
	}
	if claims.IssuedAt != nil && user.PasswordChangedAfter(claims.IssuedAt.Time) {
		return nil, ErrPasswordChanged
	}
	return user, nil
}

// ForgotPassword emails a reset link to a known account.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return err
	}

	raw, tokenHash, err := token.NewOpaque()
	if err != nil {
		return fmt.Errorf("generating reset token: %w", err)
	}
	expiry := time.Now().Add(token.OpaqueExpiry)
	if err := s.users.SetToken(ctx, user.ID, domain.TokenReset, tokenHash, expiry); err != nil {
		return err
	}

	link := fmt.Sprintf("%s/api/v1/users/resetPassword/%s", s.baseURL, raw)
	body := fmt.Sprintf("Forgot your password? Submit a new one at:\n\n%s\n\nIf you didn't, ignore this email.", link)
	if err := s.mailer.Send(user.Email, "Your password reset token (valid for 10 minutes)", body); err != nil {
		_ = s.users.ClearToken(ctx, user.ID, domain.TokenReset)
		return fmt.Errorf("%w: %v", ErrEmailDelivery, err)
	}
	return nil
}

// ResetPassword consumes a reset token, rejects reuse of the old
// password, and logs the user straight in with the new one.
func (s *AuthService) ResetPassword(ctx context.Context, rawToken, password, passwordConfirm string) (string, *domain.User, error) {
	if password != passwordConfirm {
		return "", nil, ErrPasswordMismatch
	}
	user, err := s.users.FindByTokenHash(ctx, domain.TokenReset, token.Hash(rawToken))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return "", nil, ErrInvalidToken
		}
		return "", nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) == nil {
		return "", nil, ErrSamePassword
	}
	if err := s.changePassword(ctx, user, password); err != nil {
		return "", nil, err
	}
	if err := s.users.ClearToken(ctx, user.ID, domain.TokenReset); err != nil {
		return "", nil, err
	}
	return s.issueSession(user)
}

// UpdatePassword changes the password of an already logged-in user and
// re-issues the session, since the old one dies with the change.
func (s *AuthService) UpdatePassword(ctx context.Context, userID uuid.UUID, current, password, passwordConfirm string) (string, *domain.User, error) {
	if password != passwordConfirm {
		return "", nil, ErrPasswordMismatch
	}
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return "", nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(current)) != nil {
		return "", nil, ErrWrongPassword
	}
	if err := s.changePassword(ctx, user, password); err != nil {
		return "", nil, err
	}
	return s.issueSession(user)
}

// RequestActivation emails a reactivation link to a deactivated account.
func (s *AuthService) RequestActivation(ctx context.Context, email string) error {
	user, err := s.users.FindByEmailAnyStatus(ctx, email)
	if err != nil {
		return err
	}

	raw, tokenHash, err := token.NewOpaque()
	if err != nil {
		return fmt.Errorf("generating activation token: %w", err)
	}
	expiry := time.Now().Add(token.OpaqueExpiry)
	if err := s.users.SetToken(ctx, user.ID, domain.TokenActivate, tokenHash, expiry); err != nil {
		return err
	}

	link := fmt.Sprintf("%s/api/v1/users/activateAccount/%s", s.baseURL, raw)
	body := fmt.Sprintf("Welcome back! Reactivate your account at:\n\n%s", link)
	if err := s.mailer.Send(user.Email, "Your activation token (valid for 10 minutes)", body); err != nil {
		_ = s.users.ClearToken(ctx, user.ID, domain.TokenActivate)
		return fmt.Errorf("%w: %v", ErrEmailDelivery, err)
	}
	return nil
}

// ActivateAccount consumes an activation token and flips the account
// back to active.
func (s *AuthService) ActivateAccount(ctx context.Context, rawToken string) (string, *domain.User, error) {
	user, err := s.users.FindByTokenHash(ctx, domain.TokenActivate, token.Hash(rawToken))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return "", nil, ErrInvalidToken
		}
		return "", nil, err
	}
	if err := s.users.SetActive(ctx, user.ID, true); err != nil {
		return "", nil, err
	}
	if err := s.users.ClearToken(ctx, user.ID, domain.TokenActivate); err != nil {
		return "", nil, err
	}
	user.Active = true
	return s.issueSession(user)
}

func (s *AuthService) changePassword(ctx context.Context, user *domain.User, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}
	// Backdated a second so a token issued in the same instant as the
	// change still passes the PasswordChangedAfter check.
	changedAt := time.Now().Add(-time.Second)
	if err := s.users.UpdatePassword(ctx, user.ID, string(hash), changedAt); err != nil {
		return err
	}
	user.PasswordHash = string(hash)
	user.PasswordChangedAt = &changedAt
	return nil
}

func (s *AuthService) issueSession(user *domain.User) (string, *domain.User, error) {
	tok, err := s.jwt.Sign(user.ID, user.Role)
	if err != nil {
		return "", nil, fmt.Errorf("signing session token: %w", err)
	}
	return tok, user, nil
}
