package transport

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/tahaet/book-ecommerce/internal/domain"
	"github.com/tahaet/book-ecommerce/internal/middleware"
	"github.com/tahaet/book-ecommerce/internal/service"
)

type SignUpRequest struct {
	Name            string `json:"name" validate:"required"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=8"`
	PasswordConfirm string `json:"passwordConfirm" validate:"required,eqfield=Password"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type EmailRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type ResetPasswordRequest struct {
	Password        string `json:"password" validate:"required,min=8"`
	PasswordConfirm string `json:"passwordConfirm" validate:"required,eqfield=Password"`
}

type UpdatePasswordRequest struct {
	PasswordCurrent string `json:"passwordCurrent" validate:"required"`
	Password        string `json:"password" validate:"required,min=8"`
	PasswordConfirm string `json:"passwordConfirm" validate:"required,eqfield=Password"`
}

type UpdateMeRequest struct {
	Name  *string `json:"name" validate:"omitempty,min=1"`
	Email *string `json:"email" validate:"omitempty,email"`
	Photo *string `json:"photo"`
}

type AdminUpdateUserRequest struct {
	Name  *string `json:"name" validate:"omitempty,min=1"`
	Email *string `json:"email" validate:"omitempty,email"`
	Role  *string `json:"role" validate:"omitempty,oneof=admin user employee company"`
}

type SessionResponse struct {
	Token string       `json:"token"`
	User  *domain.User `json:"user"`
}

// CookieSettings controls how the session cookie is written.
type CookieSettings struct {
	ExpiryDays   int
	IsProduction bool
}

// UserHandler handles authentication and account management.
type UserHandler struct {
	auth    *service.AuthService
	users   *service.UserService
	cookies CookieSettings
	logger  *zap.Logger
}

func NewUserHandler(auth *service.AuthService, users *service.UserService, cookies CookieSettings, logger *zap.Logger) *UserHandler {
	return &UserHandler{auth: auth, users: users, cookies: cookies, logger: logger}
}

// RegisterRoutes mounts the user routes. rateLimit guards the
// credential endpoints; protect and the role gate come from the caller
// so the whole API shares one auth chain.
func (h *UserHandler) RegisterRoutes(r chi.Router, protect, rateLimit func(http.Handler) http.Handler) {
	r.Route("/users", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(rateLimit)
			r.Post("/signup", h.SignUp)
			r.Post("/login", h.Login)
			r.Post("/forgotPassword", h.ForgotPassword)
			r.Patch("/resetPassword/{token}", h.ResetPassword)
			r.Post("/activateAccountRequest", h.RequestActivation)
		})

		r.Get("/logout", h.Logout)
		r.Get("/confirmEmail/{token}", h.ConfirmEmail)
		r.Post("/activateAccount/{token}", h.ActivateAccount)

		r.Group(func(r chi.Router) {
			r.Use(protect)
			r.Patch("/changePassword", h.ChangePassword)
			r.Get("/me", h.GetMe)
			r.Patch("/updateMe", h.UpdateMe)
			r.Delete("/deleteMe", h.DeleteMe)
		})

		r.Group(func(r chi.Router) {
			r.Use(protect)
			r.Use(middleware.RequireRole(h.logger, domain.RoleAdmin))
			r.Get("/", h.ListUsers)
			r.Post("/", h.CreateUser)
			r.Get("/{id}", h.GetUser)
			r.Patch("/{id}", h.AdminUpdateUser)
			r.Delete("/{id}", h.AdminDeleteUser)
		})
	})
}

func (h *UserHandler) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(time.Duration(h.cookies.ExpiryDays) * 24 * time.Hour),
		HttpOnly: true,
		Secure:   h.cookies.IsProduction,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *UserHandler) respondSession(w http.ResponseWriter, statusCode int, token string, user *domain.User) {
	h.setSessionCookie(w, token)
	middleware.RespondWithJSON(w, statusCode, SessionResponse{Token: token, User: user})
}

func (h *UserHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req SignUpRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		respondBadRequest(w, err)
		return
	}

	user, err := h.auth.SignUp(r.Context(), service.SignUpInput{
		Name:            req.Name,
		Email:           req.Email,
		Password:        req.Password,
		PasswordConfirm: req.PasswordConfirm,
	})
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	h.logger.Info("User signed up", zap.String("user_id", user.ID.String()))
	middleware.RespondWithJSON(w, http.StatusCreated, map[string]any{
		"user":    user,
		"message": "confirmation email sent, please confirm within 10 minutes",
	})
}

func (h *UserHandler) ConfirmEmail(w http.ResponseWriter, r *http.Request) {
	token, user, err := h.auth.ConfirmEmail(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	h.logger.Info("Email confirmed", zap.String("user_id", user.ID.String()))
	h.respondSession(w, http.StatusOK, token, user)
}

func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		respondBadRequest(w, err)
		return
	}

	token, user, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	h.respondSession(w, http.StatusOK, token, user)
}

// Logout overwrites the session cookie with a short-lived placeholder.
// The JWT itself stays valid until expiry; logout is a browser affair.
func (h *UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    middleware.LoggedOutCookieValue,
		Path:     "/",
		Expires:  time.Now().Add(10 * time.Second),
		HttpOnly: true,
	})
	middleware.RespondWithMessage(w, http.StatusOK, "logged out")
}

func (h *UserHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req EmailRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		respondBadRequest(w, err)
		return
	}

	if err := h.auth.ForgotPassword(r.Context(), req.Email); err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	middleware.RespondWithMessage(w, http.StatusOK, "token sent to email")
}

func (h *UserHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req ResetPasswordRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		respondBadRequest(w, err)
		return
	}

	token, user, err := h.auth.ResetPassword(r.Context(), chi.URLParam(r, "token"), req.Password, req.PasswordConfirm)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	h.logger.Info("Password reset", zap.String("user_id", user.ID.String()))
	h.respondSession(w, http.StatusOK, token, user)
}

func (h *UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.CurrentUser(r.Context())

	var req UpdatePasswordRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		respondBadRequest(w, err)
		return
	}

	token, updated, err := h.auth.UpdatePassword(r.Context(), user.ID, req.PasswordCurrent, req.Password, req.PasswordConfirm)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	h.respondSession(w, http.StatusOK, token, updated)
}

func (h *UserHandler) RequestActivation(w http.ResponseWriter, r *http.Request) {
	var req EmailRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		respondBadRequest(w, err)
		return
	}

	if err := h.auth.RequestActivation(r.Context(), req.Email); err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	middleware.RespondWithMessage(w, http.StatusOK, "token sent to email")
}

func (h *UserHandler) ActivateAccount(w http.ResponseWriter, r *http.Request) {
	token, user, err := h.auth.ActivateAccount(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	h.logger.Info("Account reactivated", zap.String("user_id", user.ID.String()))
	h.respondSession(w, http.StatusOK, token, user)
}

func (h *UserHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.CurrentUser(r.Context())
	middleware.RespondWithJSON(w, http.StatusOK, user)
}

func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.CurrentUser(r.Context())

	var req UpdateMeRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		respondBadRequest(w, err)
		return
	}

	updated, err := h.users.UpdateProfile(r.Context(), user.ID, service.UpdateProfileInput{
		Name:  req.Name,
		Email: req.Email,
		Photo: req.Photo,
	})
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, updated)
}

func (h *UserHandler) DeleteMe(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.CurrentUser(r.Context())

	if err := h.users.Deactivate(r.Context(), user.ID); err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CreateUser exists so the admin collection route answers POST with a
// pointer at signup instead of a bare 405.
func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	middleware.RespondWithError(w, http.StatusInternalServerError, "this route is not defined, please use signup instead")
}

func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context())
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, users)
}

func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	user, err := h.users.Get(r.Context(), id)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, user)
}

func (h *UserHandler) AdminUpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	var req AdminUpdateUserRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		respondBadRequest(w, err)
		return
	}

	user, err := h.users.AdminUpdate(r.Context(), id, service.AdminUpdateUserInput{
		Name:  req.Name,
		Email: req.Email,
		Role:  req.Role,
	})
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, user)
}

func (h *UserHandler) AdminDeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	if err := h.users.AdminDelete(r.Context(), id); err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
