package transport

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tahaet/book-ecommerce/internal/middleware"
	"github.com/tahaet/book-ecommerce/internal/repository"
	"github.com/tahaet/book-ecommerce/internal/service"
)

// respondServiceError maps service and repository sentinels onto HTTP
// statuses. Anything unrecognized is logged and reported as a 500 with
// a generic message so internals never leak.
func respondServiceError(w http.ResponseWriter, logger *zap.Logger, err error) {
	switch {
	case errors.Is(err, repository.ErrUserNotFound),
		errors.Is(err, repository.ErrCategoryNotFound),
		errors.Is(err, repository.ErrProductNotFound),
		errors.Is(err, repository.ErrCartNotFound),
		errors.Is(err, repository.ErrCartItemNotFound),
		errors.Is(err, repository.ErrOrderNotFound):
		middleware.RespondWithError(w, http.StatusNotFound, err.Error())

	case errors.Is(err, repository.ErrUserAlreadyExists):
		middleware.RespondWithError(w, http.StatusConflict, err.Error())

	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrEmailUnconfirmed),
		errors.Is(err, service.ErrInvalidToken),
		errors.Is(err, service.ErrUserGone),
		errors.Is(err, service.ErrPasswordChanged),
		errors.Is(err, service.ErrWrongPassword):
		middleware.RespondWithError(w, http.StatusUnauthorized, err.Error())

	case errors.Is(err, service.ErrPasswordMismatch),
		errors.Is(err, service.ErrSamePassword),
		errors.Is(err, service.ErrCategoryNameTooLong),
		errors.Is(err, service.ErrDisplayOrderOutOfRange),
		errors.Is(err, service.ErrPriceOutOfRange),
		errors.Is(err, service.ErrCountTooSmall),
		errors.Is(err, service.ErrNoCheckoutSession):
		middleware.RespondWithError(w, http.StatusBadRequest, err.Error())

	case errors.Is(err, service.ErrIllegalTransition):
		middleware.RespondWithError(w, http.StatusConflict, err.Error())

	case errors.Is(err, service.ErrEmailDelivery):
		logger.Error("Email delivery failed", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, service.ErrEmailDelivery.Error())

	default:
		logger.Error("Unhandled service error", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "something went wrong")
	}
}

// respondBadRequest renders decode or validation failures.
func respondBadRequest(w http.ResponseWriter, err error) {
	if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
		middleware.RespondWithValidationErrors(w, validationErrors)
		return
	}
	middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
}

// idParam parses a uuid path parameter.
func idParam(r *http.Request, name string) (uuid.UUID, error) {
	return uuid.Parse(chi.URLParam(r, name))
}
