package middleware

import (
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"
)

// Response is the envelope every endpoint answers with. Status is
// "success" for 2xx, "fail" for client errors and "error" for server
// errors.
type Response struct {
	Status  string `json:"status"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

// RespondWithJSON sends a success envelope wrapping the payload.
func RespondWithJSON(w http.ResponseWriter, statusCode int, data any) {
	writeJSON(w, statusCode, Response{Status: "success", Data: data})
}

// RespondWithMessage sends a success envelope carrying only a message,
// for operations with nothing to return (emails sent, carts cleared).
func RespondWithMessage(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, Response{Status: "success", Message: message})
}

// RespondWithError sends a fail or error envelope depending on whether
// the fault is the client's or ours.
func RespondWithError(w http.ResponseWriter, statusCode int, message string) {
	status := "fail"
	if statusCode >= http.StatusInternalServerError {
		status = "error"
	}
	writeJSON(w, statusCode, Response{Status: status, Message: message})
}

// RespondWithFailData sends a fail envelope carrying both a message and
// a payload, for client errors the caller can act on (a payment link to
// retry, a list of field violations).
func RespondWithFailData(w http.ResponseWriter, statusCode int, message string, data any) {
	status := "fail"
	if statusCode >= http.StatusInternalServerError {
		status = "error"
	}
	writeJSON(w, statusCode, Response{Status: status, Message: message, Data: data})
}

func writeJSON(w http.ResponseWriter, statusCode int, payload Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(payload)
}

// ErrorHandlingMiddleware catches panics and converts them to 500
// responses. Outside production the panic value leaks into the message
// to ease debugging.
func ErrorHandlingMiddleware(logger *zap.Logger, isProduction bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					logger.Error("Panic recovered",
						zap.Any("error", err),
						zap.String("path", r.URL.Path),
						zap.String("method", r.Method),
					)

					message := "something went very wrong"
					if !isProduction {
						message = fmt.Sprintf("panic: %v", err)
					}
					RespondWithError(w, http.StatusInternalServerError, message)
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
