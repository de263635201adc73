package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// DecodeAndValidate decodes a JSON request body into v and checks its
// validation tags.
func DecodeAndValidate(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return err
	}
	return validate.Struct(v)
}

// ValidationError is one failed field, in a shape the client can map
// back onto its form.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// RespondWithValidationErrors renders a 400 fail envelope listing every
// offending field.
func RespondWithValidationErrors(w http.ResponseWriter, errs []ValidationError) {
	writeJSON(w, http.StatusBadRequest, Response{
		Status:  "fail",
		Message: "validation failed",
		Data:    map[string]any{"errors": errs},
	})
}

// FormatValidationErrors converts validator errors to a readable format.
func FormatValidationErrors(err error) []ValidationError {
	var errs []ValidationError

	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		for _, e := range validationErrors {
			errs = append(errs, ValidationError{
				Field:   e.Field(),
				Message: errorMessage(e),
			})
		}
	}
	return errs
}

func errorMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "This field is required"
	case "email":
		return "Invalid email format"
	case "min":
		return "Value is too short"
	case "max":
		return "Value is too long"
	case "gte":
		return "Value must be greater than or equal to " + e.Param()
	case "lte":
		return "Value must be less than or equal to " + e.Param()
	case "eqfield":
		return "Value must match the " + e.Param() + " field"
	case "uuid":
		return "Invalid id format"
	default:
		return "Invalid value"
	}
}
