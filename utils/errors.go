package utils

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// Error codes returned in the "code" field of error responses.
const (
	ErrorCodeValidation    = "VALIDATION_ERROR"
	ErrorCodeNotFound      = "NOT_FOUND"
	ErrorCodeForbidden     = "FORBIDDEN"
	ErrorCodeStateConflict = "STATE_CONFLICT"
	ErrorCodeUnauthorized  = "UNAUTHORIZED"
	ErrorCodeStore         = "STORE_ERROR"
)

// ApiError is an error carrying its HTTP status and a stable code.
type ApiError struct {
	StatusCode int
	Message    string
	ErrorCode  string
	Err        error
}

// Error implements error.
func (e *ApiError) Error() string {
	return e.Message
}

// Unwrap returns the underlying cause, if any.
func (e *ApiError) Unwrap() error {
	return e.Err
}

// NewApiError builds an ApiError.
func NewApiError(message string, statusCode int, errorCode string) *ApiError {
	return &ApiError{
		StatusCode: statusCode,
		Message:    message,
		ErrorCode:  errorCode,
	}
}

// CreateValidationError reports a missing or invalid field.
func CreateValidationError(message string) *ApiError {
	return NewApiError(message, http.StatusBadRequest, ErrorCodeValidation)
}

// CreateNotFoundError reports an absent resource, e.g. "Feedback not found".
func CreateNotFoundError(resource string) *ApiError {
	return NewApiError(resource+" not found", http.StatusNotFound, ErrorCodeNotFound)
}

// CreateForbiddenError reports a caller lacking role or ownership.
func CreateForbiddenError(message string) *ApiError {
	if message == "" {
		message = "Not authorized"
	}
	return NewApiError(message, http.StatusForbidden, ErrorCodeForbidden)
}

// CreateStateConflictError reports a mutation the current status forbids.
func CreateStateConflictError(message string) *ApiError {
	return NewApiError(message, http.StatusBadRequest, ErrorCodeStateConflict)
}

// CreateUnauthorizedError reports a missing or invalid credential.
func CreateUnauthorizedError(message string) *ApiError {
	if message == "" {
		message = "Unauthorized"
	}
	return NewApiError(message, http.StatusUnauthorized, ErrorCodeUnauthorized)
}

// CreateStoreError wraps a persistence failure. The message is surfaced
// verbatim to the caller.
func CreateStoreError(err error) *ApiError {
	apiErr := NewApiError(err.Error(), http.StatusInternalServerError, ErrorCodeStore)
	apiErr.Err = err
	return apiErr
}

// IsApiError reports whether err is an ApiError with the given code.
func IsApiError(err error, code string) bool {
	var apiErr *ApiError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode == code
	}
	return false
}

// BindingError turns a gin binding failure into a ValidationError with a
// readable message.
func BindingError(err error) *ApiError {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		msgs := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			msgs = append(msgs, describeFieldError(fe))
		}
		return CreateValidationError(strings.Join(msgs, "; "))
	}
	return CreateValidationError("Invalid request body: " + err.Error())
}

func describeFieldError(fe validator.FieldError) string {
	field := strings.ToLower(fe.Field()[:1]) + fe.Field()[1:]
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return field + " must be a valid email"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", field, fe.Param())
	default:
		return fmt.Sprintf("%s is invalid (%s)", field, fe.Tag())
	}
}

// HandleError logs err and writes the matching JSON error response.
func HandleError(c *gin.Context, err error) {
	if c == nil || err == nil {
		return
	}

	var apiErr *ApiError
	if errors.As(err, &apiErr) {
		event := Logger.Warn()
		if apiErr.StatusCode >= http.StatusInternalServerError {
			event = Logger.Error().Err(apiErr.Err)
		}
		event.
			Str("path", c.Request.URL.Path).
			Str("method", c.Request.Method).
			Str("code", apiErr.ErrorCode).
			Msg(apiErr.Message)

		c.AbortWithStatusJSON(apiErr.StatusCode, gin.H{
			"message": apiErr.Message,
			"code":    apiErr.ErrorCode,
		})
		return
	}

	LogError(err, map[string]interface{}{
		"path":   c.Request.URL.Path,
		"method": c.Request.Method,
	}, "unhandled error")

	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
		"message": err.Error(),
		"code":    ErrorCodeStore,
	})
}
