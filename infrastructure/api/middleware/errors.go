package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/helixml/scmtrack/domain/repository"
	"github.com/helixml/scmtrack/domain/scm"
	"github.com/helixml/scmtrack/infrastructure/api/jsonapi"
	"github.com/helixml/scmtrack/internal/database"
)

var (
	// ErrAuthentication is the base error for authentication failures.
	ErrAuthentication = errors.New("authentication failed")

	// ErrServer is the base error for server-side failures.
	ErrServer = errors.New("server error")
)

// APIError is an error carrying the HTTP status to answer with.
type APIError struct {
	code    int
	message string
	cause   error
}

// NewAPIError creates a new APIError.
func NewAPIError(code int, message string, cause error) *APIError {
	return &APIError{
		code:    code,
		message: message,
		cause:   cause,
	}
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("api error %d: %s: %v", e.code, e.message, e.cause)
	}
	return fmt.Sprintf("api error %d: %s", e.code, e.message)
}

// Unwrap returns the underlying cause.
func (e *APIError) Unwrap() error { return e.cause }

// Code returns the HTTP status code.
func (e *APIError) Code() int { return e.code }

// Message returns the client-facing message.
func (e *APIError) Message() string { return e.message }

// BadRequest wraps cause as a 400 with message.
func BadRequest(message string, cause error) *APIError {
	return NewAPIError(http.StatusBadRequest, message, cause)
}

// AuthenticationError represents a rejected API key.
type AuthenticationError struct {
	message string
}

// NewAuthenticationError creates a new AuthenticationError.
func NewAuthenticationError(message string) *AuthenticationError {
	return &AuthenticationError{message: message}
}

// Error implements the error interface.
func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("authentication failed: %s", e.message)
}

// Unwrap returns ErrAuthentication for errors.Is compatibility.
func (e *AuthenticationError) Unwrap() error { return ErrAuthentication }

// ServerError represents a failure the server reports with a specific status.
type ServerError struct {
	statusCode int
	message    string
}

// NewServerError creates a new ServerError.
func NewServerError(statusCode int, message string) *ServerError {
	return &ServerError{
		statusCode: statusCode,
		message:    message,
	}
}

// Error implements the error interface.
func (e *ServerError) Error() string {
	return fmt.Sprintf("server error %d: %s", e.statusCode, e.message)
}

// Unwrap returns ErrServer for errors.Is compatibility.
func (e *ServerError) Unwrap() error { return ErrServer }

// StatusCode returns the HTTP status code.
func (e *ServerError) StatusCode() int { return e.statusCode }

// Message returns the error message.
func (e *ServerError) Message() string { return e.message }

// StatusFor returns the HTTP status and title for err.
func StatusFor(err error) (int, string) {
	var (
		apiErr        *APIError
		serverErr     *ServerError
		authErr       *AuthenticationError
		validationErr *repository.ValidationError
		numErr        *strconv.NumError
		syntaxErr     *json.SyntaxError
		typeErr       *json.UnmarshalTypeError
	)

	switch {
	case errors.As(err, &apiErr):
		return apiErr.Code(), http.StatusText(apiErr.Code())
	case errors.As(err, &serverErr):
		return serverErr.StatusCode(), "Server Error"
	case errors.As(err, &authErr):
		return http.StatusUnauthorized, "Authentication Failed"
	case errors.Is(err, database.ErrNotFound), errors.Is(err, scm.ErrNotFound):
		return http.StatusNotFound, "Not Found"
	case errors.As(err, &validationErr), errors.Is(err, scm.ErrUnknownKind):
		return http.StatusUnprocessableEntity, "Validation Error"
	case errors.Is(err, repository.ErrDuplicateRevision):
		return http.StatusConflict, "Conflict"
	case errors.Is(err, scm.ErrNotSupported):
		return http.StatusNotImplemented, "Not Supported"
	case errors.Is(err, scm.ErrAdapterUnavailable):
		return http.StatusBadGateway, "SCM Unavailable"
	case errors.As(err, &numErr), errors.As(err, &syntaxErr), errors.As(err, &typeErr):
		return http.StatusBadRequest, "Bad Request"
	}
	return http.StatusInternalServerError, "Internal Server Error"
}

// WriteError writes err as a JSON:API error document. Server-side
// failures are logged at Error, client mistakes at Debug.
func WriteError(w http.ResponseWriter, r *http.Request, err error, logger *slog.Logger) {
	status, title := StatusFor(err)

	detail := err.Error()
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		detail = apiErr.Message()
	}
	if status == http.StatusInternalServerError {
		detail = "internal error"
	}

	requestID := middleware.GetReqID(r.Context())
	if logger != nil {
		level := slog.LevelDebug
		if status >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		logger.Log(r.Context(), level, "request error",
			slog.Int("status", status),
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
	}

	resp := jsonapi.NewErrorResponse(jsonapi.Error{
		ID:     requestID,
		Status: strconv.Itoa(status),
		Title:  title,
		Detail: detail,
	})

	w.Header().Set("Content-Type", "application/vnd.api+json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

// WriteJSON writes data as a JSON:API document with the given status.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/vnd.api+json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
