package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/lllypuk/eventboard/internal/domain/errs"
	"github.com/lllypuk/eventboard/internal/domain/record"
)

// ErrorResponse is the body of every failed JSON request.
type ErrorResponse struct {
	Error *Error `json:"error"`
}

// Error describes a failure in an ErrorResponse.
type Error struct {
	Code    string   `json:"code"`
	Message string   `json:"message"`
	Missing []string `json:"missing,omitempty"`
	Extra   []string `json:"extra,omitempty"`
}

// RespondOK sends a 200 OK response with data as the body.
func RespondOK(c echo.Context, data any) error {
	return c.JSON(http.StatusOK, data)
}

// RespondCreated sends a 201 Created response with data as the body.
func RespondCreated(c echo.Context, data any) error {
	return c.JSON(http.StatusCreated, data)
}

// RespondError sends an error response based on the error type.
func RespondError(c echo.Context, err error) error {
	status, apiErr := mapError(err)
	return c.JSON(status, ErrorResponse{Error: apiErr})
}

// RespondErrorWithCode sends an error response with a specific HTTP status code.
func RespondErrorWithCode(c echo.Context, status int, code, message string) error {
	return c.JSON(status, ErrorResponse{Error: &Error{Code: code, Message: message}})
}

// StatusFor returns the HTTP status RespondError would send for err.
func StatusFor(err error) int {
	status, _ := mapError(err)
	return status
}

// mapError maps domain errors to HTTP status codes and API errors.
func mapError(err error) (int, *Error) {
	var mismatch *record.MismatchError
	switch {
	case errors.As(err, &mismatch):
		return http.StatusBadRequest, &Error{
			Code:    "FIELD_MISMATCH",
			Message: "Submitted fields do not match the required fields",
			Missing: mismatch.Missing,
			Extra:   mismatch.Extra,
		}

	case errors.Is(err, errs.ErrFieldMismatch):
		return http.StatusBadRequest, &Error{
			Code:    "FIELD_MISMATCH",
			Message: "Submitted fields do not match the required fields",
		}

	case errors.Is(err, errs.ErrEmptyBody):
		return http.StatusBadRequest, &Error{
			Code:    "EMPTY_BODY",
			Message: "Post must contain text and/or files",
		}

	case errors.Is(err, errs.ErrInvalidField):
		return http.StatusBadRequest, &Error{
			Code:    "INVALID_FIELD",
			Message: err.Error(),
		}

	case errors.Is(err, errs.ErrInvalidInput):
		return http.StatusBadRequest, &Error{
			Code:    "INVALID_INPUT",
			Message: "Invalid request.",
		}

	case errors.Is(err, errs.ErrNotFound):
		return http.StatusNotFound, &Error{
			Code:    "NOT_FOUND",
			Message: "The requested resource was not found",
		}

	case errors.Is(err, errs.ErrUnauthorized):
		return http.StatusUnauthorized, &Error{
			Code:    "UNAUTHORIZED",
			Message: "Authentication required",
		}

	case errors.Is(err, errs.ErrForbidden):
		return http.StatusForbidden, &Error{
			Code:    "FORBIDDEN",
			Message: "Access denied",
		}

	case errors.Is(err, errs.ErrStoreUnavailable):
		return http.StatusInternalServerError, &Error{
			Code:    "STORE_UNAVAILABLE",
			Message: "Database is not connected",
		}

	case errors.Is(err, errs.ErrUpstream):
		return http.StatusBadGateway, &Error{
			Code:    "UPSTREAM_ERROR",
			Message: "A downstream service failed",
		}

	default:
		return http.StatusInternalServerError, &Error{
			Code:    "INTERNAL_ERROR",
			Message: "An internal error occurred",
		}
	}
}
