package errs

import "errors"

var (
	// ErrFieldMismatch is returned when a submitted record does not carry the
	// field set its entity requires
	ErrFieldMismatch = errors.New("submitted fields do not match the required field set")

	// ErrEmptyBody is returned when a post has neither text nor files
	ErrEmptyBody = errors.New("post must contain text and/or files")

	// ErrInvalidField is returned when a required field holds a value of the wrong shape
	ErrInvalidField = errors.New("invalid field value")

	// ErrStoreUnavailable is returned when the document store is not configured or not reachable
	ErrStoreUnavailable = errors.New("document store unavailable")

	// ErrNotFound is returned when a resource targeted by a write is not found
	ErrNotFound = errors.New("resource not found")

	// ErrAlreadyExists is returned when a unique key is already taken
	ErrAlreadyExists = errors.New("resource already exists")

	// ErrInvalidInput is returned when request input is malformed
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnauthorized is returned when no authenticated user is present
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden is returned when the user lacks the organizer flag
	ErrForbidden = errors.New("forbidden")

	// ErrUpstream is returned when a downstream service answers unexpectedly
	ErrUpstream = errors.New("upstream service error")
)
