package auth

import "errors"

// Sentinel errors for credential handling.
var (
	// ErrMissingCredentials is returned when neither an OAuth nor a personal
	// token is configured. It is a configuration error, not a request error.
	ErrMissingCredentials = errors.New("auth: no credential configured")

	// ErrTokenMalformed is returned by Inspect for JWT-shaped tokens that
	// cannot be decoded.
	ErrTokenMalformed = errors.New("auth: token malformed")
)
