package secret

import "errors"

var (
	// ErrMissingEnv is returned when a ${VAR} or env:NAME reference names
	// an unset variable.
	ErrMissingEnv = errors.New("secret: missing environment variable")

	// ErrUnknownProvider is returned for a secretref whose provider is not
	// registered with the Resolver.
	ErrUnknownProvider = errors.New("secret: provider not registered")

	// ErrEmptySecret is returned by a strict Resolver when a reference
	// resolves to an empty value.
	ErrEmptySecret = errors.New("secret: reference resolved to an empty value")
)
