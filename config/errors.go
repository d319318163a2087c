package config

import "errors"

var (
	// ErrReadConfig wraps failures reading the configuration file.
	ErrReadConfig = errors.New("config: read failed")

	// ErrInvalidConfig wraps validation failures.
	ErrInvalidConfig = errors.New("config: invalid configuration")
)
