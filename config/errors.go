package config

import "errors"

var (
	// ErrLoadFailed indicates the configuration file could not be read.
	ErrLoadFailed = errors.New("config: load failed")

	// ErrParseFailed indicates the file was read but is not valid YAML
	// for this configuration.
	ErrParseFailed = errors.New("config: parse failed")

	// ErrInvalidConfig indicates a value the service cannot start with.
	ErrInvalidConfig = errors.New("config: invalid configuration")
)
