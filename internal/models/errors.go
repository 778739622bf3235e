package models

import "errors"

var (
	// ErrMalformed marks configuration JSON that does not have the expected shape.
	ErrMalformed = errors.New("malformed config")

	// ErrRuleSetNotFound is returned when the selected position has no keyword rules.
	ErrRuleSetNotFound = errors.New("no keyword rules configured for position")

	// ErrUserNotFound is returned when no config exists for the user.
	ErrUserNotFound = errors.New("user config not found")
)
