package engine

import (
	"errors"
	"fmt"
)

// StopReason says why a session ended; the panel shows it verbatim.
type StopReason string

const (
	StopNone                StopReason = ""
	StopNoRules             StopReason = "no rule configured"
	StopNoDescription       StopReason = "no job description configured"
	StopInvalidQuota        StopReason = "invalid quota state"
	StopInvalidConfig       StopReason = "invalid configuration"
	StopFreeExhausted       StopReason = "free quota used up today"
	StopEnterpriseExhausted StopReason = "enterprise balance exhausted"
	StopGreetLimit          StopReason = "session greet limit reached"
	StopPersistFailed       StopReason = "quota could not be saved"
	StopFeedDone            StopReason = "no more candidates"
	StopFeedError           StopReason = "candidate feed failed"
	StopCancelled           StopReason = "cancelled"
)

// ConfigError halts a session: the rules or the quota are missing or malformed.
type ConfigError struct {
	Reason StopReason
	Err    error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s: %v", e.Reason, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// PersistenceError means the quota change is held in memory but not saved yet.
// It is recoverable by saving again.
type PersistenceError struct {
	UserID string
	Err    error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("save quota for %s: %v", e.UserID, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// IsConfigError reports whether err halts the session for configuration reasons.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

// IsPersistenceError reports whether err is a failed quota save.
func IsPersistenceError(err error) bool {
	var pe *PersistenceError
	return errors.As(err, &pe)
}
