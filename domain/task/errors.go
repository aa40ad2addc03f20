package task

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned when the referenced task does not exist.
	ErrNotFound = errors.New("task not found")
	// ErrForbidden is returned when the actor is authenticated but not allowed to perform the operation.
	ErrForbidden = errors.New("forbidden")
	// ErrValidation is returned when the request input is malformed.
	ErrValidation = errors.New("validation failed")
	// ErrConflict is returned when a save is based on a stale version of the task.
	ErrConflict = errors.New("task was modified concurrently")
	// ErrStore is returned when the underlying persistence layer fails.
	ErrStore = errors.New("task store failure")
)

// Validationf returns an ErrValidation wrapping a formatted detail message.
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// remoteErrors are the sentinels that survive a request-reply round trip.
var remoteErrors = []error{ErrValidation, ErrForbidden, ErrNotFound, ErrConflict}

// FromRemote maps an error received over request-reply back onto the task sentinels.
// Errors cross the service boundary as text, so errors.Is no longer matches them.
// Unrecognized errors are returned unchanged.
func FromRemote(err error) error {
	if mapped, ok := MatchRemote(err); ok {
		return mapped
	}
	return err
}

// MatchRemote is FromRemote that also reports whether a sentinel was recognized.
func MatchRemote(err error) (error, bool) {
	if err == nil {
		return nil, false
	}
	msg := err.Error()
	for _, sentinel := range remoteErrors {
		text := sentinel.Error()
		i := strings.Index(msg, text)
		if i < 0 {
			continue
		}
		detail := strings.TrimPrefix(msg[i+len(text):], ": ")
		if detail == "" {
			return sentinel, true
		}
		return fmt.Errorf("%w: %s", sentinel, detail), true
	}
	return nil, false
}
