package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks bad or missing user input. Wrap it with Invalidf.
	ErrValidation = errors.New("validation error")
	// ErrNoEligibleData is returned when no enabled dataset slice holds any records.
	ErrNoEligibleData = errors.New("no data available for the selected filters")
	// ErrSessionNotFound is returned when a quiz session has not been initialized.
	ErrSessionNotFound = errors.New("quiz session not found")
	// ErrSessionBusy is returned while another fetch or build is outstanding for the same key.
	ErrSessionBusy = errors.New("another operation is already in progress")
	// ErrInvalidTransition is returned when an action does not apply to the current session state.
	ErrInvalidTransition = errors.New("action not allowed in current state")
	// ErrNotAnswered is returned when advancing before the current question was answered.
	ErrNotAnswered = errors.New("current question has not been answered")
)

// Invalidf builds an error that matches ErrValidation.
func Invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// RemoteError is returned by the Last.fm client when a request ends with a
// non-2xx status after retries are exhausted.
type RemoteError struct {
	Method     string
	StatusCode int
}

func (e *RemoteError) Error() string {
	if e.Method == "" {
		return fmt.Sprintf("last.fm request failed (%d)", e.StatusCode)
	}
	return fmt.Sprintf("last.fm request %s failed (%d)", e.Method, e.StatusCode)
}

// Retryable reports whether the status belongs to a transient failure class.
func (e *RemoteError) Retryable() bool {
	return IsRetryableStatus(e.StatusCode)
}

// IsRetryableStatus reports whether a response status is worth retrying:
// 429 or any 5xx.
func IsRetryableStatus(code int) bool {
	return code == 429 || (code >= 500 && code <= 599)
}
