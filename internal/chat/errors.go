package chat

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrAlreadySending is returned by Submit while the tab still has a
	// message awaiting settlement.
	ErrAlreadySending = errors.New("already sending")

	// ErrMessageNotFound is returned by Replace when the id is not in the
	// tab's conversation. Callers treat it as a warning.
	ErrMessageNotFound = errors.New("message not found")

	// ErrRetryExhausted is returned by Retry once a message has used all
	// of its attempts.
	ErrRetryExhausted = errors.New("retry limit reached")

	// ErrNotRetryable is returned by Retry for messages that are not in
	// the failed state.
	ErrNotRetryable = errors.New("message is not in a retryable state")

	// ErrUnknownAction is returned for quick-action ids outside the registry.
	ErrUnknownAction = errors.New("unknown quick action")
)

// ValidationError rejects input before anything is appended.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "invalid message: " + e.Reason
}

// RejectedError is returned by a Transport when the backend refused the
// input (semantic or validation failure). It is never retried
// automatically.
type RejectedError struct {
	Reason string
	Err    error
}

func (e *RejectedError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("rejected: %s: %v", e.Reason, e.Err)
	}
	return "rejected: " + e.Reason
}

func (e *RejectedError) Unwrap() error { return e.Err }

// FailureKind classifies a send failure.
type FailureKind int

const (
	// FailureTransient covers network errors, timeouts and backend outages.
	FailureTransient FailureKind = iota
	// FailureRejected covers input the backend refused.
	FailureRejected
)

func (k FailureKind) String() string {
	if k == FailureRejected {
		return "rejected"
	}
	return "transient"
}

// Classify maps a transport error to a failure kind and the reason shown
// on the failed message.
func Classify(err error) (FailureKind, string) {
	var rej *RejectedError
	switch {
	case errors.As(err, &rej):
		return FailureRejected, rej.Reason
	case errors.Is(err, context.DeadlineExceeded):
		return FailureTransient, "timeout"
	case errors.Is(err, context.Canceled):
		return FailureTransient, "cancelled"
	}
	return FailureTransient, err.Error()
}
