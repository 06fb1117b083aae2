package domain

import (
	"errors"
	"fmt"
)

// ErrNilUser is returned by issue operations that require a user reference.
var ErrNilUser = errors.New("user cannot be nil")

// ErrEmptyPassword is returned when a password change carries no value.
var ErrEmptyPassword = errors.New("password cannot be empty")

// InvalidTransitionError signals a guarded lifecycle transition attempted
// from a disallowed state. Callers that want the transition regardless use
// ForceStatus.
type InvalidTransitionError struct {
	From IssueStatus
	To   IssueStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot transition issue from %s to %s", e.From, e.To)
}

// UnknownStatusError signals an unrecognized status value from a caller.
type UnknownStatusError struct {
	Value string
}

func (e *UnknownStatusError) Error() string {
	return fmt.Sprintf("unknown issue status %q", e.Value)
}
