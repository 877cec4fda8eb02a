package game

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidAction matches any *InvalidActionError.
	ErrInvalidAction = errors.New("invalid action")
	// ErrInvalidState is returned when an operation does not fit the current phase.
	ErrInvalidState = errors.New("invalid state")
)

// InvalidActionError carries the rejected token.
type InvalidActionError struct {
	Token string
}

func (e *InvalidActionError) Error() string {
	return fmt.Sprintf("invalid action %q", e.Token)
}

func (e *InvalidActionError) Unwrap() error { return ErrInvalidAction }

func invalidState(op string, p Phase) error {
	return fmt.Errorf("%s during %s: %w", op, p, ErrInvalidState)
}
