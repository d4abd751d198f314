package orders

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound covers missing, unreadable and unparsable order documents.
	ErrNotFound        = errors.New("order not found")
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrInvalidState is returned when the operation is not valid for the order status.
	ErrInvalidState   = errors.New("invalid order state")
	ErrMissingContact = errors.New("customer email is missing")
	ErrRetryExhausted = errors.New("maximum email attempts reached")
	// ErrConflict is returned when conditional writes are enabled and the
	// order changed between read and write.
	ErrConflict = errors.New("order was modified concurrently")
)

// RetryExhaustedError reports the attempt count that hit the ceiling.
type RetryExhaustedError struct {
	Attempts    int
	MaxAttempts int
}

func (e *RetryExhaustedError) Error() string {
	return fmt.Sprintf("maximum retry attempts (%d) reached for this order", e.MaxAttempts)
}

// Is lets errors.Is(err, ErrRetryExhausted) match.
func (e *RetryExhaustedError) Is(target error) bool {
	return target == ErrRetryExhausted
}
