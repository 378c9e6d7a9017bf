package pipeline

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind tells processing failures from delivery failures.
type Kind int

const (
	// KindProcessing means no output series was produced and nothing was
	// written.
	KindProcessing Kind = iota + 1

	// KindDelivery means the output series was produced but could not be
	// written.
	KindDelivery
)

func (k Kind) String() string {
	switch k {
	case KindProcessing:
		return "processing"
	case KindDelivery:
		return "delivery"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Error is the only error type Run returns.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Kind, e.Err)
}

// Cause returns the underlying error.
func (e *Error) Cause() error { return e.Err }

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the kind of an *Error anywhere in err's chain.
func KindOf(err error) (Kind, bool) {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind, true
	}
	return 0, false
}
