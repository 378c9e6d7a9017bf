package generator

import (
	"fmt"

	"github.com/pkg/errors"
)

// Reason says which part of the processing failed.
type Reason int

const (
	SourceUnavailable Reason = iota + 1
	MalformedDate
	MalformedValue
	DuplicateDate
	EmptySeries
	InvalidConfig
)

func (r Reason) String() string {
	switch r {
	case SourceUnavailable:
		return "source unavailable"
	case MalformedDate:
		return "malformed date"
	case MalformedValue:
		return "malformed value"
	case DuplicateDate:
		return "duplicate date"
	case EmptySeries:
		return "empty series"
	case InvalidConfig:
		return "invalid config"
	default:
		return fmt.Sprintf("reason(%d)", int(r))
	}
}

// DataProcessingError is returned when the source cannot be turned into an
// output series.
type DataProcessingError struct {
	Reason Reason
	Err    error
}

func (e *DataProcessingError) Error() string {
	return fmt.Sprintf("%s: %v", e.Reason, e.Err)
}

// Cause returns the underlying error.
func (e *DataProcessingError) Cause() error { return e.Err }

func (e *DataProcessingError) Unwrap() error { return e.Err }

func newError(reason Reason, err error) *DataProcessingError {
	return &DataProcessingError{Reason: reason, Err: err}
}

// ReasonOf returns the reason of a *DataProcessingError anywhere in err's chain.
func ReasonOf(err error) (Reason, bool) {
	var pe *DataProcessingError
	if errors.As(err, &pe) {
		return pe.Reason, true
	}
	return 0, false
}
