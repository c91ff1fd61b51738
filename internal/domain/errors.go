package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInputFile means the calibrated container could not be read or
	// is structurally malformed. Run-fatal.
	ErrInvalidInputFile = errors.New("invalid input file")

	// ErrMissingReferenceStream means a mandatory reference stream is absent.
	// Run-fatal for latitude and longitude.
	ErrMissingReferenceStream = errors.New("missing reference stream")

	// ErrDegenerateReference means a reference or override stream has fewer
	// than two points, so no line can be drawn through it.
	ErrDegenerateReference = errors.New("degenerate reference stream")

	// ErrNoDepthSource means neither an instrument depth nor the vehicle depth
	// is available. Per-variable.
	ErrNoDepthSource = errors.New("no depth source")

	// ErrExcessiveExtrapolation means too many samples fall outside the
	// reference coverage. Per-variable.
	ErrExcessiveExtrapolation = errors.New("excessive extrapolation")

	// ErrSampleRateUnavailable means the time axis does not hold real
	// timestamps. Per-variable.
	ErrSampleRateUnavailable = errors.New("sample rate unavailable")

	// ErrTimeAxisMismatch means a variable is not indexed on the time axis
	// its instrument is expected to use. Per-variable.
	ErrTimeAxisMismatch = errors.New("time axis mismatch")
)

// ReferenceError reports a problem with a named reference stream.
type ReferenceError struct {
	Quantity Quantity
	Stream   string
	Err      error
}

func (e *ReferenceError) Error() string {
	return fmt.Sprintf("%s reference %q: %v", e.Quantity, e.Stream, e.Err)
}

func (e *ReferenceError) Unwrap() error { return e.Err }

// ExtrapolationError carries the out-of-range sample indices of a rejected
// variable.
type ExtrapolationError struct {
	Variable   string
	OutOfRange []int
	Total      int
	Fraction   float64
}

func (e *ExtrapolationError) Error() string {
	return fmt.Sprintf("%s: %d of %d samples (%.3f) outside reference coverage: %v",
		e.Variable, len(e.OutOfRange), e.Total, e.Fraction, ErrExcessiveExtrapolation)
}

func (e *ExtrapolationError) Unwrap() error { return ErrExcessiveExtrapolation }

// VariableError wraps a per-variable failure with the variable it applies to.
type VariableError struct {
	Variable   string
	Instrument string
	Err        error
}

func (e *VariableError) Error() string {
	return fmt.Sprintf("align %s: %v", e.Variable, e.Err)
}

func (e *VariableError) Unwrap() error { return e.Err }

// IsRunFatal reports whether err must abort the whole alignment run rather
// than skip a single variable.
func IsRunFatal(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrInvalidInputFile) {
		return true
	}
	// Reference problems are only fatal for the horizontal references every
	// variable depends on; depth has a per-instrument fallback.
	var refErr *ReferenceError
	if errors.As(err, &refErr) {
		return refErr.Quantity != QuantityDepth
	}
	return errors.Is(err, ErrMissingReferenceStream)
}

// SkipReason maps a per-variable error to a short, stable label for logs
// and metrics.
func SkipReason(err error) string {
	switch {
	case errors.Is(err, ErrExcessiveExtrapolation):
		return "excessive_extrapolation"
	case errors.Is(err, ErrSampleRateUnavailable):
		return "sample_rate_unavailable"
	case errors.Is(err, ErrNoDepthSource):
		return "no_depth_source"
	case errors.Is(err, ErrDegenerateReference):
		return "degenerate_reference"
	case errors.Is(err, ErrTimeAxisMismatch):
		return "time_axis_mismatch"
	default:
		return "other"
	}
}
