package domain

import (
	"errors"
	"fmt"
)

// DepthSourceKind identifies where an instrument's depth came from.
type DepthSourceKind string

const (
	DepthSourceInstrument DepthSourceKind = "instrument"
	DepthSourceVehicle    DepthSourceKind = "vehicle"
)

// ResolutionStatus is the outcome of asking one depth candidate.
type ResolutionStatus int

const (
	// Unavailable means the candidate has no stream for this instrument.
	// This is the common case for instrument overrides and is not an error.
	Unavailable ResolutionStatus = iota
	// Degenerate means the stream exists but cannot be interpolated.
	Degenerate
	// Resolved means Interpolator is usable.
	Resolved
)

// DepthResolution is the tagged result of a depth candidate lookup.
type DepthResolution struct {
	Status       ResolutionStatus
	Kind         DepthSourceKind
	Stream       string
	Interpolator *Interpolator
	Series       Series
	Err          error
}

// DepthCandidate is one entry in the ordered list of depth sources.
type DepthCandidate interface {
	Lookup(ds *Dataset, instrument string) DepthResolution
}

// InstrumentDepth looks up the instrument's own pitch-corrected depth.
type InstrumentDepth struct{}

func (InstrumentDepth) Lookup(ds *Dataset, instrument string) DepthResolution {
	return lookupDepth(ds, InstrumentDepthKey(instrument), DepthSourceInstrument)
}

// VehicleDepth looks up the vehicle-wide filtered depth reference.
type VehicleDepth struct {
	Stream string
}

func (c VehicleDepth) Lookup(ds *Dataset, _ string) DepthResolution {
	return lookupDepth(ds, c.Stream, DepthSourceVehicle)
}

func lookupDepth(ds *Dataset, name string, kind DepthSourceKind) DepthResolution {
	series, ok := ds.Series(name)
	if !ok {
		return DepthResolution{Status: Unavailable, Kind: kind, Stream: name}
	}
	in, err := seriesInterpolator(series)
	if err != nil {
		return DepthResolution{Status: Degenerate, Kind: kind, Stream: name, Series: series, Err: err}
	}
	return DepthResolution{Status: Resolved, Kind: kind, Stream: name, Interpolator: in, Series: series}
}

// DepthResolver returns the best depth source for an instrument. Candidates
// are tried in order; a degenerate candidate falls through to the next one.
// Results are cached per instrument since every variable of an instrument
// resolves to the same source.
type DepthResolver struct {
	ds         *Dataset
	candidates []DepthCandidate
	cache      map[string]depthEntry
}

type depthEntry struct {
	res DepthResolution
	err error
}

// NewDepthResolver returns a resolver that prefers the instrument depth and
// falls back to the vehicle depth stream.
func NewDepthResolver(ds *Dataset, vehicleDepth string) *DepthResolver {
	return NewDepthResolverWith(ds, InstrumentDepth{}, VehicleDepth{Stream: vehicleDepth})
}

// NewDepthResolverWith returns a resolver over an explicit candidate list.
func NewDepthResolverWith(ds *Dataset, candidates ...DepthCandidate) *DepthResolver {
	return &DepthResolver{
		ds:         ds,
		candidates: candidates,
		cache:      make(map[string]depthEntry),
	}
}

// Resolve returns the depth source for instrument. It fails with
// ErrNoDepthSource when no candidate has a stream, and with
// ErrDegenerateReference when streams exist but none can be interpolated.
// Degenerate candidates that were passed over are reported in skipped.
func (r *DepthResolver) Resolve(instrument string) (res DepthResolution, skipped []DepthResolution, err error) {
	if e, ok := r.cache[instrument]; ok {
		return e.res, nil, e.err
	}
	defer func() {
		r.cache[instrument] = depthEntry{res: res, err: err}
	}()

	for _, c := range r.candidates {
		got := c.Lookup(r.ds, instrument)
		switch got.Status {
		case Resolved:
			return got, skipped, nil
		case Degenerate:
			skipped = append(skipped, got)
		}
	}

	if len(skipped) > 0 {
		last := skipped[len(skipped)-1]
		err = &ReferenceError{Quantity: QuantityDepth, Stream: last.Stream, Err: last.Err}
		if !errors.Is(err, ErrDegenerateReference) {
			err = fmt.Errorf("%w: %w", ErrDegenerateReference, err)
		}
		return DepthResolution{}, skipped, err
	}
	return DepthResolution{}, nil, fmt.Errorf("instrument %s: %w", instrument, ErrNoDepthSource)
}
