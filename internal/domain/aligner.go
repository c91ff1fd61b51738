package domain

import (
	"fmt"
	"log/slog"
)

// Attribute names written on aligned variables.
const (
	AttrCoordinates  = "coordinates"
	AttrSampleRateHz = "instrument_sample_rate_hz"
	AttrLongName     = "long_name"
	AttrComment      = "comment"
)

// AlignedRecord is one measurement on its native time axis together with
// its interpolated depth, latitude and longitude. All four variables share
// Axis.
type AlignedRecord struct {
	Variable  *Variable
	Depth     *Variable
	Latitude  *Variable
	Longitude *Variable

	Axis          *TimeAxis
	Keys          FieldKeys
	Instrument    string
	SampleRateHz  float64
	DepthSource   DepthSourceKind
	DepthStream   string
	Extrapolation ExtrapolationReport
	Bounds        Bounds
}

// Companions returns the depth, latitude and longitude variables.
func (r AlignedRecord) Companions() []*Variable {
	return []*Variable{r.Depth, r.Latitude, r.Longitude}
}

// Outcome reports what happened to one input variable.
type Outcome struct {
	Name       string
	Instrument string
	// Record is set when the variable was aligned.
	Record *AlignedRecord
	// Ignored is set for variables that are not measurements (coordinate
	// instruments, filtered navigation fields); Reason says why.
	Ignored bool
	Reason  string
	// Err is set when a measurement was skipped.
	Err error
}

// Aligner interpolates the reference streams of one dataset onto each of
// its measurements.
type Aligner struct {
	ds     *Dataset
	rules  Rules
	refs   *ReferenceProvider
	depth  *DepthResolver
	source string
	logger *slog.Logger
}

// AlignerOption configures an Aligner.
type AlignerOption func(*Aligner)

// WithSourceName sets the input file name quoted in companion comments.
func WithSourceName(name string) AlignerOption {
	return func(a *Aligner) { a.source = name }
}

// WithLogger sets the logger. The default discards output.
func WithLogger(logger *slog.Logger) AlignerOption {
	return func(a *Aligner) { a.logger = logger }
}

// WithDepthCandidates replaces the default instrument-then-vehicle depth
// fallback.
func WithDepthCandidates(candidates ...DepthCandidate) AlignerOption {
	return func(a *Aligner) { a.depth = NewDepthResolverWith(a.ds, candidates...) }
}

// NewAligner prepares an aligner over ds. It fails when the latitude or
// longitude reference is missing or unusable, since no variable could be
// aligned without them.
func NewAligner(ds *Dataset, rules Rules, opts ...AlignerOption) (*Aligner, error) {
	a := &Aligner{
		ds:     ds,
		rules:  rules,
		refs:   NewReferenceProvider(ds, rules.References),
		logger: slog.New(slog.DiscardHandler),
	}
	a.depth = NewDepthResolver(ds, rules.References.Depth)
	for _, opt := range opts {
		opt(a)
	}
	if err := a.refs.Validate(); err != nil {
		return nil, err
	}
	return a, nil
}

// Align runs over every variable in input order, reporting each accepted
// record's bounds to acc. Per-variable failures are returned as outcomes
// and never stop the loop.
func (a *Aligner) Align(acc *BoundsAccumulator) []Outcome {
	vars := a.ds.Variables()
	outcomes := make([]Outcome, 0, len(vars))
	for _, v := range vars {
		c := a.rules.Classify(v)
		if !c.Measurement {
			a.logger.Debug("skipping non-measurement variable", "variable", v.Name, "reason", c.Reason)
			outcomes = append(outcomes, Outcome{Name: v.Name, Instrument: c.Instrument, Ignored: true, Reason: c.Reason})
			continue
		}

		rec, err := a.AlignVariable(v, c)
		if err != nil {
			outcomes = append(outcomes, Outcome{Name: v.Name, Instrument: c.Instrument, Reason: SkipReason(err), Err: err})
			continue
		}
		acc.Observe(rec.Bounds)
		outcomes = append(outcomes, Outcome{Name: v.Name, Instrument: c.Instrument, Record: &rec})
	}
	return outcomes
}

// AlignVariable aligns a single classified measurement. Errors are wrapped
// in *VariableError.
func (a *Aligner) AlignVariable(v *Variable, c Classification) (AlignedRecord, error) {
	rec, err := a.alignVariable(v, c)
	if err != nil {
		return AlignedRecord{}, &VariableError{Variable: v.Name, Instrument: c.Instrument, Err: err}
	}
	return rec, nil
}

func (a *Aligner) alignVariable(v *Variable, c Classification) (AlignedRecord, error) {
	axis, ok := a.ds.Axis(c.Axis)
	if !ok || v.Axis != c.Axis {
		return AlignedRecord{}, fmt.Errorf("expected axis %q, variable is on %q: %w", c.Axis, v.Axis, ErrTimeAxisMismatch)
	}
	// An ordinal axis cannot be compared against reference timestamps, so
	// reject it before the coverage check reports it as 100% extrapolated.
	if axis.Kind != AxisTime {
		return AlignedRecord{}, fmt.Errorf("axis %q holds %s values: %w", axis.Name, axis.Kind, ErrSampleRateUnavailable)
	}

	latInterp, err := a.refs.Interpolator(QuantityLatitude)
	if err != nil {
		return AlignedRecord{}, err
	}
	lonInterp, err := a.refs.Interpolator(QuantityLongitude)
	if err != nil {
		return AlignedRecord{}, err
	}
	depthRes, passed, err := a.depth.Resolve(c.Instrument)
	for _, p := range passed {
		a.logger.Warn("depth source unusable, falling back",
			"instrument", c.Instrument, "stream", p.Stream, "error", p.Err)
	}
	if err != nil {
		return AlignedRecord{}, err
	}
	if depthRes.Kind == DepthSourceInstrument {
		a.logger.Info("using pitch corrected depth",
			"variable", v.Name, "stream", depthRes.Stream, "comment", depthRes.Series.Attrs.String(AttrComment))
	}

	// Longitude shares the latitude axis, so checking latitude covers both.
	report, err := CheckExtrapolation(v.Name, axis.Times,
		a.depthCoverage(depthRes),
		CoverageOf(a.rules.References.Latitude, latInterp),
	)
	if err != nil {
		return AlignedRecord{}, err
	}
	if report.Count() > 0 {
		a.logger.Info("extrapolating values outside reference coverage",
			"variable", v.Name, "count", report.Count(), "indices", report.OutOfRange)
	}

	rate, err := SampleRate(axis)
	if err != nil {
		return AlignedRecord{}, err
	}
	a.logger.Debug("computed sample rate", "variable", v.Name, AttrSampleRateHz, rate)

	depth := depthRes.Interpolator.Evaluate(axis.Times)
	lat := latInterp.Evaluate(axis.Times)
	lon := lonInterp.Evaluate(axis.Times)

	values := make([]float64, len(v.Values))
	copy(values, v.Values)
	attrs := v.Attrs.Clone()
	attrs[AttrCoordinates] = c.Keys.Coordinates()
	attrs[AttrSampleRateHz] = rate

	rec := AlignedRecord{
		Variable:      &Variable{Name: v.Name, Axis: axis.Name, Values: values, Attrs: attrs},
		Axis:          axis,
		Keys:          c.Keys,
		Instrument:    c.Instrument,
		SampleRateHz:  rate,
		DepthSource:   depthRes.Kind,
		DepthStream:   depthRes.Stream,
		Extrapolation: report,
		Bounds:        RecordBounds(axis, depth, lat, lon),
	}

	depthAttrs := depthRes.Series.Attrs.Clone()
	if depthRes.Kind == DepthSourceVehicle {
		depthAttrs[AttrComment] = a.interpolatedComment(depthAttrs.String(AttrComment), depthRes.Stream, c.Instrument)
	}
	if rec.Depth, err = a.companion(c.Keys, QuantityDepth, axis, depth, depthAttrs, rate); err != nil {
		return AlignedRecord{}, err
	}
	for _, q := range []Quantity{QuantityLatitude, QuantityLongitude} {
		ref, err := a.refs.Series(q)
		if err != nil {
			return AlignedRecord{}, err
		}
		refAttrs := ref.Attrs.Clone()
		refAttrs[AttrComment] = a.interpolatedComment(refAttrs.String(AttrComment), ref.Name, c.Instrument)

		vals := lat
		if q == QuantityLongitude {
			vals = lon
		}
		cv, err := a.companion(c.Keys, q, axis, vals, refAttrs, rate)
		if err != nil {
			return AlignedRecord{}, err
		}
		if q == QuantityLatitude {
			rec.Latitude = cv
		} else {
			rec.Longitude = cv
		}
	}
	return rec, nil
}

// depthCoverage is the vehicle depth reference's sampled range. An
// instrument override only supplies values; when the vehicle stream is
// absent or unusable the chosen source's range is used instead.
func (a *Aligner) depthCoverage(res DepthResolution) Coverage {
	if in, err := a.refs.Interpolator(QuantityDepth); err == nil {
		return CoverageOf(a.rules.References.Depth, in)
	}
	return CoverageOf(res.Stream, res.Interpolator)
}

func (a *Aligner) companion(keys FieldKeys, q Quantity, axis *TimeAxis, values []float64, attrs Attributes, rate float64) (*Variable, error) {
	name, err := keys.Key(q)
	if err != nil {
		return nil, err
	}
	attrs[AttrLongName] = q.LongName()
	attrs[AttrSampleRateHz] = rate
	return &Variable{Name: name, Axis: axis.Name, Values: values, Attrs: attrs}, nil
}

func (a *Aligner) interpolatedComment(existing, stream, instrument string) string {
	note := fmt.Sprintf("Variable %s from %s file linearly interpolated onto %s time values.", stream, a.source, instrument)
	if existing == "" {
		return note
	}
	return existing + ". " + note
}

// Skipped reports whether an outcome is a skipped measurement.
func (o Outcome) Skipped() bool { return o.Err != nil }

// Aligned reports whether an outcome produced a record.
func (o Outcome) Aligned() bool { return o.Record != nil }

// Fatal reports whether the outcome's error must abort the run.
func (o Outcome) Fatal() bool { return IsRunFatal(o.Err) }
