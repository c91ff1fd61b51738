package domain

import "fmt"

// ReferenceProvider exposes the dataset's reference streams as
// interpolators. Streams are read-only for the whole run, so each
// interpolator is built once and reused.
type ReferenceProvider struct {
	ds    *Dataset
	refs  References
	cache map[Quantity]*referenceStream
}

type referenceStream struct {
	interp *Interpolator
	series Series
}

// NewReferenceProvider returns a provider over ds using the stream names in refs.
func NewReferenceProvider(ds *Dataset, refs References) *ReferenceProvider {
	return &ReferenceProvider{
		ds:    ds,
		refs:  refs,
		cache: make(map[Quantity]*referenceStream),
	}
}

// Validate builds the horizontal references up front. Without them no
// variable can be aligned, so any error here is run-fatal.
func (p *ReferenceProvider) Validate() error {
	for _, q := range []Quantity{QuantityLatitude, QuantityLongitude} {
		if _, err := p.Interpolator(q); err != nil {
			return err
		}
	}
	return nil
}

// Interpolator returns the interpolator over the reference stream for q.
func (p *ReferenceProvider) Interpolator(q Quantity) (*Interpolator, error) {
	rs, err := p.stream(q)
	if err != nil {
		return nil, err
	}
	return rs.interp, nil
}

// Series returns the raw reference stream for q.
func (p *ReferenceProvider) Series(q Quantity) (Series, error) {
	rs, err := p.stream(q)
	if err != nil {
		return Series{}, err
	}
	return rs.series, nil
}

// Interpolate evaluates the reference for q at every target timestamp.
func (p *ReferenceProvider) Interpolate(q Quantity, targets []int64) ([]float64, error) {
	in, err := p.Interpolator(q)
	if err != nil {
		return nil, err
	}
	return in.Evaluate(targets), nil
}

func (p *ReferenceProvider) stream(q Quantity) (*referenceStream, error) {
	if !q.Valid() {
		return nil, fmt.Errorf("unknown quantity %q", q)
	}
	if rs, ok := p.cache[q]; ok {
		return rs, nil
	}

	name := p.refs.Name(q)
	series, ok := p.ds.Series(name)
	if !ok {
		return nil, &ReferenceError{Quantity: q, Stream: name, Err: ErrMissingReferenceStream}
	}
	in, err := seriesInterpolator(series)
	if err != nil {
		return nil, &ReferenceError{Quantity: q, Stream: name, Err: err}
	}

	rs := &referenceStream{interp: in, series: series}
	p.cache[q] = rs
	return rs, nil
}

// seriesInterpolator fits an interpolator over a stream's own time axis.
func seriesInterpolator(s Series) (*Interpolator, error) {
	if s.TimeAxis == nil {
		return nil, fmt.Errorf("%s: no time axis: %w", s.Name, ErrInvalidInputFile)
	}
	if s.TimeAxis.Kind != AxisTime {
		return nil, fmt.Errorf("%s: axis %q holds %s values, not timestamps: %w",
			s.Name, s.TimeAxis.Name, s.TimeAxis.Kind, ErrDegenerateReference)
	}
	return NewInterpolator(s.TimeAxis.Times, s.Values)
}
