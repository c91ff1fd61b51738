package domain

import (
	"fmt"
	"maps"
	"strings"
	"time"
)

// AxisKind tells whether a time axis holds real timestamps.
type AxisKind string

const (
	// AxisTime axes hold nanoseconds since the Unix epoch.
	AxisTime AxisKind = "time"
	// AxisIndex axes hold ordinal positions written in place of timestamps.
	AxisIndex AxisKind = "index"
)

// Attributes is a variable or dataset attribute map. Values are strings or
// float64.
type Attributes map[string]any

// Clone returns a shallow copy so callers can extend attributes without
// touching the source.
func (a Attributes) Clone() Attributes {
	out := make(Attributes, len(a))
	maps.Copy(out, a)
	return out
}

// String returns the attribute as a string, or "" when absent or not a string.
func (a Attributes) String(key string) string {
	s, _ := a[key].(string)
	return s
}

// TimeAxis is a named, monotonic coordinate shared by one or more variables.
type TimeAxis struct {
	Name  string
	Kind  AxisKind
	Times []int64
}

// Len returns the number of points on the axis.
func (a *TimeAxis) Len() int { return len(a.Times) }

// Start returns the first timestamp as UTC time.
func (a *TimeAxis) Start() time.Time { return time.Unix(0, a.Times[0]).UTC() }

// End returns the last timestamp as UTC time.
func (a *TimeAxis) End() time.Time { return time.Unix(0, a.Times[len(a.Times)-1]).UTC() }

// Validate checks that a timestamp axis is strictly increasing.
func (a *TimeAxis) Validate() error {
	if a.Kind != AxisTime && a.Kind != AxisIndex {
		return fmt.Errorf("axis %q: unknown kind %q", a.Name, a.Kind)
	}
	for i := 1; i < len(a.Times); i++ {
		if a.Times[i] <= a.Times[i-1] {
			return fmt.Errorf("axis %q: not strictly increasing at index %d", a.Name, i)
		}
	}
	return nil
}

// Variable is one named data array indexed by a time axis.
type Variable struct {
	Name   string
	Axis   string
	Values []float64
	Attrs  Attributes
}

// Instrument returns the owning instrument, the name prefix before the first
// underscore.
func (v *Variable) Instrument() string {
	instr, _, _ := strings.Cut(v.Name, "_")
	return instr
}

// Quantity returns the part of the name after the instrument prefix.
func (v *Variable) Quantity() string {
	_, q, _ := strings.Cut(v.Name, "_")
	return q
}

// Series is a variable joined with its time axis.
type Series struct {
	*Variable
	TimeAxis *TimeAxis
}

// Dataset is an in-memory multi-variable time-series container. Variables
// keep their insertion order.
type Dataset struct {
	Attrs Attributes

	axes  map[string]*TimeAxis
	vars  []*Variable
	index map[string]int
}

// NewDataset returns an empty dataset.
func NewDataset() *Dataset {
	return &Dataset{
		Attrs: Attributes{},
		axes:  make(map[string]*TimeAxis),
		index: make(map[string]int),
	}
}

// AddAxis registers a time axis, replacing any axis of the same name.
func (d *Dataset) AddAxis(axis *TimeAxis) error {
	if axis.Name == "" {
		return fmt.Errorf("axis name is required")
	}
	if err := axis.Validate(); err != nil {
		return err
	}
	d.axes[axis.Name] = axis
	return nil
}

// AddVariable appends a variable. A variable with the same name is replaced
// in place so the original ordering is kept.
func (d *Dataset) AddVariable(v *Variable) error {
	axis, ok := d.axes[v.Axis]
	if !ok {
		return fmt.Errorf("variable %q: unknown axis %q", v.Name, v.Axis)
	}
	if len(v.Values) != axis.Len() {
		return fmt.Errorf("variable %q: %d values on axis %q of length %d",
			v.Name, len(v.Values), v.Axis, axis.Len())
	}
	if v.Attrs == nil {
		v.Attrs = Attributes{}
	}
	if i, ok := d.index[v.Name]; ok {
		d.vars[i] = v
		return nil
	}
	d.index[v.Name] = len(d.vars)
	d.vars = append(d.vars, v)
	return nil
}

// Variable looks up a variable by name.
func (d *Dataset) Variable(name string) (*Variable, bool) {
	i, ok := d.index[name]
	if !ok {
		return nil, false
	}
	return d.vars[i], true
}

// Axis looks up a time axis by name.
func (d *Dataset) Axis(name string) (*TimeAxis, bool) {
	a, ok := d.axes[name]
	return a, ok
}

// Series returns a variable together with its time axis.
func (d *Dataset) Series(name string) (Series, bool) {
	v, ok := d.Variable(name)
	if !ok {
		return Series{}, false
	}
	return Series{Variable: v, TimeAxis: d.axes[v.Axis]}, true
}

// Variables returns the variables in insertion order.
func (d *Dataset) Variables() []*Variable {
	out := make([]*Variable, len(d.vars))
	copy(out, d.vars)
	return out
}

// Axes returns the axes referenced by at least one variable, in the order
// they are first referenced.
func (d *Dataset) Axes() []*TimeAxis {
	seen := make(map[string]bool, len(d.axes))
	var out []*TimeAxis
	for _, v := range d.vars {
		if seen[v.Axis] {
			continue
		}
		seen[v.Axis] = true
		out = append(out, d.axes[v.Axis])
	}
	return out
}

// Len returns the number of variables.
func (d *Dataset) Len() int { return len(d.vars) }
