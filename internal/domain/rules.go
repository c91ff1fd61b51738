package domain

import (
	"slices"
	"strings"
)

// AxisOverride selects a non-standard time axis for a single variable.
type AxisOverride struct {
	// Axis is appended to "<instrument>_" to form the axis name, e.g.
	// "time60hz" selects "biolume_time60hz".
	Axis string `yaml:"axis"`
	// Suffix is appended to the companion keys so they do not collide with
	// the companions on the instrument's standard axis.
	Suffix string `yaml:"suffix"`
}

// References names the reference streams in the calibrated input.
type References struct {
	Latitude  string `yaml:"latitude"`
	Longitude string `yaml:"longitude"`
	Depth     string `yaml:"depth"`
}

// Name returns the reference stream name for q.
func (r References) Name(q Quantity) string {
	switch q {
	case QuantityLatitude:
		return r.Latitude
	case QuantityLongitude:
		return r.Longitude
	case QuantityDepth:
		return r.Depth
	}
	return ""
}

// Rules drives variable classification and time-axis selection.
type Rules struct {
	// CoordinateInstruments only produce reference streams.
	CoordinateInstruments []string `yaml:"coordinateInstruments"`
	// MeasurementAllowlist restricts an instrument to the listed quantities.
	// Instruments not in the map keep all their variables.
	MeasurementAllowlist map[string][]string `yaml:"measurementAllowlist"`
	// TimeAxisOverrides maps a variable name to its alternate axis.
	TimeAxisOverrides map[string]AxisOverride `yaml:"timeAxisOverrides"`
	References        References              `yaml:"references"`
}

// DefaultRules returns the tables for Dorado-class vehicles.
func DefaultRules() Rules {
	return Rules{
		CoordinateInstruments: []string{"gps", "depth", "nudged"},
		MeasurementAllowlist: map[string][]string{
			"navigation": {"mWaterSpeed", "roll", "pitch", "yaw"},
		},
		TimeAxisOverrides: map[string]AxisOverride{
			"biolume_raw": {Axis: "time60hz", Suffix: "60hz"},
		},
		References: References{
			Latitude:  "nudged_latitude",
			Longitude: "nudged_longitude",
			Depth:     "depth_filtdepth",
		},
	}
}

// Classification is the outcome of classifying one input variable.
type Classification struct {
	Measurement bool
	Reason      string
	Instrument  string
	Axis        string
	Keys        FieldKeys
}

// Classify decides whether v is a measurement to align and, if so, which
// time axis and companion keys it uses.
func (r Rules) Classify(v *Variable) Classification {
	instr := v.Instrument()
	c := Classification{Instrument: instr}

	if slices.Contains(r.CoordinateInstruments, instr) {
		c.Reason = "coordinate instrument"
		return c
	}
	if allowed, ok := r.MeasurementAllowlist[instr]; ok {
		// Only the token after the instrument prefix is matched.
		q, _, _ := strings.Cut(v.Quantity(), "_")
		if !slices.Contains(allowed, q) {
			c.Reason = "not a measurement of interest"
			return c
		}
	}
	for _, q := range Quantities {
		if v.Quantity() == string(q) {
			c.Reason = "instrument coordinate field"
			return c
		}
	}

	c.Measurement = true
	c.Axis, c.Keys = r.TimeAxis(v.Name, instr)
	return c
}

// TimeAxis returns the axis name and companion keys for a variable of the
// given instrument.
func (r Rules) TimeAxis(variable, instrument string) (string, FieldKeys) {
	if o, ok := r.TimeAxisOverrides[variable]; ok {
		axis := instrument + "_" + o.Axis
		return axis, NewFieldKeys(instrument, axis, o.Suffix)
	}
	axis := instrument + "_time"
	return axis, NewFieldKeys(instrument, axis, "")
}
