package domain

import (
	"fmt"
	"strings"
)

// Quantity is a position quantity interpolated onto every measurement.
type Quantity string

const (
	QuantityDepth     Quantity = "depth"
	QuantityLatitude  Quantity = "latitude"
	QuantityLongitude Quantity = "longitude"
)

// Quantities lists the companion quantities in output order.
var Quantities = []Quantity{QuantityDepth, QuantityLatitude, QuantityLongitude}

// Valid reports whether q is one of the known companion quantities.
func (q Quantity) Valid() bool {
	switch q {
	case QuantityDepth, QuantityLatitude, QuantityLongitude:
		return true
	}
	return false
}

// LongName is the human-readable long_name attribute for the quantity.
func (q Quantity) LongName() string {
	switch q {
	case QuantityDepth:
		return "Depth"
	case QuantityLatitude:
		return "Latitude"
	case QuantityLongitude:
		return "Longitude"
	}
	return ""
}

// FieldKeys names the companion fields of one instrument on one time axis.
type FieldKeys struct {
	Time      string
	Depth     string
	Latitude  string
	Longitude string
}

// NewFieldKeys builds the companion keys for an instrument. suffix is empty
// for the instrument's standard axis and the override suffix otherwise.
func NewFieldKeys(instrument, axis, suffix string) FieldKeys {
	return FieldKeys{
		Time:      axis,
		Depth:     instrument + "_" + string(QuantityDepth) + suffix,
		Latitude:  instrument + "_" + string(QuantityLatitude) + suffix,
		Longitude: instrument + "_" + string(QuantityLongitude) + suffix,
	}
}

// Key returns the companion key for q. It returns an error for anything
// outside the closed set of quantities so a typo cannot create a stray field.
func (k FieldKeys) Key(q Quantity) (string, error) {
	switch q {
	case QuantityDepth:
		return k.Depth, nil
	case QuantityLatitude:
		return k.Latitude, nil
	case QuantityLongitude:
		return k.Longitude, nil
	}
	return "", fmt.Errorf("unknown quantity %q", q)
}

// Coordinates is the value of the CF "coordinates" attribute.
func (k FieldKeys) Coordinates() string {
	return strings.Join([]string{k.Time, k.Depth, k.Latitude, k.Longitude}, " ")
}

// InstrumentDepthKey names the optional pitch-corrected depth stream of an
// instrument in the calibrated input.
func InstrumentDepthKey(instrument string) string {
	return instrument + "_" + string(QuantityDepth)
}
