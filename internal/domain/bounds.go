package domain

import (
	"math"
	"sync"
	"time"

	"gonum.org/v1/gonum/floats"
)

// Bounds is the spatial and temporal extent of one aligned record or of the
// whole output.
type Bounds struct {
	TimeStart time.Time
	TimeEnd   time.Time
	DepthMin  float64
	DepthMax  float64
	LatMin    float64
	LatMax    float64
	LonMin    float64
	LonMax    float64
}

// RecordBounds computes the bounds of an aligned record: its first and last
// timestamps and the extrema of its companions.
func RecordBounds(axis *TimeAxis, depth, lat, lon []float64) Bounds {
	return Bounds{
		TimeStart: axis.Start(),
		TimeEnd:   axis.End(),
		DepthMin:  floats.Min(depth),
		DepthMax:  floats.Max(depth),
		LatMin:    floats.Min(lat),
		LatMax:    floats.Max(lat),
		LonMin:    floats.Min(lon),
		LonMax:    floats.Max(lon),
	}
}

// BoundsAccumulator widens running bounds as records are accepted. It is
// safe for concurrent use.
type BoundsAccumulator struct {
	mu       sync.Mutex
	b        Bounds
	observed bool
}

// NewBoundsAccumulator returns an accumulator in the unset state.
func NewBoundsAccumulator() *BoundsAccumulator {
	return &BoundsAccumulator{}
}

// Observe widens the running bounds to include b. The first observation
// seeds every extremum.
func (a *BoundsAccumulator) Observe(b Bounds) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.observed {
		a.b = b
		a.observed = true
		return
	}
	if b.TimeStart.Before(a.b.TimeStart) {
		a.b.TimeStart = b.TimeStart
	}
	if b.TimeEnd.After(a.b.TimeEnd) {
		a.b.TimeEnd = b.TimeEnd
	}
	a.b.DepthMin = math.Min(a.b.DepthMin, b.DepthMin)
	a.b.DepthMax = math.Max(a.b.DepthMax, b.DepthMax)
	a.b.LatMin = math.Min(a.b.LatMin, b.LatMin)
	a.b.LatMax = math.Max(a.b.LatMax, b.LatMax)
	a.b.LonMin = math.Min(a.b.LonMin, b.LonMin)
	a.b.LonMax = math.Max(a.b.LonMax, b.LonMax)
}

// Finalize returns the accumulated bounds. ok is false when nothing was
// observed, i.e. no variable was aligned.
func (a *BoundsAccumulator) Finalize() (b Bounds, ok bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.b, a.observed
}
