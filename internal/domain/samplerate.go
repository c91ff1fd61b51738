package domain

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

// SampleRate returns the reciprocal of the mean sample interval of axis in
// hertz, rounded half to even at two decimals.
//
// Some older calibrated files have the instrument time written as a plain
// ordinal index (missing time variable in the source log); those axes fail
// with ErrSampleRateUnavailable.
func SampleRate(axis *TimeAxis) (float64, error) {
	if axis.Kind != AxisTime {
		return 0, fmt.Errorf("axis %q holds %s values, not timestamps: %w", axis.Name, axis.Kind, ErrSampleRateUnavailable)
	}
	if axis.Len() < 2 {
		return 0, fmt.Errorf("axis %q has %d sample(s): %w", axis.Name, axis.Len(), ErrSampleRateUnavailable)
	}

	intervals := make([]float64, axis.Len()-1)
	for i := 1; i < axis.Len(); i++ {
		intervals[i-1] = float64(axis.Times[i]-axis.Times[i-1]) / 1e9
	}
	mean := stat.Mean(intervals, nil)
	if mean <= 0 || math.IsNaN(mean) || math.IsInf(mean, 0) {
		return 0, fmt.Errorf("axis %q mean interval %v: %w", axis.Name, mean, ErrSampleRateUnavailable)
	}

	return math.RoundToEven(100/mean) / 100, nil
}
