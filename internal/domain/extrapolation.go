package domain

// MaxExtrapolateFraction is the largest share of a variable's samples that
// may fall outside reference coverage before the variable is dropped.
//
// Observed in practice: dorado 2008.289.03 extrapolates 2563 samples
// (0.038) at the mission edges and is good; dorado 2010.181.00 extrapolates
// every sample (1.00) because its depth stream does not overlap the
// instrument data at all.
const MaxExtrapolateFraction = 0.1

// Coverage is the sampled time range of a reference stream.
type Coverage struct {
	Name       string
	Start, End int64
}

// CoverageOf returns the coverage of an interpolator.
func CoverageOf(name string, in *Interpolator) Coverage {
	start, end := in.Domain()
	return Coverage{Name: name, Start: start, End: end}
}

// ExtrapolationReport describes how many target samples fall outside the
// union of reference coverages.
type ExtrapolationReport struct {
	OutOfRange []int
	Total      int
	Fraction   float64
}

// Count returns the number of out-of-range samples.
func (r ExtrapolationReport) Count() int { return len(r.OutOfRange) }

// CheckExtrapolation finds the target indices lying strictly outside
// [Start, End] of any of the given coverages and returns an
// *ExtrapolationError when their share exceeds MaxExtrapolateFraction.
// The report is returned in both cases.
func CheckExtrapolation(variable string, targets []int64, coverages ...Coverage) (ExtrapolationReport, error) {
	report := ExtrapolationReport{Total: len(targets)}
	if len(targets) == 0 {
		return report, nil
	}

	for i, t := range targets {
		for _, c := range coverages {
			if t < c.Start || t > c.End {
				report.OutOfRange = append(report.OutOfRange, i)
				break
			}
		}
	}
	report.Fraction = float64(len(report.OutOfRange)) / float64(len(targets))

	if report.Fraction > MaxExtrapolateFraction {
		return report, &ExtrapolationError{
			Variable:   variable,
			OutOfRange: report.OutOfRange,
			Total:      report.Total,
			Fraction:   report.Fraction,
		}
	}
	return report, nil
}
