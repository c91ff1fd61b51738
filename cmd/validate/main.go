// Command validate performs integrity checks on an aligned mission
// container: every measurement resolves its coordinate companions, arrays
// share their time axis, attributes are present, and the global bounds
// enclose every companion value. With -cal it also re-runs alignment on the
// calibrated input and compares the results.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -aligned auv_data/Dorado389/missionnetcdfs/2020.064.10/Dorado389_2020.064.10_align.db \
//	  -cal auv_data/Dorado389/missionnetcdfs/2020.064.10/Dorado389_2020.064.10_cal.db
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/couchcryptid/auv-align/internal/adapter/sqlite"
	"github.com/couchcryptid/auv-align/internal/domain"
	"gonum.org/v1/gonum/floats"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	alignedPath := flag.String("aligned", "", "path to the aligned container")
	calPath := flag.String("cal", "", "path to the calibrated container it was produced from (optional)")
	flag.Parse()

	if *alignedPath == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*alignedPath, *calPath); code != 0 {
		os.Exit(code)
	}
}

func run(alignedPath, calPath string) int {
	ctx := context.Background()

	fmt.Println("=== Aligned Data Integrity Validation ===")
	fmt.Println()

	aligned, err := sqlite.Open(ctx, alignedPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load aligned container: %v\n", err)
		return 1
	}
	records := measurements(aligned)

	phases := []*phase{
		validateStructure(aligned, records),
		validateAttributes(aligned, records),
		validateGlobalMetadata(aligned, records),
	}

	if calPath != "" {
		cal, err := sqlite.Open(ctx, calPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "FATAL: load calibrated container: %v\n", err)
			return 1
		}
		phases = append(phases, validateReproducible(aligned, cal, filepath.Base(calPath)))
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Variables: %d total, %d measurements\n", aligned.Len(), len(records))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// ── Data loading ──

// record is a measurement and the names listed in its coordinates attribute.
type record struct {
	variable *domain.Variable
	coords   []string
}

// measurements returns the variables carrying a coordinates attribute.
func measurements(ds *domain.Dataset) []record {
	var out []record
	for _, v := range ds.Variables() {
		coords := v.Attrs.String(domain.AttrCoordinates)
		if coords == "" {
			continue
		}
		out = append(out, record{variable: v, coords: strings.Fields(coords)})
	}
	return out
}

// ── Phase 1: Structure ──
// Validates that every measurement resolves four coordinates sharing its axis.

func validateStructure(ds *domain.Dataset, records []record) *phase {
	p := &phase{name: "Phase 1: Structure (coordinates)"}

	if len(records) == 0 {
		p.errorf("no measurement variables found")
	}
	for _, r := range records {
		v := r.variable
		if len(r.coords) != 4 {
			p.errorf("%s: coordinates %q: expected 4 names, got %d", v.Name, strings.Join(r.coords, " "), len(r.coords))
			continue
		}
		if r.coords[0] != v.Axis {
			p.errorf("%s: first coordinate %q is not its axis %q", v.Name, r.coords[0], v.Axis)
		}
		axis, ok := ds.Axis(v.Axis)
		if !ok {
			p.errorf("%s: axis %q not found", v.Name, v.Axis)
			continue
		}
		if axis.Kind != domain.AxisTime {
			p.errorf("%s: axis %q holds %s values", v.Name, axis.Name, axis.Kind)
		}
		for _, name := range r.coords[1:] {
			cv, ok := ds.Variable(name)
			switch {
			case !ok:
				p.errorf("%s: companion %q not found", v.Name, name)
			case cv.Axis != v.Axis:
				p.errorf("%s: companion %q is on %q, not %q", v.Name, name, cv.Axis, v.Axis)
			case len(cv.Values) != len(v.Values):
				p.errorf("%s: companion %q has %d values, expected %d", v.Name, name, len(cv.Values), len(v.Values))
			}
		}
	}
	return p
}

// ── Phase 2: Attributes ──
// Validates sample rates and companion attributes.

func validateAttributes(ds *domain.Dataset, records []record) *phase {
	p := &phase{name: "Phase 2: Attributes (sample rate)"}

	for _, r := range records {
		v := r.variable
		rate, ok := v.Attrs[domain.AttrSampleRateHz].(float64)
		if !ok || rate <= 0 {
			p.errorf("%s: %s missing or not positive", v.Name, domain.AttrSampleRateHz)
			continue
		}
		if axis, ok := ds.Axis(v.Axis); ok {
			if want, err := domain.SampleRate(axis); err == nil && want != rate {
				p.errorf("%s: sample rate %g, axis implies %g", v.Name, rate, want)
			}
		}
		for _, name := range r.coords[min(1, len(r.coords)):] {
			cv, ok := ds.Variable(name)
			if !ok {
				continue
			}
			if cv.Attrs.String(domain.AttrLongName) == "" {
				p.errorf("%s: missing %s", name, domain.AttrLongName)
			}
			if got, _ := cv.Attrs[domain.AttrSampleRateHz].(float64); got != rate {
				p.errorf("%s: sample rate %g differs from %s (%g)", name, got, v.Name, rate)
			}
		}
	}
	return p
}

// ── Phase 3: Global Metadata ──
// Validates required global attributes and that the bounds enclose every
// companion value.

var requiredGlobals = []string{
	"Conventions", "format_version", "featureType", "title", "summary",
	"history", "source", "date_created", "uuid",
}

func validateGlobalMetadata(ds *domain.Dataset, records []record) *phase {
	p := &phase{name: "Phase 3: Global Metadata (bounds)"}

	for _, key := range requiredGlobals {
		if ds.Attrs.String(key) == "" {
			p.errorf("global attribute %q missing", key)
		}
	}
	if v := ds.Attrs.String("format_version"); v != "" && v != domain.FormatVersion {
		p.errorf("format_version %q, expected %q", v, domain.FormatVersion)
	}

	start, errStart := time.Parse(time.RFC3339Nano, ds.Attrs.String("time_coverage_start"))
	end, errEnd := time.Parse(time.RFC3339Nano, ds.Attrs.String("time_coverage_end"))
	if errStart != nil || errEnd != nil {
		p.errorf("time coverage missing or malformed")
		return p
	}
	if end.Before(start) {
		p.errorf("time_coverage_end %s before start %s", end, start)
	}

	ranges := map[domain.Quantity][2]string{
		domain.QuantityDepth:     {"geospatial_vertical_min", "geospatial_vertical_max"},
		domain.QuantityLatitude:  {"geospatial_lat_min", "geospatial_lat_max"},
		domain.QuantityLongitude: {"geospatial_lon_min", "geospatial_lon_max"},
	}
	limits := map[domain.Quantity][2]float64{}
	for q, keys := range ranges {
		lo, okLo := ds.Attrs[keys[0]].(float64)
		hi, okHi := ds.Attrs[keys[1]].(float64)
		if !okLo || !okHi {
			p.errorf("%s/%s missing", keys[0], keys[1])
			continue
		}
		if lo > hi {
			p.errorf("%s %g greater than %s %g", keys[0], lo, keys[1], hi)
		}
		limits[q] = [2]float64{lo, hi}
	}

	for _, r := range records {
		checkRecordBounds(p, ds, r, start, end, limits)
	}
	return p
}

func checkRecordBounds(p *phase, ds *domain.Dataset, r record, start, end time.Time, limits map[domain.Quantity][2]float64) {
	if axis, ok := ds.Axis(r.variable.Axis); ok && axis.Len() > 0 {
		if axis.Start().Before(start) || axis.End().After(end) {
			p.errorf("%s: axis %s..%s outside time coverage", r.variable.Name, axis.Start(), axis.End())
		}
	}
	if len(r.coords) != 4 {
		return
	}
	for i, q := range domain.Quantities {
		cv, ok := ds.Variable(r.coords[i+1])
		lim, hasLim := limits[q]
		if !ok || !hasLim || len(cv.Values) == 0 {
			continue
		}
		if lo, hi := floats.Min(cv.Values), floats.Max(cv.Values); lo < lim[0] || hi > lim[1] {
			p.errorf("%s: %s range [%g, %g] outside global [%g, %g]", r.variable.Name, q, lo, hi, lim[0], lim[1])
		}
	}
}

// ── Phase 4: Reproducibility ──
// Re-aligns the calibrated input and compares companion values.

func validateReproducible(aligned, cal *domain.Dataset, source string) *phase {
	p := &phase{name: "Phase 4: Reproducibility (re-align)"}

	a, err := domain.NewAligner(cal, domain.DefaultRules(), domain.WithSourceName(source))
	if err != nil {
		p.errorf("re-align: %v", err)
		return p
	}

	for _, o := range a.Align(domain.NewBoundsAccumulator()) {
		if o.Ignored {
			continue
		}
		_, inOutput := aligned.Variable(o.Name)
		if !o.Aligned() {
			if inOutput {
				p.errorf("%s: present in output but re-alignment skipped it (%s)", o.Name, o.Reason)
			}
			continue
		}
		if !inOutput {
			p.errorf("%s: re-aligned but missing from output", o.Name)
			continue
		}
		for _, want := range append([]*domain.Variable{o.Record.Variable}, o.Record.Companions()...) {
			got, ok := aligned.Variable(want.Name)
			if !ok {
				p.errorf("%s: companion %s missing from output", o.Name, want.Name)
				continue
			}
			if len(got.Values) != len(want.Values) || !floats.EqualApprox(got.Values, want.Values, 1e-9) {
				p.errorf("%s: values differ from re-alignment", want.Name)
			}
		}
	}
	return p
}
