// Package mockmission generates synthetic calibrated Dorado missions for
// demos, fixtures, and tests. Values are smooth deterministic functions of
// time so aligned output can be checked by hand.
package mockmission

import (
	"fmt"
	"math"
	"time"

	"github.com/couchcryptid/auv-align/internal/domain"
)

// SummarySource is the clause the calibration step appends to its summary.
const SummarySource = "Original log files copied from %s"

// Options shapes a synthetic mission.
type Options struct {
	Vehicle  string
	Mission  string
	Start    time.Time
	Duration time.Duration

	// Reference stream sampling.
	NavInterval   time.Duration
	DepthInterval time.Duration

	// CTDInterval is the ctd1 sampling interval. ctd1 carries its own
	// pitch-corrected depth.
	CTDInterval time.Duration
	// HS2Interval is the hs2 sampling interval. hs2 uses vehicle depth.
	HS2Interval time.Duration
	// IndexedHS2 writes hs2 time as ordinal positions instead of
	// timestamps, as some older calibrated files do.
	IndexedHS2 bool
	// Biolume adds biolume_flow at 1 Hz and biolume_raw at 60 Hz on its
	// own axis.
	Biolume bool
	// LateStartInstrument adds an instrument whose samples mostly lie
	// after the reference coverage ends.
	LateStartInstrument bool
	// OmitLatitude drops nudged_latitude.
	OmitLatitude bool
}

// DefaultOptions returns a ten minute mission with every instrument.
func DefaultOptions() Options {
	return Options{
		Vehicle:       "Dorado389",
		Mission:       "2020.064.10",
		Start:         time.Date(2020, time.March, 4, 18, 0, 0, 0, time.UTC),
		Duration:      10 * time.Minute,
		NavInterval:   10 * time.Second,
		DepthInterval: time.Second,
		CTDInterval:   500 * time.Millisecond,
		HS2Interval:   time.Second,
		Biolume:       true,
	}
}

// Generate builds the calibrated dataset described by opts.
func Generate(opts Options) (*domain.Dataset, error) {
	g := &generator{opts: opts, ds: domain.NewDataset()}
	g.ds.Attrs["title"] = fmt.Sprintf("Calibrated AUV sensor data from %s mission %s", opts.Vehicle, opts.Mission)
	g.ds.Attrs["summary"] = "Observational oceanographic data obtained from an Autonomous Underwater" +
		" Vehicle mission with measurements at original sampling intervals. The data have been" +
		" calibrated by MBARI's auv-python software. " +
		fmt.Sprintf(SummarySource, "/mbari/AUVCTD/missionlogs/"+opts.Mission)

	// Reference streams span the whole mission.
	navTimes := g.times(0, opts.Duration, opts.NavInterval)
	g.axis("nudged_time", domain.AxisTime, navTimes)
	if !opts.OmitLatitude {
		g.variable("nudged_latitude", "nudged_time", mapTimes(navTimes, g.latitude), domain.Attributes{
			"units":         "degrees_north",
			"standard_name": "latitude",
			"comment":       "Dead reckoned latitude nudged to GPS positions",
		})
	}
	g.variable("nudged_longitude", "nudged_time", mapTimes(navTimes, g.longitude), domain.Attributes{
		"units":         "degrees_east",
		"standard_name": "longitude",
		"comment":       "Dead reckoned longitude nudged to GPS positions",
	})

	depthTimes := g.times(0, opts.Duration, opts.DepthInterval)
	g.axis("depth_time", domain.AxisTime, depthTimes)
	g.variable("depth_filtdepth", "depth_time", mapTimes(depthTimes, g.depth), domain.Attributes{
		"units":     "m",
		"long_name": "Filtered Depth",
		"comment":   "Depth calculated from pressure sensor and filtered",
	})
	g.variable("depth_pressure", "depth_time", mapTimes(depthTimes, func(t int64) float64 { return g.depth(t) * 1.0068 }), domain.Attributes{
		"units": "dbar",
	})

	gpsTimes := g.times(0, opts.Duration, 60*time.Second)
	g.axis("gps_time", domain.AxisTime, gpsTimes)
	g.variable("gps_latitude", "gps_time", mapTimes(gpsTimes, g.latitude), domain.Attributes{"units": "degrees_north"})
	g.variable("gps_longitude", "gps_time", mapTimes(gpsTimes, g.longitude), domain.Attributes{"units": "degrees_east"})

	navigationTimes := g.times(0, opts.Duration, time.Second)
	g.axis("navigation_time", domain.AxisTime, navigationTimes)
	for _, q := range []string{"roll", "pitch", "yaw", "mWaterSpeed"} {
		phase := float64(len(q))
		g.variable("navigation_"+q, "navigation_time", mapTimes(navigationTimes, func(t int64) float64 {
			return math.Sin(g.seconds(t)/30 + phase)
		}), domain.Attributes{"units": navigationUnits(q)})
	}
	g.variable("navigation_depth", "navigation_time", mapTimes(navigationTimes, g.depth), domain.Attributes{"units": "m"})
	g.variable("navigation_mPos_x", "navigation_time", mapTimes(navigationTimes, g.seconds), domain.Attributes{"units": "m"})

	// ctd1 starts a little after and ends a little before the references.
	ctdTimes := g.times(opts.CTDInterval, opts.Duration-opts.CTDInterval, opts.CTDInterval)
	g.axis("ctd1_time", domain.AxisTime, ctdTimes)
	g.variable("ctd1_temperature", "ctd1_time", mapTimes(ctdTimes, func(t int64) float64 {
		return 14 - g.depth(t)/20
	}), domain.Attributes{"units": "degree_Celsius", "long_name": "Temperature"})
	g.variable("ctd1_salinity", "ctd1_time", mapTimes(ctdTimes, func(t int64) float64 {
		return 33.4 + g.depth(t)/500
	}), domain.Attributes{"units": "", "long_name": "Salinity"})
	g.variable("ctd1_depth", "ctd1_time", mapTimes(ctdTimes, func(t int64) float64 {
		return g.depth(t) + 0.35
	}), domain.Attributes{
		"units":   "m",
		"comment": "Depth at the ctd1 sensor, corrected for vehicle pitch",
	})

	hs2Times := g.times(0, opts.Duration, opts.HS2Interval)
	hs2Kind := domain.AxisTime
	if opts.IndexedHS2 {
		hs2Kind = domain.AxisIndex
		for i := range hs2Times {
			hs2Times[i] = int64(i)
		}
	}
	g.axis("hs2_time", hs2Kind, hs2Times)
	g.variable("hs2_bb420", "hs2_time", ramp(len(hs2Times), 0.001, 0.003), domain.Attributes{"units": "m-1"})
	g.variable("hs2_fl700", "hs2_time", ramp(len(hs2Times), 0.1, 0.4), domain.Attributes{"units": "ug/l"})

	if opts.Biolume {
		flowTimes := g.times(0, opts.Duration, time.Second)
		g.axis("biolume_time", domain.AxisTime, flowTimes)
		g.variable("biolume_flow", "biolume_time", ramp(len(flowTimes), 300, 320), domain.Attributes{"units": "mL/s"})

		rawTimes := g.times(0, opts.Duration, time.Second/60)
		g.axis("biolume_time60hz", domain.AxisTime, rawTimes)
		g.variable("biolume_raw", "biolume_time60hz", mapTimes(rawTimes, func(t int64) float64 {
			return 1e9 * (1 + math.Sin(g.seconds(t)*7))
		}), domain.Attributes{"units": "photons/s"})
	}

	if opts.LateStartInstrument {
		// Only the first fifth of the samples lie inside reference coverage.
		lateTimes := g.times(opts.Duration*4/5, opts.Duration*9/5, time.Second)
		g.axis("lopc_time", domain.AxisTime, lateTimes)
		g.variable("lopc_counts", "lopc_time", ramp(len(lateTimes), 0, 100), domain.Attributes{"units": "count"})
	}

	if g.err != nil {
		return nil, g.err
	}
	return g.ds, nil
}

type generator struct {
	opts Options
	ds   *domain.Dataset
	err  error
}

// times returns timestamps from Start+from to Start+to inclusive.
func (g *generator) times(from, to, step time.Duration) []int64 {
	if step <= 0 {
		g.fail(fmt.Errorf("non-positive sampling interval %s", step))
		return nil
	}
	var out []int64
	for d := from; d <= to; d += step {
		out = append(out, g.opts.Start.Add(d).UnixNano())
	}
	return out
}

func (g *generator) axis(name string, kind domain.AxisKind, times []int64) {
	g.fail(g.ds.AddAxis(&domain.TimeAxis{Name: name, Kind: kind, Times: times}))
}

func (g *generator) variable(name, axis string, values []float64, attrs domain.Attributes) {
	g.fail(g.ds.AddVariable(&domain.Variable{Name: name, Axis: axis, Values: values, Attrs: attrs}))
}

func (g *generator) fail(err error) {
	if err != nil && g.err == nil {
		g.err = err
	}
}

func (g *generator) seconds(t int64) float64 {
	return float64(t-g.opts.Start.UnixNano()) / 1e9
}

// latitude drifts north at a constant rate from Monterey Bay.
func (g *generator) latitude(t int64) float64 { return 36.80 + g.seconds(t)*1e-5 }

// longitude drifts west at a constant rate.
func (g *generator) longitude(t int64) float64 { return -121.90 - g.seconds(t)*2e-5 }

// depth is a yo-yo profile between 2 and 102 m with a 200 s period.
func (g *generator) depth(t int64) float64 {
	phase := math.Mod(g.seconds(t), 200) / 100
	if phase > 1 {
		phase = 2 - phase
	}
	return 2 + 100*phase
}

func mapTimes(times []int64, f func(int64) float64) []float64 {
	out := make([]float64, len(times))
	for i, t := range times {
		out[i] = f(t)
	}
	return out
}

func ramp(n int, from, to float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		if n > 1 {
			out[i] = from + (to-from)*float64(i)/float64(n-1)
		} else {
			out[i] = from
		}
	}
	return out
}

func navigationUnits(q string) string {
	if q == "mWaterSpeed" {
		return "m/s"
	}
	return "radian"
}
