package domain

import (
	"bytes"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// missionStart is an arbitrary epoch used by the fixtures; large absolute
// timestamps exercise the relative-seconds conversion.
var missionStart = time.Date(2020, time.March, 4, 18, 0, 0, 0, time.UTC).UnixNano()

// at returns the timestamp s seconds after missionStart.
func at(s float64) int64 {
	return missionStart + int64(s*1e9)
}

// seconds returns timestamps for each offset in seconds.
func seconds(offsets ...float64) []int64 {
	out := make([]int64, len(offsets))
	for i, s := range offsets {
		out[i] = at(s)
	}
	return out
}

// span returns n timestamps from from seconds, step seconds apart.
func span(from, step float64, n int) []int64 {
	out := make([]int64, n)
	for i := range out {
		out[i] = at(from + step*float64(i))
	}
	return out
}

func constant(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

type fixture struct {
	t  *testing.T
	ds *Dataset
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return &fixture{t: t, ds: NewDataset()}
}

func (f *fixture) axis(name string, times []int64) *fixture {
	f.t.Helper()
	require.NoError(f.t, f.ds.AddAxis(&TimeAxis{Name: name, Kind: AxisTime, Times: times}))
	return f
}

func (f *fixture) indexAxis(name string, n int) *fixture {
	f.t.Helper()
	times := make([]int64, n)
	for i := range times {
		times[i] = int64(i)
	}
	require.NoError(f.t, f.ds.AddAxis(&TimeAxis{Name: name, Kind: AxisIndex, Times: times}))
	return f
}

func (f *fixture) variable(name, axis string, values []float64, attrs Attributes) *fixture {
	f.t.Helper()
	require.NoError(f.t, f.ds.AddVariable(&Variable{Name: name, Axis: axis, Values: values, Attrs: attrs}))
	return f
}

// references adds nudged latitude/longitude and filtered depth streams over
// [from, to] seconds, sampled every step seconds.
func (f *fixture) references(from, to, step float64) *fixture {
	f.t.Helper()
	n := int((to-from)/step) + 1
	times := span(from, step, n)
	lat := make([]float64, n)
	lon := make([]float64, n)
	depth := make([]float64, n)
	for i := range times {
		lat[i] = 36.8 + 0.001*float64(i)
		lon[i] = -121.9 - 0.002*float64(i)
		depth[i] = 5 + float64(i)
	}
	f.axis("nudged_time", times).
		variable("nudged_latitude", "nudged_time", lat, Attributes{"units": "degrees_north", "comment": "Nudged latitude"}).
		variable("nudged_longitude", "nudged_time", lon, Attributes{"units": "degrees_east", "comment": "Nudged longitude"})
	f.axis("depth_time", times).
		variable("depth_filtdepth", "depth_time", depth, Attributes{"units": "m", "comment": "Filtered depth"})
	return f
}

func bufferLogger(level slog.Level) (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: level})), &buf
}
