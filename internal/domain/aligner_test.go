package domain

import (
	"errors"
	"log/slog"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAligner(t *testing.T, ds *Dataset, opts ...AlignerOption) *Aligner {
	t.Helper()
	opts = append([]AlignerOption{WithSourceName("Dorado389_2020.064.10_cal.db")}, opts...)
	a, err := NewAligner(ds, DefaultRules(), opts...)
	require.NoError(t, err)
	return a
}

func alignOne(t *testing.T, a *Aligner, ds *Dataset, name string) (AlignedRecord, error) {
	t.Helper()
	v, ok := ds.Variable(name)
	require.True(t, ok, name)
	c := DefaultRules().Classify(v)
	require.True(t, c.Measurement, c.Reason)
	return a.AlignVariable(v, c)
}

func TestAligner_FiftySampleMeasurement(t *testing.T) {
	temps := make([]float64, 50)
	for i := range temps {
		temps[i] = 12 + 0.01*float64(i)
	}
	f := newFixture(t).references(0, 90, 10).
		axis("ctd1_time", span(10, 1, 50)).
		variable("ctd1_temperature", "ctd1_time", temps, Attributes{"units": "degree_Celsius"})

	rec, err := alignOne(t, newTestAligner(t, f.ds), f.ds, "ctd1_temperature")
	require.NoError(t, err)

	assert.Zero(t, rec.Extrapolation.Count())
	assert.Equal(t, DepthSourceVehicle, rec.DepthSource)
	assert.Equal(t, "depth_filtdepth", rec.DepthStream)
	assert.InDelta(t, 1.0, rec.SampleRateHz, 0)

	for _, cv := range rec.Companions() {
		assert.Len(t, cv.Values, 50, cv.Name)
		assert.Equal(t, "ctd1_time", cv.Axis, cv.Name)
	}
	assert.Equal(t, temps, rec.Variable.Values)

	// References step 10 s, so at t seconds depth is 5 + t/10.
	for i, s := range []float64{10, 25, 59} {
		idx := int(s) - 10
		assert.InDelta(t, 5+s/10, rec.Depth.Values[idx], 1e-9, "depth %d", i)
		assert.InDelta(t, 36.8+0.001*s/10, rec.Latitude.Values[idx], 1e-9, "latitude %d", i)
		assert.InDelta(t, -121.9-0.002*s/10, rec.Longitude.Values[idx], 1e-9, "longitude %d", i)
	}
}

func TestAligner_HandComputedVehicleDepth(t *testing.T) {
	refTimes := seconds(0, 10, 20, 30, 40)
	f := newFixture(t).
		axis("nudged_time", refTimes).
		variable("nudged_latitude", "nudged_time", []float64{36, 36, 36, 36, 36}, nil).
		variable("nudged_longitude", "nudged_time", []float64{-122, -122, -122, -122, -122}, nil).
		axis("depth_time", refTimes).
		variable("depth_filtdepth", "depth_time", []float64{0, 10, 5, 5, 25}, nil).
		axis("hs2_time", seconds(5, 15, 25, 35, 40)).
		variable("hs2_bb420", "hs2_time", []float64{1, 2, 3, 4, 5}, nil)

	rec, err := alignOne(t, newTestAligner(t, f.ds), f.ds, "hs2_bb420")
	require.NoError(t, err)

	want := []float64{5, 7.5, 5, 15, 25}
	if diff := cmp.Diff(want, rec.Depth.Values, cmpopts.EquateApprox(0, 1e-9)); diff != "" {
		t.Errorf("depth mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "hs2_depth", rec.Depth.Name)
	assert.InDelta(t, 25, rec.Bounds.DepthMax, 1e-9)
	assert.InDelta(t, 5, rec.Bounds.DepthMin, 1e-9)
}

func TestAligner_InstrumentDepthOverride(t *testing.T) {
	f := newFixture(t).references(0, 100, 10).
		axis("ctd1_time", span(0, 2, 51)).
		variable("ctd1_depth", "ctd1_time", constant(51, 7), Attributes{"comment": "Pitch corrected depth"}).
		variable("ctd1_salinity", "ctd1_time", constant(51, 33.5), nil)

	logger, buf := bufferLogger(slog.LevelInfo)
	rec, err := alignOne(t, newTestAligner(t, f.ds, WithLogger(logger)), f.ds, "ctd1_salinity")
	require.NoError(t, err)

	assert.Equal(t, DepthSourceInstrument, rec.DepthSource)
	assert.Equal(t, "ctd1_depth", rec.DepthStream)
	assert.Equal(t, constant(51, 7), rec.Depth.Values)
	assert.Equal(t, "Pitch corrected depth", rec.Depth.Attrs.String(AttrComment))
	assert.Contains(t, buf.String(), "level=INFO msg=\"using pitch corrected depth\"")
}

// overrideOutsideVehicleDepth puts ctd1 with its own depth over 10..89 s
// while the vehicle depth stream only covers 0..40 s.
func overrideOutsideVehicleDepth(t *testing.T, withVehicleDepth bool) *fixture {
	t.Helper()
	f := newFixture(t).
		axis("nudged_time", span(0, 10, 10)).
		variable("nudged_latitude", "nudged_time", constant(10, 36.8), nil).
		variable("nudged_longitude", "nudged_time", constant(10, -121.9), nil).
		axis("ctd1_time", span(10, 1, 80)).
		variable("ctd1_depth", "ctd1_time", constant(80, 12), nil).
		variable("ctd1_temperature", "ctd1_time", constant(80, 10), nil)
	if withVehicleDepth {
		f.axis("depth_time", span(0, 10, 5)).
			variable("depth_filtdepth", "depth_time", []float64{0, 10, 20, 30, 40}, nil)
	}
	return f
}

func TestAligner_GuardUsesVehicleDepthCoverage(t *testing.T) {
	// 41..89 s lie past the vehicle depth end: 49 of 80.
	f := overrideOutsideVehicleDepth(t, true)

	_, err := alignOne(t, newTestAligner(t, f.ds), f.ds, "ctd1_temperature")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrExcessiveExtrapolation)

	var extErr *ExtrapolationError
	require.ErrorAs(t, err, &extErr)
	assert.Len(t, extErr.OutOfRange, 49)
	assert.Equal(t, 31, extErr.OutOfRange[0])
	assert.InDelta(t, 49.0/80, extErr.Fraction, 1e-12)
}

func TestAligner_GuardFallsBackToOverrideCoverage(t *testing.T) {
	f := overrideOutsideVehicleDepth(t, false)

	rec, err := alignOne(t, newTestAligner(t, f.ds), f.ds, "ctd1_temperature")
	require.NoError(t, err)
	assert.Equal(t, DepthSourceInstrument, rec.DepthSource)
	assert.Zero(t, rec.Extrapolation.Count())
	assert.Equal(t, constant(80, 12), rec.Depth.Values)
}

func TestAligner_CompanionAttributes(t *testing.T) {
	f := newFixture(t).references(0, 100, 10).
		axis("ctd1_time", span(0, 0.5, 201)).
		variable("ctd1_temperature", "ctd1_time", constant(201, 10), Attributes{"units": "degree_Celsius"})

	rec, err := alignOne(t, newTestAligner(t, f.ds), f.ds, "ctd1_temperature")
	require.NoError(t, err)

	assert.Equal(t, "ctd1_time ctd1_depth ctd1_latitude ctd1_longitude", rec.Variable.Attrs[AttrCoordinates])
	assert.InDelta(t, 2.0, rec.Variable.Attrs[AttrSampleRateHz], 0)
	assert.Equal(t, "degree_Celsius", rec.Variable.Attrs.String("units"))

	assert.Equal(t,
		"Nudged latitude. Variable nudged_latitude from Dorado389_2020.064.10_cal.db file linearly interpolated onto ctd1 time values.",
		rec.Latitude.Attrs.String(AttrComment))
	assert.Equal(t,
		"Filtered depth. Variable depth_filtdepth from Dorado389_2020.064.10_cal.db file linearly interpolated onto ctd1 time values.",
		rec.Depth.Attrs.String(AttrComment))
	assert.Equal(t, "Longitude", rec.Longitude.Attrs.String(AttrLongName))
	assert.Equal(t, "degrees_east", rec.Longitude.Attrs.String("units"))
	for _, cv := range rec.Companions() {
		assert.InDelta(t, 2.0, cv.Attrs[AttrSampleRateHz], 0, cv.Name)
	}

	ref, _ := f.ds.Variable("nudged_latitude")
	assert.Equal(t, "Nudged latitude", ref.Attrs.String(AttrComment), "reference attributes are not modified")
}

func TestAligner_ExcessiveExtrapolationSkips(t *testing.T) {
	// 91..109 s lie past the 90 s reference end: 19 of 60.
	f := newFixture(t).references(0, 90, 10).
		axis("ctd1_time", span(50, 1, 60)).
		variable("ctd1_temperature", "ctd1_time", constant(60, 10), nil)

	_, err := alignOne(t, newTestAligner(t, f.ds), f.ds, "ctd1_temperature")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrExcessiveExtrapolation)
	assert.False(t, IsRunFatal(err))

	var varErr *VariableError
	require.ErrorAs(t, err, &varErr)
	assert.Equal(t, "ctd1_temperature", varErr.Variable)
	assert.Equal(t, "ctd1", varErr.Instrument)

	var extErr *ExtrapolationError
	require.ErrorAs(t, err, &extErr)
	assert.Len(t, extErr.OutOfRange, 19)
	assert.Equal(t, 41, extErr.OutOfRange[0])
}

func TestAligner_BoundedExtrapolationIsLogged(t *testing.T) {
	// 91..99 s lie past the reference end: 9 of 100.
	f := newFixture(t).references(0, 90, 10).
		axis("ctd1_time", span(0, 1, 100)).
		variable("ctd1_temperature", "ctd1_time", constant(100, 10), nil)

	logger, buf := bufferLogger(slog.LevelInfo)
	rec, err := alignOne(t, newTestAligner(t, f.ds, WithLogger(logger)), f.ds, "ctd1_temperature")
	require.NoError(t, err)
	assert.Equal(t, 9, rec.Extrapolation.Count())
	assert.Contains(t, buf.String(), "extrapolating values outside reference coverage")

	// Linear extension past the last segment: 5 + 99/10.
	assert.InDelta(t, 14.9, rec.Depth.Values[99], 1e-9)
}

func TestAligner_IndexAxisRejected(t *testing.T) {
	f := newFixture(t).references(0, 100, 10).
		indexAxis("hs2_time", 20).
		variable("hs2_bb420", "hs2_time", constant(20, 1), nil)

	_, err := alignOne(t, newTestAligner(t, f.ds), f.ds, "hs2_bb420")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSampleRateUnavailable)
	assert.Equal(t, "sample_rate_unavailable", SkipReason(err))
}

func TestAligner_TimeAxisMismatch(t *testing.T) {
	f := newFixture(t).references(0, 100, 10).
		axis("biolume_time", span(0, 1, 50)).
		variable("biolume_raw", "biolume_time", constant(50, 1), nil)

	_, err := alignOne(t, newTestAligner(t, f.ds), f.ds, "biolume_raw")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTimeAxisMismatch)
}

func TestAligner_NoDepthSourceSkips(t *testing.T) {
	f := newFixture(t).
		axis("nudged_time", span(0, 10, 11)).
		variable("nudged_latitude", "nudged_time", constant(11, 36), nil).
		variable("nudged_longitude", "nudged_time", constant(11, -122), nil).
		axis("ctd1_time", span(0, 1, 100)).
		variable("ctd1_temperature", "ctd1_time", constant(100, 10), nil)

	outcomes := newTestAligner(t, f.ds).Align(NewBoundsAccumulator())
	require.Len(t, outcomes, 3)
	got := outcomes[2]
	assert.True(t, got.Skipped())
	assert.False(t, got.Fatal())
	assert.Equal(t, "no_depth_source", got.Reason)
}

func TestNewAligner_FatalReferenceErrors(t *testing.T) {
	tests := []struct {
		name    string
		build   func(f *fixture)
		wantErr error
	}{
		{
			name: "missing longitude",
			build: func(f *fixture) {
				f.axis("nudged_time", span(0, 10, 11)).
					variable("nudged_latitude", "nudged_time", constant(11, 36), nil)
			},
			wantErr: ErrMissingReferenceStream,
		},
		{
			name: "missing latitude",
			build: func(f *fixture) {
				f.axis("nudged_time", span(0, 10, 11)).
					variable("nudged_longitude", "nudged_time", constant(11, -122), nil)
			},
			wantErr: ErrMissingReferenceStream,
		},
		{
			name: "single point latitude",
			build: func(f *fixture) {
				f.axis("nudged_time", seconds(0)).
					variable("nudged_latitude", "nudged_time", []float64{36}, nil).
					variable("nudged_longitude", "nudged_time", []float64{-122}, nil)
			},
			wantErr: ErrDegenerateReference,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			tt.build(f)
			_, err := NewAligner(f.ds, DefaultRules())
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.True(t, IsRunFatal(err))
		})
	}
}

func TestAligner_AlignOutcomesInInputOrder(t *testing.T) {
	f := newFixture(t).references(0, 100, 10).
		axis("ctd1_time", span(0, 1, 101)).
		variable("ctd1_temperature", "ctd1_time", constant(101, 10), nil).
		axis("navigation_time", span(0, 1, 101)).
		variable("navigation_roll", "navigation_time", constant(101, 0.1), nil).
		variable("navigation_mPos_x", "navigation_time", constant(101, 5), nil)

	acc := NewBoundsAccumulator()
	outcomes := newTestAligner(t, f.ds).Align(acc)

	names := make([]string, len(outcomes))
	for i, o := range outcomes {
		names[i] = o.Name
	}
	assert.Equal(t, []string{
		"nudged_latitude", "nudged_longitude", "depth_filtdepth",
		"ctd1_temperature", "navigation_roll", "navigation_mPos_x",
	}, names)

	assert.True(t, outcomes[0].Ignored)
	assert.True(t, outcomes[3].Aligned())
	assert.True(t, outcomes[4].Aligned())
	assert.True(t, outcomes[5].Ignored)
	assert.Equal(t, "not a measurement of interest", outcomes[5].Reason)

	b, ok := acc.Finalize()
	require.True(t, ok)
	assert.InDelta(t, 5, b.DepthMin, 1e-9)
	assert.InDelta(t, 15, b.DepthMax, 1e-9)
}

func TestAligner_DoesNotMutateInput(t *testing.T) {
	f := newFixture(t).references(0, 100, 10).
		axis("ctd1_time", span(0, 1, 101)).
		variable("ctd1_temperature", "ctd1_time", constant(101, 10), Attributes{"units": "degree_Celsius"})

	rec, err := alignOne(t, newTestAligner(t, f.ds), f.ds, "ctd1_temperature")
	require.NoError(t, err)
	rec.Variable.Values[0] = -1

	v, _ := f.ds.Variable("ctd1_temperature")
	assert.InDelta(t, 10, v.Values[0], 0)
	_, hasCoords := v.Attrs[AttrCoordinates]
	assert.False(t, hasCoords)
}

func TestOutcome_FatalOnlyForRunErrors(t *testing.T) {
	perVar := Outcome{Err: &VariableError{Variable: "x", Err: ErrNoDepthSource}}
	assert.False(t, perVar.Fatal())

	fatal := Outcome{Err: &VariableError{Variable: "x", Err: &ReferenceError{
		Quantity: QuantityLatitude, Stream: "nudged_latitude", Err: ErrMissingReferenceStream,
	}}}
	assert.True(t, fatal.Fatal())
	assert.True(t, errors.Is(fatal.Err, ErrMissingReferenceStream))
}
