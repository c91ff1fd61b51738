package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRules_Classify(t *testing.T) {
	rules := DefaultRules()

	tests := []struct {
		name        string
		variable    string
		axis        string
		measurement bool
		wantAxis    string
		wantDepth   string
	}{
		{"gps is a coordinate instrument", "gps_latitude", "gps_time", false, "", ""},
		{"nudged is a coordinate instrument", "nudged_longitude", "nudged_time", false, "", ""},
		{"vehicle depth is a coordinate instrument", "depth_filtdepth", "depth_time", false, "", ""},
		{"navigation roll is a measurement", "navigation_roll", "navigation_time", true, "navigation_time", "navigation_depth"},
		{"navigation water speed is a measurement", "navigation_mWaterSpeed", "navigation_time", true, "navigation_time", "navigation_depth"},
		{"other navigation fields are filtered", "navigation_mPos_x", "navigation_time", false, "", ""},
		{"instrument depth override is coordinate data", "ctd1_depth", "ctd1_time", false, "", ""},
		{"instrument latitude is coordinate data", "ctd1_latitude", "ctd1_time", false, "", ""},
		{"ordinary measurement", "ctd1_temperature", "ctd1_time", true, "ctd1_time", "ctd1_depth"},
		{"high-rate override", "biolume_raw", "biolume_time60hz", true, "biolume_time60hz", "biolume_depth60hz"},
		{"low-rate sibling keeps standard axis", "biolume_flow", "biolume_time", true, "biolume_time", "biolume_depth"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := rules.Classify(&Variable{Name: tt.variable, Axis: tt.axis})
			assert.Equal(t, tt.measurement, c.Measurement, c.Reason)
			if !tt.measurement {
				assert.NotEmpty(t, c.Reason)
				return
			}
			assert.Equal(t, tt.wantAxis, c.Axis)
			assert.Equal(t, tt.wantDepth, c.Keys.Depth)
		})
	}
}

func TestRules_TimeAxisTableDriven(t *testing.T) {
	rules := DefaultRules()
	rules.TimeAxisOverrides["lopc_counts"] = AxisOverride{Axis: "time2hz", Suffix: "2hz"}

	axis, keys := rules.TimeAxis("lopc_counts", "lopc")
	assert.Equal(t, "lopc_time2hz", axis)
	assert.Equal(t, FieldKeys{
		Time:      "lopc_time2hz",
		Depth:     "lopc_depth2hz",
		Latitude:  "lopc_latitude2hz",
		Longitude: "lopc_longitude2hz",
	}, keys)
}

func TestFieldKeys(t *testing.T) {
	keys := NewFieldKeys("ctd1", "ctd1_time", "")

	for _, q := range Quantities {
		k, err := keys.Key(q)
		require.NoError(t, err)
		assert.Equal(t, "ctd1_"+string(q), k)
	}
	assert.Equal(t, "ctd1_time ctd1_depth ctd1_latitude ctd1_longitude", keys.Coordinates())

	_, err := keys.Key(Quantity("lattitude"))
	require.Error(t, err)
	assert.False(t, Quantity("lattitude").Valid())
}

func TestReferences_Name(t *testing.T) {
	refs := DefaultRules().References
	assert.Equal(t, "nudged_latitude", refs.Name(QuantityLatitude))
	assert.Equal(t, "nudged_longitude", refs.Name(QuantityLongitude))
	assert.Equal(t, "depth_filtdepth", refs.Name(QuantityDepth))
	assert.Empty(t, refs.Name(Quantity("speed")))
}
