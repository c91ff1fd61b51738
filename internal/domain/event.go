package domain

import "time"

// AlignmentEvent announces a finished alignment run so downstream stages
// (resampling, archiving) can pick up the output file.
type AlignmentEvent struct {
	Vehicle       string         `json:"vehicle"`
	Mission       string         `json:"mission"`
	OutputPath    string         `json:"output_path"`
	Aligned       int            `json:"aligned"`
	Skipped       int            `json:"skipped"`
	SkipReasons   map[string]int `json:"skip_reasons,omitempty"`
	Coverage      *EventCoverage `json:"coverage,omitempty"`
	FormatVersion string         `json:"format_version"`
	CreatedAt     time.Time      `json:"created_at"`
}

// EventCoverage is the spatial and temporal extent of the output.
type EventCoverage struct {
	TimeStart time.Time `json:"time_start"`
	TimeEnd   time.Time `json:"time_end"`
	DepthMin  float64   `json:"depth_min"`
	DepthMax  float64   `json:"depth_max"`
	LatMin    float64   `json:"lat_min"`
	LatMax    float64   `json:"lat_max"`
	LonMin    float64   `json:"lon_min"`
	LonMax    float64   `json:"lon_max"`
}

// Key returns the message key, one per vehicle mission.
func (e AlignmentEvent) Key() string { return e.Vehicle + "_" + e.Mission }

// CoverageFromBounds converts accumulated bounds for an event. It returns
// nil when nothing was observed.
func CoverageFromBounds(b Bounds, observed bool) *EventCoverage {
	if !observed {
		return nil
	}
	return &EventCoverage{
		TimeStart: b.TimeStart,
		TimeEnd:   b.TimeEnd,
		DepthMin:  b.DepthMin,
		DepthMax:  b.DepthMax,
		LatMin:    b.LatMin,
		LatMax:    b.LatMax,
		LonMin:    b.LonMin,
		LonMax:    b.LonMax,
	}
}
