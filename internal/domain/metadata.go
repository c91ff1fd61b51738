package domain

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	// FormatVersion identifies the aligned container layout.
	FormatVersion = "1"

	softwareURL           = "https://github.com/mbari-org/auv-python"
	distributionStatement = "Any use requires prior approval from MBARI"
	useConstraints        = "Not intended for legal use. Data may contain inaccuracies."

	// TimestampLayout is the ISO 8601 form used for all date attributes.
	TimestampLayout = "2006-01-02T15:04:05.000000Z"
)

// originalLogs matches the clause the calibration step appends to its
// summary to record where the raw logs came from.
var originalLogs = regexp.MustCompile(`Original log files copied from .+$`)

// Provenance describes the run that produced an output file.
type Provenance struct {
	Vehicle     string
	Mission     string
	CommandLine string
	Host        string
	Commit      string
}

// RunMetadata holds the inputs of GlobalMetadata.
type RunMetadata struct {
	Provenance
	Bounds         Bounds
	BoundsObserved bool
	// InputAttrs are the calibrated dataset's global attributes.
	InputAttrs Attributes
}

// GlobalMetadata builds the dataset attributes of an aligned output. Bounds
// attributes are only written when at least one variable was aligned.
func GlobalMetadata(in RunMetadata) Attributes {
	now := clock.Now().UTC().Format(TimestampLayout)

	md := Attributes{
		"Conventions":    "CF-1.6",
		"format_version": FormatVersion,
		"featureType":    "trajectory",
		"date_created":   now,
		"date_update":    now,
		"date_modified":  now,
	}

	if in.BoundsObserved {
		b := in.Bounds
		md["time_coverage_start"] = b.TimeStart.UTC().Format(time.RFC3339Nano)
		md["time_coverage_end"] = b.TimeEnd.UTC().Format(time.RFC3339Nano)
		md["time_coverage_duration"] = ISODuration(b.TimeEnd.Sub(b.TimeStart))
		md["geospatial_vertical_min"] = b.DepthMin
		md["geospatial_vertical_max"] = b.DepthMax
		md["geospatial_lat_min"] = b.LatMin
		md["geospatial_lat_max"] = b.LatMax
		md["geospatial_lon_min"] = b.LonMin
		md["geospatial_lon_max"] = b.LonMax
	}

	md["distribution_statement"] = distributionStatement
	md["license"] = distributionStatement
	md["useconst"] = useConstraints
	md["history"] = fmt.Sprintf("Created by %s on %s", in.CommandLine, now)
	md["title"] = fmt.Sprintf("Calibrated and aligned AUV sensor data from %s mission %s", in.Vehicle, in.Mission)
	md["source"] = fmt.Sprintf("MBARI Dorado-class AUV data produced from calibrated data"+
		" with execution of '%s' at %s on host %s using git commit %s from software at '%s'",
		in.CommandLine, now, in.Host, in.Commit, softwareURL)

	summary := "Observational oceanographic data obtained from an Autonomous" +
		" Underwater Vehicle mission with measurements at original sampling intervals." +
		" The data have been calibrated and the coordinate variables aligned using" +
		" MBARI's auv-python software."
	if m := originalLogs.FindString(in.InputAttrs.String("summary")); m != "" {
		summary += " " + m
	}
	md["summary"] = summary
	md["comment"] = fmt.Sprintf("MBARI Dorado-class AUV data produced from calibrated data"+
		" with execution of '%s' at %s on host %s. Software available at '%s'",
		in.CommandLine, now, in.Host, softwareURL)
	md["uuid"] = uuid.NewString()

	return md
}

// ISODuration formats d as an ISO 8601 duration such as P1DT2H3M4.5S.
func ISODuration(d time.Duration) string {
	if d < 0 {
		d = -d
	}
	days := d / (24 * time.Hour)
	d -= days * 24 * time.Hour
	hours := d / time.Hour
	d -= hours * time.Hour
	minutes := d / time.Minute
	d -= minutes * time.Minute
	seconds := d.Seconds()

	var b strings.Builder
	b.WriteString("P")
	if days > 0 {
		fmt.Fprintf(&b, "%dD", days)
	}
	b.WriteString("T")
	if hours > 0 {
		fmt.Fprintf(&b, "%dH", hours)
	}
	if minutes > 0 {
		fmt.Fprintf(&b, "%dM", minutes)
	}
	fmt.Fprintf(&b, "%sS", strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.6f", seconds), "0"), "."))
	return b.String()
}
