// Package domain aligns calibrated AUV instrument data onto the vehicle's
// navigation and depth solution.
//
// # Data Source
//
// Input is the calibrated mission container written by the calibration
// stage: one variable per measured quantity, each indexed by the time axis
// of the instrument that recorded it. Variable names follow the convention
// "<instrument>_<quantity>", e.g. "ctd1_temperature" or "hs2_bbp420".
//
// Time axes are stored as int64 nanoseconds since the Unix epoch. Some
// older missions carry an axis that was written as a plain ordinal index
// (0, 1, 2, ...) instead of real timestamps; those are tagged
// [AxisIndex] and cannot produce a sample rate.
//
// # Reference Streams
//
//	nudged_latitude   on axis "time"        navigation solution, nudged to GPS fixes
//	nudged_longitude  on axis "time"        shares the latitude axis
//	depth_filtdepth   on axis "depth_time"  vehicle-wide filtered depth
//
// An instrument may additionally carry "<instrument>_depth", a depth
// corrected for the sensor's offset from the vehicle's pressure sensor and
// the vehicle pitch. When present it is preferred over depth_filtdepth for
// that instrument only.
//
// # Alignment
//
// Every measurement keeps its native time axis. Depth, latitude and
// longitude are linearly interpolated onto that axis and written as three
// companion variables:
//
//	<instrument>_depth  <instrument>_latitude  <instrument>_longitude
//
// Interpolation extends the end segments when a measurement falls outside
// a reference's sampled range. More than [MaxExtrapolateFraction] of a
// variable's samples outside coverage drops the variable; a handful at the
// mission edges is normal because a fast instrument often starts logging a
// few milliseconds before the navigation solution does.
//
// Instruments with more than one time axis (the bioluminescence sensor
// records its raw counts at 60 Hz) are listed in [Rules.TimeAxisOverrides];
// their companions get the axis suffix, e.g. "biolume_depth60hz".
package domain
