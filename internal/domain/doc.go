// Package domain models UK Met Office hourly observation data and the
// hottest-day report computed from it.
//
// # Data Source
//
// Observations arrive as CSV exports of the Met Office DataPoint hourly
// observation feed, one file per extraction window. Each row carries many
// site attributes (ForecastSiteCode, SiteName, WindSpeed, Pressure, ...);
// only three are kept:
//
//	ObservationDate    "2016-02-01T00:00:00"  → calendar day, time dropped
//	ScreenTemperature  "9.6"                  → float64, °C at screen height
//	Region             "Yorkshire & Humber"   → free text
//
// # Conventions
//
// Missing temperatures:
//
//	The feed encodes an unavailable screen temperature as "-99". The text is
//	replaced with "0" before numeric conversion using a literal substring
//	replace, see [NormalizeTemperature]. Blank cells are kept as NaN and
//	skipped by means.
//
// Dates:
//
//	Dates are free-form text parsed by [ParseDate]. Only the calendar day in
//	the text's own offset is retained; no zone conversion happens.
//
// # Report
//
// The report merges three independent queries into three columns:
//
//	hottest_day_date         date with the highest mean temperature
//	hottest_day_temperature  that mean
//	hottest_day_by_region    (date, region) pair with the highest mean
//
// Groups are ordered by key before the maximum is taken, so ties resolve to
// the earliest date (then the smallest region name).
package domain
