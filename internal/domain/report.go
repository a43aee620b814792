package domain

import (
	"fmt"
	"time"
)

// Report column names, in output order.
const (
	ReportHottestDayDate        = "hottest_day_date"
	ReportHottestDayTemperature = "hottest_day_temperature"
	ReportHottestDayByRegion    = "hottest_day_by_region"
)

// ReportEntry holds the attribute set of one report column. A nil field is
// an attribute the underlying query does not produce.
type ReportEntry struct {
	ObservationDate   *Date    `json:"ObservationDate" yaml:"ObservationDate"`
	Region            *string  `json:"Region" yaml:"Region"`
	ScreenTemperature *float64 `json:"ScreenTemperature" yaml:"ScreenTemperature"`
}

// Report bundles the three hottest-day query results. The columns are
// aligned by attribute name only; they share no key.
type Report struct {
	HottestDayDate        ReportEntry `json:"hottest_day_date" yaml:"hottest_day_date"`
	HottestDayTemperature ReportEntry `json:"hottest_day_temperature" yaml:"hottest_day_temperature"`
	HottestDayByRegion    ReportEntry `json:"hottest_day_by_region" yaml:"hottest_day_by_region"`
}

// ReportColumn is a named report entry.
type ReportColumn struct {
	Name  string
	Entry ReportEntry
}

// Columns returns the report columns in declared order.
func (r Report) Columns() []ReportColumn {
	return []ReportColumn{
		{Name: ReportHottestDayDate, Entry: r.HottestDayDate},
		{Name: ReportHottestDayTemperature, Entry: r.HottestDayTemperature},
		{Name: ReportHottestDayByRegion, Entry: r.HottestDayByRegion},
	}
}

// BuildReport runs the three hottest-day queries over t and merges their
// results. Any query failure aborts the whole report.
func BuildReport(t Table) (Report, error) {
	date, err := HottestDayDate(t)
	if err != nil {
		return Report{}, fmt.Errorf("build report: %w", err)
	}
	temp, err := HottestDayAverageTemperature(t)
	if err != nil {
		return Report{}, fmt.Errorf("build report: %w", err)
	}
	regionDate, region, err := HottestDayByRegion(t)
	if err != nil {
		return Report{}, fmt.Errorf("build report: %w", err)
	}

	return Report{
		HottestDayDate:        ReportEntry{ObservationDate: &date},
		HottestDayTemperature: ReportEntry{ScreenTemperature: &temp},
		HottestDayByRegion:    ReportEntry{ObservationDate: &regionDate, Region: &region},
	}, nil
}

// ReportRun is a report together with the provenance of the run that
// produced it.
type ReportRun struct {
	RunID       string    `json:"run_id" yaml:"run_id"`
	GeneratedAt time.Time `json:"generated_at" yaml:"generated_at"`
	SourceRows  int       `json:"source_rows" yaml:"source_rows"`
	Fingerprint string    `json:"fingerprint" yaml:"fingerprint"`
	Report      Report    `json:"report" yaml:"report"`
}

// NewReportRun stamps a report with the run ID, the current time and the
// size and fingerprint of the table it was computed from.
func NewReportRun(runID string, t Table, r Report) ReportRun {
	return ReportRun{
		RunID:       runID,
		GeneratedAt: clock.Now().UTC(),
		SourceRows:  t.Len(),
		Fingerprint: t.FingerprintHex(),
		Report:      r,
	}
}
