package domain

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"
	"time"

	"gopkg.in/yaml.v3"
)

// Output formats accepted by WriteReport.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

const missingCell = "NaN"

// WriteReport encodes a report run to w in the given format.
func WriteReport(w io.Writer, format string, run ReportRun) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(run)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(run); err != nil {
			return err
		}
		return enc.Close()
	case FormatText:
		if _, err := fmt.Fprintf(w, "run %s  generated %s  rows %d  fingerprint %s\n\n",
			run.RunID, run.GeneratedAt.Format(time.RFC3339), run.SourceRows, run.Fingerprint); err != nil {
			return err
		}
		return WriteReportTable(w, run.Report)
	default:
		return fmt.Errorf("unknown report format %q", format)
	}
}

// WriteReportTable prints the report as a grid with one row per attribute and
// one column per query, with NaN marking attributes a query does not produce.
func WriteReportTable(w io.Writer, r Report) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	cols := r.Columns()

	for _, c := range cols {
		fmt.Fprintf(tw, "\t%s", c.Name)
	}
	fmt.Fprintln(tw)

	for _, attr := range ReportAttributes() {
		fmt.Fprint(tw, attr)
		for _, c := range cols {
			fmt.Fprintf(tw, "\t%s", c.Entry.Cell(attr))
		}
		fmt.Fprintln(tw)
	}
	return tw.Flush()
}

// ReportAttributes returns the attribute names in report row order.
func ReportAttributes() []string {
	return []string{ColObservationDate, ColRegion, ColScreenTemperature}
}

// Cell formats one attribute of the entry, or NaN when it is missing.
func (e ReportEntry) Cell(attr string) string {
	switch attr {
	case ColObservationDate:
		if e.ObservationDate != nil {
			return e.ObservationDate.String()
		}
	case ColRegion:
		if e.Region != nil {
			return *e.Region
		}
	case ColScreenTemperature:
		if e.ScreenTemperature != nil {
			return strconv.FormatFloat(*e.ScreenTemperature, 'g', -1, 64)
		}
	}
	return missingCell
}
