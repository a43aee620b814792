// Command validate performs end-to-end integrity checks between the CSV
// sources and the Parquet store produced by the etl command. It re-ingests
// the CSVs, compares them row by row with the stored table and verifies that
// both yield the same hottest-day report.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -source-dir data/csv \
//	  -dest-dir data/parquet
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"time"

	"github.com/couchcryptid/weather-data-etl/internal/adapter/csvsource"
	"github.com/couchcryptid/weather-data-etl/internal/adapter/parquetstore"
	"github.com/couchcryptid/weather-data-etl/internal/domain"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/jonboulle/clockwork"
)

// maxRowErrors caps per-row mismatch reports so a shifted table stays readable.
const maxRowErrors = 20

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	sourceDir := flag.String("source-dir", "", "directory containing source CSV files")
	destDir := flag.String("dest-dir", "", "directory containing the Parquet store")
	flag.Parse()

	if *sourceDir == "" || *destDir == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*sourceDir, *destDir); code != 0 {
		os.Exit(code)
	}
}

func run(sourceDir, destDir string) int {
	// Fixed clock so both report runs carry the same timestamp.
	domain.SetClock(clockwork.NewFakeClockAt(
		time.Date(2016, time.April, 1, 6, 0, 0, 0, time.UTC),
	))
	defer domain.SetClock(nil)

	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	// ── Load both data sources ──
	fmt.Println("=== Weather Data Integrity Validation ===")
	fmt.Println()

	ingested, err := csvsource.NewReader(sourceDir, logger).Ingest(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: ingest CSVs: %v\n", err)
		return 1
	}

	stored, err := parquetstore.NewStore(destDir, logger).Read(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: read parquet store: %v\n", err)
		return 1
	}

	// ── Run validation phases ──
	phases := []*phase{
		validateIngest(ingested),
		validateRoundTrip(ingested, stored),
		validateReport(ingested, stored),
	}

	// ── Report results ──
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Rows: %d CSV, %d Parquet\n", ingested.Len(), stored.Len())
	fmt.Printf("Fingerprints: %s CSV, %s Parquet\n", ingested.FingerprintHex(), stored.FingerprintHex())

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// ── Phase 1: Ingest ──
// Validates the normalized CSV table on its own.

func validateIngest(t domain.Table) *phase {
	p := &phase{name: "Phase 1: Ingest (CSV normalization)"}

	if t.Len() == 0 {
		p.errorf("no rows ingested")
		return p
	}

	missing := 0
	for i, o := range t {
		if o.Region == "" {
			p.errorf("row %d: empty Region", i)
		}
		if math.IsNaN(o.ScreenTemperature) {
			missing++
		} else if o.ScreenTemperature == -99 {
			p.errorf("row %d: sentinel -99 survived normalization", i)
		}
	}
	if missing == t.Len() {
		p.errorf("every ScreenTemperature is missing")
	} else if missing > 0 {
		fmt.Printf("  Note: %d row(s) without a ScreenTemperature reading\n", missing)
	}
	return p
}

// ── Phase 2: Round trip ──
// Validates that the Parquet store holds exactly the ingested rows.

func validateRoundTrip(ingested, stored domain.Table) *phase {
	p := &phase{name: "Phase 2: Round Trip (Parquet vs CSV)"}

	if ingested.Len() != stored.Len() {
		p.errorf("row count: CSV has %d, Parquet has %d", ingested.Len(), stored.Len())
	}
	if ingested.Fingerprint() == stored.Fingerprint() {
		return p
	}
	p.errorf("fingerprint: CSV %s, Parquet %s", ingested.FingerprintHex(), stored.FingerprintHex())

	n := min(ingested.Len(), stored.Len())
	reported := 0
	for i := 0; i < n && reported < maxRowErrors; i++ {
		if diff := cmp.Diff(ingested[i], stored[i], cmpopts.EquateNaNs()); diff != "" {
			p.errorf("row %d mismatch (-csv +parquet):\n%s", i, diff)
			reported++
		}
	}
	return p
}

// ── Phase 3: Report consistency ──
// Validates that both tables produce the same report and that the report
// agrees with the per-date means.

func validateReport(ingested, stored domain.Table) *phase {
	p := &phase{name: "Phase 3: Report Consistency"}

	fromCSV, err := domain.BuildReport(ingested)
	if err != nil {
		p.errorf("build report from CSV: %v", err)
		return p
	}
	fromStore, err := domain.BuildReport(stored)
	if err != nil {
		p.errorf("build report from Parquet: %v", err)
		return p
	}
	if diff := cmp.Diff(fromCSV, fromStore); diff != "" {
		p.errorf("report mismatch (-csv +parquet):\n%s", diff)
	}

	checkHottestDay(p, stored, fromStore)
	return p
}

func checkHottestDay(p *phase, t domain.Table, r domain.Report) {
	date := r.HottestDayDate.ObservationDate
	temp := r.HottestDayTemperature.ScreenTemperature
	if date == nil || temp == nil {
		p.errorf("report is missing the hottest date or temperature")
		return
	}

	for _, g := range domain.MeanByDate(t) {
		if g.Mean > *temp {
			p.errorf("date %s has mean %g above the reported hottest %g", g.Date, g.Mean, *temp)
		}
		if g.Date == *date && g.Mean != *temp {
			p.errorf("hottest date %s has mean %g, report says %g", g.Date, g.Mean, *temp)
		}
	}

	region := r.HottestDayByRegion.Region
	if region == nil {
		p.errorf("report is missing the hottest region")
		return
	}
	for _, g := range domain.MeanByDateRegion(t) {
		if g.Date == *r.HottestDayByRegion.ObservationDate && g.Region == *region {
			return
		}
	}
	p.errorf("hottest region %q on %s has no observations", *region, *r.HottestDayByRegion.ObservationDate)
}
