package xlsx

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/couchcryptid/weather-data-etl/internal/domain"
	"github.com/xuri/excelize/v2"
)

// Sheet names in the exported workbook.
const (
	ReportSheet = "Report"
	RunSheet    = "Run"
)

// Exporter renders report runs as Excel workbooks.
type Exporter struct {
	logger *slog.Logger
}

// NewExporter creates an Exporter.
func NewExporter(logger *slog.Logger) *Exporter {
	return &Exporter{logger: logger}
}

// Render builds a workbook with the report grid on one sheet and the run
// metadata on another. Attributes a column does not produce are left blank.
func (e *Exporter) Render(run domain.ReportRun) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetDocProps(&excelize.DocProperties{
		Title:       "Hottest day report",
		Subject:     "Weather Data Analysis",
		Creator:     "weather-data-etl",
		Description: fmt.Sprintf("Run %s over %d observations", run.RunID, run.SourceRows),
		Created:     run.GeneratedAt.Format(time.RFC3339),
	}); err != nil {
		return nil, fmt.Errorf("set document properties: %w", err)
	}

	if err := e.createReportSheet(f, run.Report); err != nil {
		return nil, fmt.Errorf("create report sheet: %w", err)
	}
	if err := e.createRunSheet(f, run); err != nil {
		return nil, fmt.Errorf("create run sheet: %w", err)
	}

	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("delete default sheet: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook to buffer: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteFile renders the run and writes the workbook to path.
func (e *Exporter) WriteFile(path string, run domain.ReportRun) error {
	data, err := e.Render(run)
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Clean(path), data, 0o644); err != nil {
		return fmt.Errorf("%w: write workbook %s: %w", domain.ErrIO, path, err)
	}
	e.logger.Info("report workbook written", "path", path, "run_id", run.RunID)
	return nil
}

func (e *Exporter) createReportSheet(f *excelize.File, r domain.Report) error {
	idx, err := f.NewSheet(ReportSheet)
	if err != nil {
		return err
	}
	f.SetActiveSheet(idx)

	cols := r.Columns()
	for i, c := range cols {
		if err := f.SetCellValue(ReportSheet, cell(i+2, 1), c.Name); err != nil {
			return err
		}
	}

	for i, attr := range domain.ReportAttributes() {
		row := i + 2
		if err := f.SetCellValue(ReportSheet, cell(1, row), attr); err != nil {
			return err
		}
		for j, c := range cols {
			v, ok := cellValue(c.Entry, attr)
			if !ok {
				continue
			}
			if err := f.SetCellValue(ReportSheet, cell(j+2, row), v); err != nil {
				return err
			}
		}
	}

	if err := f.SetColWidth(ReportSheet, "A", "A", 20); err != nil {
		return err
	}
	return f.SetColWidth(ReportSheet, "B", colLetter(len(cols)+1), 25)
}

func (e *Exporter) createRunSheet(f *excelize.File, run domain.ReportRun) error {
	if _, err := f.NewSheet(RunSheet); err != nil {
		return err
	}

	rows := []struct {
		label string
		value any
	}{
		{"run_id", run.RunID},
		{"generated_at", run.GeneratedAt.Format(time.RFC3339)},
		{"source_rows", run.SourceRows},
		{"fingerprint", run.Fingerprint},
	}
	for i, r := range rows {
		if err := f.SetCellValue(RunSheet, cell(1, i+1), r.label); err != nil {
			return err
		}
		if err := f.SetCellValue(RunSheet, cell(2, i+1), r.value); err != nil {
			return err
		}
	}
	return f.SetColWidth(RunSheet, "A", "B", 40)
}

// cellValue returns the typed value of one attribute, or false when the
// entry does not carry it.
func cellValue(e domain.ReportEntry, attr string) (any, bool) {
	switch attr {
	case domain.ColObservationDate:
		if e.ObservationDate != nil {
			return e.ObservationDate.String(), true
		}
	case domain.ColRegion:
		if e.Region != nil {
			return *e.Region, true
		}
	case domain.ColScreenTemperature:
		if e.ScreenTemperature != nil {
			return *e.ScreenTemperature, true
		}
	}
	return nil, false
}

func cell(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}

func colLetter(col int) string {
	letter, _ := excelize.ColumnNumberToName(col)
	return letter
}
