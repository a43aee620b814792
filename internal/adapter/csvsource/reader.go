package csvsource

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/couchcryptid/weather-data-etl/internal/domain"
	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/prometheus/client_golang/prometheus"
)

// Extension is the file extension recognized as CSV input (case-insensitive).
const Extension = ".csv"

const dateCacheSize = 4096

// ErrNoSourceFiles is returned when the source directory holds no CSV files.
var ErrNoSourceFiles = fmt.Errorf("%w: no %s files in source directory", domain.ErrIO, Extension)

// Reader ingests every CSV file directly inside a directory.
// It implements pipeline.Ingestor.
type Reader struct {
	dir    string
	logger *slog.Logger
	dates  *dateCache
	files  prometheus.Counter
}

// Option configures a Reader.
type Option func(*Reader)

// WithFilesCounter counts every source file read successfully.
func WithFilesCounter(c prometheus.Counter) Option {
	return func(r *Reader) { r.files = c }
}

// NewReader creates a Reader for the given source directory.
func NewReader(dir string, logger *slog.Logger, opts ...Option) *Reader {
	r := &Reader{
		dir:    dir,
		logger: logger,
		dates:  newDateCache(dateCacheSize),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Dir returns the source directory.
func (r *Reader) Dir() string { return r.dir }

// Ingest reads the three required columns from every CSV file, normalizes
// them and concatenates the rows in file-name order.
func (r *Reader) Ingest(ctx context.Context) (domain.Table, error) {
	files, err := r.sourceFiles()
	if err != nil {
		return nil, err
	}

	table := domain.Table{}
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rows, err := r.readFile(path)
		if err != nil {
			return nil, err
		}
		if r.files != nil {
			r.files.Inc()
		}
		table = append(table, rows...)
	}

	r.logger.Info("csv ingestion complete", "dir", r.dir, "files", len(files), "rows", table.Len())
	return table, nil
}

// sourceFiles lists CSV files directly inside the source directory, sorted
// by name.
func (r *Reader) sourceFiles() ([]string, error) {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return nil, fmt.Errorf("%w: read source directory: %w", domain.ErrIO, err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), Extension) {
			continue
		}
		files = append(files, filepath.Join(r.dir, e.Name()))
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%s: %w", r.dir, ErrNoSourceFiles)
	}
	slices.Sort(files)
	return files, nil
}

// readFile loads one CSV file as text columns, keeps the required columns,
// applies the temperature sentinel substitution and parses each row.
func (r *Reader) readFile(path string) (domain.Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", domain.ErrIO, path, err)
	}

	header, hasRows, err := peekHeader(data)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", domain.ErrParse, path, err)
	}
	if missing := missingColumns(header); len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s: missing required columns %s",
			domain.ErrSchema, path, strings.Join(missing, ", "))
	}
	if !hasRows {
		r.logger.Debug("csv file has no rows", "file", path)
		return domain.Table{}, nil
	}

	df := dataframe.ReadCSV(bytes.NewReader(data),
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
		dataframe.NaNValues(nil),
	).Select(domain.RequiredColumns)
	if df.Err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", domain.ErrParse, path, df.Err)
	}

	dates := df.Col(domain.ColObservationDate).Records()
	temps := df.Col(domain.ColScreenTemperature).Records()
	regions := df.Col(domain.ColRegion).Records()

	table := make(domain.Table, len(dates))
	sentinels := 0
	for i := range table {
		line := i + 2
		d, err := r.dates.Parse(dates[i])
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", path, line, err)
		}
		if strings.Contains(temps[i], domain.MissingTemperatureSentinel) {
			sentinels++
		}
		v, err := domain.ParseTemperature(domain.NormalizeTemperature(temps[i]))
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", path, line, err)
		}
		table[i] = domain.Observation{ObservationDate: d, ScreenTemperature: v, Region: regions[i]}
	}

	r.logger.Debug("csv file read", "file", path, "rows", len(table), "sentinel_replacements", sentinels)
	return table, nil
}

// peekHeader returns the header record and whether any record follows it.
// An empty file has no header.
func peekHeader(data []byte) ([]string, bool, error) {
	cr := csv.NewReader(bytes.NewReader(data))
	cr.FieldsPerRecord = -1
	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if _, err := cr.Read(); errors.Is(err, io.EOF) {
		return header, false, nil
	}
	return header, true, nil
}

func missingColumns(names []string) []string {
	var missing []string
	for _, col := range domain.RequiredColumns {
		if !slices.Contains(names, col) {
			missing = append(missing, col)
		}
	}
	return missing
}
