package parquetstore

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"

	"github.com/couchcryptid/weather-data-etl/internal/domain"
	"github.com/parquet-go/parquet-go"
)

// FileName is the store file written into the destination directory.
const FileName = "weather_data.parquet"

const glob = "*.parquet"

// row is the on-disk layout of one observation.
type row struct {
	ObservationDate   int32   `parquet:"ObservationDate,date"`
	ScreenTemperature float64 `parquet:"ScreenTemperature"`
	Region            string  `parquet:"Region"`
}

// expectedKinds is the physical type each required column must carry.
var expectedKinds = map[string]parquet.Kind{
	domain.ColObservationDate:   parquet.Int32,
	domain.ColScreenTemperature: parquet.Double,
	domain.ColRegion:            parquet.ByteArray,
}

// Store persists observation tables as Parquet files in a directory.
// It implements pipeline.Store.
type Store struct {
	dir    string
	logger *slog.Logger
}

// NewStore creates a Store rooted at dir. The directory must already exist.
func NewStore(dir string, logger *slog.Logger) *Store {
	return &Store{dir: dir, logger: logger}
}

// Path returns the file Write produces.
func (s *Store) Path() string {
	return filepath.Join(s.dir, FileName)
}

// Write replaces the store file with t. The file is written to a temporary
// name first and renamed into place, so readers never observe a partial file.
func (s *Store) Write(ctx context.Context, t domain.Table) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.dir, "."+FileName+"-*.tmp")
	if err != nil {
		return fmt.Errorf("%w: create temp file in %s: %w", domain.ErrIO, s.dir, err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	rows := make([]row, len(t))
	for i, o := range t {
		rows[i] = row{
			ObservationDate:   int32(o.ObservationDate),
			ScreenTemperature: o.ScreenTemperature,
			Region:            o.Region,
		}
	}

	w := parquet.NewGenericWriter[row](tmp)
	if _, err := w.Write(rows); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("%w: write %s: %w", domain.ErrIO, tmpName, err)
	}
	if err := w.Close(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("%w: finalize %s: %w", domain.ErrIO, tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: close %s: %w", domain.ErrIO, tmpName, err)
	}
	if err := os.Rename(tmpName, s.Path()); err != nil {
		return fmt.Errorf("%w: rename into %s: %w", domain.ErrIO, s.Path(), err)
	}
	committed = true

	s.logger.Info("parquet store written", "path", s.Path(), "rows", len(rows))
	return nil
}

// Read loads every Parquet file in the directory, in file-name order, and
// concatenates their rows.
func (s *Store) Read(ctx context.Context) (domain.Table, error) {
	files, err := filepath.Glob(filepath.Join(s.dir, glob))
	if err != nil {
		return nil, fmt.Errorf("%w: list %s: %w", domain.ErrIO, s.dir, err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: no parquet files in %s", domain.ErrIO, s.dir)
	}
	slices.Sort(files)

	var table domain.Table
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rows, err := readFile(path)
		if err != nil {
			return nil, err
		}
		for _, r := range rows {
			table = append(table, domain.Observation{
				ObservationDate:   domain.Date(r.ObservationDate),
				ScreenTemperature: r.ScreenTemperature,
				Region:            r.Region,
			})
		}
		s.logger.Debug("parquet file read", "file", path, "rows", len(rows))
	}
	if table == nil {
		table = domain.Table{}
	}
	return table, nil
}

func readFile(path string) ([]row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", domain.ErrIO, path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("%w: stat %s: %w", domain.ErrIO, path, err)
	}

	pf, err := parquet.OpenFile(f, info.Size())
	if err != nil {
		return nil, fmt.Errorf("%w: open parquet %s: %w", domain.ErrIO, path, err)
	}
	if err := checkSchema(pf.Schema()); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	rows, err := parquet.Read[row](f, info.Size())
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", domain.ErrIO, path, err)
	}
	return rows, nil
}

// checkSchema verifies that every required column is present with the
// expected physical type.
func checkSchema(schema *parquet.Schema) error {
	for _, name := range domain.RequiredColumns {
		leaf, ok := schema.Lookup(name)
		if !ok {
			return fmt.Errorf("%w: missing column %s", domain.ErrSchema, name)
		}
		if kind := leaf.Node.Type().Kind(); kind != expectedKinds[name] {
			return fmt.Errorf("%w: column %s has type %s, want %s",
				domain.ErrSchema, name, kind, expectedKinds[name])
		}
	}
	return nil
}
