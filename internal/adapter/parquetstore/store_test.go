package parquetstore

import (
	"context"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/couchcryptid/weather-data-etl/internal/domain"
	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sampleTable() domain.Table {
	return domain.Table{
		{ObservationDate: domain.NewDate(2016, time.February, 1), Region: "Yorkshire & Humber", ScreenTemperature: 9.0},
		{ObservationDate: domain.NewDate(2016, time.March, 1), Region: "Orkney & Shetland", ScreenTemperature: -1.5},
		{ObservationDate: domain.NewDate(2016, time.February, 1), Region: "Wales", ScreenTemperature: 0},
	}
}

func TestStore_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir, discardLogger())

	require.NoError(t, s.Write(context.Background(), sampleTable()))
	assert.FileExists(t, filepath.Join(dir, FileName))

	got, err := s.Read(context.Background())
	require.NoError(t, err)
	assert.Equal(t, sampleTable(), got)
}

func TestStore_PreservesNaN(t *testing.T) {
	s := NewStore(t.TempDir(), discardLogger())
	in := domain.Table{{ObservationDate: domain.NewDate(2016, time.February, 1), Region: "Wales", ScreenTemperature: math.NaN()}}

	require.NoError(t, s.Write(context.Background(), in))
	got, err := s.Read(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, math.IsNaN(got[0].ScreenTemperature))
}

func TestStore_WriteOverwrites(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir, discardLogger())

	require.NoError(t, s.Write(context.Background(), sampleTable()))
	require.NoError(t, s.Write(context.Background(), sampleTable()[:1]))

	got, err := s.Read(context.Background())
	require.NoError(t, err)
	assert.Equal(t, sampleTable()[:1], got)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}

func TestStore_EmptyTable(t *testing.T) {
	s := NewStore(t.TempDir(), discardLogger())

	require.NoError(t, s.Write(context.Background(), domain.Table{}))
	got, err := s.Read(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestStore_WriteMissingDirectory(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "absent"), discardLogger())

	err := s.Write(context.Background(), sampleTable())
	require.ErrorIs(t, err, domain.ErrIO)
}

func TestStore_ReadNoFiles(t *testing.T) {
	s := NewStore(t.TempDir(), discardLogger())

	_, err := s.Read(context.Background())
	require.ErrorIs(t, err, domain.ErrIO)
}

func TestStore_ReadConcatenatesFilesInOrder(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, parquet.WriteFile(filepath.Join(dir, "a.parquet"), []row{
		{ObservationDate: int32(domain.NewDate(2016, time.January, 1)), ScreenTemperature: 1, Region: "Wales"},
	}))
	require.NoError(t, parquet.WriteFile(filepath.Join(dir, "b.parquet"), []row{
		{ObservationDate: int32(domain.NewDate(2016, time.January, 2)), ScreenTemperature: 2, Region: "Wales"},
	}))

	got, err := NewStore(dir, discardLogger()).Read(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.InEpsilon(t, 1.0, got[0].ScreenTemperature, 1e-12)
	assert.InEpsilon(t, 2.0, got[1].ScreenTemperature, 1e-12)
}

func TestStore_ReadMissingColumn(t *testing.T) {
	type partial struct {
		ObservationDate int32  `parquet:"ObservationDate,date"`
		Region          string `parquet:"Region"`
	}
	dir := t.TempDir()
	require.NoError(t, parquet.WriteFile(filepath.Join(dir, FileName), []partial{{Region: "Wales"}}))

	_, err := NewStore(dir, discardLogger()).Read(context.Background())
	require.ErrorIs(t, err, domain.ErrSchema)
	assert.Contains(t, err.Error(), domain.ColScreenTemperature)
}

func TestStore_ReadWrongColumnType(t *testing.T) {
	type textual struct {
		ObservationDate   string  `parquet:"ObservationDate"`
		ScreenTemperature float64 `parquet:"ScreenTemperature"`
		Region            string  `parquet:"Region"`
	}
	dir := t.TempDir()
	require.NoError(t, parquet.WriteFile(filepath.Join(dir, FileName), []textual{{ObservationDate: "2016-02-01", Region: "Wales"}}))

	_, err := NewStore(dir, discardLogger()).Read(context.Background())
	require.ErrorIs(t, err, domain.ErrSchema)
}

func TestStore_ReadCorruptFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte("not parquet"), 0o644))

	_, err := NewStore(dir, discardLogger()).Read(context.Background())
	require.ErrorIs(t, err, domain.ErrIO)
}
