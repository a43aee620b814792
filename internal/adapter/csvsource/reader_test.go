package csvsource

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/couchcryptid/weather-data-etl/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const metOfficeHeader = "ForecastSiteCode,ObservationTime,ObservationDate,WindDirection,WindSpeed,ScreenTemperature,Pressure,SiteName,Region,Country"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeFile(t *testing.T, dir, name string, lines ...string) {
	t.Helper()
	content := strings.Join(lines, "\n") + "\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestReader_Ingest_ConcatenatesInFileOrder(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "weather.20160301.csv", metOfficeHeader,
		`3002,0,2016-03-01T00:00:00,8,13,4.5,1001,BALTASOUND (3002),Orkney & Shetland,SCOTLAND`,
	)
	writeFile(t, dir, "weather.20160201.csv", metOfficeHeader,
		`3017,0,2016-02-01T00:00:00,12,8,9.0,1020,KIRKWALL (3017),Yorkshire & Humber,ENGLAND`,
		`3017,1,2016-02-01T01:00:00,12,8,-99,1020,KIRKWALL (3017),Yorkshire & Humber,ENGLAND`,
	)

	table, err := NewReader(dir, discardLogger()).Ingest(context.Background())
	require.NoError(t, err)
	require.Len(t, table, 3)

	assert.Equal(t, domain.Observation{
		ObservationDate:   domain.NewDate(2016, time.February, 1),
		Region:            "Yorkshire & Humber",
		ScreenTemperature: 9.0,
	}, table[0])
	assert.Equal(t, domain.NewDate(2016, time.February, 1), table[1].ObservationDate)
	assert.Zero(t, table[1].ScreenTemperature, "sentinel -99 becomes 0")
	assert.Equal(t, "Orkney & Shetland", table[2].Region)
	assert.InEpsilon(t, 4.5, table[2].ScreenTemperature, 1e-12)
}

func TestReader_Ingest_CountsFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.csv", "ObservationDate,ScreenTemperature,Region", "2016-02-01,1.0,Wales")
	writeFile(t, dir, "b.csv", "ObservationDate,ScreenTemperature,Region", "2016-02-02,2.0,Wales")

	files := prometheus.NewCounter(prometheus.CounterOpts{Name: "files_ingested_total"})
	_, err := NewReader(dir, discardLogger(), WithFilesCounter(files)).Ingest(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 2, testutil.ToFloat64(files), 0)
}

func TestReader_Ingest_SentinelIsSubstringReplace(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.csv", "ObservationDate,ScreenTemperature,Region",
		"2016-02-01,-991.2,Wales",
		"2016-02-01,-9.9,Wales",
	)

	table, err := NewReader(dir, discardLogger()).Ingest(context.Background())
	require.NoError(t, err)
	require.Len(t, table, 2)
	assert.InEpsilon(t, 1.2, table[0].ScreenTemperature, 1e-12)
	assert.InEpsilon(t, -9.9, table[1].ScreenTemperature, 1e-12)
}

func TestReader_Ingest_FileSelection(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.CSV", "Region,ObservationDate,ScreenTemperature", "Wales,2016-02-02,2")
	writeFile(t, dir, "a.csv", "Region,ObservationDate,ScreenTemperature", "Wales,2016-02-01,1")
	writeFile(t, dir, "notes.txt", "not,a,csv")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.csv"), 0o755))
	writeFile(t, filepath.Join(dir, "nested.csv"), "c.csv", "Region,ObservationDate,ScreenTemperature", "Wales,2016-02-03,3")

	table, err := NewReader(dir, discardLogger()).Ingest(context.Background())
	require.NoError(t, err)
	require.Len(t, table, 2)
	assert.Equal(t, domain.NewDate(2016, time.February, 1), table[0].ObservationDate)
	assert.Equal(t, domain.NewDate(2016, time.February, 2), table[1].ObservationDate)
}

func TestReader_Ingest_BlankTemperatureIsNaN(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.csv", "ObservationDate,ScreenTemperature,Region", "2016-02-01,,Wales")

	table, err := NewReader(dir, discardLogger()).Ingest(context.Background())
	require.NoError(t, err)
	require.Len(t, table, 1)
	assert.NotEqual(t, table[0].ScreenTemperature, table[0].ScreenTemperature, "NaN")
}

func TestReader_Ingest_MissingColumn(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.csv", "ObservationDate,Region", "2016-02-01,Wales")

	_, err := NewReader(dir, discardLogger()).Ingest(context.Background())
	require.ErrorIs(t, err, domain.ErrSchema)
	assert.Contains(t, err.Error(), "ScreenTemperature")
}

func TestReader_Ingest_HeaderOnlyFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.csv", "ObservationDate,ScreenTemperature,Region", "2016-02-01,1.5,Wales")
	writeFile(t, dir, "b.csv", "ObservationDate,ScreenTemperature,Region")

	files := prometheus.NewCounter(prometheus.CounterOpts{Name: "files_header_only_test"})
	table, err := NewReader(dir, discardLogger(), WithFilesCounter(files)).Ingest(context.Background())
	require.NoError(t, err)
	require.Len(t, table, 1)
	assert.Equal(t, "Wales", table[0].Region)
	assert.InEpsilon(t, 1.5, table[0].ScreenTemperature, 1e-12)
	assert.InDelta(t, 2, testutil.ToFloat64(files), 0)
}

func TestReader_Ingest_OnlyHeaderOnlyFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.csv", metOfficeHeader)

	table, err := NewReader(dir, discardLogger()).Ingest(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, table)
	assert.Empty(t, table)
}

func TestReader_Ingest_HeaderOnlyFileMissingColumn(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.csv", "ObservationDate,Region")

	_, err := NewReader(dir, discardLogger()).Ingest(context.Background())
	require.ErrorIs(t, err, domain.ErrSchema)
	assert.Contains(t, err.Error(), "ScreenTemperature")
}

func TestReader_Ingest_EmptyFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.csv"), nil, 0o644))

	_, err := NewReader(dir, discardLogger()).Ingest(context.Background())
	require.ErrorIs(t, err, domain.ErrSchema)
}

func TestReader_Ingest_KeepsParsedDates(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.csv", "ObservationDate,ScreenTemperature,Region", "far future,1.0,Wales")

	// Year 10000 has no YYYY-MM-DD text form, so it only survives if the
	// parsed value is carried through unchanged.
	want := domain.NewDate(10000, time.January, 1)
	r := NewReader(dir, discardLogger())
	r.dates.parse = func(string) (domain.Date, error) { return want, nil }

	table, err := r.Ingest(context.Background())
	require.NoError(t, err)
	require.Len(t, table, 1)
	assert.Equal(t, want, table[0].ObservationDate)
}

func TestReader_Ingest_NonNumericTemperature(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.csv", "ObservationDate,ScreenTemperature,Region",
		"2016-02-01,1.0,Wales",
		"2016-02-01,mild,Wales",
	)

	_, err := NewReader(dir, discardLogger()).Ingest(context.Background())
	require.ErrorIs(t, err, domain.ErrParse)
}

func TestReader_Ingest_UnparseableDate(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.csv", "ObservationDate,ScreenTemperature,Region", "someday,1.0,Wales")

	_, err := NewReader(dir, discardLogger()).Ingest(context.Background())
	require.ErrorIs(t, err, domain.ErrParse)
	assert.Contains(t, err.Error(), "row 2")
}

func TestReader_Ingest_NoSourceFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "readme.md", "# nothing here")

	_, err := NewReader(dir, discardLogger()).Ingest(context.Background())
	require.ErrorIs(t, err, ErrNoSourceFiles)
	require.ErrorIs(t, err, domain.ErrIO)
}

func TestReader_Ingest_MissingDirectory(t *testing.T) {
	_, err := NewReader(filepath.Join(t.TempDir(), "absent"), discardLogger()).Ingest(context.Background())
	require.ErrorIs(t, err, domain.ErrIO)
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestReader_Ingest_CancelledContext(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.csv", "ObservationDate,ScreenTemperature,Region", "2016-02-01,1.0,Wales")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewReader(dir, discardLogger()).Ingest(ctx)
	require.ErrorIs(t, err, context.Canceled)
}
