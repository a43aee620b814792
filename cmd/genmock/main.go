// Command genmock generates Met Office style hourly observation CSV files
// for local runs of the ETL. Each file covers the given number of days from
// its start date for a fixed set of sites, carries the full set of feed
// columns, and marks some unavailable readings with the -99 sentinel.
//
// Usage:
//
//	go run ./cmd/genmock \
//	  -out-dir data/csv \
//	  -start 2016-02-01,2016-03-01 \
//	  -days 28
package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/weather-data-etl/internal/domain"
	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

var header = []string{
	"ForecastSiteCode", "ObservationTime", "ObservationDate", "WindDirection", "WindSpeed",
	"WindGust", "Visibility", "ScreenTemperature", "Pressure", "SignificantWeatherCode",
	"SiteName", "Latitude", "Longitude", "Region", "Country",
}

type site struct {
	code     int
	name     string
	lat, lon float64
	region   string
	country  string
	baseTemp float64 // mean winter screen temperature in °C
}

var sites = []site{
	{3002, "BALTASOUND", 60.749, -0.854, "Orkney & Shetland", "SCOTLAND", 4.5},
	{3066, "KINLOSS", 57.649, -3.567, "Grampian", "SCOTLAND", 4.8},
	{3162, "ESKDALEMUIR", 55.311, -3.206, "Dumfries, Galloway", "SCOTLAND", 3.2},
	{3302, "LINDISFARNE", 55.679, -1.806, "Yorkshire & Humber", "ENGLAND", 5.9},
	{3344, "BINGLEY", 53.811, -1.865, "Yorkshire & Humber", "ENGLAND", 5.1},
	{3140, "SENNYBRIDGE", 52.063, -3.613, "Wales", "WALES", 5.4},
	{3772, "HEATHROW", 51.479, -0.451, "London & South East England", "ENGLAND", 7.3},
	{3917, "BALLYPATRICK FOREST", 55.181, -6.153, "Northern Ireland", "NORTHERN IRELAND", 5.0},
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	outDir := flag.String("out-dir", "", "directory to write CSV files into")
	starts := flag.String("start", "2016-02-01,2016-03-01", "comma-separated start dates, one file each")
	days := flag.Int("days", 28, "days of hourly observations per file")
	missingRate := flag.Float64("missing-rate", 0.02, "fraction of temperatures written as -99")
	seed := flag.Uint64("seed", 42, "random seed")
	flag.Parse()

	if *outDir == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -out-dir")
	}
	if *days <= 0 {
		return fmt.Errorf("-days must be positive")
	}
	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		return err
	}

	rng := rand.New(rand.NewPCG(*seed, *seed^0x9e3779b97f4a7c15))

	var all domain.Table
	for _, s := range strings.Split(*starts, ",") {
		start, err := time.Parse(time.DateOnly, strings.TrimSpace(s))
		if err != nil {
			return fmt.Errorf("parse start date %q: %w", s, err)
		}

		records := generate(rng, start, *days, *missingRate)
		path := filepath.Join(*outDir, "weather."+start.Format("20060102")+".csv")
		if err := writeCSV(path, records); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
		log.Printf("wrote %s: %d rows", path, len(records)-1)

		table, err := toTable(records)
		if err != nil {
			return err
		}
		all = append(all, table...)
	}

	return printStats(all)
}

// generate returns the header plus one row per site and hour.
func generate(rng *rand.Rand, start time.Time, days int, missingRate float64) [][]string {
	records := [][]string{header}
	for d := 0; d < days; d++ {
		day := start.AddDate(0, 0, d)
		// Whole-country warm or cold spell for the day.
		spell := rng.NormFloat64() * 2
		for h := 0; h < 24; h++ {
			ts := day.Add(time.Duration(h) * time.Hour)
			diurnal := 2.5 * math.Sin(float64(h-9)/24*2*math.Pi)
			for _, s := range sites {
				temp := "-99"
				if rng.Float64() >= missingRate {
					v := s.baseTemp + spell + diurnal + rng.NormFloat64()*0.8
					temp = strconv.FormatFloat(math.Round(v*10)/10, 'f', 1, 64)
				}
				gust := ""
				if rng.IntN(4) == 0 {
					gust = strconv.Itoa(20 + rng.IntN(30))
				}
				records = append(records, []string{
					strconv.Itoa(s.code),
					strconv.Itoa(h),
					ts.Format("2006-01-02T15:04:05"),
					strconv.Itoa(1 + rng.IntN(16)),
					strconv.Itoa(rng.IntN(25)),
					gust,
					strconv.Itoa(1000 + rng.IntN(40000)),
					temp,
					strconv.Itoa(990 + rng.IntN(40)),
					strconv.Itoa(rng.IntN(16)),
					fmt.Sprintf("%s (%d)", s.name, s.code),
					strconv.FormatFloat(s.lat, 'f', 4, 64),
					strconv.FormatFloat(s.lon, 'f', 4, 64),
					s.region,
					s.country,
				})
			}
		}
	}
	return records
}

func writeCSV(path string, records [][]string) error {
	df := dataframe.LoadRecords(records,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
		dataframe.NaNValues(nil),
	)
	if df.Err != nil {
		return df.Err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := df.WriteCSV(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// toTable runs the generated rows through the same normalization as ingest.
func toTable(records [][]string) (domain.Table, error) {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[h] = i
	}

	table := make(domain.Table, 0, len(records)-1)
	for _, row := range records[1:] {
		date, err := domain.ParseDate(row[idx[domain.ColObservationDate]])
		if err != nil {
			return nil, err
		}
		temp, err := domain.ParseTemperature(domain.NormalizeTemperature(row[idx[domain.ColScreenTemperature]]))
		if err != nil {
			return nil, err
		}
		table = append(table, domain.Observation{
			ObservationDate:   date,
			Region:            row[idx[domain.ColRegion]],
			ScreenTemperature: temp,
		})
	}
	return table, nil
}

func printStats(t domain.Table) error {
	report, err := domain.BuildReport(t)
	if err != nil {
		return err
	}

	sentinels := 0
	for _, o := range t {
		if o.ScreenTemperature == 0 {
			sentinels++
		}
	}

	fmt.Println("\n=== Stats for updating test assertions ===")
	fmt.Printf("Total rows: %d\n", t.Len())
	fmt.Printf("Zero temperatures (mostly -99 sentinels): %d\n", sentinels)
	fmt.Printf("Fingerprint: %s\n\n", t.FingerprintHex())
	return domain.WriteReportTable(os.Stdout, report)
}
