package domain

import (
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Column names shared by the CSV source and the Parquet store.
const (
	ColObservationDate   = "ObservationDate"
	ColScreenTemperature = "ScreenTemperature"
	ColRegion            = "Region"
)

// RequiredColumns lists the columns every source file and store file must carry.
var RequiredColumns = []string{ColObservationDate, ColScreenTemperature, ColRegion}

// MissingTemperatureSentinel is the raw reading the Met Office feed uses for
// an unavailable screen temperature.
const MissingTemperatureSentinel = "-99"

// Observation is one weather reading.
type Observation struct {
	ObservationDate   Date    `json:"ObservationDate"`
	Region            string  `json:"Region"`
	ScreenTemperature float64 `json:"ScreenTemperature"`
}

// Table is an ordered set of observations. Row order is significant and
// survives persistence.
type Table []Observation

// Len returns the number of rows.
func (t Table) Len() int { return len(t) }

// Fingerprint hashes every row value in order. Two tables with the same
// fingerprint hold the same rows in the same order (NaN readings compare by
// their bit pattern).
func (t Table) Fingerprint() uint64 {
	d := xxhash.New()
	var buf [12]byte
	for _, o := range t {
		binary.LittleEndian.PutUint32(buf[:4], uint32(o.ObservationDate))
		binary.LittleEndian.PutUint64(buf[4:], math.Float64bits(o.ScreenTemperature))
		_, _ = d.Write(buf[:])
		_, _ = d.WriteString(o.Region)
		_, _ = d.Write([]byte{0})
	}
	return d.Sum64()
}

// FingerprintHex formats Fingerprint as 16 hex digits.
func (t Table) FingerprintHex() string {
	return fmt.Sprintf("%016x", t.Fingerprint())
}

// NormalizeTemperature applies the sentinel substitution to raw temperature
// text. The replacement is a literal substring replace, so "-991.2" becomes
// "01.2" as well as "-99" becoming "0".
//
// TODO: switch to an exact match once downstream consumers confirm no report
// depends on the substring behaviour.
func NormalizeTemperature(raw string) string {
	return strings.ReplaceAll(raw, MissingTemperatureSentinel, "0")
}

// ParseTemperature converts normalized temperature text to a float64. Blank
// text is a missing reading and yields NaN.
func ParseTemperature(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return math.NaN(), nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: screen temperature %q: %w", ErrParse, s, err)
	}
	return v, nil
}
