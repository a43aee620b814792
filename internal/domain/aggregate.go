package domain

import (
	"cmp"
	"fmt"
	"math"
	"slices"
)

// DateMean is the mean screen temperature of all rows sharing a date.
type DateMean struct {
	Date  Date
	Mean  float64
	Count int
}

// DateRegionMean is the mean screen temperature of all rows sharing a date
// and a region.
type DateRegionMean struct {
	Date   Date
	Region string
	Mean   float64
	Count  int
}

type dateRegionKey struct {
	date   Date
	region string
}

// accumulator sums non-NaN readings. Count includes NaN rows so group sizes
// stay visible, while Mean only reflects measured values.
type accumulator struct {
	sum      float64
	measured int
	count    int
}

func (a *accumulator) add(v float64) {
	a.count++
	if math.IsNaN(v) {
		return
	}
	a.sum += v
	a.measured++
}

func (a accumulator) mean() float64 {
	if a.measured == 0 {
		return math.NaN()
	}
	return a.sum / float64(a.measured)
}

// MeanByDate groups rows by ObservationDate and returns the groups in
// ascending date order.
func MeanByDate(t Table) []DateMean {
	groups := make(map[Date]*accumulator)
	for _, o := range t {
		acc, ok := groups[o.ObservationDate]
		if !ok {
			acc = &accumulator{}
			groups[o.ObservationDate] = acc
		}
		acc.add(o.ScreenTemperature)
	}

	out := make([]DateMean, 0, len(groups))
	for d, acc := range groups {
		out = append(out, DateMean{Date: d, Mean: acc.mean(), Count: acc.count})
	}
	slices.SortFunc(out, func(a, b DateMean) int { return cmp.Compare(a.Date, b.Date) })
	return out
}

// MeanByDateRegion groups rows by (ObservationDate, Region) and returns the
// groups ordered by date, then region.
func MeanByDateRegion(t Table) []DateRegionMean {
	groups := make(map[dateRegionKey]*accumulator)
	for _, o := range t {
		k := dateRegionKey{date: o.ObservationDate, region: o.Region}
		acc, ok := groups[k]
		if !ok {
			acc = &accumulator{}
			groups[k] = acc
		}
		acc.add(o.ScreenTemperature)
	}

	out := make([]DateRegionMean, 0, len(groups))
	for k, acc := range groups {
		out = append(out, DateRegionMean{Date: k.date, Region: k.region, Mean: acc.mean(), Count: acc.count})
	}
	slices.SortFunc(out, func(a, b DateRegionMean) int {
		if c := cmp.Compare(a.Date, b.Date); c != 0 {
			return c
		}
		return cmp.Compare(a.Region, b.Region)
	})
	return out
}

// argmax returns the index of the first maximal non-NaN value, or -1.
func argmax(n int, value func(int) float64) int {
	best := -1
	for i := 0; i < n; i++ {
		v := value(i)
		if math.IsNaN(v) {
			continue
		}
		if best < 0 || v > value(best) {
			best = i
		}
	}
	return best
}

func hottestDay(t Table) (DateMean, error) {
	if len(t) == 0 {
		return DateMean{}, fmt.Errorf("hottest day: %w", ErrEmptyDataset)
	}
	means := MeanByDate(t)
	i := argmax(len(means), func(i int) float64 { return means[i].Mean })
	if i < 0 {
		return DateMean{}, fmt.Errorf("hottest day: no measured temperatures: %w", ErrEmptyDataset)
	}
	return means[i], nil
}

// HottestDayDate returns the date whose mean screen temperature is highest.
// Ties resolve to the earliest date.
func HottestDayDate(t Table) (Date, error) {
	g, err := hottestDay(t)
	if err != nil {
		return 0, err
	}
	return g.Date, nil
}

// HottestDayAverageTemperature returns the highest per-date mean screen
// temperature.
func HottestDayAverageTemperature(t Table) (float64, error) {
	g, err := hottestDay(t)
	if err != nil {
		return 0, err
	}
	return g.Mean, nil
}

// HottestDayByRegion returns the (date, region) pair whose mean screen
// temperature is highest. Ties resolve to the earliest date, then the
// lexically smallest region.
func HottestDayByRegion(t Table) (Date, string, error) {
	if len(t) == 0 {
		return 0, "", fmt.Errorf("hottest day by region: %w", ErrEmptyDataset)
	}
	means := MeanByDateRegion(t)
	i := argmax(len(means), func(i int) float64 { return means[i].Mean })
	if i < 0 {
		return 0, "", fmt.Errorf("hottest day by region: no measured temperatures: %w", ErrEmptyDataset)
	}
	return means[i].Date, means[i].Region, nil
}
