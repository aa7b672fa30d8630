package domain

import (
	"cmp"
	"math"
	"slices"
)

// DefaultTopDays is the number of days TopDays returns for a non-positive n.
const DefaultTopDays = 10

// AverageTemperature returns the mean daily maximum over the cached series.
func (d *Dataset) AverageTemperature() (float64, error) {
	return Average(d.series)
}

// ExtremeDays returns the points strictly above threshold, in series order.
func (d *Dataset) ExtremeDays(threshold float64) []TemperaturePoint {
	return Above(d.series, threshold)
}

// TopDays returns the n hottest days, hottest first. Equal temperatures keep
// their series order.
func (d *Dataset) TopDays(n int) []TemperaturePoint {
	return Top(d.series, n)
}

// Average returns the arithmetic mean of the points' temperatures.
func Average(points []TemperaturePoint) (float64, error) {
	if len(points) == 0 {
		return 0, ErrEmptySeries
	}
	var sum float64
	for _, p := range points {
		sum += p.MaxTempCelsius
	}
	return sum / float64(len(points)), nil
}

// Above returns the points with a temperature strictly greater than threshold.
func Above(points []TemperaturePoint, threshold float64) []TemperaturePoint {
	out := make([]TemperaturePoint, 0)
	for _, p := range points {
		if p.MaxTempCelsius > threshold {
			out = append(out, p)
		}
	}
	return out
}

// Top returns the n points with the highest temperature in descending order.
func Top(points []TemperaturePoint, n int) []TemperaturePoint {
	if n <= 0 {
		n = DefaultTopDays
	}
	sorted := slices.Clone(points)
	slices.SortStableFunc(sorted, func(a, b TemperaturePoint) int {
		return cmp.Compare(b.MaxTempCelsius, a.MaxTempCelsius)
	})
	if n < len(sorted) {
		sorted = sorted[:n]
	}
	return sorted
}

// RoundTo2 rounds to two decimal places, half away from zero.
func RoundTo2(f float64) float64 {
	return math.Round(f*100) / 100
}

// AverageSummary is one side of a comparison.
type AverageSummary struct {
	DisplayName string
	Average     float64 // rounded to 2 decimals
}

// Comparison holds the rounded averages of two datasets.
type Comparison struct {
	First  AverageSummary
	Second AverageSummary
}

// CompareAverages averages both datasets. Either being nil returns
// ErrMissingDataset without computing anything.
func CompareAverages(first, second *Dataset) (Comparison, error) {
	if first == nil || second == nil {
		return Comparison{}, ErrMissingDataset
	}
	a, err := first.AverageTemperature()
	if err != nil {
		return Comparison{}, err
	}
	b, err := second.AverageTemperature()
	if err != nil {
		return Comparison{}, err
	}
	return Comparison{
		First:  AverageSummary{DisplayName: first.DisplayName(), Average: RoundTo2(a)},
		Second: AverageSummary{DisplayName: second.DisplayName(), Average: RoundTo2(b)},
	}, nil
}
