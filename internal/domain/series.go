package domain

import "context"

// Default archive window used when a dataset is created without an explicit range.
const (
	DefaultStartDate = "1950-08-13"
	DefaultEndDate   = "2023-08-25"

	// DateLayout is the archive's date format.
	DateLayout = "2006-01-02"
)

// DateRange is an inclusive pair of YYYY-MM-DD dates.
type DateRange struct {
	Start string
	End   string
}

// DefaultRange returns the default archive window.
func DefaultRange() DateRange {
	return DateRange{Start: DefaultStartDate, End: DefaultEndDate}
}

// TemperaturePoint is one day's maximum temperature.
type TemperaturePoint struct {
	Date           string
	MaxTempCelsius float64
}

// SeriesLoader fetches the daily maximum temperature series for a location.
type SeriesLoader interface {
	// LoadSeries returns points in the archive's order (ascending by date).
	// Errors wrap ErrDataFormat or ErrTransport.
	LoadSeries(ctx context.Context, loc Location, r DateRange) ([]TemperaturePoint, error)
}

// IsChronological reports whether the points are in ascending date order.
// YYYY-MM-DD strings sort lexically in date order.
func IsChronological(points []TemperaturePoint) bool {
	for i := 1; i < len(points); i++ {
		if points[i].Date < points[i-1].Date {
			return false
		}
	}
	return true
}
