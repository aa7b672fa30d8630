package domain

import (
	"context"
	"math"
)

// Location is a resolved zip code.
type Location struct {
	Latitude    float64
	Longitude   float64
	DisplayName string
}

// Valid reports whether both coordinates are finite numbers.
func (l Location) Valid() bool {
	return isFinite(l.Latitude) && isFinite(l.Longitude)
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// LocationResolver maps a US zip code to a Location.
type LocationResolver interface {
	// Resolve returns an error wrapping ErrLookup when the zip code has no match.
	Resolve(ctx context.Context, zipCode string) (Location, error)
}
