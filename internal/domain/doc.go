// Package domain models historical daily maximum temperatures for US zip codes.
//
// # Data Source
//
// Temperatures come from the Open-Meteo historical weather archive
// (https://open-meteo.com/en/docs/historical-weather-api). The archive is
// queried for the single daily metric "temperature_2m_max" (air temperature
// two meters above ground, degrees Celsius) with a fixed timezone so day
// boundaries line up across locations. Responses carry two parallel arrays,
// "time" and "temperature_2m_max", in ascending date order.
//
// # Locations
//
// A zip code is resolved to a [Location] by a [LocationResolver]. Only the US
// postal system is searched. A zip code with no match, or a match without
// finite coordinates, is a lookup failure; a partially filled Location is never
// produced. The display name is whatever the provider returns and may be empty.
//
// # Datasets
//
// A [Dataset] binds a zip code, its Location, a [DateRange] and the series
// loaded for that range. The series is cached in memory and every query
// (average, threshold filter, top-N) runs against the cache. Changing either end
// of the range reloads the series; the change is staged and only committed when
// the reload succeeds, so a rejected change leaves both the range and the
// cached series as they were.
//
// Dates are kept as the archive's "YYYY-MM-DD" strings. They are not validated
// locally; the archive rejects malformed or inverted ranges.
//
// # Errors
//
// Failures are classified by wrapping one of the sentinel errors:
//
//	ErrLookup      zip code unresolvable, or a date change whose reload failed
//	ErrDataFormat  archive response unparseable, incomplete or rejected
//	ErrTransport   network failure, 5xx, or open circuit breaker
//
// Callers classify with errors.Is.
package domain
