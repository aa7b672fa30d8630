package domain

import "errors"

var (
	// ErrLookup marks a zip code that could not be resolved, or a date range
	// change whose reload failed.
	ErrLookup = errors.New("lookup failure")

	// ErrDataFormat marks an archive response that could not be parsed or was
	// missing required fields.
	ErrDataFormat = errors.New("data format failure")

	// ErrTransport marks a network or upstream HTTP failure.
	ErrTransport = errors.New("transport failure")

	// ErrEmptySeries is returned by aggregate queries over a dataset with no points.
	ErrEmptySeries = errors.New("temperature series is empty")

	// ErrMissingDataset is returned when a comparison is asked for before both
	// datasets are loaded.
	ErrMissingDataset = errors.New("dataset not loaded")
)
