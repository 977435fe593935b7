package models

import "errors"

// Acquisition failure kinds. Strategies wrap these with %w; the acquisition
// chain recovers from all of them by moving on to the next strategy.
var (
	ErrSourceUnavailable = errors.New("source unavailable")
	ErrInsufficientData  = errors.New("insufficient data")
	ErrMalformedRow      = errors.New("malformed row")
)
