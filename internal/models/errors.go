package models

import "errors"

// Fatal caller-contract violations. These propagate; everything else in the
// pipeline is recovered locally and surfaced only as provenance.
var (
	ErrInvalidRegion       = errors.New("invalid region descriptor")
	ErrInvalidWindow       = errors.New("invalid observation window")
	ErrUnsupportedLanguage = errors.New("unsupported language code")
	ErrInvalidThreshold    = errors.New("threshold out of range")
)

// Recoverable conditions. Never returned to callers; used internally to pick
// the fallback path and flagged on results as provenance.
var (
	ErrProviderUnavailable = errors.New("observation provider unavailable")
	ErrInsufficientHistory = errors.New("insufficient historical data")
	ErrModelUnavailable    = errors.New("trained model unavailable")
	ErrAdvisoryLookupMiss  = errors.New("no advisory for combination")
)
