package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound means the place text could not be resolved. User-correctable.
	ErrNotFound = errors.New("location not found")
	// ErrTransient covers network, timeout, HTTP status and decode failures.
	ErrTransient = errors.New("transient provider failure")
	// ErrAllSourcesFailed means both primary and fallback were exhausted.
	ErrAllSourcesFailed = errors.New("all sources failed")
	// ErrUnavailable means a category without fallback failed.
	ErrUnavailable = errors.New("data unavailable")
	// ErrSuperseded means a newer query in the same session replaced this one.
	ErrSuperseded = errors.New("query superseded")
)

// LocationNotFoundError carries the text that failed to resolve so the
// message can suggest a correction.
type LocationNotFoundError struct {
	Query string
}

func (e *LocationNotFoundError) Error() string {
	return fmt.Sprintf("could not find location %q: try adding a region or country (e.g. \"London, UK\" or \"Tokyo, Japan\")", e.Query)
}

func (e *LocationNotFoundError) Unwrap() error { return ErrNotFound }

// Transient wraps err as ErrTransient with the provider name for context.
func Transient(provider string, err error) error {
	return fmt.Errorf("%s: %w: %w", provider, ErrTransient, err)
}
