package domain

import "errors"

// Precondition errors surfaced to the caller. Everything else in the
// planning pipeline is absorbed into no-match results or overflow entries.
var (
	ErrHomeNotSet     = errors.New("home location not set")
	ErrWindowInverted = errors.New("return time must be after leave time")
	ErrBadClock       = errors.New("invalid time string")
)
