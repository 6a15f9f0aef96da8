package presence

import "errors"

var (
	// ErrInvalidBody is returned when an event payload is not a JSON object.
	ErrInvalidBody = errors.New("invalid_body")

	// ErrInvalidClientID is returned when an event carries no usable client identifier.
	ErrInvalidClientID = errors.New("invalid_clientId")

	// Sweeper lifecycle errors
	ErrAlreadyStarted = errors.New("presence store sweeper already started")
	ErrNotStarted     = errors.New("presence store sweeper not started")
	ErrSweepDisabled  = errors.New("sweep interval must be > 0")
	ErrStopTimeout    = errors.New("presence store shutdown timeout exceeded")
)
