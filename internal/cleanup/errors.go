package cleanup

import "errors"

// Contract violations. Callers can tell them apart with errors.Is.
var (
	// ErrUnknownMode is returned for an unrecognised mode, method or preset name.
	ErrUnknownMode = errors.New("unknown mode")

	// ErrMissingOption is returned when a mode's required option is absent.
	ErrMissingOption = errors.New("missing required option")

	// ErrInvalidOption is returned for out-of-range option values.
	ErrInvalidOption = errors.New("invalid option")
)
