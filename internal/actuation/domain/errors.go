package domain

import "errors"

// Configuration-class errors: surfaced immediately, never retried, and never
// preceded by a subprocess command.
var (
	ErrAxisUnknown          = errors.New("axis not configured")
	ErrAxisNoDevice         = errors.New("axis has no device handle configured")
	ErrAxisNotEnabled       = errors.New("axis is not enabled")
	ErrEnergizeNotPermitted = errors.New("energize not permitted by configuration")
)

// IsConfigurationError reports whether err belongs to the configuration
// error class.
func IsConfigurationError(err error) bool {
	return errors.Is(err, ErrAxisUnknown) ||
		errors.Is(err, ErrAxisNoDevice) ||
		errors.Is(err, ErrAxisNotEnabled) ||
		errors.Is(err, ErrEnergizeNotPermitted)
}
