package tic

import (
	"regexp"
	"strconv"

	"turret-server/internal/infra/utils"
)

// The controller CLI prints free-form diagnostic text. Four fields are
// scraped out of it; a pattern that does not match yields an absent field,
// never an error.
var (
	currentPositionPattern = regexp.MustCompile(`Current position:\s*(-?\d+)`)
	energizedPattern       = regexp.MustCompile(`Energized:\s*(Yes|No)`)
	safeStartPattern       = regexp.MustCompile(`Safe start violation:\s*(Yes|No)`)
	errorsStoppingPattern  = regexp.MustCompile(`Errors currently stopping the motor:\s*(Yes|No)`)
)

// StatusFields holds the optional fields extracted from a status read.
type StatusFields struct {
	CurrentPosition *int
	Energized       *bool
	SafeStartActive *bool
	ErrorsStopping  *bool
}

// ParseStatus extracts the known diagnostic fields from raw status output.
// It is a pure function with no side effects.
func ParseStatus(text string) StatusFields {
	fields := StatusFields{}

	if m := currentPositionPattern.FindStringSubmatch(text); m != nil {
		if value, err := strconv.Atoi(m[1]); err == nil {
			fields.CurrentPosition = utils.IntPtr(value)
		}
	}
	if m := energizedPattern.FindStringSubmatch(text); m != nil {
		fields.Energized = utils.BoolPtr(m[1] == "Yes")
	}
	if m := safeStartPattern.FindStringSubmatch(text); m != nil {
		fields.SafeStartActive = utils.BoolPtr(m[1] == "Yes")
	}
	if m := errorsStoppingPattern.FindStringSubmatch(text); m != nil {
		fields.ErrorsStopping = utils.BoolPtr(m[1] == "Yes")
	}

	return fields
}
