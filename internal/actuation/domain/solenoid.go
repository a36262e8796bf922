package domain

import (
	"turret-server/internal/infra/utils"
)

// SolenoidStatus is the daemon status cache: a best-effort snapshot updated
// from ready messages, command responses, and daemon exit events. It is read
// without going through the command path.
type SolenoidStatus struct {
	Ready     bool           `json:"ready"`
	ActiveLow bool           `json:"active_low"`
	Pins      map[string]int `json:"pins,omitempty"`
	Levels    map[string]int `json:"levels,omitempty"`
	LastError string         `json:"last_error,omitempty"`
	UpdatedAt utils.Time     `json:"updated_at"`
}

// SolenoidAction requests a solenoid output change. Exactly one of On or
// PulseMs is meaningful: a non-nil On maps to a set command, a non-nil
// PulseMs to a pulse command, and neither means "pulse for the per-action
// default duration".
type SolenoidAction struct {
	On      *bool `json:"on,omitempty"`
	PulseMs *int  `json:"pulse_ms,omitempty"`
}
