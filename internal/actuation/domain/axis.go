package domain

import (
	"turret-server/internal/infra/utils"
)

// Axis is a single controllable rotational degree of freedom driven by a
// stepper motor behind the external controller CLI.
type Axis struct {
	ID           string  `json:"id"`
	Device       string  `json:"device"`
	StepsPerUnit float64 `json:"steps_per_unit"`
}

// Configured reports whether the axis carries the device handle required to
// reach its controller. An unconfigured axis is usable-but-erroring: it shows
// up in listings and every operation on it fails with a configuration error.
func (a Axis) Configured() bool {
	return a.Device != ""
}

// StatusSnapshot is the point-in-time result of the most recent status read
// for one axis. Each successful read supersedes the previous snapshot; a
// failed read produces a snapshot with OK=false and the error message.
// Diagnostic fields are pointers because their patterns may simply be absent
// from the controller's output.
type StatusSnapshot struct {
	Axis            string     `json:"axis"`
	Device          string     `json:"device"`
	OK              bool       `json:"ok"`
	At              utils.Time `json:"at"`
	CurrentPosition *int       `json:"current_position,omitempty"`
	Energized       *bool      `json:"energized,omitempty"`
	SafeStartActive *bool      `json:"safe_start_active,omitempty"`
	ErrorsStopping  *bool      `json:"errors_stopping,omitempty"`
	Enabled         bool       `json:"enabled"`
	Target          *int       `json:"target,omitempty"`
	Raw             string     `json:"raw,omitempty"`
	Error           string     `json:"error,omitempty"`
}

// JogRequest moves an axis by a discrete position increment. Dir is reduced
// to its sign; Speed01 is clamped to [0,1].
type JogRequest struct {
	Axis    string  `json:"axis"`
	Dir     int     `json:"dir"`
	Speed01 float64 `json:"speed01"`
}

// JogResult reports the new absolute target and the step magnitude applied.
type JogResult struct {
	Axis   string `json:"axis"`
	Target int    `json:"target"`
	Step   int    `json:"step"`
}

// StopResult is one axis's outcome within a StopAll sweep.
type StopResult struct {
	Axis  string `json:"axis"`
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}
