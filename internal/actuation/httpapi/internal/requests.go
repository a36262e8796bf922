package internal

import (
	"turret-server/internal/actuation/domain"
)

type JogRequest struct {
	Dir     int     `json:"dir"`
	Speed01 float64 `json:"speed01"`
}

func (r JogRequest) ToDomain(axis string) domain.JogRequest {
	return domain.JogRequest{
		Axis:    axis,
		Dir:     r.Dir,
		Speed01: r.Speed01,
	}
}

// SolenoidActionRequest carries the optional overrides for a solenoid
// command. An empty body means "pulse with the configured default".
type SolenoidActionRequest struct {
	On *bool `json:"on,omitempty"`
	Ms *int  `json:"ms,omitempty"`
}

func (r SolenoidActionRequest) ToDomain() domain.SolenoidAction {
	return domain.SolenoidAction{
		On:      r.On,
		PulseMs: r.Ms,
	}
}
