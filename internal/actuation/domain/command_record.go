package domain

import (
	"turret-server/internal/infra/utils"
)

// CommandRecord is one audit-log entry for a command issued to a physical
// actuator. Recording is best effort and never fails the command itself.
type CommandRecord struct {
	ID       string     `json:"id"`
	Resource string     `json:"resource"`
	Command  string     `json:"command"`
	Args     string     `json:"args,omitempty"`
	OK       bool       `json:"ok"`
	Error    string     `json:"error,omitempty"`
	Duration int64      `json:"duration_ms"`
	IssuedAt utils.Time `json:"issued_at"`
}
