package usecases

import (
	"context"

	"turret-server/internal/actuation/domain"
)

// AxisService exposes every stepper operation consumed by the HTTP layer and
// the background workers. All operations are asynchronous at the hardware
// level: they block only on the per-axis command queue and the subprocess.
type AxisService interface {
	StatusAxis(ctx context.Context, axis string) (domain.StatusSnapshot, error)
	StatusAll(ctx context.Context) map[string]domain.StatusSnapshot
	Snapshots() map[string]domain.StatusSnapshot
	Enable(ctx context.Context, axis string) error
	Disable(ctx context.Context, axis string) error
	Jog(ctx context.Context, req domain.JogRequest) (domain.JogResult, error)
	Stop(ctx context.Context, axis string) error
	StopAll(ctx context.Context) map[string]domain.StopResult
	SetZero(ctx context.Context, axis string) error
}

// StepperDriver is the per-invocation boundary to the external controller
// CLI. One call, one subprocess.
type StepperDriver interface {
	ReadStatus(ctx context.Context, device string) (string, error)
	MoveTo(ctx context.Context, device string, position int) error
	Energize(ctx context.Context, device string) error
	Deenergize(ctx context.Context, device string) error
	ExitSafeStart(ctx context.Context, device string) error
	HaltAndHold(ctx context.Context, device string) error
	HaltAndZero(ctx context.Context, device string) error
}

// SolenoidService is the high-level surface of the solenoid daemon client.
// Status is served from the cache and never triggers a daemon round trip.
type SolenoidService interface {
	Start(ctx context.Context) error
	Status() domain.SolenoidStatus
	AllOff(ctx context.Context) (domain.SolenoidStatus, error)
	Shoot(ctx context.Context, action domain.SolenoidAction) (domain.SolenoidStatus, error)
	Release(ctx context.Context, action domain.SolenoidAction) (domain.SolenoidStatus, error)
	Probe(ctx context.Context) (domain.SolenoidStatus, error)
	Shutdown()
}

// CommandRecorder appends actuator commands to the audit log. A recording
// failure is logged and swallowed, never propagated into the command path.
type CommandRecorder interface {
	Record(ctx context.Context, record domain.CommandRecord) error
	FindPage(ctx context.Context, limit, offset int) ([]domain.CommandRecord, int, error)
}
