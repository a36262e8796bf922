package usecases

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"turret-server/internal/actuation/domain"
	"turret-server/internal/actuation/tic"
	"turret-server/internal/infra/async"
	"turret-server/internal/infra/utils"
)

func NewAxisService(
	axes []domain.Axis,
	driver StepperDriver,
	queue *async.SerialQueue,
	recorder CommandRecorder,
	energizePermitted bool,
) *SimpleAxisService {
	states := make(map[string]*axisState, len(axes))
	for _, axis := range axes {
		state := &axisState{axis: axis}
		state.snapshot.Store(domain.StatusSnapshot{
			Axis:   axis.ID,
			Device: axis.Device,
		})
		states[axis.ID] = state
	}
	return &SimpleAxisService{
		axes:              states,
		driver:            driver,
		queue:             queue,
		recorder:          recorder,
		energizePermitted: energizePermitted,
	}
}

var _ AxisService = (*SimpleAxisService)(nil)

// SimpleAxisService owns all per-axis state. Target position and the enabled
// flag are mutated only from inside a queued task for that axis; outside
// readers see the state through the atomically replaced snapshot.
type SimpleAxisService struct {
	axes              map[string]*axisState
	driver            StepperDriver
	queue             *async.SerialQueue
	recorder          CommandRecorder
	energizePermitted bool
}

type axisState struct {
	axis         domain.Axis
	enabled      bool
	target       int
	targetSeeded bool
	snapshot     atomic.Value // domain.StatusSnapshot
}

func (s *SimpleAxisService) resolve(axis string) (*axisState, error) {
	state, ok := s.axes[axis]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrAxisUnknown, axis)
	}
	if !state.axis.Configured() {
		return nil, fmt.Errorf("%w: %s", domain.ErrAxisNoDevice, axis)
	}
	return state, nil
}

func (s *SimpleAxisService) submit(ctx context.Context, axis string, task async.Task) (any, error) {
	return s.queue.Submit(ctx, "axis:"+axis, task)
}

func (s *SimpleAxisService) record(ctx context.Context, axis, command, args string, start time.Time, err error) {
	if s.recorder == nil {
		return
	}
	rec := domain.CommandRecord{
		ID:       utils.GenerateUUID(),
		Resource: "axis:" + axis,
		Command:  command,
		Args:     args,
		OK:       err == nil,
		Duration: time.Since(start).Milliseconds(),
		IssuedAt: utils.Time{Time: start},
	}
	if err != nil {
		rec.Error = err.Error()
	}
	if recordErr := s.recorder.Record(ctx, rec); recordErr != nil {
		slog.Warn("recording command failed",
			slog.String("axis", axis),
			slog.String("command", command),
			slog.Any("error", recordErr),
		)
	}
}

// StatusAxis performs a status read through the axis's command queue and
// returns the fresh snapshot. On subprocess failure the snapshot carries the
// diagnostic text and the error is also returned.
func (s *SimpleAxisService) StatusAxis(ctx context.Context, axis string) (domain.StatusSnapshot, error) {
	state, err := s.resolve(axis)
	if err != nil {
		return domain.StatusSnapshot{}, err
	}

	result, err := s.submit(ctx, axis, func(ctx context.Context) (any, error) {
		return s.readStatus(ctx, state)
	})
	if err != nil {
		return state.snapshot.Load().(domain.StatusSnapshot), err
	}
	return result.(domain.StatusSnapshot), nil
}

// readStatus runs inside a queued task for the axis.
func (s *SimpleAxisService) readStatus(ctx context.Context, state *axisState) (domain.StatusSnapshot, error) {
	snapshot := domain.StatusSnapshot{
		Axis:    state.axis.ID,
		Device:  state.axis.Device,
		At:      utils.Time{Time: time.Now()},
		Enabled: state.enabled,
	}
	if state.targetSeeded {
		snapshot.Target = utils.IntPtr(state.target)
	}

	raw, err := s.driver.ReadStatus(ctx, state.axis.Device)
	if err != nil {
		snapshot.Error = err.Error()
		state.snapshot.Store(snapshot)
		return snapshot, fmt.Errorf("axis %s: %w", state.axis.ID, err)
	}

	fields := tic.ParseStatus(raw)
	snapshot.OK = true
	snapshot.Raw = raw
	snapshot.CurrentPosition = fields.CurrentPosition
	snapshot.Energized = fields.Energized
	snapshot.SafeStartActive = fields.SafeStartActive
	snapshot.ErrorsStopping = fields.ErrorsStopping
	state.snapshot.Store(snapshot)
	return snapshot, nil
}

// ensureTarget lazily seeds the logical target from the reported current
// position, so the first jog after startup is relative to where the hardware
// actually is, not an assumed zero.
func (s *SimpleAxisService) ensureTarget(ctx context.Context, state *axisState) (int, error) {
	if state.targetSeeded {
		return state.target, nil
	}

	snapshot, err := s.readStatus(ctx, state)
	if err != nil {
		return 0, err
	}

	position := 0
	if snapshot.CurrentPosition != nil {
		position = *snapshot.CurrentPosition
	}
	state.target = position
	state.targetSeeded = true
	s.refreshSnapshot(state)
	return position, nil
}

// setTarget commands the move and updates the cached target only after the
// command was accepted.
func (s *SimpleAxisService) setTarget(ctx context.Context, state *axisState, position int) error {
	if err := s.driver.MoveTo(ctx, state.axis.Device, position); err != nil {
		return err
	}
	state.target = position
	state.targetSeeded = true
	s.refreshSnapshot(state)
	return nil
}

// refreshSnapshot re-publishes the cached snapshot with the current
// controller-side state. Runs inside a queued task.
func (s *SimpleAxisService) refreshSnapshot(state *axisState) {
	snapshot := state.snapshot.Load().(domain.StatusSnapshot)
	snapshot.Enabled = state.enabled
	if state.targetSeeded {
		snapshot.Target = utils.IntPtr(state.target)
	}
	state.snapshot.Store(snapshot)
}

// Enable energizes the axis and exits safe start. It is gated by the
// configuration-level energize permission: energizing motors is opt-in.
// Driver-level errors (missing motor power) only surface on the next status
// read.
func (s *SimpleAxisService) Enable(ctx context.Context, axis string) error {
	start := time.Now()
	state, err := s.resolve(axis)
	if err != nil {
		return err
	}
	if !s.energizePermitted {
		return fmt.Errorf("%w: axis %s", domain.ErrEnergizeNotPermitted, axis)
	}

	_, err = s.submit(ctx, axis, func(ctx context.Context) (any, error) {
		if err := s.driver.Energize(ctx, state.axis.Device); err != nil {
			return nil, err
		}
		if err := s.driver.ExitSafeStart(ctx, state.axis.Device); err != nil {
			return nil, err
		}
		state.enabled = true
		s.refreshSnapshot(state)
		if _, err := s.ensureTarget(ctx, state); err != nil {
			slog.Warn("seeding target after enable failed",
				slog.String("axis", axis), slog.Any("error", err))
		}
		return nil, nil
	})
	s.record(ctx, axis, "enable", "", start, err)
	return err
}

// Disable halts best-effort, then de-energizes. De-energizing must never be
// blocked by a halt failure.
func (s *SimpleAxisService) Disable(ctx context.Context, axis string) error {
	start := time.Now()
	state, err := s.resolve(axis)
	if err != nil {
		return err
	}

	_, err = s.submit(ctx, axis, func(ctx context.Context) (any, error) {
		if err := s.halt(ctx, state); err != nil {
			slog.Warn("halt before disable failed",
				slog.String("axis", axis), slog.Any("error", err))
		}
		if err := s.driver.Deenergize(ctx, state.axis.Device); err != nil {
			return nil, err
		}
		state.enabled = false
		s.refreshSnapshot(state)
		return nil, nil
	})
	s.record(ctx, axis, "disable", "", start, err)
	return err
}

// Jog moves the axis by a discrete relative increment. Repeated calls
// accumulate motion; there is no velocity mode.
func (s *SimpleAxisService) Jog(ctx context.Context, req domain.JogRequest) (domain.JogResult, error) {
	start := time.Now()
	state, err := s.resolve(req.Axis)
	if err != nil {
		return domain.JogResult{}, err
	}

	dir := sign(req.Dir)
	speed := clamp01(req.Speed01)

	result, err := s.submit(ctx, req.Axis, func(ctx context.Context) (any, error) {
		if !state.enabled {
			return nil, fmt.Errorf("%w: %s", domain.ErrAxisNotEnabled, req.Axis)
		}

		step := int(math.Round(state.axis.StepsPerUnit * speed))
		if step < 1 {
			step = 1
		}

		target, err := s.ensureTarget(ctx, state)
		if err != nil {
			return nil, err
		}

		next := target + dir*step
		if err := s.setTarget(ctx, state, next); err != nil {
			return nil, err
		}
		return domain.JogResult{Axis: req.Axis, Target: next, Step: step}, nil
	})
	s.record(ctx, req.Axis, "jog", fmt.Sprintf("dir=%d speed=%.2f", dir, speed), start, err)
	if err != nil {
		return domain.JogResult{}, err
	}
	return result.(domain.JogResult), nil
}

// Stop attempts the fast halt-and-hold; when the controller rejects it, it
// falls back to commanding a hold at the currently reported position.
func (s *SimpleAxisService) Stop(ctx context.Context, axis string) error {
	start := time.Now()
	state, err := s.resolve(axis)
	if err != nil {
		return err
	}

	_, err = s.submit(ctx, axis, func(ctx context.Context) (any, error) {
		return nil, s.halt(ctx, state)
	})
	s.record(ctx, axis, "stop", "", start, err)
	return err
}

// halt runs inside a queued task for the axis.
func (s *SimpleAxisService) halt(ctx context.Context, state *axisState) error {
	primaryErr := s.driver.HaltAndHold(ctx, state.axis.Device)
	if primaryErr == nil {
		return nil
	}

	slog.Warn("halt-and-hold rejected, holding at current position",
		slog.String("axis", state.axis.ID),
		slog.Any("error", primaryErr),
	)

	snapshot, err := s.readStatus(ctx, state)
	if err != nil {
		// The fallback's error supersedes the primary's.
		return err
	}

	position := 0
	if snapshot.CurrentPosition != nil {
		position = *snapshot.CurrentPosition
	}
	return s.setTarget(ctx, state, position)
}

// SetZero stops the motor and defines its current position as zero.
func (s *SimpleAxisService) SetZero(ctx context.Context, axis string) error {
	start := time.Now()
	state, err := s.resolve(axis)
	if err != nil {
		return err
	}

	_, err = s.submit(ctx, axis, func(ctx context.Context) (any, error) {
		if err := s.driver.HaltAndZero(ctx, state.axis.Device); err != nil {
			return nil, err
		}
		state.target = 0
		state.targetSeeded = true
		s.refreshSnapshot(state)
		return nil, nil
	})
	s.record(ctx, axis, "zero", "", start, err)
	return err
}

// StatusAll reads every configured axis concurrently. One axis's failure
// never prevents the others from being attempted; failing axes carry their
// error inside their snapshot.
func (s *SimpleAxisService) StatusAll(ctx context.Context) map[string]domain.StatusSnapshot {
	results := make(map[string]domain.StatusSnapshot, len(s.axes))
	var mu sync.Mutex
	var wg sync.WaitGroup

	for id, state := range s.axes {
		wg.Add(1)
		go func(id string, state *axisState) {
			defer wg.Done()
			snapshot, err := s.StatusAxis(ctx, id)
			if err != nil && snapshot.Axis == "" {
				snapshot = domain.StatusSnapshot{
					Axis:   id,
					Device: state.axis.Device,
					At:     utils.Time{Time: time.Now()},
					Error:  err.Error(),
				}
			}
			mu.Lock()
			results[id] = snapshot
			mu.Unlock()
		}(id, state)
	}

	wg.Wait()
	return results
}

// StopAll halts every configured axis concurrently, isolating per-axis
// failures.
func (s *SimpleAxisService) StopAll(ctx context.Context) map[string]domain.StopResult {
	results := make(map[string]domain.StopResult, len(s.axes))
	var mu sync.Mutex
	var wg sync.WaitGroup

	for id := range s.axes {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			err := s.Stop(ctx, id)
			result := domain.StopResult{Axis: id, OK: err == nil}
			if err != nil {
				result.Error = err.Error()
			}
			mu.Lock()
			results[id] = result
			mu.Unlock()
		}(id)
	}

	wg.Wait()
	return results
}

// Snapshots returns the cached snapshot of every axis without touching the
// hardware.
func (s *SimpleAxisService) Snapshots() map[string]domain.StatusSnapshot {
	results := make(map[string]domain.StatusSnapshot, len(s.axes))
	for id, state := range s.axes {
		results[id] = state.snapshot.Load().(domain.StatusSnapshot)
	}
	return results
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}

func clamp01(v float64) float64 {
	return math.Min(1, math.Max(0, v))
}
