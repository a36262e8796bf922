package solenoid

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"turret-server/internal/actuation/domain"
	"turret-server/internal/actuation/usecases"
	"turret-server/internal/infra/utils"
)

const (
	// A pulse command legitimately takes its full duration inside the
	// daemon; the request timeout must exceed it by a safety margin so the
	// client does not time out work still in progress.
	_pulseTimeoutMargin = 1500 * time.Millisecond
	_defaultTimeout     = 4 * time.Second

	_defaultShootPulseMs   = 200
	_defaultReleasePulseMs = 500
)

var (
	ErrDaemonUnavailable = errors.New("solenoid daemon unavailable")
	ErrCommandTimeout    = errors.New("solenoid command timed out")
)

type command struct {
	ID     string `json:"id"`
	Cmd    string `json:"cmd"`
	Action string `json:"action,omitempty"`
	On     *bool  `json:"on,omitempty"`
	Ms     int    `json:"ms,omitempty"`
}

type message struct {
	Type      string         `json:"type"`
	ID        string         `json:"id"`
	OK        bool           `json:"ok"`
	Error     string         `json:"error"`
	ActiveLow *bool          `json:"activeLow"`
	Pins      map[string]int `json:"pins"`
	Levels    map[string]int `json:"levels"`
}

type response struct {
	msg message
	err error
}

type pendingRequest struct {
	ch    chan response
	timer *time.Timer
}

type Options struct {
	ShootPulseMs   int
	ReleasePulseMs int
}

func NewClient(launcher Launcher, recorder usecases.CommandRecorder, opts Options) *Client {
	if opts.ShootPulseMs <= 0 {
		opts.ShootPulseMs = _defaultShootPulseMs
	}
	if opts.ReleasePulseMs <= 0 {
		opts.ReleasePulseMs = _defaultReleasePulseMs
	}
	return &Client{
		launcher: launcher,
		recorder: recorder,
		opts:     opts,
		pending:  make(map[string]*pendingRequest),
	}
}

var _ usecases.SolenoidService = (*Client)(nil)

// Client owns the daemon subprocess and multiplexes logically concurrent
// commands over its single line-oriented channel using correlation IDs.
type Client struct {
	launcher Launcher
	recorder usecases.CommandRecorder
	opts     Options

	mu         sync.Mutex
	proc       Process
	running    bool
	fatal      bool
	generation int
	pending    map[string]*pendingRequest

	statusMu sync.RWMutex
	status   domain.SolenoidStatus
}

// Start spawns the daemon if it is not already running. Idempotent.
func (c *Client) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.startLocked(ctx)
}

func (c *Client) startLocked(ctx context.Context) error {
	if c.running {
		return nil
	}

	c.generation++
	generation := c.generation
	proc, err := c.launcher.Launch(ctx,
		func(line []byte) { c.handleLine(line) },
		func(exitErr error) { c.handleExit(generation, exitErr) },
	)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrDaemonUnavailable, err)
	}

	c.proc = proc
	c.running = true
	c.fatal = false
	return nil
}

// handleLine processes one newline-terminated daemon message. Malformed
// lines are dropped at the parse layer without failing any pending request.
func (c *Client) handleLine(line []byte) {
	if len(line) == 0 {
		return
	}

	var msg message
	if err := json.Unmarshal(line, &msg); err != nil {
		slog.Debug("dropping malformed daemon line", slog.String("line", string(line)))
		return
	}

	switch msg.Type {
	case "ready":
		c.updateStatus(func(status *domain.SolenoidStatus) {
			status.Ready = true
			status.LastError = ""
			if msg.ActiveLow != nil {
				status.ActiveLow = *msg.ActiveLow
			}
			if msg.Pins != nil {
				status.Pins = msg.Pins
			}
			if msg.Levels != nil {
				status.Levels = msg.Levels
			}
		})
	case "fatal":
		slog.Error("solenoid daemon fatal", slog.String("error", msg.Error))
		c.mu.Lock()
		c.fatal = true
		c.mu.Unlock()
		c.updateStatus(func(status *domain.SolenoidStatus) {
			status.Ready = false
			status.LastError = msg.Error
		})
	case "resp":
		c.resolvePending(msg)
		c.updateStatus(func(status *domain.SolenoidStatus) {
			if msg.ActiveLow != nil {
				status.ActiveLow = *msg.ActiveLow
			}
			if msg.Pins != nil {
				status.Pins = msg.Pins
			}
			if msg.Levels != nil {
				status.Levels = msg.Levels
			}
			if !msg.OK && msg.Error != "" {
				status.LastError = msg.Error
			}
		})
	default:
		slog.Debug("dropping daemon message of unknown type", slog.String("type", msg.Type))
	}
}

func (c *Client) resolvePending(msg message) {
	c.mu.Lock()
	entry, ok := c.pending[msg.ID]
	if ok {
		entry.timer.Stop()
		delete(c.pending, msg.ID)
	}
	c.mu.Unlock()

	if !ok {
		// A response arriving after its timeout finds no entry; dropping it
		// is intentional (a resolved caller cannot be un-timed-out).
		slog.Debug("dropping daemon response without pending entry", slog.String("id", msg.ID))
		return
	}

	entry.ch <- response{msg: msg}
}

func (c *Client) handleExit(generation int, exitErr error) {
	c.mu.Lock()
	if c.generation != generation {
		// A replacement daemon is already running.
		c.mu.Unlock()
		return
	}
	c.running = false
	c.proc = nil
	// The fatal verdict belongs to the process that just died; the next send
	// is allowed to relaunch.
	c.fatal = false
	c.mu.Unlock()

	detail := "daemon exited"
	if exitErr != nil {
		detail = fmt.Sprintf("daemon exited: %s", exitErr)
	}
	slog.Warn("solenoid daemon exited", slog.Any("error", exitErr))
	c.updateStatus(func(status *domain.SolenoidStatus) {
		status.Ready = false
		status.LastError = detail
	})
}

func (c *Client) updateStatus(mutate func(status *domain.SolenoidStatus)) {
	c.statusMu.Lock()
	defer c.statusMu.Unlock()
	mutate(&c.status)
	c.status.UpdatedAt = utils.Time{Time: time.Now()}
}

// send writes the command with a fresh correlation ID and blocks until the
// matching response arrives or the timeout fires, whichever happens first.
func (c *Client) send(ctx context.Context, cmd command, timeout time.Duration) (message, error) {
	c.mu.Lock()
	if c.fatal {
		c.mu.Unlock()
		return message{}, fmt.Errorf("%w: daemon reported fatal error", ErrDaemonUnavailable)
	}
	if err := c.startLocked(ctx); err != nil {
		c.mu.Unlock()
		return message{}, err
	}

	cmd.ID = utils.GenerateUUID()
	entry := &pendingRequest{ch: make(chan response, 1)}
	entry.timer = time.AfterFunc(timeout, func() { c.expire(cmd.ID, timeout) })
	c.pending[cmd.ID] = entry
	proc := c.proc
	c.mu.Unlock()

	payload, err := json.Marshal(cmd)
	if err != nil {
		c.discard(cmd.ID)
		return message{}, fmt.Errorf("encoding daemon command: %w", err)
	}

	if err := proc.Send(payload); err != nil {
		c.discard(cmd.ID)
		return message{}, fmt.Errorf("%w: %s", ErrDaemonUnavailable, err)
	}

	select {
	case resp := <-entry.ch:
		if resp.err != nil {
			return message{}, resp.err
		}
		if !resp.msg.OK {
			return resp.msg, fmt.Errorf("daemon rejected %s: %s", cmd.Cmd, resp.msg.Error)
		}
		return resp.msg, nil
	case <-ctx.Done():
		c.discard(cmd.ID)
		return message{}, ctx.Err()
	}
}

// expire removes the pending entry so that a late response for this ID finds
// nothing to resolve.
func (c *Client) expire(id string, timeout time.Duration) {
	c.mu.Lock()
	entry, ok := c.pending[id]
	if ok {
		delete(c.pending, id)
	}
	c.mu.Unlock()

	if ok {
		entry.ch <- response{err: fmt.Errorf("%w after %s", ErrCommandTimeout, timeout)}
	}
}

func (c *Client) discard(id string) {
	c.mu.Lock()
	if entry, ok := c.pending[id]; ok {
		entry.timer.Stop()
		delete(c.pending, id)
	}
	c.mu.Unlock()
}

// Status returns the cached daemon status synchronously. It never triggers a
// daemon round trip: status is for display and polling and must not be
// blocked behind command traffic.
func (c *Client) Status() domain.SolenoidStatus {
	c.statusMu.RLock()
	defer c.statusMu.RUnlock()
	return c.status
}

// AllOff de-energizes every solenoid output.
func (c *Client) AllOff(ctx context.Context) (domain.SolenoidStatus, error) {
	return c.execute(ctx, command{Cmd: "alloff"}, _defaultTimeout)
}

// Shoot drives the shoot output: set when action carries an on state, pulse
// otherwise (for the requested or default duration).
func (c *Client) Shoot(ctx context.Context, action domain.SolenoidAction) (domain.SolenoidStatus, error) {
	cmd, timeout := c.buildAction("shoot", action, c.opts.ShootPulseMs)
	return c.execute(ctx, cmd, timeout)
}

// Release drives the release output, same semantics as Shoot.
func (c *Client) Release(ctx context.Context, action domain.SolenoidAction) (domain.SolenoidStatus, error) {
	cmd, timeout := c.buildAction("release", action, c.opts.ReleasePulseMs)
	return c.execute(ctx, cmd, timeout)
}

// Probe sends a status command through the daemon to refresh the cache on
// demand. Unlike Status it does round-trip.
func (c *Client) Probe(ctx context.Context) (domain.SolenoidStatus, error) {
	return c.execute(ctx, command{Cmd: "status"}, _defaultTimeout)
}

func (c *Client) buildAction(name string, action domain.SolenoidAction, defaultPulseMs int) (command, time.Duration) {
	if action.On != nil {
		return command{Cmd: name, Action: "set", On: action.On}, _defaultTimeout
	}

	pulseMs := defaultPulseMs
	if action.PulseMs != nil && *action.PulseMs > 0 {
		pulseMs = *action.PulseMs
	}
	timeout := time.Duration(pulseMs)*time.Millisecond + _pulseTimeoutMargin
	return command{Cmd: name, Action: "pulse", Ms: pulseMs}, timeout
}

// execute sends the command and returns the refreshed status snapshot, not
// the raw daemon response.
func (c *Client) execute(ctx context.Context, cmd command, timeout time.Duration) (domain.SolenoidStatus, error) {
	start := time.Now()
	_, err := c.send(ctx, cmd, timeout)
	c.record(ctx, cmd, start, err)
	if err != nil {
		return c.Status(), err
	}
	return c.Status(), nil
}

func (c *Client) record(ctx context.Context, cmd command, start time.Time, err error) {
	if c.recorder == nil {
		return
	}
	args := ""
	if cmd.Action != "" {
		if cmd.On != nil {
			args = fmt.Sprintf("action=%s on=%t", cmd.Action, *cmd.On)
		} else {
			args = fmt.Sprintf("action=%s ms=%d", cmd.Action, cmd.Ms)
		}
	}
	rec := domain.CommandRecord{
		ID:       utils.GenerateUUID(),
		Resource: "solenoid",
		Command:  cmd.Cmd,
		Args:     args,
		OK:       err == nil,
		Duration: time.Since(start).Milliseconds(),
		IssuedAt: utils.Time{Time: start},
	}
	if err != nil {
		rec.Error = err.Error()
	}
	if recordErr := c.recorder.Record(ctx, rec); recordErr != nil {
		slog.Warn("recording solenoid command failed", slog.Any("error", recordErr))
	}
}

// Shutdown closes the daemon's input stream and then terminates it. The
// daemon de-energizes all outputs itself on seeing its input closed.
func (c *Client) Shutdown() {
	c.mu.Lock()
	proc := c.proc
	c.proc = nil
	c.running = false
	c.mu.Unlock()

	if proc == nil {
		return
	}
	if err := proc.CloseInput(); err != nil {
		slog.Warn("closing daemon input failed", slog.Any("error", err))
	}
	time.Sleep(200 * time.Millisecond)
	if err := proc.Terminate(); err != nil {
		slog.Warn("terminating daemon failed", slog.Any("error", err))
	}
}
