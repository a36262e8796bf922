package tic

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"turret-server/internal/infra/cli"
)

const (
	// Status reads are diagnostic and allowed to be slow; control commands
	// must either act or fail quickly.
	_statusTimeout  = 15 * time.Second
	_controlTimeout = 5 * time.Second
)

// Client invokes the stepper controller CLI once per command. Serialization
// per axis is the caller's responsibility.
type Client struct {
	path   string
	runner cli.Runner
}

func NewClient(path string, runner cli.Runner) *Client {
	return &Client{
		path:   path,
		runner: runner,
	}
}

// ReadStatus returns the controller's raw diagnostic text for device.
func (c *Client) ReadStatus(ctx context.Context, device string) (string, error) {
	output, err := c.runner.Run(ctx, _statusTimeout, c.path, "-d", device, "--status", "--full")
	if err != nil {
		return "", fmt.Errorf("reading status: %w", err)
	}
	return string(output), nil
}

// MoveTo exits safe start and commands an absolute position. Exiting safe
// start when already exited is harmless, so the combination is idempotent.
func (c *Client) MoveTo(ctx context.Context, device string, position int) error {
	_, err := c.runner.Run(ctx, _controlTimeout, c.path,
		"-d", device, "--exit-safe-start", "--position", strconv.Itoa(position))
	if err != nil {
		return fmt.Errorf("moving to %d: %w", position, err)
	}
	return nil
}

func (c *Client) Energize(ctx context.Context, device string) error {
	_, err := c.runner.Run(ctx, _controlTimeout, c.path, "-d", device, "--energize")
	if err != nil {
		return fmt.Errorf("energizing: %w", err)
	}
	return nil
}

func (c *Client) Deenergize(ctx context.Context, device string) error {
	_, err := c.runner.Run(ctx, _controlTimeout, c.path, "-d", device, "--deenergize")
	if err != nil {
		return fmt.Errorf("deenergizing: %w", err)
	}
	return nil
}

func (c *Client) ExitSafeStart(ctx context.Context, device string) error {
	_, err := c.runner.Run(ctx, _controlTimeout, c.path, "-d", device, "--exit-safe-start")
	if err != nil {
		return fmt.Errorf("exiting safe start: %w", err)
	}
	return nil
}

// HaltAndHold issues the fast stop. Some controller builds reject it, in
// which case the axis service falls back to holding the current position.
func (c *Client) HaltAndHold(ctx context.Context, device string) error {
	_, err := c.runner.Run(ctx, _controlTimeout, c.path, "-d", device, "--halt-and-hold")
	if err != nil {
		return fmt.Errorf("halting: %w", err)
	}
	return nil
}

// HaltAndZero stops the motor and defines the current position as zero.
func (c *Client) HaltAndZero(ctx context.Context, device string) error {
	_, err := c.runner.Run(ctx, _controlTimeout, c.path, "-d", device, "--halt-and-set-position", "0")
	if err != nil {
		return fmt.Errorf("halting and zeroing: %w", err)
	}
	return nil
}
