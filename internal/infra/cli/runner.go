package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"
)

// ErrTimeout marks invocations killed for exceeding their deadline. The
// external process may still have acted on the command before dying.
var ErrTimeout = errors.New("command timed out")

// CommandError carries the subprocess's own diagnostic text alongside the
// underlying execution error.
type CommandError struct {
	Command string
	Output  string
	Err     error
}

func (e *CommandError) Error() string {
	if e.Output != "" {
		return fmt.Sprintf("%s: %s: %s", e.Command, e.Err, e.Output)
	}
	return fmt.Sprintf("%s: %s", e.Command, e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// Runner invokes an external command and returns its stdout. Implementations
// enforce the given timeout by killing the invocation.
type Runner interface {
	Run(ctx context.Context, timeout time.Duration, name string, args ...string) ([]byte, error)
}

var _ Runner = (*ExecRunner)(nil)

type ExecRunner struct{}

func NewExecRunner() *ExecRunner {
	return &ExecRunner{}
}

func (r *ExecRunner) Run(ctx context.Context, timeout time.Duration, name string, args ...string) ([]byte, error) {
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	slog.Debug("command finished",
		slog.String("command", name),
		slog.Any("args", args),
		slog.Duration("duration", time.Since(start)),
		slog.Bool("ok", err == nil),
	)

	if err != nil {
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			return nil, &CommandError{
				Command: name,
				Output:  strings.TrimSpace(stderr.String()),
				Err:     fmt.Errorf("%w after %s", ErrTimeout, timeout),
			}
		}

		diagnostic := strings.TrimSpace(stderr.String())
		if diagnostic == "" {
			diagnostic = strings.TrimSpace(stdout.String())
		}
		return nil, &CommandError{Command: name, Output: diagnostic, Err: err}
	}

	return stdout.Bytes(), nil
}
