package solenoid

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"sync"
)

// Process is a handle to a running daemon subprocess. Send writes one
// line-delimited command to its stdin.
type Process interface {
	Send(line []byte) error
	CloseInput() error
	Terminate() error
}

// Launcher spawns the daemon subprocess and installs the stdout line handler
// and the exit handler.
type Launcher interface {
	Launch(ctx context.Context, onLine func(line []byte), onExit func(err error)) (Process, error)
}

var _ Launcher = (*ExecLauncher)(nil)

// ExecLauncher launches the daemon from its configured argv.
type ExecLauncher struct {
	command []string
}

func NewExecLauncher(command []string) *ExecLauncher {
	return &ExecLauncher{command: command}
}

func (l *ExecLauncher) Launch(ctx context.Context, onLine func(line []byte), onExit func(err error)) (Process, error) {
	if len(l.command) == 0 {
		return nil, errors.New("no daemon command configured")
	}

	cmd := exec.Command(l.command[0], l.command[1:]...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("opening stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("opening stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("opening stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("starting daemon: %w", err)
	}
	slog.Info("solenoid daemon started", slog.Int("pid", cmd.Process.Pid))

	go logStderr(stderr)
	go func() {
		scanner := bufio.NewScanner(stdout)
		for scanner.Scan() {
			onLine(scanner.Bytes())
		}
		onExit(cmd.Wait())
	}()

	return &execProcess{cmd: cmd, stdin: stdin}, nil
}

func logStderr(stderr io.Reader) {
	scanner := bufio.NewScanner(stderr)
	for scanner.Scan() {
		slog.Warn("solenoid daemon stderr", slog.String("line", scanner.Text()))
	}
}

type execProcess struct {
	cmd   *exec.Cmd
	stdin io.WriteCloser
	mu    sync.Mutex
}

func (p *execProcess) Send(line []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, err := p.stdin.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("writing to daemon stdin: %w", err)
	}
	return nil
}

// CloseInput closes the daemon's stdin. The daemon treats a closed input as
// the shutdown signal and de-energizes all outputs on its own.
func (p *execProcess) CloseInput() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stdin.Close()
}

func (p *execProcess) Terminate() error {
	if p.cmd.Process == nil {
		return nil
	}
	return p.cmd.Process.Kill()
}
