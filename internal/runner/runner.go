// Package runner executes the program under test with a deadline and
// captures what it printed.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"github.com/pku-software/docman-homework-judge-action/internal/logging"
)

// Observation is what one run of the target produced
type Observation struct {
	Stdout     string
	Stderr     string
	ExitCode   int // -1 when killed by a signal
	TimedOut   bool
	Transcript string
	Duration   time.Duration
}

// Runner spawns processes in a fixed working directory
type Runner struct {
	dir       string
	timeout   time.Duration
	waitDelay time.Duration
	logger    *slog.Logger
}

// New creates a runner. After timeout the child is killed; its pipes are
// then drained for at most waitDelay.
func New(timeout, waitDelay time.Duration) *Runner {
	return &Runner{
		timeout:   timeout,
		waitDelay: waitDelay,
		logger:    logging.New("runner"),
	}
}

// InDir returns a copy of r that starts processes in dir
func (r *Runner) InDir(dir string) *Runner {
	cp := *r
	cp.dir = dir
	return &cp
}

// Run executes exe with args, feeding stdin when non-nil. A child that
// outlives the deadline is killed, drained and reaped, and the observation
// reports TimedOut. If ctx itself ends, the partial observation is returned
// with ctx's error. Failing to start the process is an error.
func (r *Runner) Run(ctx context.Context, exe string, args []string, stdin io.Reader) (*Observation, error) {
	runCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, exe, args...)
	cmd.Dir = r.dir
	cmd.Stdin = stdin
	cmd.Cancel = func() error { return cmd.Process.Kill() }
	cmd.WaitDelay = r.waitDelay

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	elapsed := time.Since(start)

	if cmd.ProcessState == nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("start %s: %w", exe, err)
	}

	obs := &Observation{
		Stdout:   strings.ToValidUTF8(stdout.String(), ""),
		Stderr:   strings.ToValidUTF8(stderr.String(), ""),
		ExitCode: cmd.ProcessState.ExitCode(),
		Duration: elapsed,
	}
	obs.Transcript = Transcript(exe, args, obs.Stdout, obs.Stderr)

	if ctx.Err() != nil {
		return obs, ctx.Err()
	}
	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		obs.TimedOut = true
		r.logger.Warn("process killed at deadline", "exe", exe, "timeout", r.timeout)
		return obs, nil
	}

	var exitErr *exec.ExitError
	switch {
	case err == nil, errors.As(err, &exitErr), errors.Is(err, exec.ErrWaitDelay):
		return obs, nil
	default:
		return obs, fmt.Errorf("wait %s: %w", exe, err)
	}
}

// Transcript renders a command line and its output for diagnostics
func Transcript(exe string, args []string, stdout, stderr string) string {
	argv := append([]string{exe}, args...)
	return strings.Join(argv, " ") + "\n" + stdout + "\n" + stderr
}
