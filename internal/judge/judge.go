// Package judge builds a workspace and runs every case against it.
package judge

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pku-software/docman-homework-judge-action/internal/build"
	"github.com/pku-software/docman-homework-judge-action/internal/compare"
	"github.com/pku-software/docman-homework-judge-action/internal/logging"
	"github.com/pku-software/docman-homework-judge-action/internal/model"
	"github.com/pku-software/docman-homework-judge-action/internal/runner"
)

// StagePretest titles the executable check between build and cases
const StagePretest = "pretest"

// ErrWorkspaceBusy is returned when a workspace is already being judged
var ErrWorkspaceBusy = errors.New("workspace is already being judged")

// Executor runs the target once inside a workspace
type Executor interface {
	Run(ctx context.Context, dir, exe string, args []string, stdin io.Reader) (*runner.Observation, error)
}

// Recorder receives verdicts as they are produced
type Recorder interface {
	Record(workspace string, v model.Verdict)
}

// Summary describes one finished Run
type Summary struct {
	RunID     string
	Workspace string
	Total     int
	Failed    int
	Elapsed   time.Duration
}

// Passed reports whether every recorded step succeeded
func (s Summary) Passed() bool { return s.Failed == 0 }

// Judge runs cases against built workspaces. One workspace is judged by at
// most one Run at a time.
type Judge struct {
	builder build.Builder
	exec    Executor
	fs      compare.FS
	logger  *slog.Logger
	onState func(workspace string, s State)

	mu     sync.Mutex
	busy   map[string]bool
	states map[string]State
}

// Option configures a Judge
type Option func(*Judge)

// WithExecutor replaces the process runner
func WithExecutor(e Executor) Option {
	return func(j *Judge) { j.exec = e }
}

// WithFS replaces the filesystem the comparator reads
func WithFS(fs compare.FS) Option {
	return func(j *Judge) { j.fs = fs }
}

// WithStateHook is called on every state transition
func WithStateHook(fn func(workspace string, s State)) Option {
	return func(j *Judge) { j.onState = fn }
}

// New creates a judge that builds with b and runs processes with r
func New(b build.Builder, r *runner.Runner, opts ...Option) *Judge {
	j := &Judge{
		builder: b,
		exec:    dirRunner{r},
		fs:      compare.OSFS{},
		logger:  logging.New("judge"),
		busy:    make(map[string]bool),
		states:  make(map[string]State),
	}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

// dirRunner adapts runner.Runner to Executor
type dirRunner struct {
	r *runner.Runner
}

func (d dirRunner) Run(ctx context.Context, dir, exe string, args []string, stdin io.Reader) (*runner.Observation, error) {
	return d.r.InDir(dir).Run(ctx, exe, args, stdin)
}

// State returns the last known state of workspace
func (j *Judge) State(workspace string) State {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.states[workspaceKey(workspace)]
}

// Run builds workspace and, if that succeeds, runs cases in order. Every
// verdict goes to rec. The returned error is ErrWorkspaceBusy or the
// context's error; step failures only show up in verdicts.
func (j *Judge) Run(ctx context.Context, workspace string, cases []model.TestCase, rec Recorder) (Summary, error) {
	key := workspaceKey(workspace)
	if err := j.acquire(key); err != nil {
		return Summary{}, err
	}
	defer j.release(key)

	sum := Summary{RunID: uuid.NewString(), Workspace: workspace}
	logger := j.logger.With("run_id", sum.RunID, "workspace", workspace)
	start := time.Now()

	record := func(v model.Verdict) {
		sum.Total++
		if !v.Success {
			sum.Failed++
		}
		rec.Record(workspace, v)
	}

	j.transition(key, StateNotBuilt)
	logger.Info("building workspace")
	v := j.build(ctx, workspace)
	record(v)
	if !v.Success {
		j.transition(key, StateDone)
		return j.finish(logger, sum, start), nil
	}
	j.transition(key, StateBuilt)

	exe := j.builder.Executable(workspace)
	if _, err := os.Stat(exe); err != nil {
		name := strings.TrimSuffix(filepath.Base(exe), ".exe")
		record(model.Fail(StagePretest, fmt.Sprintf("Output executable file %s does not exist.", name)))
		j.transition(key, StateDone)
		return j.finish(logger, sum, start), nil
	}

	for i, tc := range cases {
		if err := ctx.Err(); err != nil {
			j.transition(key, StateDone)
			return j.finish(logger, sum, start), err
		}
		logger.Info(fmt.Sprintf("Testing %d/%d [time escaped: %.2fs]...", i+1, len(cases), time.Since(start).Seconds()),
			"case", tc.Name())

		j.transition(key, StateRunning)
		v := j.runCase(ctx, workspace, exe, tc)
		record(v)
		if v.Success {
			j.transition(key, StatePassed)
		} else {
			j.transition(key, StateFailed)
		}
	}

	j.transition(key, StateDone)
	return j.finish(logger, sum, start), nil
}

func (j *Judge) finish(logger *slog.Logger, sum Summary, start time.Time) Summary {
	sum.Elapsed = time.Since(start)
	logger.Info("workspace judged", "steps", sum.Total, "failed", sum.Failed, "elapsed", sum.Elapsed.Round(time.Millisecond))
	return sum
}

func (j *Judge) build(ctx context.Context, workspace string) (v model.Verdict) {
	defer func() {
		if r := recover(); r != nil {
			v = model.Fail(build.StageBuild, fmt.Sprintf("Judge panic: %v", r))
		}
	}()
	return j.builder.Build(ctx, workspace)
}

// runCase never fails the batch: errors and panics become verdicts
func (j *Judge) runCase(ctx context.Context, workspace, exe string, tc model.TestCase) (v model.Verdict) {
	defer func() {
		if r := recover(); r != nil {
			j.logger.Error("case panicked", "case", tc.Name(), "panic", r)
			v = model.Fail(compare.Title, fmt.Sprintf("Judge panic: %v", r))
		}
	}()

	if err := tc.Validate(); err != nil {
		return model.Fail(compare.Title, err.Error())
	}

	var (
		args  []string
		stdin io.Reader
	)
	switch tc.Kind {
	case model.CaseMalformed:
		args = tc.Malformed.Args
	case model.CaseNormal:
		c := tc.Normal
		if c.ExpectErr != nil {
			return model.Fail(compare.Title, fmt.Sprintf("Cannot compute expected output: %v", c.ExpectErr))
		}
		if c.OutputPath != "" {
			if err := os.Remove(c.OutputPath); err != nil && !errors.Is(err, os.ErrNotExist) {
				return model.Fail(compare.Title, fmt.Sprintf("Cannot clean output file: %v", err))
			}
		}
		if c.Shape.ReadsStdin() {
			f, err := os.Open(c.InputPath)
			if err != nil {
				return model.Fail(compare.Title, fmt.Sprintf("Cannot open input: %v", err))
			}
			defer func() { _ = f.Close() }()
			stdin = f
		}
		args = c.Args()
	}

	obs, err := j.exec.Run(ctx, workspace, exe, args, stdin)
	if err != nil {
		j.logger.Warn("case did not run", "case", tc.Name(), "error", err)
		return model.Fail(compare.Title, err.Error())
	}

	v, err = compare.Compare(tc, obs, j.fs)
	if err != nil {
		return model.Fail(compare.Title, fmt.Sprintf("Cannot compare output: %v", err))
	}
	return v
}

func (j *Judge) acquire(key string) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.busy[key] {
		return fmt.Errorf("%w: %s", ErrWorkspaceBusy, key)
	}
	j.busy[key] = true
	return nil
}

func (j *Judge) release(key string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	delete(j.busy, key)
}

func (j *Judge) transition(key string, s State) {
	j.mu.Lock()
	j.states[key] = s
	j.mu.Unlock()
	if j.onState != nil {
		j.onState(key, s)
	}
}

func workspaceKey(workspace string) string {
	if abs, err := filepath.Abs(workspace); err == nil {
		return abs
	}
	return filepath.Clean(workspace)
}
