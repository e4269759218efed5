// Package build compiles a workspace and locates the docman executable.
package build

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"

	"github.com/pku-software/docman-homework-judge-action/internal/logging"
	"github.com/pku-software/docman-homework-judge-action/internal/model"
	"github.com/pku-software/docman-homework-judge-action/internal/runner"
)

// Stage titles reported in build verdicts
const (
	StagePreConfigure = "pre-configure"
	StageConfigure    = "configure"
	StageBuild        = "build"
)

// Builder builds one workspace. The verdict carries the raw tool output.
type Builder interface {
	Build(ctx context.Context, workspace string) model.Verdict
	Executable(workspace string) string
}

// CMake drives `cmake -B <dir>` followed by `cmake --build <dir>`
type CMake struct {
	dir    string
	exe    string
	goos   string
	runner runner.CommandRunner
	logger *slog.Logger
}

// New returns the builder for cfg.System
func New(cfg model.BuildConfig, r runner.CommandRunner) (Builder, error) {
	switch cfg.System {
	case "", "cmake":
		return NewCMake(cfg, r), nil
	default:
		return nil, fmt.Errorf("unsupported build system %q", cfg.System)
	}
}

// NewCMake creates a CMake builder
func NewCMake(cfg model.BuildConfig, r runner.CommandRunner) *CMake {
	if r == nil {
		r = runner.OSRunner{}
	}
	dir := cfg.Dir
	if dir == "" {
		dir = "build"
	}
	exe := cfg.Executable
	if exe == "" {
		exe = "docman"
	}
	return &CMake{
		dir:    dir,
		exe:    exe,
		goos:   runtime.GOOS,
		runner: r,
		logger: logging.New("build"),
	}
}

// Build configures and compiles workspace. A missing CMakeLists.txt fails
// before any tool runs.
func (c *CMake) Build(ctx context.Context, workspace string) model.Verdict {
	if _, err := os.Stat(filepath.Join(workspace, "CMakeLists.txt")); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return model.Fail(StagePreConfigure, "No build system found.")
		}
		return model.Fail(StagePreConfigure, err.Error())
	}

	buildDir := "./" + c.dir
	configure := []string{"cmake", "-B", buildDir}
	if c.goos == "windows" {
		configure = append(configure, "-G", "MinGW Makefiles")
	}

	c.logger.Info("configuring", "workspace", workspace)
	output, err := c.runner.Run(ctx, workspace, configure)
	if err != nil {
		return model.Fail(StageConfigure, output+failureNote(output, err))
	}

	c.logger.Info("building", "workspace", workspace)
	out, err := c.runner.Run(ctx, workspace, []string{"cmake", "--build", buildDir})
	output += out
	if err != nil {
		return model.Fail(StageBuild, output+failureNote(out, err))
	}
	return model.Pass(StageBuild, output)
}

// failureNote surfaces the runner error when the tool printed nothing, such
// as when cmake is not installed
func failureNote(output string, err error) string {
	if output != "" {
		return ""
	}
	return err.Error()
}

// Executable returns the path of the built binary
func (c *CMake) Executable(workspace string) string {
	name := c.exe
	if c.goos == "windows" {
		name += ".exe"
	}
	return filepath.Join(workspace, c.dir, name)
}
