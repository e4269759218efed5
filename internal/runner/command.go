package runner

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// CommandRunner runs a command to completion and returns its combined output
type CommandRunner interface {
	Run(ctx context.Context, dir string, argv []string) (string, error)
}

// OSRunner executes commands on the host
type OSRunner struct{}

// Run executes argv in dir. The output is returned even when the command fails.
func (OSRunner) Run(ctx context.Context, dir string, argv []string) (string, error) {
	if len(argv) == 0 {
		return "", fmt.Errorf("empty argv")
	}
	// #nosec G204 -- argv comes from the build configuration.
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = dir

	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	if err := cmd.Run(); err != nil {
		output := strings.ToValidUTF8(out.String(), "")
		return output, fmt.Errorf("run %q failed: %w", argv, err)
	}
	return strings.ToValidUTF8(out.String(), ""), nil
}
