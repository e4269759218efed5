// Package compare grades one observed run against what the case expects.
package compare

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/pku-software/docman-homework-judge-action/internal/model"
	"github.com/pku-software/docman-homework-judge-action/internal/runner"
)

// FailureExitCode is the only exit status a rejecting docman may use
const FailureExitCode = 1

// Title is the verdict title for every executed case
const Title = "test"

// Reasons shown at the top of case diagnostics
const (
	ReasonTimeout          = "Case timeout."
	ReasonMalformedPassed  = "Malformed case should not pass."
	ReasonFailedAsExpected = "Failed as expected."
	ReasonWrongExitCode    = "Error code should be 1 when failed."
	ReasonShouldError      = "Case should error but passed."
	ReasonArtifactCreated  = "Case should error, but output file created."
	ReasonShouldPass       = "Case should pass but failed."
	ReasonNoOutputFile     = "Output file does not exist."
	ReasonMismatch         = "Output mismatch."
)

// FS is the filesystem view the comparator needs
type FS interface {
	Exists(path string) (bool, error)
	ReadFile(path string) ([]byte, error)
}

// OSFS reads the real filesystem
type OSFS struct{}

// Exists reports whether path exists
func (OSFS) Exists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, err
}

// ReadFile reads path
func (OSFS) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// Compare grades obs against tc. An error means the comparison itself
// could not be carried out, e.g. the output file could not be read.
func Compare(tc model.TestCase, obs *runner.Observation, fsys FS) (model.Verdict, error) {
	if obs.TimedOut {
		return model.Fail(Title, Format(ReasonTimeout, obs.Transcript)), nil
	}

	switch tc.Kind {
	case model.CaseMalformed:
		return expectRejection(obs, "", fsys, ReasonMalformedPassed)
	case model.CaseNormal:
		if !tc.Normal.Expect.Success {
			return expectRejection(obs, tc.Normal.OutputPath, fsys, ReasonShouldError)
		}
		return expectOutput(tc.Normal, obs, fsys)
	default:
		return model.Verdict{}, fmt.Errorf("unknown case kind %d", int(tc.Kind))
	}
}

// expectRejection requires exit code 1 and, when output is declared, that
// no file was left behind
func expectRejection(obs *runner.Observation, output string, fsys FS, passedReason string) (model.Verdict, error) {
	if obs.ExitCode == 0 {
		return model.Fail(Title, Format(passedReason, obs.Transcript)), nil
	}
	if output != "" {
		exists, err := fsys.Exists(output)
		if err != nil {
			return model.Verdict{}, err
		}
		if exists {
			return model.Fail(Title, Format(ReasonArtifactCreated, obs.Transcript)), nil
		}
	}
	if obs.ExitCode != FailureExitCode {
		return model.Fail(Title, Format(ReasonWrongExitCode, obs.Transcript)), nil
	}
	return model.Pass(Title, Format(ReasonFailedAsExpected, obs.Transcript)), nil
}

func expectOutput(c *model.NormalCase, obs *runner.Observation, fsys FS) (model.Verdict, error) {
	if obs.ExitCode != 0 {
		return model.Fail(Title, Format(ReasonShouldPass, obs.Transcript)), nil
	}

	actual := obs.Stdout
	if c.OutputPath != "" {
		exists, err := fsys.Exists(c.OutputPath)
		if err != nil {
			return model.Verdict{}, err
		}
		if !exists {
			return model.Fail(Title, Format(ReasonNoOutputFile, obs.Transcript)), nil
		}
		data, err := fsys.ReadFile(c.OutputPath)
		if err != nil {
			return model.Verdict{}, fmt.Errorf("read output: %w", err)
		}
		actual = strings.ToValidUTF8(string(data), "")
	}

	expected := Normalize(c.Expect.Text)
	actual = Normalize(actual)
	if actual == expected {
		return model.Pass(Title, obs.Transcript), nil
	}

	input, err := fsys.ReadFile(c.InputPath)
	if err != nil {
		return model.Verdict{}, fmt.Errorf("read input: %w", err)
	}
	d := Locate(expected, actual)
	return model.Fail(Title, MismatchDiagnostic(d, expected, actual, string(input))), nil
}

// Normalize converts CRLF to LF and drops one trailing newline
func Normalize(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.TrimSuffix(s, "\n")
}

// Format prefixes a transcript with the reason for the verdict
func Format(reason, transcript string) string {
	return reason + "\nOutput:\n" + transcript
}
