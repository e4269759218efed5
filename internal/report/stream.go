package report

import (
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/pku-software/docman-homework-judge-action/internal/model"
)

// Stream prints "[title] OK" or "[title] Failed" per verdict, followed by
// the diagnostic of failures
type Stream struct {
	mu        sync.Mutex
	w         io.Writer
	noColor   bool
	workspace string
	failed    bool
}

// NewStream creates a stream reporter writing to w
func NewStream(w io.Writer, noColor bool) *Stream {
	return &Stream{w: w, noColor: noColor}
}

// Record prints one verdict. A header line marks each new workspace.
func (s *Stream) Record(workspace string, v model.Verdict) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if workspace != s.workspace {
		s.workspace = workspace
		fmt.Fprintln(s.w, s.stylize("== "+workspace, lipgloss.Color("244")))
	}

	if v.Success {
		fmt.Fprintf(s.w, "[%s] %s\n", v.Title, s.stylize("OK", lipgloss.Color("42")))
		return
	}
	s.failed = true
	fmt.Fprintf(s.w, "[%s] %s\n", v.Title, s.stylize("Failed", lipgloss.Color("196")))
	fmt.Fprintln(s.w, v.Diagnostic)
}

// Finalize reports ErrFailed if any verdict since the last call failed
func (s *Stream) Finalize() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	failed := s.failed
	s.failed = false
	s.workspace = ""
	if failed {
		return ErrFailed
	}
	return nil
}

func (s *Stream) stylize(text string, color lipgloss.Color) string {
	if s.noColor {
		return text
	}
	return lipgloss.NewStyle().Foreground(color).Render(text)
}
