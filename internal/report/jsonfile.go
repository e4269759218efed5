package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/pku-software/docman-homework-judge-action/internal/model"
)

// JSONFile appends each finalized batch to a file as one JSON array line
type JSONFile struct {
	mu      sync.Mutex
	path    string
	pending []model.Verdict
}

// NewJSONFile creates a sink appending to path
func NewJSONFile(path string) *JSONFile {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return &JSONFile{path: path, pending: []model.Verdict{}}
}

// Record buffers one verdict
func (j *JSONFile) Record(workspace string, v model.Verdict) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.pending = append(j.pending, v)
}

// Finalize appends the buffered verdicts and starts a new batch
func (j *JSONFile) Finalize() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	line, err := json.Marshal(j.pending)
	if err != nil {
		return fmt.Errorf("encode verdicts: %w", err)
	}
	j.pending = []model.Verdict{}

	f, err := os.OpenFile(j.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open results file: %w", err)
	}
	if _, err := f.Write(append(line, '\n')); err != nil {
		_ = f.Close()
		return fmt.Errorf("write results file: %w", err)
	}
	return f.Close()
}
