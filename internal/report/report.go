// Package report delivers verdicts to a person or to a results file.
package report

import (
	"errors"
	"fmt"
	"io"

	"github.com/pku-software/docman-homework-judge-action/internal/model"
)

// ErrFailed is returned by Stream.Finalize when a batch had failures
var ErrFailed = errors.New("one or more judge steps failed")

// Sink receives the verdicts of one workspace and then closes the batch
type Sink interface {
	Record(workspace string, v model.Verdict)
	Finalize() error
}

// New selects the sink: a JSON file when logPath or report.format asks for
// one, the terminal stream otherwise
func New(cfg model.ReportConfig, logPath string, w io.Writer) (Sink, error) {
	if logPath != "" {
		return NewJSONFile(logPath), nil
	}
	switch cfg.Format {
	case "", model.ReportStream:
		return NewStream(w, cfg.NoColor), nil
	case model.ReportJSON:
		if cfg.JSONPath == "" {
			return nil, errors.New("report.format json needs report.json_path or --log")
		}
		return NewJSONFile(cfg.JSONPath), nil
	default:
		return nil, fmt.Errorf("unknown report format %q (want %s or %s)", cfg.Format, model.ReportStream, model.ReportJSON)
	}
}
