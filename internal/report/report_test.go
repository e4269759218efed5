package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/pku-software/docman-homework-judge-action/internal/model"
)

func TestStream_Record(t *testing.T) {
	var buf bytes.Buffer
	s := NewStream(&buf, true)

	s.Record("ws", model.Pass("build", ""))
	s.Record("ws", model.Fail("test", "Output mismatch.\nOutput:\nboom"))

	want := "== ws\n[build] OK\n[test] Failed\nOutput mismatch.\nOutput:\nboom\n"
	if diff := cmp.Diff(want, buf.String()); diff != "" {
		t.Errorf("stream output mismatch (-want +got):\n%s", diff)
	}
}

func TestStream_Finalize(t *testing.T) {
	var buf bytes.Buffer
	s := NewStream(&buf, true)

	s.Record("a", model.Pass("build", ""))
	if err := s.Finalize(); err != nil {
		t.Fatalf("Finalize() = %v, want nil", err)
	}

	s.Record("b", model.Fail("build", "cmake missing"))
	if err := s.Finalize(); !errors.Is(err, ErrFailed) {
		t.Fatalf("Finalize() = %v, want ErrFailed", err)
	}

	// failures do not leak into the next batch
	s.Record("c", model.Pass("test", ""))
	if err := s.Finalize(); err != nil {
		t.Errorf("Finalize() after reset = %v, want nil", err)
	}
}

func TestStream_Color(t *testing.T) {
	var buf bytes.Buffer
	s := NewStream(&buf, false)
	s.Record("ws", model.Pass("build", ""))

	if !strings.Contains(buf.String(), "OK") {
		t.Errorf("colored output lost text: %q", buf.String())
	}
}

func TestJSONFile_Finalize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.json")
	j := NewJSONFile(path)

	j.Record("a", model.Pass("build", ""))
	j.Record("a", model.Fail("test", "Case timeout."))
	if err := j.Finalize(); err != nil {
		t.Fatalf("Finalize() error: %v", err)
	}
	if err := j.Finalize(); err != nil {
		t.Fatalf("second Finalize() error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read results: %v", err)
	}
	lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2: %q", len(lines), data)
	}

	var first []model.Verdict
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
		t.Fatalf("decode first line: %v", err)
	}
	want := []model.Verdict{model.Pass("build", ""), model.Fail("test", "Case timeout.")}
	if diff := cmp.Diff(want, first); diff != "" {
		t.Errorf("first batch mismatch (-want +got):\n%s", diff)
	}
	if lines[1] != "[]" {
		t.Errorf("empty batch = %q, want []", lines[1])
	}
}

func TestJSONFile_KeysMatchFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.json")
	j := NewJSONFile(path)
	j.Record("a", model.Pass("build", "ok"))
	if err := j.Finalize(); err != nil {
		t.Fatal(err)
	}

	data, _ := os.ReadFile(path)
	want := `[{"title":"build","success":true,"diagnostic":"ok"}]` + "\n"
	if string(data) != want {
		t.Errorf("file = %q, want %q", data, want)
	}
}

func TestJSONFile_Unwritable(t *testing.T) {
	j := NewJSONFile(filepath.Join(t.TempDir(), "missing", "results.json"))
	j.Record("a", model.Pass("build", ""))
	if err := j.Finalize(); err == nil {
		t.Error("expected error for missing parent directory")
	}
}

func TestNew(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name    string
		cfg     model.ReportConfig
		logPath string
		want    string
		wantErr bool
	}{
		{name: "default stream", cfg: model.ReportConfig{}, want: "stream"},
		{name: "log flag wins", cfg: model.ReportConfig{Format: model.ReportStream}, logPath: filepath.Join(dir, "a.json"), want: "json"},
		{name: "json format", cfg: model.ReportConfig{Format: model.ReportJSON, JSONPath: filepath.Join(dir, "b.json")}, want: "json"},
		{name: "json without path", cfg: model.ReportConfig{Format: model.ReportJSON}, wantErr: true},
		{name: "unknown", cfg: model.ReportConfig{Format: "xml"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sink, err := New(tt.cfg, tt.logPath, &bytes.Buffer{})
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			got := "stream"
			if _, ok := sink.(*JSONFile); ok {
				got = "json"
			}
			if got != tt.want {
				t.Errorf("New() sink = %s, want %s", got, tt.want)
			}
		})
	}
}
