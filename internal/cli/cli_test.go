package cli

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/pku-software/docman-homework-judge-action/internal/model"
)

const articleDoc = `{"version":1,"citations":[{"id":"a","kind":"article","author":"X","title":"T","journal":"J","year":2020,"volume":1,"issue":2}]}`

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	oracleCitation, oracleOutput = onceFlag{}, onceFlag{}

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetIn(strings.NewReader(""))
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestDecodeConfig_Env(t *testing.T) {
	t.Setenv("DOCJUDGE_JUDGE_TIMEOUT", "3s")
	t.Setenv("DOCJUDGE_REPORT_JSON_PATH", "/tmp/results.json")
	t.Setenv("DOCJUDGE_METADATA_WEBPAGE_SOURCE", "direct")

	v := viper.New()
	if err := setDefaults(v, model.DefaultConfig()); err != nil {
		t.Fatalf("setDefaults() error: %v", err)
	}
	v.SetEnvPrefix("DOCJUDGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg, err := decodeConfig(v)
	if err != nil {
		t.Fatalf("decodeConfig() error: %v", err)
	}
	if cfg.Judge.Timeout != 3*time.Second {
		t.Errorf("judge.timeout = %v, want 3s", cfg.Judge.Timeout)
	}
	if cfg.Report.JSONPath != "/tmp/results.json" {
		t.Errorf("report.json_path = %q", cfg.Report.JSONPath)
	}
	if cfg.Metadata.WebpageSource != model.WebpageSourceDirect {
		t.Errorf("metadata.webpage_source = %q", cfg.Metadata.WebpageSource)
	}
	if cfg.Metadata.Endpoint != model.DefaultMetadataEndpoint {
		t.Errorf("default endpoint lost: %q", cfg.Metadata.Endpoint)
	}
}

func TestDecodeConfig_File(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yaml", "judge:\n  seed: 42\n  generate: 1\nreport:\n  format: json\n")

	v := viper.New()
	if err := setDefaults(v, model.DefaultConfig()); err != nil {
		t.Fatal(err)
	}
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		t.Fatalf("ReadInConfig() error: %v", err)
	}

	cfg, err := decodeConfig(v)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Judge.Seed != 42 || cfg.Judge.Generate != 1 {
		t.Errorf("judge = %+v", cfg.Judge)
	}
	if cfg.Report.Format != model.ReportJSON {
		t.Errorf("report.format = %q", cfg.Report.Format)
	}
	if cfg.Judge.Timeout != model.DefaultConfig().Judge.Timeout {
		t.Errorf("unset timeout = %v, want default", cfg.Judge.Timeout)
	}
}

func TestRenderDefaultConfig_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	if err := renderDefaultConfig(&buf); err != nil {
		t.Fatal(err)
	}

	var got model.Config
	if err := yaml.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("rendered config is not YAML: %v", err)
	}
	if diff := cmp.Diff(*model.DefaultConfig(), got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteDefaultConfig_NoOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	if err := writeDefaultConfig(path); err != nil {
		t.Fatalf("first write error: %v", err)
	}
	if err := writeDefaultConfig(path); err == nil {
		t.Error("expected error when config exists")
	}
}

func TestCollectWorkspaces(t *testing.T) {
	dir := t.TempDir()
	ws := filepath.Join(dir, "alice")
	if err := os.Mkdir(ws, 0o755); err != nil {
		t.Fatal(err)
	}
	batch := writeFile(t, dir, "list.txt", "# one\nalice\n")
	notDir := writeFile(t, dir, "file.txt", "")

	got, err := collectWorkspaces(nil, batch)
	if err != nil {
		t.Fatalf("collectWorkspaces() error: %v", err)
	}
	if diff := cmp.Diff([]string{ws}, got); diff != "" {
		t.Errorf("workspaces mismatch (-want +got):\n%s", diff)
	}

	if _, err := collectWorkspaces([]string{notDir}, ""); err == nil {
		t.Error("expected error for a file workspace")
	}
	if _, err := collectWorkspaces([]string{filepath.Join(dir, "missing")}, ""); err == nil {
		t.Error("expected error for a missing workspace")
	}

	def, err := collectWorkspaces(nil, "")
	if err != nil || len(def) != 1 {
		t.Fatalf("default workspaces = %v, %v", def, err)
	}
}

func TestPrepareCorpus(t *testing.T) {
	scratch := t.TempDir()
	files, err := prepareCorpus(model.CorpusConfig{}, scratch, 7, 1)
	if err != nil {
		t.Fatalf("prepareCorpus() error: %v", err)
	}
	// six builtin fixtures plus one base and seven mutants
	if len(files) != 14 {
		t.Errorf("got %d fixtures, want 14", len(files))
	}

	custom := t.TempDir()
	in := filepath.Join(custom, "in")
	cit := filepath.Join(custom, "cit")
	for _, d := range []string{in, cit} {
		if err := os.Mkdir(d, 0o755); err != nil {
			t.Fatal(err)
		}
	}
	writeFile(t, in, "a.txt", "See [a].")
	writeFile(t, cit, "a.txt", articleDoc)

	files, err = prepareCorpus(model.CorpusConfig{InputDir: in, CitationDir: cit}, t.TempDir(), 7, 0)
	if err != nil {
		t.Fatalf("prepareCorpus(custom) error: %v", err)
	}
	if len(files) != 1 || files[0].Name != "a" {
		t.Errorf("custom fixtures = %+v", files)
	}

	if _, err := prepareCorpus(model.CorpusConfig{InputDir: in}, t.TempDir(), 7, 0); err == nil {
		t.Error("expected error when only input_dir is set")
	}
}

func TestOnceFlag(t *testing.T) {
	var f onceFlag
	if err := f.Set("a"); err != nil {
		t.Fatal(err)
	}
	if err := f.Set("b"); err == nil {
		t.Error("second Set should fail")
	}
	if f.String() != "a" {
		t.Errorf("value = %q, want a", f.String())
	}
}

func TestOracleCommand(t *testing.T) {
	dir := t.TempDir()
	citations := writeFile(t, dir, "c.json", articleDoc)
	good := writeFile(t, dir, "good.txt", "See [a].")
	bad := writeFile(t, dir, "bad.txt", "See [b].")
	output := filepath.Join(dir, "out.txt")

	want := "See [a].\n\nReferences:\n[a] article: X, T, J, 2020, 1, 2"

	out, err := execute(t, "oracle", "-c", citations, good)
	if err != nil {
		t.Fatalf("oracle error: %v", err)
	}
	if out != want {
		t.Errorf("stdout = %q, want %q", out, want)
	}

	if _, err := execute(t, "oracle", "-c", citations, "-o", output, good); err != nil {
		t.Fatalf("oracle -o error: %v", err)
	}
	data, err := os.ReadFile(output)
	if err != nil || string(data) != want {
		t.Errorf("output file = %q, %v", data, err)
	}

	missing := filepath.Join(dir, "never.txt")
	_, err = execute(t, "oracle", "-c", citations, "-o", missing, bad)
	if !errors.Is(err, errRejected) {
		t.Errorf("dangling reference error = %v, want errRejected", err)
	}
	if _, statErr := os.Stat(missing); statErr == nil {
		t.Error("rejected run left an output file")
	}

	if _, err := execute(t, "oracle", "-c", citations, "-c", citations, good); err == nil {
		t.Error("-c twice should fail")
	}
	if _, err := execute(t, "oracle"); err == nil {
		t.Error("no arguments should fail")
	}
}

func TestGenerateCommand(t *testing.T) {
	dir := t.TempDir()
	out, err := execute(t, "generate", dir, "--seed", "5", "--count", "2", "--builtin")
	if err != nil {
		t.Fatalf("generate error: %v", err)
	}
	if !strings.Contains(out, "22 fixtures") {
		t.Errorf("output = %q, want 22 fixtures", out)
	}
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, Version) {
		t.Errorf("version output = %q", out)
	}
}
