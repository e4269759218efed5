package corpus

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

// FixtureExt is the extension of article and citation files
const FixtureExt = ".txt"

//go:embed data
var builtin embed.FS

// FixtureFile locates one fixture on disk
type FixtureFile struct {
	Name         string
	InputPath    string
	CitationPath string
}

// WriteFixtures stores each fixture as inputDir/<name>.txt (raw article) and
// citationDir/<name>.txt (canonical JSON)
func WriteFixtures(inputDir, citationDir string, fixtures []Fixture) error {
	for _, dir := range []string{inputDir, citationDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create fixture dir: %w", err)
		}
	}

	for _, f := range fixtures {
		doc, err := f.Document.Canonical()
		if err != nil {
			return fmt.Errorf("fixture %s: %w", f.Name, err)
		}
		if err := os.WriteFile(filepath.Join(inputDir, f.Name+FixtureExt), []byte(f.Article), 0o644); err != nil {
			return fmt.Errorf("write input %s: %w", f.Name, err)
		}
		if err := os.WriteFile(filepath.Join(citationDir, f.Name+FixtureExt), doc, 0o644); err != nil {
			return fmt.Errorf("write citations %s: %w", f.Name, err)
		}
	}
	return nil
}

// LoadFixtures pairs every *.txt in inputDir with the same name in citationDir.
// Results are sorted by name; a missing sibling is an error.
func LoadFixtures(inputDir, citationDir string) ([]FixtureFile, error) {
	inputDir, err := filepath.Abs(inputDir)
	if err != nil {
		return nil, err
	}
	citationDir, err = filepath.Abs(citationDir)
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(inputDir)
	if err != nil {
		return nil, fmt.Errorf("read input dir: %w", err)
	}

	var files []FixtureFile
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), FixtureExt) {
			continue
		}
		f := FixtureFile{
			Name:         strings.TrimSuffix(e.Name(), FixtureExt),
			InputPath:    filepath.Join(inputDir, e.Name()),
			CitationPath: filepath.Join(citationDir, e.Name()),
		}
		info, err := os.Stat(f.CitationPath)
		if err != nil {
			return nil, fmt.Errorf("fixture %s has no citation file: %w", f.Name, err)
		}
		if info.IsDir() {
			return nil, fmt.Errorf("fixture %s: %s is a directory", f.Name, f.CitationPath)
		}
		files = append(files, f)
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}

// Materialize copies the fixtures compiled into the binary to
// dir/inputs and dir/citations and returns those two directories
func Materialize(dir string) (inputDir, citationDir string, err error) {
	inputDir = filepath.Join(dir, "inputs")
	citationDir = filepath.Join(dir, "citations")

	for _, sub := range []string{"inputs", "citations"} {
		if err := CopyDir(builtin, "data/"+sub, filepath.Join(dir, sub)); err != nil {
			return "", "", err
		}
	}
	return inputDir, citationDir, nil
}

// CopyDir copies the regular files directly under root in fsys to dst
func CopyDir(fsys fs.FS, root, dst string) error {
	if err := os.MkdirAll(dst, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dst, err)
	}
	entries, err := fs.ReadDir(fsys, root)
	if err != nil {
		return fmt.Errorf("read %s: %w", root, err)
	}
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		data, err := fs.ReadFile(fsys, path.Join(root, e.Name()))
		if err != nil {
			return fmt.Errorf("read %s: %w", e.Name(), err)
		}
		if err := os.WriteFile(filepath.Join(dst, e.Name()), data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", e.Name(), err)
		}
	}
	return nil
}
