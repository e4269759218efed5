package corpus

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pku-software/docman-homework-judge-action/internal/model"
	"github.com/pku-software/docman-homework-judge-action/internal/oracle"
)

// MissingName is the fixture name used for paths that never exist
const MissingName = "10086"

// Expecter computes the expected outcome of one fixture
type Expecter interface {
	TransformFile(ctx context.Context, article, citationPath string) (model.Expectation, error)
}

// BuildCases turns fixtures into the full case list: four invocation shapes
// per fixture, six missing-path cases, then the malformed argument vectors.
// Output files are declared under outputDir; scratch receives files the
// malformed cases name.
func BuildCases(ctx context.Context, ex Expecter, files []FixtureFile, outputDir, scratch string) ([]model.TestCase, error) {
	if len(files) == 0 {
		return nil, errors.New("no fixtures to judge")
	}

	var cases []model.TestCase
	for _, f := range files {
		article, err := os.ReadFile(f.InputPath)
		if err != nil {
			return nil, fmt.Errorf("read fixture %s: %w", f.Name, err)
		}
		expect, expectErr := ex.TransformFile(ctx, string(article), f.CitationPath)

		for _, shape := range model.Shapes {
			c := model.NormalCase{
				Name:         f.Name,
				InputPath:    f.InputPath,
				CitationPath: f.CitationPath,
				Shape:        shape,
				Expect:       expect,
				ExpectErr:    expectErr,
			}
			if shape.WritesFile() {
				c.OutputPath = filepath.Join(outputDir, "answer"+f.Name+FixtureExt)
			}
			cases = append(cases, model.Normal(c))
		}
	}

	valid := reference(files)
	cases = append(cases, missingPathCases(valid, outputDir)...)

	for _, m := range MalformedArgs(valid.InputPath, valid.CitationPath, scratch) {
		cases = append(cases, model.Malformed(m))
	}
	return cases, nil
}

// reference picks the fixture used by path and argument cases: "1" when
// present, else the first one
func reference(files []FixtureFile) FixtureFile {
	for _, f := range files {
		if f.Name == "1" {
			return f
		}
	}
	return files[0]
}

func missingPathCases(valid FixtureFile, outputDir string) []model.TestCase {
	missingInput := filepath.Join(filepath.Dir(valid.InputPath), MissingName+FixtureExt)
	missingCitation := filepath.Join(filepath.Dir(valid.CitationPath), MissingName+FixtureExt)
	output := filepath.Join(outputDir, "non-exist"+FixtureExt)

	pairs := []struct {
		name, input, citation string
	}{
		{"missing input", missingInput, valid.CitationPath},
		{"missing citation", valid.InputPath, missingCitation},
		{"missing input and citation", missingInput, missingCitation},
	}

	var cases []model.TestCase
	for _, p := range pairs {
		cases = append(cases,
			model.Normal(model.NormalCase{
				Name: p.name, InputPath: p.input, CitationPath: p.citation,
				Shape: model.ShapeFileToStdout,
			}),
			model.Normal(model.NormalCase{
				Name: p.name, InputPath: p.input, CitationPath: p.citation,
				OutputPath: output, Shape: model.ShapeFileToFile,
			}),
		)
	}
	return cases
}

// MalformedArgs lists argument vectors any conforming docman rejects with exit 1
func MalformedArgs(validInput, validCitation, scratch string) []model.MalformedCase {
	return []model.MalformedCase{
		{Name: "no arguments", Args: []string{}},
		{Name: "stray positional", Args: []string{"stray"}},
		{Name: "two stray positionals", Args: []string{"more", "stray"}},
		{Name: "unrecognized flag", Args: []string{"--unrecognized"}},
		{Name: "unrecognized flag with value", Args: []string{"--dramatic", "unrecognized"}},
		{Name: "-o without value", Args: []string{"-o"}},
		{Name: "-c without value", Args: []string{"-c"}},
		{Name: "-o twice", Args: []string{"-o", filepath.Join(scratch, "a.txt"), "-o", filepath.Join(scratch, "b.txt"), validInput}},
		{Name: "-c twice", Args: []string{"-c", validCitation, "-c", validCitation, validInput}},
	}
}

// RemoteCitations collects the book and webpage entries of every valid
// citation document, for warming the metadata cache
func RemoteCitations(files []FixtureFile) []model.Citation {
	var out []model.Citation
	for _, f := range files {
		doc, err := os.ReadFile(f.CitationPath)
		if err != nil {
			continue
		}
		set, ok := oracle.CheckCitations(doc)
		if !ok {
			continue
		}
		for _, c := range set.Entries() {
			if c.Kind.IsRemote() {
				out = append(out, c)
			}
		}
	}
	return out
}
