package model

import "fmt"

// CaseKind tags the variant held by a TestCase
type CaseKind int

const (
	CaseNormal CaseKind = iota + 1
	CaseMalformed
)

func (k CaseKind) String() string {
	switch k {
	case CaseNormal:
		return "normal"
	case CaseMalformed:
		return "malformed"
	default:
		return fmt.Sprintf("CaseKind(%d)", int(k))
	}
}

// Shape selects how a normal case feeds input and collects output
type Shape int

const (
	ShapeFileToFile Shape = iota + 1
	ShapeFileToStdout
	ShapeStdinToFile
	ShapeStdinToStdout
)

// Shapes lists every invocation shape in the order cases are generated
var Shapes = []Shape{ShapeFileToFile, ShapeFileToStdout, ShapeStdinToFile, ShapeStdinToStdout}

func (s Shape) String() string {
	switch s {
	case ShapeFileToFile:
		return "file>file"
	case ShapeFileToStdout:
		return "file>stdout"
	case ShapeStdinToFile:
		return "stdin>file"
	case ShapeStdinToStdout:
		return "stdin>stdout"
	default:
		return fmt.Sprintf("Shape(%d)", int(s))
	}
}

// ReadsStdin reports whether the article is streamed through standard input
func (s Shape) ReadsStdin() bool {
	return s == ShapeStdinToFile || s == ShapeStdinToStdout
}

// WritesFile reports whether the result goes to an -o destination
func (s Shape) WritesFile() bool {
	return s == ShapeFileToFile || s == ShapeStdinToFile
}

// Expectation is the oracle's verdict for an (article, citations) pair
type Expectation struct {
	Text    string
	Success bool
}

// NormalCase runs the target on an article and a citation document
type NormalCase struct {
	Name         string
	InputPath    string
	CitationPath string
	OutputPath   string // empty: stdout
	Shape        Shape
	Expect       Expectation

	// ExpectErr is set when the expectation could not be computed
	ExpectErr error
}

// Args builds the argument vector: -c citation [-o output] (input|-)
func (c *NormalCase) Args() []string {
	args := []string{"-c", c.CitationPath}
	if c.OutputPath != "" {
		args = append(args, "-o", c.OutputPath)
	}
	if c.Shape.ReadsStdin() {
		args = append(args, "-")
	} else {
		args = append(args, c.InputPath)
	}
	return args
}

// MalformedCase is an argument vector every conforming target must reject
type MalformedCase struct {
	Name string
	Args []string
}

// TestCase holds exactly one of the two case variants, selected by Kind
type TestCase struct {
	Kind      CaseKind
	Normal    *NormalCase
	Malformed *MalformedCase
}

// Normal wraps a normal case
func Normal(c NormalCase) TestCase {
	return TestCase{Kind: CaseNormal, Normal: &c}
}

// Malformed wraps a malformed case
func Malformed(c MalformedCase) TestCase {
	return TestCase{Kind: CaseMalformed, Malformed: &c}
}

// Name returns the case label
func (tc TestCase) Name() string {
	switch tc.Kind {
	case CaseNormal:
		return tc.Normal.Name + " " + tc.Normal.Shape.String()
	case CaseMalformed:
		return tc.Malformed.Name
	default:
		return tc.Kind.String()
	}
}

// Validate checks that the payload matches the tag
func (tc TestCase) Validate() error {
	switch tc.Kind {
	case CaseNormal:
		if tc.Normal == nil || tc.Malformed != nil {
			return fmt.Errorf("normal case must carry exactly a normal payload")
		}
	case CaseMalformed:
		if tc.Malformed == nil || tc.Normal != nil {
			return fmt.Errorf("malformed case must carry exactly a malformed payload")
		}
	default:
		return fmt.Errorf("unknown case kind %d", int(tc.Kind))
	}
	return nil
}
