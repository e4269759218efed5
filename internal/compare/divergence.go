package compare

import (
	"fmt"
	"strconv"
	"strings"
)

// EOF stands in for the character of an exhausted string
const EOF = "<EOF>"

// window is how many runes of context surround a divergence
const window = 5

// Divergence is the first point where two strings disagree, in runes
type Divergence struct {
	Index    int
	Expected string
	Actual   string
}

// Locate finds where actual departs from expected. When one is a prefix of
// the other, Index is the shorter length and the shorter side reports EOF.
func Locate(expected, actual string) Divergence {
	e, a := []rune(expected), []rune(actual)
	n := min(len(e), len(a))
	for i := 0; i < n; i++ {
		if e[i] != a[i] {
			return Divergence{Index: i, Expected: string(e[i]), Actual: string(a[i])}
		}
	}
	return Divergence{Index: n, Expected: at(e, n), Actual: at(a, n)}
}

func at(r []rune, i int) string {
	if i >= len(r) {
		return EOF
	}
	return string(r[i])
}

// MismatchDiagnostic shows the actual output with the runes around the
// divergence set off by >>> and <<<, then the expected output, the two
// characters and the article input.
func MismatchDiagnostic(d Divergence, expected, actual, input string) string {
	a := []rune(actual)
	lo := max(d.Index-window, 0)
	hi := min(d.Index+window, len(a))

	var b strings.Builder
	b.WriteString(ReasonMismatch + "\n")
	fmt.Fprintf(&b, "Output [mismatch in %d]:\n", d.Index)
	b.WriteString(string(a[:lo]))
	b.WriteString(">>>" + string(a[lo:hi]) + "<<<")
	b.WriteString(string(a[hi:]))
	b.WriteString("\nExpect output:\n")
	b.WriteString(expected)
	fmt.Fprintf(&b, "\nexpect %s, get %s\n", quote(d.Expected), quote(d.Actual))
	b.WriteString("Input:\n")
	b.WriteString(input)
	return b.String()
}

func quote(s string) string {
	if s == EOF {
		return s
	}
	return strconv.Quote(s)
}
