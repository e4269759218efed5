package oracle

import "github.com/pku-software/docman-homework-judge-action/internal/model"

// CheckBracketMatch pairs every ']' with the latest unmatched '['.
// Spans come back in the order their closing bracket appears. A ']' with
// nothing open, or a '[' left open at the end, fails the article.
func CheckBracketMatch(article string) ([]model.ReferenceSpan, bool) {
	var open []int
	var spans []model.ReferenceSpan

	for i := 0; i < len(article); i++ {
		switch article[i] {
		case '[':
			open = append(open, i)
		case ']':
			if len(open) == 0 {
				return nil, false
			}
			last := open[len(open)-1]
			open = open[:len(open)-1]
			spans = append(spans, model.ReferenceSpan{Open: last, Close: i})
		}
	}

	if len(open) != 0 {
		return nil, false
	}
	return spans, true
}
