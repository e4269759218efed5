// Package oracle computes what a correct docman prints for an article and a
// citation document, or that it must refuse them.
package oracle

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/pku-software/docman-homework-judge-action/internal/metadata"
	"github.com/pku-software/docman-homework-judge-action/internal/model"
)

// ReferencesHeader separates the article from the reference list
const ReferencesHeader = "\n\nReferences:\n"

// Oracle renders expectations. Book and webpage citations are resolved
// through the metadata resolver, one lookup per distinct id.
type Oracle struct {
	resolver metadata.Resolver
}

// New creates an oracle backed by r
func New(r metadata.Resolver) *Oracle {
	return &Oracle{resolver: r}
}

// RenderCitation formats one reference line. ok is false when the lookup
// answer lacks a required field; err reports that no answer was obtained.
func (o *Oracle) RenderCitation(ctx context.Context, c model.Citation) (string, bool, error) {
	switch c.Kind {
	case model.KindArticle:
		return fmt.Sprintf("[%s] article: %s, %s, %s, %s, %s, %s",
			c.ID, c.Author, c.Title, c.Journal, c.Year, c.Volume, c.Issue), true, nil

	case model.KindBook:
		b, ok, err := o.resolver.Book(ctx, c.ISBN)
		if err != nil || !ok {
			return "", false, err
		}
		return fmt.Sprintf("[%s] book: %s, %s, %s, %s",
			c.ID, b.Author, b.Title, b.Publisher, b.Year), true, nil

	case model.KindWebpage:
		p, ok, err := o.resolver.Page(ctx, c.URL)
		if err != nil || !ok {
			return "", false, err
		}
		return fmt.Sprintf("[%s] webpage: %s. Available at %s", c.ID, p.Title, c.URL), true, nil

	default:
		return "", false, nil
	}
}

// Transform computes the expected output for article and a citation document.
// Each bracket occurrence yields one reference line, repeats included, ordered
// by id with ties kept in scan order.
func (o *Oracle) Transform(ctx context.Context, article string, doc []byte) (model.Expectation, error) {
	spans, ok := CheckBracketMatch(article)
	if !ok {
		return model.Expectation{}, nil
	}

	set, ok := CheckCitations(doc)
	if !ok {
		return model.Expectation{}, nil
	}

	cited := make([]model.Citation, 0, len(spans))
	for _, span := range spans {
		c, ok := set.Lookup(span.ID(article))
		if !ok {
			return model.Expectation{}, nil
		}
		cited = append(cited, c)
	}

	sort.SliceStable(cited, func(i, j int) bool {
		return cited[i].ID < cited[j].ID
	})

	rendered := make(map[string]string)
	lines := make([]string, 0, len(cited))
	for _, c := range cited {
		line, seen := rendered[c.ID]
		if !seen {
			var err error
			line, ok, err = o.RenderCitation(ctx, c)
			if err != nil {
				return model.Expectation{}, fmt.Errorf("render %q: %w", c.ID, err)
			}
			if !ok {
				return model.Expectation{}, nil
			}
			rendered[c.ID] = line
		}
		lines = append(lines, line)
	}

	return model.Expectation{
		Text:    article + ReferencesHeader + strings.Join(lines, "\n"),
		Success: true,
	}, nil
}

// TransformFile reads the citation document at citationPath and transforms
// article against it. An unreadable document is an expected failure.
func (o *Oracle) TransformFile(ctx context.Context, article, citationPath string) (model.Expectation, error) {
	doc, err := os.ReadFile(citationPath)
	if err != nil {
		return model.Expectation{}, nil
	}
	return o.Transform(ctx, article, doc)
}
