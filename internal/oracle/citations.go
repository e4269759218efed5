package oracle

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"strings"

	"github.com/pku-software/docman-homework-judge-action/internal/model"
)

// CheckCitations parses a citation document. Any structural problem, any
// missing or mistyped field in any entry, an unknown kind or a repeated id
// invalidates the whole document.
func CheckCitations(doc []byte) (*model.CitationSet, bool) {
	root, err := decodeStrict(doc)
	if err != nil {
		return nil, false
	}

	obj, ok := root.(map[string]any)
	if !ok {
		return nil, false
	}
	list, ok := obj["citations"].([]any)
	if !ok {
		return nil, false
	}

	entries := make([]model.Citation, 0, len(list))
	for _, raw := range list {
		c, ok := parseCitation(raw)
		if !ok {
			return nil, false
		}
		entries = append(entries, c)
	}

	set, err := model.NewCitationSet(entries)
	if err != nil {
		return nil, false
	}
	return set, true
}

// decodeStrict decodes exactly one JSON value, keeping numbers as literals
func decodeStrict(doc []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(doc))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("trailing data after citation document")
	}
	return v, nil
}

func parseCitation(raw any) (model.Citation, bool) {
	fields, ok := raw.(map[string]any)
	if !ok {
		return model.Citation{}, false
	}

	var c model.Citation
	var kind string
	if c.ID, ok = stringField(fields, "id"); !ok {
		return c, false
	}
	if kind, ok = stringField(fields, "kind"); !ok {
		return c, false
	}
	c.Kind = model.Kind(kind)

	switch c.Kind {
	case model.KindBook:
		c.ISBN, ok = stringField(fields, "isbn")
	case model.KindWebpage:
		c.URL, ok = stringField(fields, "url")
	case model.KindArticle:
		ok = parseArticle(fields, &c)
	default:
		ok = false
	}
	return c, ok
}

func parseArticle(fields map[string]any, c *model.Citation) bool {
	strs := []struct {
		key string
		dst *string
	}{
		{"title", &c.Title},
		{"author", &c.Author},
		{"journal", &c.Journal},
	}
	for _, f := range strs {
		v, ok := stringField(fields, f.key)
		if !ok {
			return false
		}
		*f.dst = v
	}

	ints := []struct {
		key string
		dst *model.Integer
	}{
		{"volume", &c.Volume},
		{"year", &c.Year},
		{"issue", &c.Issue},
	}
	for _, f := range ints {
		v, ok := integerField(fields, f.key)
		if !ok {
			return false
		}
		*f.dst = v
	}
	return true
}

func stringField(fields map[string]any, key string) (string, bool) {
	s, ok := fields[key].(string)
	return s, ok
}

// integerField accepts only integral JSON numbers; 1.0 and 1e3 are rejected
// along with booleans and numeric strings.
func integerField(fields map[string]any, key string) (model.Integer, bool) {
	n, ok := fields[key].(json.Number)
	if !ok {
		return model.Integer{}, false
	}
	lit := n.String()
	if strings.ContainsAny(lit, ".eE") {
		return model.Integer{}, false
	}
	i, err := model.ParseInteger(lit)
	if err != nil {
		return model.Integer{}, false
	}
	return i, true
}
