package model

import (
	"fmt"
	"math/big"
)

// Kind is the type tag of a citation entry
type Kind string

const (
	KindBook    Kind = "book"
	KindWebpage Kind = "webpage"
	KindArticle Kind = "article"
)

// IsRemote reports whether rendering the kind needs a metadata lookup
func (k Kind) IsRemote() bool {
	return k == KindBook || k == KindWebpage
}

// Integer is an integral JSON number kept as its decimal literal.
// Values are unbounded, matching what a citation document may carry.
type Integer struct {
	literal string
}

// ParseInteger parses a JSON integer literal. Fractions and exponents are rejected.
func ParseInteger(literal string) (Integer, error) {
	n, ok := new(big.Int).SetString(literal, 10)
	if !ok {
		return Integer{}, fmt.Errorf("not an integer: %q", literal)
	}
	return Integer{literal: n.String()}, nil
}

// IntegerOf wraps a machine integer
func IntegerOf(v int64) Integer {
	return Integer{literal: big.NewInt(v).String()}
}

// String renders the normalized decimal form ("-0" becomes "0")
func (i Integer) String() string {
	if i.literal == "" {
		return "0"
	}
	return i.literal
}

// Citation is one bibliographic entry of a citation document
type Citation struct {
	ID   string `json:"id"`
	Kind Kind   `json:"kind"`

	// book
	ISBN string `json:"isbn,omitempty"`

	// webpage
	URL string `json:"url,omitempty"`

	// article
	Title   string  `json:"title,omitempty"`
	Author  string  `json:"author,omitempty"`
	Journal string  `json:"journal,omitempty"`
	Volume  Integer `json:"-"`
	Year    Integer `json:"-"`
	Issue   Integer `json:"-"`
}

// CitationSet is a parsed citation document, ordered as written and indexed by id
type CitationSet struct {
	entries []Citation
	byID    map[string]int
}

// NewCitationSet builds a set, rejecting duplicate ids
func NewCitationSet(entries []Citation) (*CitationSet, error) {
	set := &CitationSet{
		entries: make([]Citation, len(entries)),
		byID:    make(map[string]int, len(entries)),
	}
	copy(set.entries, entries)

	for i, c := range set.entries {
		if _, dup := set.byID[c.ID]; dup {
			return nil, fmt.Errorf("duplicate citation id %q", c.ID)
		}
		set.byID[c.ID] = i
	}
	return set, nil
}

// Lookup returns the citation with the given id
func (s *CitationSet) Lookup(id string) (Citation, bool) {
	i, ok := s.byID[id]
	if !ok {
		return Citation{}, false
	}
	return s.entries[i], true
}

// Len returns the number of citations
func (s *CitationSet) Len() int {
	return len(s.entries)
}

// Entries returns a copy of the citations in document order
func (s *CitationSet) Entries() []Citation {
	out := make([]Citation, len(s.entries))
	copy(out, s.entries)
	return out
}

// ReferenceSpan is a matched bracket pair in an article.
// Open and Close are byte offsets of '[' and ']'.
type ReferenceSpan struct {
	Open  int
	Close int
}

// ID returns the text enclosed by the span
func (r ReferenceSpan) ID(article string) string {
	return article[r.Open+1 : r.Close]
}
