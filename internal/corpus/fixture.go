package corpus

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"

	"github.com/cyberphone/json-canonicalization/go/src/webpki.org/jsoncanonicalizer"
)

// Entry is one citation object as written to disk. Mutations may leave it
// with missing keys or values of the wrong type.
type Entry map[string]any

// Clone copies the entry; nested values are never mutated in place
func (e Entry) Clone() Entry {
	return maps.Clone(e)
}

// SortedKeys returns the keys in byte order
func (e Entry) SortedKeys() []string {
	return slices.Sorted(maps.Keys(e))
}

// Document is a citation document
type Document struct {
	Version   int
	Citations []Entry
}

// Clone deep-copies the entry list
func (d Document) Clone() Document {
	out := Document{Version: d.Version, Citations: make([]Entry, len(d.Citations))}
	for i, e := range d.Citations {
		out.Citations[i] = e.Clone()
	}
	return out
}

// Canonical encodes the document as RFC 8785 canonical JSON
func (d Document) Canonical() ([]byte, error) {
	citations := d.Citations
	if citations == nil {
		citations = []Entry{}
	}
	raw, err := json.Marshal(map[string]any{
		"version":   d.Version,
		"citations": citations,
	})
	if err != nil {
		return nil, fmt.Errorf("encode citations: %w", err)
	}
	out, err := jsoncanonicalizer.Transform(raw)
	if err != nil {
		return nil, fmt.Errorf("canonicalize citations: %w", err)
	}
	return out, nil
}

// Fixture is one article and its citation document
type Fixture struct {
	Name     string
	Article  string
	Document Document
}
