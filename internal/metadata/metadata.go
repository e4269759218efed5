// Package metadata talks to the bibliographic lookup service that docman
// uses to render book and webpage citations.
//
// Lookups distinguish two kinds of trouble. A response that arrives but lacks
// a required string field reports ok=false, which callers treat like any
// other invalid citation. Failing to get a response at all is an error.
package metadata

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pku-software/docman-homework-judge-action/internal/model"
	"github.com/pku-software/docman-homework-judge-action/internal/worker"
)

// Book is the service's answer for an ISBN
type Book struct {
	Author    string `json:"author"`
	Title     string `json:"title"`
	Publisher string `json:"publisher"`
	Year      string `json:"year"`
}

// Page is the service's answer for a URL
type Page struct {
	Title string `json:"title"`
}

// Resolver resolves remote citation metadata
type Resolver interface {
	Book(ctx context.Context, isbn string) (Book, bool, error)
	Page(ctx context.Context, rawURL string) (Page, bool, error)
}

// Prefetch resolves c through r and discards the answer, leaving it in
// whatever cache r keeps. Local kinds are a no-op.
func Prefetch(ctx context.Context, r Resolver, c model.Citation) error {
	var err error
	switch c.Kind {
	case model.KindBook:
		_, _, err = r.Book(ctx, c.ISBN)
	case model.KindWebpage:
		_, _, err = r.Page(ctx, c.URL)
	}
	return err
}

// Warmer adapts a Resolver to the worker pool's prefetch interface
type Warmer struct {
	Resolver Resolver
}

// Prefetch resolves one citation
func (w Warmer) Prefetch(ctx context.Context, c model.Citation) error {
	return Prefetch(ctx, w.Resolver, c)
}

// New builds the resolver selected by cfg.WebpageSource. Both resolvers
// share one rate limiter unless opts supply their own.
func New(cfg model.MetadataConfig, opts ...Option) (Resolver, error) {
	opts = append([]Option{WithLimiter(worker.NewLimiter(cfg.RequestsPerSecond, cfg.Burst))}, opts...)
	client := NewClient(cfg, opts...)

	switch cfg.WebpageSource {
	case "", model.WebpageSourceService:
		return client, nil
	case model.WebpageSourceDirect:
		return NewPageResolver(cfg, client, opts...), nil
	default:
		return nil, fmt.Errorf("unknown webpage source %q (want %s or %s)",
			cfg.WebpageSource, model.WebpageSourceService, model.WebpageSourceDirect)
	}
}

// decodeBook requires all four fields to be JSON strings
func decodeBook(body []byte) (Book, bool) {
	fields, ok := stringFields(body, "author", "title", "publisher", "year")
	if !ok {
		return Book{}, false
	}
	return Book{
		Author:    fields["author"],
		Title:     fields["title"],
		Publisher: fields["publisher"],
		Year:      fields["year"],
	}, true
}

func decodePage(body []byte) (Page, bool) {
	fields, ok := stringFields(body, "title")
	if !ok {
		return Page{}, false
	}
	return Page{Title: fields["title"]}, true
}

func stringFields(body []byte, keys ...string) (map[string]string, bool) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(body, &obj); err != nil || obj == nil {
		return nil, false
	}

	out := make(map[string]string, len(keys))
	for _, k := range keys {
		raw, ok := obj[k]
		if !ok || !bytes.HasPrefix(bytes.TrimSpace(raw), []byte(`"`)) {
			return nil, false
		}
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, false
		}
		out[k] = s
	}
	return out, true
}

// EscapeSegment percent-encodes everything outside the unreserved set,
// slashes included, so a whole ISBN or URL fits in one path segment.
func EscapeSegment(s string) string {
	const hex = "0123456789ABCDEF"
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isUnreserved(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(hex[c>>4])
		b.WriteByte(hex[c&0x0f])
	}
	return b.String()
}

func isUnreserved(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	case c == '-', c == '.', c == '_', c == '~':
		return true
	}
	return false
}
