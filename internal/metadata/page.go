package metadata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/pku-software/docman-homework-judge-action/internal/cache"
	"github.com/pku-software/docman-homework-judge-action/internal/model"
	"github.com/pku-software/docman-homework-judge-action/internal/util"
	"github.com/pku-software/docman-homework-judge-action/internal/worker"
)

// ErrDisallowed is returned when robots.txt forbids fetching a page
var ErrDisallowed = errors.New("fetch disallowed by robots.txt")

// PageResolver reads webpage titles from the pages themselves and sends
// ISBN lookups to another resolver. It backs webpage_source: direct.
type PageResolver struct {
	books      Resolver
	httpClient *http.Client
	userAgent  string
	robots     *util.RobotsChecker
	limiter    *worker.Limiter
	cache      cache.Cache
	cacheTTL   time.Duration
	logger     *slog.Logger
}

// NewPageResolver creates a direct resolver. robots.txt is consulted when
// cfg.RespectRobots is set.
func NewPageResolver(cfg model.MetadataConfig, books Resolver, opts ...Option) *PageResolver {
	o := buildOptions(cfg, "page", opts)
	r := &PageResolver{
		books:      books,
		httpClient: o.httpClient,
		userAgent:  cfg.UserAgent,
		limiter:    o.limiter,
		cache:      o.cache,
		cacheTTL:   o.cacheTTL,
		logger:     o.logger,
	}
	if cfg.RespectRobots {
		r.robots = util.NewRobotsChecker(o.httpClient, cfg.UserAgent)
	}
	return r
}

// Book delegates to the wrapped resolver
func (r *PageResolver) Book(ctx context.Context, isbn string) (Book, bool, error) {
	return r.books.Book(ctx, isbn)
}

// Page fetches rawURL and returns its <title>. A page without a usable
// title, or answering with a non-2xx status, reports ok=false.
func (r *PageResolver) Page(ctx context.Context, rawURL string) (Page, bool, error) {
	key := cache.Key("page", rawURL)
	if body, ok := r.cache.Get(key); ok {
		var p Page
		if err := json.Unmarshal(body, &p); err == nil {
			return p, true, nil
		}
	}

	var delay time.Duration
	if r.robots != nil {
		allowed, crawlDelay, err := r.robots.CanFetch(ctx, rawURL)
		if err != nil {
			return Page{}, false, err
		}
		if !allowed {
			return Page{}, false, fmt.Errorf("%s: %w", rawURL, ErrDisallowed)
		}
		delay = crawlDelay
	}
	if err := r.limiter.WaitWithDelay(ctx, rawURL, delay); err != nil {
		return Page{}, false, fmt.Errorf("rate limit: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return Page{}, false, fmt.Errorf("create request: %w", err)
	}
	if r.userAgent != "" {
		req.Header.Set("User-Agent", r.userAgent)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return Page{}, false, fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		r.logger.Debug("page not available", "url", rawURL, "status", resp.StatusCode)
		return Page{}, false, nil
	}

	title, ok, err := ExtractTitle(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return Page{}, false, fmt.Errorf("parse %s: %w", rawURL, err)
	}
	if !ok {
		return Page{}, false, nil
	}

	p := Page{Title: title}
	if body, err := json.Marshal(p); err == nil {
		if err := r.cache.Set(key, body, r.cacheTTL); err != nil {
			r.logger.Warn("cache write failed", "error", err)
		}
	}
	return p, true, nil
}

// ExtractTitle returns the whitespace-collapsed text of the document's first
// <title> outside inline SVG. ok is false when there is none or it is blank.
func ExtractTitle(rd io.Reader) (string, bool, error) {
	doc, err := html.Parse(rd)
	if err != nil {
		return "", false, err
	}

	var found *html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if found != nil {
			return
		}
		if n.Type == html.ElementNode {
			switch n.DataAtom {
			case atom.Svg:
				return
			case atom.Title:
				found = n
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	if found == nil {
		return "", false, nil
	}

	var b strings.Builder
	for c := found.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
	}
	title := strings.Join(strings.Fields(b.String()), " ")
	return title, title != "", nil
}
