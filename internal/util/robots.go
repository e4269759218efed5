package util

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/temoto/robotstxt"
)

// RobotsChecker decides whether a webpage may be fetched directly for its title.
// Parsed robots.txt files are kept per scheme and host for the life of the checker.
type RobotsChecker struct {
	mu        sync.RWMutex
	groups    map[string]*robotstxt.RobotsData
	client    *http.Client
	userAgent string
}

// NewRobotsChecker creates a checker that fetches robots.txt through client
func NewRobotsChecker(client *http.Client, userAgent string) *RobotsChecker {
	if client == nil {
		client = http.DefaultClient
	}
	return &RobotsChecker{
		groups:    make(map[string]*robotstxt.RobotsData),
		client:    client,
		userAgent: userAgent,
	}
}

// CanFetch returns whether rawURL may be fetched and the crawl delay to honor.
// An unreachable robots.txt allows the fetch.
func (r *RobotsChecker) CanFetch(ctx context.Context, rawURL string) (bool, time.Duration, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false, 0, fmt.Errorf("parse URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false, 0, fmt.Errorf("unsupported scheme %q", u.Scheme)
	}

	data, err := r.load(ctx, u.Scheme+"://"+u.Host)
	if err != nil {
		return true, 0, nil
	}

	agent := ProductToken(r.userAgent)
	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	if u.RawQuery != "" {
		path += "?" + u.RawQuery
	}

	var delay time.Duration
	if g := data.FindGroup(agent); g != nil {
		delay = g.CrawlDelay
	}
	return data.TestAgent(path, agent), delay, nil
}

func (r *RobotsChecker) load(ctx context.Context, origin string) (*robotstxt.RobotsData, error) {
	r.mu.RLock()
	data, ok := r.groups[origin]
	r.mu.RUnlock()
	if ok {
		return data, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, origin+"/robots.txt", nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", r.userAgent)

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch robots.txt: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	// FromResponse maps 4xx to allow-all and 5xx to disallow-all
	data, err = robotstxt.FromResponse(resp)
	if err != nil {
		return nil, fmt.Errorf("parse robots.txt: %w", err)
	}

	r.mu.Lock()
	r.groups[origin] = data
	r.mu.Unlock()
	return data, nil
}

// Forget drops every cached robots.txt
func (r *RobotsChecker) Forget() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.groups = make(map[string]*robotstxt.RobotsData)
}

// ProductToken reduces a User-Agent header to the token robots.txt groups match on
func ProductToken(ua string) string {
	fields := strings.Fields(ua)
	if len(fields) == 0 {
		return ua
	}
	product, _, _ := strings.Cut(fields[0], "/")
	return product
}
