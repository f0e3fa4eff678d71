package crawler

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/showcase/internal/model"
)

// LinkTarget is a URL referenced by a record.
type LinkTarget struct {
	// RecordID is the record the URL came from.
	RecordID int
	// URL is the absolute http(s) URL to check.
	URL string
}

// LinkResult is the outcome of checking one target.
type LinkResult struct {
	RecordID   int    `json:"record_id"`
	URL        string `json:"url"`
	StatusCode int    `json:"status_code,omitempty"`
	OK         bool   `json:"ok"`
	Err        string `json:"error,omitempty"`
}

// LinkChecker requests URLs and reports whether they answer.
type LinkChecker struct {
	client *http.Client

	// concurrency bounds parallel requests.
	concurrency int

	// delay is waited before each request.
	delay time.Duration

	userAgent   string
	maxBodySize int64

	// ignorePatterns are URL path globs that are never requested.
	ignorePatterns []string

	// results caches outcomes by normalized URL.
	results map[string]LinkResult
	mutex   sync.Mutex
}

// LinkCheckerOption configures a LinkChecker.
type LinkCheckerOption func(*LinkChecker)

// WithConcurrency sets the number of parallel requests.
func WithConcurrency(n int) LinkCheckerOption {
	return func(c *LinkChecker) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

// WithDelay sets the delay before each request.
func WithDelay(d time.Duration) LinkCheckerOption {
	return func(c *LinkChecker) {
		c.delay = d
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) LinkCheckerOption {
	return func(c *LinkChecker) {
		c.userAgent = ua
	}
}

// WithMaxBodySize caps how much of a GET response is read.
func WithMaxBodySize(size int64) LinkCheckerOption {
	return func(c *LinkChecker) {
		c.maxBodySize = size
	}
}

// WithIgnorePatterns sets URL path globs that are skipped, e.g. "*.pdf".
func WithIgnorePatterns(patterns []string) LinkCheckerOption {
	return func(c *LinkChecker) {
		c.ignorePatterns = patterns
	}
}

// NewLinkChecker returns a checker using client.
func NewLinkChecker(client *http.Client, opts ...LinkCheckerOption) *LinkChecker {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	c := &LinkChecker{
		client:      client,
		concurrency: 8,
		userAgent:   "showcase-linkcheck/1.0",
		maxBodySize: 64 * 1024,
		results:     make(map[string]LinkResult),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// TargetsFromRecords collects the URL of each record plus the links found in
// HTML bodies. Non-http(s) targets are dropped.
func TargetsFromRecords(records []model.Record) []LinkTarget {
	targets := make([]LinkTarget, 0, len(records))
	for _, r := range records {
		if isHTTP(r.URL) {
			targets = append(targets, LinkTarget{RecordID: r.ID, URL: r.URL})
		}
		if !strings.Contains(r.Body, "<a") {
			continue
		}
		parser, err := NewParser(r.URL)
		if err != nil {
			continue
		}
		result, err := parser.Parse(strings.NewReader(r.Body))
		if err != nil {
			continue
		}
		for _, link := range result.Links {
			if isHTTP(link) {
				targets = append(targets, LinkTarget{RecordID: r.ID, URL: link})
			}
		}
	}
	return targets
}

// CheckAll checks targets in parallel and returns results in target order.
// Ignored targets are left out. The error is non-nil only when ctx ends.
func (c *LinkChecker) CheckAll(ctx context.Context, targets []LinkTarget) ([]LinkResult, error) {
	results := make([]LinkResult, len(targets))
	skipped := make([]bool, len(targets))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)

	for i, target := range targets {
		if !c.shouldCheck(target.URL) {
			skipped[i] = true
			continue
		}
		g.Go(func() error {
			if err := c.wait(ctx); err != nil {
				return err
			}
			res := c.Check(ctx, target.URL)
			res.RecordID = target.RecordID
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]LinkResult, 0, len(results))
	for i, r := range results {
		if !skipped[i] {
			out = append(out, r)
		}
	}
	return out, nil
}

// Check requests one URL. HEAD is tried first; servers refusing HEAD get a
// GET. Results are cached per normalized URL.
func (c *LinkChecker) Check(ctx context.Context, target string) LinkResult {
	key := normalizeURL(target)
	c.mutex.Lock()
	if cached, ok := c.results[key]; ok {
		c.mutex.Unlock()
		cached.URL = target
		return cached
	}
	c.mutex.Unlock()

	res := LinkResult{URL: target}
	status, err := c.request(ctx, http.MethodHead, target)
	if err == nil && (status == http.StatusMethodNotAllowed || status == http.StatusNotImplemented) {
		status, err = c.request(ctx, http.MethodGet, target)
	}
	if err != nil {
		res.Err = err.Error()
	} else {
		res.StatusCode = status
		res.OK = status >= 200 && status < 400
		if !res.OK {
			res.Err = fmt.Sprintf("status %d", status)
		}
	}

	c.mutex.Lock()
	c.results[key] = res
	c.mutex.Unlock()
	return res
}

func (c *LinkChecker) request(ctx context.Context, method, target string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, method, target, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	if method == http.MethodGet {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, c.maxBodySize))
	}
	return resp.StatusCode, nil
}

func (c *LinkChecker) wait(ctx context.Context) error {
	if c.delay <= 0 {
		return ctx.Err()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(c.delay):
		return nil
	}
}

// Reset clears cached results.
func (c *LinkChecker) Reset() {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.results = make(map[string]LinkResult)
}

// shouldCheck reports whether target passes the ignore patterns.
func (c *LinkChecker) shouldCheck(target string) bool {
	u, err := url.Parse(target)
	if err != nil {
		return false
	}
	path := u.Path
	if path == "" {
		path = "/"
	}
	for _, pattern := range c.ignorePatterns {
		if matchPattern(pattern, path) {
			return false
		}
	}
	return true
}

// normalizeURL drops the fragment and lower-cases scheme and host so the
// same page is requested once.
func normalizeURL(target string) string {
	u, err := url.Parse(target)
	if err != nil {
		return target
	}
	u.Fragment = ""
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	if u.Path == "" {
		u.Path = "/"
	}
	return u.String()
}

func isHTTP(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// matchPattern reports whether path matches a glob. "/dir/*" matches
// everything below dir and "*.ext" matches by extension.
func matchPattern(pattern, path string) bool {
	if strings.HasSuffix(pattern, "/*") {
		prefix := strings.TrimSuffix(pattern, "/*")
		if strings.HasPrefix(path, prefix+"/") || path == prefix {
			return true
		}
	}
	if strings.HasPrefix(pattern, "*.") && strings.HasSuffix(path, strings.TrimPrefix(pattern, "*")) {
		return true
	}
	if matched, err := filepath.Match(pattern, path); err == nil && matched {
		return true
	}
	if strings.Contains(pattern, "*") && !strings.Contains(pattern, "/") {
		if matched, err := filepath.Match(pattern, filepath.Base(path)); err == nil && matched {
			return true
		}
	}
	return false
}
