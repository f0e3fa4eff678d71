package loader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/showcase/internal/config"
)

var (
	// ErrTooLarge is returned when a document exceeds the size limit.
	ErrTooLarge = errors.New("document exceeds size limit")

	// ErrBadStatus is returned for non-2xx HTTP responses.
	ErrBadStatus = errors.New("unexpected HTTP status")

	// ErrUnsafePath is returned for body file names leaving their directory.
	ErrUnsafePath = errors.New("path escapes the files directory")
)

// Fetcher reads source documents and body files. Every read is a single
// attempt.
type Fetcher struct {
	client      *http.Client
	maxBodySize int64
	userAgent   string
}

// FetcherOption configures a Fetcher.
type FetcherOption func(*Fetcher)

// WithHTTPClient sets the client used for remote sources.
func WithHTTPClient(c *http.Client) FetcherOption {
	return func(f *Fetcher) {
		if c != nil {
			f.client = c
		}
	}
}

// WithTimeout sets the timeout of the default HTTP client.
func WithTimeout(d time.Duration) FetcherOption {
	return func(f *Fetcher) {
		if d > 0 {
			f.client = &http.Client{Timeout: d}
		}
	}
}

// WithMaxBodySize caps the size of documents and body files. Zero keeps the
// default.
func WithMaxBodySize(n int64) FetcherOption {
	return func(f *Fetcher) {
		if n > 0 {
			f.maxBodySize = n
		}
	}
}

// WithUserAgent sets the User-Agent header of remote requests.
func WithUserAgent(ua string) FetcherOption {
	return func(f *Fetcher) {
		if ua != "" {
			f.userAgent = ua
		}
	}
}

// NewFetcher returns a Fetcher with the config package defaults.
func NewFetcher(opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		client:      &http.Client{Timeout: config.DefaultTimeout},
		maxBodySize: config.DefaultMaxBodySize,
		userAgent:   config.DefaultUserAgent,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch reads source, an http(s) URL or a file path.
func (f *Fetcher) Fetch(ctx context.Context, source string) ([]byte, error) {
	if strings.TrimSpace(source) == "" {
		return nil, errors.New("empty source")
	}
	if config.IsRemote(source) {
		return f.fetchHTTP(ctx, source)
	}
	return f.readFile(source)
}

func (f *Fetcher) fetchHTTP(ctx context.Context, source string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "application/json, text/plain;q=0.9, */*;q=0.5")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %s", ErrBadStatus, resp.Status)
	}
	return f.readLimited(resp.Body)
}

func (f *Fetcher) readFile(path string) ([]byte, error) {
	file, err := os.Open(path) //nolint:gosec // configured source path
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return f.readLimited(file)
}

func (f *Fetcher) readLimited(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, f.maxBodySize+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > f.maxBodySize {
		return nil, fmt.Errorf("%w (%d bytes)", ErrTooLarge, f.maxBodySize)
	}
	return data, nil
}

// BodyFileLocation joins a body file name to its directory or base URL.
// Names must stay inside the directory.
func BodyFileLocation(dir, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", errors.New("empty body file name")
	}
	if config.IsRemote(dir) {
		if strings.Contains(name, "..") {
			return "", ErrUnsafePath
		}
		return strings.TrimRight(dir, "/") + "/" + url.PathEscape(name), nil
	}
	if !filepath.IsLocal(name) {
		return "", ErrUnsafePath
	}
	return filepath.Join(dir, name), nil
}

// FetchBodies reads one body file per name, at most limit at a time. A
// failed read leaves its body empty and produces a warning instead of
// failing the load. Empty names are skipped.
func (f *Fetcher) FetchBodies(ctx context.Context, dir string, names []string, limit int) ([]string, []string) {
	bodies := make([]string, len(names))
	failures := make([]string, len(names))
	if limit <= 0 {
		limit = config.DefaultBatchSize
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, name := range names {
		if strings.TrimSpace(name) == "" {
			continue
		}
		g.Go(func() error {
			loc, err := BodyFileLocation(dir, name)
			if err == nil {
				var data []byte
				if data, err = f.Fetch(gctx, loc); err == nil {
					bodies[i] = string(data)
					return nil
				}
			}
			failures[i] = fmt.Sprintf("body file %q: %v", name, err)
			return nil
		})
	}
	_ = g.Wait()

	warnings := make([]string, 0)
	for _, w := range failures {
		if w != "" {
			warnings = append(warnings, w)
		}
	}
	return bodies, warnings
}
