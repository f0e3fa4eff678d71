package markdown

import (
	"net/url"
	"strings"

	"github.com/nao1215/showcase/internal/config"
)

// ImageRewriter routes images on some hosts through a proxy. The zero value
// leaves every URL unchanged.
type ImageRewriter struct {
	// Proxy is the URL prefix the escaped original URL is appended to.
	Proxy string
	// Hosts are matched against the image host and its parent domains.
	Hosts []string
}

// NewImageRewriter returns the rewriter described by cfg.
func NewImageRewriter(cfg config.MarkdownConfig) ImageRewriter {
	return ImageRewriter{Proxy: cfg.ImageProxy, Hosts: cfg.RewriteHosts}
}

// Rewrite returns the URL to load raw from.
func (r ImageRewriter) Rewrite(raw string) string {
	if r.Proxy == "" || len(r.Hosts) == 0 {
		return raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.Hostname() == "" {
		return raw
	}
	host := strings.ToLower(u.Hostname())
	for _, h := range r.Hosts {
		h = strings.ToLower(strings.TrimSpace(h))
		if h == "" {
			continue
		}
		if host == h || strings.HasSuffix(host, "."+h) {
			return r.Proxy + url.QueryEscape(raw)
		}
	}
	return raw
}
