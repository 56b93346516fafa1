// Package fetcher downloads pages submitted as bookmarks and extracts the
// title and readable text stored with them.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/mrlokans/bookmarks/internal/config"
)

var (
	ErrInvalidURL = errors.New("invalid url")
	ErrBadStatus  = errors.New("unexpected response status")
)

// Page is what a bookmark is built from.
type Page struct {
	URL         string
	Domain      string
	Title       string
	TextContent string
}

// Fetcher retrieves pages over HTTP. A single limiter is shared by all
// workers so the service stays polite under bursts of submissions.
type Fetcher struct {
	httpClient   *http.Client
	rateLimiter  *rate.Limiter
	userAgent    string
	maxBodyBytes int64
}

// New creates a fetcher from configuration.
func New(cfg config.Fetcher) *Fetcher {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = config.DefaultUserAgent
	}
	maxBody := cfg.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = 5 << 20
	}

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}

	return &Fetcher{
		httpClient:   &http.Client{Timeout: timeout},
		rateLimiter:  rate.NewLimiter(limit, 1),
		userAgent:    userAgent,
		maxBodyBytes: maxBody,
	}
}

// Domain returns the host of rawURL without a leading "www.".
func Domain(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return "", fmt.Errorf("%w: %q", ErrInvalidURL, rawURL)
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www."), nil
}

// Fetch downloads rawURL. Non-HTML responses produce a Page titled with the
// URL and no text.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*Page, error) {
	domain, err := Domain(rawURL)
	if err != nil {
		return nil, err
	}

	if err := f.rateLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.5")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %s returned %d", ErrBadStatus, rawURL, resp.StatusCode)
	}

	page := &Page{URL: rawURL, Domain: domain, Title: rawURL}
	if !isHTML(resp.Header.Get("Content-Type")) {
		return page, nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rawURL, err)
	}

	title, text, err := extract(body)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", rawURL, err)
	}
	if title != "" {
		page.Title = title
	}
	page.TextContent = text
	return page, nil
}

func isHTML(contentType string) bool {
	if contentType == "" {
		// Servers that omit it are almost always serving HTML.
		return true
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == "text/html" || mediaType == "application/xhtml+xml"
}
