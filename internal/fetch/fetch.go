// Package fetch provides streaming HTTP downloads with bounded retry.
// This package centralizes the transport policy used by every source client:
// retries happen here, beneath the cache/validator/classifier boundary.
package fetch

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// DefaultTimeout is the default per-request HTTP timeout.
const DefaultTimeout = 5 * time.Minute

// DefaultUserAgent identifies the harvester to upstream hosts.
const DefaultUserAgent = "ToneVault/1.0"

// DefaultMaxRetries bounds transport-level retries for retryable statuses.
const DefaultMaxRetries = 3

// retryableStatuses are the only statuses worth a retry; everything else is
// either success or a permanent failure for this URL.
var retryableStatuses = map[int]bool{
	http.StatusTooManyRequests:     true,
	http.StatusInternalServerError: true,
	http.StatusBadGateway:          true,
	http.StatusServiceUnavailable:  true,
	http.StatusGatewayTimeout:      true,
}

// Error represents a failure fetching a URL.
type Error struct {
	URL        string
	Message    string
	StatusCode int
	Retryable  bool
	// TooLarge marks a download rejected by the size cap before its body
	// was streamed.
	TooLarge bool
	Cause    error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("fetch error for %s: %s: %v", e.URL, e.Message, e.Cause)
	}
	return fmt.Sprintf("fetch error for %s: %s", e.URL, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Options configures fetch behavior.
type Options struct {
	Timeout    time.Duration
	UserAgent  string
	Headers    map[string]string
	MaxRetries int
	Backoff    time.Duration
	// MaxSize rejects downloads whose advertised Content-Length exceeds it,
	// before any body bytes are pulled. Zero means no cap; responses with
	// no Content-Length pass.
	MaxSize int64
}

// DefaultOptions returns the session defaults.
func DefaultOptions() *Options {
	return &Options{
		Timeout:    DefaultTimeout,
		UserAgent:  DefaultUserAgent,
		MaxRetries: DefaultMaxRetries,
		Backoff:    time.Second,
	}
}

// Result describes a completed download.
type Result struct {
	URL         string
	Path        string
	Filename    string
	Size        int64
	StatusCode  int
	ContentType string
}

// Client issues HTTP requests with the session's retry policy. The zero
// value is not usable; construct with New.
type Client struct {
	http *http.Client
	opts *Options
}

// New creates a fetch client. A nil opts uses DefaultOptions.
func New(opts *Options) *Client {
	if opts == nil {
		opts = DefaultOptions()
	}
	if opts.Timeout == 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	return &Client{
		http: &http.Client{Timeout: opts.Timeout},
		opts: opts,
	}
}

// Do issues a GET and returns the raw response. Retryable statuses are
// retried with linear backoff up to MaxRetries; the caller owns the body.
func (c *Client) Do(ctx context.Context, urlStr string) (*http.Response, error) {
	parsed, err := url.Parse(urlStr)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, &Error{URL: urlStr, Message: "invalid URL", Cause: err}
	}

	var resp *http.Response
	for attempt := 0; ; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
		if err != nil {
			return nil, &Error{URL: urlStr, Message: "failed to create request", Cause: err}
		}
		req.Header.Set("User-Agent", c.opts.UserAgent)
		for k, v := range c.opts.Headers {
			req.Header.Set(k, v)
		}

		resp, err = c.http.Do(req)
		if err != nil {
			if attempt < c.opts.MaxRetries && ctx.Err() == nil {
				sleep(ctx, c.backoff(attempt))
				continue
			}
			return nil, &Error{URL: urlStr, Message: "HTTP request failed", Retryable: true, Cause: err}
		}

		if retryableStatuses[resp.StatusCode] && attempt < c.opts.MaxRetries {
			wait := c.backoff(attempt)
			if ra := retryAfter(resp); ra > wait {
				wait = ra
			}
			_ = resp.Body.Close()
			sleep(ctx, wait)
			continue
		}
		return resp, nil
	}
}

// Download streams a URL into destDir and returns the written file. The
// filename comes from Content-Disposition when present, else from the URL
// path, else from fallbackName.
func (c *Client) Download(ctx context.Context, urlStr, destDir, fallbackName string) (*Result, error) {
	resp, err := c.Do(ctx, urlStr)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, &Error{
			URL:        urlStr,
			Message:    fmt.Sprintf("HTTP status %d", resp.StatusCode),
			StatusCode: resp.StatusCode,
			Retryable:  retryableStatuses[resp.StatusCode],
		}
	}

	if c.opts.MaxSize > 0 && resp.ContentLength > c.opts.MaxSize {
		return nil, &Error{
			URL:      urlStr,
			Message:  fmt.Sprintf("response too large: %dMB", resp.ContentLength/1e6),
			TooLarge: true,
		}
	}

	name := filenameFromResponse(resp, urlStr, fallbackName)
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return nil, &Error{URL: urlStr, Message: "failed to create download directory", Cause: err}
	}

	destPath := filepath.Join(destDir, name)
	f, err := os.Create(destPath)
	if err != nil {
		return nil, &Error{URL: urlStr, Message: "failed to create file", Cause: err}
	}

	written, err := io.Copy(f, resp.Body)
	closeErr := f.Close()
	if err != nil {
		_ = os.Remove(destPath)
		return nil, &Error{URL: urlStr, Message: "failed to stream response body", Retryable: true, Cause: err}
	}
	if closeErr != nil {
		_ = os.Remove(destPath)
		return nil, &Error{URL: urlStr, Message: "failed to close file", Cause: closeErr}
	}

	return &Result{
		URL:         urlStr,
		Path:        destPath,
		Filename:    name,
		Size:        written,
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
	}, nil
}

// JSON issues a GET and decodes the body with the provided decode func.
// Non-200 statuses return a fetch *Error carrying the status code.
func (c *Client) JSON(ctx context.Context, urlStr string, decode func([]byte) error) error {
	resp, err := c.Do(ctx, urlStr)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &Error{URL: urlStr, Message: "failed to read response body", Retryable: true, Cause: err}
	}
	if resp.StatusCode != http.StatusOK {
		return &Error{
			URL:        urlStr,
			Message:    fmt.Sprintf("HTTP status %d", resp.StatusCode),
			StatusCode: resp.StatusCode,
			Retryable:  retryableStatuses[resp.StatusCode],
		}
	}
	if err := decode(body); err != nil {
		return &Error{URL: urlStr, Message: "failed to decode response", Cause: err}
	}
	return nil
}

func (c *Client) backoff(attempt int) time.Duration {
	base := c.opts.Backoff
	if base == 0 {
		base = time.Second
	}
	return base * time.Duration(attempt+1)
}

func retryAfter(resp *http.Response) time.Duration {
	v := resp.Header.Get("Retry-After")
	if v == "" {
		return 0
	}
	secs, err := strconv.Atoi(v)
	if err != nil || secs < 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

func sleep(ctx context.Context, d time.Duration) {
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}

// filenameFromResponse derives a safe local filename for a download.
func filenameFromResponse(resp *http.Response, urlStr, fallback string) string {
	if cd := resp.Header.Get("Content-Disposition"); cd != "" {
		if _, params, err := mime.ParseMediaType(cd); err == nil {
			if fn := sanitizeFilename(params["filename"]); fn != "" {
				return fn
			}
		}
	}
	if parsed, err := url.Parse(urlStr); err == nil {
		if fn := sanitizeFilename(path.Base(parsed.Path)); fn != "" && fn != "/" && fn != "." {
			if decoded, err := url.PathUnescape(fn); err == nil {
				return decoded
			}
			return fn
		}
	}
	return fallback
}

func sanitizeFilename(name string) string {
	name = strings.TrimSpace(name)
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	return strings.Trim(name, ". ")
}
