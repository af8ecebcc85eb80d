// Package soundwoofer pulls impulse responses from the Soundwoofer library.
// The service is flaky, so a short probe gates the whole source before any
// pagination happens.
package soundwoofer

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/tonehub/tonevault/internal/fetch"
)

// DefaultBase is the public API root.
const DefaultBase = "https://www.soundwoofer.com/api"

const (
	// ProbeTimeout bounds the availability check; the site either answers
	// fast or not at all.
	ProbeTimeout = 3 * time.Second
	maxPages     = 50
	pageLimit    = 100
)

// Impulse is one IR entry. The API has shipped several field spellings for
// the download link over time, so all known ones are decoded.
type Impulse struct {
	ID      string
	Title   string
	Cabinet string
	Speaker string
	URL     string
}

func (im *Impulse) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID          string `json:"id"`
		Title       string `json:"title"`
		Name        string `json:"name"`
		Cabinet     string `json:"cabinet"`
		Speaker     string `json:"speaker"`
		DownloadURL string `json:"downloadUrl"`
		SnakeURL    string `json:"download_url"`
		URL         string `json:"url"`
		File        string `json:"file"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	im.ID = raw.ID
	im.Title = firstNonEmpty(raw.Title, raw.Name)
	im.Cabinet = raw.Cabinet
	im.Speaker = raw.Speaker
	im.URL = firstNonEmpty(raw.DownloadURL, raw.SnakeURL, raw.URL, raw.File)
	return nil
}

// Context is the classification context string for an impulse, in the form
// cabinet/speaker/title with empty segments dropped.
func (im *Impulse) Context() string {
	parts := make([]string, 0, 4)
	parts = append(parts, "soundwoofer")
	for _, p := range []string{im.Cabinet, im.Speaker, im.Title} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, "/")
}

// Client walks the Soundwoofer impulse listing.
type Client struct {
	fetch *fetch.Client
	base  string
}

// New creates a client. base defaults to DefaultBase when empty.
func New(client *fetch.Client, base string) *Client {
	if base == "" {
		base = DefaultBase
	}
	return &Client{fetch: client, base: base}
}

// Available probes the API root and reports whether the source is worth
// walking at all.
func (c *Client) Available(ctx context.Context) bool {
	probeCtx, cancel := context.WithTimeout(ctx, ProbeTimeout)
	defer cancel()

	resp, err := c.fetch.Do(probeCtx, c.base+"/impulses?page=0&limit=1")
	if err != nil {
		return false
	}
	defer func() { _ = resp.Body.Close() }()
	return resp.StatusCode == http.StatusOK
}

// DownloadURL resolves the fetchable URL for an impulse, falling back to the
// per-ID download endpoint when the listing carried no link.
func (c *Client) DownloadURL(im Impulse) string {
	if im.URL != "" {
		return im.URL
	}
	if im.ID != "" {
		return fmt.Sprintf("%s/impulses/%s/download", c.base, im.ID)
	}
	return ""
}

// VisitFunc receives each impulse. Returning an error stops the walk.
type VisitFunc func(im Impulse) error

// Walk pages the impulse listing from page 0 until an empty page, an error,
// or the page cap.
func (c *Client) Walk(ctx context.Context, visit VisitFunc) error {
	for page := 0; page < maxPages; page++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		urlStr := fmt.Sprintf("%s/impulses?page=%d&limit=%d", c.base, page, pageLimit)

		var items []Impulse
		err := c.fetch.JSON(ctx, urlStr, func(body []byte) error {
			return json.Unmarshal(body, &items)
		})
		if err != nil {
			return err
		}
		if len(items) == 0 {
			return nil
		}

		for _, im := range items {
			if c.DownloadURL(im) == "" {
				continue
			}
			if err := visit(im); err != nil {
				return err
			}
		}
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
