// Package tone3000 pages through the TONE3000 tone/model API. Auth is a
// bearer API key; 429 waits for Retry-After, 401/403 aborts the source.
package tone3000

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/tonehub/tonevault/internal/fetch"
)

// DefaultBase is the production API root.
const DefaultBase = "https://www.tone3000.com/api/v1"

// DefaultGears are the gear kinds worth harvesting.
var DefaultGears = []string{"amp", "pedal", "full-rig", "ir", "outboard"}

const (
	pageSize = 25
	// maxConsecutiveErrors aborts a gear's pagination when the API keeps
	// failing; protects against burning the whole rate budget on a dead
	// endpoint.
	maxConsecutiveErrors = 15
	modelsPageSize       = 100
)

// AuthError means the API key was rejected; the whole source is abandoned.
type AuthError struct {
	Status int
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("tone3000 auth failed (HTTP %d)", e.Status)
}

// Tone is one published tone listing.
type Tone struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
}

// Model is one downloadable capture belonging to a tone.
type Model struct {
	Name     string `json:"name"`
	ModelURL string `json:"model_url"`
}

type tonePage struct {
	TotalPages int    `json:"total_pages"`
	Data       []Tone `json:"data"`
}

type modelPage struct {
	Data []Model `json:"data"`
}

// Client pages the TONE3000 API.
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

// VisitFunc receives each tone with its models. Returning an error stops the
// walk for the current gear only.
type VisitFunc func(gear string, tone Tone, models []Model) error

// Walk pages every gear's most-downloaded tones up to maxPages per gear,
// fetching the model list for each tone and handing both to visit.
func (c *Client) Walk(ctx context.Context, gears []string, maxPages int, visit VisitFunc) error {
	if len(gears) == 0 {
		gears = DefaultGears
	}
	if maxPages <= 0 {
		maxPages = 500
	}

	for _, gear := range gears {
		if err := c.walkGear(ctx, gear, maxPages, visit); err != nil {
			var authErr *AuthError
			if errors.As(err, &authErr) {
				return err
			}
			// Other gear-level failures abandon that gear only.
			continue
		}
	}
	return nil
}

func (c *Client) walkGear(ctx context.Context, gear string, maxPages int, visit VisitFunc) error {
	consecutive := 0
	totalPages := 1

	for page := 1; page <= totalPages && page <= maxPages; {
		if err := ctx.Err(); err != nil {
			return err
		}
		if consecutive >= maxConsecutiveErrors {
			return fmt.Errorf("tone3000 gear %s: too many consecutive errors", gear)
		}

		urlStr := fmt.Sprintf("%s/tones/search?gear=%s&page=%d&page_size=%d&sort=most-downloaded",
			c.base, gear, page, pageSize)

		var result tonePage
		err := c.fetch.JSON(ctx, urlStr, func(body []byte) error {
			return json.Unmarshal(body, &result)
		})
		if err != nil {
			if authErr := asAuthError(err); authErr != nil {
				return authErr
			}
			consecutive++
			page++
			continue
		}
		consecutive = 0

		if result.TotalPages > 0 {
			totalPages = result.TotalPages
		}
		if len(result.Data) == 0 {
			return nil
		}

		for _, tone := range result.Data {
			models, err := c.Models(ctx, tone.ID)
			if err != nil {
				if authErr := asAuthError(err); authErr != nil {
					return authErr
				}
				continue
			}
			if err := visit(gear, tone, models); err != nil {
				return err
			}
		}
		page++
		pace(ctx)
	}
	return nil
}

// Models lists the downloadable models for one tone.
func (c *Client) Models(ctx context.Context, toneID int64) ([]Model, error) {
	urlStr := fmt.Sprintf("%s/models?tone_id=%d&page=1&page_size=%d", c.base, toneID, modelsPageSize)

	var result modelPage
	err := c.fetch.JSON(ctx, urlStr, func(body []byte) error {
		return json.Unmarshal(body, &result)
	})
	if err != nil {
		return nil, err
	}
	return result.Data, nil
}

// Download fetches one model file into destDir via the shared session, so
// the bearer header and retry policy apply.
func (c *Client) Download(ctx context.Context, modelURL, destDir, fallbackName string) (*fetch.Result, error) {
	return c.fetch.Download(ctx, modelURL, destDir, fallbackName)
}

func asAuthError(err error) *AuthError {
	var fetchErr *fetch.Error
	if errors.As(err, &fetchErr) {
		if fetchErr.StatusCode == http.StatusUnauthorized || fetchErr.StatusCode == http.StatusForbidden {
			return &AuthError{Status: fetchErr.StatusCode}
		}
	}
	return nil
}

// pace sleeps briefly between pages to stay under the API's rate budget.
func pace(ctx context.Context) {
	select {
	case <-ctx.Done():
	case <-time.After(300 * time.Millisecond):
	}
}
