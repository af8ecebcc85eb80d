// Package github enumerates harvestable GitHub sources: branch archives,
// release assets and search-discovered repositories. The API is consumed
// read-only; 404 means "try the next branch, else skip", 401/403 means
// "abort this source".
package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tonehub/tonevault/internal/fetch"
)

const (
	// DefaultAPIBase is the GitHub REST API root.
	DefaultAPIBase = "https://api.github.com"
	// DefaultArchiveBase serves branch archive ZIPs.
	DefaultArchiveBase = "https://github.com"

	// maxReleases bounds how many releases are scanned per repository.
	maxReleases = 10
	// maxDiscovered caps repos accepted from search discovery per run.
	maxDiscovered = 30
	// minRepoSizeKB filters search hits too small to hold audio content.
	minRepoSizeKB = 200
)

// branchCandidates are tried in order when downloading a repo archive.
var branchCandidates = []string{"main", "master"}

// APIError represents a GitHub API failure for one source.
type APIError struct {
	Repo    string
	Message string
	Status  int
	Cause   error
}

func (e *APIError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("github error for %s: %s: %v", e.Repo, e.Message, e.Cause)
	}
	return fmt.Sprintf("github error for %s: %s", e.Repo, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Cause
}

// Asset is one downloadable release asset.
type Asset struct {
	Name        string `json:"name"`
	DownloadURL string `json:"browser_download_url"`
}

// Release is one published release with its assets.
type Release struct {
	TagName string  `json:"tag_name"`
	Assets  []Asset `json:"assets"`
}

// Repo identifies one owner/name repository.
type Repo struct {
	Owner string
	Name  string
}

// ParseRepo splits an "owner/name" slug. Malformed slugs yield ok=false.
func ParseRepo(slug string) (Repo, bool) {
	slug = strings.TrimSpace(slug)
	parts := strings.SplitN(slug, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" || strings.Contains(parts[1], "/") {
		return Repo{}, false
	}
	return Repo{Owner: parts[0], Name: parts[1]}, true
}

// Slug returns the owner/name form.
func (r Repo) Slug() string {
	return r.Owner + "/" + r.Name
}

// Client talks to GitHub through the shared fetch session.
type Client struct {
	fetch       *fetch.Client
	apiBase     string
	archiveBase string
}

// New creates a GitHub client. token may be empty; when set it is sent as a
// bearer header to raise rate limits.
func New(client *fetch.Client, apiBase, archiveBase string) *Client {
	if apiBase == "" {
		apiBase = DefaultAPIBase
	}
	if archiveBase == "" {
		archiveBase = DefaultArchiveBase
	}
	return &Client{fetch: client, apiBase: apiBase, archiveBase: archiveBase}
}

// ArchiveURLs returns the branch archive URLs to try, in order.
func (c *Client) ArchiveURLs(repo Repo) []string {
	urls := make([]string, 0, len(branchCandidates))
	for _, branch := range branchCandidates {
		urls = append(urls, fmt.Sprintf("%s/%s/%s/archive/refs/heads/%s.zip",
			c.archiveBase, repo.Owner, repo.Name, branch))
	}
	return urls
}

// Releases lists the most recent releases for a repository. 404/403 return
// an *APIError carrying the status so callers can skip the source.
func (c *Client) Releases(ctx context.Context, repo Repo) ([]Release, error) {
	urlStr := fmt.Sprintf("%s/repos/%s/%s/releases", c.apiBase, repo.Owner, repo.Name)

	var releases []Release
	err := c.fetch.JSON(ctx, urlStr, func(body []byte) error {
		return json.Unmarshal(body, &releases)
	})
	if err != nil {
		return nil, c.wrap(repo.Slug(), "failed to list releases", err)
	}
	if len(releases) > maxReleases {
		releases = releases[:maxReleases]
	}
	return releases, nil
}

type searchResponse struct {
	Items []struct {
		FullName string `json:"full_name"`
		Size     int    `json:"size"`
	} `json:"items"`
}

// Search discovers repositories matching the given queries, excluding slugs
// already present in known. Failed queries are skipped; discovery is a
// best-effort supplement and never fails the phase.
func (c *Client) Search(ctx context.Context, queries []string, known map[string]bool) []Repo {
	found := make([]Repo, 0)
	seen := make(map[string]bool, len(known))
	for k := range known {
		seen[k] = true
	}

	for _, q := range queries {
		urlStr := fmt.Sprintf("%s/search/repositories?q=%s&sort=updated&per_page=30",
			c.apiBase, url.QueryEscape(q))

		var resp searchResponse
		if err := c.fetch.JSON(ctx, urlStr, func(body []byte) error {
			return json.Unmarshal(body, &resp)
		}); err != nil {
			continue
		}

		for _, item := range resp.Items {
			if item.Size <= minRepoSizeKB || seen[item.FullName] {
				continue
			}
			repo, ok := ParseRepo(item.FullName)
			if !ok {
				continue
			}
			seen[item.FullName] = true
			found = append(found, repo)
			if len(found) >= maxDiscovered {
				return found
			}
		}

		// Search endpoints have their own rate budget; pace the queries.
		select {
		case <-ctx.Done():
			return found
		case <-time.After(time.Second):
		}
	}
	return found
}

func (c *Client) wrap(repo, msg string, err error) error {
	var fetchErr *fetch.Error
	status := 0
	if errors.As(err, &fetchErr) {
		status = fetchErr.StatusCode
	}
	return &APIError{Repo: repo, Message: msg, Status: status, Cause: err}
}

// IsSkippable reports whether err is a permanent per-source API failure
// (missing repo, auth refusal) that should skip the source without retry.
func IsSkippable(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status == http.StatusNotFound || apiErr.Status == http.StatusForbidden ||
			apiErr.Status == http.StatusUnauthorized
	}
	return false
}
