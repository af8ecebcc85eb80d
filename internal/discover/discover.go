// Package discover extracts downloadable capture links from HTML index pages.
package discover

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/tonehub/tonevault/internal/fetch"
)

// downloadableExts are the extensions worth pulling from a listing page.
var downloadableExts = map[string]bool{
	".zip": true,
	".wav": true,
	".nam": true,
}

// ExtractionError represents a failure extracting links from a page.
type ExtractionError struct {
	Message string
	Cause   error
}

func (e *ExtractionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("link extraction error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("link extraction error: %s", e.Message)
}

func (e *ExtractionError) Unwrap() error {
	return e.Cause
}

// ExtractLinks pulls every anchor pointing at a .zip, .wav, or .nam file
// from htmlContent. Relative hrefs are resolved against baseURL; the result
// is deduplicated in first-seen order.
func ExtractLinks(htmlContent string, baseURL string) ([]string, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, &ExtractionError{Message: "failed to parse base URL", Cause: err}
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, &ExtractionError{
			Message: fmt.Sprintf("invalid base URL: %s (must have scheme and host)", baseURL),
		}
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return nil, &ExtractionError{Message: "failed to parse HTML", Cause: err}
	}

	linkSet := make(map[string]bool)
	links := make([]string, 0)

	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, exists := s.Attr("href")
		if !exists || href == "" {
			return
		}

		linkURL, err := url.Parse(href)
		if err != nil {
			return
		}

		absoluteURL := base.ResolveReference(linkURL)
		absoluteURL.Fragment = ""
		urlString := absoluteURL.String()

		if !hasDownloadableExt(absoluteURL.Path) {
			return
		}

		if !linkSet[urlString] {
			linkSet[urlString] = true
			links = append(links, urlString)
		}
	})

	return links, nil
}

func hasDownloadableExt(urlPath string) bool {
	lower := strings.ToLower(urlPath)
	for ext := range downloadableExts {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// Page fetches an index page and returns its downloadable links.
func Page(ctx context.Context, client *fetch.Client, pageURL string) ([]string, error) {
	resp, err := client.Do(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, &ExtractionError{
			Message: fmt.Sprintf("HTTP status %d for %s", resp.StatusCode, pageURL),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ExtractionError{Message: "failed to read page body", Cause: err}
	}

	return ExtractLinks(string(body), pageURL)
}
