// Package sources defines the harvest source manifest: which GitHub repos,
// release repos, direct ZIP URLs, and index pages get pulled. A default
// manifest ships embedded; user manifests are schema-validated before use.
package sources

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed manifest.json
var defaultManifest []byte

//go:embed manifest.schema.json
var manifestSchema []byte

// DirectZip is one standalone archive URL with the name used as its
// classification context.
type DirectZip struct {
	URL  string `json:"url"`
	Name string `json:"name"`
}

// Page is an HTML index page to scrape for downloadable links.
type Page struct {
	URL  string `json:"url"`
	Name string `json:"name"`
}

// Manifest is the full set of harvest sources.
type Manifest struct {
	Repos        []string    `json:"repos"`
	ReleaseRepos []string    `json:"release_repos"`
	DirectZips   []DirectZip `json:"direct_zips"`
	Pages        []Page      `json:"pages"`
	SearchTerms  []string    `json:"search_terms"`
}

// ManifestError represents a failure loading or validating a manifest.
type ManifestError struct {
	Path    string
	Message string
	Cause   error
}

func (e *ManifestError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("manifest error (%s): %s: %v", e.Path, e.Message, e.Cause)
	}
	return fmt.Sprintf("manifest error (%s): %s", e.Path, e.Message)
}

func (e *ManifestError) Unwrap() error {
	return e.Cause
}

// Default returns the embedded manifest.
func Default() (*Manifest, error) {
	return parse(defaultManifest, "(embedded)")
}

// Load reads a manifest from disk when path is non-empty, otherwise returns
// the embedded default.
func Load(path string) (*Manifest, error) {
	if path == "" {
		return Default()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ManifestError{Path: path, Message: "failed to read manifest", Cause: err}
	}
	return parse(data, path)
}

func parse(data []byte, path string) (*Manifest, error) {
	if err := validate(data, path); err != nil {
		return nil, err
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, &ManifestError{Path: path, Message: "failed to decode manifest", Cause: err}
	}
	return &m, nil
}

// validate checks the document against the embedded JSON Schema.
func validate(data []byte, path string) error {
	schemaLoader := gojsonschema.NewBytesLoader(manifestSchema)
	documentLoader := gojsonschema.NewBytesLoader(data)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return &ManifestError{Path: path, Message: "schema validation failed during load", Cause: err}
	}
	if result.Valid() {
		return nil
	}

	var sb strings.Builder
	for i, desc := range result.Errors() {
		if i > 0 {
			sb.WriteString("; ")
		}
		field := desc.Field()
		if field == "" {
			field = "(root)"
		}
		sb.WriteString(fmt.Sprintf("%s: %s", field, desc.Description()))
	}
	return &ManifestError{Path: path, Message: sb.String()}
}

// KnownSlugs returns the owner/name slugs already covered by the manifest,
// used to filter search discovery results.
func (m *Manifest) KnownSlugs() map[string]bool {
	known := make(map[string]bool, len(m.Repos)+len(m.ReleaseRepos))
	for _, r := range m.Repos {
		known[strings.ToLower(r)] = true
	}
	for _, r := range m.ReleaseRepos {
		known[strings.ToLower(r)] = true
	}
	return known
}
