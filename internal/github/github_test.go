package github

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tonehub/tonevault/internal/fetch"
)

func newTestClient(apiBase string) *Client {
	return New(fetch.New(&fetch.Options{Timeout: 5 * time.Second, Backoff: time.Millisecond}), apiBase, "")
}

func TestParseRepo(t *testing.T) {
	repo, ok := ParseRepo("GuitarML/Proteus")
	require.True(t, ok)
	assert.Equal(t, "GuitarML", repo.Owner)
	assert.Equal(t, "Proteus", repo.Name)
	assert.Equal(t, "GuitarML/Proteus", repo.Slug())

	for _, bad := range []string{"", "noslash", "/name", "owner/", "a/b/c"} {
		_, ok := ParseRepo(bad)
		assert.False(t, ok, "expected %q to be rejected", bad)
	}
}

func TestArchiveURLs_BranchOrder(t *testing.T) {
	client := newTestClient("")
	urls := client.ArchiveURLs(Repo{Owner: "owner", Name: "repo"})

	require.Len(t, urls, 2)
	assert.Equal(t, "https://github.com/owner/repo/archive/refs/heads/main.zip", urls[0])
	assert.Equal(t, "https://github.com/owner/repo/archive/refs/heads/master.zip", urls[1])
}

func TestReleases(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/GuitarML/Proteus/releases", r.URL.Path)
		_, _ = w.Write([]byte(`[
			{"tag_name": "v1.0", "assets": [
				{"name": "Proteus_Models.zip", "browser_download_url": "https://example.com/models.zip"},
				{"name": "capture.nam", "browser_download_url": "https://example.com/capture.nam"}
			]}
		]`))
	}))
	defer server.Close()

	releases, err := newTestClient(server.URL).Releases(context.Background(), Repo{Owner: "GuitarML", Name: "Proteus"})
	require.NoError(t, err)
	require.Len(t, releases, 1)
	assert.Equal(t, "v1.0", releases[0].TagName)
	require.Len(t, releases[0].Assets, 2)
	assert.Equal(t, "Proteus_Models.zip", releases[0].Assets[0].Name)
}

func TestReleases_NotFoundIsSkippable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Releases(context.Background(), Repo{Owner: "gone", Name: "repo"})
	require.Error(t, err)
	assert.True(t, IsSkippable(err))
}

func TestReleases_ForbiddenIsSkippable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Releases(context.Background(), Repo{Owner: "locked", Name: "repo"})
	require.Error(t, err)
	assert.True(t, IsSkippable(err))
}

func TestSearch_FiltersKnownAndSmall(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search/repositories", r.URL.Path)
		_, _ = w.Write([]byte(`{"items": [
			{"full_name": "new/big-ir-pack", "size": 5000},
			{"full_name": "known/repo", "size": 5000},
			{"full_name": "new/tiny", "size": 10}
		]}`))
	}))
	defer server.Close()

	found := newTestClient(server.URL).Search(context.Background(),
		[]string{"impulse response wav"},
		map[string]bool{"known/repo": true})

	require.Len(t, found, 1)
	assert.Equal(t, "new/big-ir-pack", found[0].Slug())
}

func TestSearch_FailedQuerySkipped(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer server.Close()

	found := newTestClient(server.URL).Search(context.Background(), []string{"q"}, nil)
	assert.Empty(t, found)
}
