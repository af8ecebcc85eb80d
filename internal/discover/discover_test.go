package discover

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tonehub/tonevault/internal/fetch"
)

func TestExtractLinks_FiltersByExtension(t *testing.T) {
	html := `<html><body>
		<a href="/packs/metal.zip">Metal pack</a>
		<a href="irs/room.wav">Room IR</a>
		<a href="amp.nam">Amp capture</a>
		<a href="/docs/readme.html">Docs</a>
		<a href="/about">About</a>
	</body></html>`

	links, err := ExtractLinks(html, "https://tones.example/index.html")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"https://tones.example/packs/metal.zip",
		"https://tones.example/irs/room.wav",
		"https://tones.example/amp.nam",
	}, links)
}

func TestExtractLinks_DeduplicatesAndKeepsAbsolute(t *testing.T) {
	html := `<html><body>
		<a href="https://cdn.example/big.zip">mirror</a>
		<a href="https://cdn.example/big.zip#frag">mirror again</a>
		<a href="/local.ZIP">local</a>
	</body></html>`

	links, err := ExtractLinks(html, "https://tones.example/")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"https://cdn.example/big.zip",
		"https://tones.example/local.ZIP",
	}, links)
}

func TestExtractLinks_InvalidBaseURL(t *testing.T) {
	_, err := ExtractLinks("<a href='x.zip'>x</a>", "not-a-url")
	var extractErr *ExtractionError
	require.ErrorAs(t, err, &extractErr)
}

func TestExtractLinks_EmptyPage(t *testing.T) {
	links, err := ExtractLinks("<html><body></body></html>", "https://tones.example/")
	require.NoError(t, err)
	assert.Empty(t, links)
}

func TestPage_FetchesAndExtracts(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<a href="one.zip">one</a><a href="two.txt">two</a>`)
	}))
	defer server.Close()

	links, err := Page(context.Background(), fetch.New(&fetch.Options{MaxRetries: 0}), server.URL+"/list")
	require.NoError(t, err)
	assert.Equal(t, []string{server.URL + "/one.zip"}, links)
}

func TestPage_NonOKStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	_, err := Page(context.Background(), fetch.New(&fetch.Options{MaxRetries: 0}), server.URL)
	var extractErr *ExtractionError
	require.ErrorAs(t, err, &extractErr)
}
