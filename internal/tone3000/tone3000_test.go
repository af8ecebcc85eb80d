package tone3000

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

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	fc := fetch.New(&fetch.Options{
		MaxRetries: 0,
		Headers:    map[string]string{"Authorization": "Bearer test-key"},
	})
	return New(fc, server.URL), server
}

func TestWalk_PagesTonesAndModels(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/tones/search", func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("page") {
		case "1":
			fmt.Fprint(w, `{"total_pages": 2, "data": [{"id": 11, "title": "Plexi Pack"}]}`)
		case "2":
			fmt.Fprint(w, `{"total_pages": 2, "data": [{"id": 22, "title": "Bass Rig"}]}`)
		default:
			fmt.Fprint(w, `{"total_pages": 2, "data": []}`)
		}
	})
	mux.HandleFunc("/models", func(w http.ResponseWriter, r *http.Request) {
		id := r.URL.Query().Get("tone_id")
		fmt.Fprintf(w, `{"data": [{"name": "capture-%s.nam", "model_url": "https://cdn.example/%s.nam"}]}`, id, id)
	})

	client, _ := newTestClient(t, mux)

	var visited []string
	err := client.Walk(context.Background(), []string{"amp"}, 5, func(gear string, tone Tone, models []Model) error {
		require.Len(t, models, 1)
		visited = append(visited, fmt.Sprintf("%s/%s/%s", gear, tone.Title, models[0].Name))
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"amp/Plexi Pack/capture-11.nam", "amp/Bass Rig/capture-22.nam"}, visited)
}

func TestWalk_StopsAtMaxPages(t *testing.T) {
	var pages []string
	mux := http.NewServeMux()
	mux.HandleFunc("/tones/search", func(w http.ResponseWriter, r *http.Request) {
		pages = append(pages, r.URL.Query().Get("page"))
		fmt.Fprint(w, `{"total_pages": 50, "data": [{"id": 1, "title": "T"}]}`)
	})
	mux.HandleFunc("/models", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data": []}`)
	})

	client, _ := newTestClient(t, mux)

	err := client.Walk(context.Background(), []string{"ir"}, 2, func(string, Tone, []Model) error { return nil })
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2"}, pages)
}

func TestWalk_AuthFailureAbortsSource(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/tones/search", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	client, _ := newTestClient(t, mux)

	err := client.Walk(context.Background(), []string{"amp", "pedal"}, 5, func(string, Tone, []Model) error {
		t.Fatal("visit should not run on auth failure")
		return nil
	})
	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, http.StatusUnauthorized, authErr.Status)
}

func TestWalk_ModelFetchFailureSkipsTone(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/tones/search", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"total_pages": 1, "data": [{"id": 1, "title": "Broken"}, {"id": 2, "title": "Whole"}]}`)
	})
	mux.HandleFunc("/models", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("tone_id") == "1" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		fmt.Fprint(w, `{"data": [{"name": "ok.nam", "model_url": "https://cdn.example/ok.nam"}]}`)
	})

	client, _ := newTestClient(t, mux)

	var titles []string
	err := client.Walk(context.Background(), []string{"amp"}, 1, func(_ string, tone Tone, _ []Model) error {
		titles = append(titles, tone.Title)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Whole"}, titles)
}

func TestWalk_EmptyPageEndsGear(t *testing.T) {
	hits := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/tones/search", func(w http.ResponseWriter, r *http.Request) {
		hits++
		fmt.Fprint(w, `{"total_pages": 10, "data": []}`)
	})

	client, _ := newTestClient(t, mux)

	err := client.Walk(context.Background(), []string{"amp"}, 10, func(string, Tone, []Model) error { return nil })
	require.NoError(t, err)
	assert.Equal(t, 1, hits)
}

func TestModels_DecodesList(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/models", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "42", r.URL.Query().Get("tone_id"))
		fmt.Fprint(w, `{"data": [{"name": "a.nam", "model_url": "https://cdn.example/a.nam"}, {"name": "b.nam", "model_url": "https://cdn.example/b.nam"}]}`)
	})

	client, _ := newTestClient(t, mux)

	models, err := client.Models(context.Background(), 42)
	require.NoError(t, err)
	require.Len(t, models, 2)
	assert.Equal(t, "a.nam", models[0].Name)
	assert.Equal(t, "https://cdn.example/b.nam", models[1].ModelURL)
}
