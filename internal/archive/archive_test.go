package archive

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildZip(t *testing.T, entries map[string][]byte) string {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, data := range entries {
		f, err := w.Create(name)
		require.NoError(t, err)
		_, err = f.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	path := filepath.Join(t.TempDir(), "test.zip")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path
}

func TestExtractZip(t *testing.T) {
	zipPath := buildZip(t, map[string][]byte{
		"cabs/marshall.wav": []byte("wav data"),
		"models/amp.nam":    []byte("nam data"),
	})

	dest := t.TempDir()
	require.NoError(t, ExtractZip(zipPath, dest))

	data, err := os.ReadFile(filepath.Join(dest, "cabs", "marshall.wav"))
	require.NoError(t, err)
	assert.Equal(t, "wav data", string(data))
}

func TestExtractZip_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.zip")
	require.NoError(t, os.WriteFile(path, []byte("this is not a zip"), 0o644))

	err := ExtractZip(path, t.TempDir())
	require.Error(t, err)

	var extractErr *ExtractError
	assert.ErrorAs(t, err, &extractErr)
}

func TestExtractZip_PathTraversal(t *testing.T) {
	zipPath := buildZip(t, map[string][]byte{
		"../escape.wav": []byte("nope"),
	})

	err := ExtractZip(zipPath, t.TempDir())
	require.Error(t, err)
}

func TestWalkCandidates(t *testing.T) {
	root := t.TempDir()
	files := map[string]string{
		"a/one.wav":           "x",
		"a/two.WAV":           "x",
		"b/model.nam":         "x",
		"b/readme.txt":        "x",
		".git/hidden.wav":     "x",
		"__MACOSX/._junk.wav": "x",
	}
	for name, data := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
	}

	var seen []string
	exts := map[string]bool{".wav": true, ".nam": true}
	err := WalkCandidates(root, exts, func(_, rel string) error {
		seen = append(seen, filepath.ToSlash(rel))
		return nil
	})
	require.NoError(t, err)

	sort.Strings(seen)
	assert.Equal(t, []string{"a/one.wav", "a/two.WAV", "b/model.nam"}, seen)
}
