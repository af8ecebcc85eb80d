package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteLocalDocs(t *testing.T) {
	out := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(out, "IR_Guitarra"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(out, "NAM_Capturas"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(out, ".cache"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(out, "IR_Guitarra", "a.wav"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(out, "IR_Guitarra", "b.wav"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(out, "IR_Guitarra", "skip.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(out, "NAM_Capturas", "c.nam"), []byte("x"), 0o644))

	total, err := WriteLocalDocs(out, catalogTime)
	require.NoError(t, err)
	assert.Equal(t, 3, total)

	data, err := os.ReadFile(filepath.Join(out, "README.md"))
	require.NoError(t, err)
	md := string(data)
	assert.Contains(t, md, "> **3** files (.wav + .nam)")
	assert.Contains(t, md, "| IR_Guitarra | 2 |")
	assert.Contains(t, md, "| **TOTAL** | **3** |")
	assert.Contains(t, md, "*Last updated: 2026-03-14 09:30 UTC*")
	assert.NotContains(t, md, ".cache")
}
