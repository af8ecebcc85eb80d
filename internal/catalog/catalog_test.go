package catalog

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tonehub/tonevault/internal/rclone"
)

var catalogTime = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

func sampleEntries() []rclone.Entry {
	return []rclone.Entry{
		{Path: "IR_Guitarra/Marshall_JCM800_4x12.wav", Name: "Marshall_JCM800_4x12.wav", Size: 120044},
		{Path: "IR_Guitarra/Fender_Twin_2x12.wav", Name: "Fender_Twin_2x12.wav", Size: 98012},
		{Path: "NAM_Capturas/Fender_Deluxe.nam", Name: "Fender_Deluxe.nam", Size: 20380},
		{Path: "IR_Bajo/Ampeg_SVT_8x10.wav", Name: "Ampeg_SVT_8x10.wav", Size: 150000},
		{Path: "_CATALOGS/IR_Guitarra_Catalog.txt", Name: "IR_Guitarra_Catalog.txt", Size: 4000},
		{Path: "README_TONEVAULT.txt", Name: "README_TONEVAULT.txt", Size: 2000},
		{Path: "IR_Guitarra/notes.txt", Name: "notes.txt", Size: 120},
	}
}

func TestGroupByFolder(t *testing.T) {
	groups := GroupByFolder(sampleEntries())

	require.Len(t, groups, 3)
	require.Contains(t, groups, "IR_Guitarra")
	assert.Equal(t, 2, groups["IR_Guitarra"].WAVs)
	assert.Equal(t, 0, groups["IR_Guitarra"].NAMs)
	assert.Equal(t, int64(120044+98012), groups["IR_Guitarra"].SizeBytes)
	assert.Equal(t, 1, groups["NAM_Capturas"].NAMs)

	// Meta folders, loose root files, and non-tone files stay out.
	assert.NotContains(t, groups, "_CATALOGS")
	assert.NotContains(t, groups["IR_Guitarra"].Files, "notes.txt")
}

func TestFormatSize(t *testing.T) {
	assert.Equal(t, "512.0 B", FormatSize(512))
	assert.Equal(t, "1.5 KB", FormatSize(1536))
	gb := 48.2 * 1024 * 1024 * 1024
	assert.Equal(t, "48.2 GB", FormatSize(int64(gb)))
}

func TestWriteFolderCatalog(t *testing.T) {
	info := &FolderInfo{
		Files:     []string{"Zeta_Cab.wav", "Alpha_Cab.wav", "Twin_Amp.nam"},
		WAVs:      2,
		NAMs:      1,
		SizeBytes: 3 * 1024 * 1024,
	}

	var buf bytes.Buffer
	require.NoError(t, WriteFolderCatalog(&buf, "IR_Guitarra", info, catalogTime))
	out := buf.String()

	assert.Contains(t, out, "ToneVault — IR_Guitarra Catalog")
	assert.Contains(t, out, "Generated: 2026-03-14 09:30 UTC")
	assert.Contains(t, out, "Total Files: 3")
	assert.Contains(t, out, "Impulse Responses (IR/WAV): 2")
	assert.Contains(t, out, "▸ Impulse Responses (2 files)")
	assert.Contains(t, out, "▸ Neural Amp Models (1 files)")
	// Listing is sorted.
	assert.Less(t, bytes.Index(buf.Bytes(), []byte("Alpha_Cab.wav")), bytes.Index(buf.Bytes(), []byte("Zeta_Cab.wav")))
}

func TestWriteMasterCatalog_SortsByFileCount(t *testing.T) {
	groups := GroupByFolder(sampleEntries())

	var buf bytes.Buffer
	require.NoError(t, WriteMasterCatalog(&buf, groups, catalogTime))
	out := buf.String()

	assert.Contains(t, out, "MASTER CATALOG")
	assert.Contains(t, out, "Total Folders: 3")
	assert.Contains(t, out, "Total Files: 4")
	// IR_Guitarra has the most files so it leads the index.
	assert.Less(t, bytes.Index(buf.Bytes(), []byte("IR_Guitarra")), bytes.Index(buf.Bytes(), []byte("IR_Bajo")))
}

func TestWriteCatalogs(t *testing.T) {
	dir := t.TempDir()

	written, err := WriteCatalogs(dir, sampleEntries(), catalogTime)
	require.NoError(t, err)
	require.Len(t, written, 4)
	assert.Equal(t, filepath.Join(dir, "00_MASTER_CATALOG.txt"), written[3])

	data, err := os.ReadFile(filepath.Join(dir, "IR_Bajo_Catalog.txt"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "Ampeg_SVT_8x10.wav")
}

func TestWriteReadme(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteReadme(&buf, sampleEntries(), catalogTime))
	out := buf.String()

	assert.Contains(t, out, "TONEVAULT — THE ULTIMATE TONE COLLECTION")
	assert.Contains(t, out, "Last Updated: March 14, 2026")
	assert.Contains(t, out, "Total Tone Files:    4")
	assert.Contains(t, out, "Impulse Responses:   3 (.wav)")
	assert.Contains(t, out, "Neural Amp Models:   1 (.nam)")
	assert.Contains(t, out, "• IR_Guitarra")
	assert.NotContains(t, out, "• _CATALOGS") // meta folders never make the index
}
