package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, doc string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `{
		"output_dir": "/data/tones",
		"workers": 8,
		"rclone_remote": "gdrive:IR_REPOSITORY",
		"verbose": true
	}`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "/data/tones", cfg.OutputDir)
	assert.Equal(t, 8, cfg.Workers)
	assert.Equal(t, "gdrive:IR_REPOSITORY", cfg.RcloneRemote)
	assert.True(t, cfg.Verbose)
}

func TestLoadConfig_EmptyPath(t *testing.T) {
	_, err := LoadConfig("")
	require.Error(t, err)
}

func TestLoadConfig_BadJSON(t *testing.T) {
	path := writeConfig(t, `{not json`)
	_, err := LoadConfig(path)
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	good := &Config{Workers: 4, MaxArchiveMB: 500}
	require.NoError(t, good.Validate())

	tooManyWorkers := &Config{Workers: 100}
	err := tooManyWorkers.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Workers")

	missingManifest := &Config{Manifest: filepath.Join(t.TempDir(), "absent.json")}
	require.Error(t, missingManifest.Validate())
}

func TestMergeWithDefaults(t *testing.T) {
	cfg := Config{OutputDir: "/from/flags", Workers: 2}
	merged := cfg.MergeWithDefaults(Config{
		OutputDir:    "/from/file",
		Workers:      8,
		RcloneRemote: "gdrive:backup",
	})

	assert.Equal(t, "/from/flags", merged.OutputDir)
	assert.Equal(t, 2, merged.Workers)
	assert.Equal(t, "gdrive:backup", merged.RcloneRemote)
}

func TestFinalize_DerivesCachePath(t *testing.T) {
	cfg := Config{OutputDir: "/data/tones"}
	cfg.Finalize()

	assert.Equal(t, filepath.Join("/data/tones", DefaultCacheName), cfg.CacheFile)
	assert.Equal(t, DefaultWorkers, cfg.Workers)
	assert.Equal(t, DefaultMaxArchiveMB, cfg.MaxArchiveMB)
}

func TestFinalize_AllDefaults(t *testing.T) {
	var cfg Config
	cfg.Finalize()

	assert.Equal(t, DefaultOutputDir, cfg.OutputDir)
	assert.Equal(t, int64(500*1024*1024), cfg.MaxArchiveBytes())
}

func TestFromEnv(t *testing.T) {
	t.Setenv("GITHUB_TOKEN", "ghp_test")
	t.Setenv("TONE3000_API_KEY", "t3k_test")
	t.Setenv("RCLONE_REMOTE", "gdrive:IR_REPOSITORY")

	cfg := FromEnv()
	assert.Equal(t, "ghp_test", cfg.GitHubToken)
	assert.Equal(t, "t3k_test", cfg.Tone3000Key)
	assert.Equal(t, "gdrive:IR_REPOSITORY", cfg.RcloneRemote)
}
