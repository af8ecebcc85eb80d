// Package config provides configuration loading and validation for the CLI.
// Precedence is flags over config file over environment over built-in
// defaults; merging happens field by field in MergeWithDefaults.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
)

// Defaults mirrored by the CLI flag definitions.
const (
	DefaultOutputDir    = "/tmp/ir_repository"
	DefaultCacheName    = ".download_cache.json"
	DefaultWorkers      = 4
	DefaultMaxArchiveMB = 500
)

// Config represents the CLI configuration that can be loaded from a JSON file.
// All fields are optional; missing values use defaults or must be provided via CLI flags.
type Config struct {
	// Paths
	OutputDir string `json:"output_dir,omitempty"` // Harvest output root
	CacheFile string `json:"cache_file,omitempty"` // Dedup cache path (default: <output_dir>/.download_cache.json)
	Manifest  string `json:"manifest,omitempty"`   // Source manifest path (default: embedded)

	// Credentials
	GitHubToken  string `json:"github_token,omitempty"`  // Raises the GitHub API rate limit
	Tone3000Key  string `json:"tone3000_key,omitempty"`  // TONE3000 bearer API key
	RcloneRemote string `json:"rclone_remote,omitempty"` // rclone destination, e.g. gdrive:IR_REPOSITORY

	// Limits
	Workers      int `json:"workers,omitempty" validate:"omitempty,min=1,max=32"`      // Concurrent source downloads
	MaxArchiveMB int `json:"max_archive_mb,omitempty" validate:"omitempty,min=1"`      // Per-archive size cap
	MaxPages     int `json:"max_pages,omitempty" validate:"omitempty,min=1,max=10000"` // API pagination cap per source

	// Behavior
	AcceptMetadata bool `json:"accept_metadata,omitempty"` // Also keep .json model metadata files
	Verbose        bool `json:"verbose,omitempty"`         // Print detailed debug information
}

var validate = validator.New()

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// FromEnv returns a Config populated from environment variables. A .env file
// loaded by the CLI entrypoint lands here too.
func FromEnv() Config {
	return Config{
		OutputDir:    os.Getenv("TONEVAULT_OUTPUT_DIR"),
		GitHubToken:  os.Getenv("GITHUB_TOKEN"),
		Tone3000Key:  os.Getenv("TONE3000_API_KEY"),
		RcloneRemote: os.Getenv("RCLONE_REMOTE"),
	}
}

// Validate checks that the configuration has valid values.
// Note: This doesn't check for required fields since those are handled
// by CLI flag validation after merging.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			first := fieldErrs[0]
			return fmt.Errorf("config error: field %q failed %q validation", first.Field(), first.Tag())
		}
		return fmt.Errorf("config error: %w", err)
	}

	if c.Manifest != "" {
		if _, err := os.Stat(c.Manifest); os.IsNotExist(err) {
			return fmt.Errorf("config error: manifest file not found: %s", c.Manifest)
		}
	}

	return nil
}

// MergeWithDefaults returns a new Config with empty fields filled from
// defaults. This is used to apply config file values as defaults for CLI
// flags, and environment values as defaults for both.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	if result.OutputDir == "" {
		result.OutputDir = defaults.OutputDir
	}
	if result.CacheFile == "" {
		result.CacheFile = defaults.CacheFile
	}
	if result.Manifest == "" {
		result.Manifest = defaults.Manifest
	}
	if result.GitHubToken == "" {
		result.GitHubToken = defaults.GitHubToken
	}
	if result.Tone3000Key == "" {
		result.Tone3000Key = defaults.Tone3000Key
	}
	if result.RcloneRemote == "" {
		result.RcloneRemote = defaults.RcloneRemote
	}

	if result.Workers == 0 {
		result.Workers = defaults.Workers
	}
	if result.MaxArchiveMB == 0 {
		result.MaxArchiveMB = defaults.MaxArchiveMB
	}
	if result.MaxPages == 0 {
		result.MaxPages = defaults.MaxPages
	}

	// Bool fields: cannot distinguish unset from false, so we don't merge
	// (CLI flags should always win for bools)

	return result
}

// Finalize fills remaining zero fields with built-in defaults and derives
// the cache path from the output dir when unset.
func (c *Config) Finalize() {
	if c.OutputDir == "" {
		c.OutputDir = DefaultOutputDir
	}
	if c.CacheFile == "" {
		c.CacheFile = filepath.Join(c.OutputDir, DefaultCacheName)
	}
	if c.Workers == 0 {
		c.Workers = DefaultWorkers
	}
	if c.MaxArchiveMB == 0 {
		c.MaxArchiveMB = DefaultMaxArchiveMB
	}
}

// MaxArchiveBytes returns the archive cap in bytes.
func (c *Config) MaxArchiveBytes() int64 {
	return int64(c.MaxArchiveMB) * 1024 * 1024
}
