// Package main implements the tonevault CLI.
package main

import (
	"fmt"

	"github.com/tonehub/tonevault/internal/config"
)

// resolveConfig merges flag values over an optional config file over
// environment variables, finalizes defaults, and validates the result.
func resolveConfig(configPath string, flags config.Config) (*config.Config, error) {
	merged := flags
	if configPath != "" {
		fileCfg, err := config.LoadConfig(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		merged = merged.MergeWithDefaults(*fileCfg)
	}
	merged = merged.MergeWithDefaults(config.FromEnv())
	merged.Finalize()

	if err := merged.Validate(); err != nil {
		return nil, err
	}
	return &merged, nil
}
