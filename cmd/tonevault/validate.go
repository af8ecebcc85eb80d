package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tonehub/tonevault/internal/config"
	"github.com/tonehub/tonevault/internal/observability"
	"github.com/tonehub/tonevault/internal/validation"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Re-validate every file in the local repository",
	Long:  "Scans the organized repository and re-runs content validation on every tone file. With --prune, corrupt or truncated files are deleted.",
	RunE:  runValidate,
}

var (
	validateConfigPath     string
	validateOutputDir      string
	validatePrune          bool
	validateAcceptMetadata bool
	validateVerbose        bool
)

func init() {
	validateCmd.Flags().StringVarP(&validateConfigPath, "config", "c", "", "JSON config file path")
	validateCmd.Flags().StringVarP(&validateOutputDir, "out", "o", "", "Repository directory to scan")
	validateCmd.Flags().BoolVar(&validatePrune, "prune", false, "Delete files that fail validation")
	validateCmd.Flags().BoolVar(&validateAcceptMetadata, "accept-metadata", false, "Also accept .json model metadata files")
	validateCmd.Flags().BoolVarP(&validateVerbose, "verbose", "v", false, "Print every failing file")

	rootCmd.AddCommand(validateCmd)
}

func runValidate(_ *cobra.Command, _ []string) error {
	cfg, err := resolveConfig(validateConfigPath, config.Config{
		OutputDir:      validateOutputDir,
		AcceptMetadata: validateAcceptMetadata,
		Verbose:        validateVerbose,
	})
	if err != nil {
		return err
	}

	printer := observability.NewPrinter(os.Stdout, cfg.Verbose)
	valOpts := validation.Options{AcceptMetadata: cfg.AcceptMetadata}

	ok, bad, pruned := 0, 0, 0
	err = filepath.Walk(cfg.OutputDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			if strings.HasPrefix(info.Name(), ".") && path != cfg.OutputDir {
				return filepath.SkipDir
			}
			return nil
		}

		ext := strings.ToLower(filepath.Ext(info.Name()))
		if ext != ".wav" && ext != ".nam" && ext != ".json" {
			return nil
		}
		if strings.HasPrefix(info.Name(), ".") {
			return nil
		}

		if validation.IsAcceptableWith(path, valOpts) {
			ok++
			return nil
		}

		bad++
		rel, relErr := filepath.Rel(cfg.OutputDir, path)
		if relErr != nil {
			rel = path
		}
		if validatePrune {
			if err := os.Remove(path); err != nil {
				return fmt.Errorf("failed to prune %s: %w", rel, err)
			}
			pruned++
			printer.Info("✗ pruned %s", rel)
		} else {
			printer.Info("✗ invalid %s", rel)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to scan %s: %w", cfg.OutputDir, err)
	}

	printer.Info("Validated %d files: %d ok, %d invalid, %d pruned", ok+bad, ok, bad, pruned)
	return nil
}
