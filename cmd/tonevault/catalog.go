package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/tonehub/tonevault/internal/catalog"
	"github.com/tonehub/tonevault/internal/config"
	"github.com/tonehub/tonevault/internal/observability"
	"github.com/tonehub/tonevault/internal/rclone"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Generate per-folder catalogs and the master catalog",
	Long:  "Lists the rclone remote, renders a plaintext catalog per folder plus a master index, and uploads them to the remote's _CATALOGS folder.",
	RunE:  runCatalog,
}

var (
	catalogConfigPath string
	catalogRemote     string
	catalogKeepDir    string
	catalogVerbose    bool
)

func init() {
	catalogCmd.Flags().StringVarP(&catalogConfigPath, "config", "c", "", "JSON config file path")
	catalogCmd.Flags().StringVarP(&catalogRemote, "remote", "r", "", "rclone destination, e.g. gdrive:IR_REPOSITORY")
	catalogCmd.Flags().StringVar(&catalogKeepDir, "keep", "", "Also keep generated catalogs in this local directory")
	catalogCmd.Flags().BoolVarP(&catalogVerbose, "verbose", "v", false, "Print per-catalog progress")

	rootCmd.AddCommand(catalogCmd)
}

func runCatalog(_ *cobra.Command, _ []string) error {
	cfg, err := resolveConfig(catalogConfigPath, config.Config{
		RcloneRemote: catalogRemote,
		Verbose:      catalogVerbose,
	})
	if err != nil {
		return err
	}
	if cfg.RcloneRemote == "" {
		return fmt.Errorf("rclone remote required: set --remote flag or RCLONE_REMOTE environment variable")
	}

	printer := observability.NewPrinter(os.Stdout, cfg.Verbose)
	runner := rclone.New(cfg.RcloneRemote, "")
	if !runner.Available() {
		return fmt.Errorf("rclone binary not found in PATH")
	}

	ctx := context.Background()
	printer.Info("Listing %s ...", runner.Remote())
	entries, err := runner.ListFiles(ctx)
	if err != nil {
		return fmt.Errorf("failed to list remote: %w", err)
	}

	destDir := catalogKeepDir
	if destDir == "" {
		tmp, err := os.MkdirTemp("", "tonevault-catalogs-")
		if err != nil {
			return err
		}
		defer func() { _ = os.RemoveAll(tmp) }()
		destDir = tmp
	}

	written, err := catalog.WriteCatalogs(destDir, entries, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to write catalogs: %w", err)
	}

	for _, path := range written {
		printer.Info("Uploading %s", filepath.Base(path))
		if err := runner.Upload(ctx, path, "_CATALOGS"); err != nil {
			return fmt.Errorf("failed to upload %s: %w", filepath.Base(path), err)
		}
	}

	fmt.Printf("Uploaded %d catalogs to %s/_CATALOGS\n", len(written), runner.Remote())
	return nil
}
