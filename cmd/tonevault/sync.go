package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tonehub/tonevault/internal/config"
	"github.com/tonehub/tonevault/internal/observability"
	"github.com/tonehub/tonevault/internal/rclone"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Push the local repository to the rclone remote",
	Long:  "Copies every category folder of the local repository to the configured rclone remote, then verifies with a remote size report.",
	RunE:  runSync,
}

var (
	syncConfigPath string
	syncOutputDir  string
	syncRemote     string
	syncVerbose    bool
)

func init() {
	syncCmd.Flags().StringVarP(&syncConfigPath, "config", "c", "", "JSON config file path")
	syncCmd.Flags().StringVarP(&syncOutputDir, "out", "o", "", "Local repository directory")
	syncCmd.Flags().StringVarP(&syncRemote, "remote", "r", "", "rclone destination, e.g. gdrive:IR_REPOSITORY")
	syncCmd.Flags().BoolVarP(&syncVerbose, "verbose", "v", false, "Print per-folder progress")

	rootCmd.AddCommand(syncCmd)
}

func runSync(_ *cobra.Command, _ []string) error {
	cfg, err := resolveConfig(syncConfigPath, config.Config{
		OutputDir:    syncOutputDir,
		RcloneRemote: syncRemote,
		Verbose:      syncVerbose,
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

	children, err := os.ReadDir(cfg.OutputDir)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", cfg.OutputDir, err)
	}

	ctx := context.Background()
	synced := 0
	for _, ch := range children {
		if !ch.IsDir() || strings.HasPrefix(ch.Name(), ".") {
			continue
		}
		printer.Info("Syncing %s ...", ch.Name())
		local := filepath.Join(cfg.OutputDir, ch.Name())
		if err := runner.Copy(ctx, local, ch.Name()); err != nil {
			printer.Info("✗ %s: %v", ch.Name(), err)
			continue
		}
		synced++
	}
	if synced == 0 {
		return fmt.Errorf("nothing synced from %s", cfg.OutputDir)
	}

	sizeReport, err := runner.Size(ctx)
	if err != nil {
		sizeReport = fmt.Sprintf("size check failed: %v", err)
	}
	printer.PrintSyncSummary(runner.Remote(), sizeReport)
	return nil
}
