package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tonehub/tonevault/internal/catalog"
	"github.com/tonehub/tonevault/internal/config"
	"github.com/tonehub/tonevault/internal/observability"
	"github.com/tonehub/tonevault/internal/rclone"
)

var packsCmd = &cobra.Command{
	Use:   "packs",
	Short: "Build and upload curated themed ZIP packs",
	Long:  "Matches remote files against themed keyword sets, assembles up to 120 files per pack with a README, zips each pack, and uploads the archives to the remote's _CURATED_RIGS folder.",
	RunE:  runPacks,
}

var (
	packsConfigPath string
	packsRemote     string
	packsVerbose    bool
)

func init() {
	packsCmd.Flags().StringVarP(&packsConfigPath, "config", "c", "", "JSON config file path")
	packsCmd.Flags().StringVarP(&packsRemote, "remote", "r", "", "rclone destination, e.g. gdrive:IR_REPOSITORY")
	packsCmd.Flags().BoolVarP(&packsVerbose, "verbose", "v", false, "Print per-pack progress")

	rootCmd.AddCommand(packsCmd)
}

func runPacks(_ *cobra.Command, _ []string) error {
	cfg, err := resolveConfig(packsConfigPath, config.Config{
		RcloneRemote: packsRemote,
		Verbose:      packsVerbose,
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

	workDir, err := os.MkdirTemp("", "tonevault-packs-")
	if err != nil {
		return err
	}
	defer func() { _ = os.RemoveAll(workDir) }()

	printer.Info("Building %d curated packs from %s ...", len(catalog.DefaultPacks), runner.Remote())
	results, err := catalog.GeneratePacks(context.Background(), runner, catalog.DefaultPacks, workDir)
	if err != nil {
		return fmt.Errorf("failed to generate packs: %w", err)
	}

	for _, r := range results {
		printer.Info("✓ %s: %d files", r.Name, r.Files)
	}
	fmt.Printf("Uploaded %d packs to %s/%s\n", len(results), runner.Remote(), catalog.PacksFolder)
	return nil
}
