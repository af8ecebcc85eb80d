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
	"github.com/tonehub/tonevault/internal/rclone"
)

var readmeCmd = &cobra.Command{
	Use:   "readme",
	Short: "Generate and upload the remote repository README",
	Long:  "Lists the rclone remote, renders the repository README with totals and a folder index, and uploads it to the remote root.",
	RunE:  runReadme,
}

var (
	readmeConfigPath string
	readmeRemote     string
)

func init() {
	readmeCmd.Flags().StringVarP(&readmeConfigPath, "config", "c", "", "JSON config file path")
	readmeCmd.Flags().StringVarP(&readmeRemote, "remote", "r", "", "rclone destination, e.g. gdrive:IR_REPOSITORY")

	rootCmd.AddCommand(readmeCmd)
}

func runReadme(_ *cobra.Command, _ []string) error {
	cfg, err := resolveConfig(readmeConfigPath, config.Config{RcloneRemote: readmeRemote})
	if err != nil {
		return err
	}
	if cfg.RcloneRemote == "" {
		return fmt.Errorf("rclone remote required: set --remote flag or RCLONE_REMOTE environment variable")
	}

	runner := rclone.New(cfg.RcloneRemote, "")
	if !runner.Available() {
		return fmt.Errorf("rclone binary not found in PATH")
	}

	ctx := context.Background()
	entries, err := runner.ListFiles(ctx)
	if err != nil {
		return fmt.Errorf("failed to list remote: %w", err)
	}

	tmp, err := os.MkdirTemp("", "tonevault-readme-")
	if err != nil {
		return err
	}
	defer func() { _ = os.RemoveAll(tmp) }()

	path := filepath.Join(tmp, catalog.ReadmeFilename)
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	err = catalog.WriteReadme(f, entries, time.Now().UTC())
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return fmt.Errorf("failed to write README: %w", err)
	}

	if err := runner.Upload(ctx, path, ""); err != nil {
		return fmt.Errorf("failed to upload README: %w", err)
	}
	fmt.Printf("Uploaded %s to %s\n", catalog.ReadmeFilename, runner.Remote())
	return nil
}
