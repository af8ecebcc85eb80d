// Package main provides the tonevault CLI: harvesting guitar tone files
// from public sources into an organized local repository and publishing it
// to a cloud remote via rclone.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "tonevault",
	Short: "Guitar tone harvester and publisher",
	Long:  "ToneVault downloads impulse responses and neural amp captures from GitHub, TONE3000, Soundwoofer, and direct sources, organizes them into a validated, deduplicated repository, and publishes catalogs and curated packs to an rclone remote.",
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
