package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/tonehub/tonevault/internal/cache"
	"github.com/tonehub/tonevault/internal/catalog"
	"github.com/tonehub/tonevault/internal/config"
	"github.com/tonehub/tonevault/internal/fetch"
	"github.com/tonehub/tonevault/internal/github"
	"github.com/tonehub/tonevault/internal/ingest"
	"github.com/tonehub/tonevault/internal/observability"
	"github.com/tonehub/tonevault/internal/soundwoofer"
	"github.com/tonehub/tonevault/internal/sources"
	"github.com/tonehub/tonevault/internal/tone3000"
	"github.com/tonehub/tonevault/internal/validation"
)

var harvestCmd = &cobra.Command{
	Use:   "harvest",
	Short: "Download and organize tone files from all configured sources",
	Long:  "Downloads GitHub repositories, release assets, direct ZIPs, index pages, TONE3000 and Soundwoofer catalogs; validates, deduplicates, and classifies every file into the local repository.",
	RunE:  runHarvest,
}

var harvestTiers = map[string]bool{
	"github": true, "releases": true, "direct": true, "pages": true,
	"search": true, "tone3000": true, "soundwoofer": true, "docs": true,
	"all": true,
}

var (
	harvestTier           string
	harvestConfigPath     string
	harvestOutputDir      string
	harvestManifestPath   string
	harvestWorkers        int
	harvestMaxPages       int
	harvestAcceptMetadata bool
	harvestVerbose        bool
)

func init() {
	harvestCmd.Flags().StringVarP(&harvestTier, "tier", "t", "all", "Source tier to run: github|releases|direct|pages|search|tone3000|soundwoofer|docs|all")
	harvestCmd.Flags().StringVarP(&harvestConfigPath, "config", "c", "", "JSON config file path")
	harvestCmd.Flags().StringVarP(&harvestOutputDir, "out", "o", "", "Output directory for the organized repository")
	harvestCmd.Flags().StringVar(&harvestManifestPath, "manifest", "", "Source manifest JSON (default: embedded)")
	harvestCmd.Flags().IntVar(&harvestWorkers, "workers", 0, "Concurrent source downloads (default: 4)")
	harvestCmd.Flags().IntVar(&harvestMaxPages, "max-pages", 0, "API pagination cap for TONE3000 (default: 500)")
	harvestCmd.Flags().BoolVar(&harvestAcceptMetadata, "accept-metadata", false, "Also keep .json model metadata files")
	harvestCmd.Flags().BoolVarP(&harvestVerbose, "verbose", "v", false, "Print detailed debug information")

	rootCmd.AddCommand(harvestCmd)
}

// defaultTone3000MaxPages matches the harvester's historical pagination cap.
const defaultTone3000MaxPages = 500

func runHarvest(_ *cobra.Command, _ []string) error {
	if !harvestTiers[harvestTier] {
		return fmt.Errorf("invalid tier %q", harvestTier)
	}

	cfg, err := resolveConfig(harvestConfigPath, config.Config{
		OutputDir:      harvestOutputDir,
		Manifest:       harvestManifestPath,
		Workers:        harvestWorkers,
		MaxPages:       harvestMaxPages,
		AcceptMetadata: harvestAcceptMetadata,
		Verbose:        harvestVerbose,
	})
	if err != nil {
		return err
	}

	manifest, err := sources.Load(cfg.Manifest)
	if err != nil {
		return fmt.Errorf("failed to load source manifest: %w", err)
	}

	if err := os.MkdirAll(cfg.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory %s: %w", cfg.OutputDir, err)
	}

	printer := observability.NewPrinter(os.Stdout, cfg.Verbose)
	seen := cache.Load(cfg.CacheFile)
	keys, hashes := seen.Len()
	printer.Info("Cache: %d known sources, %d content hashes", keys, hashes)

	opts := fetch.DefaultOptions()
	opts.MaxSize = cfg.MaxArchiveBytes()
	if cfg.GitHubToken != "" {
		opts.Headers = map[string]string{"Authorization": "Bearer " + cfg.GitHubToken}
	}
	fetcher := fetch.New(opts)

	var t3k *tone3000.Client
	if cfg.Tone3000Key != "" {
		t3kOpts := fetch.DefaultOptions()
		t3kOpts.Headers = map[string]string{
			"Authorization": "Bearer " + cfg.Tone3000Key,
			"Content-Type":  "application/json",
		}
		t3k = tone3000.New(fetch.New(t3kOpts), tone3000.DefaultBase)
	}

	pipeline := ingest.New(ingest.Options{
		OutputDir:       cfg.OutputDir,
		Cache:           seen,
		Fetcher:         fetcher,
		GitHub:          github.New(fetcher, github.DefaultAPIBase, github.DefaultArchiveBase),
		Tone3000:        t3k,
		Soundwoofer:     soundwoofer.New(fetcher, soundwoofer.DefaultBase),
		Printer:         printer,
		Workers:         cfg.Workers,
		MaxArchiveBytes: cfg.MaxArchiveBytes(),
		Validation:      validation.Options{AcceptMetadata: cfg.AcceptMetadata},
	})

	ctx := context.Background()
	var phases []observability.PhaseStat
	runTier := func(name string) bool { return harvestTier == name || harvestTier == "all" }
	record := func(name string, files int) {
		phases = append(phases, observability.PhaseStat{Name: name, Files: files})
	}

	if runTier("github") {
		printer.PhaseBanner(fmt.Sprintf("TIER: GitHub Repos (%d)", len(manifest.Repos)))
		record("github", pipeline.HarvestRepos(ctx, manifest.Repos))
	}
	if runTier("releases") {
		printer.PhaseBanner(fmt.Sprintf("TIER: GitHub Releases (%d)", len(manifest.ReleaseRepos)))
		record("releases", pipeline.HarvestReleases(ctx, manifest.ReleaseRepos))
	}
	if runTier("direct") {
		printer.PhaseBanner(fmt.Sprintf("TIER: Direct ZIPs (%d)", len(manifest.DirectZips)))
		record("direct", pipeline.HarvestDirect(ctx, manifest.DirectZips))
	}
	if runTier("pages") {
		printer.PhaseBanner(fmt.Sprintf("TIER: Index Pages (%d)", len(manifest.Pages)))
		record("pages", pipeline.HarvestPages(ctx, manifest.Pages))
	}
	if runTier("search") {
		printer.PhaseBanner("TIER: GitHub Search Discovery")
		record("search", pipeline.HarvestSearch(ctx, manifest.SearchTerms, manifest.KnownSlugs()))
	}
	if runTier("tone3000") {
		printer.PhaseBanner("TIER: TONE3000 API")
		maxPages := cfg.MaxPages
		if maxPages == 0 {
			maxPages = defaultTone3000MaxPages
		}
		files, err := pipeline.HarvestTone3000(ctx, tone3000.DefaultGears, maxPages)
		if err != nil {
			printer.Info("TONE3000 aborted: %v", err)
		}
		record("tone3000", files)
	}
	if runTier("soundwoofer") {
		printer.PhaseBanner("TIER: Soundwoofer IRs")
		record("soundwoofer", pipeline.HarvestSoundwoofer(ctx))
	}
	if runTier("docs") {
		printer.PhaseBanner("TIER: Docs")
		total, err := catalog.WriteLocalDocs(cfg.OutputDir, time.Now().UTC())
		if err != nil {
			return fmt.Errorf("failed to generate docs: %w", err)
		}
		printer.Info("README.md covers %d files", total)
	}

	if err := seen.Persist(); err != nil {
		printer.Info("Warning: cache not persisted: %v", err)
	}
	printer.PrintHarvestSummary(phases, pipeline.CategoryCounts())

	if err := writeStats(cfg.OutputDir, phases, pipeline.Stats()); err != nil {
		printer.Info("Warning: stats not written: %v", err)
	}
	return nil
}

// writeStats records per-tier file counts and aggregate counters for
// external monitoring.
func writeStats(outputDir string, phases []observability.PhaseStat, stats ingest.Stats) error {
	doc := map[string]any{
		"generated": time.Now().UTC().Format(time.RFC3339),
		"totals": map[string]any{
			"files":   stats.Files,
			"bytes":   stats.Bytes,
			"sources": stats.Sources,
			"skipped": stats.Skipped,
			"errors":  stats.Errors,
		},
	}
	tiers := make(map[string]int, len(phases))
	for _, p := range phases {
		tiers[p.Name] = p.Files
	}
	doc["tiers"] = tiers

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(outputDir, ".stats.json"), data, 0644)
}
