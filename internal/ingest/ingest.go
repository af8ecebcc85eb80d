// Package ingest drives the harvest: it pulls archives and single files from
// every configured source, then validates, deduplicates, classifies, and
// files each candidate into the category tree. Sources run on a bounded
// worker pool; the cache is checkpointed after every finished source so an
// interrupted run never re-downloads what it already has.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/tonehub/tonevault/internal/archive"
	"github.com/tonehub/tonevault/internal/cache"
	"github.com/tonehub/tonevault/internal/classify"
	"github.com/tonehub/tonevault/internal/discover"
	"github.com/tonehub/tonevault/internal/fetch"
	"github.com/tonehub/tonevault/internal/github"
	"github.com/tonehub/tonevault/internal/observability"
	"github.com/tonehub/tonevault/internal/soundwoofer"
	"github.com/tonehub/tonevault/internal/sources"
	"github.com/tonehub/tonevault/internal/tone3000"
	"github.com/tonehub/tonevault/internal/validation"
)

// DefaultWorkers bounds concurrent source downloads.
const DefaultWorkers = 4

// Stats aggregates the outcome of a harvest run.
type Stats struct {
	Files   int   // files placed into the category tree
	Bytes   int64 // bytes of placed files
	Sources int   // sources that completed
	Skipped int   // sources skipped via the seen-set
	Errors  int   // sources that failed
}

// Options wires a Pipeline.
type Options struct {
	OutputDir       string
	Cache           *cache.Cache
	Fetcher         *fetch.Client
	GitHub          *github.Client
	Tone3000        *tone3000.Client
	Soundwoofer     *soundwoofer.Client
	Printer         *observability.Printer
	Workers         int
	MaxArchiveBytes int64
	Validation      validation.Options
}

// Pipeline is the harvest driver. Safe for the concurrent use its own worker
// pool makes of it.
type Pipeline struct {
	outputDir       string
	cache           *cache.Cache
	fetcher         *fetch.Client
	github          *github.Client
	tone3000        *tone3000.Client
	soundwoofer     *soundwoofer.Client
	printer         *observability.Printer
	workers         int
	maxArchiveBytes int64
	valOpts         validation.Options

	mu    sync.Mutex
	stats Stats
}

// New creates a pipeline. Cache, Fetcher, and OutputDir are required; source
// clients may be nil when their phase is not used.
func New(opts Options) *Pipeline {
	workers := opts.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}
	return &Pipeline{
		outputDir:       opts.OutputDir,
		cache:           opts.Cache,
		fetcher:         opts.Fetcher,
		github:          opts.GitHub,
		tone3000:        opts.Tone3000,
		soundwoofer:     opts.Soundwoofer,
		printer:         opts.Printer,
		workers:         workers,
		maxArchiveBytes: opts.MaxArchiveBytes,
		valOpts:         opts.Validation,
	}
}

// Stats returns a snapshot of the aggregate counters.
func (p *Pipeline) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stats
}

// candidateExts are the extensions pulled out of archives and trees.
func (p *Pipeline) candidateExts() map[string]bool {
	exts := map[string]bool{".wav": true, ".nam": true}
	if p.valOpts.AcceptMetadata {
		exts[".json"] = true
	}
	return exts
}

// tempDir creates a unique scratch directory for one source.
func tempDir() (string, error) {
	dir := filepath.Join(os.TempDir(), "tonevault-"+uuid.NewString())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return dir, nil
}

// HarvestRepos downloads every repo's default-branch archive in parallel and
// files its audio candidates. Returns the number of files placed.
func (p *Pipeline) HarvestRepos(ctx context.Context, slugs []string) int {
	total := p.parallel(ctx, len(slugs), func(i int) (int, error) {
		repo, ok := github.ParseRepo(slugs[i])
		if !ok {
			return 0, fmt.Errorf("invalid repo slug %q", slugs[i])
		}
		return p.ingestRepo(ctx, repo)
	}, func(i int) string { return slugs[i] })

	p.checkpoint()
	return total
}

func (p *Pipeline) ingestRepo(ctx context.Context, repo github.Repo) (int, error) {
	key := "gh_" + repo.Owner + "_" + repo.Name
	if p.cache.HasSeen(key) {
		p.countSkip()
		return 0, nil
	}

	tmp, err := tempDir()
	if err != nil {
		return 0, err
	}
	defer func() { _ = os.RemoveAll(tmp) }()

	var lastErr error
	for _, zipURL := range p.github.ArchiveURLs(repo) {
		result, err := p.fetcher.Download(ctx, zipURL, tmp, repo.Name+".zip")
		if err != nil {
			lastErr = err
			if isNotFound(err) {
				continue // try the next branch candidate
			}
			if isTooLarge(err) {
				p.debugf("skipping %s (%v)", repo.Slug(), err)
				p.cache.MarkSeen(key)
				p.checkpoint()
				return 0, nil
			}
			break
		}

		if p.maxArchiveBytes > 0 && result.Size > p.maxArchiveBytes {
			p.debugf("skipping %s (too large: %dMB)", repo.Slug(), result.Size/1e6)
			p.cache.MarkSeen(key)
			p.checkpoint()
			return 0, nil
		}

		count := p.ingestArchive(result.Path, repo.Name)
		p.cache.MarkSeen(key)
		p.checkpoint()
		return count, nil
	}

	// Both branches failed. A missing repo is not worth revisiting.
	p.cache.MarkSeen(key)
	p.checkpoint()
	if lastErr != nil && !isNotFound(lastErr) {
		return 0, lastErr
	}
	return 0, nil
}

// ingestArchive extracts a ZIP and files every acceptable candidate inside.
// contextName seeds the classification context for each entry.
func (p *Pipeline) ingestArchive(zipPath, contextName string) int {
	extractDir := filepath.Join(filepath.Dir(zipPath), "x-"+uuid.NewString())
	if err := archive.ExtractZip(zipPath, extractDir); err != nil {
		p.debugf("bad ZIP %s: %v", filepath.Base(zipPath), err)
		return 0
	}
	defer func() { _ = os.RemoveAll(extractDir) }()

	return p.ingestTree(extractDir, contextName)
}

// ingestTree walks an extracted tree and places every valid, novel file.
func (p *Pipeline) ingestTree(root, contextName string) int {
	count := 0
	_ = archive.WalkCandidates(root, p.candidateExts(), func(path, rel string) error {
		if p.placeFile(path, contextName+"/"+filepath.ToSlash(rel)) {
			count++
		}
		return nil
	})
	return count
}

// placeFile validates, deduplicates, classifies, and copies one candidate
// into the category tree. Returns true when the file was placed.
func (p *Pipeline) placeFile(src, context string) bool {
	if !validation.IsAcceptableWith(src, p.valOpts) {
		return false
	}
	dup, err := p.cache.IsDuplicateContent(src)
	if err != nil || dup {
		return false
	}

	category, name := classify.Classify(context, filepath.Base(src))
	destDir := filepath.Join(p.outputDir, string(category))
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return false
	}

	// Claim the destination name with an exclusive create: concurrent
	// workers racing for the same name each end up with their own file.
	dest := filepath.Join(destDir, name)
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	var out *os.File
	for i := 1; ; i++ {
		f, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err == nil {
			out = f
			break
		}
		if !os.IsExist(err) {
			p.debugf("cannot place %s: %v", name, err)
			return false
		}
		dest = filepath.Join(destDir, fmt.Sprintf("%s_%d%s", stem, i, ext))
	}

	size, err := copyInto(out, src)
	if err != nil {
		return false
	}

	p.mu.Lock()
	p.stats.Files++
	p.stats.Bytes += size
	p.mu.Unlock()
	return true
}

// HarvestReleases pulls release assets for every slug.
func (p *Pipeline) HarvestReleases(ctx context.Context, slugs []string) int {
	total := 0
	for _, slug := range slugs {
		repo, ok := github.ParseRepo(slug)
		if !ok {
			continue
		}
		count, err := p.ingestReleases(ctx, repo)
		p.report(slug, count, err)
		total += count
	}
	p.checkpoint()
	return total
}

func (p *Pipeline) ingestReleases(ctx context.Context, repo github.Repo) (int, error) {
	key := "rel_" + repo.Owner + "_" + repo.Name
	if p.cache.HasSeen(key) {
		p.countSkip()
		return 0, nil
	}

	releases, err := p.github.Releases(ctx, repo)
	if err != nil {
		p.cache.MarkSeen(key)
		p.checkpoint()
		if github.IsSkippable(err) {
			return 0, nil
		}
		return 0, err
	}

	tmp, err := tempDir()
	if err != nil {
		return 0, err
	}
	defer func() { _ = os.RemoveAll(tmp) }()

	count := 0
	for _, rel := range releases {
		for _, asset := range rel.Assets {
			ext := strings.ToLower(filepath.Ext(asset.Name))
			if ext != ".zip" && !p.candidateExts()[ext] {
				continue
			}
			if p.cache.HasSeen(asset.DownloadURL) {
				continue
			}

			result, err := p.fetcher.Download(ctx, asset.DownloadURL, tmp, asset.Name)
			if err != nil {
				p.debugf("asset %s: %v", asset.Name, err)
				continue
			}

			if ext == ".zip" {
				count += p.ingestArchive(result.Path, "rel/"+repo.Name)
			} else if p.placeFile(result.Path, "rel/"+repo.Name+"/"+asset.Name) {
				count++
			}

			_ = os.Remove(result.Path)
			p.cache.MarkSeen(asset.DownloadURL)
		}
	}

	p.cache.MarkSeen(key)
	p.checkpoint()
	return count, nil
}

// HarvestDirect downloads standalone archives in parallel.
func (p *Pipeline) HarvestDirect(ctx context.Context, zips []sources.DirectZip) int {
	total := p.parallel(ctx, len(zips), func(i int) (int, error) {
		return p.ingestDirect(ctx, zips[i].URL, zips[i].Name)
	}, func(i int) string { return zips[i].Name })

	p.checkpoint()
	return total
}

func (p *Pipeline) ingestDirect(ctx context.Context, urlStr, name string) (int, error) {
	if p.cache.HasSeen(urlStr) {
		p.countSkip()
		return 0, nil
	}

	tmp, err := tempDir()
	if err != nil {
		return 0, err
	}
	defer func() { _ = os.RemoveAll(tmp) }()

	result, err := p.fetcher.Download(ctx, urlStr, tmp, name+".zip")
	if err != nil {
		// Dead or oversized links are permanent; transient failures get
		// another run.
		if isGone(err) || isTooLarge(err) {
			p.cache.MarkSeen(urlStr)
			p.checkpoint()
			return 0, nil
		}
		return 0, err
	}

	count := 0
	if strings.EqualFold(filepath.Ext(result.Filename), ".zip") {
		count = p.ingestArchive(result.Path, name)
	} else if p.placeFile(result.Path, "direct/"+name+"/"+result.Filename) {
		count = 1
	}

	p.cache.MarkSeen(urlStr)
	p.checkpoint()
	return count, nil
}

// HarvestPages scrapes index pages for downloadable links and ingests each
// one like a direct source.
func (p *Pipeline) HarvestPages(ctx context.Context, pages []sources.Page) int {
	total := 0
	for _, page := range pages {
		links, err := discover.Page(ctx, p.fetcher, page.URL)
		if err != nil {
			p.report(page.Name, 0, err)
			continue
		}

		count := p.parallel(ctx, len(links), func(i int) (int, error) {
			return p.ingestDirect(ctx, links[i], page.Name)
		}, func(i int) string { return page.Name + ": " + filepath.Base(links[i]) })
		total += count
	}
	p.checkpoint()
	return total
}

// HarvestSearch discovers new repos via the GitHub search API and ingests
// them like manifest repos.
func (p *Pipeline) HarvestSearch(ctx context.Context, terms []string, known map[string]bool) int {
	found := p.github.Search(ctx, terms, known)
	p.debugf("search discovered %d new repos", len(found))

	total := p.parallel(ctx, len(found), func(i int) (int, error) {
		return p.ingestRepo(ctx, found[i])
	}, func(i int) string { return found[i].Slug() })

	p.checkpoint()
	return total
}

// HarvestTone3000 walks the TONE3000 catalog and downloads every novel
// model capture.
func (p *Pipeline) HarvestTone3000(ctx context.Context, gears []string, maxPages int) (int, error) {
	if p.tone3000 == nil {
		return 0, nil
	}

	tmp, err := tempDir()
	if err != nil {
		return 0, err
	}
	defer func() { _ = os.RemoveAll(tmp) }()

	count := 0
	err = p.tone3000.Walk(ctx, gears, maxPages, func(gear string, tone tone3000.Tone, models []tone3000.Model) error {
		for _, model := range models {
			if model.ModelURL == "" || p.cache.HasSeen(model.ModelURL) {
				continue
			}
			result, err := p.tone3000.Download(ctx, model.ModelURL, tmp, model.Name)
			if err != nil {
				continue
			}
			if p.placeFile(result.Path, "tone3000/"+gear+"/"+tone.Title+"/"+model.Name) {
				count++
			}
			_ = os.Remove(result.Path)
			p.cache.MarkSeen(model.ModelURL)
		}
		return nil
	})

	p.checkpoint()
	return count, err
}

// HarvestSoundwoofer pulls the Soundwoofer IR library when the service
// responds to the availability probe.
func (p *Pipeline) HarvestSoundwoofer(ctx context.Context) int {
	if p.soundwoofer == nil || !p.soundwoofer.Available(ctx) {
		p.debugf("soundwoofer unavailable, skipping")
		return 0
	}

	tmp, err := tempDir()
	if err != nil {
		return 0
	}
	defer func() { _ = os.RemoveAll(tmp) }()

	count := 0
	err = p.soundwoofer.Walk(ctx, func(im soundwoofer.Impulse) error {
		urlStr := p.soundwoofer.DownloadURL(im)
		if p.cache.HasSeen(urlStr) {
			return nil
		}
		result, err := p.fetcher.Download(ctx, urlStr, tmp, im.Title+".wav")
		if err != nil {
			return nil
		}
		if p.placeFile(result.Path, im.Context()) {
			count++
		}
		_ = os.Remove(result.Path)
		p.cache.MarkSeen(urlStr)
		return nil
	})
	if err != nil {
		p.debugf("soundwoofer walk ended: %v", err)
	}

	p.checkpoint()
	return count
}

// CategoryCounts tallies the audio files currently present per category
// directory under the output root.
func (p *Pipeline) CategoryCounts() []observability.CategoryStat {
	stats := make([]observability.CategoryStat, 0, len(classify.Categories()))
	exts := p.candidateExts()
	for _, cat := range classify.Categories() {
		dir := filepath.Join(p.outputDir, string(cat))
		count := 0
		_ = archive.WalkCandidates(dir, exts, func(string, string) error {
			count++
			return nil
		})
		if count > 0 {
			stats = append(stats, observability.CategoryStat{Name: string(cat), Files: count})
		}
	}
	return stats
}

// parallel runs n tasks on the worker pool, reporting each result. Task
// errors are counted, not propagated; one dead source never kills a phase.
func (p *Pipeline) parallel(ctx context.Context, n int, task func(i int) (int, error), label func(i int) string) int {
	var g errgroup.Group
	g.SetLimit(p.workers)

	var mu sync.Mutex
	total := 0

	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			count, err := task(i)
			p.report(label(i), count, err)

			mu.Lock()
			total += count
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return total
}

func (p *Pipeline) report(name string, files int, err error) {
	p.mu.Lock()
	if err != nil {
		p.stats.Errors++
	} else {
		p.stats.Sources++
	}
	p.mu.Unlock()

	if p.printer != nil {
		p.printer.SourceResult(name, files, err)
	}
}

func (p *Pipeline) countSkip() {
	p.mu.Lock()
	p.stats.Skipped++
	p.mu.Unlock()
}

func (p *Pipeline) checkpoint() {
	if err := p.cache.Persist(); err != nil {
		p.debugf("cache checkpoint failed: %v", err)
	}
}

func (p *Pipeline) debugf(format string, args ...any) {
	if p.printer != nil {
		p.printer.Debug(format, args...)
	}
}

// copyInto streams src into an already-created destination file, closing it
// and removing it on any failure.
func copyInto(dest *os.File, src string) (int64, error) {
	in, err := os.Open(src)
	if err != nil {
		_ = dest.Close()
		_ = os.Remove(dest.Name())
		return 0, err
	}
	defer func() { _ = in.Close() }()

	written, err := io.Copy(dest, in)
	closeErr := dest.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(dest.Name())
		return 0, err
	}
	return written, nil
}

func isNotFound(err error) bool {
	var fetchErr *fetch.Error
	if errors.As(err, &fetchErr) {
		return fetchErr.StatusCode == 404
	}
	return false
}

func isTooLarge(err error) bool {
	var fetchErr *fetch.Error
	return errors.As(err, &fetchErr) && fetchErr.TooLarge
}

func isGone(err error) bool {
	var fetchErr *fetch.Error
	if errors.As(err, &fetchErr) {
		switch fetchErr.StatusCode {
		case 404, 403, 410:
			return true
		}
	}
	return false
}
