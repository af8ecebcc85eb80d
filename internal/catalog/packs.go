package catalog

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"strings"

	"github.com/tonehub/tonevault/internal/rclone"
)

// MaxFilesPerPack caps each curated pack.
const MaxFilesPerPack = 120

// packSeed keeps pack contents stable run to run.
const packSeed = 42

// PacksFolder is the remote folder curated packs upload to.
const PacksFolder = "_CURATED_RIGS"

// PackSpec describes one themed pack.
type PackSpec struct {
	Name        string
	Keywords    []string
	Description string
}

// DefaultPacks are the shipped themed packs.
var DefaultPacks = []PackSpec{
	{
		Name:        "01_Modern_Metal_Starter_Pack",
		Keywords:    []string{"5150", "evh", "rectifier", "mesa", "engl", "diezel", "v30", "ts9", "fortin", "revv", "peavey"},
		Description: "High-gain monsters: 5150s, Rectifiers, ENGLs, Diezels, and their matching cabs.",
	},
	{
		Name:        "02_Classic_Rock_Legends",
		Keywords:    []string{"marshall", "plexi", "jcm800", "jcm900", "greenback", "creamback", "ac30", "vox", "superlead", "jtm"},
		Description: "The British Invasion: Marshall stacks, Vox chime, and vintage crunch.",
	},
	{
		Name:        "03_Pristine_Clean_Ambient",
		Keywords:    []string{"fender", "twin reverb", "deluxe reverb", "jc120", "roland", "matchless", "lonestar", "princeton", "jazz chorus"},
		Description: "Crystal-clean platforms for ambient, worship, and studio recording.",
	},
	{
		Name:        "04_Bass_Foundations",
		Keywords:    []string{"ampeg", "svt", "darkglass", "b7k", "sansamp", "gallien", "bass", "trace elliot", "b15"},
		Description: "Thunderous bass tones: Ampeg SVTs, Darkglass crunch, and vintage warmth.",
	},
	{
		Name:        "05_Boutique_Premium_Collection",
		Keywords:    []string{"bogner", "friedman", "soldano", "two rock", "dumble", "matchless", "divided", "suhr", "morgan", "tone king"},
		Description: "Ultra-premium boutique captures: Friedman, Bogner, Soldano, and more.",
	},
	{
		Name:        "06_Pedals_and_Overdrives",
		Keywords:    []string{"pedal", "overdrive", "distortion", "fuzz", "boost", "screamer", "klon", "rat", "muff", "drive", "stomp"},
		Description: "Every iconic pedal captured: Tube Screamers, Klon, RAT, Big Muff, and beyond.",
	},
}

// MatchFiles returns the remote paths whose lowercased form contains any
// keyword. Paths already inside the packs folder never re-enter a pack.
func MatchFiles(paths []string, keywords []string) []string {
	var matched []string
	for _, p := range paths {
		if strings.Contains(p, PacksFolder) {
			continue
		}
		low := strings.ToLower(p)
		for _, k := range keywords {
			if strings.Contains(low, strings.ToLower(k)) {
				matched = append(matched, p)
				break
			}
		}
	}
	return matched
}

// SelectForPack trims an oversized match list with a deterministic sample.
func SelectForPack(matched []string) []string {
	if len(matched) <= MaxFilesPerPack {
		return matched
	}
	rng := rand.New(rand.NewSource(packSeed))
	picked := rng.Perm(len(matched))[:MaxFilesPerPack]
	out := make([]string, 0, MaxFilesPerPack)
	for _, i := range picked {
		out = append(out, matched[i])
	}
	return out
}

// WritePackReadme renders the README.txt bundled into each pack.
func WritePackReadme(w io.Writer, spec PackSpec, fileCount int) error {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("ToneVault — %s\n", strings.ReplaceAll(spec.Name, "_", " ")))
	sb.WriteString(strings.Repeat("=", 55) + "\n\n")
	sb.WriteString(spec.Description + "\n\n")
	sb.WriteString(fmt.Sprintf("Contains %d curated files.\n", fileCount))
	sb.WriteString("Keywords: " + strings.Join(spec.Keywords, ", ") + "\n\n")
	sb.WriteString("Part of the ToneVault Tone Collection.\n")

	_, err := io.WriteString(w, sb.String())
	return err
}

// BuildPack assembles one pack under workDir: pulls the selected files from
// the remote, adds the README, and zips the folder. Returns the ZIP path.
func BuildPack(ctx context.Context, runner *rclone.Runner, spec PackSpec, files []string, workDir string) (string, error) {
	packDir := filepath.Join(workDir, spec.Name)
	if err := os.MkdirAll(packDir, 0o755); err != nil {
		return "", err
	}

	for i, remotePath := range files {
		local := filepath.Join(packDir, fmt.Sprintf("%03d_%s", i, filepath.Base(remotePath)))
		if err := runner.CopyTo(ctx, remotePath, local); err != nil {
			return "", err
		}
	}

	readme, err := os.Create(filepath.Join(packDir, "README.txt"))
	if err != nil {
		return "", err
	}
	err = WritePackReadme(readme, spec, len(files))
	if closeErr := readme.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return "", err
	}

	zipPath := filepath.Join(workDir, spec.Name+".zip")
	if err := zipDir(packDir, zipPath); err != nil {
		return "", err
	}
	return zipPath, nil
}

// PackResult records what GeneratePacks produced for one pack.
type PackResult struct {
	Name  string
	Files int
	Zip   string
}

// GeneratePacks scans the remote, builds every pack that matched at least
// one file, and uploads the archives to the packs folder.
func GeneratePacks(ctx context.Context, runner *rclone.Runner, packs []PackSpec, workDir string) ([]PackResult, error) {
	entries, err := runner.ListFiles(ctx)
	if err != nil {
		return nil, err
	}
	paths := make([]string, 0, len(entries))
	for _, e := range entries {
		paths = append(paths, e.Path)
	}

	var results []PackResult
	for _, spec := range packs {
		files := SelectForPack(MatchFiles(paths, spec.Keywords))
		if len(files) == 0 {
			continue
		}
		zipPath, err := BuildPack(ctx, runner, spec, files, workDir)
		if err != nil {
			return results, fmt.Errorf("pack %s: %w", spec.Name, err)
		}
		if err := runner.Upload(ctx, zipPath, PacksFolder); err != nil {
			return results, fmt.Errorf("pack %s: %w", spec.Name, err)
		}
		results = append(results, PackResult{Name: spec.Name, Files: len(files), Zip: zipPath})
	}
	return results, nil
}

// zipDir archives the contents of dir (flat, no directory prefix).
func zipDir(dir, zipPath string) error {
	out, err := os.Create(zipPath)
	if err != nil {
		return err
	}

	w := zip.NewWriter(out)
	err = filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return err
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		entry, err := w.Create(filepath.ToSlash(rel))
		if err != nil {
			return err
		}
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		_, err = io.Copy(entry, f)
		_ = f.Close()
		return err
	})

	if closeErr := w.Close(); err == nil {
		err = closeErr
	}
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(zipPath)
	}
	return err
}
