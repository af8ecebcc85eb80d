package catalog

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/tonehub/tonevault/internal/rclone"
)

// ReadmeFilename is the artifact placed at the remote root.
const ReadmeFilename = "README_TONEVAULT.txt"

// WriteReadme renders the top-level repository README from a remote listing.
func WriteReadme(w io.Writer, entries []rclone.Entry, now time.Time) error {
	wavs, nams := 0, 0
	var totalSize int64
	folderCounts := make(map[string]int)

	for _, e := range entries {
		totalSize += e.Size
		lower := strings.ToLower(e.Path)
		isTone := strings.HasSuffix(lower, ".wav") || strings.HasSuffix(lower, ".nam")
		if strings.HasSuffix(lower, ".wav") {
			wavs++
		} else if strings.HasSuffix(lower, ".nam") {
			nams++
		}

		parts := strings.Split(e.Path, "/")
		if len(parts) >= 2 && !strings.HasPrefix(parts[0], "_") && isTone {
			folderCounts[parts[0]]++
		}
	}

	folders := make([]string, 0, len(folderCounts))
	for f := range folderCounts {
		folders = append(folders, f)
	}
	sort.Strings(folders)

	var sb strings.Builder
	banner := strings.Repeat("=", 60)
	sb.WriteString(banner + "\n")
	sb.WriteString("  TONEVAULT — THE ULTIMATE TONE COLLECTION\n")
	sb.WriteString(banner + "\n\n")
	sb.WriteString(fmt.Sprintf("  Last Updated: %s\n\n", now.Format("January 2, 2006")))

	sb.WriteString("  Repository Statistics:\n")
	sb.WriteString("  " + strings.Repeat("─", 38) + "\n")
	sb.WriteString(fmt.Sprintf("  Total Tone Files:    %d\n", wavs+nams))
	sb.WriteString(fmt.Sprintf("  Impulse Responses:   %d (.wav)\n", wavs))
	sb.WriteString(fmt.Sprintf("  Neural Amp Models:   %d (.nam)\n", nams))
	sb.WriteString(fmt.Sprintf("  Total Folders:       %d\n", len(folders)))
	sb.WriteString(fmt.Sprintf("  Total Size:          %s\n\n", FormatSize(totalSize)))

	sb.WriteString("  Folder Structure:\n")
	sb.WriteString("  " + strings.Repeat("─", 38) + "\n")
	sb.WriteString("  /[Category]/            -> Master vault organized by category\n")
	sb.WriteString("  /_CURATED_RIGS/         -> Ready-to-play themed ZIP packs\n")
	sb.WriteString("  /_CATALOGS/             -> Full file listings per folder\n")
	sb.WriteString("  /" + ReadmeFilename + "   -> This file\n\n")

	sb.WriteString("  How to Use:\n")
	sb.WriteString("  " + strings.Repeat("─", 38) + "\n")
	sb.WriteString("  1. QUICK START: Go to _CURATED_RIGS/ and download a themed pack.\n")
	sb.WriteString("  2. BROWSE: Navigate category folders for specific captures.\n")
	sb.WriteString("  3. IRs (.wav): Load into any amp sim that supports impulse responses.\n")
	sb.WriteString("  4. NAMs (.nam): Load into the Neural Amp Modeler plugin.\n\n")

	sb.WriteString(fmt.Sprintf("  Folder Index (%d folders):\n", len(folders)))
	sb.WriteString("  " + strings.Repeat("─", 38) + "\n")
	for _, f := range folders {
		sb.WriteString(fmt.Sprintf("  • %-30s %5d files\n", f, folderCounts[f]))
	}

	sb.WriteString("\n" + banner + "\n")
	sb.WriteString("  ToneVault — Premium Tone Ecosystem\n")
	sb.WriteString("  All content is 100% real captures from verified sources.\n")
	sb.WriteString(banner + "\n")

	_, err := io.WriteString(w, sb.String())
	return err
}
