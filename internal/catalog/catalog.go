// Package catalog turns remote listings into customer-facing artifacts:
// per-folder catalogs, a master index, the repository README, and curated
// ZIP packs.
package catalog

import (
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/tonehub/tonevault/internal/rclone"
)

// FolderInfo aggregates one top-level folder of the remote tree.
type FolderInfo struct {
	Files     []string
	WAVs      int
	NAMs      int
	SizeBytes int64
}

// GroupByFolder buckets tone files by their top-level folder. Meta folders
// (underscore prefix) and loose root files are skipped.
func GroupByFolder(entries []rclone.Entry) map[string]*FolderInfo {
	groups := make(map[string]*FolderInfo)
	for _, e := range entries {
		if strings.HasPrefix(e.Path, "_") {
			continue
		}
		parts := strings.Split(e.Path, "/")
		if len(parts) < 2 {
			continue
		}
		name := parts[len(parts)-1]
		ext := strings.ToLower(path.Ext(name))
		if ext != ".wav" && ext != ".nam" {
			continue
		}

		folder := parts[0]
		info := groups[folder]
		if info == nil {
			info = &FolderInfo{}
			groups[folder] = info
		}
		info.Files = append(info.Files, name)
		if ext == ".wav" {
			info.WAVs++
		} else {
			info.NAMs++
		}
		info.SizeBytes += e.Size
	}
	return groups
}

// FormatSize renders a byte count the way the catalogs print it.
func FormatSize(b int64) string {
	v := float64(b)
	for _, unit := range []string{"B", "KB", "MB", "GB"} {
		if v < 1024 {
			return fmt.Sprintf("%.1f %s", v, unit)
		}
		v /= 1024
	}
	return fmt.Sprintf("%.1f TB", v)
}

func boxTop() string    { return "╔" + strings.Repeat("═", 58) + "╗" }
func boxMid() string    { return "╠" + strings.Repeat("═", 58) + "╣" }
func boxBottom() string { return "╚" + strings.Repeat("═", 58) + "╝" }
func rule() string      { return strings.Repeat("─", 60) }

func boxLine(s string) string {
	runes := []rune(s)
	if len(runes) > 58 {
		runes = runes[:58]
	}
	return "║" + string(runes) + strings.Repeat(" ", 58-len(runes)) + "║"
}

// WriteFolderCatalog writes the full file listing for one folder.
func WriteFolderCatalog(w io.Writer, folder string, info *FolderInfo, now time.Time) error {
	files := append([]string(nil), info.Files...)
	sort.Strings(files)

	var sb strings.Builder
	sb.WriteString(boxTop() + "\n")
	sb.WriteString(boxLine(fmt.Sprintf("  ToneVault — %s Catalog", folder)) + "\n")
	sb.WriteString(boxMid() + "\n")
	sb.WriteString(boxLine(fmt.Sprintf("  Generated: %s", now.Format("2006-01-02 15:04 UTC"))) + "\n")
	sb.WriteString(boxLine(fmt.Sprintf("  Total Files: %d", len(files))) + "\n")
	sb.WriteString(boxLine(fmt.Sprintf("  Impulse Responses (IR/WAV): %d", info.WAVs)) + "\n")
	sb.WriteString(boxLine(fmt.Sprintf("  Neural Amp Models (NAM): %d", info.NAMs)) + "\n")
	sb.WriteString(boxLine(fmt.Sprintf("  Total Size: %s", FormatSize(info.SizeBytes))) + "\n")
	sb.WriteString(boxBottom() + "\n\n")
	sb.WriteString(rule() + "\n  FILE LISTING\n" + rule() + "\n\n")

	var irs, nams []string
	for _, f := range files {
		if strings.HasSuffix(strings.ToLower(f), ".wav") {
			irs = append(irs, f)
		} else {
			nams = append(nams, f)
		}
	}
	writeGroup := func(title string, names []string) {
		if len(names) == 0 {
			return
		}
		sb.WriteString(fmt.Sprintf("  ▸ %s (%d files)\n", title, len(names)))
		sb.WriteString("  " + strings.Repeat("·", 50) + "\n")
		for i, f := range names {
			sb.WriteString(fmt.Sprintf("    %4d. %s\n", i+1, f))
		}
		sb.WriteString("\n")
	}
	writeGroup("Impulse Responses", irs)
	writeGroup("Neural Amp Models", nams)

	sb.WriteString(rule() + "\n")
	sb.WriteString("  ToneVault — The Ultimate Tone Collection\n")
	sb.WriteString(rule() + "\n")

	_, err := io.WriteString(w, sb.String())
	return err
}

// WriteMasterCatalog writes the cross-folder index sorted by file count.
func WriteMasterCatalog(w io.Writer, groups map[string]*FolderInfo, now time.Time) error {
	type row struct {
		folder string
		info   *FolderInfo
	}
	rows := make([]row, 0, len(groups))
	totalFiles, totalWAVs, totalNAMs := 0, 0, 0
	var totalSize int64
	for folder, info := range groups {
		rows = append(rows, row{folder, info})
		totalFiles += len(info.Files)
		totalWAVs += info.WAVs
		totalNAMs += info.NAMs
		totalSize += info.SizeBytes
	}
	sort.Slice(rows, func(i, j int) bool {
		if len(rows[i].info.Files) != len(rows[j].info.Files) {
			return len(rows[i].info.Files) > len(rows[j].info.Files)
		}
		return rows[i].folder < rows[j].folder
	})

	var sb strings.Builder
	sb.WriteString(boxTop() + "\n")
	sb.WriteString(boxLine("  ToneVault — MASTER CATALOG") + "\n")
	sb.WriteString(boxMid() + "\n")
	sb.WriteString(boxLine(fmt.Sprintf("  Generated: %s", now.Format("2006-01-02 15:04 UTC"))) + "\n")
	sb.WriteString(boxLine(fmt.Sprintf("  Total Folders: %d", len(rows))) + "\n")
	sb.WriteString(boxLine(fmt.Sprintf("  Total Files: %d", totalFiles)) + "\n")
	sb.WriteString(boxLine(fmt.Sprintf("  IR/WAV: %d | NAM: %d", totalWAVs, totalNAMs)) + "\n")
	sb.WriteString(boxLine(fmt.Sprintf("  Total Size: %s", FormatSize(totalSize))) + "\n")
	sb.WriteString(boxBottom() + "\n\n")
	sb.WriteString(rule() + "\n  FOLDER INDEX (sorted by file count)\n" + rule() + "\n\n")
	sb.WriteString(fmt.Sprintf("  %-30s %8s %8s %8s\n", "Folder", "Files", "IR/WAV", "NAM"))
	sb.WriteString("  " + strings.Repeat("─", 56) + "\n")
	for _, r := range rows {
		sb.WriteString(fmt.Sprintf("  %-30s %8d %8d %8d\n", r.folder, len(r.info.Files), r.info.WAVs, r.info.NAMs))
	}
	sb.WriteString("\n" + rule() + "\n")
	sb.WriteString("  ToneVault — The Ultimate Tone Collection\n")
	sb.WriteString(rule() + "\n")

	_, err := io.WriteString(w, sb.String())
	return err
}

// WriteCatalogs writes one catalog per folder plus the master catalog into
// destDir and returns the written paths.
func WriteCatalogs(destDir string, entries []rclone.Entry, now time.Time) ([]string, error) {
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return nil, err
	}
	groups := GroupByFolder(entries)

	var written []string
	folders := make([]string, 0, len(groups))
	for folder := range groups {
		folders = append(folders, folder)
	}
	sort.Strings(folders)

	for _, folder := range folders {
		p := filepath.Join(destDir, folder+"_Catalog.txt")
		f, err := os.Create(p)
		if err != nil {
			return written, err
		}
		err = WriteFolderCatalog(f, folder, groups[folder], now)
		if closeErr := f.Close(); err == nil {
			err = closeErr
		}
		if err != nil {
			return written, err
		}
		written = append(written, p)
	}

	p := filepath.Join(destDir, "00_MASTER_CATALOG.txt")
	f, err := os.Create(p)
	if err != nil {
		return written, err
	}
	err = WriteMasterCatalog(f, groups, now)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return written, err
	}
	return append(written, p), nil
}
