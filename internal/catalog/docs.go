package catalog

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// WriteLocalDocs writes a markdown README.md with per-category counts into
// the harvest output directory and returns the total file count.
func WriteLocalDocs(outputDir string, now time.Time) (int, error) {
	children, err := os.ReadDir(outputDir)
	if err != nil {
		return 0, err
	}

	counts := make(map[string]int)
	total := 0
	for _, ch := range children {
		if !ch.IsDir() || strings.HasPrefix(ch.Name(), ".") {
			continue
		}
		files, err := os.ReadDir(filepath.Join(outputDir, ch.Name()))
		if err != nil {
			continue
		}
		n := 0
		for _, f := range files {
			ext := strings.ToLower(filepath.Ext(f.Name()))
			if !f.IsDir() && (ext == ".wav" || ext == ".nam") {
				n++
			}
		}
		if n > 0 {
			counts[ch.Name()] = n
			total += n
		}
	}

	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Strings(names)

	var sb strings.Builder
	sb.WriteString("# ToneVault Repository\n\n")
	sb.WriteString(fmt.Sprintf("> **%d** files (.wav + .nam)\n\n", total))
	sb.WriteString("| Category | Files |\n|---|---|\n")
	for _, name := range names {
		sb.WriteString(fmt.Sprintf("| %s | %d |\n", name, counts[name]))
	}
	sb.WriteString(fmt.Sprintf("| **TOTAL** | **%d** |\n", total))
	sb.WriteString(fmt.Sprintf("\n*Last updated: %s*\n", now.Format("2006-01-02 15:04 UTC")))

	path := filepath.Join(outputDir, "README.md")
	if err := os.WriteFile(path, []byte(sb.String()), 0o644); err != nil {
		return 0, err
	}
	return total, nil
}
