// Package observability provides formatted output utilities for the CLI.
package observability

import (
	"fmt"
	"io"
	"strings"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 10
)

// PhaseStat is one harvest phase and the new files it produced.
type PhaseStat struct {
	Name  string
	Files int
}

// CategoryStat is one category directory and its local file count.
type CategoryStat struct {
	Name  string
	Files int
}

// Printer handles formatted output for the harvest run
type Printer struct {
	out     io.Writer
	verbose bool
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer, verbose bool) *Printer {
	return &Printer{out: out, verbose: verbose}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		// Truncate long lines
		if len(line) > boxWidth-4 {
			line = line[:boxWidth-7] + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PhaseBanner marks the start of a harvest phase.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PhaseBanner(title string) {
	border := strings.Repeat("━", boxWidth)
	fmt.Fprintf(p.out, "%s\n%s\n%s\n", border, title, border)
}

// SourceResult prints one line per finished source. Zero-file successes
// only show in verbose mode.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) SourceResult(name string, files int, err error) {
	switch {
	case err != nil:
		fmt.Fprintf(p.out, "  ✗ %s: %v\n", name, err)
	case files > 0:
		fmt.Fprintf(p.out, "  ✓ %s: %d files\n", name, files)
	case p.verbose:
		fmt.Fprintf(p.out, "  - %s: nothing new\n", name)
	}
}

// Debug prints only in verbose mode.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) Debug(format string, args ...any) {
	if p.verbose {
		fmt.Fprintf(p.out, format+"\n", args...)
	}
}

// Info prints unconditionally.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) Info(format string, args ...any) {
	fmt.Fprintf(p.out, format+"\n", args...)
}

// PrintHarvestSummary outputs the end-of-run phase totals and the local
// per-category counts.
func (p *Printer) PrintHarvestSummary(phases []PhaseStat, categories []CategoryStat) {
	var sb strings.Builder

	totalNew := 0
	for _, phase := range phases {
		sb.WriteString(fmt.Sprintf("%-12s %d\n", phase.Name+":", phase.Files))
		totalNew += phase.Files
	}
	sb.WriteString(fmt.Sprintf("\nTOTAL NEW FILES: %d\n", totalNew))

	if len(categories) > 0 {
		sb.WriteString("\n")
		totalLocal := 0
		count := min(len(categories), maxItemsToShow)
		for i := 0; i < count; i++ {
			cat := categories[i]
			sb.WriteString(fmt.Sprintf("%-16s %d files\n", cat.Name, cat.Files))
			totalLocal += cat.Files
		}
		for i := count; i < len(categories); i++ {
			totalLocal += categories[i].Files
		}
		if len(categories) > maxItemsToShow {
			sb.WriteString(fmt.Sprintf("... and %d more categories\n", len(categories)-maxItemsToShow))
		}
		sb.WriteString(fmt.Sprintf("TOTAL LOCAL: %d files", totalLocal))
	}

	p.printBox("DOWNLOAD SUMMARY", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintSyncSummary outputs the remote size report after an upload pass.
func (p *Printer) PrintSyncSummary(remote, sizeReport string) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Remote: %s\n", remote))
	if sizeReport != "" {
		sb.WriteString("\n")
		sb.WriteString(sizeReport)
	}
	p.printBox("SYNC COMPLETE", sb.String())
}
