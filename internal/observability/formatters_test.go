package observability

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrintHarvestSummary(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, false)

	p.PrintHarvestSummary(
		[]PhaseStat{
			{Name: "github", Files: 812},
			{Name: "releases", Files: 40},
			{Name: "direct", Files: 655},
		},
		[]CategoryStat{
			{Name: "NAM_Capturas", Files: 900},
			{Name: "IR_Guitarra", Files: 512},
		},
	)
	output := buf.String()

	assert.Contains(t, output, "DOWNLOAD SUMMARY")
	assert.Contains(t, output, "github:")
	assert.Contains(t, output, "TOTAL NEW FILES: 1507")
	assert.Contains(t, output, "NAM_Capturas")
	assert.Contains(t, output, "TOTAL LOCAL: 1412 files")
}

func TestSourceResult(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, false)

	p.SourceResult("GuitarML/Proteus", 12, nil)
	p.SourceResult("broken/repo", 0, errors.New("HTTP status 404"))
	p.SourceResult("quiet/repo", 0, nil)

	output := buf.String()
	assert.Contains(t, output, "✓ GuitarML/Proteus: 12 files")
	assert.Contains(t, output, "✗ broken/repo")
	assert.NotContains(t, output, "quiet/repo")
}

func TestSourceResult_VerboseShowsQuietSources(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, true)

	p.SourceResult("quiet/repo", 0, nil)
	assert.Contains(t, buf.String(), "- quiet/repo: nothing new")
}

func TestPhaseBanner(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, false)

	p.PhaseBanner("GITHUB REPOS")
	assert.Contains(t, buf.String(), "GITHUB REPOS")
	assert.Contains(t, buf.String(), "━━━")
}

func TestDebug_OnlyInVerboseMode(t *testing.T) {
	var quiet bytes.Buffer
	NewPrinter(&quiet, false).Debug("hidden %d", 1)
	assert.Empty(t, quiet.String())

	var loud bytes.Buffer
	NewPrinter(&loud, true).Debug("shown %d", 2)
	assert.Equal(t, "shown 2\n", loud.String())
}

func TestPrintSyncSummary(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, false)

	p.PrintSyncSummary("gdrive:IR_REPOSITORY", "Total size: 48.2 GiB")
	assert.Contains(t, buf.String(), "SYNC COMPLETE")
	assert.Contains(t, buf.String(), "gdrive:IR_REPOSITORY")
	assert.Contains(t, buf.String(), "Total size: 48.2 GiB")
}
