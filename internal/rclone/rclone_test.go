package rclone

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeStub creates a fake rclone binary that logs its argv and replays a
// canned response.
func writeStub(t *testing.T, script string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("stub binary requires a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "rclone")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0o755))
	return path
}

func TestCopy_PassesTransferFlags(t *testing.T) {
	argsFile := filepath.Join(t.TempDir(), "args.txt")
	stub := writeStub(t, `echo "$@" > `+argsFile+"\nexit 0\n")

	r := New("gdrive:IR_REPOSITORY", stub)
	require.NoError(t, r.Copy(context.Background(), "/tmp/out/NAM_Capturas", "NAM_Capturas"))

	argv, err := os.ReadFile(argsFile)
	require.NoError(t, err)
	line := string(argv)
	assert.Contains(t, line, "copy /tmp/out/NAM_Capturas gdrive:IR_REPOSITORY/NAM_Capturas")
	assert.Contains(t, line, "--transfers 8")
	assert.Contains(t, line, "--checkers 16")
}

func TestCopy_NonZeroExit(t *testing.T) {
	stub := writeStub(t, "echo 'quota exceeded' >&2\nexit 3\n")

	r := New("gdrive:IR_REPOSITORY", stub)
	err := r.Copy(context.Background(), "/tmp/out", "")

	var cmdErr *CommandError
	require.ErrorAs(t, err, &cmdErr)
	assert.Contains(t, cmdErr.Error(), "quota exceeded")
}

func TestListFiles_DecodesEntries(t *testing.T) {
	stub := writeStub(t, `cat <<'EOF'
[
  {"Path": "IR_Guitarra/Marshall_4x12_V30.wav", "Name": "Marshall_4x12_V30.wav", "Size": 120044},
  {"Path": "NAM_Capturas/Fender_Twin.nam", "Name": "Fender_Twin.nam", "Size": 20380}
]
EOF
`)

	r := New("gdrive:IR_REPOSITORY", stub)
	entries, err := r.ListFiles(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "IR_Guitarra/Marshall_4x12_V30.wav", entries[0].Path)
	assert.Equal(t, int64(20380), entries[1].Size)
}

func TestListFiles_BadJSON(t *testing.T) {
	stub := writeStub(t, "echo 'not json'\nexit 0\n")

	r := New("gdrive:IR_REPOSITORY", stub)
	_, err := r.ListFiles(context.Background())

	var cmdErr *CommandError
	require.ErrorAs(t, err, &cmdErr)
}

func TestSize_TrimsOutput(t *testing.T) {
	stub := writeStub(t, "echo 'Total objects: 35k'\necho 'Total size: 48.2 GiB'\n")

	r := New("gdrive:IR_REPOSITORY", stub)
	out, err := r.Size(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Total objects: 35k\nTotal size: 48.2 GiB", out)
}

func TestAvailable(t *testing.T) {
	stub := writeStub(t, "exit 0\n")
	assert.True(t, New("r:", stub).Available())
	assert.False(t, New("r:", "/nonexistent/rclone-binary").Available())
}

func TestCopyTo_BuildsRemotePath(t *testing.T) {
	argsFile := filepath.Join(t.TempDir(), "args.txt")
	stub := writeStub(t, `echo "$@" > `+argsFile+"\n")

	r := New("gdrive:IR_REPOSITORY", stub)
	require.NoError(t, r.CopyTo(context.Background(), "IR_Bajo/Ampeg.wav", "/tmp/pack/001_Ampeg.wav"))

	argv, err := os.ReadFile(argsFile)
	require.NoError(t, err)
	assert.Contains(t, string(argv), "copyto gdrive:IR_REPOSITORY/IR_Bajo/Ampeg.wav /tmp/pack/001_Ampeg.wav")
}
