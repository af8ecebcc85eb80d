// Package rclone shells out to the rclone binary for remote sync and
// listings. rclone being missing or failing is never fatal to a harvest;
// callers get an error and the local tree stays intact.
package rclone

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// copyFlags tune per-category uploads for large trees of small files.
var copyFlags = []string{
	"--transfers", "8",
	"--checkers", "16",
	"--drive-chunk-size", "64M",
	"--fast-list",
	"--stats", "10s",
	"--stats-one-line",
	"--log-level", "INFO",
}

// CopyTimeout bounds a single category upload.
const CopyTimeout = 30 * time.Minute

// CommandError represents a failed rclone invocation.
type CommandError struct {
	Args   []string
	Stderr string
	Cause  error
}

func (e *CommandError) Error() string {
	msg := fmt.Sprintf("rclone %s failed", strings.Join(e.Args, " "))
	if e.Stderr != "" {
		return fmt.Sprintf("%s: %s", msg, truncate(e.Stderr, 200))
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *CommandError) Unwrap() error {
	return e.Cause
}

// Entry is one file in a remote listing.
type Entry struct {
	Path string `json:"Path"`
	Name string `json:"Name"`
	Size int64  `json:"Size"`
}

// Runner executes rclone commands against one remote.
type Runner struct {
	remote string
	binary string
}

// New creates a runner for remote (e.g. "gdrive:IR_REPOSITORY"). binary
// defaults to "rclone" on PATH when empty.
func New(remote, binary string) *Runner {
	if binary == "" {
		binary = "rclone"
	}
	return &Runner{remote: remote, binary: binary}
}

// Remote returns the configured remote.
func (r *Runner) Remote() string {
	return r.remote
}

// Available reports whether the rclone binary can be found.
func (r *Runner) Available() bool {
	_, err := exec.LookPath(r.binary)
	return err == nil
}

// Copy uploads a local directory to <remote>/<subdir> with transfer tuning.
func (r *Runner) Copy(ctx context.Context, localDir, subdir string) error {
	dest := r.remote
	if subdir != "" {
		dest = r.remote + "/" + subdir
	}
	args := append([]string{"copy", localDir, dest}, copyFlags...)

	copyCtx, cancel := context.WithTimeout(ctx, CopyTimeout)
	defer cancel()
	_, err := r.run(copyCtx, args)
	return err
}

// CopyTo downloads one remote file to a local path.
func (r *Runner) CopyTo(ctx context.Context, remotePath, localPath string) error {
	_, err := r.run(ctx, []string{"copyto", r.remote + "/" + remotePath, localPath, "-q"})
	return err
}

// Size returns rclone's size report for the remote, as printed.
func (r *Runner) Size(ctx context.Context) (string, error) {
	out, err := r.run(ctx, []string{"size", r.remote})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// ListFiles returns every file under the remote, recursively.
func (r *Runner) ListFiles(ctx context.Context) ([]Entry, error) {
	out, err := r.run(ctx, []string{"lsjson", r.remote, "-R", "--files-only", "--no-modtime", "--no-mimetype"})
	if err != nil {
		return nil, err
	}

	var entries []Entry
	if err := json.Unmarshal([]byte(out), &entries); err != nil {
		return nil, &CommandError{Args: []string{"lsjson"}, Cause: err}
	}
	return entries, nil
}

// Upload copies localPath to the remote root, used for README and catalog
// artifacts.
func (r *Runner) Upload(ctx context.Context, localPath, remoteSubdir string) error {
	dest := r.remote
	if remoteSubdir != "" {
		dest = r.remote + "/" + remoteSubdir
	}
	_, err := r.run(ctx, []string{"copy", localPath, dest, "-q"})
	return err
}

func (r *Runner) run(ctx context.Context, args []string) (string, error) {
	cmd := exec.CommandContext(ctx, r.binary, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", &CommandError{Args: args, Stderr: stderr.String(), Cause: err}
	}
	return stdout.String(), nil
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n]
}
