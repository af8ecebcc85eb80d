// Package archive extracts downloaded ZIP files and walks the result for
// candidate audio/model files.
package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ExtractError represents a failure extracting an archive. Corrupt archives
// abandon the enclosing source; partial extractions are the caller's to
// discard.
type ExtractError struct {
	Path    string
	Message string
	Cause   error
}

func (e *ExtractError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("extract error for %s: %s: %v", e.Path, e.Message, e.Cause)
	}
	return fmt.Sprintf("extract error for %s: %s", e.Path, e.Message)
}

func (e *ExtractError) Unwrap() error {
	return e.Cause
}

// ExtractZip unpacks zipPath into destDir. Entry paths are confined to
// destDir; entries escaping it are rejected as corrupt.
func ExtractZip(zipPath, destDir string) error {
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return &ExtractError{Path: zipPath, Message: "failed to open archive", Cause: err}
	}
	defer func() { _ = r.Close() }()

	for _, f := range r.File {
		if err := extractEntry(f, destDir); err != nil {
			return &ExtractError{Path: zipPath, Message: fmt.Sprintf("failed to extract %s", f.Name), Cause: err}
		}
	}
	return nil
}

func extractEntry(f *zip.File, destDir string) error {
	target := filepath.Join(destDir, filepath.FromSlash(f.Name))
	if !strings.HasPrefix(target, filepath.Clean(destDir)+string(os.PathSeparator)) {
		return fmt.Errorf("entry path escapes destination: %s", f.Name)
	}

	if f.FileInfo().IsDir() {
		return os.MkdirAll(target, 0o755)
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}

	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer func() { _ = rc.Close() }()

	out, err := os.Create(target)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, rc); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

// WalkCandidates visits every file under root whose extension is in exts,
// skipping directories whose name starts with "." or "__" (VCS metadata,
// macOS resource forks). fn receives the absolute path and the path relative
// to root.
func WalkCandidates(root string, exts map[string]bool, fn func(path, rel string) error) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			name := d.Name()
			if path != root && (strings.HasPrefix(name, ".") || strings.HasPrefix(name, "__")) {
				return filepath.SkipDir
			}
			return nil
		}
		if !exts[strings.ToLower(filepath.Ext(path))] {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			rel = d.Name()
		}
		return fn(path, rel)
	})
}
