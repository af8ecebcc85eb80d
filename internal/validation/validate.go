// Package validation provides structural acceptance checks for downloaded
// candidate files before they enter the corpus.
package validation

import (
	"encoding/binary"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
)

// MinFileSize is the minimum byte size for any acceptable file. Anything
// smaller is assumed to be an error page or truncated download.
const MinFileSize = 100

// riffHeader is the fixed 12-byte prologue of a RIFF container.
type riffHeader struct {
	ChunkID [4]byte // "RIFF"
	Size    uint32
	Format  [4]byte // "WAVE"
}

// Options configures which file kinds are acceptable.
type Options struct {
	// AcceptMetadata additionally accepts .json files that parse as
	// well-formed JSON. Off by default; only some source kinds carry
	// metadata sidecars worth keeping.
	AcceptMetadata bool
}

// IsAcceptable reports whether the file at path is structurally sound enough
// to enter the corpus. It is a pure predicate: any error opening or reading
// the candidate is swallowed and reported as "not acceptable".
func IsAcceptable(path string) bool {
	return IsAcceptableWith(path, Options{})
}

// IsAcceptableWith is IsAcceptable with explicit options.
func IsAcceptableWith(path string, opts Options) bool {
	info, err := os.Stat(path)
	if err != nil || info.Size() < MinFileSize {
		return false
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav":
		return isValidWAV(path)
	case ".nam":
		// Model captures get no deep structural check; size floor only.
		return true
	case ".json":
		return opts.AcceptMetadata && isWellFormedJSON(path)
	default:
		return false
	}
}

// isValidWAV parses the first 12 bytes as a little-endian RIFF header and
// requires the "RIFF"/"WAVE" tags. Short reads and read errors mean invalid.
func isValidWAV(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer func() { _ = f.Close() }()

	var h riffHeader
	if err := binary.Read(f, binary.LittleEndian, &h); err != nil {
		return false
	}
	return string(h.ChunkID[:]) == "RIFF" && string(h.Format[:]) == "WAVE"
}

func isWellFormedJSON(path string) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	return json.Valid(data)
}
