package export

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"

	"github.com/halvore/scour/internal/parse"
)

// Options controls how sessions are written out.
type Options struct {
	Dir      string // output directory, created if missing
	Compress bool   // wrap the JSON stream in zstd
}

// WriteSession writes one session as pretty-printed JSON under opts.Dir.
// The filename is "<source>-<session_id>.json" (plus ".zst" when
// compressing). Returns the path written.
func WriteSession(s *parse.Session, opts Options) (string, error) {
	if s == nil {
		return "", fmt.Errorf("nil session")
	}
	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}

	name := fmt.Sprintf("%s-%s.json", s.Source, sanitizeFilename(s.SessionID))
	if opts.Compress {
		name += ".zst"
	}
	path := filepath.Join(opts.Dir, name)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create export file: %w", err)
	}
	defer f.Close()

	var w io.Writer = f
	var zw *zstd.Encoder
	if opts.Compress {
		zw, err = zstd.NewWriter(f)
		if err != nil {
			return "", fmt.Errorf("init zstd writer: %w", err)
		}
		w = zw
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		return "", fmt.Errorf("encode session: %w", err)
	}

	if zw != nil {
		if err := zw.Close(); err != nil {
			return "", fmt.Errorf("finish zstd stream: %w", err)
		}
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close export file: %w", err)
	}
	return path, nil
}

// ReadFile reads a session back from an export file, transparently
// decompressing ".zst" files.
func ReadFile(path string) (*parse.Session, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open export file: %w", err)
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".zst") {
		zr, err := zstd.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("init zstd reader: %w", err)
		}
		defer zr.Close()
		r = zr
	}

	var s parse.Session
	if err := json.NewDecoder(r).Decode(&s); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &s, nil
}

// sanitizeFilename strips path separators from untrusted id strings.
func sanitizeFilename(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':':
			return '_'
		}
		return r
	}, s)
}
