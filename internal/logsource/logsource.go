// Package logsource opens log input (a file or stdin) and reads it line by
// line, either privately or through a mutex-guarded reader shared by workers.
package logsource

import (
	"fmt"
	"io"
	"os"
)

const (
	// StdinName names the standard input source.
	StdinName = "stdin"

	// DefaultReadBufferSize is the bufio buffer size used for sources.
	DefaultReadBufferSize = 64 * 1024
)

// Open returns the source for path and a display name. An empty path or "-"
// selects stdin, which is returned wrapped so closing it is a no-op.
func Open(path string) (io.ReadCloser, string, error) {
	if path == "" || path == "-" {
		return io.NopCloser(os.Stdin), StdinName, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("open input: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, "", fmt.Errorf("stat input: %w", err)
	}
	if info.IsDir() {
		_ = f.Close()
		return nil, "", fmt.Errorf("open input: %s is a directory", path)
	}
	return f, path, nil
}

// StdinPiped reports whether stdin is a pipe or file rather than a terminal.
func StdinPiped() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}
