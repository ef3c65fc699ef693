package logsource

import (
	"bufio"
	"errors"
	"io"
)

// LineReader reads newline-delimited lines without a length limit.
type LineReader struct {
	r *bufio.Reader
}

// NewLineReader wraps r with a buffered reader.
func NewLineReader(r io.Reader) *LineReader {
	return &LineReader{r: bufio.NewReaderSize(r, DefaultReadBufferSize)}
}

// ReadLine appends the next line to dst[:0], without its "\n" or "\r\n"
// terminator, and returns it. A final line without a terminator is returned
// normally; io.EOF is returned only when no data is left.
func (l *LineReader) ReadLine(dst []byte) ([]byte, error) {
	dst = dst[:0]
	read := false
	for {
		chunk, err := l.r.ReadSlice('\n')
		if len(chunk) > 0 {
			read = true
			dst = append(dst, chunk...)
		}
		switch {
		case err == nil:
			return trimEOL(dst), nil
		case errors.Is(err, bufio.ErrBufferFull):
			continue
		case errors.Is(err, io.EOF):
			if read {
				return trimEOL(dst), nil
			}
			return dst, io.EOF
		default:
			return dst, err
		}
	}
}

func trimEOL(b []byte) []byte {
	if n := len(b); n > 0 && b[n-1] == '\n' {
		b = b[:n-1]
		if n := len(b); n > 0 && b[n-1] == '\r' {
			b = b[:n-1]
		}
	}
	return b
}
