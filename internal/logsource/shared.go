package logsource

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/tinytelemetry/logmine/internal/linepool"
)

// SharedReader lets several workers pull runs of lines from one source. Each
// fill holds the lock for the whole run, so every worker receives a
// contiguous, disjoint slice of the input.
type SharedReader struct {
	mu  sync.Mutex
	src *LineReader
	err error // sticky, guarded by mu

	exhausted atomic.Bool
}

// NewSharedReader wraps r for concurrent chunked reads.
func NewSharedReader(r io.Reader) *SharedReader {
	return &SharedReader{src: NewLineReader(r)}
}

// Exhausted reports, without locking, whether the source hit end of input or
// failed. A false result may be stale.
func (s *SharedReader) Exhausted() bool {
	return s.exhausted.Load()
}

// Fill blocks for the lock and moves up to n dead buffers of pool to live,
// one line each. It returns the number of lines read; 0 with a nil error means
// end of input.
func (s *SharedReader) Fill(pool *linepool.Pool, n int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fillLocked(pool, n)
}

// TryFill is Fill without waiting: ok is false when another worker holds the
// lock and nothing was read.
func (s *SharedReader) TryFill(pool *linepool.Pool, n int) (read int, ok bool, err error) {
	if !s.mu.TryLock() {
		return 0, false, nil
	}
	defer s.mu.Unlock()
	read, err = s.fillLocked(pool, n)
	return read, true, err
}

func (s *SharedReader) fillLocked(pool *linepool.Pool, n int) (int, error) {
	if s.err != nil {
		if errors.Is(s.err, io.EOF) {
			return 0, nil
		}
		return 0, s.err
	}

	read := 0
	for read < n {
		ref, ok := pool.TakeDead()
		if !ok {
			break
		}
		line, err := s.src.ReadLine(ref.Buffer())
		ref.SetBuffer(line)
		if err != nil {
			ref.StayDead()
			ref.Release()
			s.exhausted.Store(true)
			if errors.Is(err, io.EOF) {
				s.err = io.EOF
				return read, nil
			}
			s.err = fmt.Errorf("read input: %w", err)
			return read, s.err
		}
		ref.Release()
		read++
	}
	return read, nil
}
