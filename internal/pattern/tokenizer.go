package pattern

import (
	"fmt"
	"regexp"
	"unicode"
	"unicode/utf8"
)

// DefaultSeparator splits on runs of whitespace.
const DefaultSeparator = `\s+`

// Tokenizer splits lines into literal elements.
// A Tokenizer is immutable and may be shared between goroutines.
type Tokenizer struct {
	sep *regexp.Regexp // nil selects the whitespace fast path
}

// NewTokenizer compiles the separator expression. An empty separator or
// DefaultSeparator uses a hand-written whitespace splitter.
func NewTokenizer(separator string) (*Tokenizer, error) {
	if separator == "" || separator == DefaultSeparator {
		return &Tokenizer{}, nil
	}
	re, err := regexp.Compile(separator)
	if err != nil {
		return nil, fmt.Errorf("invalid split pattern %q: %w", separator, err)
	}
	return &Tokenizer{sep: re}, nil
}

// MustTokenizer is NewTokenizer that panics on error. Intended for tests and
// package-level defaults.
func MustTokenizer(separator string) *Tokenizer {
	t, err := NewTokenizer(separator)
	if err != nil {
		panic(err)
	}
	return t
}

// Tokenize appends the tokens of line to dst[:0] and returns it. Empty pieces
// (from leading or trailing separators) are skipped, so an empty line yields
// an empty pattern. Unlike regexp.Split, ",a," with separator "," gives one
// token, not three. Elements reference line's memory.
func (t *Tokenizer) Tokenize(line string, dst Pattern) Pattern {
	dst = dst[:0]
	if t.sep == nil {
		return splitSpace(line, dst)
	}

	last := 0
	for _, loc := range t.sep.FindAllStringIndex(line, -1) {
		if loc[1] == loc[0] {
			// zero-width matches do not separate
			continue
		}
		if loc[0] > last {
			dst = append(dst, Text(line[last:loc[0]]))
		}
		last = loc[1]
	}
	if last < len(line) {
		dst = append(dst, Text(line[last:]))
	}
	return dst
}

func splitSpace(line string, dst Pattern) Pattern {
	start := -1
	for i := 0; i < len(line); {
		r, size := rune(line[i]), 1
		if r >= utf8.RuneSelf {
			r, size = utf8.DecodeRuneInString(line[i:])
		}
		if unicode.IsSpace(r) {
			if start >= 0 {
				dst = append(dst, Text(line[start:i]))
				start = -1
			}
		} else if start < 0 {
			start = i
		}
		i += size
	}
	if start >= 0 {
		dst = append(dst, Text(line[start:]))
	}
	return dst
}
