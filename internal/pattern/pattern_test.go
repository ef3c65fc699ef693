package pattern

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestElementEquality(t *testing.T) {
	t.Parallel()

	require.Equal(t, Text("a"), Text("a"))
	require.NotEqual(t, Text("a"), Text("b"))
	require.NotEqual(t, Text(""), Placeholder)
	require.NotEqual(t, Text(PlaceholderText), Placeholder)
	require.True(t, Placeholder == Placeholder)
}

func TestPatternString(t *testing.T) {
	t.Parallel()

	p := Pattern{Text("hello"), Text("1"), Placeholder, Text("3")}
	require.Equal(t, "hello 1 --- 3", p.String())
	require.Equal(t, []string{"hello", "1", "---", "3"}, p.Tokens())
	require.Equal(t, "", Pattern{}.String())
}

func TestPatternCloneIsIndependent(t *testing.T) {
	t.Parallel()

	line := []byte("alpha beta")
	src := string(line)
	p := MustTokenizer("").Tokenize(src, nil)
	c := p.Clone()

	require.True(t, p.Equal(c))
	c[0] = Placeholder
	require.Equal(t, Text("alpha"), p[0])
	require.Nil(t, Pattern(nil).Clone())
}

func TestTokenizeWhitespace(t *testing.T) {
	t.Parallel()

	tok := MustTokenizer(DefaultSeparator)
	tests := []struct {
		name string
		line string
		want []string
	}{
		{"empty", "", []string{}},
		{"only spaces", " \t  ", []string{}},
		{"single", "word", []string{"word"}},
		{"runs", "a  b\t\tc", []string{"a", "b", "c"}},
		{"leading and trailing", "  a b  ", []string{"a", "b"}},
		{"unicode space", "a\u00a0b\u2003c", []string{"a", "b", "c"}},
		{"multibyte tokens", "héllo wörld", []string{"héllo", "wörld"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tok.Tokenize(tt.line, nil)
			require.Equal(t, tt.want, tokensOf(got))
		})
	}
}

func TestTokenizeRegex(t *testing.T) {
	t.Parallel()

	tok, err := NewTokenizer(`[,;]\s*`)
	require.NoError(t, err)

	got := tok.Tokenize("a, b;c,,d;", nil)
	require.Equal(t, []string{"a", "b", "c", "d"}, tokensOf(got))

	// Leading and trailing separators produce no empty tokens.
	tok, err = NewTokenizer(`,`)
	require.NoError(t, err)
	require.Equal(t, []string{"a"}, tokensOf(tok.Tokenize(",a,", nil)))

	// Zero-width matches never split.
	tok, err = NewTokenizer(`x*`)
	require.NoError(t, err)
	require.Equal(t, []string{"ab", "c"}, tokensOf(tok.Tokenize("abxxc", nil)))
}

func TestTokenizeReusesDestination(t *testing.T) {
	t.Parallel()

	tok := MustTokenizer("")
	buf := make(Pattern, 0, 8)
	first := tok.Tokenize("a b c", buf)
	require.Len(t, first, 3)

	second := tok.Tokenize("d", first)
	require.Equal(t, []string{"d"}, tokensOf(second))
	require.Equal(t, cap(buf), cap(second))
}

func TestNewTokenizerInvalidPattern(t *testing.T) {
	t.Parallel()

	_, err := NewTokenizer(`(`)
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid split pattern")
	require.Panics(t, func() { MustTokenizer(`[`) })
}

func tokensOf(p Pattern) []string {
	out := make([]string, 0, len(p))
	for _, e := range p {
		out = append(out, e.String())
	}
	return out
}

func fields(s string) Pattern {
	return FromStrings(strings.Fields(s)...)
}
