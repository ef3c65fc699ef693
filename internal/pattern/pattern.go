// Package pattern holds the token model shared by the clusterer: patterns of
// literal tokens and placeholders, the tokenizer that builds them from log
// lines, the distance scorer and the alignment-based merger.
package pattern

import "strings"

// PlaceholderText is how a placeholder renders in templates.
const PlaceholderText = "---"

// Element is a single position in a Pattern: literal text or a placeholder.
// Elements are comparable with ==.
type Element struct {
	text        string
	placeholder bool
}

// Placeholder marks a position that varies across cluster members.
var Placeholder = Element{placeholder: true}

// Text returns a literal element.
func Text(s string) Element {
	return Element{text: s}
}

func (e Element) IsPlaceholder() bool { return e.placeholder }

// Value returns the literal text, or "" for a placeholder.
func (e Element) Value() string { return e.text }

func (e Element) String() string {
	if e.placeholder {
		return PlaceholderText
	}
	return e.text
}

// Pattern is an ordered token sequence: a tokenized line or a merged template.
type Pattern []Element

// FromStrings builds a pattern of literal elements.
func FromStrings(tokens ...string) Pattern {
	p := make(Pattern, len(tokens))
	for i, t := range tokens {
		p[i] = Text(t)
	}
	return p
}

// Equal reports whether both patterns have the same elements in order.
func (p Pattern) Equal(o Pattern) bool {
	if len(p) != len(o) {
		return false
	}
	for i := range p {
		if p[i] != o[i] {
			return false
		}
	}
	return true
}

// Clone returns an owned deep copy. Tokens produced by the tokenizer are views
// into the input line; cloning detaches them so the line can be released.
func (p Pattern) Clone() Pattern {
	if p == nil {
		return nil
	}
	out := make(Pattern, len(p))
	for i, e := range p {
		if e.placeholder {
			out[i] = Placeholder
			continue
		}
		out[i] = Text(strings.Clone(e.text))
	}
	return out
}

// Tokens renders every element as a string, placeholders as PlaceholderText.
func (p Pattern) Tokens() []string {
	out := make([]string, len(p))
	for i, e := range p {
		out[i] = e.String()
	}
	return out
}

// String joins the rendered elements with single spaces.
func (p Pattern) String() string {
	var b strings.Builder
	for i, e := range p {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(e.String())
	}
	return b.String()
}
