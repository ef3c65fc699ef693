// Package report turns cluster lists into the entries printed or archived at
// the end of a run and renders them as text, JSON or YAML.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"gopkg.in/yaml.v3"

	"github.com/tinytelemetry/logmine/internal/cluster"
	"github.com/tinytelemetry/logmine/internal/logparse"
	"github.com/tinytelemetry/logmine/internal/model"
	"github.com/tinytelemetry/logmine/internal/pattern"
)

// Format selects the output encoding.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatText, FormatJSON, FormatYAML:
		return f, nil
	}
	return "", fmt.Errorf("unknown output format %q (want text, json or yaml)", s)
}

// Entry is one reported cluster.
type Entry struct {
	Count          int               `json:"count" yaml:"count"`
	Pattern        string            `json:"pattern" yaml:"pattern"`
	Tokens         []string          `json:"tokens" yaml:"tokens"`
	Representative string            `json:"representative" yaml:"representative"`
	Severity       logparse.Severity `json:"severity,omitempty" yaml:"severity,omitempty"`

	elems pattern.Pattern
}

// Entries converts clusters in report order. With byCount the entries are
// ordered by descending count; ties keep discovery order.
func Entries(clusters []cluster.Cluster, byCount bool) []Entry {
	out := make([]Entry, 0, len(clusters))
	for _, c := range clusters {
		out = append(out, Entry{
			Count:          c.Count,
			Pattern:        c.Pattern.String(),
			Tokens:         c.Pattern.Tokens(),
			Representative: c.Representative.String(),
			Severity:       logparse.SeverityOf(c.Pattern),
			elems:          c.Pattern,
		})
	}
	if byCount {
		sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	}
	return out
}

// Options controls rendering.
type Options struct {
	Format Format
	// Color styles text output with ANSI colors. The caller decides whether
	// the destination can display them.
	Color bool
}

// Write renders entries to w.
func Write(w io.Writer, entries []Entry, opts Options) error {
	if entries == nil {
		entries = []Entry{}
	}
	switch opts.Format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(entries); err != nil {
			return fmt.Errorf("encode json report: %w", err)
		}
		return nil
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(entries); err != nil {
			return fmt.Errorf("encode yaml report: %w", err)
		}
		return enc.Close()
	case FormatText, "":
		return writeText(w, entries, opts.Color)
	}
	return fmt.Errorf("unknown output format %q", opts.Format)
}

type textStyles struct {
	count       lipgloss.Style
	placeholder lipgloss.Style
	severity    map[logparse.Severity]lipgloss.Style
}

func newTextStyles(w io.Writer) *textStyles {
	r := lipgloss.NewRenderer(w)
	r.SetColorProfile(termenv.ANSI256)
	return &textStyles{
		count:       r.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		placeholder: r.NewStyle().Foreground(lipgloss.Color("240")),
		severity: map[logparse.Severity]lipgloss.Style{
			logparse.Warn:  r.NewStyle().Bold(true).Foreground(lipgloss.Color("220")),
			logparse.Error: r.NewStyle().Bold(true).Foreground(lipgloss.Color("196")),
			logparse.Fatal: r.NewStyle().Bold(true).Foreground(lipgloss.Color("201")),
		},
	}
}

// writeText prints "<count> <tok> <tok> ... " per entry, the trailing space
// included.
func writeText(w io.Writer, entries []Entry, color bool) error {
	var styles *textStyles
	if color {
		styles = newTextStyles(w)
	}

	var b strings.Builder
	for _, e := range entries {
		b.Reset()
		count := strconv.Itoa(e.Count)
		if styles != nil {
			st, ok := styles.severity[e.Severity]
			if !ok {
				st = styles.count
			}
			count = st.Render(count)
		}
		b.WriteString(count)
		b.WriteByte(' ')

		for i, tok := range e.Tokens {
			if styles != nil && e.isPlaceholder(i) {
				tok = styles.placeholder.Render(tok)
			}
			b.WriteString(tok)
			b.WriteByte(' ')
		}
		b.WriteByte('\n')

		if _, err := io.WriteString(w, b.String()); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
	}
	return nil
}

func (e Entry) isPlaceholder(i int) bool {
	if e.elems != nil {
		return i < len(e.elems) && e.elems[i].IsPlaceholder()
	}
	return e.Tokens[i] == pattern.PlaceholderText
}

// PatternRows converts entries to archive rows in report order. The run ID is
// assigned by the store.
func PatternRows(entries []Entry) []model.PatternRow {
	rows := make([]model.PatternRow, len(entries))
	for i, e := range entries {
		rows[i] = model.PatternRow{
			Position:       i,
			Count:          int64(e.Count),
			Pattern:        e.Pattern,
			Representative: e.Representative,
			Severity:       string(e.Severity),
		}
	}
	return rows
}
