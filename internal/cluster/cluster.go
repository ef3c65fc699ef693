// Package cluster groups tokenized log lines into clusters anchored on the
// first line that founded each cluster, and folds cluster lists together.
package cluster

import (
	"strconv"
	"strings"

	"github.com/tinytelemetry/logmine/internal/pattern"
)

// Engine defaults, used when options are left unset.
const (
	DefaultMaxDist    = 0.01
	DefaultMinMembers = 1
)

// Options configures matching and reporting.
type Options struct {
	// MaxDist is the inclusive distance bound for a line to join a cluster.
	MaxDist float64
	// MinMembers is the smallest count a cluster needs to be reported.
	MinMembers int
}

// DefaultOptions returns the engine defaults.
func DefaultOptions() Options {
	return Options{MaxDist: DefaultMaxDist, MinMembers: DefaultMinMembers}
}

// Cluster is a group of similar lines.
type Cluster struct {
	// Representative holds the literal tokens of the founding line. It never
	// changes and is the only thing new lines are compared against.
	Representative pattern.Pattern
	// Pattern is the running template, merged with every member.
	Pattern pattern.Pattern
	// Count is the number of members.
	Count int
}

// String renders the cluster as "<count> <tok> <tok> ... " with placeholders
// shown as "---".
func (c Cluster) String() string {
	var b strings.Builder
	b.WriteString(strconv.Itoa(c.Count))
	b.WriteByte(' ')
	for _, e := range c.Pattern {
		b.WriteString(e.String())
		b.WriteByte(' ')
	}
	return b.String()
}

// Clusterer performs online first-match clustering for a single goroutine.
type Clusterer struct {
	opts     Options
	tok      *pattern.Tokenizer
	merger   *pattern.Merger
	clusters []Cluster
	scratch  pattern.Pattern
}

// New returns an empty Clusterer. A nil tokenizer splits on whitespace.
func New(tok *pattern.Tokenizer, opts Options) *Clusterer {
	if tok == nil {
		tok = pattern.MustTokenizer(pattern.DefaultSeparator)
	}
	if opts.MinMembers < 1 {
		opts.MinMembers = DefaultMinMembers
	}
	return &Clusterer{
		opts:   opts,
		tok:    tok,
		merger: pattern.NewMerger(pattern.DefaultScoring),
	}
}

// Options returns the clusterer configuration.
func (c *Clusterer) Options() Options { return c.opts }

// Len is the number of clusters found so far.
func (c *Clusterer) Len() int { return len(c.clusters) }

// ProcessLine tokenizes line and clusters it. The clusterer keeps no reference
// to line.
func (c *Clusterer) ProcessLine(line string) {
	c.scratch = c.tok.Tokenize(line, c.scratch)
	c.Process(c.scratch)
}

// Process adds one record. The first cluster whose representative is within
// MaxDist absorbs it; otherwise the record founds a new cluster. p is not
// retained.
func (c *Clusterer) Process(p pattern.Pattern) {
	for i := range c.clusters {
		cl := &c.clusters[i]
		if pattern.Distance(cl.Representative, p, c.opts.MaxDist) <= c.opts.MaxDist {
			cl.Count++
			cl.Pattern = c.merger.Merge(cl.Pattern, p)
			return
		}
	}

	// Patterns are replaced on merge, never edited in place, so the new
	// cluster's template can share the representative's storage.
	rep := p.Clone()
	if rep == nil {
		rep = pattern.Pattern{}
	}
	c.clusters = append(c.clusters, Cluster{
		Representative: rep,
		Pattern:        rep,
		Count:          1,
	})
}

// Result drains the clusterer and returns clusters with at least MinMembers
// members, in the order they were founded.
func (c *Clusterer) Result() []Cluster {
	return Filter(c.TakeAll(), c.opts.MinMembers)
}

// TakeAll drains the clusterer without filtering.
func (c *Clusterer) TakeAll() []Cluster {
	out := c.clusters
	c.clusters = nil
	return out
}

// Filter keeps clusters with Count >= minMembers, preserving order. The input
// slice is reused.
func Filter(clusters []Cluster, minMembers int) []Cluster {
	if minMembers <= 1 {
		return clusters
	}
	out := clusters[:0]
	for _, cl := range clusters {
		if cl.Count >= minMembers {
			out = append(out, cl)
		}
	}
	return out
}
