package cluster

import "github.com/tinytelemetry/logmine/internal/pattern"

// Reducer folds cluster lists produced independently (for example by parallel
// workers) into one list. It is not safe for concurrent use.
type Reducer struct {
	opts   Options
	merger *pattern.Merger
	total  []Cluster
}

// NewReducer returns an empty Reducer matching with opts.MaxDist.
func NewReducer(opts Options) *Reducer {
	return &Reducer{
		opts:   opts,
		merger: pattern.NewMerger(pattern.DefaultScoring),
	}
}

// Add folds clusters into the running total. Each incoming cluster joins the
// first total cluster whose representative is within MaxDist of its own; the
// counts are summed and the templates merged, as if its members had been fed
// one by one. Unmatched clusters are appended.
func (r *Reducer) Add(clusters []Cluster) {
	for _, a := range clusters {
		r.add(a)
	}
}

func (r *Reducer) add(a Cluster) {
	for i := range r.total {
		b := &r.total[i]
		if pattern.Distance(a.Representative, b.Representative, r.opts.MaxDist) <= r.opts.MaxDist {
			b.Count += a.Count
			b.Pattern = r.merger.Merge(a.Pattern, b.Pattern)
			return
		}
	}
	r.total = append(r.total, a)
}

// Len is the number of clusters in the running total.
func (r *Reducer) Len() int { return len(r.total) }

// Result drains the reducer and returns the clusters with at least MinMembers
// members.
func (r *Reducer) Result() []Cluster {
	out := r.total
	r.total = nil
	return Filter(out, r.opts.MinMembers)
}

// Reduce folds lists in order with a fresh Reducer.
func Reduce(opts Options, lists ...[]Cluster) []Cluster {
	r := NewReducer(opts)
	for _, l := range lists {
		r.Add(l)
	}
	return r.Result()
}
