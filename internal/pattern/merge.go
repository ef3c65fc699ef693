package pattern

// Scoring weights for the global alignment used by Merger.
type Scoring struct {
	Match    int
	Mismatch int
	// Gap is charged for every unpaired position. Opening and extending a gap
	// cost the same.
	Gap int
}

// DefaultScoring rewards equal tokens and makes gaps free, so two gaps are
// always preferred to pairing unequal tokens.
var DefaultScoring = Scoring{Match: 10, Mismatch: -1, Gap: 0}

// Merger folds two patterns into a template by global alignment. It keeps its
// score matrix between calls and is not safe for concurrent use.
type Merger struct {
	scoring Scoring
	matrix  []int
}

// NewMerger returns a Merger using the given weights.
func NewMerger(s Scoring) *Merger {
	return &Merger{scoring: s}
}

// Merge returns a new pattern in which positions aligned between a and b with
// equal literals keep a's element and every run of unpaired positions becomes
// a single Placeholder. Paired placeholders join the surrounding run, so the
// result never holds two adjacent placeholders.
func Merge(a, b Pattern) Pattern {
	return NewMerger(DefaultScoring).Merge(a, b)
}

// Merge aligns a and b and returns the merged template. Neither input is
// modified.
func (m *Merger) Merge(a, b Pattern) Pattern {
	if len(a) == 0 && len(b) == 0 {
		return Pattern{}
	}

	n, k := len(a), len(b)
	width := k + 1
	score := m.fill(a, b)

	hint := n
	if k > hint {
		hint = k
	}
	out := make(Pattern, 0, hint)
	gap := func() {
		if len(out) == 0 || !out[len(out)-1].placeholder {
			out = append(out, Placeholder)
		}
	}

	i, j := 0, 0
	for i < n || j < k {
		cur := score[i*width+j]
		if i < n && j < k && cur == score[(i+1)*width+j+1]+m.pair(a[i], b[j]) {
			if a[i] == b[j] && !a[i].placeholder {
				out = append(out, a[i])
			} else {
				gap()
			}
			i++
			j++
			continue
		}
		if i < n && cur == score[(i+1)*width+j]+m.scoring.Gap {
			gap()
			i++
			continue
		}
		if j < k && cur == score[i*width+j+1]+m.scoring.Gap {
			gap()
			j++
			continue
		}
		panic("pattern: alignment traceback lost the optimal path")
	}
	return out
}

func (m *Merger) pair(x, y Element) int {
	if x == y {
		return m.scoring.Match
	}
	return m.scoring.Mismatch
}

// fill computes suffix alignment scores: cell (i, j) holds the best score for
// aligning a[i:] with b[j:]. Walking the optimal path forward from (0, 0) then
// yields the steps in emission order.
func (m *Merger) fill(a, b Pattern) []int {
	n, k := len(a), len(b)
	width := k + 1
	size := (n + 1) * width
	if cap(m.matrix) < size {
		m.matrix = make([]int, size)
	}
	s := m.matrix[:size]
	gap := m.scoring.Gap

	s[n*width+k] = 0
	for j := k - 1; j >= 0; j-- {
		s[n*width+j] = s[n*width+j+1] + gap
	}
	for i := n - 1; i >= 0; i-- {
		row := i * width
		next := (i + 1) * width
		s[row+k] = s[next+k] + gap
		for j := k - 1; j >= 0; j-- {
			best := s[next+j+1] + m.pair(a[i], b[j])
			if v := s[next+j] + gap; v > best {
				best = v
			}
			if v := s[row+j+1] + gap; v > best {
				best = v
			}
			s[row+j] = best
		}
	}
	return s
}
