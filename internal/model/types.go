package model

import "time"

// Run describes one archived clustering run.
type Run struct {
	ID          string    `json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	Source      string    `json:"source"`
	MaxDistance float64   `json:"max_distance"`
	MinMembers  int       `json:"min_members"`
	Jobs        int       `json:"jobs"`
	Lines       int64     `json:"lines"`
	Clusters    int       `json:"clusters"`
}

// PatternRow is one reported cluster of a run. Position is the cluster's
// place in the report, starting at 0.
type PatternRow struct {
	RunID          string `json:"run_id"`
	Position       int    `json:"position"`
	Count          int64  `json:"count"`
	Pattern        string `json:"pattern"`
	Representative string `json:"representative"`
	Severity       string `json:"severity,omitempty"`
}
