package model

import "errors"

// ErrRunNotFound is returned when a run ID is not in the archive.
var ErrRunNotFound = errors.New("run not found")

// RunWriter stores finished reports.
type RunWriter interface {
	SaveRun(run Run, patterns []PatternRow) (Run, error)
}

// RunReader provides read-only access to archived reports.
type RunReader interface {
	ListRuns(limit int) ([]Run, error)
	GetRun(id string) (Run, error)
	RunPatterns(id string, minCount int64) ([]PatternRow, error)
	RunCount() (int64, error)
}
