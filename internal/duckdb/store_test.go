package duckdb

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/tinytelemetry/logmine/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore("")
	if err != nil {
		t.Fatalf("NewStore(\"\") failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func samplePatterns() []model.PatternRow {
	return []model.PatternRow{
		{Count: 7, Pattern: "value config --- ---", Representative: "value config A 0"},
		{Count: 3, Pattern: "ERROR disk --- failed", Representative: "ERROR disk sda failed", Severity: "ERROR"},
		{Count: 1, Pattern: "lonely line", Representative: "lonely line"},
	}
}

func saveTestRun(t *testing.T, store *Store, source string, created time.Time) model.Run {
	t.Helper()
	run, err := store.SaveRun(model.Run{
		CreatedAt:   created,
		Source:      source,
		MaxDistance: 0.6,
		MinMembers:  1,
		Jobs:        4,
		Lines:       11,
	}, samplePatterns())
	if err != nil {
		t.Fatalf("SaveRun: %v", err)
	}
	return run
}

func TestSaveAndGetRun(t *testing.T) {
	store := newTestStore(t)

	saved := saveTestRun(t, store, "app.log", time.Time{})
	if saved.ID == "" {
		t.Fatal("SaveRun did not assign an ID")
	}
	if saved.CreatedAt.IsZero() {
		t.Fatal("SaveRun did not set CreatedAt")
	}
	if saved.Clusters != 3 {
		t.Errorf("Clusters = %d, want 3", saved.Clusters)
	}

	got, err := store.GetRun(saved.ID)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if got.Source != "app.log" || got.Jobs != 4 || got.Lines != 11 || got.MaxDistance != 0.6 {
		t.Errorf("GetRun = %+v", got)
	}
	if d := got.CreatedAt.Sub(saved.CreatedAt); d > time.Millisecond || d < -time.Millisecond {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, saved.CreatedAt)
	}
}

func TestGetRunNotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.GetRun("missing")
	if !errors.Is(err, model.ErrRunNotFound) {
		t.Fatalf("GetRun(missing) error = %v, want ErrRunNotFound", err)
	}
	if _, err := store.RunPatterns("missing", 0); !errors.Is(err, model.ErrRunNotFound) {
		t.Fatalf("RunPatterns(missing) error = %v, want ErrRunNotFound", err)
	}
}

func TestRunPatterns(t *testing.T) {
	store := newTestStore(t)
	run := saveTestRun(t, store, "stdin", time.Time{})

	all, err := store.RunPatterns(run.ID, 0)
	if err != nil {
		t.Fatalf("RunPatterns: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("got %d patterns, want 3", len(all))
	}
	for i, p := range all {
		if p.Position != i || p.RunID != run.ID {
			t.Errorf("pattern %d = %+v", i, p)
		}
	}
	if all[1].Severity != "ERROR" || all[1].Representative != "ERROR disk sda failed" {
		t.Errorf("pattern 1 = %+v", all[1])
	}

	frequent, err := store.RunPatterns(run.ID, 3)
	if err != nil {
		t.Fatalf("RunPatterns(min 3): %v", err)
	}
	if len(frequent) != 2 || frequent[0].Count != 7 || frequent[1].Count != 3 {
		t.Errorf("RunPatterns(min 3) = %+v", frequent)
	}
}

func TestListRunsNewestFirst(t *testing.T) {
	store := newTestStore(t)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for i, src := range []string{"a.log", "b.log", "c.log"} {
		saveTestRun(t, store, src, base.Add(time.Duration(i)*time.Minute))
	}

	runs, err := store.ListRuns(0)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 3 {
		t.Fatalf("got %d runs, want 3", len(runs))
	}
	if runs[0].Source != "c.log" || runs[2].Source != "a.log" {
		t.Errorf("unexpected order: %s, %s, %s", runs[0].Source, runs[1].Source, runs[2].Source)
	}

	limited, err := store.ListRuns(2)
	if err != nil {
		t.Fatalf("ListRuns(2): %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("ListRuns(2) returned %d runs", len(limited))
	}

	n, err := store.RunCount()
	if err != nil {
		t.Fatalf("RunCount: %v", err)
	}
	if n != 3 {
		t.Errorf("RunCount = %d, want 3", n)
	}
}

func TestListRunsEmpty(t *testing.T) {
	store := newTestStore(t)

	runs, err := store.ListRuns(10)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if runs == nil || len(runs) != 0 {
		t.Errorf("ListRuns on empty archive = %#v, want empty slice", runs)
	}
}

func TestSaveRunWithoutPatterns(t *testing.T) {
	store := newTestStore(t)

	run, err := store.SaveRun(model.Run{Source: "empty.log"}, nil)
	if err != nil {
		t.Fatalf("SaveRun: %v", err)
	}
	patterns, err := store.RunPatterns(run.ID, 0)
	if err != nil {
		t.Fatalf("RunPatterns: %v", err)
	}
	if len(patterns) != 0 {
		t.Errorf("got %d patterns, want 0", len(patterns))
	}
}

func TestFileStorePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "archive.duckdb")

	store, err := NewStore(path)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	run := saveTestRun(t, store, "app.log", time.Time{})
	if store.Path() != path {
		t.Errorf("Path = %q, want %q", store.Path(), path)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := NewStore(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	if _, err := reopened.GetRun(run.ID); err != nil {
		t.Fatalf("GetRun after reopen: %v", err)
	}
}
