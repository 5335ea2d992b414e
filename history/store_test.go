package history

import (
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "history", "runs.db"))
	if err != nil {
		t.Fatalf("Open() returned error: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func sampleRun() Run {
	return Run{
		Mode:       "prompt",
		Prompt:     "a lighthouse at dusk",
		Seed:       42,
		Width:      256,
		Height:     256,
		Steps:      4,
		Guidance:   1.0,
		Strength:   0.75,
		OutputPath: "out.png",
		DurationMS: 1500,
	}
}

func TestOpen_CreatesDatabaseDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "deeper", "runs.db")
	store, err := Open(path)
	if err != nil {
		t.Fatalf("Open() returned error: %v", err)
	}
	defer store.Close()

	if store.Path() != path {
		t.Errorf("Path() = %q, want %q", store.Path(), path)
	}
}

func TestOpen_EmptyPath(t *testing.T) {
	if _, err := Open(""); err == nil {
		t.Error("Open(\"\") = nil error, want error")
	}
}

func TestOpen_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.db")

	store, err := Open(path)
	if err != nil {
		t.Fatalf("first Open() returned error: %v", err)
	}
	if _, err := store.RecordRun(sampleRun()); err != nil {
		t.Fatalf("RecordRun() returned error: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close() returned error: %v", err)
	}

	// Reopening applies no migrations but must see the existing data.
	store, err = Open(path)
	if err != nil {
		t.Fatalf("second Open() returned error: %v", err)
	}
	defer store.Close()

	runs, err := store.RecentRuns(10)
	if err != nil {
		t.Fatalf("RecentRuns() returned error: %v", err)
	}
	if len(runs) != 1 {
		t.Errorf("runs after reopen = %d, want 1", len(runs))
	}
}

func TestRecordRun_FillsIDAndCreatedAt(t *testing.T) {
	store := openTestStore(t)

	before := time.Now().UTC().Add(-time.Second)
	run, err := store.RecordRun(sampleRun())
	if err != nil {
		t.Fatalf("RecordRun() returned error: %v", err)
	}
	if run.ID == "" {
		t.Error("RecordRun() left ID empty")
	}
	if run.CreatedAt.Before(before) {
		t.Errorf("CreatedAt = %v, want a recent timestamp", run.CreatedAt)
	}
}

func TestRecordRun_KeepsExplicitID(t *testing.T) {
	store := openTestStore(t)

	r := sampleRun()
	r.ID = "run-explicit"
	r.CreatedAt = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	got, err := store.RecordRun(r)
	if err != nil {
		t.Fatalf("RecordRun() returned error: %v", err)
	}
	if got.ID != "run-explicit" {
		t.Errorf("ID = %q, want %q", got.ID, "run-explicit")
	}
	if !got.CreatedAt.Equal(r.CreatedAt) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, r.CreatedAt)
	}
}

func TestRecentRuns_NewestFirst(t *testing.T) {
	store := openTestStore(t)

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		r := sampleRun()
		r.Seed = int64(i)
		r.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		if _, err := store.RecordRun(r); err != nil {
			t.Fatalf("RecordRun() returned error: %v", err)
		}
	}

	runs, err := store.RecentRuns(10)
	if err != nil {
		t.Fatalf("RecentRuns() returned error: %v", err)
	}
	if len(runs) != 3 {
		t.Fatalf("len(runs) = %d, want 3", len(runs))
	}
	for i, wantSeed := range []int64{2, 1, 0} {
		if runs[i].Seed != wantSeed {
			t.Errorf("runs[%d].Seed = %d, want %d", i, runs[i].Seed, wantSeed)
		}
	}
}

func TestRecentRuns_Limit(t *testing.T) {
	store := openTestStore(t)

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		r := sampleRun()
		r.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		if _, err := store.RecordRun(r); err != nil {
			t.Fatalf("RecordRun() returned error: %v", err)
		}
	}

	runs, err := store.RecentRuns(2)
	if err != nil {
		t.Fatalf("RecentRuns() returned error: %v", err)
	}
	if len(runs) != 2 {
		t.Errorf("len(runs) = %d, want 2", len(runs))
	}
}

func TestRecentRuns_RoundTripsFields(t *testing.T) {
	store := openTestStore(t)

	want := sampleRun()
	want.Mode = "img2img"
	want.Strength = 0.5
	if _, err := store.RecordRun(want); err != nil {
		t.Fatalf("RecordRun() returned error: %v", err)
	}

	runs, err := store.RecentRuns(1)
	if err != nil {
		t.Fatalf("RecentRuns() returned error: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("len(runs) = %d, want 1", len(runs))
	}
	got := runs[0]
	if got.Mode != want.Mode || got.Prompt != want.Prompt || got.Seed != want.Seed {
		t.Errorf("got %+v, want fields of %+v", got, want)
	}
	if got.Width != want.Width || got.Height != want.Height || got.Steps != want.Steps {
		t.Errorf("got size/steps %d x %d / %d, want %d x %d / %d",
			got.Width, got.Height, got.Steps, want.Width, want.Height, want.Steps)
	}
	if got.Guidance != want.Guidance || got.Strength != want.Strength {
		t.Errorf("got guidance/strength %g/%g, want %g/%g",
			got.Guidance, got.Strength, want.Guidance, want.Strength)
	}
	if got.OutputPath != want.OutputPath || got.DurationMS != want.DurationMS {
		t.Errorf("got output/duration %q/%d, want %q/%d",
			got.OutputPath, got.DurationMS, want.OutputPath, want.DurationMS)
	}
}

func TestClose_Idempotent(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatalf("Open() returned error: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Errorf("first Close() returned error: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Errorf("second Close() returned error: %v", err)
	}
}
