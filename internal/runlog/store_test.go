package runlog

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/dennisaldea/chipseqpipe/internal/config"
	"github.com/dennisaldea/chipseqpipe/internal/services"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Paths.RootDir = filepath.Join(dir, "data")
	cfg.Paths.LogDir = filepath.Join(dir, "logs")
	store, err := Open(&cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

func TestRunLifecycle(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	run, err := store.StartRun(ctx, "run-1", "run", "mm10")
	if err != nil {
		t.Fatalf("StartRun: %v", err)
	}
	if run.Status != RunStatusRunning || run.Command != "run" || run.Genome != "mm10" {
		t.Fatalf("unexpected run: %+v", run)
	}
	if run.StartedAt.IsZero() || !run.FinishedAt.IsZero() {
		t.Fatalf("unexpected timestamps: %+v", run)
	}
	if run.Finished() {
		t.Fatal("running run reports finished")
	}

	if err := store.FinishRun(ctx, "run-1", RunStatusFailed, "align stage failed"); err != nil {
		t.Fatalf("FinishRun: %v", err)
	}
	run, err = store.GetRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if run.Status != RunStatusFailed || run.ErrorMessage != "align stage failed" {
		t.Fatalf("unexpected finished run: %+v", run)
	}
	if run.FinishedAt.IsZero() || !run.Finished() {
		t.Fatalf("finish timestamp missing: %+v", run)
	}
}

func TestFinishUnknownRun(t *testing.T) {
	store := openTestStore(t)
	err := store.FinishRun(context.Background(), "ghost", RunStatusCompleted, "")
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("error %v is not a not-found error", err)
	}
}

func TestGetUnknownRun(t *testing.T) {
	store := openTestStore(t)
	if _, err := store.GetRun(context.Background(), "ghost"); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not-found error, got %v", err)
	}
}

func TestTaskRecording(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	if _, err := store.StartRun(ctx, "run-2", "align", "mm10"); err != nil {
		t.Fatalf("StartRun: %v", err)
	}

	now := time.Now()
	tasks := []*Task{
		{
			RunID: "run-2", Stage: "align", Group: "colon", Replicate: "1",
			Tool: "bowtie2", Status: TaskStatusCompleted, ExitCode: 0,
			LogPath: "/data/colon/1/colon_1.align.log", Duration: 90 * time.Second,
			StartedAt: now.Add(-90 * time.Second), FinishedAt: now,
		},
		{
			RunID: "run-2", Stage: "align", Group: "crypt", Replicate: "2",
			Tool: "bowtie2", Status: TaskStatusFailed, ExitCode: 1,
			ErrorKind: services.KindExternalTool, ErrorMessage: "bowtie2: exited with status 1",
			LogPath:   "/data/crypt/2/crypt_2.align.log", Duration: 5 * time.Second,
			StartedAt: now.Add(-5 * time.Second), FinishedAt: now,
		},
		{
			RunID: "run-2", Stage: "merge", Group: "colon",
			Tool: "samtools", Status: TaskStatusCompleted, ExitCode: 0,
			StartedAt: now, FinishedAt: now.Add(time.Second),
		},
	}
	for _, task := range tasks {
		if err := store.RecordTask(ctx, task); err != nil {
			t.Fatalf("RecordTask: %v", err)
		}
		if task.ID == 0 {
			t.Fatal("task ID not assigned")
		}
	}

	listed, err := store.ListTasks(ctx, "run-2")
	if err != nil {
		t.Fatalf("ListTasks: %v", err)
	}
	if len(listed) != 3 {
		t.Fatalf("listed %d tasks", len(listed))
	}
	failed := listed[1]
	if failed.Status != TaskStatusFailed || failed.ExitCode != 1 || failed.ErrorKind != services.KindExternalTool {
		t.Fatalf("unexpected failed task: %+v", failed)
	}
	if failed.Coordinate().String() != "crypt/2" {
		t.Fatalf("coordinate = %s", failed.Coordinate())
	}
	if failed.Duration != 5*time.Second {
		t.Fatalf("duration = %v", failed.Duration)
	}
	merged := listed[2]
	if !merged.Coordinate().IsMerged() || merged.Coordinate().Group != "colon" {
		t.Fatalf("unexpected merged task coordinate: %+v", merged)
	}

	completed, failedCount, err := store.TaskCounts(ctx, "run-2")
	if err != nil {
		t.Fatalf("TaskCounts: %v", err)
	}
	if completed != 2 || failedCount != 1 {
		t.Fatalf("counts = %d/%d", completed, failedCount)
	}
}

func TestListRunsAndLatest(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if run, err := store.LatestRun(ctx); err != nil || run != nil {
		t.Fatalf("expected empty ledger, got %+v, %v", run, err)
	}

	for _, id := range []string{"run-a", "run-b", "run-c"} {
		if _, err := store.StartRun(ctx, id, "run", "mm10"); err != nil {
			t.Fatalf("StartRun %s: %v", id, err)
		}
		time.Sleep(10 * time.Millisecond)
	}

	latest, err := store.LatestRun(ctx)
	if err != nil {
		t.Fatalf("LatestRun: %v", err)
	}
	if latest == nil || latest.ID != "run-c" {
		t.Fatalf("latest = %+v", latest)
	}

	runs, err := store.ListRuns(ctx, 2)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 2 || runs[0].ID != "run-c" || runs[1].ID != "run-b" {
		t.Fatalf("unexpected runs: %+v", runs)
	}

	all, err := store.ListRuns(ctx, 0)
	if err != nil {
		t.Fatalf("ListRuns all: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 runs, got %d", len(all))
	}
}

func TestSchemaVersionMismatch(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Paths.RootDir = filepath.Join(dir, "data")
	cfg.Paths.LogDir = filepath.Join(dir, "logs")

	store, err := Open(&cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := store.db.Exec("UPDATE schema_version SET version = 99"); err != nil {
		t.Fatalf("tamper version: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if _, err := Open(&cfg); !errors.Is(err, ErrSchemaMismatch) {
		t.Fatalf("expected schema mismatch, got %v", err)
	}
}
