package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dennisaldea/chipseqpipe/internal/pipeline"
	"github.com/dennisaldea/chipseqpipe/internal/testsupport"
)

func TestCLIStageRunRecordsLedger(t *testing.T) {
	env := setupCLITestEnv(t,
		testsupport.WithSamples([]string{"colon"}, []string{"1"}),
		testsupport.WithStubbedBinaries(),
	)
	seedRawReads(t, env.cfg)

	out, _, err := runCLI(t, []string{"qc-raw"}, env.configPath)
	if err != nil {
		t.Fatalf("qc-raw: %v", err)
	}
	requireContains(t, out, "Qc Raw")
	requireContains(t, out, "1 completed, 0 failed, 0 canceled")

	if _, err := os.Lstat(filepath.Join(env.cfg.Paths.LogDir, "chipseqpipe.log")); err != nil {
		t.Fatalf("expected current log pointer: %v", err)
	}
	matches, err := filepath.Glob(filepath.Join(env.cfg.Paths.LogDir, "chipseqpipe-*.log"))
	if err != nil || len(matches) == 0 {
		t.Fatalf("expected a timestamped run log, got %v (%v)", matches, err)
	}

	out, _, err = runCLI(t, []string{"runs"}, env.configPath)
	if err != nil {
		t.Fatalf("runs: %v", err)
	}
	requireContains(t, out, "qc-raw")
	requireContains(t, out, "completed")

	out, _, err = runCLI(t, []string{"runs", "show"}, env.configPath)
	if err != nil {
		t.Fatalf("runs show: %v", err)
	}
	requireContains(t, out, "colon/1")
	requireContains(t, out, "fastqc")
}

func TestCLIRunGatedOnPreflight(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithStubbedBinaries())
	env.cfg.Tools.FastQC = filepath.Join(env.baseDir, "missing", "fastqc")
	writeTestConfig(t, env.configPath, env.cfg)

	out, _, err := runCLI(t, []string{"run"}, env.configPath)
	if err == nil {
		t.Fatal("expected run to fail preflight")
	}
	requireContains(t, err.Error(), "preflight checks failed")
	requireContains(t, out, "Preflight failures")
	requireContains(t, out, "FastQC")
}

func TestCLIStageRunRejectsConcurrentRun(t *testing.T) {
	env := setupCLITestEnv(t,
		testsupport.WithSamples([]string{"colon"}, []string{"1"}),
		testsupport.WithStubbedBinaries(),
	)
	seedRawReads(t, env.cfg)

	lock, err := pipeline.AcquireLock(env.cfg.Paths.LogDir)
	if err != nil {
		t.Fatalf("acquire lock: %v", err)
	}
	defer lock.Release()

	_, _, err = runCLI(t, []string{"qc-raw"}, env.configPath)
	if err == nil {
		t.Fatal("expected concurrent run to be rejected")
	}
	requireContains(t, err.Error(), "already in progress")
}

func TestCLIAlignRejectsUnknownGenome(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithStubbedBinaries())

	_, _, err := runCLI(t, []string{"align", "dm6"}, env.configPath)
	if err == nil {
		t.Fatal("expected align to reject unknown genome")
	}
	requireContains(t, err.Error(), `genome "dm6" is not configured`)
}

func TestCLIStatusRendersSections(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithStubbedBinaries())

	out, _, err := runCLI(t, []string{"status"}, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "== Configuration ==")
	requireContains(t, out, "== Preflight ==")
	requireContains(t, out, "== Latest run ==")
	requireContains(t, out, "FastQC")
	requireContains(t, out, "No runs recorded")
}

func TestCLILogsTailsStageLog(t *testing.T) {
	env := setupCLITestEnv(t)

	repLog := filepath.Join(env.cfg.Paths.RootDir, "colon", "1", "colon_1.align.log")
	testsupport.WriteText(t, repLog, "first\nsecond\nthird\n")

	out, _, err := runCLI(t, []string{"logs", "colon", "1", "align", "--tail", "2"}, env.configPath)
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	if strings.Contains(out, "first") {
		t.Fatalf("tail should drop the oldest line, got %q", out)
	}
	requireContains(t, out, "second")
	requireContains(t, out, "third")

	mergedLog := filepath.Join(env.cfg.Paths.RootDir, "colon", "colon_merged.merge.log")
	testsupport.WriteText(t, mergedLog, "merged here\n")

	out, _, err = runCLI(t, []string{"logs", "colon", "merge"}, env.configPath)
	if err != nil {
		t.Fatalf("logs merged: %v", err)
	}
	requireContains(t, out, "merged here")

	_, _, err = runCLI(t, []string{"logs", "colon", "1", "polish"}, env.configPath)
	if err == nil {
		t.Fatal("expected unknown stage to be rejected")
	}
	requireContains(t, err.Error(), "unknown stage")
}

func TestCLIRunsShowUnknownRun(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := runCLI(t, []string{"runs", "show", "no-such-run"}, env.configPath)
	if err == nil {
		t.Fatal("expected unknown run id to error")
	}
	requireContains(t, err.Error(), "not in ledger")
}
