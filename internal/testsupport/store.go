package testsupport

import (
	"context"
	"testing"

	"github.com/dennisaldea/chipseqpipe/internal/config"
	"github.com/dennisaldea/chipseqpipe/internal/runlog"
)

// MustOpenStore opens a run ledger for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *runlog.Store {
	t.Helper()

	store, err := runlog.Open(cfg)
	if err != nil {
		t.Fatalf("runlog.Open: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

// StartRun opens a ledger run record for tests using the provided store.
func StartRun(t testing.TB, store *runlog.Store, runID, command, genome string) *runlog.Run {
	t.Helper()

	run, err := store.StartRun(context.Background(), runID, command, genome)
	if err != nil {
		t.Fatalf("store.StartRun: %v", err)
	}
	return run
}
