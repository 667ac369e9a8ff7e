package preflight

import (
	"github.com/dennisaldea/chipseqpipe/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes every applicable preflight check for the configuration:
// tool binaries on PATH, storage directories, free disk space, and the
// selected genome's Bowtie2 index.
func RunAll(cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	for _, status := range CheckBinaries(ToolRequirements(cfg)) {
		results = append(results, status.Result())
	}

	results = append(results, CheckDirectoryAccess("Data root", cfg.Paths.RootDir))
	results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir))
	results = append(results, CheckDiskSpace("Free disk space", cfg.Paths.RootDir, cfg.Workflow.MinFreeGiB))

	genome, err := cfg.SelectedGenome()
	if err != nil {
		results = append(results, Result{Name: "Genome index", Detail: err.Error()})
	} else {
		results = append(results, CheckGenomeIndex("Genome index ("+cfg.Alignment.Genome+")", genome.Bowtie2Index))
	}

	return results
}

// Passed reports whether every required check succeeded.
func Passed(results []Result) bool {
	for _, result := range results {
		if !result.Passed {
			return false
		}
	}
	return true
}

// Failures returns the checks that did not pass.
func Failures(results []Result) []Result {
	var failed []Result
	for _, result := range results {
		if !result.Passed {
			failed = append(failed, result)
		}
	}
	return failed
}
