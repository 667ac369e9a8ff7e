// Package pipeline schedules the fixed ChIP-seq stage chain over the
// configured sample space.
//
// A run walks the stage order (raw QC, trimming, trimmed QC, alignment,
// merging, coverage, peak calling, summit centering, profile plots) and
// fans each stage out into one task per sample coordinate. Stages finish at
// a strict barrier: every task of stage N completes before stage N+1 starts,
// and a group's merged aggregate never starts before all of that group's
// replicate tasks have finished. Task failures are isolated to their own
// coordinate, collected at the barrier, written to the run ledger, and stop
// the run after the stage that reported them.
//
// The scheduler owns no biology. Every stage is either a rename-and-invoke
// wrapper around an external tool or, for summit centering, a small internal
// derivation; the path scheme in internal/layout decides where everything
// lives.
package pipeline
