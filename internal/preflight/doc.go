// Package preflight validates the environment before any stage runs: tool
// binaries resolvable on PATH, storage directories accessible, enough free
// disk, and a Bowtie2 index present for the selected genome.
//
// Checks return Result values instead of errors so the status command can
// render the full picture; the run command treats any failed required check
// as fatal before scheduling work.
package preflight
