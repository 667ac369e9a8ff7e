// Package main hosts the chipseqpipe CLI entrypoint and command graph.
//
// The Cobra-based command tree translates terminal invocations into full
// pipeline runs, single-stage re-runs, run ledger queries, stage log
// tailing, and configuration scaffolding. It centralizes configuration
// resolution, the run lock, and structured logging setup so subcommands can
// focus on user experience instead of wiring.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
// That separation keeps the CLI declarative while the heavy lifting lives in
// reusable pipeline components.
package main
