// Package logs prints captured tool logs with bounded memory usage.
//
// Every stage execution writes the tool's combined stdout and stderr next to
// the artifacts it produced; this package streams those files for the
// `chipseqpipe logs` command, supports "last N lines" tailing, and powers
// follow mode while an alignment is still running. Callers supply context
// deadlines so follow-mode polling shuts down cleanly when the CLI exits.
package logs
