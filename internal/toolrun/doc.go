// Package toolrun executes external bioinformatics tools and captures their
// output.
//
// Each invocation runs as its own process with an independently set working
// directory, so concurrent tasks of different samples never share mutable
// process state. Stdout and stderr are merged line-by-line into a single log
// file per (coordinate, stage), truncated on re-run, and optionally streamed
// to a callback for tools whose diagnostics the pipeline scrapes. A non-zero
// exit becomes an external-tool error carrying the exit status and log
// location; there is no retry.
package toolrun
