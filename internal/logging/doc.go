// Package logging provides the slog construction and attribute conventions
// used across the pipeline: a console handler for interactive use, a JSON
// handler for machine consumption, and standardized field names so run, stage,
// and sample attributes stay greppable.
package logging
