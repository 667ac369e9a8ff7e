// Package config loads, normalizes, and validates the TOML configuration that
// drives the pipeline: the sample enumeration, genome references, external
// tool settings, and scheduler behavior.
package config
