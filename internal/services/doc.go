// Package services holds the error taxonomy and context helpers shared by
// every pipeline stage. Errors are tagged with sentinel markers so callers can
// classify failures without string matching.
package services
