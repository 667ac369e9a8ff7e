package services

import "context"

type contextKey string

const (
	runIDKey     contextKey = "run_id"
	stageKey     contextKey = "stage"
	groupKey     contextKey = "group"
	replicateKey contextKey = "replicate"
)

// WithRunID annotates context with the pipeline run identifier.
func WithRunID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, runIDKey, id)
}

// RunIDFromContext extracts the pipeline run identifier if present.
func RunIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(runIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithStage annotates context with the pipeline stage name.
func WithStage(ctx context.Context, stage string) context.Context {
	if stage == "" {
		return ctx
	}
	return context.WithValue(ctx, stageKey, stage)
}

// StageFromContext returns the stage name if present.
func StageFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(stageKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithSample annotates context with the sample coordinate being processed.
// An empty replicate means the group-level merged aggregate.
func WithSample(ctx context.Context, group, replicate string) context.Context {
	if group == "" {
		return ctx
	}
	ctx = context.WithValue(ctx, groupKey, group)
	if replicate != "" {
		ctx = context.WithValue(ctx, replicateKey, replicate)
	}
	return ctx
}

// GroupFromContext returns the sample group if present.
func GroupFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(groupKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// ReplicateFromContext returns the sample replicate if present.
func ReplicateFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(replicateKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
