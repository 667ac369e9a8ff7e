package runlog

import (
	"time"

	"github.com/dennisaldea/chipseqpipe/internal/layout"
	"github.com/dennisaldea/chipseqpipe/internal/services"
)

// RunStatus tracks a pipeline run through the ledger.
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// TaskStatus records the outcome of one task. Tasks are inserted only after
// they finish; in-flight tasks have no row.
type TaskStatus string

const (
	TaskStatusCompleted TaskStatus = "completed"
	TaskStatusFailed    TaskStatus = "failed"
)

// Run is one invocation of the pipeline or of a single stage command.
type Run struct {
	ID           string
	Command      string
	Genome       string
	Status       RunStatus
	ErrorMessage string
	StartedAt    time.Time
	FinishedAt   time.Time
}

// Finished reports whether the run has a terminal status.
func (r *Run) Finished() bool {
	return r != nil && r.Status != RunStatusRunning
}

// Task is one completed or failed unit of stage work for a coordinate.
// An empty Replicate denotes the group-level merged aggregate. ExitCode is
// -1 when the failure was not a tool exit status.
type Task struct {
	ID           int64
	RunID        string
	Stage        string
	Group        string
	Replicate    string
	Role         string
	Tool         string
	Status       TaskStatus
	ExitCode     int
	ErrorKind    services.Kind
	ErrorMessage string
	LogPath      string
	Duration     time.Duration
	StartedAt    time.Time
	FinishedAt   time.Time
}

// Coordinate reconstructs the sample coordinate the task ran for.
func (t *Task) Coordinate() layout.Coordinate {
	return layout.Coordinate{Group: t.Group, Replicate: t.Replicate}
}
