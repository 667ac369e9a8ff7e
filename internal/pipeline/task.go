package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/dennisaldea/chipseqpipe/internal/layout"
	"github.com/dennisaldea/chipseqpipe/internal/toolrun"
)

// Task is one schedulable unit of stage work bound to a sample coordinate.
// Tool names the external binary the task drives and is empty for internal
// work such as summit centering. Run performs the work; for tasks that chain
// several invocations it returns the result of the last one.
type Task struct {
	Stage string
	Coord layout.Coordinate
	Role  layout.Role
	Tool  string
	Run   func(ctx context.Context) (toolrun.Result, error)
}

// TaskResult pairs a finished task with its outcome.
type TaskResult struct {
	Task       Task
	Result     toolrun.Result
	Err        error
	StartedAt  time.Time
	FinishedAt time.Time
}

// Failed reports whether the task ended in a genuine failure. Tasks stopped
// by run cancellation are not counted as failures.
func (r TaskResult) Failed() bool {
	return r.Err != nil && !r.Canceled()
}

// Canceled reports whether the task was stopped by shutdown or fail-fast
// cancellation rather than by its own work.
func (r TaskResult) Canceled() bool {
	return errors.Is(r.Err, context.Canceled)
}

// Duration returns the wall time the task spent between start and finish.
func (r TaskResult) Duration() time.Duration {
	if r.FinishedAt.IsZero() || r.StartedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
