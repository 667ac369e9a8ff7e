package pipeline

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/dennisaldea/chipseqpipe/internal/services"
)

// Stage name tokens. They double as CLI subcommand names and as the stage
// component of log filenames, so they never change once released.
const (
	StageQCRaw     = "qc-raw"
	StageTrim      = "trim"
	StageQCTrimmed = "qc-trimmed"
	StageAlign     = "align"
	StageMerge     = "merge"
	StageCoverage  = "coverage"
	StageCallPeaks = "callpeaks"
	StageCenter    = "center"
	StagePlot      = "plot"
)

// Mode selects how a stage's tasks are scheduled relative to each other.
type Mode int

const (
	// ModeParallel launches every task concurrently and waits for all of
	// them at the stage barrier.
	ModeParallel Mode = iota
	// ModeGroupSequential runs groups concurrently but walks each group's
	// tasks in order, one at a time.
	ModeGroupSequential
	// ModeGroupAggregate runs each group's replicate tasks concurrently,
	// joins them, and only then runs that group's merged aggregate task.
	// Groups are concurrent with each other.
	ModeGroupAggregate
)

// Stage couples a name with its scheduling mode and task builder.
type Stage struct {
	Name string
	Mode Mode

	build func(*Pipeline) ([]Task, error)
}

// stageOrder is the fixed processing chain. Order is load-bearing: every
// stage consumes artifacts produced by an earlier one.
var stageOrder = []Stage{
	{Name: StageQCRaw, Mode: ModeParallel, build: (*Pipeline).qcRawTasks},
	{Name: StageTrim, Mode: ModeParallel, build: (*Pipeline).trimTasks},
	{Name: StageQCTrimmed, Mode: ModeParallel, build: (*Pipeline).qcTrimmedTasks},
	{Name: StageAlign, Mode: ModeGroupSequential, build: (*Pipeline).alignTasks},
	{Name: StageMerge, Mode: ModeGroupAggregate, build: (*Pipeline).mergeTasks},
	{Name: StageCoverage, Mode: ModeParallel, build: (*Pipeline).coverageTasks},
	{Name: StageCallPeaks, Mode: ModeParallel, build: (*Pipeline).callPeaksTasks},
	{Name: StageCenter, Mode: ModeParallel, build: (*Pipeline).centerTasks},
	{Name: StagePlot, Mode: ModeParallel, build: (*Pipeline).plotTasks},
}

// Stages returns the full stage chain in execution order.
func Stages() []Stage {
	out := make([]Stage, len(stageOrder))
	copy(out, stageOrder)
	return out
}

// StageNames returns the stage name tokens in execution order.
func StageNames() []string {
	names := make([]string, len(stageOrder))
	for i, st := range stageOrder {
		names[i] = st.Name
	}
	return names
}

// StageByName resolves a stage token to its definition.
func StageByName(name string) (Stage, error) {
	name = strings.TrimSpace(name)
	for _, st := range stageOrder {
		if st.Name == name {
			return st, nil
		}
	}
	return Stage{}, fmt.Errorf("%w: unknown stage %q (known: %s)",
		services.ErrValidation, name, strings.Join(StageNames(), ", "))
}

var labelCaser = cases.Title(language.Und)

// Label renders a stage token as a display heading for reports and tables.
func Label(stage string) string {
	return labelCaser.String(strings.ReplaceAll(strings.TrimSpace(stage), "-", " "))
}
