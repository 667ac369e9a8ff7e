package pipeline

import "time"

// StageSummary tallies one stage of a run.
type StageSummary struct {
	Stage     string
	Completed int
	Failed    int
	Canceled  int
	// Duration is the sum of task durations, not wall time; with parallel
	// tasks it exceeds the stage's elapsed time.
	Duration time.Duration
}

// Tasks returns the number of tasks the stage attempted.
func (s StageSummary) Tasks() int {
	return s.Completed + s.Failed + s.Canceled
}

// Summary describes a finished (or aborted) pipeline run.
type Summary struct {
	RunID     string
	Command   string
	Genome    string
	StartedAt time.Time
	Duration  time.Duration
	Stages    []StageSummary
	Failures  []TaskResult
	// AlignmentRates maps replicate coordinates to the overall alignment
	// rate bowtie2 reported, keyed by Coordinate.String().
	AlignmentRates map[string]float64
}

// Failed reports whether any task in the run failed.
func (s *Summary) Failed() bool {
	return s.TotalFailed() > 0
}

// TotalCompleted sums completed tasks across stages.
func (s *Summary) TotalCompleted() int {
	total := 0
	for _, st := range s.Stages {
		total += st.Completed
	}
	return total
}

// TotalFailed sums failed tasks across stages.
func (s *Summary) TotalFailed() int {
	total := 0
	for _, st := range s.Stages {
		total += st.Failed
	}
	return total
}

// TotalCanceled sums canceled tasks across stages.
func (s *Summary) TotalCanceled() int {
	total := 0
	for _, st := range s.Stages {
		total += st.Canceled
	}
	return total
}
