package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/dennisaldea/chipseqpipe/internal/logging"
	"github.com/dennisaldea/chipseqpipe/internal/runlog"
	"github.com/dennisaldea/chipseqpipe/internal/services"
)

// RunAll executes the full stage chain.
func (p *Pipeline) RunAll(ctx context.Context) (*Summary, error) {
	return p.run(ctx, "run", Stages())
}

// RunStage executes a single stage by name.
func (p *Pipeline) RunStage(ctx context.Context, name string) (*Summary, error) {
	st, err := StageByName(name)
	if err != nil {
		return nil, err
	}
	return p.run(ctx, st.Name, []Stage{st})
}

func (p *Pipeline) run(ctx context.Context, command string, stages []Stage) (*Summary, error) {
	runID := uuid.NewString()
	ctx = services.WithRunID(ctx, runID)
	finishCtx := context.WithoutCancel(ctx)
	logger := logging.WithContext(ctx, p.logger)
	started := time.Now().UTC()

	summary := &Summary{
		RunID:     runID,
		Command:   command,
		Genome:    p.cfg.Alignment.Genome,
		StartedAt: started,
	}

	if p.store != nil {
		if _, err := p.store.StartRun(ctx, runID, command, summary.Genome); err != nil {
			return nil, err
		}
	}
	if err := p.notifier.RunStarted(ctx, runID, summary.Genome, len(p.lay.AllCoordinates())); err != nil {
		logger.Warn("run-started notification failed", logging.Error(err))
	}
	logger.Info("run started",
		logging.String(logging.FieldEventType, "run_start"),
		logging.String("command", command),
		logging.String("genome", summary.Genome),
		logging.Int("stages", len(stages)),
	)

	var runErr error
	var failedStage string
	for _, st := range stages {
		results, err := p.runStage(ctx, runID, st)
		if err != nil {
			runErr = err
			failedStage = st.Name
			break
		}

		stageSummary := summarizeStage(st.Name, results)
		summary.Stages = append(summary.Stages, stageSummary)
		for _, res := range results {
			if res.Failed() {
				summary.Failures = append(summary.Failures, res)
			}
		}

		if ctx.Err() != nil {
			runErr = ctx.Err()
			failedStage = st.Name
			break
		}
		if stageSummary.Failed > 0 || stageSummary.Canceled > 0 {
			runErr = fmt.Errorf("stage %s: %d of %d tasks failed",
				st.Name, stageSummary.Failed+stageSummary.Canceled, stageSummary.Tasks())
			failedStage = st.Name
			break
		}
	}

	summary.Duration = time.Since(started)
	summary.AlignmentRates = p.snapshotRates()

	if runErr != nil {
		p.finishRun(finishCtx, logger, runID, runlog.RunStatusFailed, runErr.Error())
		if err := p.notifier.RunFailed(finishCtx, runID, failedStage, summary.TotalFailed()); err != nil {
			logger.Warn("run-failed notification failed", logging.Error(err))
		}
		if errors.Is(runErr, context.Canceled) {
			logger.Info("run interrupted",
				logging.String(logging.FieldEventType, "run_interrupted"),
				logging.Duration("run_duration", summary.Duration),
			)
		} else {
			logger.Error("run failed",
				logging.String(logging.FieldEventType, "run_failed"),
				logging.Error(runErr),
				logging.Duration("run_duration", summary.Duration),
			)
		}
		return summary, runErr
	}

	p.finishRun(finishCtx, logger, runID, runlog.RunStatusCompleted, "")
	if err := p.notifier.RunCompleted(finishCtx, runID, summary.Duration); err != nil {
		logger.Warn("run-completed notification failed", logging.Error(err))
	}
	logger.Info("run completed",
		logging.String(logging.FieldEventType, "run_complete"),
		logging.Int("tasks", summary.TotalCompleted()),
		logging.Duration("run_duration", summary.Duration),
	)
	return summary, nil
}

func (p *Pipeline) finishRun(ctx context.Context, logger *slog.Logger, runID string, status runlog.RunStatus, message string) {
	if p.store == nil {
		return
	}
	if err := p.store.FinishRun(ctx, runID, status, message); err != nil {
		logger.Error("failed to finish run record", logging.Error(err))
	}
}

func (p *Pipeline) runStage(ctx context.Context, runID string, st Stage) ([]TaskResult, error) {
	tasks, err := st.build(p)
	if err != nil {
		return nil, err
	}

	stageCtx := services.WithStage(ctx, st.Name)
	logger := logging.WithContext(stageCtx, p.logger)
	stageStart := time.Now()
	logger.Info("stage started",
		logging.String(logging.FieldEventType, "stage_start"),
		logging.Int("tasks", len(tasks)),
	)

	var results []TaskResult
	switch st.Mode {
	case ModeGroupSequential:
		results = p.runGroupSequential(stageCtx, tasks)
	case ModeGroupAggregate:
		results = p.runGroupAggregate(stageCtx, tasks)
	default:
		results = p.runParallel(stageCtx, tasks)
	}

	p.recordResults(stageCtx, runID, results)

	completed, failed, canceled := tally(results)
	logger.Info("stage completed",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.Int("completed", completed),
		logging.Int("failed", failed),
		logging.Int("canceled", canceled),
		logging.Duration("stage_duration", time.Since(stageStart)),
	)
	return results, nil
}

// runParallel fans every task out at once and waits for all of them.
func (p *Pipeline) runParallel(ctx context.Context, tasks []Task) []TaskResult {
	results := make([]TaskResult, len(tasks))
	g, taskCtx := p.taskGroup(ctx)
	for i, task := range tasks {
		i, task := i, task
		g.Go(func() error {
			results[i] = p.runTask(taskCtx, task)
			return p.failFastErr(results[i].Err)
		})
	}
	_ = g.Wait()
	return results
}

// runGroupSequential runs groups concurrently while walking each group's
// tasks strictly in order.
func (p *Pipeline) runGroupSequential(ctx context.Context, tasks []Task) []TaskResult {
	results := make([]TaskResult, len(tasks))
	g, taskCtx := p.taskGroup(ctx)
	for _, chain := range chainsByGroup(tasks) {
		chain := chain
		g.Go(func() error {
			for pos, idx := range chain {
				results[idx] = p.runTask(taskCtx, tasks[idx])
				if err := p.failFastErr(results[idx].Err); err != nil {
					markCanceled(results, tasks, chain[pos+1:])
					return err
				}
			}
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// runGroupAggregate runs each group's replicate tasks concurrently, joins
// them at a per-group barrier, and only then runs the group's aggregate
// task. This is the explicit replicate-to-aggregate dependency: the merged
// artifact never races its own inputs.
func (p *Pipeline) runGroupAggregate(ctx context.Context, tasks []Task) []TaskResult {
	results := make([]TaskResult, len(tasks))
	g, taskCtx := p.taskGroup(ctx)
	for _, plan := range plansByGroup(tasks) {
		plan := plan
		g.Go(func() error {
			var inner sync.WaitGroup
			for _, idx := range plan.replicates {
				idx := idx
				inner.Add(1)
				go func() {
					defer inner.Done()
					results[idx] = p.runTask(taskCtx, tasks[idx])
				}()
			}
			inner.Wait()

			for _, idx := range plan.replicates {
				if err := p.failFastErr(results[idx].Err); err != nil {
					if plan.aggregate >= 0 {
						markCanceled(results, tasks, []int{plan.aggregate})
					}
					return err
				}
			}

			if plan.aggregate >= 0 {
				results[plan.aggregate] = p.runTask(taskCtx, tasks[plan.aggregate])
				if err := p.failFastErr(results[plan.aggregate].Err); err != nil {
					return err
				}
			}
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (p *Pipeline) runTask(ctx context.Context, task Task) TaskResult {
	result := TaskResult{Task: task, StartedAt: time.Now().UTC()}
	if err := p.acquire(ctx); err != nil {
		result.Err = err
		result.FinishedAt = time.Now().UTC()
		return result
	}
	defer p.release()

	taskCtx := services.WithSample(ctx, task.Coord.Group, task.Coord.Replicate)
	logger := logging.WithContext(taskCtx, p.logger)
	if task.Tool != "" {
		logger = logger.With(logging.String(logging.FieldTool, task.Tool))
	}
	if task.Role != "" {
		logger = logger.With(logging.String(logging.FieldRole, string(task.Role)))
	}

	out, err := task.Run(taskCtx)
	result.Result = out
	result.Err = err
	result.FinishedAt = time.Now().UTC()

	switch {
	case err == nil:
		logger.Info("task completed",
			logging.String(logging.FieldEventType, "task_complete"),
			logging.Duration("task_duration", result.Duration()),
		)
	case errors.Is(err, context.Canceled):
		logger.Debug("task interrupted by shutdown")
	default:
		attrs := []logging.Attr{
			logging.String(logging.FieldEventType, "task_failure"),
			logging.String(logging.FieldErrorKind, string(services.Classify(err))),
			logging.Error(err),
		}
		if out.LogPath != "" {
			attrs = append(attrs, logging.String("log_file", out.LogPath))
		}
		logger.Error("task failed", logging.Args(attrs...)...)
	}
	return result
}

// taskGroup builds the errgroup tasks run under. With fail_fast enabled the
// group carries a cancel context so the first failure kills in-flight
// siblings; otherwise failures stay isolated and every task runs to the
// barrier.
func (p *Pipeline) taskGroup(ctx context.Context) (*errgroup.Group, context.Context) {
	if p.cfg.Workflow.FailFast {
		return errgroup.WithContext(ctx)
	}
	return &errgroup.Group{}, ctx
}

func (p *Pipeline) failFastErr(err error) error {
	if p.cfg.Workflow.FailFast && err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func markCanceled(results []TaskResult, tasks []Task, indexes []int) {
	now := time.Now().UTC()
	for _, idx := range indexes {
		results[idx] = TaskResult{
			Task:       tasks[idx],
			Err:        context.Canceled,
			StartedAt:  now,
			FinishedAt: now,
		}
	}
}

// chainsByGroup splits tasks into per-group index chains, preserving both
// group order of first appearance and task order within each group.
func chainsByGroup(tasks []Task) [][]int {
	var order []string
	byGroup := make(map[string][]int)
	for i, task := range tasks {
		group := task.Coord.Group
		if _, ok := byGroup[group]; !ok {
			order = append(order, group)
		}
		byGroup[group] = append(byGroup[group], i)
	}
	chains := make([][]int, 0, len(order))
	for _, group := range order {
		chains = append(chains, byGroup[group])
	}
	return chains
}

type groupPlan struct {
	replicates []int
	aggregate  int
}

// plansByGroup splits tasks into per-group plans separating replicate tasks
// from the group's merged aggregate task.
func plansByGroup(tasks []Task) []groupPlan {
	var order []string
	byGroup := make(map[string]*groupPlan)
	for i, task := range tasks {
		group := task.Coord.Group
		plan, ok := byGroup[group]
		if !ok {
			plan = &groupPlan{aggregate: -1}
			byGroup[group] = plan
			order = append(order, group)
		}
		if task.Coord.IsMerged() {
			plan.aggregate = i
		} else {
			plan.replicates = append(plan.replicates, i)
		}
	}
	plans := make([]groupPlan, 0, len(order))
	for _, group := range order {
		plans = append(plans, *byGroup[group])
	}
	return plans
}

func (p *Pipeline) recordResults(ctx context.Context, runID string, results []TaskResult) {
	if p.store == nil {
		return
	}
	logger := logging.WithContext(ctx, p.logger)
	recordCtx := context.WithoutCancel(ctx)
	for _, res := range results {
		if res.Canceled() {
			continue
		}

		task := &runlog.Task{
			RunID:      runID,
			Stage:      res.Task.Stage,
			Group:      res.Task.Coord.Group,
			Replicate:  res.Task.Coord.Replicate,
			Role:       string(res.Task.Role),
			Tool:       res.Task.Tool,
			Status:     runlog.TaskStatusCompleted,
			ExitCode:   res.Result.ExitCode,
			LogPath:    res.Result.LogPath,
			Duration:   res.Duration(),
			StartedAt:  res.StartedAt,
			FinishedAt: res.FinishedAt,
		}
		if res.Err != nil {
			task.Status = runlog.TaskStatusFailed
			task.ErrorKind = services.Classify(res.Err)
			task.ErrorMessage = res.Err.Error()
			if task.ErrorKind != services.KindExternalTool || res.Result.ExitCode == 0 {
				task.ExitCode = -1
			}
		}

		if err := p.store.RecordTask(recordCtx, task); err != nil {
			logger.Error("failed to record task in run ledger", logging.Error(err))
		}
	}
}

func tally(results []TaskResult) (completed, failed, canceled int) {
	for _, res := range results {
		switch {
		case res.Canceled():
			canceled++
		case res.Err != nil:
			failed++
		default:
			completed++
		}
	}
	return completed, failed, canceled
}

func summarizeStage(name string, results []TaskResult) StageSummary {
	completed, failed, canceled := tally(results)
	var duration time.Duration
	for _, res := range results {
		duration += res.Duration()
	}
	return StageSummary{
		Stage:     name,
		Completed: completed,
		Failed:    failed,
		Canceled:  canceled,
		Duration:  duration,
	}
}
