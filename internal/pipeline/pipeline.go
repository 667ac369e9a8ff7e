package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/dennisaldea/chipseqpipe/internal/config"
	"github.com/dennisaldea/chipseqpipe/internal/layout"
	"github.com/dennisaldea/chipseqpipe/internal/logging"
	"github.com/dennisaldea/chipseqpipe/internal/notify"
	"github.com/dennisaldea/chipseqpipe/internal/runlog"
	"github.com/dennisaldea/chipseqpipe/internal/services"
	"github.com/dennisaldea/chipseqpipe/internal/toolrun"
)

// Pipeline schedules stage tasks over the configured sample space. A nil
// ledger store disables run recording; everything else is required.
type Pipeline struct {
	cfg      *config.Config
	lay      *layout.Layout
	runner   toolrun.Runner
	store    *runlog.Store
	logger   *slog.Logger
	notifier notify.Service

	// sem bounds scheduler-level task parallelism when workflow.max_parallel
	// is set. Per-tool thread counts are a separate knob passed to the tools.
	sem *semaphore.Weighted

	mu    sync.Mutex
	rates map[string]float64
}

// New constructs a pipeline with the production executor.
func New(cfg *config.Config, store *runlog.Store, logger *slog.Logger) (*Pipeline, error) {
	return NewWithRunner(cfg, store, logger, toolrun.NewRunner())
}

// NewWithRunner constructs a pipeline with a custom executor (used in tests).
func NewWithRunner(cfg *config.Config, store *runlog.Store, logger *slog.Logger, runner toolrun.Runner) (*Pipeline, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: pipeline requires configuration", services.ErrConfiguration)
	}
	lay, err := layout.New(cfg)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	if runner == nil {
		runner = toolrun.NewRunner()
	}

	p := &Pipeline{
		cfg:      cfg,
		lay:      lay,
		runner:   runner,
		store:    store,
		logger:   logging.NewComponentLogger(logger, "pipeline"),
		notifier: notify.NewService(cfg),
		rates:    make(map[string]float64),
	}
	if cfg.Workflow.MaxParallel > 0 {
		p.sem = semaphore.NewWeighted(int64(cfg.Workflow.MaxParallel))
	}
	return p, nil
}

// Layout exposes the path resolver the pipeline was built over.
func (p *Pipeline) Layout() *layout.Layout {
	return p.lay
}

func (p *Pipeline) acquire(ctx context.Context) error {
	if p.sem == nil {
		return ctx.Err()
	}
	return p.sem.Acquire(ctx, 1)
}

func (p *Pipeline) release() {
	if p.sem != nil {
		p.sem.Release(1)
	}
}

func (p *Pipeline) setAlignmentRate(coord layout.Coordinate, rate float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.rates[coord.String()] = rate
}

func (p *Pipeline) snapshotRates() map[string]float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make(map[string]float64, len(p.rates))
	for coord, rate := range p.rates {
		out[coord] = rate
	}
	return out
}
