package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dennisaldea/chipseqpipe/internal/logging"
	"github.com/dennisaldea/chipseqpipe/internal/pipeline"
	"github.com/dennisaldea/chipseqpipe/internal/preflight"
	"github.com/dennisaldea/chipseqpipe/internal/runlog"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the full pipeline from raw reads to profile plots",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return executePipeline(cmd, ctx, "")
		},
	}
}

// executePipeline drives a full run (stage == "") or a single stage re-run.
// Full runs are gated on preflight; single-stage re-runs skip it so a missing
// binary for one stage never blocks re-running another.
func executePipeline(cmd *cobra.Command, ctx *commandContext, stage string) error {
	signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := ctx.ensureConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	out := cmd.OutOrStdout()
	if stage == "" {
		results := preflight.RunAll(cfg)
		if !preflight.Passed(results) {
			printPreflightFailures(out, results)
			return errors.New("preflight checks failed")
		}
	}

	logger, logPath, err := logging.NewFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	if logPath != "" {
		if err := ensureCurrentLogPointer(cfg.Paths.LogDir, logPath); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "warn: unable to update chipseqpipe.log link: %v\n", err)
		}
		logging.CleanupOldLogs(logger, cfg.Logging.RetentionDays,
			logging.RetentionTarget{Dir: cfg.Paths.LogDir, Pattern: "chipseqpipe-*.log", Exclude: []string{logPath}},
		)
	}

	lock, err := pipeline.AcquireLock(cfg.Paths.LogDir)
	if err != nil {
		return err
	}
	defer lock.Release()

	store, err := runlog.Open(cfg)
	if err != nil {
		return fmt.Errorf("open run ledger: %w", err)
	}
	defer store.Close()

	pipe, err := pipeline.New(cfg, store, logger)
	if err != nil {
		return err
	}

	var summary *pipeline.Summary
	if stage == "" {
		summary, err = pipe.RunAll(signalCtx)
	} else {
		summary, err = pipe.RunStage(signalCtx, stage)
	}
	if summary != nil {
		renderRunSummary(out, summary)
	}
	return err
}

func printPreflightFailures(out io.Writer, results []preflight.Result) {
	colorize := shouldColorize(out)
	for _, line := range renderSectionHeader("Preflight failures", colorize) {
		fmt.Fprintln(out, line)
	}
	for _, result := range preflight.Failures(results) {
		fmt.Fprintln(out, renderStatusLine(result.Name, statusError, result.Detail, colorize))
	}
}

func ensureCurrentLogPointer(logDir, target string) error {
	if logDir == "" || target == "" {
		return nil
	}
	current := filepath.Join(logDir, "chipseqpipe.log")
	if err := os.Remove(current); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove existing log pointer: %w", err)
	}
	if err := os.Symlink(target, current); err == nil {
		return nil
	}
	if err := os.Link(target, current); err != nil {
		return fmt.Errorf("link log pointer: %w", err)
	}
	return nil
}
