package main

import (
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/dennisaldea/chipseqpipe/internal/preflight"
	"github.com/dennisaldea/chipseqpipe/internal/runlog"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show configuration, preflight checks, and the latest run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			for _, line := range renderSectionHeader("Configuration", colorize) {
				fmt.Fprintln(out, line)
			}
			genomeDetail := cfg.Alignment.Genome
			if genome, err := cfg.SelectedGenome(); err == nil {
				genomeDetail = fmt.Sprintf("%s (index %s)", cfg.Alignment.Genome, genome.Bowtie2Index)
			}
			fmt.Fprintln(out, renderStatusLine("Genome", statusInfo, genomeDetail, colorize))
			samples := fmt.Sprintf("%d groups x %d replicates", len(cfg.Samples.Groups), len(cfg.Samples.Replicates))
			fmt.Fprintln(out, renderStatusLine("Samples", statusInfo, samples, colorize))
			fmt.Fprintln(out, renderStatusLine("Data root", statusInfo, cfg.Paths.RootDir, colorize))

			for _, line := range renderSectionHeader("Preflight", colorize) {
				fmt.Fprintln(out, line)
			}
			for _, result := range preflight.RunAll(cfg) {
				kind := statusOK
				if !result.Passed {
					kind = statusError
				}
				fmt.Fprintln(out, renderStatusLine(result.Name, kind, result.Detail, colorize))
			}

			for _, line := range renderSectionHeader("Latest run", colorize) {
				fmt.Fprintln(out, line)
			}
			return ctx.withStore(func(store *runlog.Store) error {
				run, err := store.LatestRun(cmd.Context())
				if err != nil {
					return err
				}
				if run == nil {
					fmt.Fprintln(out, statusIndent+"No runs recorded")
					return nil
				}
				fmt.Fprintln(out, renderStatusLine("Run", statusInfo, run.ID, colorize))
				printRunStatus(out, run, colorize)
				return nil
			})
		},
	}
}

func printRunStatus(out io.Writer, run *runlog.Run, colorize bool) {
	kind := statusInfo
	detail := string(run.Status)
	switch run.Status {
	case runlog.RunStatusCompleted:
		kind = statusOK
	case runlog.RunStatusFailed:
		kind = statusError
		if run.ErrorMessage != "" {
			detail = fmt.Sprintf("%s (%s)", run.Status, run.ErrorMessage)
		}
	}
	fmt.Fprintln(out, renderStatusLine("Command", statusInfo, run.Command, colorize))
	fmt.Fprintln(out, renderStatusLine("Genome", statusInfo, run.Genome, colorize))
	fmt.Fprintln(out, renderStatusLine("Status", kind, detail, colorize))
	started := fmt.Sprintf("%s (%s)", run.StartedAt.Local().Format(time.RFC3339), humanize.Time(run.StartedAt))
	fmt.Fprintln(out, renderStatusLine("Started", statusInfo, started, colorize))
	if run.Finished() {
		duration := run.FinishedAt.Sub(run.StartedAt).Round(time.Second)
		fmt.Fprintln(out, renderStatusLine("Duration", statusInfo, duration.String(), colorize))
	}
}
