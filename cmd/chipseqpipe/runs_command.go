package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/dennisaldea/chipseqpipe/internal/runlog"
)

func newRunsCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recorded pipeline runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *runlog.Store) error {
				runs, err := store.ListRuns(cmd.Context(), limit)
				if err != nil {
					return err
				}
				if len(runs) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded")
					return nil
				}
				table := renderTable(
					[]string{"ID", "Command", "Genome", "Status", "Started", "Duration"},
					buildRunRows(runs),
					5,
				)
				fmt.Fprintln(cmd.OutOrStdout(), table)
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of runs to list (0 for all)")
	cmd.AddCommand(newRunsShowCommand(ctx))
	return cmd
}

func newRunsShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show [run-id]",
		Short: "Show one run and its recorded tasks (latest run by default)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *runlog.Store) error {
				var run *runlog.Run
				var err error
				if len(args) == 1 {
					run, err = store.GetRun(cmd.Context(), args[0])
				} else {
					run, err = store.LatestRun(cmd.Context())
				}
				if err != nil {
					return err
				}
				if run == nil {
					fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded")
					return nil
				}

				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)
				for _, line := range renderSectionHeader("Run "+run.ID, colorize) {
					fmt.Fprintln(out, line)
				}
				printRunStatus(out, run, colorize)

				tasks, err := store.ListTasks(cmd.Context(), run.ID)
				if err != nil {
					return err
				}
				if len(tasks) == 0 {
					fmt.Fprintln(out, statusIndent+"No tasks recorded")
					return nil
				}
				table := renderTable(
					[]string{"Stage", "Sample", "Role", "Tool", "Status", "Exit", "Duration"},
					buildTaskRows(tasks),
					5, 6,
				)
				fmt.Fprintln(out, table)
				for _, task := range tasks {
					if task.Status != runlog.TaskStatusFailed || task.ErrorMessage == "" {
						continue
					}
					label := task.Stage + " " + task.Coordinate().String()
					fmt.Fprintln(out, renderStatusLine(label, statusError, task.ErrorMessage, colorize))
				}
				return nil
			})
		},
	}
}

func buildRunRows(runs []*runlog.Run) [][]string {
	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		duration := ""
		if run.Finished() {
			duration = run.FinishedAt.Sub(run.StartedAt).Round(time.Second).String()
		}
		rows = append(rows, []string{
			run.ID,
			run.Command,
			run.Genome,
			string(run.Status),
			humanize.Time(run.StartedAt),
			duration,
		})
	}
	return rows
}

func buildTaskRows(tasks []*runlog.Task) [][]string {
	rows := make([][]string, 0, len(tasks))
	for _, task := range tasks {
		exit := ""
		if task.Status == runlog.TaskStatusFailed {
			exit = strconv.Itoa(task.ExitCode)
		}
		rows = append(rows, []string{
			task.Stage,
			task.Coordinate().String(),
			task.Role,
			task.Tool,
			string(task.Status),
			exit,
			task.Duration.Round(time.Millisecond).String(),
		})
	}
	return rows
}
